package profiling

import (
	"fmt"
	"math"
	"sort"

	"trialstat/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// ShapiroWilkMaxN is the largest sample for which Royston's p-value
// approximation is validated. Larger samples are still tested.
const ShapiroWilkMaxN = 5000

// Royston (1992, 1995) polynomial coefficients, algorithm AS R94
var (
	swG  = []float64{-2.273, 0.459}
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
)

// ShapiroWilk tests whether x plausibly comes from a normal distribution.
// It returns the W statistic and its p-value. NaNs are dropped; fewer than
// three values or a zero range is a domain error.
func ShapiroWilk(x []float64) (w, p float64, err error) {
	const name = "Shapiro-Wilk test"

	sorted := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	n := len(sorted)
	if n < 3 {
		return 0, 0, core.NewInsufficientDataError(name, n, 3)
	}
	sort.Float64s(sorted)

	if sorted[n-1]-sorted[0] < 1e-19*math.Max(1, math.Abs(sorted[0])) {
		return 0, 0, core.NewDegenerateError(name, "all values are identical")
	}

	a := swilkCoefficients(n)

	mean := 0.0
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(n)
	ss := 0.0
	for _, v := range sorted {
		d := v - mean
		ss += d * d
	}

	num := 0.0
	for i, ai := range a {
		num += ai * (sorted[n-1-i] - sorted[i])
	}
	w = math.Min(num*num/ss, 1)

	return w, swilkPValue(w, n), nil
}

// swilkCoefficients returns the antisymmetric weights a_1..a_{n/2} applied to
// x_(n+1-i) - x_(i)
func swilkCoefficients(n int) []float64 {
	nn2 := n / 2
	a := make([]float64, nn2)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, nn2)
	summ2 := 0.0
	for i := 0; i < nn2; i++ {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2
	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < nn2; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

// swilkPValue is Royston's normalizing transformation of W
func swilkPValue(w float64, n int) float64 {
	if n == 3 {
		const pi6 = 6 / math.Pi
		p := pi6 * (math.Asin(math.Sqrt(w)) - math.Pi/3)
		return math.Max(p, 0)
	}

	an := float64(n)
	w1 := math.Log(1 - w)
	var m, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if w1 >= gamma {
			return 1e-99
		}
		w1 = -math.Log(gamma - w1)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		xx := math.Log(an)
		m = poly(swC5, xx)
		s = math.Exp(poly(swC6, xx))
	}
	return distuv.UnitNormal.Survival((w1 - m) / s)
}

// poly evaluates c[0] + c[1]x + c[2]x² + ...
func poly(c []float64, x float64) float64 {
	result := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		result = result*x + c[i]
	}
	return result
}

// shapiroWarning explains when the p-value is outside the validated range
func shapiroWarning(n int) string {
	if n > ShapiroWilkMaxN {
		return fmt.Sprintf("n=%d exceeds %d; Shapiro-Wilk p-value may be inaccurate", n, ShapiroWilkMaxN)
	}
	return ""
}

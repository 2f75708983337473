package hypothesis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalCDF computes the standard normal CDF
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalSurvival computes 1 - Φ(x) without cancellation in the upper tail
func NormalSurvival(x float64) float64 {
	return distuv.UnitNormal.Survival(x)
}

// NormalPValue returns the p-value of a z-score under the given alternative
func NormalPValue(z float64, alt Alternative) float64 {
	switch alt {
	case Less:
		return NormalCDF(z)
	case Greater:
		return NormalSurvival(z)
	}
	return clampProbability(2 * NormalSurvival(math.Abs(z)))
}

// ChiSquareSurvival returns P(X >= x) for X ~ χ²(df)
func ChiSquareSurvival(x float64, df int) float64 {
	if df <= 0 {
		return math.NaN()
	}
	if math.IsInf(x, 1) {
		return 0
	}
	return distuv.ChiSquared{K: float64(df)}.Survival(x)
}

// StudentsTPValue returns the p-value of a t statistic with nu degrees of
// freedom under the given alternative
func StudentsTPValue(t, nu float64, alt Alternative) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	switch alt {
	case Less:
		return dist.CDF(t)
	case Greater:
		return dist.Survival(t)
	}
	return clampProbability(2 * dist.Survival(math.Abs(t)))
}

func clampProbability(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

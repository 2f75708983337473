package hypothesis

import (
	"fmt"
	"math"

	"trialstat/domain/core"
)

// ZTestResult is the outcome of a pooled two-proportion z-test
type ZTestResult struct {
	Successes   [2]int     `json:"successes"`
	Totals      [2]int     `json:"totals"`
	Proportions [2]float64 `json:"proportions"`
	Pooled      float64    `json:"pooled_proportion"`
	Difference  float64    `json:"difference"`
	StdErr      float64    `json:"std_err"`
	Z           float64    `json:"z"`
	PValue      float64    `json:"p_value"`
	CohensH     float64    `json:"cohens_h"`
	Signal      string     `json:"signal"`
	Description string     `json:"description"`
}

// TwoProportionZTest compares successes[0]/totals[0] with
// successes[1]/totals[1] using the pooled standard error. The p-value is
// two-sided. Swapping the groups flips the sign of z and leaves p unchanged.
func TwoProportionZTest(successes, totals []int) (*ZTestResult, error) {
	const name = "two-proportion z-test"

	if len(successes) != 2 || len(totals) != 2 {
		return nil, core.NewDegenerateError(name, fmt.Sprintf("need exactly two groups, got %d successes and %d totals", len(successes), len(totals)))
	}
	for i := 0; i < 2; i++ {
		if totals[i] <= 0 {
			return nil, core.NewDegenerateError(name, fmt.Sprintf("group %d has no observations", i+1))
		}
		if successes[i] < 0 || successes[i] > totals[i] {
			return nil, core.NewDegenerateError(name, fmt.Sprintf("group %d has %d successes out of %d", i+1, successes[i], totals[i]))
		}
	}

	x1, x2 := float64(successes[0]), float64(successes[1])
	n1, n2 := float64(totals[0]), float64(totals[1])
	p1, p2 := x1/n1, x2/n2
	pooled := (x1 + x2) / (n1 + n2)

	if pooled == 0 || pooled == 1 {
		return nil, core.NewDegenerateError(name, fmt.Sprintf("pooled proportion is %g, standard error is zero", pooled))
	}

	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	z := (p1 - p2) / se
	pValue := NormalPValue(z, TwoSided)

	// Cohen's h: difference of arcsine-transformed proportions
	h := 2*math.Asin(math.Sqrt(p1)) - 2*math.Asin(math.Sqrt(p2))

	res := &ZTestResult{
		Successes:   [2]int{successes[0], successes[1]},
		Totals:      [2]int{totals[0], totals[1]},
		Proportions: [2]float64{p1, p2},
		Pooled:      pooled,
		Difference:  p1 - p2,
		StdErr:      se,
		Z:           z,
		PValue:      pValue,
		CohensH:     h,
		Signal:      classifyEffect(h, "cohens_h"),
	}
	res.Description = res.describe(DefaultAlpha)
	return res, nil
}

func (r *ZTestResult) describe(alpha float64) string {
	if !Significant(r.PValue, alpha) {
		return fmt.Sprintf("No significant difference in proportions (%.4f vs %.4f, z=%.3f, p=%.3f)", r.Proportions[0], r.Proportions[1], r.Z, r.PValue)
	}
	direction := "higher"
	if r.Z < 0 {
		direction = "lower"
	}
	return fmt.Sprintf("Group 1 proportion is significantly %s (%.4f vs %.4f, z=%.3f, p=%.3g, h=%.3f)", direction, r.Proportions[0], r.Proportions[1], r.Z, r.PValue, r.CohensH)
}

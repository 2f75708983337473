package hypothesis

import (
	"fmt"
	"math"

	"trialstat/domain/core"

	"gonum.org/v1/gonum/stat"
)

// WelchResult is the outcome of Welch's unequal-variance t-test
type WelchResult struct {
	NA          int         `json:"n_a"`
	NB          int         `json:"n_b"`
	MeanA       float64     `json:"mean_a"`
	MeanB       float64     `json:"mean_b"`
	T           float64     `json:"t"`
	DOF         float64     `json:"dof"`
	PValue      float64     `json:"p_value"`
	CohensD     float64     `json:"cohens_d"`
	Alternative Alternative `json:"alternative"`
	Signal      string      `json:"signal"`
	Description string      `json:"description"`
}

// WelchTTest is the parametric alternative to MannWhitneyU, valid when both
// samples pass the normality gate
func WelchTTest(a, b []float64, alt Alternative) (*WelchResult, error) {
	const name = "Welch's t-test"

	a, b = dropNaN(a), dropNaN(b)
	if len(a) < 2 || len(b) < 2 {
		return nil, core.NewInsufficientDataError(name, min(len(a), len(b)), 2)
	}
	if alt == "" {
		alt = TwoSided
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	n1, n2 := float64(len(a)), float64(len(b))

	se2 := varA/n1 + varB/n2
	if se2 == 0 {
		return nil, core.NewDegenerateError(name, "both samples have zero variance")
	}

	t := (meanA - meanB) / math.Sqrt(se2)
	// Welch-Satterthwaite
	dof := se2 * se2 / ((varA/n1)*(varA/n1)/(n1-1) + (varB/n2)*(varB/n2)/(n2-1))

	pooledSD := math.Sqrt(((n1-1)*varA + (n2-1)*varB) / (n1 + n2 - 2))
	d := 0.0
	if pooledSD > 0 {
		d = (meanA - meanB) / pooledSD
	}

	res := &WelchResult{
		NA:          len(a),
		NB:          len(b),
		MeanA:       meanA,
		MeanB:       meanB,
		T:           t,
		DOF:         dof,
		PValue:      StudentsTPValue(t, dof, alt),
		CohensD:     d,
		Alternative: alt,
		Signal:      classifyEffect(d, "cohens_d"),
	}
	res.Description = res.describe(DefaultAlpha)
	return res, nil
}

func (r *WelchResult) describe(alpha float64) string {
	if !Significant(r.PValue, alpha) {
		return fmt.Sprintf("No significant difference between means (t=%.3f, dof=%.1f, p=%.3f, d=%.3f, nA=%d, nB=%d)", r.T, r.DOF, r.PValue, r.CohensD, r.NA, r.NB)
	}
	direction := "higher"
	if r.T < 0 {
		direction = "lower"
	}
	return fmt.Sprintf("Sample A has a %s %s mean than sample B (t=%.3f, dof=%.1f, p=%.3g, d=%.3f, nA=%d, nB=%d)", r.Signal, direction, r.T, r.DOF, r.PValue, r.CohensD, r.NA, r.NB)
}

package hypothesis

import (
	"fmt"
	"math"
	"sort"

	"trialstat/domain/core"

	moremath "github.com/aclements/go-moremath/stats"
)

// MannWhitneyResult is the outcome of a Mann-Whitney U test
type MannWhitneyResult struct {
	NA          int         `json:"n_a"`
	NB          int         `json:"n_b"`
	U           float64     `json:"u"`   // U for sample A
	UB          float64     `json:"u_b"` // U for sample B; U + UB = NA*NB
	Z           float64     `json:"z"`   // normal approximation, tie and continuity corrected
	PValue      float64     `json:"p_value"`
	// RBC = 1 - 2U/(NA*NB): positive when A tends to be lower than B.
	// This is the negation of 2U/(NA*NB) - 1 used by some other tools.
	RBC         float64     `json:"rank_biserial"`
	// CLES = U/(NA*NB) estimates P(A > B) for every Alternative.
	CLES        float64     `json:"cles"`
	Alternative Alternative `json:"alternative"`
	TieGroups   int         `json:"tie_groups"`
	Signal      string      `json:"signal"`
	Description string      `json:"description"`
}

// MannWhitneyU compares two independent samples by rank. NaNs are dropped.
// U counts the pairs (a, b) with a > b, ties counting one half, so
// CLES = U/(nA·nB) estimates P(A > B) and RBC = 1 - 2U/(nA·nB).
// The p-value is exact for small samples and uses the tie- and
// continuity-corrected normal approximation otherwise.
func MannWhitneyU(a, b []float64, alt Alternative) (*MannWhitneyResult, error) {
	const name = "Mann-Whitney U test"

	a, b = dropNaN(a), dropNaN(b)
	if len(a) == 0 || len(b) == 0 {
		return nil, core.NewInsufficientDataError(name, min(len(a), len(b)), 1)
	}
	if alt == "" {
		alt = TwoSided
	}

	na, nb := len(a), len(b)
	combined := make([]float64, 0, na+nb)
	combined = append(combined, a...)
	combined = append(combined, b...)

	ranks, ties := averageRanks(combined)
	if len(ties) == 1 && ties[0] == na+nb {
		return nil, core.NewDegenerateError(name, "all observations are identical")
	}

	rankSumA := 0.0
	for i := 0; i < na; i++ {
		rankSumA += ranks[i]
	}

	fa, fb := float64(na), float64(nb)
	u := rankSumA - fa*(fa+1)/2
	ub := fa*fb - u

	z := mannWhitneyZ(u, na, nb, ties, alt)

	mt, err := moremath.MannWhitneyUTest(a, b, locationHypothesis(alt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	res := &MannWhitneyResult{
		NA:          na,
		NB:          nb,
		U:           u,
		UB:          ub,
		Z:           z,
		PValue:      clampProbability(mt.P),
		RBC:         1 - 2*u/(fa*fb),
		CLES:        u / (fa * fb),
		Alternative: alt,
		TieGroups:   len(ties),
	}
	res.Signal = classifyEffect(res.RBC, "rank_biserial")
	res.Description = res.describe(DefaultAlpha)
	return res, nil
}

// averageRanks assigns 1-based ranks, giving tied values the mean rank of
// their block. It also returns the size of every tied block (size > 1).
func averageRanks(values []float64) ([]float64, []int) {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})

	ranks := make([]float64, len(values))
	var ties []int
	for i := 0; i < len(order); {
		j := i + 1
		for j < len(order) && values[order[j]] == values[order[i]] {
			j++
		}
		// positions i..j-1 share ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		if j-i > 1 {
			ties = append(ties, j-i)
		}
		i = j
	}
	return ranks, ties
}

// mannWhitneyZ is the large-sample z-score of U with tie correction and a
// 0.5 continuity correction towards the mean
func mannWhitneyZ(u float64, na, nb int, ties []int, alt Alternative) float64 {
	fa, fb := float64(na), float64(nb)
	n := fa + fb
	tieTerm := 0.0
	for _, t := range ties {
		ft := float64(t)
		tieTerm += ft*ft*ft - ft
	}
	sigma := math.Sqrt(fa * fb / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	if sigma == 0 {
		return 0
	}
	mu := fa * fb / 2

	numer := u - mu
	switch alt {
	case Greater:
		numer -= 0.5
	case Less:
		numer += 0.5
	default:
		if numer > 0 {
			numer = math.Max(0, numer-0.5)
		} else {
			numer = math.Min(0, numer+0.5)
		}
	}
	return numer / sigma
}

func locationHypothesis(alt Alternative) moremath.LocationHypothesis {
	switch alt {
	case Less:
		return moremath.LocationLess
	case Greater:
		return moremath.LocationGreater
	}
	return moremath.LocationDiffers
}

func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func (r *MannWhitneyResult) describe(alpha float64) string {
	if !Significant(r.PValue, alpha) {
		return fmt.Sprintf("No significant difference in distribution (U=%.1f, p=%.3f, RBC=%.3f, CLES=%.3f, nA=%d, nB=%d)", r.U, r.PValue, r.RBC, r.CLES, r.NA, r.NB)
	}
	direction := "higher"
	if r.CLES < 0.5 {
		direction = "lower"
	}
	return fmt.Sprintf("Sample A tends to be %s than sample B, %s effect (U=%.1f, p=%.3g, RBC=%.3f, CLES=%.3f, nA=%d, nB=%d)", direction, r.Signal, r.U, r.PValue, r.RBC, r.CLES, r.NA, r.NB)
}

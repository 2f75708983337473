// Package hypothesis implements the comparison tests of the trial report: the
// pooled two-proportion z-test, the chi-squared test of independence with
// its power-divergence variants, the Mann-Whitney U test and Welch's t-test.
package hypothesis

import (
	"fmt"
	"math"
)

// Alternative is the alternative hypothesis of a two-sample test
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	Less     Alternative = "less"
	Greater  Alternative = "greater"
)

// ParseAlternative validates an alternative name
func ParseAlternative(s string) (Alternative, error) {
	switch Alternative(s) {
	case TwoSided, Less, Greater:
		return Alternative(s), nil
	case "":
		return TwoSided, nil
	}
	return "", fmt.Errorf("unknown alternative %q (want two-sided, less or greater)", s)
}

// DefaultAlpha is the significance threshold used when none is configured
const DefaultAlpha = 0.05

// Significant reports whether p is below alpha
func Significant(p, alpha float64) bool {
	return p < alpha
}

// classifyEffect converts an effect size to a signal label
func classifyEffect(effect float64, kind string) string {
	abs := math.Abs(effect)

	switch kind {
	case "cramers_v", "rank_biserial":
		if abs < 0.1 {
			return "negligible"
		} else if abs < 0.3 {
			return "small"
		} else if abs < 0.5 {
			return "medium"
		}
		return "large"

	default: // Cohen's d, Cohen's h
		if abs < 0.2 {
			return "negligible"
		} else if abs < 0.5 {
			return "small"
		} else if abs < 0.8 {
			return "medium"
		}
		return "large"
	}
}

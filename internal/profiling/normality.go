package profiling

import (
	"fmt"

	"trialstat/domain/core"
	"trialstat/domain/trial"
)

// NormalityResult is the Shapiro-Wilk outcome for one group
type NormalityResult struct {
	Group   string  `json:"group"`
	N       int     `json:"n"`
	W       float64 `json:"w"`
	PValue  float64 `json:"p_value"`
	Alpha   float64 `json:"alpha"`
	Normal  bool    `json:"normal"` // PValue >= Alpha
	Summary Summary `json:"summary"`
	Warning string  `json:"warning,omitempty"`
}

// TestNormality runs Shapiro-Wilk on one sample and applies the alpha gate
func TestNormality(group string, data []float64, alpha float64) (NormalityResult, error) {
	res := NormalityResult{Group: group, N: len(data), Alpha: alpha}

	w, p, err := ShapiroWilk(data)
	if err != nil {
		return res, fmt.Errorf("group %q: %w", group, err)
	}
	res.W, res.PValue = w, p
	res.Normal = p >= alpha
	res.Warning = shapiroWarning(len(data))

	summary, err := NewDistributionAnalyzer().Summarize(data)
	if err != nil {
		return res, fmt.Errorf("group %q: %w", group, err)
	}
	res.Summary = summary
	return res, nil
}

// NormalityByGroup tests valueCol within each groupCol level. Nulls are
// excluded. With no groups named, every level is tested in first-appearance
// order.
func NormalityByGroup(table *trial.Table, valueCol, groupCol string, alpha float64, groups ...string) ([]NormalityResult, error) {
	if alpha <= 0 || alpha >= 1 {
		return nil, core.NewDegenerateError("normality gate", fmt.Sprintf("alpha %g is outside (0, 1)", alpha))
	}
	if len(groups) == 0 {
		levels, err := table.Levels(groupCol)
		if err != nil {
			return nil, err
		}
		groups = levels
	}

	results := make([]NormalityResult, 0, len(groups))
	for _, g := range groups {
		data, err := table.GroupFloats(valueCol, groupCol, g)
		if err != nil {
			return nil, err
		}
		res, err := TestNormality(g, data, alpha)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// AllNormal reports whether every group passed the normality gate
func AllNormal(results []NormalityResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Normal {
			return false
		}
	}
	return true
}

package hypothesis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"trialstat/domain/core"
	"trialstat/domain/trial"
)

// minExpectedCount is the smallest expected cell count for which the
// chi-squared approximation is considered reliable
const minExpectedCount = 5.0

// ContingencyTable holds observed counts of two categorical variables
type ContingencyTable struct {
	RowVar    string      `json:"row_var"`
	ColVar    string      `json:"col_var"`
	RowLevels []string    `json:"row_levels"`
	ColLevels []string    `json:"col_levels"`
	Counts    [][]float64 `json:"counts"`
}

// Crosstab counts rowCol x colCol. Levels are sorted, numerically when every
// label parses as a number, so the layout is deterministic.
func Crosstab(table *trial.Table, rowCol, colCol string) (*ContingencyTable, error) {
	rows, err := table.Categorical(rowCol)
	if err != nil {
		return nil, err
	}
	cols, err := table.Categorical(colCol)
	if err != nil {
		return nil, err
	}

	rowLevels := sortedLevels(rows)
	colLevels := sortedLevels(cols)
	rowIdx := indexOf(rowLevels)
	colIdx := indexOf(colLevels)

	counts := make([][]float64, len(rowLevels))
	for i := range counts {
		counts[i] = make([]float64, len(colLevels))
	}
	for i := range rows {
		counts[rowIdx[rows[i]]][colIdx[cols[i]]]++
	}

	return &ContingencyTable{
		RowVar:    rowCol,
		ColVar:    colCol,
		RowLevels: rowLevels,
		ColLevels: colLevels,
		Counts:    counts,
	}, nil
}

// RowTotals returns the marginal total of each row
func (c *ContingencyTable) RowTotals() []float64 {
	out := make([]float64, len(c.Counts))
	for i, row := range c.Counts {
		for _, v := range row {
			out[i] += v
		}
	}
	return out
}

// ColTotals returns the marginal total of each column
func (c *ContingencyTable) ColTotals() []float64 {
	out := make([]float64, len(c.ColLevels))
	for _, row := range c.Counts {
		for j, v := range row {
			out[j] += v
		}
	}
	return out
}

// Total returns the grand total
func (c *ContingencyTable) Total() float64 {
	total := 0.0
	for _, v := range c.RowTotals() {
		total += v
	}
	return total
}

// Expected returns row total x column total / grand total for every cell
func (c *ContingencyTable) Expected() [][]float64 {
	rt, ct, n := c.RowTotals(), c.ColTotals(), c.Total()
	out := make([][]float64, len(rt))
	for i := range rt {
		out[i] = make([]float64, len(ct))
		for j := range ct {
			out[i][j] = rt[i] * ct[j] / n
		}
	}
	return out
}

// PowerDivergence is one member of the Cressie-Read statistic family
type PowerDivergence struct {
	Test      string  `json:"test"`
	Lambda    float64 `json:"lambda"`
	Statistic float64 `json:"chi2"`
	DOF       int     `json:"dof"`
	PValue    float64 `json:"p_value"`
	CramersV  float64 `json:"cramers_v"`
}

// MarshalJSON writes infinite statistics as null
func (p PowerDivergence) MarshalJSON() ([]byte, error) {
	type plain PowerDivergence
	out := struct {
		plain
		Statistic *float64 `json:"chi2"`
		CramersV  *float64 `json:"cramers_v"`
	}{plain: plain(p)}
	if !math.IsInf(p.Statistic, 0) && !math.IsNaN(p.Statistic) {
		out.Statistic, out.CramersV = &p.Statistic, &p.CramersV
	}
	return json.Marshal(out)
}

// Named power-divergence tests, in report order
const (
	TestPearson       = "pearson"
	TestCressieRead   = "cressie-read"
	TestLogLikelihood = "log-likelihood"
	TestFreemanTukey  = "freeman-tukey"
	TestModLikelihood = "mod-log-likelihood"
	TestNeyman        = "neyman"
)

var powerDivergenceFamily = []struct {
	name   string
	lambda float64
}{
	{TestPearson, 1},
	{TestCressieRead, 2.0 / 3.0},
	{TestLogLikelihood, 0},
	{TestFreemanTukey, -0.5},
	{TestModLikelihood, -1},
	{TestNeyman, -2},
}

// ChiSquareOptions controls the independence test
type ChiSquareOptions struct {
	// Correction applies Yates' continuity correction when dof is 1
	Correction bool
}

// DefaultChiSquareOptions enables Yates' correction for 2x2 tables
func DefaultChiSquareOptions() ChiSquareOptions {
	return ChiSquareOptions{Correction: true}
}

// ChiSquareResult is the outcome of a chi-squared test of independence
type ChiSquareResult struct {
	Observed         *ContingencyTable `json:"observed"`
	Expected         [][]float64       `json:"expected"`
	DOF              int               `json:"dof"`
	N                float64           `json:"n"`
	Corrected        bool              `json:"yates_corrected"`
	Tests            []PowerDivergence `json:"tests"`
	MinExpected      float64           `json:"min_expected"`
	LowExpectedCount bool              `json:"low_expected_count"`
	Warnings         []string          `json:"warnings,omitempty"`
	Description      string            `json:"description"`
}

// Test returns a power-divergence row by name
func (r *ChiSquareResult) Test(name string) (PowerDivergence, bool) {
	for _, t := range r.Tests {
		if t.Test == name {
			return t, true
		}
	}
	return PowerDivergence{}, false
}

// Pearson returns the λ=1 row, the statistic the report's conclusion rests on
func (r *ChiSquareResult) Pearson() PowerDivergence {
	t, _ := r.Test(TestPearson)
	return t
}

// ChiSquareIndependence cross-tabulates two columns and tests independence
func ChiSquareIndependence(table *trial.Table, rowCol, colCol string, opts ChiSquareOptions) (*ChiSquareResult, error) {
	ct, err := Crosstab(table, rowCol, colCol)
	if err != nil {
		return nil, err
	}
	return ChiSquareFromCounts(ct, opts)
}

// ChiSquareFromCounts tests independence on an existing contingency table
func ChiSquareFromCounts(ct *ContingencyTable, opts ChiSquareOptions) (*ChiSquareResult, error) {
	const name = "chi-squared independence test"

	r, c := len(ct.Counts), len(ct.ColLevels)
	if r < 2 || c < 2 {
		return nil, core.NewDegenerateError(name, fmt.Sprintf("need at least 2 levels on each axis, got %dx%d", r, c))
	}
	for i, row := range ct.Counts {
		if len(row) != c {
			return nil, core.NewDegenerateError(name, fmt.Sprintf("row %d has %d cells, want %d", i, len(row), c))
		}
		for _, v := range row {
			if v < 0 || math.IsNaN(v) {
				return nil, core.NewDegenerateError(name, "counts must be non-negative")
			}
		}
	}
	n := ct.Total()
	if n == 0 {
		return nil, core.NewDegenerateError(name, "table is empty")
	}
	for i, t := range ct.RowTotals() {
		if t == 0 {
			return nil, core.NewDegenerateError(name, fmt.Sprintf("row %q has no observations", ct.RowLevels[i]))
		}
	}
	for j, t := range ct.ColTotals() {
		if t == 0 {
			return nil, core.NewDegenerateError(name, fmt.Sprintf("column %q has no observations", ct.ColLevels[j]))
		}
	}

	expected := ct.Expected()
	dof := (r - 1) * (c - 1)

	observed := ct.Counts
	corrected := false
	if dof == 1 && opts.Correction {
		observed = yatesCorrect(ct.Counts, expected)
		corrected = true
	}

	res := &ChiSquareResult{
		Observed:    ct,
		Expected:    expected,
		DOF:         dof,
		N:           n,
		Corrected:   corrected,
		MinExpected: math.Inf(1),
	}

	for _, row := range expected {
		for _, e := range row {
			res.MinExpected = math.Min(res.MinExpected, e)
		}
	}
	if res.MinExpected < minExpectedCount {
		res.LowExpectedCount = true
		res.Warnings = append(res.Warnings, fmt.Sprintf("smallest expected count is %.2f (< %.0f); the chi-squared approximation may be unreliable", res.MinExpected, minExpectedCount))
	}

	minDim := float64(min(r, c) - 1)
	for _, member := range powerDivergenceFamily {
		stat := powerDivergenceStatistic(observed, expected, member.lambda)
		res.Tests = append(res.Tests, PowerDivergence{
			Test:      member.name,
			Lambda:    member.lambda,
			Statistic: stat,
			DOF:       dof,
			PValue:    ChiSquareSurvival(stat, dof),
			CramersV:  math.Sqrt(stat / (n * minDim)),
		})
		if math.IsInf(stat, 1) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s statistic is infinite because the table has empty cells", member.name))
		}
	}

	res.Description = res.describe(DefaultAlpha)
	return res, nil
}

// powerDivergenceStatistic computes the Cressie-Read statistic
// 2/(λ(λ+1)) Σ O((O/E)^λ - 1), with the λ=0 and λ=-1 limits taken explicitly
func powerDivergenceStatistic(observed, expected [][]float64, lambda float64) float64 {
	stat := 0.0
	for i := range observed {
		for j := range observed[i] {
			o, e := observed[i][j], expected[i][j]
			switch lambda {
			case 1:
				d := o - e
				stat += d * d / e
			case 0:
				if o > 0 {
					stat += 2 * o * math.Log(o/e)
				}
			case -1:
				if o == 0 {
					return math.Inf(1)
				}
				stat += 2 * e * math.Log(e/o)
			default:
				if o == 0 && lambda < 0 {
					if lambda < -1 {
						return math.Inf(1)
					}
					// O((O/E)^λ - 1) tends to 0 as O -> 0 for -1 < λ < 0
					continue
				}
				stat += o * (math.Pow(o/e, lambda) - 1)
			}
		}
	}
	if lambda != 1 && lambda != 0 && lambda != -1 {
		stat *= 2 / (lambda * (lambda + 1))
	}
	return stat
}

// yatesCorrect moves each observed count up to 0.5 towards its expectation
func yatesCorrect(observed, expected [][]float64) [][]float64 {
	out := make([][]float64, len(observed))
	for i := range observed {
		out[i] = make([]float64, len(observed[i]))
		for j := range observed[i] {
			diff := expected[i][j] - observed[i][j]
			step := math.Min(0.5, math.Abs(diff))
			if diff < 0 {
				step = -step
			}
			out[i][j] = observed[i][j] + step
		}
	}
	return out
}

func (r *ChiSquareResult) describe(alpha float64) string {
	p := r.Pearson()
	rows, cols := len(r.Observed.RowLevels), len(r.Observed.ColLevels)
	if !Significant(p.PValue, alpha) {
		return fmt.Sprintf("No significant association between %s and %s (χ²=%.3f, dof=%d, p=%.3f, V=%.3f)", r.Observed.RowVar, r.Observed.ColVar, p.Statistic, p.DOF, p.PValue, p.CramersV)
	}
	return fmt.Sprintf("%s association between %s and %s (χ²=%.3f, dof=%d, p=%.3g, V=%.3f, %dx%d table)",
		classifyEffect(p.CramersV, "cramers_v"), r.Observed.RowVar, r.Observed.ColVar, p.Statistic, p.DOF, p.PValue, p.CramersV, rows, cols)
}

func sortedLevels(values []string) []string {
	seen := make(map[string]bool)
	var levels []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}

	numeric := true
	parsed := make(map[string]float64, len(levels))
	for _, l := range levels {
		f, err := strconv.ParseFloat(l, 64)
		if err != nil {
			numeric = false
			break
		}
		parsed[l] = f
	}
	sort.Slice(levels, func(i, j int) bool {
		if numeric {
			return parsed[levels[i]] < parsed[levels[j]]
		}
		return levels[i] < levels[j]
	})
	return levels
}

func indexOf(levels []string) map[string]int {
	idx := make(map[string]int, len(levels))
	for i, l := range levels {
		idx[l] = i
	}
	return idx
}

package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"trialstat/domain/core"
	"trialstat/internal/analysis"
	"trialstat/internal/config"
	"trialstat/internal/errors"
	"trialstat/internal/hypothesis"
	"trialstat/internal/profiling"
	"trialstat/internal/visual"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// StepTiming records how long one pipeline step took
type StepTiming struct {
	Step       string `json:"step"`
	DurationMs int64  `json:"duration_ms"`
}

// Comparison is the outcome of the group comparison step. Exactly one of
// MannWhitney and Welch is set, as named by Test.
type Comparison struct {
	Column      string                        `json:"column"`
	Test        string                        `json:"test"`
	Reason      string                        `json:"reason"`
	MannWhitney *hypothesis.MannWhitneyResult `json:"mann_whitney,omitempty"`
	Welch       *hypothesis.WelchResult       `json:"welch,omitempty"`
}

// PValue returns the p-value of the selected test
func (c *Comparison) PValue() float64 {
	if c.Welch != nil {
		return c.Welch.PValue
	}
	if c.MannWhitney != nil {
		return c.MannWhitney.PValue
	}
	return 1
}

// Report holds every result of one analysis run
type Report struct {
	RunID         core.RunID                  `json:"run_id"`
	GeneratedAt   core.Timestamp              `json:"generated_at"`
	Source        string                      `json:"source"`
	Rows          int                         `json:"rows"`
	Alpha         float64                     `json:"alpha"`
	Groups        [2]string                   `json:"groups"`
	Outcomes      *analysis.GroupSummary      `json:"outcomes"`
	OutcomeRows   []analysis.GroupRow         `json:"outcome_rows"`
	ZTest         *hypothesis.ZTestResult     `json:"z_test"`
	ChiSquare     *hypothesis.ChiSquareResult `json:"chi_square"`
	Histogram     *visual.HistogramSpec       `json:"histogram"`
	HistogramPath string                      `json:"histogram_path,omitempty"`
	Normality     []profiling.NormalityResult `json:"normality"`
	Comparison    *Comparison                 `json:"comparison"`
	Warnings      []string                    `json:"warnings,omitempty"`
	Steps         []StepTiming                `json:"steps"`
	Fingerprint   core.Hash                   `json:"fingerprint"`
	RuntimeMs     int64                       `json:"runtime_ms"`
}

// NewReport starts a report for one run over source
func NewReport(source string, rows int, alpha float64) *Report {
	return &Report{
		RunID:       core.NewRunID(),
		GeneratedAt: core.Now(),
		Source:      source,
		Rows:        rows,
		Alpha:       alpha,
	}
}

// ComputeFingerprint hashes every number the analysis produced. Run IDs,
// timestamps and timings are left out, so re-running on unchanged input
// gives the same fingerprint.
func (r *Report) ComputeFingerprint() core.Hash {
	values := map[string]float64{
		"rows":  float64(r.Rows),
		"alpha": r.Alpha,
	}
	key := core.FingerprintKey

	for _, row := range r.OutcomeRows {
		values[key("outcomes", row.Group, "total")] = float64(row.Total)
		for i, c := range row.Counts {
			values[key("outcomes", row.Group, r.Outcomes.Outcomes[i])] = float64(c)
		}
	}
	if z := r.ZTest; z != nil {
		values["ztest.z"] = z.Z
		values["ztest.p"] = z.PValue
	}
	if c := r.ChiSquare; c != nil {
		values["chi2.dof"] = float64(c.DOF)
		for _, t := range c.Tests {
			values[key("chi2", t.Test, "stat")] = t.Statistic
			values[key("chi2", t.Test, "p")] = t.PValue
		}
	}
	if h := r.Histogram; h != nil {
		for i, e := range h.Edges {
			values[key("hist.edge", i)] = e
		}
		for _, g := range h.Groups {
			for i, c := range g.Counts {
				values[key("hist", g.Group, i)] = float64(c)
			}
		}
	}
	for _, n := range r.Normality {
		values[key("normality", n.Group, "w")] = n.W
		values[key("normality", n.Group, "p")] = n.PValue
	}
	if cmp := r.Comparison; cmp != nil {
		if mw := cmp.MannWhitney; mw != nil {
			values["mwu.u"] = mw.U
			values["mwu.p"] = mw.PValue
		}
		if w := cmp.Welch; w != nil {
			values["welch.t"] = w.T
			values["welch.p"] = w.PValue
		}
	}
	return core.ComputeFingerprint(values)
}

// Print writes the summary tables as aligned plain text
func (r *Report) Print(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Run %s  source=%s  rows=%d  alpha=%g\n\n", r.RunID, r.Source, r.Rows, r.Alpha)

	if r.Outcomes != nil {
		fmt.Fprintf(w, "%s x %s\n", r.Outcomes.GroupColumn, r.Outcomes.OutcomeColumn)
		fmt.Fprintf(w, "group\t%s\ttotal\n", strings.Join(r.Outcomes.Outcomes, "\t"))
		for _, row := range r.OutcomeRows {
			cells := make([]string, len(row.Counts))
			for i, c := range row.Counts {
				cells[i] = fmt.Sprint(c)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\n", row.Group, strings.Join(cells, "\t"), row.Total)
		}
		fmt.Fprintln(w)
	}

	if z := r.ZTest; z != nil {
		fmt.Fprintln(w, "Two-proportion z-test")
		fmt.Fprintf(w, "proportions\t%.4f\t%.4f\n", z.Proportions[0], z.Proportions[1])
		fmt.Fprintf(w, "z\t%.4f\n", z.Z)
		fmt.Fprintf(w, "p\t%.4f\n\n", z.PValue)
	}

	if c := r.ChiSquare; c != nil {
		fmt.Fprintf(w, "Chi-squared independence (dof=%d, yates=%t)\n", c.DOF, c.Corrected)
		fmt.Fprintln(w, "test\tlambda\tchi2\tp\tcramer_v")
		for _, t := range c.Tests {
			fmt.Fprintf(w, "%s\t%.3f\t%.4f\t%.4f\t%.4f\n", t.Test, t.Lambda, t.Statistic, t.PValue, t.CramersV)
		}
		fmt.Fprintln(w)
	}

	if len(r.Normality) > 0 {
		fmt.Fprintln(w, "Shapiro-Wilk")
		fmt.Fprintln(w, "group\tn\tW\tp\tnormal")
		for _, n := range r.Normality {
			fmt.Fprintf(w, "%s\t%d\t%.4f\t%.4g\t%t\n", n.Group, n.N, n.W, n.PValue, n.Normal)
		}
		fmt.Fprintln(w)
	}

	if cmp := r.Comparison; cmp != nil {
		fmt.Fprintf(w, "Group comparison on %s: %s (%s)\n", cmp.Column, cmp.Test, cmp.Reason)
		if mw := cmp.MannWhitney; mw != nil {
			fmt.Fprintln(w, "U\tp\tRBC\tCLES")
			fmt.Fprintf(w, "%.1f\t%.4f\t%.4f\t%.4f\n", mw.U, mw.PValue, mw.RBC, mw.CLES)
		}
		if t := cmp.Welch; t != nil {
			fmt.Fprintln(w, "t\tdof\tp\td")
			fmt.Fprintf(w, "%.4f\t%.1f\t%.4f\t%.4f\n", t.T, t.DOF, t.PValue, t.CohensD)
		}
		fmt.Fprintln(w)
	}

	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintf(w, "fingerprint: %s\n", r.Fingerprint)
	return w.Flush()
}

// Markdown renders the report as a Markdown document
func (r *Report) Markdown() []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Trial analysis %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Source `%s`, %d rows, alpha %g, generated %s.\n\n", r.Source, r.Rows, r.Alpha, r.GeneratedAt)

	if r.Outcomes != nil {
		fmt.Fprintf(&b, "## %s by %s\n\n", r.Outcomes.OutcomeColumn, r.Outcomes.GroupColumn)
		fmt.Fprintf(&b, "| group | %s | total |\n", strings.Join(r.Outcomes.Outcomes, " | "))
		fmt.Fprintf(&b, "|---%s|---|\n", strings.Repeat("|---", len(r.Outcomes.Outcomes)))
		for _, row := range r.OutcomeRows {
			fmt.Fprintf(&b, "| %s |", row.Group)
			for _, c := range row.Counts {
				fmt.Fprintf(&b, " %d |", c)
			}
			fmt.Fprintf(&b, " %d |\n", row.Total)
		}
		b.WriteString("\n")
	}

	if z := r.ZTest; z != nil {
		b.WriteString("## Two-proportion z-test\n\n")
		fmt.Fprintf(&b, "%s\n\n", z.Description)
	}

	if c := r.ChiSquare; c != nil {
		b.WriteString("## Chi-squared test of independence\n\n")
		b.WriteString("| test | lambda | chi2 | dof | p | Cramér's V |\n|---|---|---|---|---|---|\n")
		for _, t := range c.Tests {
			fmt.Fprintf(&b, "| %s | %.3f | %.4f | %d | %.4f | %.4f |\n", t.Test, t.Lambda, t.Statistic, t.DOF, t.PValue, t.CramersV)
		}
		fmt.Fprintf(&b, "\n%s\n\n", c.Description)
	}

	if len(r.Normality) > 0 {
		b.WriteString("## Shapiro-Wilk normality\n\n")
		b.WriteString("| group | n | mean | sd | W | p | normal |\n|---|---|---|---|---|---|---|\n")
		for _, n := range r.Normality {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f | %.4f | %.4g | %t |\n", n.Group, n.N, n.Summary.Mean, n.Summary.StdDev, n.W, n.PValue, n.Normal)
		}
		b.WriteString("\n")
	}

	if cmp := r.Comparison; cmp != nil {
		fmt.Fprintf(&b, "## Comparison of %s\n\n", cmp.Column)
		fmt.Fprintf(&b, "Selected %s: %s.\n\n", cmp.Test, cmp.Reason)
		if mw := cmp.MannWhitney; mw != nil {
			fmt.Fprintf(&b, "%s\n\n", mw.Description)
		}
		if t := cmp.Welch; t != nil {
			fmt.Fprintf(&b, "%s\n\n", t.Description)
		}
	}

	if r.HistogramPath != "" {
		fmt.Fprintf(&b, "![histogram](%s)\n\n", filepath.Base(r.HistogramPath))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Fingerprint `%s`\n", r.Fingerprint)
	return b.Bytes()
}

// HTML renders the Markdown report as a complete HTML page
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(r.Markdown())

	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Trial analysis " + r.RunID.String(),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

// WriteReport writes the report as HTML when path ends in .html or .htm,
// and as Markdown otherwise
func (r *Report) WriteReport(path string) error {
	content := r.Markdown()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		content = r.HTML()
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.IOError("failed to write report", err)
	}
	return nil
}

// WriteJSON dumps the full report
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.InternalError("failed to encode report: " + err.Error())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.IOError("failed to write JSON report", err)
	}
	return nil
}

// Save writes the Markdown/HTML report and the JSON dump to the paths set in
// out. Empty paths are skipped.
func (r *Report) Save(out config.OutputConfig) error {
	if out.Report != "" {
		if err := r.WriteReport(out.Report); err != nil {
			return err
		}
	}
	if out.ReportJSON != "" {
		if err := r.WriteJSON(out.ReportJSON); err != nil {
			return err
		}
	}
	return nil
}

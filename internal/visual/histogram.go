// Package visual renders grouped distribution plots.
package visual

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"trialstat/domain/core"
	"trialstat/domain/trial"
	"trialstat/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultBins is the bin count of the age plot
const DefaultBins = 30

// HistogramOptions controls binning and rendering
type HistogramOptions struct {
	Bins   int
	Groups []string // plotted groups in order; empty means every level
	Title  string
	XLabel string

	// Opacity of each group's bars, in (0,1]
	Opacity float64
	Width   vg.Length
	Height  vg.Length
}

// DefaultHistogramOptions returns options for a 30-bin half-transparent plot
func DefaultHistogramOptions() HistogramOptions {
	return HistogramOptions{
		Bins:    DefaultBins,
		Opacity: 0.5,
		Width:   8 * vg.Inch,
		Height:  5 * vg.Inch,
	}
}

// GroupBins holds one group's counts over the shared edges
type GroupBins struct {
	Group  string `json:"group"`
	Counts []int  `json:"counts"`
	N      int    `json:"n"`
}

// HistogramSpec is a binned grouped histogram, ready to render
type HistogramSpec struct {
	ValueColumn string      `json:"value_column"`
	GroupColumn string      `json:"group_column"`
	Edges       []float64   `json:"edges"` // len(Edges) = bins + 1
	Groups      []GroupBins `json:"groups"`
}

// Bins returns the number of bins
func (h *HistogramSpec) Bins() int {
	return len(h.Edges) - 1
}

// GroupedHistogram bins valueCol separately for each group of groupCol on
// bin edges shared by all groups. Nulls are skipped.
func GroupedHistogram(table *trial.Table, valueCol, groupCol string, opts HistogramOptions) (*HistogramSpec, error) {
	const name = "grouped histogram"

	bins := opts.Bins
	if bins <= 0 {
		bins = DefaultBins
	}

	groups := opts.Groups
	if len(groups) == 0 {
		levels, err := table.Levels(groupCol)
		if err != nil {
			return nil, err
		}
		groups = levels
	}

	samples := make([][]float64, len(groups))
	lo, hi := math.Inf(1), math.Inf(-1)
	total := 0
	for i, g := range groups {
		values, err := table.GroupFloats(valueCol, groupCol, g)
		if err != nil {
			return nil, err
		}
		samples[i] = values
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		total += len(values)
	}
	if total == 0 {
		return nil, core.NewInsufficientDataError(name, 0, 1)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi

	spec := &HistogramSpec{
		ValueColumn: valueCol,
		GroupColumn: groupCol,
		Edges:       edges,
		Groups:      make([]GroupBins, len(groups)),
	}
	for i, g := range groups {
		counts := make([]int, bins)
		for _, v := range samples[i] {
			counts[binIndex(v, lo, width, bins)]++
		}
		spec.Groups[i] = GroupBins{Group: g, Counts: counts, N: len(samples[i])}
	}
	return spec, nil
}

// binIndex places v in [lo, hi]; the last bin is closed on the right
func binIndex(v, lo, width float64, bins int) int {
	idx := int((v - lo) / width)
	if idx >= bins {
		idx = bins - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// palette is cycled across groups
var palette = []color.NRGBA{
	{R: 0x1f, G: 0x77, B: 0xb4},
	{R: 0xff, G: 0x7f, B: 0x0e},
	{R: 0x2c, G: 0xa0, B: 0x2c},
	{R: 0xd6, G: 0x27, B: 0x28},
	{R: 0x94, G: 0x67, B: 0xbd},
}

// SaveHistogram renders spec with overlaid semi-transparent bars. The image
// format follows the extension of path: png, svg, pdf, jpg, eps or tiff.
func SaveHistogram(spec *HistogramSpec, path string, opts HistogramOptions) error {
	if spec == nil || spec.Bins() < 1 {
		return errors.InvalidInput("histogram has no bins")
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "png", "svg", "pdf", "jpg", "jpeg", "eps", "tif", "tiff":
	default:
		return errors.InvalidInput(fmt.Sprintf("unsupported image format %q", ext))
	}

	defaults := DefaultHistogramOptions()
	if opts.Opacity <= 0 || opts.Opacity > 1 {
		opts.Opacity = defaults.Opacity
	}
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}

	p := plot.New()
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = fmt.Sprintf("Distribution of %s by %s", spec.ValueColumn, spec.GroupColumn)
	}
	p.X.Label.Text = opts.XLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = spec.ValueColumn
	}
	p.Y.Label.Text = "count"
	p.Legend.Top = true

	width := spec.Edges[1] - spec.Edges[0]
	alpha := uint8(math.Round(opts.Opacity * 255))
	for i, g := range spec.Groups {
		bins := make([]plotter.HistogramBin, len(g.Counts))
		for j, c := range g.Counts {
			bins[j] = plotter.HistogramBin{
				Min:    spec.Edges[j],
				Max:    spec.Edges[j+1],
				Weight: float64(c),
			}
		}

		fill := palette[i%len(palette)]
		fill.A = alpha
		line := plotter.DefaultLineStyle
		line.Width = vg.Points(0.5)
		line.Color = color.NRGBA{R: fill.R, G: fill.G, B: fill.B, A: 0xff}

		h := &plotter.Histogram{
			Bins:      bins,
			Width:     width,
			FillColor: fill,
			LineStyle: line,
		}
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("%s (n=%d)", g.Group, g.N), h)
	}

	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return errors.IOError("failed to save histogram", err)
	}
	return nil
}

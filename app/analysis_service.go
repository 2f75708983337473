package app

import (
	"context"
	"fmt"
	"time"

	"trialstat/domain/core"
	"trialstat/domain/trial"
	"trialstat/internal"
	"trialstat/internal/analysis"
	"trialstat/internal/config"
	"trialstat/internal/dataset"
	"trialstat/internal/errors"
	"trialstat/internal/hypothesis"
	"trialstat/internal/profiling"
	"trialstat/internal/visual"
)

// Pipeline steps, in execution order
const (
	StepLoad      = "load"
	StepAggregate = "aggregate"
	StepZTest     = "proportion_test"
	StepChiSquare = "independence_test"
	StepHistogram = "histogram"
	StepNormality = "normality"
	StepCompare   = "group_comparison"
)

// Tests the comparison step can select
const (
	ComparisonMannWhitney = "mann-whitney"
	ComparisonWelch       = "welch"
)

// AnalysisService runs the trial analysis pipeline: load once, run every
// step once, in order
type AnalysisService struct {
	log *internal.Logger
}

// NewAnalysisService creates an analysis service
func NewAnalysisService() *AnalysisService {
	return &AnalysisService{log: internal.DefaultLogger.WithComponent("Analysis")}
}

// Run loads the configured data file and analyzes it
func (s *AnalysisService) Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	startTime := time.Now()

	path, err := cfg.RequireDataFile()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := dataset.NewProcessor().WithSheet(cfg.Data.Sheet).LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "step %s failed", StepLoad)
	}
	loadStep := StepTiming{Step: StepLoad, DurationMs: time.Since(startTime).Milliseconds()}

	report, err := s.Analyze(ctx, table, cfg, path)
	if err != nil {
		return nil, err
	}
	report.Steps = append([]StepTiming{loadStep}, report.Steps...)
	report.RuntimeMs = time.Since(startTime).Milliseconds()
	return report, nil
}

// Analyze runs every step after loading on an in-memory table. The context
// is checked between steps.
func (s *AnalysisService) Analyze(ctx context.Context, table *trial.Table, cfg *config.Config, source string) (*Report, error) {
	startTime := time.Now()
	a := cfg.Analysis

	alt, err := hypothesis.ParseAlternative(a.Alternative)
	if err != nil {
		return nil, err
	}

	report := NewReport(source, table.Len(), a.Alpha)
	report.Groups = [2]string{a.GroupA, a.GroupB}

	run := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stopped before %s: %w", name, err)
		}
		stepStart := time.Now()
		if err := fn(); err != nil {
			return errors.Wrapf(err, "step %s failed", name)
		}
		elapsed := time.Since(stepStart)
		report.Steps = append(report.Steps, StepTiming{Step: name, DurationMs: elapsed.Milliseconds()})
		s.log.Debug("%s completed in %.2fms", name, float64(elapsed.Nanoseconds())/1e6)
		return nil
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{StepAggregate, func() error {
			summary, err := analysis.Aggregate(table, a.GroupColumn, a.OutcomeColumn)
			if err != nil {
				return err
			}
			report.Outcomes = summary
			report.OutcomeRows = summary.Rows()
			return nil
		}},
		{StepZTest, func() error {
			for _, g := range report.Groups {
				if !report.Outcomes.HasGroup(g) {
					return fmt.Errorf("%w %q in column %s", core.ErrUnknownGroup, g, a.GroupColumn)
				}
			}
			successes := report.Outcomes.Successes(a.SuccessValue, a.GroupA, a.GroupB)
			totals := report.Outcomes.Totals(a.GroupA, a.GroupB)
			res, err := hypothesis.TwoProportionZTest(successes, totals)
			if err != nil {
				return err
			}
			report.ZTest = res
			return nil
		}},
		{StepChiSquare, func() error {
			res, err := hypothesis.ChiSquareIndependence(table, a.CountColumn, a.GroupColumn, hypothesis.ChiSquareOptions{Correction: a.YatesCorrection})
			if err != nil {
				return err
			}
			report.ChiSquare = res
			report.Warnings = append(report.Warnings, res.Warnings...)
			return nil
		}},
		{StepHistogram, func() error {
			opts := visual.DefaultHistogramOptions()
			opts.Bins = cfg.Output.HistBins
			spec, err := visual.GroupedHistogram(table, a.ContinuousColumn, a.GroupColumn, opts)
			if err != nil {
				return err
			}
			report.Histogram = spec
			if cfg.Output.Histogram == "" {
				return nil
			}
			if err := visual.SaveHistogram(spec, cfg.Output.Histogram, opts); err != nil {
				return err
			}
			report.HistogramPath = cfg.Output.Histogram
			s.log.Info("Histogram written to %s", cfg.Output.Histogram)
			return nil
		}},
		{StepNormality, func() error {
			results, err := profiling.NormalityByGroup(table, a.ContinuousColumn, a.GroupColumn, a.Alpha, a.GroupA, a.GroupB)
			if err != nil {
				return err
			}
			report.Normality = results
			for _, r := range results {
				if r.Warning != "" {
					report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %s", r.Group, r.Warning))
				}
			}
			return nil
		}},
		{StepCompare, func() error {
			cmp, err := compareGroups(table, a, alt, report.Normality)
			if err != nil {
				return err
			}
			report.Comparison = cmp
			return nil
		}},
	}

	for _, step := range steps {
		if err := run(step.name, step.fn); err != nil {
			return nil, err
		}
	}

	report.Fingerprint = report.ComputeFingerprint()
	report.RuntimeMs = time.Since(startTime).Milliseconds()
	s.log.Info("Analysis %s finished in %dms (fingerprint %s)", report.RunID, report.RuntimeMs, report.Fingerprint.Short())
	return report, nil
}

// compareGroups runs Welch's t-test when every group passed the normality
// gate and Mann-Whitney U otherwise
func compareGroups(table *trial.Table, a config.AnalysisConfig, alt hypothesis.Alternative, normality []profiling.NormalityResult) (*Comparison, error) {
	sampleA, err := table.GroupFloats(a.ContinuousColumn, a.GroupColumn, a.GroupA)
	if err != nil {
		return nil, err
	}
	sampleB, err := table.GroupFloats(a.ContinuousColumn, a.GroupColumn, a.GroupB)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Column: a.ContinuousColumn}
	if profiling.AllNormal(normality) {
		cmp.Test = ComparisonWelch
		cmp.Reason = fmt.Sprintf("all groups passed Shapiro-Wilk at alpha=%g", a.Alpha)
		cmp.Welch, err = hypothesis.WelchTTest(sampleA, sampleB, alt)
		return cmp, err
	}

	var failed []string
	for _, r := range normality {
		if !r.Normal {
			failed = append(failed, fmt.Sprintf("%s (p=%.3g)", r.Group, r.PValue))
		}
	}
	cmp.Test = ComparisonMannWhitney
	cmp.Reason = fmt.Sprintf("non-normal at alpha=%g: %v", a.Alpha, failed)
	cmp.MannWhitney, err = hypothesis.MannWhitneyU(sampleA, sampleB, alt)
	return cmp, err
}

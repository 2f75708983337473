package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"trialstat/app"
	"trialstat/domain/trial"
	"trialstat/internal"
	"trialstat/internal/analysis"
	"trialstat/internal/config"
	"trialstat/internal/dataset"
	"trialstat/internal/hypothesis"
	"trialstat/internal/profiling"
	"trialstat/internal/testkit"
	"trialstat/internal/visual"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every analysis command and override config values
type globalFlags struct {
	configFile string
	dataFile   string
	sheet      string
	logLevel   string
	alpha      float64
}

func main() {
	_ = godotenv.Load()

	rootCmd := newRootCmd()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags
	rootCmd := &cobra.Command{
		Use:   "trialstat",
		Short: "Statistical analysis of clinical-trial adverse-effect data",
		Long: `trialstat loads a trial table (CSV, TSV or XLSX) and runs the analysis
pipeline: outcome proportions, a two-proportion z-test, a chi-squared test of
independence, a grouped histogram, Shapiro-Wilk normality and a Mann-Whitney U
(or Welch t) comparison.

Configuration comes from the environment (.env is read if present), the YAML
file named by TRIALSTAT_CONFIG or --config, and finally command-line flags.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", os.Getenv("TRIALSTAT_CONFIG"), "YAML configuration file")
	pf.StringVar(&flags.dataFile, "data", "", "Trial data file (overrides DATA_FILE)")
	pf.StringVar(&flags.sheet, "sheet", "", "Worksheet to read from XLSX input")
	pf.StringVar(&flags.logLevel, "log-level", "", "ERROR, WARN, INFO, DEBUG or TRACE")
	pf.Float64Var(&flags.alpha, "alpha", 0, "Significance level (overrides ALPHA)")

	rootCmd.AddCommand(
		newRunCmd(&flags),
		newZTestCmd(&flags),
		newChi2Cmd(&flags),
		newNormalityCmd(&flags),
		newMWUCmd(&flags),
		newHistCmd(&flags),
		newGenerateCmd(),
	)
	return rootCmd
}

// loadConfig merges file, environment and flag settings
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadFrom(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.dataFile != "" {
		cfg.Data.File = flags.dataFile
	}
	if flags.sheet != "" {
		cfg.Data.Sheet = flags.sheet
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.alpha != 0 {
		cfg.Analysis.Alpha = flags.alpha
	}
	if level, ok := internal.ParseLogLevel(cfg.LogLevel); ok {
		internal.DefaultLogger.SetLevel(level)
	}
	return cfg, config.Validate(cfg)
}

// loadTable loads the configured data file for single-step commands
func loadTable(flags *globalFlags) (*config.Config, *trial.Table, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	path, err := cfg.RequireDataFile()
	if err != nil {
		return nil, nil, err
	}
	table, err := dataset.NewProcessor().WithSheet(cfg.Data.Sheet).LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, table, nil
}

// printPartial prints a report holding one step's result
func printPartial(cmd *cobra.Command, report *app.Report) error {
	report.Fingerprint = report.ComputeFingerprint()
	return report.Print(cmd.OutOrStdout())
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var histOut, reportOut, jsonOut, alternative string
	var bins int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis pipeline",
		Long: `Run every analysis step once, in order, and print the summary tables.

Example: trialstat run --data trial.xlsx --report report.html --json report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hist") {
				cfg.Output.Histogram = histOut
			}
			if reportOut != "" {
				cfg.Output.Report = reportOut
			}
			if jsonOut != "" {
				cfg.Output.ReportJSON = jsonOut
			}
			if alternative != "" {
				cfg.Analysis.Alternative = alternative
			}
			if bins > 0 {
				cfg.Output.HistBins = bins
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			report, err := app.NewAnalysisService().Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := report.Print(cmd.OutOrStdout()); err != nil {
				return err
			}
			return report.Save(cfg.Output)
		},
	}

	cmd.Flags().StringVar(&histOut, "hist", "", "Histogram image path (png, svg or pdf); empty disables rendering")
	cmd.Flags().StringVar(&reportOut, "report", "", "Markdown report path; .html renders HTML")
	cmd.Flags().StringVar(&jsonOut, "json", "", "JSON report path")
	cmd.Flags().StringVar(&alternative, "alternative", "", "Alternative hypothesis: two-sided, less or greater")
	cmd.Flags().IntVar(&bins, "bins", 0, "Histogram bins")
	return cmd
}

func newZTestCmd(flags *globalFlags) *cobra.Command {
	var successes, totals []int

	cmd := &cobra.Command{
		Use:   "ztest",
		Short: "Two-proportion z-test on group outcome counts",
		Long: `Compare the success proportion of two groups with a pooled z-test.

Counts come from the data file, or directly from flags:
  trialstat ztest --successes 1024,512 --totals 10727,5376`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(successes) > 0 || len(totals) > 0 {
				res, err := hypothesis.TwoProportionZTest(successes, totals)
				if err != nil {
					return err
				}
				report := app.NewReport("flags", 0, hypothesis.DefaultAlpha)
				report.ZTest = res
				return printPartial(cmd, report)
			}

			cfg, table, err := loadTable(flags)
			if err != nil {
				return err
			}
			a := cfg.Analysis
			summary, err := analysis.Aggregate(table, a.GroupColumn, a.OutcomeColumn)
			if err != nil {
				return err
			}
			res, err := hypothesis.TwoProportionZTest(summary.Successes(a.SuccessValue, a.GroupA, a.GroupB), summary.Totals(a.GroupA, a.GroupB))
			if err != nil {
				return err
			}

			report := app.NewReport(cfg.Data.File, table.Len(), a.Alpha)
			report.Groups = [2]string{a.GroupA, a.GroupB}
			report.Outcomes = summary
			report.OutcomeRows = summary.Rows()
			report.ZTest = res
			return printPartial(cmd, report)
		},
	}

	cmd.Flags().IntSliceVar(&successes, "successes", nil, "Success counts for the two groups")
	cmd.Flags().IntSliceVar(&totals, "totals", nil, "Group sizes for the two groups")
	return cmd
}

func newChi2Cmd(flags *globalFlags) *cobra.Command {
	var rowCol, colCol string
	var noCorrection bool

	cmd := &cobra.Command{
		Use:   "chi2",
		Short: "Chi-squared test of independence between two columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := loadTable(flags)
			if err != nil {
				return err
			}
			if rowCol == "" {
				rowCol = cfg.Analysis.CountColumn
			}
			if colCol == "" {
				colCol = cfg.Analysis.GroupColumn
			}
			opts := hypothesis.ChiSquareOptions{Correction: cfg.Analysis.YatesCorrection && !noCorrection}

			res, err := hypothesis.ChiSquareIndependence(table, rowCol, colCol, opts)
			if err != nil {
				return err
			}
			report := app.NewReport(cfg.Data.File, table.Len(), cfg.Analysis.Alpha)
			report.ChiSquare = res
			report.Warnings = res.Warnings
			return printPartial(cmd, report)
		},
	}

	cmd.Flags().StringVar(&rowCol, "rows", "", "Row variable (default COUNT_COLUMN)")
	cmd.Flags().StringVar(&colCol, "cols", "", "Column variable (default GROUP_COLUMN)")
	cmd.Flags().BoolVar(&noCorrection, "no-correction", false, "Disable Yates' continuity correction")
	return cmd
}

func newNormalityCmd(flags *globalFlags) *cobra.Command {
	var column, group string

	cmd := &cobra.Command{
		Use:   "normality [levels...]",
		Short: "Shapiro-Wilk normality test per group",
		Long: `Run Shapiro-Wilk on a continuous column within each group level.
With no levels given every level of the group column is tested.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := loadTable(flags)
			if err != nil {
				return err
			}
			if column == "" {
				column = cfg.Analysis.ContinuousColumn
			}
			if group == "" {
				group = cfg.Analysis.GroupColumn
			}

			results, err := profiling.NormalityByGroup(table, column, group, cfg.Analysis.Alpha, args...)
			if err != nil {
				return err
			}
			report := app.NewReport(cfg.Data.File, table.Len(), cfg.Analysis.Alpha)
			report.Normality = results
			for _, r := range results {
				if r.Warning != "" {
					report.Warnings = append(report.Warnings, r.Group+": "+r.Warning)
				}
			}
			return printPartial(cmd, report)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Continuous column (default CONTINUOUS_COLUMN)")
	cmd.Flags().StringVar(&group, "group", "", "Group column (default GROUP_COLUMN)")
	return cmd
}

func newMWUCmd(flags *globalFlags) *cobra.Command {
	var column, alternative string

	cmd := &cobra.Command{
		Use:   "mwu",
		Short: "Mann-Whitney U test between the two configured groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := loadTable(flags)
			if err != nil {
				return err
			}
			a := cfg.Analysis
			if column == "" {
				column = a.ContinuousColumn
			}
			if alternative == "" {
				alternative = a.Alternative
			}
			alt, err := hypothesis.ParseAlternative(alternative)
			if err != nil {
				return err
			}

			sampleA, err := table.GroupFloats(column, a.GroupColumn, a.GroupA)
			if err != nil {
				return err
			}
			sampleB, err := table.GroupFloats(column, a.GroupColumn, a.GroupB)
			if err != nil {
				return err
			}
			res, err := hypothesis.MannWhitneyU(sampleA, sampleB, alt)
			if err != nil {
				return err
			}

			report := app.NewReport(cfg.Data.File, table.Len(), a.Alpha)
			report.Comparison = &app.Comparison{
				Column:      column,
				Test:        app.ComparisonMannWhitney,
				Reason:      fmt.Sprintf("%s vs %s, requested", a.GroupA, a.GroupB),
				MannWhitney: res,
			}
			return printPartial(cmd, report)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Continuous column (default CONTINUOUS_COLUMN)")
	cmd.Flags().StringVar(&alternative, "alternative", "", "two-sided, less or greater")
	return cmd
}

func newHistCmd(flags *globalFlags) *cobra.Command {
	var column, group, out, title string
	var bins int

	cmd := &cobra.Command{
		Use:   "hist",
		Short: "Render a grouped histogram of a continuous column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, table, err := loadTable(flags)
			if err != nil {
				return err
			}
			if column == "" {
				column = cfg.Analysis.ContinuousColumn
			}
			if group == "" {
				group = cfg.Analysis.GroupColumn
			}
			if out == "" {
				out = cfg.Output.Histogram
			}

			opts := visual.DefaultHistogramOptions()
			opts.Bins = cfg.Output.HistBins
			if bins > 0 {
				opts.Bins = bins
			}
			opts.Title = title

			spec, err := visual.GroupedHistogram(table, column, group, opts)
			if err != nil {
				return err
			}
			if err := visual.SaveHistogram(spec, out, opts); err != nil {
				return err
			}
			for _, g := range spec.Groups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: n=%d\n", g.Group, g.N)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Histogram written to %s (%d bins from %g to %g)\n", out, spec.Bins(), spec.Edges[0], spec.Edges[spec.Bins()])
			return nil
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Continuous column (default CONTINUOUS_COLUMN)")
	cmd.Flags().StringVar(&group, "group", "", "Group column (default GROUP_COLUMN)")
	cmd.Flags().StringVar(&out, "out", "", "Output image (default HIST_OUTPUT)")
	cmd.Flags().StringVar(&title, "title", "", "Plot title")
	cmd.Flags().IntVar(&bins, "bins", 0, "Number of bins (default HIST_BINS)")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := testkit.DefaultConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a seeded synthetic trial dataset",
		Long: `Write a deterministic synthetic trial table as CSV or XLSX, chosen by
the extension of --out.

Example: trialstat generate --out trial.xlsx --rows 16103 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(filepath.Ext(out)) {
			case ".csv", ".xlsx":
			default:
				return fmt.Errorf("unsupported output format %q, use .csv or .xlsx", filepath.Ext(out))
			}

			ds, err := testkit.Generate(cfg)
			if err != nil {
				return err
			}
			if err := testkit.Write(out, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synthetic trial written: %s\n", out)
			fmt.Fprintf(cmd.OutOrStdout(), "Total Columns: %d | Total Rows: %d\n", len(ds.Headers), len(ds.Rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "trial.csv", "Output file path (.csv or .xlsx)")
	cmd.Flags().IntVar(&cfg.Rows, "rows", cfg.Rows, "Number of rows")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed (deterministic)")
	cmd.Flags().Float64Var(&cfg.DrugShare, "drug-share", cfg.DrugShare, "Share of rows in the Drug arm")
	cmd.Flags().Float64Var(&cfg.DrugAdverseRate, "drug-adverse-rate", cfg.DrugAdverseRate, "Adverse-effect rate in the Drug arm")
	cmd.Flags().Float64Var(&cfg.PlaceboAdverseRate, "placebo-adverse-rate", cfg.PlaceboAdverseRate, "Adverse-effect rate in the Placebo arm")
	cmd.Flags().Float64Var(&cfg.MissingRate, "missing-rate", cfg.MissingRate, "Share of null wbc/rbc cells")
	return cmd
}

package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trialstat/domain/core"
	"trialstat/domain/trial"
	"trialstat/internal/config"
	"trialstat/internal/errors"
	"trialstat/internal/profiling"
	"trialstat/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrialFile(t *testing.T, name string, rows int) string {
	t.Helper()

	cfg := testkit.DefaultConfig()
	cfg.Rows = rows
	ds, err := testkit.Generate(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, testkit.Write(path, ds))
	return path
}

func testConfig(t *testing.T, dataFile string) *config.Config {
	cfg := config.Default()
	cfg.Data.File = dataFile
	cfg.Output.Histogram = filepath.Join(t.TempDir(), "age_histogram.png")
	return cfg
}

// ageTable has a near-normal Drug arm; Placebo ages are normal only when
// skewPlacebo is false
func ageTable(skewPlacebo bool) *trial.Table {
	drug := []int{41, 44, 46, 47, 48, 49, 50, 50, 51, 52, 53, 54, 56, 59}
	placebo := []int{46, 49, 51, 52, 53, 54, 55, 55, 56, 57, 58, 59, 61, 64}
	if skewPlacebo {
		placebo = []int{30, 30, 31, 31, 31, 32, 32, 33, 35, 40, 52, 75}
	}

	var records []trial.Record
	add := func(trx string, ages []int) {
		for i, age := range ages {
			r := trial.Record{Trx: trx, Age: age, Sex: "female", AdverseEffects: "No", Week: 1}
			if i%4 == 0 {
				r.AdverseEffects = "Yes"
				r.NumEffects = 1
			}
			records = append(records, r)
		}
	}
	add("Drug", drug)
	add("Placebo", placebo)
	return trial.NewTable(records)
}

func TestAnalysisService_Run(t *testing.T) {
	cfg := testConfig(t, writeTrialFile(t, "trial.csv", 1500))

	report, err := NewAnalysisService().Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1500, report.Rows)
	assert.Equal(t, [2]string{"Drug", "Placebo"}, report.Groups)
	assert.False(t, report.Fingerprint.IsEmpty())

	var steps []string
	for _, s := range report.Steps {
		steps = append(steps, s.Step)
	}
	assert.Equal(t, []string{StepLoad, StepAggregate, StepZTest, StepChiSquare, StepHistogram, StepNormality, StepCompare}, steps)

	require.NotNil(t, report.ZTest)
	assert.GreaterOrEqual(t, report.ZTest.PValue, 0.0)
	assert.LessOrEqual(t, report.ZTest.PValue, 1.0)
	assert.Equal(t, report.Outcomes.Totals("Drug", "Placebo"), report.ZTest.Totals[:])

	require.NotNil(t, report.ChiSquare)
	assert.Equal(t, len(report.ChiSquare.Observed.RowLevels)-1, report.ChiSquare.DOF)
	assert.Equal(t, "pearson", report.ChiSquare.Pearson().Test)

	require.Len(t, report.Normality, 2)
	require.NotNil(t, report.Comparison)
	if profiling.AllNormal(report.Normality) {
		assert.Equal(t, ComparisonWelch, report.Comparison.Test)
	} else {
		assert.Equal(t, ComparisonMannWhitney, report.Comparison.Test)
	}

	info, err := os.Stat(cfg.Output.Histogram)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Equal(t, cfg.Output.Histogram, report.HistogramPath)
}

func TestAnalysisService_Idempotent(t *testing.T) {
	cfg := testConfig(t, writeTrialFile(t, "trial.xlsx", 600))
	svc := NewAnalysisService()

	first, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.ZTest.Z, second.ZTest.Z)
	assert.Equal(t, first.Comparison.PValue(), second.Comparison.PValue())
}

func TestAnalysisService_SelectsComparison(t *testing.T) {
	svc := NewAnalysisService()
	cfg := config.Default()
	cfg.Output.Histogram = ""

	report, err := svc.Analyze(context.Background(), ageTable(true), cfg, "memory")
	require.NoError(t, err)
	assert.Equal(t, ComparisonMannWhitney, report.Comparison.Test)
	assert.Contains(t, report.Comparison.Reason, "Placebo")
	require.NotNil(t, report.Comparison.MannWhitney)
	assert.Nil(t, report.Comparison.Welch)
	assert.Empty(t, report.HistogramPath)

	report, err = svc.Analyze(context.Background(), ageTable(false), cfg, "memory")
	require.NoError(t, err)
	assert.Equal(t, ComparisonWelch, report.Comparison.Test)
	require.NotNil(t, report.Comparison.Welch)
	assert.Less(t, report.Comparison.Welch.T, 0.0)
}

func TestAnalysisService_Errors(t *testing.T) {
	svc := NewAnalysisService()

	t.Run("missing data file setting", func(t *testing.T) {
		_, err := svc.Run(context.Background(), config.Default())
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})

	t.Run("file not found", func(t *testing.T) {
		cfg := testConfig(t, filepath.Join(t.TempDir(), "absent.csv"))
		_, err := svc.Run(context.Background(), cfg)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})

	t.Run("unknown group", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.Histogram = ""
		cfg.Analysis.GroupB = "Vitamin"
		_, err := svc.Analyze(context.Background(), ageTable(false), cfg, "memory")
		assert.ErrorIs(t, err, core.ErrUnknownGroup)
		assert.Contains(t, err.Error(), StepZTest)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		cfg := testConfig(t, writeTrialFile(t, "trial.csv", 50))
		_, err := svc.Run(ctx, cfg)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReport_Outputs(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Histogram = ""
	report, err := NewAnalysisService().Analyze(context.Background(), ageTable(true), cfg, "memory")
	require.NoError(t, err)

	var text strings.Builder
	require.NoError(t, report.Print(&text))
	assert.Contains(t, text.String(), "Shapiro-Wilk")
	assert.Contains(t, text.String(), report.Fingerprint.String())

	dir := t.TempDir()

	mdPath := filepath.Join(dir, "report.md")
	require.NoError(t, report.WriteReport(mdPath))
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Trial analysis"))
	assert.Contains(t, string(md), "| pearson |")

	htmlPath := filepath.Join(dir, "report.html")
	require.NoError(t, report.WriteReport(htmlPath))
	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<html")
	assert.Contains(t, string(page), "<table>")

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, report.WriteJSON(jsonPath))
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, report.Fingerprint.String(), decoded["fingerprint"])
	assert.Equal(t, ComparisonMannWhitney, decoded["comparison"].(map[string]interface{})["test"])
}

package visual

import (
	"os"
	"path/filepath"
	"testing"

	"trialstat/domain/core"
	"trialstat/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agesTable() *trial.Table {
	var records []trial.Record
	for _, age := range []int{20, 25, 30, 35, 40} {
		records = append(records, trial.Record{Trx: "Drug", Age: age})
	}
	for _, age := range []int{30, 60, 60} {
		records = append(records, trial.Record{Trx: "Placebo", Age: age})
	}
	return trial.NewTable(records)
}

func TestGroupedHistogram_SharedEdges(t *testing.T) {
	opts := DefaultHistogramOptions()
	opts.Bins = 4

	spec, err := GroupedHistogram(agesTable(), trial.ColAge, trial.ColTrx, opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 30, 40, 50, 60}, spec.Edges)
	assert.Equal(t, 4, spec.Bins())
	require.Len(t, spec.Groups, 2)

	assert.Equal(t, "Drug", spec.Groups[0].Group)
	assert.Equal(t, []int{2, 2, 1, 0}, spec.Groups[0].Counts)
	assert.Equal(t, 5, spec.Groups[0].N)

	// the maximum lands in the closed last bin
	assert.Equal(t, "Placebo", spec.Groups[1].Group)
	assert.Equal(t, []int{0, 1, 0, 2}, spec.Groups[1].Counts)
}

func TestGroupedHistogram_GroupSelection(t *testing.T) {
	opts := DefaultHistogramOptions()
	opts.Bins = 2
	opts.Groups = []string{"Placebo"}

	spec, err := GroupedHistogram(agesTable(), trial.ColAge, trial.ColTrx, opts)
	require.NoError(t, err)
	require.Len(t, spec.Groups, 1)
	assert.Equal(t, []float64{30, 45, 60}, spec.Edges)
	assert.Equal(t, []int{1, 2}, spec.Groups[0].Counts)
}

func TestGroupedHistogram_ConstantColumn(t *testing.T) {
	table := trial.NewTable([]trial.Record{{Trx: "Drug", Age: 50}, {Trx: "Drug", Age: 50}})

	spec, err := GroupedHistogram(table, trial.ColAge, trial.ColTrx, HistogramOptions{Bins: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{49.5, 50.5}, spec.Edges)
	assert.Equal(t, []int{2}, spec.Groups[0].Counts)
}

func TestGroupedHistogram_Empty(t *testing.T) {
	table := trial.NewTable([]trial.Record{{Trx: "Drug", WBC: trial.Null}})

	_, err := GroupedHistogram(table, trial.ColWBC, trial.ColTrx, DefaultHistogramOptions())
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = GroupedHistogram(trial.NewTable(nil), trial.ColAge, trial.ColTrx, DefaultHistogramOptions())
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestSaveHistogram(t *testing.T) {
	spec, err := GroupedHistogram(agesTable(), trial.ColAge, trial.ColTrx, DefaultHistogramOptions())
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"age.png", "age.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveHistogram(spec, path, DefaultHistogramOptions()))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err = SaveHistogram(spec, filepath.Join(dir, "age.txt"), DefaultHistogramOptions())
	assert.Error(t, err)
}

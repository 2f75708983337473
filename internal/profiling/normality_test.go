package profiling

import (
	"testing"

	"trialstat/domain/core"
	"trialstat/domain/trial"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalityFixture() *trial.Table {
	var records []trial.Record
	// Drug: roughly symmetric ages
	for _, age := range []int{41, 44, 46, 47, 48, 49, 50, 50, 51, 52, 53, 54, 56, 59} {
		records = append(records, trial.Record{Trx: "Drug", Age: age, WBC: trial.Float(float64(age) / 10)})
	}
	// Placebo: heavy right tail
	for _, age := range []int{30, 30, 31, 31, 31, 32, 32, 33, 35, 40, 52, 75} {
		records = append(records, trial.Record{Trx: "Placebo", Age: age, WBC: trial.Null})
	}
	return trial.NewTable(records)
}

func TestNormalityByGroup(t *testing.T) {
	results, err := NormalityByGroup(normalityFixture(), trial.ColAge, trial.ColTrx, 0.05)
	require.NoError(t, err)
	require.Len(t, results, 2)

	drug, placebo := results[0], results[1]
	assert.Equal(t, "Drug", drug.Group)
	assert.Equal(t, 14, drug.N)
	assert.True(t, drug.Normal, "symmetric group should pass, p=%.4f", drug.PValue)
	assert.InDelta(t, 50.0, drug.Summary.Mean, 0.01)

	assert.Equal(t, "Placebo", placebo.Group)
	assert.False(t, placebo.Normal, "skewed group should fail, p=%.4f", placebo.PValue)
	assert.Equal(t, placebo.PValue >= placebo.Alpha, placebo.Normal)

	assert.False(t, AllNormal(results))
	assert.True(t, AllNormal(results[:1]))
	assert.False(t, AllNormal(nil))
}

func TestNormalityByGroup_ExcludesNulls(t *testing.T) {
	_, err := NormalityByGroup(normalityFixture(), trial.ColWBC, trial.ColTrx, 0.05, "Placebo")
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	results, err := NormalityByGroup(normalityFixture(), trial.ColWBC, trial.ColTrx, 0.05, "Drug")
	require.NoError(t, err)
	assert.Equal(t, 14, results[0].N)
}

func TestNormalityByGroup_BadAlpha(t *testing.T) {
	_, err := NormalityByGroup(normalityFixture(), trial.ColAge, trial.ColTrx, 1.5)
	assert.ErrorIs(t, err, core.ErrDegenerateInput)
}

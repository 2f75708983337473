package profiling

import (
	"testing"

	"trialstat/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	da := NewDistributionAnalyzer()

	s, err := da.Summarize([]float64{9, 4, 2, 5, 4, 7, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 8, s.N)
	assert.Equal(t, 5.0, s.Mean)
	assert.InDelta(t, 2.1380899, s.StdDev, 1e-6)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 4.5, s.Median)
	assert.Equal(t, 4.0, s.Q25)
	assert.Equal(t, 6.0, s.Q75)
	assert.InDelta(t, 0.8184876, s.Skewness, 1e-6)
	assert.InDelta(t, 0.940625, s.Kurtosis, 1e-9)
	assert.Equal(t, 0, s.Outliers)
}

func TestSummarize_Outliers(t *testing.T) {
	da := NewDistributionAnalyzer()

	s, err := da.Summarize([]float64{30, 31, 31, 32, 33, 35, 75})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Outliers)
	assert.Greater(t, s.Skewness, 2.0)
}

func TestSummarize_SymmetricHasNoSkew(t *testing.T) {
	da := NewDistributionAnalyzer()

	s, err := da.Summarize([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	assert.InDelta(t, 0, s.Skewness, 1e-12)
	assert.Equal(t, 5.0, s.Median)
}

func TestSummarize_SmallSamples(t *testing.T) {
	da := NewDistributionAnalyzer()

	_, err := da.Summarize(nil)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	s, err := da.Summarize([]float64{42})
	require.NoError(t, err)
	assert.Equal(t, 42.0, s.Mean)
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 0.0, s.Skewness)
}

func TestSummarize_ConstantSampleHasFlatShape(t *testing.T) {
	s, err := NewDistributionAnalyzer().Summarize([]float64{3, 3, 3, 3, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 0.0, s.Skewness)
	assert.Equal(t, 0.0, s.Kurtosis)
}

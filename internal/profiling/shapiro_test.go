package profiling

import (
	"math"
	"testing"

	"trialstat/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestShapiroWilk_ReferenceValues(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		w, p float64
		tol  float64
	}{
		{
			// n=3 has a closed-form null distribution
			name: "three points",
			data: []float64{4, 1, 2},
			w:    27.0 / 28.0,
			p:    6 / math.Pi * (math.Asin(math.Sqrt(27.0/28.0)) - math.Pi/3),
			tol:  1e-12,
		},
		{
			// weights of 11 men, Shapiro & Wilk (1965)
			name: "weights",
			data: []float64{148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236},
			w:    0.78881,
			p:    0.006704,
			tol:  1e-4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, p, err := ShapiroWilk(tt.data)
			require.NoError(t, err)
			assert.InDelta(t, tt.w, w, tt.tol)
			assert.InDelta(t, tt.p, p, tt.tol)
		})
	}
}

func TestShapiroWilk_NormalScoresLookNormal(t *testing.T) {
	n := 20
	data := make([]float64, n)
	for i := range data {
		data[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
	}

	w, p, err := ShapiroWilk(data)
	require.NoError(t, err)
	assert.Greater(t, w, 0.99)
	assert.Greater(t, p, 0.5)
}

func TestShapiroWilk_SkewedSampleRejected(t *testing.T) {
	// exponential quantiles
	n := 30
	data := make([]float64, n)
	for i := range data {
		data[i] = -math.Log(1 - (float64(i)+0.5)/float64(n))
	}

	w, p, err := ShapiroWilk(data)
	require.NoError(t, err)
	assert.InDelta(t, 0.84672, w, 1e-4)
	assert.Less(t, p, 0.001)
}

func TestShapiroWilk_LargeSample(t *testing.T) {
	data := make([]float64, 50)
	for i := range data {
		data[i] = float64(i + 1)
	}

	w, p, err := ShapiroWilk(data)
	require.NoError(t, err)
	assert.InDelta(t, 0.95558, w, 1e-4)
	assert.InDelta(t, 0.05809, p, 1e-3)
}

func TestShapiroWilk_OrderInvariant(t *testing.T) {
	data := []float64{5.1, 4.9, 6.2, 5.8, 6.0, 5.5, 5.3, 7.1, 4.4, 5.0, 6.6, 5.9}
	reversed := make([]float64, len(data))
	for i, v := range data {
		reversed[len(data)-1-i] = v
	}

	w1, p1, err := ShapiroWilk(data)
	require.NoError(t, err)
	w2, p2, err := ShapiroWilk(reversed)
	require.NoError(t, err)

	assert.Equal(t, w1, w2)
	assert.Equal(t, p1, p2)
}

func TestShapiroWilk_Degenerate(t *testing.T) {
	_, _, err := ShapiroWilk([]float64{1, 2})
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, _, err = ShapiroWilk([]float64{3, 3, 3, 3})
	assert.ErrorIs(t, err, core.ErrDegenerateInput)

	_, _, err = ShapiroWilk([]float64{1, math.NaN(), 2})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

package hypothesis

import (
	"testing"

	"trialstat/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelchTTest(t *testing.T) {
	a := []float64{10.1, 9.8, 10.4, 10.0, 9.9, 10.3, 10.2, 9.7}
	b := []float64{11.0, 11.4, 10.9, 11.2, 11.1, 10.8, 11.3, 11.5}

	res, err := WelchTTest(a, b, TwoSided)
	require.NoError(t, err)

	assert.Less(t, res.T, 0.0)
	assert.Less(t, res.PValue, 1e-5)
	assert.Less(t, res.CohensD, -0.8)
	assert.Equal(t, "large", res.Signal)
	// equal variances and sizes give n1+n2-2 degrees of freedom
	assert.InDelta(t, 14.0, res.DOF, 1e-9)

	same, err := WelchTTest(a, a, TwoSided)
	require.NoError(t, err)
	assert.Equal(t, 0.0, same.T)
	assert.InDelta(t, 1.0, same.PValue, 1e-12)

	_, err = WelchTTest([]float64{1}, b, TwoSided)
	assert.ErrorIs(t, err, core.ErrInsufficientData)

	_, err = WelchTTest([]float64{2, 2}, []float64{2, 2}, TwoSided)
	assert.ErrorIs(t, err, core.ErrDegenerateInput)
}

package testkit

import (
	"path/filepath"
	"testing"

	"trialstat/domain/trial"
	"trialstat/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 200

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Rows, b.Rows)
	assert.Len(t, a.Records, 200)
	assert.Equal(t, trial.Columns, a.Headers)

	cfg.Seed++
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Rows, c.Rows)
}

func TestGenerate_RecordsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 500

	ds, err := Generate(cfg)
	require.NoError(t, err)

	for i, r := range ds.Records {
		assert.Contains(t, []string{"Drug", "Placebo"}, r.Trx, "row %d", i)
		assert.GreaterOrEqual(t, r.Age, 18, "row %d", i)
		assert.GreaterOrEqual(t, r.NumEffects, 0, "row %d", i)
		if r.AdverseEffects == "No" {
			assert.Equal(t, 0, r.NumEffects, "row %d", i)
		} else {
			assert.Positive(t, r.NumEffects, "row %d", i)
		}
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 0
	_, err := Generate(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.DrugShare = 1.5
	_, err = Generate(cfg)
	assert.Error(t, err)
}

func TestWrite_RoundTripsThroughLoader(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rows = 120
	cfg.MissingRate = 0.1

	ds, err := Generate(cfg)
	require.NoError(t, err)

	for _, name := range []string{"trial.csv", "trial.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Write(path, ds))

			table, err := dataset.NewProcessor().LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, ds.Records, table.Records())
		})
	}
}

func TestWrite_UnsupportedExtension(t *testing.T) {
	ds, err := Generate(DefaultConfig())
	require.NoError(t, err)

	assert.Error(t, Write(filepath.Join(t.TempDir(), "trial.json"), ds))
}

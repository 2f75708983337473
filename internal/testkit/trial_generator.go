package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"

	"trialstat/adapters/excel"
	"trialstat/domain/trial"
)

// Dataset is a synthetic trial table, kept both as formatted rows (for
// writing) and as typed records (for assertions).
type Dataset struct {
	Headers []string
	Rows    [][]string
	Records []trial.Record
}

// Table returns the records as a trial table
func (d *Dataset) Table() *trial.Table {
	return trial.NewTable(d.Records)
}

// Config shapes the generated trial. Groups are drawn independently per row.
type Config struct {
	Rows int
	Seed int64

	// DrugShare is the probability that a row belongs to the Drug arm
	DrugShare float64

	// Adverse-effect rates per arm
	DrugAdverseRate    float64
	PlaceboAdverseRate float64

	// Age distribution per arm
	DrugAgeMean    float64
	PlaceboAgeMean float64
	AgeSD          float64

	// MissingRate is the share of null wbc/rbc cells
	MissingRate float64

	Weeks int
}

// DefaultConfig has the shape of the drug-safety trial: a 2:1 Drug to
// Placebo split with similar adverse-effect rates and age profiles.
func DefaultConfig() Config {
	return Config{
		Rows:               3000,
		Seed:               42,
		DrugShare:          2.0 / 3.0,
		DrugAdverseRate:    0.095,
		PlaceboAdverseRate: 0.095,
		DrugAgeMean:        56,
		PlaceboAgeMean:     56,
		AgeSD:              12,
		MissingRate:        0.02,
		Weeks:              20,
	}
}

// Generate builds a deterministic dataset from cfg
func Generate(cfg Config) (*Dataset, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be > 0")
	}
	if cfg.DrugShare < 0 || cfg.DrugShare > 1 {
		return nil, fmt.Errorf("drug share must be in [0,1]")
	}
	if cfg.Weeks <= 0 {
		cfg.Weeks = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]trial.Record, cfg.Rows)
	for i := range records {
		r := trial.Record{
			Sex:  "female",
			Week: rng.Intn(cfg.Weeks) + 1,
			Trx:  "Placebo",
		}
		if rng.Float64() < 0.5 {
			r.Sex = "male"
		}

		ageMean, adverseRate := cfg.PlaceboAgeMean, cfg.PlaceboAdverseRate
		if rng.Float64() < cfg.DrugShare {
			r.Trx = "Drug"
			ageMean, adverseRate = cfg.DrugAgeMean, cfg.DrugAdverseRate
		}

		age := int(math.Round(ageMean + rng.NormFloat64()*cfg.AgeSD))
		r.Age = max(18, min(age, 95))

		r.WBC = nullable(rng, cfg.MissingRate, 7.0+rng.NormFloat64()*1.5, 1)
		r.RBC = nullable(rng, cfg.MissingRate, 4.8+rng.NormFloat64()*0.4, 1)

		r.AdverseEffects = "No"
		if rng.Float64() < adverseRate {
			r.AdverseEffects = "Yes"
			// most adverse rows report one effect, a few report more
			r.NumEffects = 1
			for r.NumEffects < 3 && rng.Float64() < 0.15 {
				r.NumEffects++
			}
		}
		records[i] = r
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = formatRecord(r)
	}

	return &Dataset{
		Headers: append([]string(nil), trial.Columns...),
		Rows:    rows,
		Records: records,
	}, nil
}

// Write saves the dataset as CSV or XLSX, chosen by the file extension
func Write(path string, ds *Dataset) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return excel.WriteXLSX(path, "", ds.Headers, ds.Rows)
	case ".csv":
		return excel.WriteCSV(path, ds.Headers, ds.Rows)
	}
	return fmt.Errorf("unsupported output format: %s", path)
}

func nullable(rng *rand.Rand, missingRate, v float64, decimals int) trial.NullFloat {
	if rng.Float64() < missingRate {
		return trial.Null
	}
	return trial.Float(round(v, decimals))
}

// formatRecord renders r in trial.Columns order
func formatRecord(r trial.Record) []string {
	return []string{
		r.Sex,
		strconv.Itoa(r.Age),
		r.Trx,
		strconv.Itoa(r.Week),
		fToStr(r.WBC),
		fToStr(r.RBC),
		r.AdverseEffects,
		strconv.Itoa(r.NumEffects),
	}
}

func fToStr(v trial.NullFloat) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Value, 'f', -1, 64)
}

func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}

// Package dataset turns raw tables into typed trial tables. Parsing is strict:
// a required column that is missing, or a cell that does not parse, fails the
// whole load with the row and column named. Nothing is coerced silently.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"trialstat/adapters/excel"
	"trialstat/domain/core"
	"trialstat/domain/trial"
	"trialstat/internal"
	"trialstat/internal/errors"
)

// nullTokens are read as null in nullable real columns
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"nan":  true,
	"null": true,
	"none": true,
}

// Processor loads trial tables from files
type Processor struct {
	sheet string
	log   *internal.Logger
}

// NewProcessor creates a processor reading the first sheet of workbooks
func NewProcessor() *Processor {
	return &Processor{log: internal.DefaultLogger.WithComponent("Dataset")}
}

// WithSheet selects the worksheet for XLSX input
func (p *Processor) WithSheet(sheet string) *Processor {
	p.sheet = sheet
	return p
}

// LoadFile reads and parses a CSV, TSV or XLSX trial file
func (p *Processor) LoadFile(path string) (*trial.Table, error) {
	raw, err := excel.NewDataReader(path).WithSheet(p.sheet).ReadData()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	table, err := ParseTable(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	p.log.Info("Loaded %d trial records from %s", table.Len(), path)
	return table, nil
}

// ParseTable converts a raw table into trial records. Extra columns are
// ignored; column order does not matter.
func ParseTable(raw *excel.RawTable) (*trial.Table, error) {
	idx := make(map[string]int, len(trial.Columns))
	for _, col := range trial.Columns {
		i := raw.ColumnIndex(col)
		if i < 0 {
			return nil, core.NewMissingColumnError(col)
		}
		idx[col] = i
	}
	if len(raw.Rows) == 0 {
		return nil, core.ErrEmptyTable
	}

	records := make([]trial.Record, 0, len(raw.Rows))
	for n, row := range raw.Rows {
		// +2: 1-based, and the header is line 1
		rec, err := parseRecord(row, idx, n+2)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return trial.NewTable(records), nil
}

func parseRecord(row []string, idx map[string]int, line int) (trial.Record, error) {
	var rec trial.Record
	var err error

	rec.Sex = row[idx[trial.ColSex]]
	rec.Trx = row[idx[trial.ColTrx]]
	rec.AdverseEffects = row[idx[trial.ColAdverseEffects]]

	if rec.Age, err = parseInt(row, idx, trial.ColAge, line); err != nil {
		return rec, err
	}
	if rec.Week, err = parseInt(row, idx, trial.ColWeek, line); err != nil {
		return rec, err
	}
	if rec.NumEffects, err = parseInt(row, idx, trial.ColNumEffects, line); err != nil {
		return rec, err
	}
	if rec.NumEffects < 0 {
		return rec, core.NewCellError(line, trial.ColNumEffects, row[idx[trial.ColNumEffects]], fmt.Errorf("count must be non-negative"))
	}
	if rec.WBC, err = parseNullableReal(row, idx, trial.ColWBC, line); err != nil {
		return rec, err
	}
	if rec.RBC, err = parseNullableReal(row, idx, trial.ColRBC, line); err != nil {
		return rec, err
	}
	return rec, nil
}

// parseInt accepts integer literals and integral reals such as "3.0", which
// spreadsheet exports produce for integer columns
func parseInt(row []string, idx map[string]int, col string, line int) (int, error) {
	cell := row[idx[col]]
	if cell == "" {
		return 0, core.NewCellError(line, col, cell, fmt.Errorf("value is required"))
	}
	if v, err := strconv.Atoi(cell); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, core.NewCellError(line, col, cell, nil)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, core.NewCellError(line, col, cell, fmt.Errorf("not an integer"))
	}
	return int(f), nil
}

func parseNullableReal(row []string, idx map[string]int, col string, line int) (trial.NullFloat, error) {
	cell := row[idx[col]]
	if nullTokens[strings.ToLower(cell)] {
		return trial.Null, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(f, 0) {
		return trial.Null, core.NewCellError(line, col, cell, nil)
	}
	return trial.Float(f), nil
}

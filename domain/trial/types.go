// Package trial holds the in-memory model of a clinical-trial table: one
// record per (subject, week) observation.
package trial

import (
	"strconv"

	"trialstat/domain/core"
)

// Column names as they appear in the input header
const (
	ColSex            = "sex"
	ColAge            = "age"
	ColTrx            = "trx"
	ColWeek           = "week"
	ColWBC            = "wbc"
	ColRBC            = "rbc"
	ColAdverseEffects = "adverse_effects"
	ColNumEffects     = "num_effects"
)

// Columns lists the required header columns in canonical order
var Columns = []string{ColSex, ColAge, ColTrx, ColWeek, ColWBC, ColRBC, ColAdverseEffects, ColNumEffects}

// NullLabel is the categorical value reported for a null cell
const NullLabel = "<null>"

// Kind classifies a column for accessors
type Kind int

const (
	KindCategorical Kind = iota
	KindInteger
	KindNullableReal
)

var columnKinds = map[string]Kind{
	ColSex:            KindCategorical,
	ColAge:            KindInteger,
	ColTrx:            KindCategorical,
	ColWeek:           KindInteger,
	ColWBC:            KindNullableReal,
	ColRBC:            KindNullableReal,
	ColAdverseEffects: KindCategorical,
	ColNumEffects:     KindInteger,
}

// ColumnKind returns the kind of a known column
func ColumnKind(col string) (Kind, error) {
	kind, ok := columnKinds[col]
	if !ok {
		return 0, core.NewMissingColumnError(col)
	}
	return kind, nil
}

// NullFloat is a real value that may be missing
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a valid NullFloat
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// Null is the missing NullFloat
var Null = NullFloat{}

func (n NullFloat) String() string {
	if !n.Valid {
		return NullLabel
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Record is one (subject, week) observation
type Record struct {
	Sex            string
	Age            int
	Week           int
	Trx            string
	WBC            NullFloat
	RBC            NullFloat
	AdverseEffects string
	NumEffects     int
}

// Categorical returns the value of col rendered as a category label
func (r Record) Categorical(col string) (string, error) {
	switch col {
	case ColSex:
		return label(r.Sex), nil
	case ColTrx:
		return label(r.Trx), nil
	case ColAdverseEffects:
		return label(r.AdverseEffects), nil
	case ColAge:
		return strconv.Itoa(r.Age), nil
	case ColWeek:
		return strconv.Itoa(r.Week), nil
	case ColNumEffects:
		return strconv.Itoa(r.NumEffects), nil
	case ColWBC:
		return r.WBC.String(), nil
	case ColRBC:
		return r.RBC.String(), nil
	}
	return "", core.NewMissingColumnError(col)
}

func label(s string) string {
	if s == "" {
		return NullLabel
	}
	return s
}

// Numeric returns the value of col as a nullable real. Categorical columns
// are not numeric.
func (r Record) Numeric(col string) (NullFloat, error) {
	switch col {
	case ColAge:
		return Float(float64(r.Age)), nil
	case ColWeek:
		return Float(float64(r.Week)), nil
	case ColNumEffects:
		return Float(float64(r.NumEffects)), nil
	case ColWBC:
		return r.WBC, nil
	case ColRBC:
		return r.RBC, nil
	case ColSex, ColTrx, ColAdverseEffects:
		return Null, core.NewDegenerateError("numeric column", col+" is categorical")
	}
	return Null, core.NewMissingColumnError(col)
}

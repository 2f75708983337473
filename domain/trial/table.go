package trial

// Table is an ordered, read-only collection of records. Filtering returns a
// new table; the receiver is never mutated.
type Table struct {
	records []Record
}

// NewTable takes ownership of records
func NewTable(records []Record) *Table {
	return &Table{records: records}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.records)
}

// At returns row i
func (t *Table) At(i int) Record {
	return t.records[i]
}

// Records returns a copy of the rows
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Filter returns the rows matching keep, in order
func (t *Table) Filter(keep func(Record) bool) *Table {
	var out []Record
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table{records: out}
}

// Where keeps rows whose categorical col equals value
func (t *Table) Where(col, value string) (*Table, error) {
	if _, err := ColumnKind(col); err != nil {
		return nil, err
	}
	return t.Filter(func(r Record) bool {
		v, _ := r.Categorical(col)
		return v == value
	}), nil
}

// Categorical returns col as category labels, nulls as NullLabel
func (t *Table) Categorical(col string) ([]string, error) {
	if _, err := ColumnKind(col); err != nil {
		return nil, err
	}
	out := make([]string, len(t.records))
	for i, r := range t.records {
		out[i], _ = r.Categorical(col)
	}
	return out, nil
}

// Numeric returns col as nullable reals
func (t *Table) Numeric(col string) ([]NullFloat, error) {
	out := make([]NullFloat, len(t.records))
	for i, r := range t.records {
		v, err := r.Numeric(col)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Floats returns the non-null values of a numeric column
func (t *Table) Floats(col string) ([]float64, error) {
	vals, err := t.Numeric(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			out = append(out, v.Value)
		}
	}
	return out, nil
}

// Levels returns the distinct values of a categorical view of col in order of
// first appearance
func (t *Table) Levels(col string) ([]string, error) {
	vals, err := t.Categorical(col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var levels []string
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	return levels, nil
}

// GroupFloats returns the non-null values of valueCol for rows where groupCol
// equals group
func (t *Table) GroupFloats(valueCol, groupCol, group string) ([]float64, error) {
	sub, err := t.Where(groupCol, group)
	if err != nil {
		return nil, err
	}
	return sub.Floats(valueCol)
}

package excel

// RawTable is a delimited or spreadsheet table as untyped strings, header
// first. Cells are trimmed; short rows are padded with empty cells.
type RawTable struct {
	Source  string     // file path the table was read from
	Headers []string   // column headers
	Rows    [][]string // data rows, len(row) == len(Headers)
}

// ColumnIndex returns the position of a header, or -1
func (t *RawTable) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

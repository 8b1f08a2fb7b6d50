// internal/sheets/source.go
package sheets

import "context"

// Table is a raw worksheet snapshot: a header row and the data rows below it.
// Cells are strings; typed coercion happens in the dataset layer.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of the first header cell matching any of
// the given names after normalization, or -1 when none matches.
func (t *Table) ColumnIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.Header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// Cell returns the cell at idx, or "" when the row is short. Whitespace and
// quote cleanup happens when the table is read.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// TableSource reads whole worksheets as tables. Implementations are expected
// to pace their own requests against the backing service's rate ceiling.
type TableSource interface {
	ReadTable(ctx context.Context, spreadsheetID, worksheet string) (*Table, error)
}

// RowSink appends and clears rows on output worksheets.
type RowSink interface {
	AppendRow(ctx context.Context, spreadsheetID, worksheet string, row []string) error
	ClearRange(ctx context.Context, spreadsheetID, worksheet, cellRange string) error
}

// TableStore is the full read/write surface against the spreadsheet service.
type TableStore interface {
	TableSource
	RowSink
}

package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Table is ordered tabular export content. Every row must carry exactly one
// cell per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export table has no columns")
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("export row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}
	return nil
}

// CSVExporter renders a Table into CSV bytes. Output is prefixed with a
// UTF-8 BOM so spreadsheet tools decode question text correctly.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the table.
func (e *CSVExporter) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

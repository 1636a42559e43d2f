package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 190.0
	headerH    = 8.0
	rowH       = 7.0
	minColW    = 14.0
	maxCellLen = 60
)

// PDFExporter renders a Table into a paginated A4 PDF. Column widths are
// weighted by header length and the header row repeats on every page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title above the table.
func (e *PDFExporter) Render(t Table, title string) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	widths := columnWidths(t.Columns)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range t.Columns {
			pdf.CellFormat(widths[i], headerH, col, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			writeHeader()
		}
	}, true)

	pdf.AddPage()
	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}
	writeHeader()

	pdf.SetFillColor(245, 245, 245)
	for n, row := range t.Rows {
		fill := n%2 == 1
		for i, cell := range row {
			pdf.CellFormat(widths[i], rowH, clip(cell), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths spreads the printable width across columns proportionally to
// header length, with a floor so narrow headers stay legible.
func columnWidths(cols []string) []float64 {
	total := 0
	for _, c := range cols {
		total += len(c)
	}
	if total == 0 {
		total = len(cols)
	}

	widths := make([]float64, len(cols))
	used := 0.0
	for i, c := range cols {
		w := pageWidth * float64(len(c)) / float64(total)
		if w < minColW {
			w = minColW
		}
		widths[i] = w
		used += w
	}
	// Rescale when the floor pushed the sum past the printable width.
	if used > pageWidth {
		for i := range widths {
			widths[i] *= pageWidth / used
		}
	}
	return widths
}

func clip(s string) string {
	if len(s) <= maxCellLen {
		return s
	}
	return s[:maxCellLen-3] + "..."
}

package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Columns: []string{"Number", "Title", "Year"},
		Rows: [][]string{
			{"1", "Peterson's solution", "2019"},
			{"2", "B+ tree fanout", "2021"},
		},
	}
}

func TestCSVRenderRoundTrip(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(payload, []byte{0xEF, 0xBB, 0xBF}))

	r := csv.NewReader(bytes.NewReader(payload[3:]))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Number", "Title", "Year"}, records[0])
	assert.Equal(t, "B+ tree fanout", records[2][1])
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows = append(tbl.Rows, []string{"3", "missing year"})

	_, err := NewCSVExporter().Render(tbl)
	assert.Error(t, err)

	_, err = NewPDFExporter().Render(tbl, "Question Bank")
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleTable(), "Question Bank")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestColumnWidthsFitPage(t *testing.T) {
	widths := columnWidths([]string{"#", "Title", "Subject", "Category", "Subcategory", "Year", "Answer", "Link"})
	require.Len(t, widths, 8)

	total := 0.0
	for _, w := range widths {
		assert.GreaterOrEqual(t, w, 10.0)
		total += w
	}
	assert.InDelta(t, pageWidth, total, 0.5)
}

func TestClipShortensLongCells(t *testing.T) {
	long := strings.Repeat("x", 200)
	clipped := clip(long)
	assert.Len(t, clipped, maxCellLen)
	assert.True(t, strings.HasSuffix(clipped, "..."))
}

package reftable

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablesAreRectangular(t *testing.T) {
	for _, tbl := range All() {
		t.Run(tbl.Title, func(t *testing.T) {
			require.NotEmpty(t, tbl.Rows)
			for _, row := range tbl.Rows {
				assert.Len(t, row, len(tbl.Header), row[0])
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, All()...))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	// title, header and rows of each table; encoding/csv skips the blank separator
	assert.Len(t, records, 2+len(Bands.Rows)+2+len(Sensors.Rows))
	assert.Equal(t, []string{Bands.Title}, records[0])
	assert.Equal(t, Bands.Header, records[1])
	assert.Equal(t, "SR_B4", records[5][0])
	assert.Equal(t, "Red (Vegetation, Soil)", records[4][1], "commas inside cells survive quoting")
	assert.Equal(t, []string{Sensors.Title}, records[2+len(Bands.Rows)])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, "Landsat reference", All()...))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestRender(t *testing.T) {
	out := Render(Sensors)
	assert.Contains(t, out, Sensors.Title)
	assert.Contains(t, out, "OLI/TIRS")
	assert.Equal(t, 2, strings.Count(out, "16 days"))
}

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
	"github.com/TarekGIS4/bns-agriculture-project/models"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
)

func TestPrintSeries(t *testing.T) {
	ev := newTestEvaluator(t, map[pipeline.Generation][]int{
		pipeline.Landsat5: {1990},
		pipeline.Landsat8: {2015},
	})
	cfg := defaultConfig()
	cfg.Credentials = testCreds
	cfg.Study = pipeline.Study{Region: testRegion, FirstYear: 1984, LastYear: 2020, EmptyPolicy: pipeline.EmptyPlaceholder}

	var buf bytes.Buffer
	err := printSeries(context.Background(), &buf, cfg, func(context.Context, ee.Credentials) (ee.Evaluator, error) {
		return ev, nil
	})
	require.NoError(t, err)

	var s models.Series
	require.NoError(t, json.Unmarshal(buf.Bytes(), &s))
	assert.Equal(t, models.SeriesStatusReady, s.Status)
	require.Len(t, s.Years, 37)
	var withData []int
	for _, y := range s.Years {
		assert.Empty(t, y.TileURL)
		if y.HasData {
			withData = append(withData, y.Year)
		}
	}
	assert.Equal(t, []int{1990, 2015}, withData)
	assert.Nil(t, s.Trend)
	assert.Zero(t, ev.Calls()-ev.ComputeCalls(), "no maps are registered")
}

func TestPrintSeriesAuthFailure(t *testing.T) {
	cfg := defaultConfig()
	err := printSeries(context.Background(), &bytes.Buffer{}, cfg, func(context.Context, ee.Credentials) (ee.Evaluator, error) {
		t.Fatal("dialed without credentials")
		return nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, pipeline.StageAuth, pipeline.StageOf(err))
}

func TestWriteBands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBands(&buf, "csv"))
	r := csv.NewReader(strings.NewReader(buf.String()))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Band", records[1][0])

	buf.Reset()
	require.NoError(t, writeBands(&buf, "pdf"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	buf.Reset()
	require.NoError(t, writeBands(&buf, "table"))
	assert.Contains(t, buf.String(), "SR_B7")

	assert.Error(t, writeBands(&buf, "xlsx"))
}

func TestBandsCommandWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bands.csv")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"bands", "--format", "csv", "--output", out})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Landsat 5 and Landsat 8 bands\n"))
}

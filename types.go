package main

import (
	"fmt"

	"github.com/TarekGIS4/bns-agriculture-project/models"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
	"github.com/TarekGIS4/bns-agriculture-project/reftable"
	"github.com/TarekGIS4/bns-agriculture-project/viewer"
)

// pageData feeds every HTML template; pages use the parts they need.
type pageData struct {
	Site   Site
	Active string
	Map    MapView
	Error  *banner

	NDVI   *ndviView
	Tables []reftable.Table
}

type ndviView struct {
	Viewer  *viewer.Viewer
	Client  viewerJS
	Stats   stats
	Warning string
}

// viewerJS is what the page script needs to draw the map.
type viewerJS struct {
	Mode     string         `json:"mode"`
	Center   [2]float64     `json:"center"`
	Zoom     int            `json:"zoom"`
	Left     []viewer.Layer `json:"left,omitempty"`
	Right    []viewer.Layer `json:"right,omitempty"`
	LeftIdx  int            `json:"leftIndex"`
	RightIdx int            `json:"rightIndex"`
	Layer    *viewer.Layer  `json:"layer,omitempty"`
	Trend    *viewer.Layer  `json:"trend,omitempty"`
	Vis      visJS          `json:"vis"`
	Region   *regionOutline `json:"region,omitempty"`
}

type visJS struct {
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette"`
}

// regionOutline is the bounding box of the region, [[south, west], [north, east]].
type regionOutline struct {
	Bounds [2][2]float64 `json:"bounds"`
}

type stats struct {
	MeanSlope      string
	Period         string
	EffectiveYears int
}

func newNDVIView(cfg Config, an *analysis) *ndviView {
	res, v := an.result, an.view
	center := res.Region.Center()
	b := res.Region.Bound
	js := viewerJS{
		Mode:     string(v.Mode),
		Center:   [2]float64{center.Lat(), center.Lon()},
		Zoom:     cfg.Map.Zoom,
		Left:     v.Left,
		Right:    v.Right,
		LeftIdx:  v.LeftIndex,
		RightIdx: v.RightIndex,
		Trend:    an.trend,
		Vis:      visJS{Min: cfg.Vis.Min, Max: cfg.Vis.Max, Palette: cfg.Vis.Palette},
		Region:   &regionOutline{Bounds: [2][2]float64{{b.Min.Lat(), b.Min.Lon()}, {b.Max.Lat(), b.Max.Lon()}}},
	}
	if cur, ok := v.Current(); ok {
		js.Layer = &cur
	}

	st := stats{
		MeanSlope:      "n/a",
		Period:         fmt.Sprintf("%d-%d", res.Study.FirstYear, res.Study.LastYear),
		EffectiveYears: len(res.Composites()),
	}
	if res.Trend != nil && res.Trend.MeanSlope != nil {
		st.MeanSlope = fmt.Sprintf("%.4f", *res.Trend.MeanSlope)
	}

	view := &ndviView{Viewer: v, Client: js, Stats: st}
	switch {
	case st.EffectiveYears == 0:
		view.Warning = pipeline.ErrEmptySeries.Error()
	case v.Mode == viewer.ModeSingle:
		view.Warning = "Simplified view due to limited data: " + v.Fallback
	}
	return view
}

// resultDTO describes a pipeline result without any map layers.
func resultDTO(study pipeline.Study, res *pipeline.Result) models.Series {
	out := models.Series{
		Status:      models.SeriesStatusReady,
		Region:      study.Region,
		FirstYear:   study.FirstYear,
		LastYear:    study.LastYear,
		EmptyPolicy: string(study.EmptyPolicy),
		Years:       []models.YearLayer{},
	}
	if res == nil {
		return out
	}
	c := res.Region.Center()
	out.Center = &models.LatLon{Lat: c.Lat(), Lon: c.Lon()}
	out.ArchiveSizes = make(map[string]int, len(res.ArchiveSizes))
	for g, n := range res.ArchiveSizes {
		out.ArchiveSizes[g.String()] = n
	}
	for _, e := range res.Entries {
		_, ok := e.(pipeline.Composite)
		out.Years = append(out.Years, models.YearLayer{Year: e.Year(), Name: viewer.LayerName(e.Year()), HasData: ok})
	}
	if len(res.Composites()) == 0 {
		out.Status = models.SeriesStatusEmpty
	}
	if res.Trend != nil {
		out.Trend = &models.Trend{MeanSlope: res.Trend.MeanSlope}
	}
	return out
}

// seriesDTO adds tile URLs and the viewer layout to resultDTO.
func seriesDTO(study pipeline.Study, an *analysis) models.Series {
	if an == nil {
		return resultDTO(study, nil)
	}
	out := resultDTO(study, an.result)
	for i, l := range an.layers {
		out.Years[i].TileURL = l.TileURL
	}
	if out.Trend != nil && an.trend != nil {
		out.Trend.TileURL = an.trend.TileURL
	}
	v := an.view
	out.Viewer = &models.Viewer{Mode: string(v.Mode), Fallback: v.Fallback}
	if v.Mode == viewer.ModeSplit {
		out.Viewer.Left = v.Left[v.LeftIndex].Year
		out.Viewer.Right = v.Right[v.RightIndex].Year
	} else if cur, ok := v.Current(); ok {
		out.Viewer.Year = cur.Year
	}
	return out
}

func bandTables() []models.BandTable {
	var out []models.BandTable
	for _, t := range reftable.All() {
		out = append(out, models.BandTable{Title: t.Title, Header: t.Header, Rows: t.Rows})
	}
	return out
}

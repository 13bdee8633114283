package models

// SeriesStatus is the outcome of one pipeline run.
type SeriesStatus string

const (
	SeriesStatusReady SeriesStatus = "ready"
	SeriesStatusEmpty SeriesStatus = "empty" // no year has data
	SeriesStatusError SeriesStatus = "error"
)

// Series is the JSON form of a composite series and its viewer layout.
type Series struct {
	Status       SeriesStatus   `json:"status"`
	Region       string         `json:"region"`
	Center       *LatLon        `json:"center,omitempty"`
	FirstYear    int            `json:"firstYear"`
	LastYear     int            `json:"lastYear"`
	EmptyPolicy  string         `json:"emptyPolicy"`
	ArchiveSizes map[string]int `json:"archiveSizes,omitempty"` // by sensor name
	Years        []YearLayer    `json:"years"`
	Trend        *Trend         `json:"trend,omitempty"`
	Viewer       *Viewer        `json:"viewer,omitempty"`

	Stage        string `json:"stage,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// YearLayer is one entry of the series. TileURL is set only when HasData.
type YearLayer struct {
	Year    int    `json:"year"`
	Name    string `json:"name"`
	HasData bool   `json:"hasData"`
	TileURL string `json:"tileUrl,omitempty"`
}

// Trend is the per-pixel linear fit overlay.
type Trend struct {
	MeanSlope *float64 `json:"meanSlope"` // NDVI per year; null when undefined
	TileURL   string   `json:"tileUrl,omitempty"`
}

// Viewer describes how the dual-pane map was laid out.
type Viewer struct {
	Mode     string `json:"mode"` // split | single
	Fallback string `json:"fallback,omitempty"`
	Left     int    `json:"left,omitempty"`
	Right    int    `json:"right,omitempty"`
	Year     int    `json:"year,omitempty"`
}

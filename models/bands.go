package models

// BandTable is a reference table as served by /api/bands.
type BandTable struct {
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Package viewer models the dual-pane time-series map: two ordered series of
// named layers sharing one colour ramp, with an explicit single-layer fallback.
package viewer

import (
	"fmt"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

type Mode string

const (
	ModeSplit  Mode = "split"
	ModeSingle Mode = "single"
)

// Fallback reasons.
const (
	ReasonEmpty    = "the series is empty"
	ReasonMismatch = "layer names and layers differ in length"
	ReasonTooFew   = "fewer than two years have data"
)

// Layer is one renderable year. MapName is empty for a year without data.
type Layer struct {
	Name    string `json:"name"`
	Year    int    `json:"year"`
	MapName string `json:"-"`
	TileURL string `json:"tileUrl,omitempty"`
}

func (l Layer) HasData() bool { return l.MapName != "" }

// Series pairs display names with layers, index by index.
type Series struct {
	Names  []string
	Layers []Layer
}

// NewSeries names each layer after itself.
func NewSeries(layers []Layer) Series {
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}
	return Series{Names: names, Layers: layers}
}

func (s Series) check() string {
	switch {
	case len(s.Layers) == 0:
		return ReasonEmpty
	case len(s.Names) != len(s.Layers):
		return ReasonMismatch
	}
	return ""
}

// available drops years without data and applies the display names.
func (s Series) available() []Layer {
	var out []Layer
	for i, l := range s.Layers {
		if !l.HasData() {
			continue
		}
		if i < len(s.Names) {
			l.Name = s.Names[i]
		}
		out = append(out, l)
	}
	return out
}

// Selection is the years initially shown. Zero means "pick a default".
type Selection struct {
	Left  int
	Right int
	// Year is used by the single-layer fallback.
	Year int
}

// Viewer is what the NDVI page renders.
type Viewer struct {
	Mode  Mode
	Vis   ee.VisParams
	Left  []Layer
	Right []Layer
	// LeftIndex and RightIndex select the initial layer of each pane in split mode.
	LeftIndex  int
	RightIndex int

	// Single-mode fields.
	Layers   []Layer
	Selected int
	Fallback string
}

// Years lists the selectable years of the single-layer selector.
func (v *Viewer) Years() []int {
	out := make([]int, len(v.Layers))
	for i, l := range v.Layers {
		out[i] = l.Year
	}
	return out
}

// Current is the layer the single-layer view shows, if any.
func (v *Viewer) Current() (Layer, bool) {
	if v.Mode != ModeSingle || len(v.Layers) == 0 {
		return Layer{}, false
	}
	return v.Layers[v.Selected], true
}

// Build lays out the comparison widget. When either series cannot back a
// split view it falls back to a single selector over the years with data.
func Build(left, right Series, vis ee.VisParams, sel Selection) *Viewer {
	reason := left.check()
	if reason == "" {
		reason = right.check()
	}
	l, r := left.available(), right.available()
	if reason == "" && (len(l) < 2 || len(r) < 2) {
		reason = ReasonTooFew
	}
	if reason != "" {
		return single(l, r, vis, sel.Year, reason)
	}
	return &Viewer{
		Mode:       ModeSplit,
		Vis:        vis,
		Left:       l,
		Right:      r,
		LeftIndex:  indexOf(l, sel.Left, 0),
		RightIndex: indexOf(r, sel.Right, len(r)-1),
	}
}

func single(l, r []Layer, vis ee.VisParams, year int, reason string) *Viewer {
	layers := l
	if len(layers) == 0 {
		layers = r
	}
	return &Viewer{
		Mode:     ModeSingle,
		Vis:      vis,
		Layers:   layers,
		Selected: indexOf(layers, year, len(layers)-1),
		Fallback: reason,
	}
}

func indexOf(layers []Layer, year, def int) int {
	for i, l := range layers {
		if l.Year == year {
			return i
		}
	}
	return max(def, 0)
}

// SetTileURLs fills TileURL of every layer from its map name.
func (v *Viewer) SetTileURLs(url func(mapName string) (string, error)) error {
	for _, layers := range [][]Layer{v.Left, v.Right, v.Layers} {
		for i := range layers {
			u, err := url(layers[i].MapName)
			if err != nil {
				return fmt.Errorf("tile url for %s: %w", layers[i].Name, err)
			}
			layers[i].TileURL = u
		}
	}
	return nil
}

// Package eetest provides an in-process Evaluator that interprets earthengine
// expression graphs over small synthetic rasters. It stands in for the remote
// service in tests.
//
// All rasters share one Grid. Masked pixels are NaN. Like the service,
// normalizedDifference masks a pixel when either input is negative or the
// inputs sum to zero.
package eetest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

// Grid is the pixel lattice shared by every raster of an Evaluator.
type Grid struct {
	Bound  orb.Bound
	Width  int
	Height int
}

// Pixels is Width*Height.
func (g Grid) Pixels() int { return g.Width * g.Height }

// Center returns the geographic centre of pixel i (row-major, north-up).
func (g Grid) Center(i int) orb.Point {
	col, row := i%g.Width, i/g.Width
	dx := (g.Bound.Max.Lon() - g.Bound.Min.Lon()) / float64(g.Width)
	dy := (g.Bound.Max.Lat() - g.Bound.Min.Lat()) / float64(g.Height)
	return orb.Point{
		g.Bound.Min.Lon() + (float64(col)+0.5)*dx,
		g.Bound.Max.Lat() - (float64(row)+0.5)*dy,
	}
}

// Scene is one archived image.
type Scene struct {
	Time  time.Time
	Bands []Band
	Props map[string]any
}

// Band is a named raster. Data must have Grid.Pixels() values.
type Band struct {
	Name string
	Data []float64
}

// Evaluator implements earthengine.Evaluator.
type Evaluator struct {
	grid Grid

	mu       sync.Mutex
	regions  map[string]orb.Geometry
	archives map[string][]Scene
	maps     map[string]*image
	computes int
	getMaps  int
	tiles    int

	// FailGetMap, when set, is returned by every GetMap call.
	FailGetMap error
}

var _ earthengine.Evaluator = (*Evaluator)(nil)

// New returns an empty evaluator over grid.
func New(grid Grid) *Evaluator {
	return &Evaluator{
		grid:     grid,
		regions:  map[string]orb.Geometry{},
		archives: map[string][]Scene{},
		maps:     map[string]*image{},
	}
}

// Grid returns the evaluator's lattice.
func (e *Evaluator) Grid() Grid { return e.grid }

// AddRegion registers a table asset whose single feature is geom.
func (e *Evaluator) AddRegion(id string, geom orb.Geometry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.regions[id] = geom
}

// AddArchive registers an image collection asset. Calling it again appends scenes.
func (e *Evaluator) AddArchive(id string, scenes ...Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.archives[id] = append(e.archives[id], scenes...)
}

// Fill returns a raster holding v in every pixel.
func (e *Evaluator) Fill(v float64) []float64 {
	out := make([]float64, e.grid.Pixels())
	for i := range out {
		out[i] = v
	}
	return out
}

// Calls is the total number of Compute, GetMap and Tile calls served.
func (e *Evaluator) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computes + e.getMaps + e.tiles
}

// ComputeCalls is the number of Compute calls served.
func (e *Evaluator) ComputeCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computes
}

// Compute evaluates o and returns its JSON encoding. NaN becomes null.
func (e *Evaluator) Compute(ctx context.Context, o earthengine.Object) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.computes++
	e.mu.Unlock()

	v, err := e.eval(o.Node(), nil)
	if err != nil {
		return nil, err
	}
	plain, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(plain)
}

// GetMap evaluates img eagerly and stores it under a new map name.
func (e *Evaluator) GetMap(ctx context.Context, img earthengine.Image, vis earthengine.VisParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	e.getMaps++
	fail := e.FailGetMap
	e.mu.Unlock()
	if fail != nil {
		return "", fail
	}

	v, err := e.eval(img.Node(), nil)
	if err != nil {
		return "", err
	}
	im, ok := v.(*image)
	if !ok || im == nil {
		return "", fmt.Errorf("eetest: GetMap of %T", v)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	name := fmt.Sprintf("projects/eetest/maps/%d", len(e.maps)+1)
	e.maps[name] = im
	return name, nil
}

// Snapshot is the evaluated content of a registered map.
type Snapshot struct {
	Bands []string
	Data  map[string][]float64
	Props map[string]any
}

// MapImage returns the evaluated image behind a map name.
func (e *Evaluator) MapImage(mapName string) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	im, ok := e.maps[mapName]
	if !ok {
		return Snapshot{}, false
	}
	data := make(map[string][]float64, len(im.bands))
	for k, v := range im.bands {
		data[k] = v
	}
	return Snapshot{Bands: im.names, Data: data, Props: im.props}, true
}

// Tile returns a deterministic placeholder payload for a known map.
func (e *Evaluator) Tile(ctx context.Context, mapName string, z, x, y int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tiles++
	if _, ok := e.maps[mapName]; !ok {
		return nil, fmt.Errorf("%w: map %s", earthengine.ErrNotFound, mapName)
	}
	return []byte(fmt.Sprintf("%s/%d/%d/%d", mapName, z, x, y)), nil
}

func toJSONValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string:
		return t, nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, nil
		}
		return t, nil
	case time.Time:
		return map[string]any{"type": "Date", "value": t.UnixMilli()}, nil
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			var err error
			if out[i], err = toJSONValue(x); err != nil {
				return nil, err
			}
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			var err error
			if out[k], err = toJSONValue(x); err != nil {
				return nil, err
			}
		}
		return out, nil
	case json.Marshaler:
		return t, nil
	default:
		return nil, fmt.Errorf("eetest: cannot materialize %T", v)
	}
}

package viewer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
)

// mapConcurrency bounds parallel map registrations against the service.
const mapConcurrency = 4

// LayerName is the display name of a year.
func LayerName(year int) string { return fmt.Sprintf("NDVI %d", year) }

// MapLayers registers one map per composite, keeping the series order. Empty
// entries become layers without a map.
func MapLayers(ctx context.Context, ev ee.Evaluator, entries []pipeline.Entry, vis ee.VisParams, timeout time.Duration) ([]Layer, error) {
	layers := make([]Layer, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(mapConcurrency)
	for i, e := range entries {
		layers[i] = Layer{Name: LayerName(e.Year()), Year: e.Year()}
		c, ok := e.(pipeline.Composite)
		if !ok {
			continue
		}
		g.Go(func() error {
			name, err := getMap(ctx, ev, c.Image, vis, timeout)
			if err != nil {
				return fmt.Errorf("map for %d: %w", c.Yr, err)
			}
			layers[i].MapName = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

// TrendLayer registers the slope band of a trend image.
func TrendLayer(ctx context.Context, ev ee.Evaluator, trend ee.Image, vis ee.VisParams, timeout time.Duration) (Layer, error) {
	name, err := getMap(ctx, ev, trend.Select(pipeline.SlopeBand), vis, timeout)
	if err != nil {
		return Layer{}, fmt.Errorf("trend map: %w", err)
	}
	return Layer{Name: "NDVI trend", MapName: name}, nil
}

func getMap(ctx context.Context, ev ee.Evaluator, img ee.Image, vis ee.VisParams, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ev.GetMap(ctx, img, vis)
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

// Region is the area every stage filters and clips to.
type Region struct {
	AssetID    string
	Collection ee.FeatureCollection
	Bound      orb.Bound
}

// Center is the middle of the region's bounding box.
func (r Region) Center() orb.Point { return r.Bound.Center() }

// LoadRegion references the table asset and materializes its bounding box,
// which also proves the asset exists and is readable.
func LoadRegion(ctx context.Context, ev ee.Evaluator, assetID string, timeout time.Duration) (Region, error) {
	fc := ee.LoadFeatureCollection(assetID)
	raw, err := compute(ctx, ev, fc.Bounds(), timeout)
	if err != nil {
		return Region{}, err
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return Region{}, fmt.Errorf("decode region bounds: %w", err)
	}
	return Region{AssetID: assetID, Collection: fc, Bound: g.Geometry().Bound()}, nil
}

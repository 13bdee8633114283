package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

// SlopeBand is the band of the trend image holding NDVI change per year.
const SlopeBand = "scale"

// trendScale is the pixel size in metres used for the region mean.
const trendScale = 30

// TrendResult is the per-pixel linear fit of NDVI against year.
type TrendResult struct {
	Image ee.Image
	// MeanSlope is nil when no pixel of the region has a defined slope.
	MeanSlope *float64
}

// TrendImage fits NDVI = offset + scale*year per pixel over the composites.
func TrendImage(composites []Composite) ee.Image {
	objs := make([]ee.Object, len(composites))
	for i, c := range composites {
		t := ee.ImageConstant(c.Yr).ToFloat().Rename("t")
		objs[i] = t.AddBands(c.Image, false).AsObject()
	}
	return ee.ImageCollectionFromObjects(objs).Reduce(ee.ReducerLinearFit())
}

// MeanSlope is the lazy mean of the slope band over the region.
func MeanSlope(trend ee.Image, region ee.FeatureCollection) ee.Object {
	return trend.Select(SlopeBand).
		ReduceRegion(ee.ReducerMean(), region, trendScale).
		Get(SlopeBand)
}

// Trend fits the series and materializes the mean slope. It needs at least two
// composites; with fewer it returns nil and no error.
func Trend(ctx context.Context, ev ee.Evaluator, entries []Entry, region Region, timeout time.Duration) (*TrendResult, error) {
	composites := Composites(entries)
	if len(composites) < 2 {
		return nil, nil
	}
	img := TrendImage(composites)
	raw, err := compute(ctx, ev, MeanSlope(img, region.Collection), timeout)
	if err != nil {
		return nil, err
	}
	var mean *float64
	if err := json.Unmarshal(raw, &mean); err != nil {
		return nil, fmt.Errorf("decode mean slope: %w", err)
	}
	return &TrendResult{Image: img, MeanSlope: mean}, nil
}

package pipeline

import (
	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

// MaskOptions tunes the quality mask.
type MaskOptions struct {
	// MaskSaturated additionally drops radiometrically saturated pixels.
	MaskSaturated bool
}

// Archive is the sensor's collection restricted to the region and to the
// sensor's operational date range.
func Archive(region ee.FeatureCollection, s SensorSpec) ee.ImageCollection {
	return ee.LoadImageCollection(s.Archive).
		FilterBounds(region).
		FilterDate(s.Start, s.End)
}

// MaskClouds masks pixels flagged as cloud or cloud shadow in the QA band, and
// saturated pixels when asked to. Masked pixels are ignored by later
// reductions; the image itself is kept.
func MaskClouds(img ee.Image, s SensorSpec, opts MaskOptions) ee.Image {
	qa := img.Select(s.QABand)
	keep := qa.BitwiseAnd(int(1) << s.CloudBit).Eq(0).
		And(qa.BitwiseAnd(int(1) << s.ShadowBit).Eq(0))
	if opts.MaskSaturated {
		keep = keep.And(img.Select(s.SaturationBand).Eq(0))
	}
	return img.UpdateMask(keep)
}

// Rescale converts stored integers to surface reflectance (optical bands) and
// to Kelvin (thermal bands), replacing the original bands.
func Rescale(img ee.Image, s SensorSpec) ee.Image {
	optical := img.Select(s.Optical).Multiply(OpticalScale).Add(OpticalOffset)
	thermal := img.Select(s.Thermal).Multiply(ThermalScale).Add(ThermalOffset)
	return img.AddBands(optical, true).AddBands(thermal, true)
}

// SelectIndexBands keeps the red and near-infrared bands of the image's sensor.
func SelectIndexBands(img ee.Image, s SensorSpec) ee.Image {
	red, nir := s.IndexBands()
	return img.Select(red, nir)
}

// AddIndex appends the NDVI band, (NIR - Red) / (NIR + Red), and tags the image
// with its acquisition year. A zero denominator yields a masked pixel.
func AddIndex(img ee.Image, s SensorSpec) ee.Image {
	red, nir := s.IndexBands()
	ndvi := img.NormalizedDifference(nir, red).Rename(IndexBand)
	return img.AddBands(ndvi, false).Set("year", img.Year())
}

// Transform runs the whole per-image chain for sensor s.
func Transform(img ee.Image, s SensorSpec, opts MaskOptions) ee.Image {
	img = MaskClouds(img, s, opts)
	img = Rescale(img, s)
	img = SelectIndexBands(img, s)
	return AddIndex(img, s)
}

// Prepared is the sensor archive with the per-image chain mapped over it.
func Prepared(region ee.FeatureCollection, s SensorSpec, opts MaskOptions) ee.ImageCollection {
	return Archive(region, s).Map(func(img ee.Image) ee.Image {
		return Transform(img, s, opts)
	})
}

// Merge unions the per-sensor collections. No deduplication is done. Merging
// nothing gives an empty collection.
func Merge(collections ...ee.ImageCollection) ee.ImageCollection {
	if len(collections) == 0 {
		return ee.ImageCollectionFromObjects(nil)
	}
	merged := collections[0]
	for _, c := range collections[1:] {
		merged = merged.Merge(c)
	}
	return merged
}

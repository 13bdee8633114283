package pipeline

import (
	"fmt"
	"sort"
	"time"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

// EmptyPolicy decides how years without any contributing image appear in the
// series. It applies to every year of a series alike.
type EmptyPolicy string

const (
	// EmptyOmit drops years without images from the series.
	EmptyOmit EmptyPolicy = "omit"
	// EmptyPlaceholder keeps them as Empty entries.
	EmptyPlaceholder EmptyPolicy = "placeholder"
)

func (p EmptyPolicy) Valid() bool { return p == EmptyOmit || p == EmptyPlaceholder }

// Entry is one year of a composite series: either Composite or Empty.
type Entry interface {
	Year() int
	entry()
}

// Composite is the per-pixel median NDVI of one year, clipped to the region.
type Composite struct {
	Yr    int
	Image ee.Image
}

// Empty marks a year with no contributing image.
type Empty struct {
	Yr int
}

func (c Composite) Year() int { return c.Yr }
func (Composite) entry()      {}
func (e Empty) Year() int     { return e.Yr }
func (Empty) entry()          {}

// YearWindow is [Jan 1 of year, Jan 1 of year+1), so Dec 31 is included.
func YearWindow(year int) (start, end time.Time) {
	start = date(year, time.January, 1)
	return start, start.AddDate(1, 0, 0)
}

// AnnualComposite reduces the images of one year to their per-pixel NDVI
// median, clipped to the region and tagged with the year.
func AnnualComposite(merged ee.ImageCollection, region ee.FeatureCollection, year int) ee.Image {
	start, end := YearWindow(year)
	return merged.FilterDate(start, end).
		Select(IndexBand).
		Median().
		Clip(region).
		Set("year", year)
}

// guardedComposite is the composite, or null when the year has no image. The
// size check runs on the server as part of the same request.
func guardedComposite(merged ee.ImageCollection, region ee.FeatureCollection, year int) ee.Object {
	start, end := YearWindow(year)
	n := merged.FilterDate(start, end).Size()
	return ee.If(n.Gt(0), AnnualComposite(merged, region, year).AsObject(), ee.Null())
}

// SeriesCollection is the lazy collection of non-empty annual composites for
// the inclusive year range.
func SeriesCollection(merged ee.ImageCollection, region ee.FeatureCollection, first, last int) ee.ImageCollection {
	objs := make([]ee.Object, 0, last-first+1)
	for y := first; y <= last; y++ {
		objs = append(objs, guardedComposite(merged, region, y))
	}
	return ee.ImageCollectionFromObjects(objs).Filter(ee.FilterNotNull("year"))
}

// BuildEntries turns the materialized list of supported years into the series.
// Years must be inside [first, last] and unique; the result is ascending.
func BuildEntries(merged ee.ImageCollection, region ee.FeatureCollection, first, last int, supported []int, policy EmptyPolicy) ([]Entry, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("unknown empty-year policy %q", policy)
	}
	present := make(map[int]bool, len(supported))
	for _, y := range supported {
		if y < first || y > last {
			return nil, fmt.Errorf("composite year %d outside %d-%d", y, first, last)
		}
		if present[y] {
			return nil, fmt.Errorf("duplicate composite for year %d", y)
		}
		present[y] = true
	}

	entries := make([]Entry, 0, last-first+1)
	for y := first; y <= last; y++ {
		switch {
		case present[y]:
			entries = append(entries, Composite{Yr: y, Image: AnnualComposite(merged, region, y)})
		case policy == EmptyPlaceholder:
			entries = append(entries, Empty{Yr: y})
		}
	}
	return entries, nil
}

// Composites filters a series down to its Composite entries, keeping order.
func Composites(entries []Entry) []Composite {
	var out []Composite
	for _, e := range entries {
		if c, ok := e.(Composite); ok {
			out = append(out, c)
		}
	}
	return out
}

// Ascending reports whether years strictly increase along the series.
func Ascending(entries []Entry) bool {
	return sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Year() < entries[j].Year() }) &&
		noDuplicateYears(entries)
}

func noDuplicateYears(entries []Entry) bool {
	for i := 1; i < len(entries); i++ {
		if entries[i].Year() == entries[i-1].Year() {
			return false
		}
	}
	return true
}

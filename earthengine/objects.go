package earthengine

import "time"

// Object is a reference to any computed server-side value (number, string,
// date, list, dictionary, or null).
type Object struct{ node *ValueNode }

// Image is a reference to a server-side raster.
type Image struct{ node *ValueNode }

// ImageCollection is a reference to a server-side collection of images.
type ImageCollection struct{ node *ValueNode }

// FeatureCollection is a reference to a server-side table of features.
type FeatureCollection struct{ node *ValueNode }

// Filter is a reference to a server-side collection filter.
type Filter struct{ node *ValueNode }

// Reducer is a reference to a server-side reducer.
type Reducer struct{ node *ValueNode }

// Node exposes the underlying expression.
func (o Object) Node() *ValueNode            { return o.node }
func (i Image) Node() *ValueNode             { return i.node }
func (c ImageCollection) Node() *ValueNode   { return c.node }
func (f FeatureCollection) Node() *ValueNode { return f.node }

// Value wraps a constant.
func Value(v any) Object { return Object{Constant(v)} }

// Null is the constant null.
func Null() Object { return Object{Constant(nil)} }

// ---- dates ----

// Date returns a server-side date at t, encoded as epoch milliseconds.
func Date(t time.Time) Object {
	return Object{Invoke("Date", map[string]*ValueNode{"value": Constant(t.UnixMilli())})}
}

// DateRange returns the half-open range [start, end).
func DateRange(start, end time.Time) Object {
	return Object{Invoke("DateRange", map[string]*ValueNode{
		"start": Date(start).node,
		"end":   Date(end).node,
	})}
}

// ---- generic objects ----

// Gt returns o > n.
func (o Object) Gt(n float64) Object {
	return Object{Invoke("Number.gt", map[string]*ValueNode{"left": o.node, "right": Constant(n)})}
}

// Get reads a key from a dictionary.
func (o Object) Get(key string) Object {
	return Object{Invoke("Dictionary.get", map[string]*ValueNode{"dictionary": o.node, "key": Constant(key)})}
}

// If selects trueCase or falseCase on the server depending on cond. Only the
// chosen branch is evaluated.
func If(cond, trueCase, falseCase Object) Object {
	return Object{Invoke("Algorithms.If", map[string]*ValueNode{
		"condition": cond.node,
		"trueCase":  trueCase.node,
		"falseCase": falseCase.node,
	})}
}

// AsObject views an image as a generic object, for If and list construction.
func (i Image) AsObject() Object { return Object{i.node} }

// ---- feature collections ----

// LoadFeatureCollection references a table asset by id.
func LoadFeatureCollection(assetID string) FeatureCollection {
	return FeatureCollection{Invoke("Collection.loadTable", map[string]*ValueNode{"tableId": Constant(assetID)})}
}

// Bounds is the GeoJSON bounding box polygon of the union of all features.
func (f FeatureCollection) Bounds() Object {
	geom := Invoke("Collection.geometry", map[string]*ValueNode{"collection": f.node})
	return Object{Invoke("Geometry.bounds", map[string]*ValueNode{"geometry": geom})}
}

// Size is the number of features.
func (f FeatureCollection) Size() Object {
	return Object{Invoke("Collection.size", map[string]*ValueNode{"collection": f.node})}
}

// ---- filters ----

// FilterIntersects keeps elements whose footprint intersects region.
func FilterIntersects(region FeatureCollection) Filter {
	return Filter{Invoke("Filter.intersects", map[string]*ValueNode{
		"leftField":  Constant(".all"),
		"rightValue": region.node,
	})}
}

// FilterDateRange keeps elements whose system:time_start lies in [start, end).
func FilterDateRange(start, end time.Time) Filter {
	return Filter{Invoke("Filter.dateRangeContains", map[string]*ValueNode{
		"leftValue":  DateRange(start, end).node,
		"rightField": Constant("system:time_start"),
	})}
}

// FilterEquals keeps elements whose property equals v.
func FilterEquals(property string, v any) Filter {
	return Filter{Invoke("Filter.equals", map[string]*ValueNode{
		"leftField":  Constant(property),
		"rightValue": Constant(v),
	})}
}

// FilterNotNull keeps elements whose properties are all non-null. Null
// elements of a collection are dropped as well.
func FilterNotNull(properties ...string) Filter {
	return Filter{Invoke("Filter.notNull", map[string]*ValueNode{"properties": Strings(properties...)})}
}

// ---- reducers ----

// ReducerMean averages unmasked values.
func ReducerMean() Reducer { return Reducer{Invoke("Reducer.mean", nil)} }

// ReducerLinearFit fits y = offset + scale*x over two input bands (x, y) and
// outputs the bands "scale" and "offset".
func ReducerLinearFit() Reducer { return Reducer{Invoke("Reducer.linearFit", nil)} }

// Dict builds a dictionary of computed values, materialized in one call.
func Dict(entries map[string]Object) Object {
	values := make(map[string]*ValueNode, len(entries))
	for k, v := range entries {
		values[k] = v.node
	}
	return Object{&ValueNode{Dictionary: values}}
}

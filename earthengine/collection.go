package earthengine

import "time"

// LoadImageCollection references an image collection asset by id.
func LoadImageCollection(id string) ImageCollection {
	return ImageCollection{Invoke("ImageCollection.load", map[string]*ValueNode{"id": Constant(id)})}
}

// ImageCollectionFromObjects builds a collection from a list of images. Null
// entries are kept until filtered with FilterNotNull.
func ImageCollectionFromObjects(objs []Object) ImageCollection {
	nodes := make([]*ValueNode, len(objs))
	for i, o := range objs {
		nodes[i] = o.node
	}
	return ImageCollection{Invoke("ImageCollection.fromImages", map[string]*ValueNode{"images": Array(nodes...)})}
}

// Filter applies f.
func (c ImageCollection) Filter(f Filter) ImageCollection {
	return ImageCollection{Invoke("Collection.filter", map[string]*ValueNode{"collection": c.node, "filter": f.node})}
}

// FilterBounds keeps images intersecting region.
func (c ImageCollection) FilterBounds(region FeatureCollection) ImageCollection {
	return c.Filter(FilterIntersects(region))
}

// FilterDate keeps images acquired in [start, end).
func (c ImageCollection) FilterDate(start, end time.Time) ImageCollection {
	return c.Filter(FilterDateRange(start, end))
}

// Map applies fn to every image on the server. fn runs once, locally, to build
// the function body; it must not perform I/O.
func (c ImageCollection) Map(fn func(Image) Image) ImageCollection {
	def := lambda(func(arg *ValueNode) *ValueNode { return fn(Image{arg}).node })
	return ImageCollection{Invoke("Collection.map", map[string]*ValueNode{"collection": c.node, "baseAlgorithm": def})}
}

// Select keeps the given bands in every image.
func (c ImageCollection) Select(bands ...string) ImageCollection {
	return c.Map(func(img Image) Image { return img.Select(bands...) })
}

// Merge concatenates two collections. No deduplication happens.
func (c ImageCollection) Merge(other ImageCollection) ImageCollection {
	return ImageCollection{Invoke("ImageCollection.merge", map[string]*ValueNode{
		"collection1": c.node,
		"collection2": other.node,
	})}
}

// Median reduces the collection per pixel and per band with the median of the
// unmasked values.
func (c ImageCollection) Median() Image {
	return Image{Invoke("reduce.median", map[string]*ValueNode{"collection": c.node})}
}

// Reduce applies r per pixel across the collection.
func (c ImageCollection) Reduce(r Reducer) Image {
	return Image{Invoke("ImageCollection.reduce", map[string]*ValueNode{"collection": c.node, "reducer": r.node})}
}

// Size is the number of images.
func (c ImageCollection) Size() Object {
	return Object{Invoke("Collection.size", map[string]*ValueNode{"collection": c.node})}
}

// First is the first image of the collection.
func (c ImageCollection) First() Image {
	return Image{Invoke("Collection.first", map[string]*ValueNode{"collection": c.node})}
}

// AggregateArray lists a property over all images.
func (c ImageCollection) AggregateArray(property string) Object {
	return Object{Invoke("AggregateFeatureCollection.array", map[string]*ValueNode{
		"collection": c.node,
		"property":   Constant(property),
	})}
}

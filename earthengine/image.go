package earthengine

// ImageConstant is an image with one band named "constant" holding v everywhere.
// v may be a float64 or a computed Object.
func ImageConstant(v any) Image {
	return Image{Invoke("Image.constant", map[string]*ValueNode{"value": toNode(v)})}
}

func toNode(v any) *ValueNode {
	switch t := v.(type) {
	case Object:
		return t.node
	case Image:
		return t.node
	case *ValueNode:
		return t
	default:
		return Constant(v)
	}
}

func (i Image) imageOp(fn string, other any) Image {
	var rhs *ValueNode
	switch t := other.(type) {
	case Image:
		rhs = t.node
	default:
		rhs = ImageConstant(other).node
	}
	return Image{Invoke(fn, map[string]*ValueNode{"image1": i.node, "image2": rhs})}
}

// Select keeps the bands matching the given names or regular expressions, in order.
func (i Image) Select(bands ...string) Image {
	return Image{Invoke("Image.select", map[string]*ValueNode{"input": i.node, "bandSelectors": Strings(bands...)})}
}

// Rename renames all bands, in order.
func (i Image) Rename(names ...string) Image {
	return Image{Invoke("Image.rename", map[string]*ValueNode{"input": i.node, "names": Strings(names...)})}
}

func (i Image) Multiply(v any) Image   { return i.imageOp("Image.multiply", v) }
func (i Image) Add(v any) Image        { return i.imageOp("Image.add", v) }
func (i Image) BitwiseAnd(v any) Image { return i.imageOp("Image.bitwiseAnd", v) }
func (i Image) Eq(v any) Image         { return i.imageOp("Image.eq", v) }
func (i Image) And(v any) Image        { return i.imageOp("Image.and", v) }

// ToFloat casts every band to 32-bit float.
func (i Image) ToFloat() Image {
	return Image{Invoke("Image.toFloat", map[string]*ValueNode{"value": i.node})}
}

// UpdateMask masks out pixels where mask is zero.
func (i Image) UpdateMask(mask Image) Image {
	return Image{Invoke("Image.updateMask", map[string]*ValueNode{"image": i.node, "mask": mask.node})}
}

// AddBands copies the bands of src into i. With overwrite, same-named bands in
// i are replaced.
func (i Image) AddBands(src Image, overwrite bool) Image {
	return Image{Invoke("Image.addBands", map[string]*ValueNode{
		"dstImg":    i.node,
		"srcImg":    src.node,
		"overwrite": Constant(overwrite),
	})}
}

// NormalizedDifference computes (a - b) / (a + b) into a band named "nd".
// Pixels where a + b is zero are masked.
func (i Image) NormalizedDifference(a, b string) Image {
	return Image{Invoke("Image.normalizedDifference", map[string]*ValueNode{
		"input":     i.node,
		"bandNames": Strings(a, b),
	})}
}

// Clip masks everything outside region.
func (i Image) Clip(region FeatureCollection) Image {
	return Image{Invoke("Image.clip", map[string]*ValueNode{"input": i.node, "geometry": region.node})}
}

// Set returns a copy of the image with a property set. v may be a constant or Object.
func (i Image) Set(key string, v any) Image {
	return Image{Invoke("Element.set", map[string]*ValueNode{
		"object": i.node,
		"key":    Constant(key),
		"value":  toNode(v),
	})}
}

// Get reads a property.
func (i Image) Get(property string) Object {
	return Object{Invoke("Element.get", map[string]*ValueNode{"object": i.node, "property": Constant(property)})}
}

// Year is the calendar year of the image acquisition time.
func (i Image) Year() Object {
	date := Invoke("Image.date", map[string]*ValueNode{"image": i.node})
	return Object{Invoke("Date.get", map[string]*ValueNode{"date": date, "unit": Constant("year")})}
}

// ReduceRegion applies reducer to all pixels within region at the given scale
// in meters, producing a dictionary keyed by band name.
func (i Image) ReduceRegion(r Reducer, region FeatureCollection, scale float64) Object {
	return Object{Invoke("Image.reduceRegion", map[string]*ValueNode{
		"image":    i.node,
		"reducer":  r.node,
		"geometry": region.node,
		"scale":    Constant(scale),
	})}
}

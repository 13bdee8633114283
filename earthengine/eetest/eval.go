package eetest

import (
	"fmt"
	"maps"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/stat"

	"github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

type image struct {
	names []string
	bands map[string][]float64
	props map[string]any
}

type collection []*image

type region struct {
	id   string
	geom orb.Geometry
}

type dateRange struct{ start, end time.Time }

type filter func(*image) bool

type reducer string

type closure struct {
	def *earthengine.FunctionDefinition
	env map[string]any
}

func newImage() *image {
	return &image{bands: map[string][]float64{}, props: map[string]any{}}
}

func (im *image) clone() *image {
	out := &image{
		names: append([]string(nil), im.names...),
		bands: maps.Clone(im.bands),
		props: maps.Clone(im.props),
	}
	return out
}

func (im *image) put(name string, data []float64) {
	if _, ok := im.bands[name]; !ok {
		im.names = append(im.names, name)
	}
	im.bands[name] = data
}

// eval interprets n. Arguments of invocations are evaluated on demand so that
// Algorithms.If only evaluates the chosen branch.
func (e *Evaluator) eval(n *earthengine.ValueNode, env map[string]any) (any, error) {
	switch n.Kind() {
	case earthengine.KindConstant:
		return normalize(n.Constant), nil
	case earthengine.KindArgumentReference:
		v, ok := env[n.ArgumentReference]
		if !ok {
			return nil, fmt.Errorf("eetest: unbound argument %s", n.ArgumentReference)
		}
		return v, nil
	case earthengine.KindFunctionDefinition:
		return closure{def: n.FunctionDefinition, env: env}, nil
	case earthengine.KindDictionary:
		out := make(map[string]any, len(n.Dictionary))
		for k, v := range n.Dictionary {
			x, err := e.eval(v, env)
			if err != nil {
				return nil, err
			}
			out[k] = x
		}
		return out, nil
	case earthengine.KindArray:
		out := make([]any, len(n.Array))
		for i, v := range n.Array {
			x, err := e.eval(v, env)
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	}
	return e.invoke(n.Invocation, env)
}

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	}
	return v
}

type args struct {
	e    *Evaluator
	fn   string
	raw  map[string]*earthengine.ValueNode
	env  map[string]any
	errs error
}

func (a *args) has(name string) bool {
	_, ok := a.raw[name]
	return ok
}

func (a *args) get(name string) any {
	if a.errs != nil {
		return nil
	}
	n, ok := a.raw[name]
	if !ok {
		a.errs = fmt.Errorf("eetest: %s: missing argument %q", a.fn, name)
		return nil
	}
	v, err := a.e.eval(n, a.env)
	if err != nil {
		a.errs = err
	}
	return v
}

func (a *args) image(name string) *image {
	v := a.get(name)
	if a.errs != nil {
		return nil
	}
	switch t := v.(type) {
	case *image:
		if t == nil {
			a.errs = fmt.Errorf("eetest: %s: %s is null", a.fn, name)
		}
		return t
	case float64:
		return a.e.constantImage(t)
	}
	a.errs = fmt.Errorf("eetest: %s: %s is %T, want image", a.fn, name, v)
	return nil
}

func (a *args) collection(name string) collection {
	v := a.get(name)
	if a.errs != nil {
		return nil
	}
	c, ok := v.(collection)
	if !ok {
		a.errs = fmt.Errorf("eetest: %s: %s is %T, want collection", a.fn, name, v)
	}
	return c
}

func (a *args) number(name string) float64 {
	v := a.get(name)
	if a.errs != nil {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		a.errs = fmt.Errorf("eetest: %s: %s is %T, want number", a.fn, name, v)
	}
	return f
}

func (a *args) str(name string) string {
	v := a.get(name)
	if a.errs != nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.errs = fmt.Errorf("eetest: %s: %s is %T, want string", a.fn, name, v)
	}
	return s
}

func (a *args) strings(name string) []string {
	v := a.get(name)
	if a.errs != nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		a.errs = fmt.Errorf("eetest: %s: %s is %T, want list", a.fn, name, v)
		return nil
	}
	out := make([]string, len(list))
	for i, x := range list {
		if out[i], ok = x.(string); !ok {
			a.errs = fmt.Errorf("eetest: %s: %s[%d] is %T, want string", a.fn, name, i, x)
			return nil
		}
	}
	return out
}

func (a *args) region(name string) *region {
	v := a.get(name)
	if a.errs != nil {
		return nil
	}
	r, ok := v.(*region)
	if !ok {
		a.errs = fmt.Errorf("eetest: %s: %s is %T, want feature collection", a.fn, name, v)
	}
	return r
}

func (a *args) time(name string) time.Time {
	v := a.get(name)
	if a.errs != nil {
		return time.Time{}
	}
	t, ok := v.(time.Time)
	if !ok {
		a.errs = fmt.Errorf("eetest: %s: %s is %T, want date", a.fn, name, v)
	}
	return t
}

func (e *Evaluator) invoke(inv *earthengine.FunctionInvocation, env map[string]any) (any, error) {
	a := &args{e: e, fn: inv.FunctionName, raw: inv.Arguments, env: env}
	var out any
	switch inv.FunctionName {
	case "Date":
		out = time.UnixMilli(int64(a.number("value"))).UTC()
	case "DateRange":
		out = dateRange{start: a.time("start"), end: a.time("end")}
	case "Number.gt":
		out = a.number("left") > a.number("right")
	case "Dictionary.get":
		d, ok := a.get("dictionary").(map[string]any)
		key := a.str("key")
		if a.errs == nil {
			if !ok {
				return nil, fmt.Errorf("eetest: Dictionary.get on non-dictionary")
			}
			v, found := d[key]
			if !found {
				return nil, fmt.Errorf("eetest: Dictionary.get: key %q not found", key)
			}
			out = v
		}
	case "Algorithms.If":
		if truthy(a.get("condition")) {
			out = a.get("trueCase")
		} else {
			out = a.get("falseCase")
		}

	case "Collection.loadTable":
		id := a.str("tableId")
		if a.errs == nil {
			e.mu.Lock()
			geom, ok := e.regions[id]
			e.mu.Unlock()
			if !ok {
				return nil, fmt.Errorf("%w: table %s", earthengine.ErrNotFound, id)
			}
			out = &region{id: id, geom: geom}
		}
	case "Collection.geometry":
		if r := a.region("collection"); r != nil {
			out = r.geom
		}
	case "Geometry.bounds":
		g, ok := a.get("geometry").(orb.Geometry)
		if a.errs == nil {
			if !ok {
				return nil, fmt.Errorf("eetest: Geometry.bounds of non-geometry")
			}
			out = geojson.NewGeometry(g.Bound().ToPolygon())
		}

	case "ImageCollection.load":
		id := a.str("id")
		if a.errs == nil {
			c, err := e.load(id)
			if err != nil {
				return nil, err
			}
			out = c
		}
	case "ImageCollection.fromImages":
		list, ok := a.get("images").([]any)
		if a.errs == nil {
			if !ok {
				return nil, fmt.Errorf("eetest: fromImages needs a list")
			}
			c := make(collection, len(list))
			for i, x := range list {
				switch t := x.(type) {
				case nil:
				case *image:
					c[i] = t
				default:
					return nil, fmt.Errorf("eetest: fromImages element %d is %T", i, x)
				}
			}
			out = c
		}
	case "ImageCollection.merge":
		c1, c2 := a.collection("collection1"), a.collection("collection2")
		out = append(append(collection{}, c1...), c2...)
	case "Collection.filter":
		c := a.collection("collection")
		f, ok := a.get("filter").(filter)
		if a.errs == nil {
			if !ok {
				return nil, fmt.Errorf("eetest: Collection.filter needs a filter")
			}
			var kept collection
			for _, im := range c {
				if f(im) {
					kept = append(kept, im)
				}
			}
			out = kept
		}
	case "Collection.map":
		c := a.collection("collection")
		fn, ok := a.get("baseAlgorithm").(closure)
		if a.errs == nil {
			if !ok {
				return nil, fmt.Errorf("eetest: Collection.map needs a function")
			}
			mapped := make(collection, 0, len(c))
			for _, im := range c {
				if im == nil {
					continue
				}
				v, err := e.call(fn, im)
				if err != nil {
					return nil, err
				}
				res, ok := v.(*image)
				if !ok {
					return nil, fmt.Errorf("eetest: mapped function returned %T", v)
				}
				mapped = append(mapped, res)
			}
			out = mapped
		}
	case "Collection.size":
		switch v := a.get("collection").(type) {
		case collection:
			out = float64(len(v))
		case *region:
			out = 1.0
		default:
			if a.errs == nil {
				return nil, fmt.Errorf("eetest: Collection.size of %T", v)
			}
		}
	case "Collection.first":
		c := a.collection("collection")
		if a.errs == nil {
			if len(c) == 0 {
				out = (*image)(nil)
			} else {
				out = c[0]
			}
		}
	case "AggregateFeatureCollection.array":
		c := a.collection("collection")
		prop := a.str("property")
		list := []any{}
		for _, im := range c {
			if im == nil {
				continue
			}
			if v, ok := im.props[prop]; ok {
				list = append(list, v)
			}
		}
		out = list
	case "reduce.median":
		c := a.collection("collection")
		if a.errs == nil {
			out = e.median(c)
		}
	case "ImageCollection.reduce":
		c := a.collection("collection")
		r, ok := a.get("reducer").(reducer)
		if a.errs == nil {
			if !ok || r != "linearFit" {
				return nil, fmt.Errorf("eetest: ImageCollection.reduce supports linearFit only")
			}
			out = e.linearFit(c)
		}

	case "Filter.intersects":
		a.region("rightValue")
		out = filter(func(im *image) bool { return im != nil })
	case "Filter.dateRangeContains":
		dr, ok := a.get("leftValue").(dateRange)
		field := a.str("rightField")
		if a.errs == nil {
			if !ok {
				return nil, fmt.Errorf("eetest: dateRangeContains needs a DateRange")
			}
			start, end := float64(dr.start.UnixMilli()), float64(dr.end.UnixMilli())
			out = filter(func(im *image) bool {
				if im == nil {
					return false
				}
				t, ok := im.props[field].(float64)
				return ok && t >= start && t < end
			})
		}
	case "Filter.equals":
		field := a.str("leftField")
		want := a.get("rightValue")
		out = filter(func(im *image) bool { return im != nil && im.props[field] == want })
	case "Filter.notNull":
		props := a.strings("properties")
		out = filter(func(im *image) bool {
			if im == nil {
				return false
			}
			for _, p := range props {
				if im.props[p] == nil {
					return false
				}
			}
			return true
		})

	case "Reducer.mean":
		out = reducer("mean")
	case "Reducer.linearFit":
		out = reducer("linearFit")

	case "Element.set":
		im := a.image("object")
		key := a.str("key")
		v := a.get("value")
		if a.errs == nil {
			c := im.clone()
			c.props[key] = v
			out = c
		}
	case "Element.get":
		im := a.image("object")
		prop := a.str("property")
		if a.errs == nil {
			out = im.props[prop]
		}
	case "Image.date":
		im := a.image("image")
		if a.errs == nil {
			ms, ok := im.props["system:time_start"].(float64)
			if !ok {
				return nil, fmt.Errorf("eetest: image has no system:time_start")
			}
			out = time.UnixMilli(int64(ms)).UTC()
		}
	case "Date.get":
		t := a.time("date")
		unit := a.str("unit")
		if a.errs == nil {
			if unit != "year" {
				return nil, fmt.Errorf("eetest: Date.get unit %q unsupported", unit)
			}
			out = float64(t.Year())
		}

	case "Image.constant":
		v, ok := a.get("value").(float64)
		if a.errs == nil {
			if !ok {
				return nil, fmt.Errorf("eetest: Image.constant needs a number")
			}
			out = e.constantImage(v)
		}
	case "Image.select":
		im := a.image("input")
		sel := a.strings("bandSelectors")
		if a.errs == nil {
			res, err := selectBands(im, sel)
			if err != nil {
				return nil, err
			}
			out = res
		}
	case "Image.rename":
		im := a.image("input")
		names := a.strings("names")
		if a.errs == nil {
			if len(names) != len(im.names) {
				return nil, fmt.Errorf("eetest: rename %d bands to %d names", len(im.names), len(names))
			}
			res := &image{bands: map[string][]float64{}, props: maps.Clone(im.props)}
			for i, n := range im.names {
				res.put(names[i], im.bands[n])
			}
			out = res
		}
	case "Image.toFloat":
		out = a.image("value")
	case "Image.multiply":
		out = e.binary(a, func(x, y float64) float64 { return x * y })
	case "Image.add":
		out = e.binary(a, func(x, y float64) float64 { return x + y })
	case "Image.bitwiseAnd":
		out = e.binary(a, func(x, y float64) float64 { return float64(int64(x) & int64(y)) })
	case "Image.eq":
		out = e.binary(a, func(x, y float64) float64 { return boolf(x == y) })
	case "Image.and":
		out = e.binary(a, func(x, y float64) float64 { return boolf(x != 0 && y != 0) })
	case "Image.updateMask":
		im := a.image("image")
		mask := a.image("mask")
		if a.errs == nil {
			if len(mask.names) == 0 {
				return nil, fmt.Errorf("eetest: updateMask with an empty mask")
			}
			res := im.clone()
			m := mask.bands[mask.names[0]]
			for _, n := range res.names {
				src := res.bands[n]
				dst := make([]float64, len(src))
				for i := range src {
					if math.IsNaN(m[i]) || m[i] == 0 {
						dst[i] = math.NaN()
					} else {
						dst[i] = src[i]
					}
				}
				res.bands[n] = dst
			}
			out = res
		}
	case "Image.addBands":
		dst := a.image("dstImg")
		src := a.image("srcImg")
		overwrite := a.has("overwrite") && a.get("overwrite") == true
		if a.errs == nil {
			res := dst.clone()
			for _, n := range src.names {
				if _, exists := res.bands[n]; exists && !overwrite {
					return nil, fmt.Errorf("eetest: addBands: duplicate band %q", n)
				}
				res.put(n, src.bands[n])
			}
			out = res
		}
	case "Image.normalizedDifference":
		im := a.image("input")
		names := a.strings("bandNames")
		if a.errs == nil {
			res, err := normalizedDifference(im, names)
			if err != nil {
				return nil, err
			}
			out = res
		}
	case "Image.clip":
		im := a.image("input")
		r := a.region("geometry")
		if a.errs == nil {
			out = e.clip(im, r)
		}
	case "Image.reduceRegion":
		im := a.image("image")
		r, ok := a.get("reducer").(reducer)
		reg := a.region("geometry")
		a.number("scale")
		if a.errs == nil {
			if !ok || r != "mean" {
				return nil, fmt.Errorf("eetest: reduceRegion supports mean only")
			}
			out = e.regionMean(im, reg)
		}
	default:
		return nil, fmt.Errorf("eetest: unsupported function %s", inv.FunctionName)
	}
	if a.errs != nil {
		return nil, a.errs
	}
	return out, nil
}

func (e *Evaluator) call(fn closure, arg any) (any, error) {
	env := make(map[string]any, len(fn.env)+1)
	maps.Copy(env, fn.env)
	env[fn.def.ArgumentNames[0]] = arg
	return e.eval(fn.def.Body, env)
}

func (e *Evaluator) load(id string) (collection, error) {
	e.mu.Lock()
	scenes, ok := e.archives[id]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: image collection %s", earthengine.ErrNotFound, id)
	}
	out := make(collection, 0, len(scenes))
	for _, s := range scenes {
		im := newImage()
		for _, b := range s.Bands {
			im.put(b.Name, b.Data)
		}
		for k, v := range s.Props {
			im.props[k] = normalize(v)
		}
		im.props["system:time_start"] = float64(s.Time.UnixMilli())
		out = append(out, im)
	}
	return out, nil
}

func (e *Evaluator) constantImage(v float64) *image {
	im := newImage()
	im.put("constant", e.Fill(v))
	return im
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// binary applies op band-wise. A single-band operand is broadcast; masked
// pixels stay masked. Properties are not carried over.
func (e *Evaluator) binary(a *args, op func(x, y float64) float64) *image {
	i1, i2 := a.image("image1"), a.image("image2")
	if a.errs != nil {
		return nil
	}
	n1, n2 := len(i1.names), len(i2.names)
	if n1 != n2 && n1 != 1 && n2 != 1 {
		a.errs = fmt.Errorf("eetest: %s: band count mismatch %d vs %d", a.fn, n1, n2)
		return nil
	}
	names := i1.names
	if n1 == 1 && n2 > 1 {
		names = i2.names
	}
	res := newImage()
	for k, name := range names {
		x := i1.bands[i1.names[min(k, n1-1)]]
		y := i2.bands[i2.names[min(k, n2-1)]]
		out := make([]float64, len(x))
		for p := range x {
			if math.IsNaN(x[p]) || math.IsNaN(y[p]) {
				out[p] = math.NaN()
				continue
			}
			out[p] = op(x[p], y[p])
		}
		res.put(name, out)
	}
	return res
}

// selectBands matches each selector as an anchored regular expression against
// the band names, preserving selector order.
func selectBands(im *image, selectors []string) (*image, error) {
	res := &image{bands: map[string][]float64{}, props: maps.Clone(im.props)}
	for _, s := range selectors {
		re, err := regexp.Compile("^(?:" + s + ")$")
		if err != nil {
			return nil, fmt.Errorf("eetest: bad band selector %q: %w", s, err)
		}
		matched := false
		for _, n := range im.names {
			if re.MatchString(n) {
				res.put(n, im.bands[n])
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("eetest: selector %q matched no band of %v", s, im.names)
		}
	}
	return res, nil
}

// normalizedDifference masks pixels with a zero denominator and, as the
// service does, pixels where either input is negative.
func normalizedDifference(im *image, names []string) (*image, error) {
	if len(names) != 2 {
		return nil, fmt.Errorf("eetest: normalizedDifference needs two bands")
	}
	a, okA := im.bands[names[0]]
	b, okB := im.bands[names[1]]
	if !okA || !okB {
		return nil, fmt.Errorf("eetest: normalizedDifference: bands %v not in %v", names, im.names)
	}
	out := make([]float64, len(a))
	for i := range a {
		sum := a[i] + b[i]
		if math.IsNaN(sum) || sum == 0 || a[i] < 0 || b[i] < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (a[i] - b[i]) / sum
	}
	res := newImage()
	res.put("nd", out)
	return res, nil
}

func (e *Evaluator) inside(r *region) []bool {
	in := make([]bool, e.grid.Pixels())
	for i := range in {
		in[i] = contains(r.geom, e.grid.Center(i))
	}
	return in
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch t := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(t, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(t, p)
	case orb.Bound:
		return t.Contains(p)
	}
	return false
}

func (e *Evaluator) clip(im *image, r *region) *image {
	in := e.inside(r)
	res := im.clone()
	for _, n := range res.names {
		src := res.bands[n]
		dst := make([]float64, len(src))
		for i := range src {
			if in[i] {
				dst[i] = src[i]
			} else {
				dst[i] = math.NaN()
			}
		}
		res.bands[n] = dst
	}
	return res
}

// median takes the per-pixel median of unmasked values. For an even count it
// is the mean of the two middle values.
func (e *Evaluator) median(c collection) *image {
	res := newImage()
	var order []string
	seen := map[string]bool{}
	for _, im := range c {
		if im == nil {
			continue
		}
		for _, n := range im.names {
			if !seen[n] {
				seen[n] = true
				order = append(order, n)
			}
		}
	}
	for _, n := range order {
		out := make([]float64, e.grid.Pixels())
		vals := make([]float64, 0, len(c))
		for p := range out {
			vals = vals[:0]
			for _, im := range c {
				if im == nil {
					continue
				}
				if band, ok := im.bands[n]; ok && !math.IsNaN(band[p]) {
					vals = append(vals, band[p])
				}
			}
			out[p] = medianOf(vals)
		}
		res.put(n, out)
	}
	return res
}

func medianOf(vals []float64) float64 {
	switch len(vals) {
	case 0:
		return math.NaN()
	case 1:
		return vals[0]
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// linearFit regresses the second band on the first, per pixel.
func (e *Evaluator) linearFit(c collection) *image {
	scale := make([]float64, e.grid.Pixels())
	offset := make([]float64, e.grid.Pixels())
	for p := range scale {
		var xs, ys []float64
		for _, im := range c {
			if im == nil || len(im.names) < 2 {
				continue
			}
			x, y := im.bands[im.names[0]][p], im.bands[im.names[1]][p]
			if math.IsNaN(x) || math.IsNaN(y) {
				continue
			}
			xs = append(xs, x)
			ys = append(ys, y)
		}
		if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
			scale[p], offset[p] = math.NaN(), math.NaN()
			continue
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		scale[p], offset[p] = beta, alpha
	}
	res := newImage()
	res.put("scale", scale)
	res.put("offset", offset)
	return res
}

// regionMean averages unmasked pixels inside r for every band. Bands without
// any valid pixel map to null.
func (e *Evaluator) regionMean(im *image, r *region) map[string]any {
	in := e.inside(r)
	out := make(map[string]any, len(im.names))
	for _, n := range im.names {
		var vals []float64
		for i, v := range im.bands[n] {
			if in[i] && !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			out[n] = nil
			continue
		}
		out[n] = stat.Mean(vals, nil)
	}
	return out
}

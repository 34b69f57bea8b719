// Package spatial resolves a map click to the atlas items under it.
//
// Candidates are the items intersecting a box around the click. They are
// ranked by their distance to the click, except that a node or point closer
// than the point prevalence distance outranks edges, lines and areas: a
// click on a node lying on a road selects the node.
package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
)

// SnappedItem is an atlas item with its distance to a location.
type SnappedItem struct {
	Item atlas.Item
	// Distance in meters from the location to the item geometry: the point
	// for nodes and points, the polyline for edges and lines and the
	// boundary for areas.
	Distance float64
}

// NewSnappedItem measures the distance from location to item.
func NewSnappedItem(item atlas.Item, location orb.Point) (SnappedItem, error) {
	var d float64
	switch it := item.(type) {
	case *atlas.Node:
		d = geo.DistanceHaversine(location, it.Location())
	case *atlas.Point:
		d = geo.DistanceHaversine(location, it.Location())
	case *atlas.Edge:
		d = distanceToLineString(location, it.PolyLine())
	case *atlas.Line:
		d = distanceToLineString(location, it.PolyLine())
	case *atlas.Area:
		d = distanceToLineString(location, orb.LineString(it.Closed()))
	default:
		return SnappedItem{}, &UnrecognizedTypeError{Type: fmt.Sprintf("%T", item)}
	}
	return SnappedItem{Item: item, Distance: d}, nil
}

// IsPunctual reports whether the item is a node or a point.
func (s SnappedItem) IsPunctual() bool {
	t := s.Item.Type()
	return t == atlas.ItemTypeNode || t == atlas.ItemTypePoint
}

// Resolver ranks the atlas items near a location.
type Resolver struct {
	atlas atlas.Atlas
	opts  Options
}

// NewResolver creates a resolver over a.
func NewResolver(a atlas.Atlas, opts Options) *Resolver {
	return &Resolver{atlas: a, opts: opts}
}

// Options returns the resolver options.
func (r *Resolver) Options() Options { return r.opts }

// Compare orders a before b (-1), after b (1) or as equal (0).
//
// When exactly one of them is a node or point closer than the point
// prevalence distance, that one comes first. Otherwise the closer one
// comes first.
func (r *Resolver) Compare(a, b SnappedItem) int {
	if a.IsPunctual() != b.IsPunctual() {
		if b.IsPunctual() && b.Distance < r.opts.PointPrevalence {
			return 1
		}
		if a.IsPunctual() && a.Distance < r.opts.PointPrevalence {
			return -1
		}
	}
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance == b.Distance:
		return 0
	default:
		return 1
	}
}

// Resolve returns the items intersecting the click box around location,
// best first. Items comparing equal keep the atlas order.
func (r *Resolver) Resolve(location orb.Point) ([]SnappedItem, error) {
	if r.atlas == nil {
		return nil, nil
	}
	box := geo.NewBoundAroundPoint(location, r.opts.ClickRadius)

	items := r.atlas.ItemsIntersecting(box)
	snapped := make([]SnappedItem, 0, len(items))
	for _, item := range items {
		s, err := NewSnappedItem(item, location)
		if err != nil {
			return nil, err
		}
		snapped = append(snapped, s)
	}
	sort.SliceStable(snapped, func(i, j int) bool {
		return r.Compare(snapped[i], snapped[j]) < 0
	})
	return snapped, nil
}

// Nearest returns the best item near location, or nil.
func (r *Resolver) Nearest(location orb.Point) (atlas.Item, error) {
	snapped, err := r.Resolve(location)
	if err != nil || len(snapped) == 0 {
		return nil, err
	}
	return snapped[0].Item, nil
}

// distanceToLineString returns the distance in meters from p to ls. The
// vertices are projected on a plane tangent at p, which is accurate at the
// scale of a click radius.
func distanceToLineString(p orb.Point, ls orb.LineString) float64 {
	switch len(ls) {
	case 0:
		return math.Inf(1)
	case 1:
		return geo.DistanceHaversine(p, ls[0])
	}

	origin := orb.Point{0, 0}
	best := math.Inf(1)
	prev := project(p, ls[0])
	for _, v := range ls[1:] {
		cur := project(p, v)
		if d := planar.DistanceFromSegment(prev, cur, origin); d < best {
			best = d
		}
		prev = cur
	}
	return best
}

// project maps v to meters east and north of origin.
func project(origin, v orb.Point) orb.Point {
	const radians = math.Pi / 180
	x := (v.Lon() - origin.Lon()) * radians * math.Cos(origin.Lat()*radians) * orb.EarthRadius
	y := (v.Lat() - origin.Lat()) * radians * orb.EarthRadius
	return orb.Point{x, y}
}

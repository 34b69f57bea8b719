package atlas

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// intersects reports whether the item geometry intersects bound.
func intersects(item Item, bound orb.Bound) bool {
	if !item.Bound().Intersects(bound) {
		return false
	}
	switch it := item.(type) {
	case *Node:
		return bound.Contains(it.location)
	case *Point:
		return bound.Contains(it.location)
	case *Edge:
		return polylineIntersects(it.polyline, bound)
	case *Line:
		return polylineIntersects(it.polyline, bound)
	case *Area:
		return ringIntersects(it.Closed(), bound)
	default:
		return true
	}
}

func polylineIntersects(ls orb.LineString, bound orb.Bound) bool {
	if len(ls) == 1 {
		return bound.Contains(ls[0])
	}
	return len(clip.LineString(bound, ls)) > 0
}

// ringIntersects reports whether the area enclosed by r intersects bound:
// either the boundary crosses bound or bound lies inside the ring.
func ringIntersects(r orb.Ring, bound orb.Bound) bool {
	if polylineIntersects(orb.LineString(r), bound) {
		return true
	}
	return planar.RingContains(r, bound.Center())
}

package data

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// Punctual is a node-like primitive: an atlas node, an atlas point or a
// synthesized shape point.
type Punctual struct {
	primitive
	location orb.Point
}

// NewPunctual creates a punctual without identifier. Use SetOsmID to give
// it one; a punctual added to a data set without identifier receives the
// next negative shape point identifier of that data set.
func NewPunctual(kind Kind, location orb.Point, tags map[string]string) *Punctual {
	if kind.Class() != ClassPunctual {
		panic(fmt.Sprintf("data: %s is not a punctual kind", kind))
	}
	n := &Punctual{primitive: newPrimitive(kind, tags), location: location}
	n.self = n
	return n
}

func (n *Punctual) Location() orb.Point { return n.location }
func (n *Punctual) Lon() float64        { return n.location.Lon() }
func (n *Punctual) Lat() float64        { return n.location.Lat() }
func (n *Punctual) BBox() orb.Bound     { return n.location.Bound() }
func (n *Punctual) Accept(v Visitor)    { v.VisitPunctual(n) }

// SetCoor always fails.
func (n *Punctual) SetCoor(orb.Point) error { return ErrUnsupported }

// IsReferredByWays reports whether at least count linears of the same data
// set use this punctual.
func (n *Punctual) IsReferredByWays(count int) bool {
	return n.isReferredByWays(count)
}

func (n *Punctual) updatePosition() {}

func (n *Punctual) addToBBox(box *bbox, _ map[Primitive]bool) {
	box.addPoint(n.location)
}

func (n *Punctual) ToHost(ds *host.DataSet) (host.Primitive, error) {
	if existing := ds.PrimitiveByID(n.PrimitiveID()); existing != nil {
		return existing, nil
	}
	node := &host.Node{Node: osm.Node{
		ID:      osm.NodeID(n.id),
		Lat:     n.location.Lat(),
		Lon:     n.location.Lon(),
		Visible: true,
		Version: 1,
		Tags:    n.hostTags(),
	}}
	if err := ds.AddPrimitive(node); err != nil {
		return nil, err
	}
	return node, nil
}

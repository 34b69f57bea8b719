package data

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// Linear is a way-like primitive: an atlas edge, line or area.
type Linear struct {
	primitive
	nodes []*Punctual
	bbox  *bbox
}

// NewLinear creates a linear over nodes and registers it as a referrer of
// each node.
func NewLinear(kind Kind, nodes []*Punctual, tags map[string]string) *Linear {
	if kind.Class() != ClassLinear {
		panic(fmt.Sprintf("data: %s is not a linear kind", kind))
	}
	l := &Linear{primitive: newPrimitive(kind, tags)}
	l.self = l
	l.setNodes(nodes)
	return l
}

func (l *Linear) setNodes(nodes []*Punctual) {
	l.nodes = make([]*Punctual, len(nodes))
	copy(l.nodes, nodes)
	for _, n := range l.nodes {
		n.referrers.add(l)
		n.ClearCachedStyle()
	}
	l.bbox = nil
	l.ClearCachedStyle()
}

func (l *Linear) Accept(v Visitor)     { v.VisitLinear(l) }
func (l *Linear) NodesCount() int      { return len(l.nodes) }
func (l *Linear) Node(i int) *Punctual { return l.nodes[i] }
func (l *Linear) NodeID(i int) int64   { return l.nodes[i].UniqueID() }

// Nodes returns a copy of the node list.
func (l *Linear) Nodes() []*Punctual {
	out := make([]*Punctual, len(l.nodes))
	copy(out, l.nodes)
	return out
}

// NodeIDs returns the editor identifiers of the nodes, 0 for shape points.
func (l *Linear) NodeIDs() []int64 {
	ids := make([]int64, len(l.nodes))
	for i, n := range l.nodes {
		ids[i] = n.ID()
	}
	return ids
}

// FirstNode returns the first node, or nil for an empty linear.
func (l *Linear) FirstNode() *Punctual {
	if len(l.nodes) == 0 {
		return nil
	}
	return l.nodes[0]
}

// LastNode returns the last node, or nil for an empty linear.
func (l *Linear) LastNode() *Punctual {
	if len(l.nodes) == 0 {
		return nil
	}
	return l.nodes[len(l.nodes)-1]
}

// IsClosed reports whether the linear has at least three nodes and starts
// and ends on the same punctual.
func (l *Linear) IsClosed() bool {
	return len(l.nodes) >= 3 && l.nodes[0] == l.nodes[len(l.nodes)-1]
}

func (l *Linear) IsFirstLastNode(n *Punctual) bool {
	if len(l.nodes) == 0 {
		return false
	}
	return n == l.nodes[0] || n == l.nodes[len(l.nodes)-1]
}

// IsInnerNode reports whether n is used between the first and last node.
// Every node of a closed linear is an inner node.
func (l *Linear) IsInnerNode(n *Punctual) bool {
	if len(l.nodes) <= 2 {
		return false
	}
	if n == l.nodes[0] && n == l.nodes[len(l.nodes)-1] {
		return true
	}
	for _, inner := range l.nodes[1 : len(l.nodes)-1] {
		if inner == n {
			return true
		}
	}
	return false
}

// BBox returns the tight bound of the node locations.
func (l *Linear) BBox() orb.Bound {
	if l.bbox == nil {
		l.updatePosition()
	}
	return l.bbox.bound
}

func (l *Linear) updatePosition() {
	box := &bbox{}
	for _, n := range l.nodes {
		box.addPoint(n.location)
	}
	l.bbox = box
	l.ClearCachedStyle()
}

func (l *Linear) addToBBox(box *bbox, _ map[Primitive]bool) {
	if len(l.nodes) > 0 {
		box.addBound(l.BBox())
	}
}

// LineString returns the node locations.
func (l *Linear) LineString() orb.LineString {
	ls := make(orb.LineString, len(l.nodes))
	for i, n := range l.nodes {
		ls[i] = n.location
	}
	return ls
}

func (l *Linear) ToHost(ds *host.DataSet) (host.Primitive, error) {
	if existing := ds.PrimitiveByID(l.PrimitiveID()); existing != nil {
		return existing, nil
	}
	way := &host.Way{Way: osm.Way{
		ID:      osm.WayID(l.id),
		Visible: true,
		Version: 1,
		Tags:    l.hostTags(),
	}}
	for _, n := range l.nodes {
		if _, err := n.ToHost(ds); err != nil {
			return nil, err
		}
		way.Nodes = append(way.Nodes, osm.WayNode{ID: osm.NodeID(n.id), Lat: n.Lat(), Lon: n.Lon()})
	}
	if err := ds.AddPrimitive(way); err != nil {
		return nil, err
	}
	return way, nil
}

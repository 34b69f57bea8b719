// Package host models the editor the atlas primitives are projected into.
//
// The editor works with mutable OpenStreetMap primitives (nodes, ways and
// relations from github.com/paulmach/osm) collected in a DataSet, and
// broadcasts selection changes as SelectionChangeEvents that are bound to
// such a DataSet. The map view, mouse listeners and progress reporting are
// expressed as small interfaces so the read-only atlas data set and view
// coordinator can be driven headless.
package host

import (
	"fmt"

	"github.com/paulmach/osm"
)

// PrimitiveID identifies a primitive in the editor identifier spaces.
// Nodes, ways and relations each have their own space.
type PrimitiveID struct {
	Type osm.Type
	ID   int64
}

// NodeID returns the identifier of a node.
func NodeID(id int64) PrimitiveID { return PrimitiveID{Type: osm.TypeNode, ID: id} }

// WayID returns the identifier of a way.
func WayID(id int64) PrimitiveID { return PrimitiveID{Type: osm.TypeWay, ID: id} }

// RelationID returns the identifier of a relation.
func RelationID(id int64) PrimitiveID { return PrimitiveID{Type: osm.TypeRelation, ID: id} }

// String returns the identifier as "node 12".
func (id PrimitiveID) String() string {
	return fmt.Sprintf("%s %d", id.Type, id.ID)
}

// IsNew reports whether the primitive has never been uploaded. New
// primitives carry non-positive identifiers.
func (id PrimitiveID) IsNew() bool {
	return id.ID <= 0
}

// Primitive is a mutable editor primitive.
type Primitive interface {
	PrimitiveID() PrimitiveID
	// Get returns the tag value for key, or "" when absent.
	Get(key string) string
	// Keys returns the tags of the primitive.
	Keys() osm.Tags
}

// Node is an editor node.
type Node struct {
	osm.Node
}

// Way is an editor way.
type Way struct {
	osm.Way
}

// Relation is an editor relation.
type Relation struct {
	osm.Relation
}

func (n *Node) PrimitiveID() PrimitiveID { return NodeID(int64(n.ID)) }
func (n *Node) Get(key string) string    { return n.Tags.Find(key) }
func (n *Node) Keys() osm.Tags           { return n.Tags }

func (w *Way) PrimitiveID() PrimitiveID { return WayID(int64(w.ID)) }
func (w *Way) Get(key string) string    { return w.Tags.Find(key) }
func (w *Way) Keys() osm.Tags           { return w.Tags }

func (r *Relation) PrimitiveID() PrimitiveID { return RelationID(int64(r.ID)) }
func (r *Relation) Get(key string) string    { return r.Tags.Find(key) }
func (r *Relation) Keys() osm.Tags           { return r.Tags }

// WaySegment is the segment of a way starting at node LowerIndex.
type WaySegment struct {
	Way        PrimitiveID
	LowerIndex int
}

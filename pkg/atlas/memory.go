package atlas

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// MemoryAtlas is an Atlas held entirely in memory with an R-tree over its
// items for spatial queries.
type MemoryAtlas struct {
	name     string
	metaData MetaData

	nodes     []*Node
	points    []*Point
	edges     []*Edge
	lines     []*Line
	areas     []*Area
	relations []*Relation

	nodeByID     map[int64]*Node
	pointByID    map[int64]*Point
	edgeByID     map[int64]*Edge
	lineByID     map[int64]*Line
	areaByID     map[int64]*Area
	relationByID map[int64]*Relation

	rtree *rtreego.Rtree
	bound orb.Bound
}

func (a *MemoryAtlas) Name() string           { return a.name }
func (a *MemoryAtlas) MetaData() MetaData     { return a.metaData }
func (a *MemoryAtlas) Nodes() []*Node         { return a.nodes }
func (a *MemoryAtlas) Points() []*Point       { return a.points }
func (a *MemoryAtlas) Edges() []*Edge         { return a.edges }
func (a *MemoryAtlas) Lines() []*Line         { return a.lines }
func (a *MemoryAtlas) Areas() []*Area         { return a.areas }
func (a *MemoryAtlas) Relations() []*Relation { return a.relations }
func (a *MemoryAtlas) Bound() orb.Bound       { return a.bound }

func (a *MemoryAtlas) Node(id int64) *Node         { return a.nodeByID[id] }
func (a *MemoryAtlas) Point(id int64) *Point       { return a.pointByID[id] }
func (a *MemoryAtlas) Edge(id int64) *Edge         { return a.edgeByID[id] }
func (a *MemoryAtlas) Line(id int64) *Line         { return a.lineByID[id] }
func (a *MemoryAtlas) Area(id int64) *Area         { return a.areaByID[id] }
func (a *MemoryAtlas) Relation(id int64) *Relation { return a.relationByID[id] }

// Size returns the number of entities of every kind.
func (a *MemoryAtlas) Size() Size {
	return Size{
		Nodes:     len(a.nodes),
		Points:    len(a.points),
		Edges:     len(a.edges),
		Lines:     len(a.lines),
		Areas:     len(a.areas),
		Relations: len(a.relations),
	}
}

// ItemsIntersecting returns every item whose geometry intersects bound,
// ordered by type then identifier.
func (a *MemoryAtlas) ItemsIntersecting(bound orb.Bound) []Item {
	if a.rtree == nil {
		return nil
	}

	spatials := a.rtree.SearchIntersect(toRect(bound))

	result := make([]Item, 0, len(spatials))
	for _, spatial := range spatials {
		indexed := spatial.(*indexedItem)
		if intersects(indexed.item, bound) {
			result = append(result, indexed.item)
		}
	}
	sortItems(result)
	return result
}

// indexedItem wraps an item for R-tree storage.
type indexedItem struct {
	item  Item
	bound orb.Bound
}

// Bounds implements rtreego.Spatial interface.
func (i *indexedItem) Bounds() rtreego.Rect {
	return toRect(i.bound)
}

// toRect converts a bound to an R-tree rectangle. R-tree rectangles require
// non-zero dimensions, so degenerate sides get a small epsilon (~1 m at the
// equator).
func toRect(bound orb.Bound) rtreego.Rect {
	const epsilon = 0.00001

	point := rtreego.Point{bound.Min.Lon(), bound.Min.Lat()}
	lonLength := bound.Max.Lon() - bound.Min.Lon()
	latLength := bound.Max.Lat() - bound.Min.Lat()
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}

	rect, _ := rtreego.NewRect(point, []float64{lonLength, latLength})
	return rect
}

// RelationMemberRef names a relation member before the referenced entity
// has been resolved.
type RelationMemberRef struct {
	Type       ItemType
	Identifier int64
	Role       string
}

type pendingRelation struct {
	relation *Relation
	members  []RelationMemberRef
}

// Builder accumulates entities and produces a MemoryAtlas.
//
// Entities may be added in any order; relation members are resolved when
// Build is called.
type Builder struct {
	atlas   *MemoryAtlas
	pending []pendingRelation
	errs    []error
}

// NewBuilder creates a builder for an atlas with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		atlas: &MemoryAtlas{
			name:         name,
			nodeByID:     make(map[int64]*Node),
			pointByID:    make(map[int64]*Point),
			edgeByID:     make(map[int64]*Edge),
			lineByID:     make(map[int64]*Line),
			areaByID:     make(map[int64]*Area),
			relationByID: make(map[int64]*Relation),
		},
	}
}

// SetMetaData sets the atlas metadata.
func (b *Builder) SetMetaData(meta MetaData) *Builder {
	b.atlas.metaData = meta
	return b
}

func (b *Builder) duplicate(t ItemType, id int64) {
	b.errs = append(b.errs, &DuplicateEntityError{Type: t, Identifier: id})
}

// AddNode adds a node.
func (b *Builder) AddNode(id int64, location orb.Point, tags map[string]string) *Node {
	if _, ok := b.atlas.nodeByID[id]; ok {
		b.duplicate(ItemTypeNode, id)
		return nil
	}
	n := &Node{entity: newEntity(id, tags), location: location}
	b.atlas.nodes = append(b.atlas.nodes, n)
	b.atlas.nodeByID[id] = n
	return n
}

// AddPoint adds a point.
func (b *Builder) AddPoint(id int64, location orb.Point, tags map[string]string) *Point {
	if _, ok := b.atlas.pointByID[id]; ok {
		b.duplicate(ItemTypePoint, id)
		return nil
	}
	p := &Point{entity: newEntity(id, tags), location: location}
	b.atlas.points = append(b.atlas.points, p)
	b.atlas.pointByID[id] = p
	return p
}

// AddEdge adds an edge. The polyline must have at least two locations.
func (b *Builder) AddEdge(id int64, polyline orb.LineString, tags map[string]string) *Edge {
	if _, ok := b.atlas.edgeByID[id]; ok {
		b.duplicate(ItemTypeEdge, id)
		return nil
	}
	if len(polyline) < 2 {
		b.errs = append(b.errs, &InvalidGeometryError{Type: ItemTypeEdge, Identifier: id, Reason: "polyline needs at least 2 locations"})
		return nil
	}
	e := &Edge{entity: newEntity(id, tags), polyline: clone(polyline)}
	b.atlas.edges = append(b.atlas.edges, e)
	b.atlas.edgeByID[id] = e
	return e
}

// AddLine adds a line. The polyline must have at least two locations.
func (b *Builder) AddLine(id int64, polyline orb.LineString, tags map[string]string) *Line {
	if _, ok := b.atlas.lineByID[id]; ok {
		b.duplicate(ItemTypeLine, id)
		return nil
	}
	if len(polyline) < 2 {
		b.errs = append(b.errs, &InvalidGeometryError{Type: ItemTypeLine, Identifier: id, Reason: "polyline needs at least 2 locations"})
		return nil
	}
	l := &Line{entity: newEntity(id, tags), polyline: clone(polyline)}
	b.atlas.lines = append(b.atlas.lines, l)
	b.atlas.lineByID[id] = l
	return l
}

// AddArea adds an area. A closing vertex equal to the first one is dropped;
// at least three distinct vertices must remain.
func (b *Builder) AddArea(id int64, polygon orb.Ring, tags map[string]string) *Area {
	if _, ok := b.atlas.areaByID[id]; ok {
		b.duplicate(ItemTypeArea, id)
		return nil
	}
	ring := orb.Ring(clone(orb.LineString(polygon)))
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		b.errs = append(b.errs, &InvalidGeometryError{Type: ItemTypeArea, Identifier: id, Reason: "polygon needs at least 3 vertices"})
		return nil
	}
	a := &Area{entity: newEntity(id, tags), polygon: ring}
	b.atlas.areas = append(b.atlas.areas, a)
	b.atlas.areaByID[id] = a
	return a
}

// AddRelation adds a relation whose members are resolved at Build time.
func (b *Builder) AddRelation(id int64, tags map[string]string, members ...RelationMemberRef) *Relation {
	if _, ok := b.atlas.relationByID[id]; ok {
		b.duplicate(ItemTypeRelation, id)
		return nil
	}
	r := &Relation{entity: newEntity(id, tags)}
	b.atlas.relations = append(b.atlas.relations, r)
	b.atlas.relationByID[id] = r
	b.pending = append(b.pending, pendingRelation{relation: r, members: members})
	return r
}

// lookup returns the entity of the given type and identifier.
func (a *MemoryAtlas) lookup(t ItemType, id int64) Entity {
	var e Entity
	switch t {
	case ItemTypeNode:
		if n := a.nodeByID[id]; n != nil {
			e = n
		}
	case ItemTypePoint:
		if p := a.pointByID[id]; p != nil {
			e = p
		}
	case ItemTypeEdge:
		if ed := a.edgeByID[id]; ed != nil {
			e = ed
		}
	case ItemTypeLine:
		if l := a.lineByID[id]; l != nil {
			e = l
		}
	case ItemTypeArea:
		if ar := a.areaByID[id]; ar != nil {
			e = ar
		}
	case ItemTypeRelation:
		if r := a.relationByID[id]; r != nil {
			e = r
		}
	}
	return e
}

// Build resolves relation members, links edge directions and builds the
// spatial index. The first accumulated error is returned, if any.
func (b *Builder) Build() (*MemoryAtlas, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	a := b.atlas

	for _, p := range b.pending {
		for _, ref := range p.members {
			member := a.lookup(ref.Type, ref.Identifier)
			if member == nil {
				return nil, &MissingMemberError{Relation: p.relation.id, Type: ref.Type, Identifier: ref.Identifier}
			}
			p.relation.members = append(p.relation.members, Member{Role: ref.Role, Entity: member})
			backReference(member, p.relation)
		}
	}

	for _, e := range a.edges {
		e.reverse = a.edgeByID[-e.id] != nil
	}

	a.buildSpatialIndex()
	return a, nil
}

func backReference(member Entity, r *Relation) {
	switch m := member.(type) {
	case *Node:
		m.addRelation(r)
	case *Point:
		m.addRelation(r)
	case *Edge:
		m.addRelation(r)
	case *Line:
		m.addRelation(r)
	case *Area:
		m.addRelation(r)
	case *Relation:
		m.addRelation(r)
	}
}

// buildSpatialIndex creates the R-tree over all items and the atlas bound.
func (a *MemoryAtlas) buildSpatialIndex() {
	// Create R-tree (2D, min=25 children, max=50 children)
	rtree := rtreego.NewTree(2, 25, 50)

	var (
		bound orb.Bound
		found bool
	)
	insert := func(item Item) {
		b := item.Bound()
		rtree.Insert(&indexedItem{item: item, bound: b})
		if !found {
			bound, found = b, true
		} else {
			bound = bound.Union(b)
		}
	}

	for _, n := range a.nodes {
		insert(n)
	}
	for _, p := range a.points {
		insert(p)
	}
	for _, e := range a.edges {
		insert(e)
	}
	for _, l := range a.lines {
		insert(l)
	}
	for _, ar := range a.areas {
		insert(ar)
	}

	a.rtree = rtree
	a.bound = bound
}

// Merge combines several atlases into one. Entities present in more than one
// input (shards overlap at their borders) are kept once, first one wins.
func Merge(name string, atlases ...*MemoryAtlas) (*MemoryAtlas, error) {
	b := NewBuilder(name)
	if len(atlases) > 0 {
		b.SetMetaData(atlases[0].metaData)
	}
	for _, in := range atlases {
		for _, n := range in.nodes {
			if b.atlas.nodeByID[n.id] == nil {
				b.AddNode(n.id, n.location, n.tags)
			}
		}
		for _, p := range in.points {
			if b.atlas.pointByID[p.id] == nil {
				b.AddPoint(p.id, p.location, p.tags)
			}
		}
		for _, e := range in.edges {
			if b.atlas.edgeByID[e.id] == nil {
				b.AddEdge(e.id, e.polyline, e.tags)
			}
		}
		for _, l := range in.lines {
			if b.atlas.lineByID[l.id] == nil {
				b.AddLine(l.id, l.polyline, l.tags)
			}
		}
		for _, ar := range in.areas {
			if b.atlas.areaByID[ar.id] == nil {
				b.AddArea(ar.id, ar.polygon, ar.tags)
			}
		}
		for _, r := range in.relations {
			if b.atlas.relationByID[r.id] != nil {
				continue
			}
			refs := make([]RelationMemberRef, 0, len(r.members))
			for _, m := range r.members {
				refs = append(refs, RelationMemberRef{Type: m.Entity.Type(), Identifier: m.Entity.Identifier(), Role: m.Role})
			}
			b.AddRelation(r.id, r.tags, refs...)
		}
	}
	merged, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("merge %s: %w", name, err)
	}
	return merged, nil
}

func clone(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	copy(out, ls)
	return out
}

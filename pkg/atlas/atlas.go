// Package atlas provides the in-memory Atlas model consumed by the reader.
//
// An Atlas is an immutable geographic dataset made of six entity kinds:
// nodes and points (located at a single position), edges and lines
// (polylines), areas (polygons) and relations (ordered, role-tagged groups of
// other entities). Coordinates follow the GeoJSON convention used by orb:
// orb.Point{longitude, latitude} in WGS-84 decimal degrees.
//
// # Basic Usage
//
//	b := atlas.NewBuilder("sample")
//	b.AddNode(1, orb.Point{12.34, 45.67}, map[string]string{"highway": "stop"})
//	b.AddNode(2, orb.Point{12.35, 45.67}, nil)
//	b.AddEdge(7, orb.LineString{{12.34, 45.67}, {12.35, 45.67}}, nil)
//	a, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	items := a.ItemsIntersecting(a.Bound())
//
// Atlases can also be loaded from files with Loader, see LoadFile.
package atlas

import (
	"sort"

	"github.com/paulmach/orb"
)

// ItemType identifies the kind of an Atlas entity.
type ItemType int

const (
	// ItemTypeNode is a topological node at the end of edges.
	ItemTypeNode ItemType = iota

	// ItemTypePoint is a stand-alone located feature.
	ItemTypePoint

	// ItemTypeEdge is a navigable, directed polyline between two nodes.
	ItemTypeEdge

	// ItemTypeLine is a non-navigable polyline.
	ItemTypeLine

	// ItemTypeArea is a polygon.
	ItemTypeArea

	// ItemTypeRelation groups other entities.
	ItemTypeRelation
)

// String returns the lower-case name of the item type.
func (t ItemType) String() string {
	switch t {
	case ItemTypeNode:
		return "node"
	case ItemTypePoint:
		return "point"
	case ItemTypeEdge:
		return "edge"
	case ItemTypeLine:
		return "line"
	case ItemTypeArea:
		return "area"
	case ItemTypeRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// IsLocation reports whether entities of this type sit at a single location.
func (t ItemType) IsLocation() bool {
	return t == ItemTypeNode || t == ItemTypePoint
}

// ParseItemType converts a name produced by ItemType.String back to an ItemType.
func ParseItemType(name string) (ItemType, bool) {
	for t := ItemTypeNode; t <= ItemTypeRelation; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// Entity is any Atlas entity.
type Entity interface {
	// Identifier returns the Atlas identifier. Edges use the sign to encode
	// direction; other entities are normally positive.
	Identifier() int64

	// Type returns the entity kind.
	Type() ItemType

	// Tags returns the entity tags. Callers must not modify the map.
	Tags() map[string]string

	// Tag returns a single tag value.
	Tag(key string) (string, bool)

	// Relations returns the relations this entity is a member of.
	Relations() []*Relation

	// Bound returns the bounding box of the entity geometry.
	Bound() orb.Bound
}

// Item is an entity with its own geometry (everything but relations).
type Item interface {
	Entity

	// Geometry returns the orb geometry of the item: orb.Point for nodes and
	// points, orb.LineString for edges and lines, orb.Ring for areas.
	Geometry() orb.Geometry
}

// Atlas is a read-only Atlas dataset.
type Atlas interface {
	Name() string
	MetaData() MetaData

	Nodes() []*Node
	Points() []*Point
	Edges() []*Edge
	Lines() []*Line
	Areas() []*Area
	Relations() []*Relation

	Node(id int64) *Node
	Point(id int64) *Point
	Edge(id int64) *Edge
	Line(id int64) *Line
	Area(id int64) *Area
	Relation(id int64) *Relation

	// ItemsIntersecting returns every item whose geometry intersects bound.
	ItemsIntersecting(bound orb.Bound) []Item

	// Bound returns the union of all item bounds.
	Bound() orb.Bound
}

// entity holds the state shared by every entity kind.
type entity struct {
	id        int64
	tags      map[string]string
	relations []*Relation
}

func newEntity(id int64, tags map[string]string) entity {
	copied := make(map[string]string, len(tags))
	for k, v := range tags {
		copied[k] = v
	}
	return entity{id: id, tags: copied}
}

func (e *entity) Identifier() int64       { return e.id }
func (e *entity) Tags() map[string]string { return e.tags }
func (e *entity) Relations() []*Relation  { return e.relations }

func (e *entity) Tag(key string) (string, bool) {
	v, ok := e.tags[key]
	return v, ok
}

func (e *entity) addRelation(r *Relation) {
	for _, existing := range e.relations {
		if existing == r {
			return
		}
	}
	e.relations = append(e.relations, r)
}

// Node is a topological node.
type Node struct {
	entity
	location orb.Point
}

func (n *Node) Type() ItemType         { return ItemTypeNode }
func (n *Node) Location() orb.Point    { return n.location }
func (n *Node) Bound() orb.Bound       { return n.location.Bound() }
func (n *Node) Geometry() orb.Geometry { return n.location }

// Point is a stand-alone located feature.
type Point struct {
	entity
	location orb.Point
}

func (p *Point) Type() ItemType         { return ItemTypePoint }
func (p *Point) Location() orb.Point    { return p.location }
func (p *Point) Bound() orb.Bound       { return p.location.Bound() }
func (p *Point) Geometry() orb.Geometry { return p.location }

// Edge is a directed navigable polyline. Two-way roads are stored as a pair
// of edges with opposite identifiers.
type Edge struct {
	entity
	polyline orb.LineString
	reverse  bool
}

func (e *Edge) Type() ItemType           { return ItemTypeEdge }
func (e *Edge) PolyLine() orb.LineString { return e.polyline }
func (e *Edge) Bound() orb.Bound         { return e.polyline.Bound() }
func (e *Edge) Geometry() orb.Geometry   { return e.polyline }
func (e *Edge) HasReverse() bool         { return e.reverse }
func (e *Edge) Start() orb.Point         { return e.polyline[0] }
func (e *Edge) End() orb.Point           { return e.polyline[len(e.polyline)-1] }
func (e *Edge) IsMainDirection() bool    { return e.id > 0 }

// Line is a non-navigable polyline.
type Line struct {
	entity
	polyline orb.LineString
}

func (l *Line) Type() ItemType           { return ItemTypeLine }
func (l *Line) PolyLine() orb.LineString { return l.polyline }
func (l *Line) Bound() orb.Bound         { return l.polyline.Bound() }
func (l *Line) Geometry() orb.Geometry   { return l.polyline }

// Area is a polygon. The ring is stored open: the first vertex is not
// repeated at the end.
type Area struct {
	entity
	polygon orb.Ring
}

func (a *Area) Type() ItemType         { return ItemTypeArea }
func (a *Area) Polygon() orb.Ring      { return a.polygon }
func (a *Area) Bound() orb.Bound       { return a.polygon.Bound() }
func (a *Area) Geometry() orb.Geometry { return a.polygon }

// Closed returns the polygon ring with the first vertex appended.
func (a *Area) Closed() orb.Ring {
	if len(a.polygon) == 0 || a.polygon[0] == a.polygon[len(a.polygon)-1] {
		return a.polygon
	}
	ring := make(orb.Ring, 0, len(a.polygon)+1)
	ring = append(ring, a.polygon...)
	return append(ring, a.polygon[0])
}

// Member is a role-tagged relation member.
type Member struct {
	Role   string
	Entity Entity
}

// Relation groups other entities, possibly other relations.
type Relation struct {
	entity
	members []Member
}

func (r *Relation) Type() ItemType    { return ItemTypeRelation }
func (r *Relation) Members() []Member { return r.members }

// Bound returns the union of the member bounds. Relations reachable more
// than once, including the relation itself, are visited only once.
func (r *Relation) Bound() orb.Bound {
	var (
		bound orb.Bound
		found bool
	)
	visited := map[*Relation]bool{r: true}
	var walk func(rel *Relation)
	walk = func(rel *Relation) {
		for _, m := range rel.members {
			if nested, ok := m.Entity.(*Relation); ok {
				if visited[nested] {
					continue
				}
				visited[nested] = true
				walk(nested)
				continue
			}
			b := m.Entity.Bound()
			if !found {
				bound, found = b, true
			} else {
				bound = bound.Union(b)
			}
		}
	}
	walk(r)
	return bound
}

// sortItems orders items by type then identifier so spatial query results are
// deterministic regardless of R-tree layout.
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Type() != items[j].Type() {
			return items[i].Type() < items[j].Type()
		}
		return items[i].Identifier() < items[j].Identifier()
	})
}

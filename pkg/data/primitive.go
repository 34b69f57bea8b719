// Package data projects an atlas into read-only editor primitives.
//
// Atlas nodes and points become Punctuals, edges, lines and areas become
// Linears and relations become Relations. Primitives are collected in a
// DataSet which indexes them by identifier and location and keeps the
// selection state. The DataSet is permanently locked: every tag, coordinate
// or flag setter returns ErrUnsupported.
//
// A Builder converts an atlas into a DataSet:
//
//	ds := data.NewBuilder().Build(a, host.NopProgress{})
//	for _, p := range ds.SearchNodes(bound) {
//	    fmt.Println(p.PrimitiveID(), p.Get("highway"))
//	}
package data

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// AtlasIDKey is the tag stamped on host primitives materialized from atlas
// primitives. Its value is the decimal unique identifier.
const AtlasIDKey = "atlas_id"

// Class is the primitive variant.
type Class int

const (
	ClassPunctual Class = iota
	ClassLinear
	ClassRelation
)

func (c Class) String() string {
	switch c {
	case ClassPunctual:
		return "punctual"
	case ClassLinear:
		return "linear"
	case ClassRelation:
		return "relation"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Kind is the atlas origin of a primitive.
type Kind int

const (
	KindNode Kind = iota
	KindPoint
	// KindShapePoint is a synthesized punctual realizing a polyline or
	// polygon vertex with no atlas node or point.
	KindShapePoint
	KindEdge
	KindLine
	KindArea
	KindRelation
)

var kindNames = map[Kind]string{
	KindNode:       "node",
	KindPoint:      "point",
	KindShapePoint: "shape point",
	KindEdge:       "edge",
	KindLine:       "line",
	KindArea:       "area",
	KindRelation:   "relation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Class returns the variant primitives of this kind belong to.
func (k Kind) Class() Class {
	switch k {
	case KindEdge, KindLine, KindArea:
		return ClassLinear
	case KindRelation:
		return ClassRelation
	default:
		return ClassPunctual
	}
}

// Visitor dispatches on the primitive variant.
type Visitor interface {
	VisitPunctual(p *Punctual)
	VisitLinear(l *Linear)
	VisitRelation(r *Relation)
}

// Primitive is a read-only editor primitive backed by an atlas entity.
//
// The variant set is closed: every Primitive is a *Punctual, a *Linear or
// a *Relation.
type Primitive interface {
	// UniqueID is the identifier, negative for synthesized primitives.
	UniqueID() int64
	// ID is the editor identifier: UniqueID when positive, else 0.
	ID() int64
	PrimitiveID() host.PrimitiveID
	Type() osm.Type
	Class() Class
	Kind() Kind

	Tags() osm.Tags
	Get(key string) string
	HasKey(key string) bool
	HasValue(value string) bool
	Keys() []string
	NumKeys() int
	HasKeys() bool
	IsTagged() bool
	InterestingTags() map[string]string

	Put(key, value string) error
	Remove(key string) error
	SetKeys(tags map[string]string) error
	RemoveAll() error

	IsLocked() bool
	IsModified() bool
	IsVisible() bool
	IsDeleted() bool
	IsNew() bool
	IsIncomplete() bool
	Version() int
	Timestamp() time.Time
	SetVisible(bool) error
	SetModified(bool) error
	SetDeleted(bool) error
	SetTimestamp(time.Time) error
	SetUser(name string, id osm.UserID) error
	SetChangesetID(id osm.ChangesetID) error
	SetOsmID(id int64) error

	BBox() orb.Bound
	DataSet() *DataSet
	Accept(v Visitor)
	// ToHost returns the equivalent host primitive in ds, creating it on
	// first use.
	ToHost(ds *host.DataSet) (host.Primitive, error)

	Referrers() []Primitive
	IsMemberOfSelected() bool
	IsSelected() bool
	IsHighlighted() bool
	SetHighlighted(bool)

	CachedStyle() any
	SetCachedStyle(style any)
	ClearCachedStyle()
	IsCachedStyleUpToDate() bool
	DeclareCachedStyleUpToDate()

	core() *primitive
	updatePosition()
	addToBBox(box *bbox, visited map[Primitive]bool)
}

// primitive holds the state shared by all variants.
type primitive struct {
	self    Primitive
	id      int64
	idSet   bool
	kind    Kind
	tags    osm.Tags
	dataSet *DataSet

	referrers   referrers
	highlighted bool

	style    any
	styleIdx uint16
}

func newPrimitive(kind Kind, tags map[string]string) primitive {
	t := make(osm.Tags, 0, len(tags))
	for k, v := range tags {
		t = append(t, osm.Tag{Key: k, Value: v})
	}
	sort.Slice(t, func(i, j int) bool { return t[i].Key < t[j].Key })
	return primitive{kind: kind, tags: t}
}

func (p *primitive) core() *primitive   { return p }
func (p *primitive) UniqueID() int64    { return p.id }
func (p *primitive) Kind() Kind         { return p.kind }
func (p *primitive) Class() Class       { return p.kind.Class() }
func (p *primitive) DataSet() *DataSet  { return p.dataSet }
func (p *primitive) IsLocked() bool     { return true }
func (p *primitive) IsModified() bool   { return false }
func (p *primitive) IsVisible() bool    { return true }
func (p *primitive) IsDeleted() bool    { return false }
func (p *primitive) IsNew() bool        { return false }
func (p *primitive) IsIncomplete() bool { return false }
func (p *primitive) Version() int       { return 1 }

// Timestamp is always the zero time; atlases carry no edit history.
func (p *primitive) Timestamp() time.Time { return time.Time{} }

func (p *primitive) ID() int64 {
	if p.id < 0 {
		return 0
	}
	return p.id
}

func (p *primitive) Type() osm.Type {
	switch p.kind.Class() {
	case ClassLinear:
		return osm.TypeWay
	case ClassRelation:
		return osm.TypeRelation
	default:
		return osm.TypeNode
	}
}

func (p *primitive) PrimitiveID() host.PrimitiveID {
	return host.PrimitiveID{Type: p.Type(), ID: p.id}
}

func (p *primitive) String() string {
	return fmt.Sprintf("%s %d (%s)", p.Type(), p.id, p.kind)
}

// Tags returns a copy of the tags sorted by key.
func (p *primitive) Tags() osm.Tags {
	out := make(osm.Tags, len(p.tags))
	copy(out, p.tags)
	return out
}

func (p *primitive) Get(key string) string {
	return p.tags.Find(key)
}

func (p *primitive) HasKey(key string) bool {
	return p.tags.HasTag(key)
}

// HasValue reports whether any tag has the given value.
func (p *primitive) HasValue(value string) bool {
	for _, t := range p.tags {
		if t.Value == value {
			return true
		}
	}
	return false
}

func (p *primitive) Keys() []string {
	keys := make([]string, len(p.tags))
	for i, t := range p.tags {
		keys[i] = t.Key
	}
	return keys
}

func (p *primitive) NumKeys() int   { return len(p.tags) }
func (p *primitive) HasKeys() bool  { return len(p.tags) > 0 }
func (p *primitive) IsTagged() bool { return len(p.tags) > 0 }

// uninterestingKeys are left out of InterestingTags.
var uninterestingKeys = map[string]bool{
	"source":       true,
	"source_ref":   true,
	"created_by":   true,
	"converted_by": true,
	"fixme":        true,
	"FIXME":        true,
	"note":         true,
	"comment":      true,
	"odbl":         true,
	"odbl:note":    true,
}

func (p *primitive) InterestingTags() map[string]string {
	out := make(map[string]string)
	for _, t := range p.tags {
		if !uninterestingKeys[t.Key] {
			out[t.Key] = t.Value
		}
	}
	return out
}

func (p *primitive) Put(string, string) error             { return ErrUnsupported }
func (p *primitive) Remove(string) error                  { return ErrUnsupported }
func (p *primitive) SetKeys(map[string]string) error      { return ErrUnsupported }
func (p *primitive) RemoveAll() error                     { return ErrUnsupported }
func (p *primitive) SetVisible(bool) error                { return ErrUnsupported }
func (p *primitive) SetModified(bool) error               { return ErrUnsupported }
func (p *primitive) SetDeleted(bool) error                { return ErrUnsupported }
func (p *primitive) SetTimestamp(time.Time) error         { return ErrUnsupported }
func (p *primitive) SetUser(string, osm.UserID) error     { return ErrUnsupported }
func (p *primitive) SetChangesetID(osm.ChangesetID) error { return ErrUnsupported }

// SetOsmID assigns the identifier. It may be called once, with a positive
// value, before the primitive is added to a data set.
func (p *primitive) SetOsmID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id > 0 expected, got %d", ErrInvalidID, id)
	}
	if p.idSet {
		return fmt.Errorf("%w: id already set to %d", ErrInvalidID, p.id)
	}
	if p.dataSet != nil {
		return fmt.Errorf("%w: primitive already in a data set", ErrInvalidID)
	}
	p.id = id
	p.idSet = true
	return nil
}

// Referrers returns the linears and relations referencing this primitive
// that belong to the same data set.
func (p *primitive) Referrers() []Primitive {
	var out []Primitive
	p.referrers.each(func(r Primitive) {
		if r.core().dataSet == p.dataSet {
			out = append(out, r)
		}
	})
	return out
}

// IsMemberOfSelected reports whether a selected relation references this
// primitive.
func (p *primitive) IsMemberOfSelected() bool {
	if p.dataSet == nil {
		return false
	}
	found := false
	p.referrers.each(func(r Primitive) {
		if !found && r.Class() == ClassRelation && r.core().dataSet == p.dataSet && p.dataSet.isSelected(r) {
			found = true
		}
	})
	return found
}

func (p *primitive) isReferredByWays(count int) bool {
	if count <= 0 {
		return false
	}
	n := 0
	found := false
	p.referrers.each(func(r Primitive) {
		if r.Class() == ClassLinear && r.core().dataSet == p.dataSet {
			n++
			if n >= count {
				found = true
			}
		}
	})
	return found
}

// IsSelected reports whether the primitive is selected in its data set.
func (p *primitive) IsSelected() bool {
	return p.dataSet != nil && p.dataSet.isSelected(p.self)
}

func (p *primitive) IsHighlighted() bool      { return p.highlighted }
func (p *primitive) SetHighlighted(on bool)   { p.highlighted = on }
func (p *primitive) CachedStyle() any         { return p.style }
func (p *primitive) SetCachedStyle(style any) { p.style = style }
func (p *primitive) ClearCachedStyle()        { p.style = nil }

// IsCachedStyleUpToDate reports whether the cached style was declared up to
// date for the current mappaint generation of the data set.
func (p *primitive) IsCachedStyleUpToDate() bool {
	return p.style != nil && p.dataSet != nil && p.styleIdx == p.dataSet.MappaintCacheIndex()
}

func (p *primitive) DeclareCachedStyleUpToDate() {
	if p.dataSet != nil {
		p.styleIdx = p.dataSet.MappaintCacheIndex()
	}
}

// hostTags returns the tags for a materialized host primitive. AtlasIDKey
// always carries the atlas identifier, replacing any source tag of that name.
func (p *primitive) hostTags() osm.Tags {
	id := osm.Tag{Key: AtlasIDKey, Value: strconv.FormatInt(p.id, 10)}
	tags := p.Tags()
	for i := range tags {
		if tags[i].Key == AtlasIDKey {
			tags[i] = id
			return tags
		}
	}
	return append(tags, id)
}

// bbox accumulates a bounding box.
type bbox struct {
	bound orb.Bound
	valid bool
}

func (b *bbox) addPoint(pt orb.Point) {
	if !b.valid {
		b.bound, b.valid = pt.Bound(), true
		return
	}
	b.bound = b.bound.Extend(pt)
}

func (b *bbox) addBound(o orb.Bound) {
	if !b.valid {
		b.bound, b.valid = o, true
		return
	}
	b.bound = b.bound.Union(o)
}

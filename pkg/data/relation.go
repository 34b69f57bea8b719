package data

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// RelationMember is a role-tagged reference to a primitive.
type RelationMember struct {
	Role   string
	Member Primitive
}

func (m RelationMember) Type() osm.Type   { return m.Member.Type() }
func (m RelationMember) UniqueID() int64  { return m.Member.UniqueID() }
func (m RelationMember) IsNew() bool      { return false }
func (m RelationMember) IsNode() bool     { return m.Member.Class() == ClassPunctual }
func (m RelationMember) IsWay() bool      { return m.Member.Class() == ClassLinear }
func (m RelationMember) IsRelation() bool { return m.Member.Class() == ClassRelation }

// ToHost materializes the member in ds and returns the host member.
func (m RelationMember) ToHost(ds *host.DataSet) (osm.Member, error) {
	if _, err := m.Member.ToHost(ds); err != nil {
		return osm.Member{}, err
	}
	member := osm.Member{Type: m.Type(), Ref: m.UniqueID(), Role: m.Role}
	if p, ok := m.Member.(*Punctual); ok {
		member.Lat, member.Lon = p.Lat(), p.Lon()
	}
	return member, nil
}

// Relation groups other primitives.
type Relation struct {
	primitive
	members []RelationMember
	bbox    *bbox
}

// NewRelation creates a relation and registers it as a referrer of every
// member.
func NewRelation(members []RelationMember, tags map[string]string) *Relation {
	r := &Relation{primitive: newPrimitive(KindRelation, tags)}
	r.self = r
	r.setMembers(members)
	return r
}

func (r *Relation) setMembers(members []RelationMember) {
	r.members = make([]RelationMember, len(members))
	copy(r.members, members)
	for _, m := range r.members {
		m.Member.core().referrers.add(r)
		m.Member.ClearCachedStyle()
	}
	r.bbox = nil
}

func (r *Relation) Accept(v Visitor)            { v.VisitRelation(r) }
func (r *Relation) MembersCount() int           { return len(r.members) }
func (r *Relation) Member(i int) RelationMember { return r.members[i] }
func (r *Relation) MemberID(i int) int64        { return r.members[i].UniqueID() }
func (r *Relation) Role(i int) string           { return r.members[i].Role }
func (r *Relation) MemberType(i int) osm.Type   { return r.members[i].Type() }

// Members returns a copy of the member list.
func (r *Relation) Members() []RelationMember {
	out := make([]RelationMember, len(r.members))
	copy(out, r.members)
	return out
}

// BBox returns the union of the bounds of all transitively reachable
// members. Every primitive is visited once, so relations containing
// themselves terminate. The result is cached once the relation belongs to
// a data set.
func (r *Relation) BBox() orb.Bound {
	if r.bbox != nil {
		return r.bbox.bound
	}
	box := r.computeBBox()
	if r.dataSet != nil {
		r.bbox = box
	}
	return box.bound
}

// HasGeometry reports whether any reachable member has a location.
func (r *Relation) HasGeometry() bool {
	if r.bbox != nil {
		return r.bbox.valid
	}
	return r.computeBBox().valid
}

func (r *Relation) computeBBox() *bbox {
	box := &bbox{}
	r.addToBBox(box, map[Primitive]bool{r: true})
	return box
}

func (r *Relation) addToBBox(box *bbox, visited map[Primitive]bool) {
	for _, m := range r.members {
		if visited[m.Member] {
			continue
		}
		visited[m.Member] = true
		m.Member.addToBBox(box, visited)
	}
}

func (r *Relation) updatePosition() {
	r.bbox = nil
	r.bbox = r.computeBBox()
}

// ToHost adds the host relation to ds before its members so that
// relations reachable from themselves are materialized once.
func (r *Relation) ToHost(ds *host.DataSet) (host.Primitive, error) {
	if existing := ds.PrimitiveByID(r.PrimitiveID()); existing != nil {
		return existing, nil
	}
	rel := &host.Relation{Relation: osm.Relation{
		ID:      osm.RelationID(r.id),
		Visible: true,
		Version: 1,
		Tags:    r.hostTags(),
	}}
	if err := ds.AddPrimitive(rel); err != nil {
		return nil, err
	}
	for _, m := range r.members {
		member, err := m.ToHost(ds)
		if err != nil {
			return nil, err
		}
		rel.Members = append(rel.Members, member)
	}
	return rel, nil
}

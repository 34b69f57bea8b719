package data

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// Synthetic tags added by the Builder.
const (
	LatLonKey      = "lat_lon"
	FirstLatLonKey = "first_lat_lon"
	TwoWayKey      = "is_two_way"
	RelationKey    = "relation_"
	MemberKey      = "member_"
)

// Builder converts an atlas into a DataSet.
//
// Entities are converted in phases: nodes, points, edges, lines, areas and
// relations, each phase referencing primitives of the previous ones.
// Nodes and points are deduplicated by location; polyline vertices without
// a node or point become shape points. Area vertices are never shared.
type Builder struct {
	log    *logrus.Entry
	bounds bbox
}

// NewBuilder creates a builder.
func NewBuilder() *Builder {
	return &Builder{log: logrus.NewEntry(logrus.StandardLogger()).WithField("component", "builder")}
}

// WithLogger replaces the logger.
func (b *Builder) WithLogger(log *logrus.Entry) *Builder {
	b.log = log
	return b
}

// Bounds returns the bound of every location processed by the last Build,
// and false when it processed none.
func (b *Builder) Bounds() (orb.Bound, bool) {
	return b.bounds.bound, b.bounds.valid
}

// build holds the state of one Build call.
type build struct {
	*Builder
	ds        *DataSet
	progress  host.ProgressMonitor
	locations map[orb.Point]*Punctual
	shapes    int
}

// Build converts a into a new DataSet, reporting each phase to progress.
func (b *Builder) Build(a atlas.Atlas, progress host.ProgressMonitor) *DataSet {
	if progress == nil {
		progress = host.NopProgress{}
	}
	b.bounds = bbox{}
	st := &build{
		Builder:   b,
		ds:        NewDataSet().WithLogger(b.log.WithField("atlas", a.Name())),
		progress:  progress,
		locations: make(map[orb.Point]*Punctual),
	}

	progress.SetCustomText("Converting nodes...")
	for _, n := range a.Nodes() {
		st.addLocation(KindNode, n.Identifier(), n.Location(), n.Tags(), n.Relations())
	}

	progress.SetCustomText("Converting points...")
	for _, p := range a.Points() {
		st.addLocation(KindPoint, p.Identifier(), p.Location(), p.Tags(), p.Relations())
	}

	progress.SetCustomText("Converting edges...")
	for _, e := range a.Edges() {
		st.addShapePoints(e.PolyLine())
	}
	for _, e := range a.Edges() {
		// Both directions of a two-way road are stored; only the main one
		// is converted.
		if e.Identifier() <= 0 {
			continue
		}
		tags := withRelations(e.Tags(), e.Relations())
		tags[FirstLatLonKey] = formatLocation(e.Start())
		if e.HasReverse() {
			tags[TwoWayKey] = "yes"
		}
		st.addLinear(KindEdge, e.Identifier(), e.PolyLine(), tags)
	}

	progress.SetCustomText("Converting lines...")
	for _, l := range a.Lines() {
		st.addShapePoints(l.PolyLine())
	}
	for _, l := range a.Lines() {
		tags := withRelations(l.Tags(), l.Relations())
		tags[FirstLatLonKey] = formatLocation(l.PolyLine()[0])
		st.addLinear(KindLine, l.Identifier(), l.PolyLine(), tags)
	}

	progress.SetCustomText("Converting areas...")
	for _, ar := range a.Areas() {
		st.addArea(ar)
	}

	progress.SetCustomText("Converting relations...")
	for _, r := range a.Relations() {
		progress.SetCustomText("Adding relation " + strconv.FormatInt(r.Identifier(), 10) + " to the data set...")
		st.addRelation(r)
	}

	b.log.WithFields(logrus.Fields{
		"atlas":        a.Name(),
		"primitives":   st.ds.Len(),
		"shape_points": st.shapes,
	}).Debug("atlas converted")
	progress.SetCustomText("Done adding atlas objects to data set. Please wait for layer to build...")
	return st.ds
}

// addLocation converts a node or point unless a punctual already exists at
// its location.
func (st *build) addLocation(kind Kind, id int64, location orb.Point, tags map[string]string, relations []*atlas.Relation) {
	if existing, ok := st.locations[location]; ok {
		st.log.WithFields(logrus.Fields{
			"id":       id,
			"kind":     kind.String(),
			"existing": existing.UniqueID(),
		}).Debug("location already converted, dropping duplicate")
		return
	}
	st.bounds.addPoint(location)

	var n *Punctual
	if id > 0 {
		synthetic := withRelations(tags, relations)
		synthetic[LatLonKey] = formatLocation(location)
		n = NewPunctual(kind, location, synthetic)
		// id > 0 and n is new, SetOsmID cannot fail
		_ = n.SetOsmID(id)
	} else {
		n = NewPunctual(kind, location, nil)
	}

	if err := st.ds.AddPrimitive(n); err != nil {
		if errors.Is(err, ErrIntegrity) {
			st.log.WithError(err).WithField("kind", kind.String()).Debug("duplicate identifier, dropping")
			st.progress.SetCustomText("Already has: " + n.PrimitiveID().String())
			return
		}
		st.log.WithError(err).Error("add punctual")
		return
	}
	st.locations[location] = n
}

// addShapePoints creates a shape point for every vertex of ls that has no
// punctual yet.
func (st *build) addShapePoints(ls orb.LineString) {
	for _, location := range ls {
		st.bounds.addPoint(location)
		if _, ok := st.locations[location]; ok {
			continue
		}
		n := NewPunctual(KindShapePoint, location, nil)
		if err := st.ds.AddPrimitive(n); err != nil {
			st.log.WithError(err).Error("add shape point")
			continue
		}
		st.locations[location] = n
		st.shapes++
	}
}

func (st *build) addLinear(kind Kind, id int64, ls orb.LineString, tags map[string]string) {
	nodes := make([]*Punctual, 0, len(ls))
	for _, location := range ls {
		st.bounds.addPoint(location)
		if n := st.locations[location]; n != nil {
			nodes = append(nodes, n)
		}
	}

	l := NewLinear(kind, nodes, tags)
	if id > 0 {
		_ = l.SetOsmID(id)
	}
	if err := st.ds.AddPrimitive(l); err != nil {
		st.log.WithError(err).WithFields(logrus.Fields{"id": id, "kind": kind.String()}).Error("unable to add way")
	}
}

// addArea converts an area with fresh vertices. The first vertex closes the
// ring.
func (st *build) addArea(ar *atlas.Area) {
	ring := ar.Polygon()
	nodes := make([]*Punctual, 0, len(ring)+1)
	for _, location := range ring {
		st.bounds.addPoint(location)
		n := NewPunctual(KindShapePoint, location, nil)
		if err := st.ds.AddPrimitive(n); err != nil {
			st.log.WithError(err).Error("add area vertex")
			return
		}
		nodes = append(nodes, n)
		st.shapes++
	}
	if len(nodes) > 0 {
		nodes = append(nodes, nodes[0])
	}

	tags := withRelations(ar.Tags(), ar.Relations())
	if len(ring) > 0 {
		tags[FirstLatLonKey] = formatLocation(ring[0])
	}
	l := NewLinear(KindArea, nodes, tags)
	if id := abs(ar.Identifier()); id > 0 {
		_ = l.SetOsmID(id)
	}
	if err := st.ds.AddPrimitive(l); err != nil {
		st.log.WithError(err).WithField("id", ar.Identifier()).Error("unable to add area")
	}
}

// addRelation converts a relation. Members that are not converted, such as
// negative edges or relations listed later, are dropped.
func (st *build) addRelation(r *atlas.Relation) {
	tags := copyTags(r.Tags())
	var members []RelationMember
	for _, m := range r.Members() {
		p := st.ds.PrimitiveByID(memberID(m.Entity))
		if p == nil {
			continue
		}
		tags[MemberKey+strconv.Itoa(len(members))] = strconv.FormatInt(m.Entity.Identifier(), 10)
		members = append(members, RelationMember{Role: m.Role, Member: p})
	}

	rel := NewRelation(members, tags)
	if r.Identifier() > 0 {
		_ = rel.SetOsmID(r.Identifier())
	}
	if err := st.ds.AddPrimitive(rel); err != nil {
		st.log.WithError(err).WithField("id", r.Identifier()).Error("unable to add relation")
	}
}

// memberID maps an atlas relation member to the identifier of the
// primitive it was converted to.
func memberID(e atlas.Entity) host.PrimitiveID {
	switch e.Type() {
	case atlas.ItemTypeNode, atlas.ItemTypePoint:
		return host.NodeID(e.Identifier())
	case atlas.ItemTypeArea:
		return host.WayID(abs(e.Identifier()))
	case atlas.ItemTypeRelation:
		return host.RelationID(e.Identifier())
	default:
		return host.WayID(e.Identifier())
	}
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags)+2)
	for k, v := range tags {
		out[k] = v
	}
	return out
}

// withRelations copies tags and adds relation_<i> for every relation the
// entity is a member of.
func withRelations(tags map[string]string, relations []*atlas.Relation) map[string]string {
	out := copyTags(tags)
	for i, r := range relations {
		out[RelationKey+strconv.Itoa(i)] = strconv.FormatInt(r.Identifier(), 10)
	}
	return out
}

// formatLocation renders a location as "lat,lon".
func formatLocation(p orb.Point) string {
	return fmt.Sprintf("%s,%s",
		strconv.FormatFloat(p.Lat(), 'f', -1, 64),
		strconv.FormatFloat(p.Lon(), 'f', -1, 64))
}

func abs(id int64) int64 {
	if id < 0 {
		return -id
	}
	return id
}

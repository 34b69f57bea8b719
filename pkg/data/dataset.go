package data

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// DataSet is the read-only container of atlas primitives.
//
// Primitives are added once, while the data set is built, and never
// removed. After construction the identifier map and the spatial index are
// only read. Selection changes are serialized by an internal mutex;
// selection reads observe the last committed selection without locking.
type DataSet struct {
	log *logrus.Entry

	all  []Primitive
	byID map[host.PrimitiveID]Primitive

	nodes     *rtreego.Rtree
	ways      *rtreego.Rtree
	relations *rtreego.Rtree

	bounds    bbox
	nextShape int64

	mappaintIdx atomic.Uint32

	highlightMu             sync.Mutex
	highlightedVirtualNodes []host.WaySegment
	highlightedWaySegments  []host.WaySegment

	selectionMu sync.Mutex
	selection   atomic.Pointer[selection]
	listeners   []host.SelectionListener
	// shadow is the host data set selection events are bound to. It is
	// only unlocked while a selection change is computed.
	shadow *host.DataSet
}

// selection is an immutable snapshot of the selected primitives.
type selection struct {
	order []Primitive
	set   map[Primitive]bool
}

var emptySelection = &selection{set: map[Primitive]bool{}}

// NewDataSet creates an empty data set.
func NewDataSet() *DataSet {
	shadow := host.NewDataSet()
	shadow.UploadPolicy = host.PolicyBlocked
	shadow.DownloadPolicy = host.PolicyBlocked
	shadow.Lock()

	ds := &DataSet{
		log:       logrus.NewEntry(logrus.StandardLogger()).WithField("component", "dataset"),
		byID:      make(map[host.PrimitiveID]Primitive),
		nodes:     newTree(),
		ways:      newTree(),
		relations: newTree(),
		shadow:    shadow,
	}
	ds.mappaintIdx.Store(1)
	ds.selection.Store(emptySelection)
	return ds
}

// WithLogger replaces the logger.
func (ds *DataSet) WithLogger(log *logrus.Entry) *DataSet {
	ds.log = log
	return ds
}

func newTree() *rtreego.Rtree {
	// 2D, min=25 children, max=50 children
	return rtreego.NewTree(2, 25, 50)
}

// NextShapePointID returns the next identifier for a synthesized primitive:
// -1, -2, ...
func (ds *DataSet) NextShapePointID() int64 {
	ds.nextShape--
	return ds.nextShape
}

// AddPrimitive adds p to the data set.
//
// A primitive without identifier receives NextShapePointID. Adding a
// primitive twice, adding a primitive owned by another data set, or adding
// a linear or relation referencing primitives that are not in this data
// set fails with an IntegrityError.
func (ds *DataSet) AddPrimitive(p Primitive) error {
	c := p.core()
	if c.dataSet != nil {
		reason := "already included in the data set"
		if c.dataSet != ds {
			reason = "belongs to another data set"
		}
		return &IntegrityError{Primitive: p.PrimitiveID(), Reason: reason}
	}
	if c.id == 0 {
		c.id = ds.NextShapePointID()
	}
	id := p.PrimitiveID()
	if _, ok := ds.byID[id]; ok {
		return &IntegrityError{Primitive: id, Reason: "identifier already used in the data set"}
	}
	if err := ds.checkReferences(p); err != nil {
		return err
	}

	ds.all = append(ds.all, p)
	ds.byID[id] = p
	c.dataSet = ds
	p.updatePosition()

	switch p.Class() {
	case ClassPunctual:
		ds.nodes.Insert(&indexed{p})
		ds.bounds.addBound(p.BBox())
	case ClassLinear:
		ds.ways.Insert(&indexed{p})
		ds.bounds.addBound(p.BBox())
	case ClassRelation:
		if p.(*Relation).HasGeometry() {
			ds.relations.Insert(&indexed{p})
		}
	}
	return nil
}

func (ds *DataSet) checkReferences(p Primitive) error {
	var missing Primitive
	switch v := p.(type) {
	case *Linear:
		for _, n := range v.nodes {
			if !ds.contains(n) {
				missing = n
				break
			}
		}
	case *Relation:
		for _, m := range v.members {
			if !ds.contains(m.Member) {
				missing = m.Member
				break
			}
		}
	}
	if missing != nil {
		return &IntegrityError{
			Primitive: p.PrimitiveID(),
			Reason:    "references " + missing.PrimitiveID().String() + " which is not in the data set",
		}
	}
	return nil
}

func (ds *DataSet) contains(p Primitive) bool {
	return p.core().dataSet == ds && ds.byID[p.PrimitiveID()] == p
}

// PrimitiveByID returns the primitive with the given identifier, or nil.
func (ds *DataSet) PrimitiveByID(id host.PrimitiveID) Primitive {
	return ds.byID[id]
}

// PrimitiveByIDChecked is PrimitiveByID logging a warning with a stack
// trace when the primitive is missing.
func (ds *DataSet) PrimitiveByIDChecked(id host.PrimitiveID) Primitive {
	p := ds.byID[id]
	if p == nil {
		err := errors.Wrapf(ErrNotFound, "expected %s in data set", id)
		ds.log.WithField("primitive", id.String()).Warnf("%+v", err)
	}
	return p
}

func (ds *DataSet) ContainsNode(n *Punctual) bool     { return ds.contains(n) }
func (ds *DataSet) ContainsWay(l *Linear) bool        { return ds.contains(l) }
func (ds *DataSet) ContainsRelation(r *Relation) bool { return ds.contains(r) }

// AllPrimitives returns every primitive in insertion order.
func (ds *DataSet) AllPrimitives() []Primitive {
	out := make([]Primitive, len(ds.all))
	copy(out, ds.all)
	return out
}

// Nodes returns the punctuals in insertion order.
func (ds *DataSet) Nodes() []*Punctual {
	var out []*Punctual
	for _, p := range ds.all {
		if n, ok := p.(*Punctual); ok {
			out = append(out, n)
		}
	}
	return out
}

// Ways returns the linears in insertion order.
func (ds *DataSet) Ways() []*Linear {
	var out []*Linear
	for _, p := range ds.all {
		if l, ok := p.(*Linear); ok {
			out = append(out, l)
		}
	}
	return out
}

// Relations returns the relations in insertion order.
func (ds *DataSet) Relations() []*Relation {
	var out []*Relation
	for _, p := range ds.all {
		if r, ok := p.(*Relation); ok {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of primitives.
func (ds *DataSet) Len() int { return len(ds.all) }

// Bounds returns the union of the bounds of all punctuals and linears, and
// false when the data set has none.
func (ds *DataSet) Bounds() (orb.Bound, bool) {
	return ds.bounds.bound, ds.bounds.valid
}

// SearchNodes returns the punctuals located inside bound.
func (ds *DataSet) SearchNodes(bound orb.Bound) []*Punctual {
	var out []*Punctual
	for _, p := range search(ds.nodes, bound) {
		n := p.(*Punctual)
		if bound.Contains(n.location) {
			out = append(out, n)
		}
	}
	return out
}

// SearchWays returns the linears whose bounds intersect bound.
func (ds *DataSet) SearchWays(bound orb.Bound) []*Linear {
	var out []*Linear
	for _, p := range search(ds.ways, bound) {
		if l := p.(*Linear); l.BBox().Intersects(bound) {
			out = append(out, l)
		}
	}
	return out
}

// SearchRelations returns the relations whose bounds intersect bound.
func (ds *DataSet) SearchRelations(bound orb.Bound) []*Relation {
	var out []*Relation
	for _, p := range search(ds.relations, bound) {
		if r := p.(*Relation); r.BBox().Intersects(bound) {
			out = append(out, r)
		}
	}
	return out
}

// search returns the primitives of tree intersecting bound ordered by
// identifier.
func search(tree *rtreego.Rtree, bound orb.Bound) []Primitive {
	spatials := tree.SearchIntersect(toRect(bound))
	out := make([]Primitive, len(spatials))
	for i, s := range spatials {
		out[i] = s.(*indexed).p
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UniqueID() < out[j].UniqueID() })
	return out
}

// indexed wraps a primitive for R-tree storage.
type indexed struct {
	p Primitive
}

// Bounds implements rtreego.Spatial interface.
func (i *indexed) Bounds() rtreego.Rect {
	return toRect(i.p.BBox())
}

// toRect converts a bound to an R-tree rectangle. Degenerate sides get a
// small epsilon since rectangles need non-zero sides.
func toRect(bound orb.Bound) rtreego.Rect {
	const epsilon = 0.00001

	lonLength := bound.Max.Lon() - bound.Min.Lon()
	latLength := bound.Max.Lat() - bound.Min.Lat()
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}
	rect, _ := rtreego.NewRect(rtreego.Point{bound.Min.Lon(), bound.Min.Lat()}, []float64{lonLength, latLength})
	return rect
}

// IsLocked is always true.
func (ds *DataSet) IsLocked() bool { return true }

func (ds *DataSet) Lock()                         {}
func (ds *DataSet) Unlock()                       {}
func (ds *DataSet) Name() string                  { return "" }
func (ds *DataSet) SetName(string)                {}
func (ds *DataSet) Version() string               { return "" }
func (ds *DataSet) UploadPolicy() host.Policy     { return host.PolicyBlocked }
func (ds *DataSet) SetUploadPolicy(host.Policy)   {}
func (ds *DataSet) DownloadPolicy() host.Policy   { return host.PolicyBlocked }
func (ds *DataSet) SetDownloadPolicy(host.Policy) {}

func (ds *DataSet) AddHighlightUpdateListener(host.HighlightUpdateListener)    {}
func (ds *DataSet) RemoveHighlightUpdateListener(host.HighlightUpdateListener) {}

// MappaintCacheIndex is the current mappaint cache generation.
func (ds *DataSet) MappaintCacheIndex() uint16 {
	return uint16(ds.mappaintIdx.Load())
}

// ClearMappaintCache starts a new mappaint cache generation, invalidating
// every cached style.
func (ds *DataSet) ClearMappaintCache() {
	ds.mappaintIdx.Add(1)
}

func (ds *DataSet) HighlightedVirtualNodes() []host.WaySegment {
	ds.highlightMu.Lock()
	defer ds.highlightMu.Unlock()
	return append([]host.WaySegment(nil), ds.highlightedVirtualNodes...)
}

func (ds *DataSet) SetHighlightedVirtualNodes(segments []host.WaySegment) {
	ds.highlightMu.Lock()
	defer ds.highlightMu.Unlock()
	if len(ds.highlightedVirtualNodes) == 0 && len(segments) == 0 {
		return
	}
	ds.highlightedVirtualNodes = append([]host.WaySegment(nil), segments...)
}

func (ds *DataSet) HighlightedWaySegments() []host.WaySegment {
	ds.highlightMu.Lock()
	defer ds.highlightMu.Unlock()
	return append([]host.WaySegment(nil), ds.highlightedWaySegments...)
}

func (ds *DataSet) SetHighlightedWaySegments(segments []host.WaySegment) {
	ds.highlightMu.Lock()
	defer ds.highlightMu.Unlock()
	if len(ds.highlightedWaySegments) == 0 && len(segments) == 0 {
		return
	}
	ds.highlightedWaySegments = append([]host.WaySegment(nil), segments...)
}

// Destroy clears the selection and the listeners, detaches every primitive
// and releases the indexes.
func (ds *DataSet) Destroy() {
	ds.ClearSelection()

	ds.selectionMu.Lock()
	ds.listeners = nil
	ds.selectionMu.Unlock()

	for _, p := range ds.all {
		p.core().dataSet = nil
	}
	ds.all = nil
	ds.byID = make(map[host.PrimitiveID]Primitive)
	ds.nodes = newTree()
	ds.ways = newTree()
	ds.relations = newTree()
	ds.bounds = bbox{}
}

package data

import (
	"errors"
	"strconv"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// fixture is a small data set: nodes 1-3, way 10 over them and relation 20
// containing the way and node 3.
func fixture(t *testing.T) *DataSet {
	t.Helper()
	ds := NewDataSet()

	var nodes []*Punctual
	for i := 1; i <= 3; i++ {
		n := NewPunctual(KindNode, orb.Point{float64(i), float64(i)}, map[string]string{"ref": strconv.Itoa(i)})
		require.NoError(t, n.SetOsmID(int64(i)))
		require.NoError(t, ds.AddPrimitive(n))
		nodes = append(nodes, n)
	}

	way := NewLinear(KindEdge, nodes, map[string]string{"highway": "primary"})
	require.NoError(t, way.SetOsmID(10))
	require.NoError(t, ds.AddPrimitive(way))

	rel := NewRelation([]RelationMember{{Role: "road", Member: way}, {Role: "stop", Member: nodes[2]}}, map[string]string{"type": "route"})
	require.NoError(t, rel.SetOsmID(20))
	require.NoError(t, ds.AddPrimitive(rel))
	return ds
}

type recorder struct {
	events []*host.SelectionChangeEvent
}

func (r *recorder) SelectionChanged(e *host.SelectionChangeEvent) {
	r.events = append(r.events, e)
}

func selectedIDs(ds *DataSet) []int64 {
	var out []int64
	for _, p := range ds.AllSelected() {
		out = append(out, p.UniqueID())
	}
	return out
}

func TestAddPrimitiveIntegrity(t *testing.T) {
	ds := fixture(t)
	n := ds.PrimitiveByID(host.NodeID(1))

	err := ds.AddPrimitive(n)
	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.True(t, errors.Is(err, ErrIntegrity))
	assert.Equal(t, host.NodeID(1), integrity.Primitive)

	other := NewDataSet()
	assert.ErrorIs(t, other.AddPrimitive(n), ErrIntegrity)

	dup := NewPunctual(KindPoint, orb.Point{9, 9}, nil)
	require.NoError(t, dup.SetOsmID(1))
	assert.ErrorIs(t, ds.AddPrimitive(dup), ErrIntegrity)

	stray := NewPunctual(KindNode, orb.Point{5, 5}, nil)
	way := NewLinear(KindLine, []*Punctual{n.(*Punctual), stray}, nil)
	assert.ErrorIs(t, ds.AddPrimitive(way), ErrIntegrity)
}

func TestShapePointIdentifiers(t *testing.T) {
	ds := NewDataSet()
	a := NewPunctual(KindShapePoint, orb.Point{0, 0}, nil)
	b := NewPunctual(KindShapePoint, orb.Point{1, 1}, nil)
	require.NoError(t, ds.AddPrimitive(a))
	require.NoError(t, ds.AddPrimitive(b))

	assert.Equal(t, int64(-1), a.UniqueID())
	assert.Equal(t, int64(-2), b.UniqueID())
	assert.Equal(t, int64(0), a.ID())

	// Each data set counts on its own
	c := NewPunctual(KindShapePoint, orb.Point{0, 0}, nil)
	require.NoError(t, NewDataSet().AddPrimitive(c))
	assert.Equal(t, int64(-1), c.UniqueID())
}

func TestPrimitivesAreReadOnly(t *testing.T) {
	ds := fixture(t)
	n := ds.PrimitiveByID(host.NodeID(1)).(*Punctual)

	assert.ErrorIs(t, n.Put("a", "b"), ErrUnsupported)
	assert.ErrorIs(t, n.Remove("ref"), ErrUnsupported)
	assert.ErrorIs(t, n.SetKeys(nil), ErrUnsupported)
	assert.ErrorIs(t, n.RemoveAll(), ErrUnsupported)
	assert.ErrorIs(t, n.SetVisible(false), ErrUnsupported)
	assert.ErrorIs(t, n.SetModified(true), ErrUnsupported)
	assert.ErrorIs(t, n.SetDeleted(true), ErrUnsupported)
	assert.ErrorIs(t, n.SetCoor(orb.Point{}), ErrUnsupported)
	assert.ErrorIs(t, n.SetChangesetID(1), ErrUnsupported)

	assert.True(t, n.IsLocked())
	assert.False(t, n.IsModified())
	assert.True(t, n.IsVisible())
	assert.Equal(t, "1", n.Get("ref"))

	assert.ErrorIs(t, n.SetOsmID(5), ErrInvalidID)
	fresh := NewPunctual(KindNode, orb.Point{}, nil)
	assert.ErrorIs(t, fresh.SetOsmID(-3), ErrInvalidID)
	require.NoError(t, fresh.SetOsmID(3))
	assert.ErrorIs(t, fresh.SetOsmID(4), ErrInvalidID)
}

func TestTags(t *testing.T) {
	n := NewPunctual(KindNode, orb.Point{}, map[string]string{"b": "2", "a": "1", "source": "survey"})

	assert.Equal(t, osm.Tags{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}, {Key: "source", Value: "survey"}}, n.Tags())
	assert.Equal(t, []string{"a", "b", "source"}, n.Keys())
	assert.True(t, n.HasKey("a"))
	assert.True(t, n.HasValue("2"))
	assert.False(t, n.HasValue("a"))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, n.InterestingTags())

	tags := n.Tags()
	tags[0].Value = "changed"
	assert.Equal(t, "1", n.Get("a"))
}

func TestReferrers(t *testing.T) {
	ds := fixture(t)
	n3 := ds.PrimitiveByID(host.NodeID(3)).(*Punctual)
	n1 := ds.PrimitiveByID(host.NodeID(1)).(*Punctual)

	assert.Len(t, n3.Referrers(), 2)
	assert.Equal(t, 2, n3.referrers.len())
	assert.True(t, n3.IsReferredByWays(1))
	assert.False(t, n3.IsReferredByWays(2))
	assert.Equal(t, 1, n1.referrers.len())

	// Adding a referrer twice has no effect
	way := ds.PrimitiveByID(host.WayID(10))
	n1.referrers.add(way)
	assert.Equal(t, 1, n1.referrers.len())

	// Referrers from another data set are ignored
	NewLinear(KindLine, []*Punctual{n1, n3}, nil)
	assert.Len(t, n1.Referrers(), 1)
	assert.Equal(t, 2, n1.referrers.len())
}

func TestRelationBBoxCycle(t *testing.T) {
	ds := fixture(t)
	rel := ds.PrimitiveByID(host.RelationID(20)).(*Relation)

	outer := NewRelation([]RelationMember{{Member: rel}}, nil)
	require.NoError(t, outer.SetOsmID(21))
	require.NoError(t, ds.AddPrimitive(outer))
	// close the cycle 20 -> 21 -> 20
	rel.setMembers(append(rel.Members(), RelationMember{Member: outer}))
	rel.updatePosition()

	want := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{3, 3}}
	assert.Equal(t, want, rel.BBox())
	outer.updatePosition()
	assert.Equal(t, want, outer.BBox())
}

func TestSearch(t *testing.T) {
	ds := fixture(t)
	box := orb.Bound{Min: orb.Point{0.5, 0.5}, Max: orb.Point{1.5, 1.5}}

	nodes := ds.SearchNodes(box)
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(1), nodes[0].UniqueID())
	assert.Len(t, ds.SearchWays(box), 1)
	assert.Len(t, ds.SearchRelations(box), 1)
	assert.Empty(t, ds.SearchNodes(orb.Bound{Min: orb.Point{50, 50}, Max: orb.Point{51, 51}}))

	bounds, ok := ds.Bounds()
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{3, 3}}, bounds)

	assert.Len(t, ds.Nodes(), 3)
	assert.Len(t, ds.Ways(), 1)
	assert.Len(t, ds.Relations(), 1)
	assert.Len(t, ds.AllPrimitives(), 5)
}

func TestSelectionLaws(t *testing.T) {
	a := host.NodeID(1)
	b := host.NodeID(2)

	t.Run("set twice fires once", func(t *testing.T) {
		ds := fixture(t)
		rec := &recorder{}
		ds.AddSelectionListener(rec)

		assert.True(t, ds.SetSelected(a))
		assert.False(t, ds.SetSelected(a))
		assert.Len(t, rec.events, 1)
		assert.Equal(t, host.Replace, rec.events[0].Kind)
		assert.Same(t, ds.shadow, rec.events[0].Source)
		assert.Equal(t, []int64{1}, selectedIDs(ds))
	})

	t.Run("add is idempotent", func(t *testing.T) {
		ds := fixture(t)
		rec := &recorder{}
		ds.AddSelectionListener(rec)

		ds.AddSelected(a)
		ds.AddSelected(a)
		assert.Len(t, rec.events, 1)
		assert.Equal(t, []int64{1}, selectedIDs(ds))
	})

	t.Run("toggle is an involution", func(t *testing.T) {
		ds := fixture(t)
		ds.SetSelected(b)
		rec := &recorder{}
		ds.AddSelectionListener(rec)

		ds.ToggleSelected(a)
		assert.Equal(t, []int64{2, 1}, selectedIDs(ds))
		ds.ToggleSelected(a)
		assert.Equal(t, []int64{2}, selectedIDs(ds))
		assert.Len(t, rec.events, 2)
	})

	t.Run("remove and clear", func(t *testing.T) {
		ds := fixture(t)
		ds.SetSelected(a, b, host.WayID(10))
		assert.True(t, ds.RemoveSelected(b))
		assert.False(t, ds.RemoveSelected(b))
		assert.Equal(t, []int64{1, 10}, selectedIDs(ds))

		assert.True(t, ds.ClearSelection())
		assert.True(t, ds.SelectionEmpty())
		assert.False(t, ds.ClearSelection())
	})
}

func TestSelectionState(t *testing.T) {
	ds := fixture(t)
	way := ds.PrimitiveByID(host.WayID(10))
	n3 := ds.PrimitiveByID(host.NodeID(3))
	rel := ds.PrimitiveByID(host.RelationID(20))

	var seen []int64
	ds.AddSelectionListener(host.SelectionListenerFunc(func(e *host.SelectionChangeEvent) {
		// listeners run after the selection is installed
		seen = selectedIDs(ds)
	}))

	ds.SetSelected(rel.PrimitiveID())
	assert.Equal(t, []int64{20}, seen)
	assert.True(t, rel.IsSelected())
	assert.False(t, way.IsSelected())
	assert.True(t, way.IsMemberOfSelected())
	assert.True(t, n3.IsMemberOfSelected())

	// The shadow data set holds host copies stamped with the atlas id
	hp := ds.shadow.PrimitiveByID(host.RelationID(20))
	require.NotNil(t, hp)
	assert.Equal(t, "20", hp.Get(AtlasIDKey))
	assert.True(t, ds.shadow.IsLocked())
	assert.NotNil(t, ds.shadow.PrimitiveByID(host.NodeID(3)))

	// Unknown identifiers are ignored
	assert.False(t, ds.AddSelected(host.NodeID(999)))
}

func TestPrimitiveByIDCheckedLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ds := fixture(t).WithLogger(logrus.NewEntry(logger))

	assert.NotNil(t, ds.PrimitiveByIDChecked(host.NodeID(1)))
	assert.Empty(t, hook.AllEntries())

	assert.Nil(t, ds.PrimitiveByIDChecked(host.NodeID(404)))
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "node 404")
}

func TestToHost(t *testing.T) {
	ds := fixture(t)
	shadow := host.NewDataSet()

	hp, err := ds.PrimitiveByID(host.WayID(10)).ToHost(shadow)
	require.NoError(t, err)
	way := hp.(*host.Way)
	assert.Len(t, way.Nodes, 3)
	assert.Equal(t, "10", way.Get(AtlasIDKey))
	assert.Equal(t, "primary", way.Get("highway"))
	assert.Equal(t, 4, shadow.Len())

	// A second projection reuses the existing host primitive
	again, err := ds.PrimitiveByID(host.WayID(10)).ToHost(shadow)
	require.NoError(t, err)
	assert.Same(t, hp, again)

	shadow.Lock()
	_, err = ds.PrimitiveByID(host.RelationID(20)).ToHost(shadow)
	assert.ErrorIs(t, err, host.ErrLocked)
}

func TestToHostReplacesAtlasIDTag(t *testing.T) {
	ds := NewDataSet()
	n := NewPunctual(KindPoint, orb.Point{1, 1}, map[string]string{AtlasIDKey: "999", "name": "buoy"})
	require.NoError(t, n.SetOsmID(7))
	require.NoError(t, ds.AddPrimitive(n))

	hp, err := n.ToHost(host.NewDataSet())
	require.NoError(t, err)
	assert.Equal(t, "7", hp.Get(AtlasIDKey))
	assert.Equal(t, "buoy", hp.Get("name"))

	count := 0
	for _, tag := range hp.(*host.Node).Tags {
		if tag.Key == AtlasIDKey {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// the selection maps back to the source primitive
	ds.SetSelected(n.PrimitiveID())
	require.Len(t, ds.AllSelected(), 1)
	assert.Equal(t, int64(7), ds.AllSelected()[0].UniqueID())
}

func TestMappaintCache(t *testing.T) {
	ds := fixture(t)
	n := ds.PrimitiveByID(host.NodeID(1))

	assert.False(t, n.IsCachedStyleUpToDate())
	n.SetCachedStyle("style")
	n.DeclareCachedStyleUpToDate()
	assert.True(t, n.IsCachedStyleUpToDate())

	ds.ClearMappaintCache()
	assert.False(t, n.IsCachedStyleUpToDate())
}

func TestDestroy(t *testing.T) {
	ds := fixture(t)
	n := ds.PrimitiveByID(host.NodeID(1))
	ds.SetSelected(n.PrimitiveID())
	ds.AddSelectionListener(&recorder{})

	ds.Destroy()

	assert.True(t, ds.SelectionEmpty())
	assert.Nil(t, n.DataSet())
	assert.Nil(t, ds.PrimitiveByID(host.NodeID(1)))
	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, 0, ds.SelectionListenerCount())
	assert.Empty(t, ds.SearchNodes(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{5, 5}}))
}

func TestDataSetIsLocked(t *testing.T) {
	ds := NewDataSet()
	ds.Unlock()
	assert.True(t, ds.IsLocked())
	ds.SetUploadPolicy(host.PolicyNormal)
	assert.Equal(t, host.PolicyBlocked, ds.UploadPolicy())
	assert.Equal(t, host.PolicyBlocked, ds.DownloadPolicy())
	ds.SetName("ignored")
	assert.Equal(t, "", ds.Name())
}

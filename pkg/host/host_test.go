package host

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id int64) Primitive {
	return &Node{Node: osm.Node{ID: osm.NodeID(id)}}
}

func ids(ps []Primitive) []int64 {
	var out []int64
	for _, p := range ps {
		out = append(out, p.PrimitiveID().ID)
	}
	return out
}

func TestPrimitiveID(t *testing.T) {
	assert.Equal(t, "node 12", NodeID(12).String())
	assert.Equal(t, "way 3", WayID(3).String())
	assert.Equal(t, "relation 9", RelationID(9).String())
	assert.True(t, NodeID(-1).IsNew())

	w := &Way{Way: osm.Way{ID: 3, Tags: osm.Tags{{Key: "highway", Value: "primary"}}}}
	assert.Equal(t, WayID(3), w.PrimitiveID())
	assert.Equal(t, "primary", w.Get("highway"))
	assert.Equal(t, "", w.Get("name"))
}

func TestDataSetLocking(t *testing.T) {
	ds := NewDataSet()
	require.NoError(t, ds.AddPrimitive(node(1)))

	err := ds.AddPrimitive(node(1))
	assert.True(t, errors.Is(err, ErrDuplicate))

	ds.Lock()
	assert.ErrorIs(t, ds.AddPrimitive(node(2)), ErrLocked)
	assert.ErrorIs(t, ds.Clear(), ErrLocked)

	ds.Unlock()
	require.NoError(t, ds.Clear())
	assert.Equal(t, 0, ds.Len())
	assert.Nil(t, ds.PrimitiveByID(NodeID(1)))
}

func TestSelectionEvents(t *testing.T) {
	a, b, c := node(1), node(2), node(3)

	tests := []struct {
		name    string
		event   *SelectionChangeEvent
		want    []int64
		added   []int64
		removed []int64
		wantNop bool
	}{
		{
			name:    "replace",
			event:   NewReplaceEvent(nil, []Primitive{a, b}, []Primitive{b, c}),
			want:    []int64{2, 3},
			added:   []int64{3},
			removed: []int64{1},
		},
		{
			name:    "replace with same set",
			event:   NewReplaceEvent(nil, []Primitive{a, b}, []Primitive{b, a}),
			want:    []int64{2, 1},
			wantNop: true,
		},
		{
			name:  "add",
			event: NewAddEvent(nil, []Primitive{a}, []Primitive{a, b}),
			want:  []int64{1, 2},
			added: []int64{2},
		},
		{
			name:    "add already selected",
			event:   NewAddEvent(nil, []Primitive{a}, []Primitive{a}),
			want:    []int64{1},
			wantNop: true,
		},
		{
			name:    "remove",
			event:   NewRemoveEvent(nil, []Primitive{a, b, c}, []Primitive{b}),
			want:    []int64{1, 3},
			removed: []int64{2},
		},
		{
			name:    "remove unselected",
			event:   NewRemoveEvent(nil, []Primitive{a}, []Primitive{c}),
			want:    []int64{1},
			wantNop: true,
		},
		{
			name:    "toggle",
			event:   NewToggleEvent(nil, []Primitive{a, b}, []Primitive{b, c}),
			want:    []int64{1, 3},
			added:   []int64{3},
			removed: []int64{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.event.Selection))
			assert.Equal(t, tt.added, ids(tt.event.Added))
			assert.Equal(t, tt.removed, ids(tt.event.Removed))
			assert.Equal(t, tt.wantNop, tt.event.IsNop())
		})
	}
}

type countingListener struct{ clicks []MouseEvent }

func (l *countingListener) MouseClicked(e MouseEvent) { l.clicks = append(l.clicks, e) }

func TestMemoryMapView(t *testing.T) {
	v := NewMemoryMapView(100, 100, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 10}})

	assert.Equal(t, orb.Point{5, 5}, v.LatLon(50, 50))
	assert.Equal(t, orb.Point{0, 10}, v.LatLon(0, 0))
	x, y := v.Pixel(orb.Point{2.5, 7.5})
	assert.Equal(t, 25, x)
	assert.Equal(t, 25, y)

	l1, l2 := &countingListener{}, &countingListener{}
	v.AddMouseListener(l1)
	v.AddMouseListener(l2)
	v.Click(1, 2)
	assert.Len(t, l1.clicks, 1)

	v.RemoveMouseListener(l1)
	v.Click(1, 2)
	assert.Len(t, l1.clicks, 1)
	assert.Len(t, l2.clicks, 2)
	assert.Len(t, v.MouseListeners(), 1)
}

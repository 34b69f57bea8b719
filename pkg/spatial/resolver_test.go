package spatial

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
)

// meters converts a distance along a meridian to degrees.
func meters(m float64) float64 {
	return m / (orb.EarthRadius * math.Pi / 180)
}

// nodeOnRoad builds an atlas with a point pointMeters north of the origin
// and an east-west edge half a meter south of it.
func nodeOnRoad(t *testing.T, pointMeters float64) *atlas.MemoryAtlas {
	t.Helper()
	b := atlas.NewBuilder("test")
	b.AddPoint(1, orb.Point{0, meters(pointMeters)}, map[string]string{"amenity": "bench"})
	b.AddEdge(2, orb.LineString{{-0.001, meters(-0.5)}, {0.001, meters(-0.5)}}, map[string]string{"highway": "primary"})
	a, err := b.Build()
	require.NoError(t, err)
	return a
}

func TestResolvePointPrevalence(t *testing.T) {
	tests := []struct {
		name        string
		pointMeters float64
		want        []atlas.ItemType
	}{
		{"point within threshold wins", 1.5, []atlas.ItemType{atlas.ItemTypePoint, atlas.ItemTypeEdge}},
		{"point beyond threshold loses", 10, []atlas.ItemType{atlas.ItemTypeEdge, atlas.ItemTypePoint}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(nodeOnRoad(t, tt.pointMeters), DefaultOptions())

			got, err := r.Resolve(orb.Point{0, 0})
			require.NoError(t, err)
			require.Len(t, got, 2)
			for i, s := range got {
				assert.Equal(t, tt.want[i], s.Item.Type())
			}
			assert.InDelta(t, 0.5, distanceOf(got, atlas.ItemTypeEdge), 0.01)
			assert.InDelta(t, tt.pointMeters, distanceOf(got, atlas.ItemTypePoint), 0.01)

			nearest, err := r.Nearest(orb.Point{0, 0})
			require.NoError(t, err)
			assert.Equal(t, tt.want[0], nearest.Type())
		})
	}
}

func distanceOf(items []SnappedItem, t atlas.ItemType) float64 {
	for _, s := range items {
		if s.Item.Type() == t {
			return s.Distance
		}
	}
	return math.NaN()
}

func TestCompare(t *testing.T) {
	b := atlas.NewBuilder("test")
	node := b.AddNode(1, orb.Point{0, 0}, nil)
	point := b.AddPoint(2, orb.Point{1, 1}, nil)
	line := b.AddLine(3, orb.LineString{{0, 0}, {1, 1}}, nil)
	area := b.AddArea(4, orb.Ring{{0, 0}, {0, 1}, {1, 1}}, nil)

	r := NewResolver(nil, DefaultOptions())
	tests := []struct {
		name string
		a, b SnappedItem
		want int
	}{
		{"closer first", SnappedItem{line, 1}, SnappedItem{area, 5}, -1},
		{"farther last", SnappedItem{area, 5}, SnappedItem{line, 1}, 1},
		{"equal distances", SnappedItem{line, 3}, SnappedItem{area, 3}, 0},
		{"close node beats line", SnappedItem{node, 1.9}, SnappedItem{line, 0}, -1},
		{"close point beats area", SnappedItem{area, 0}, SnappedItem{point, 1}, 1},
		{"far node loses", SnappedItem{node, 2}, SnappedItem{line, 1}, 1},
		{"two close punctuals by distance", SnappedItem{node, 1.5}, SnappedItem{point, 0.5}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Compare(tt.a, tt.b))
		})
	}
}

func TestSnapArea(t *testing.T) {
	b := atlas.NewBuilder("test")
	side := meters(100)
	area := b.AddArea(1, orb.Ring{{0, 0}, {side, 0}, {side, side}, {0, side}}, nil)

	// distance is measured to the boundary, not to the surface
	s, err := NewSnappedItem(area, orb.Point{side / 2, side / 2})
	require.NoError(t, err)
	assert.InDelta(t, 50, s.Distance, 0.1)
	assert.False(t, s.IsPunctual())
}

type unknownItem struct {
	atlas.Node
}

func (unknownItem) Type() atlas.ItemType { return atlas.ItemTypeRelation }

func TestSnapUnrecognizedType(t *testing.T) {
	_, err := NewSnappedItem(&unknownItem{}, orb.Point{0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecognizedType))

	var typed *UnrecognizedTypeError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "*spatial.unknownItem", typed.Type)
}

func TestResolveOutsideRadius(t *testing.T) {
	r := NewResolver(nodeOnRoad(t, 1), DefaultOptions())

	got, err := r.Resolve(orb.Point{1, 1})
	require.NoError(t, err)
	assert.Empty(t, got)

	nearest, err := r.Nearest(orb.Point{1, 1})
	require.NoError(t, err)
	assert.Nil(t, nearest)

	nearest, err = NewResolver(nil, DefaultOptions()).Nearest(orb.Point{0, 0})
	require.NoError(t, err)
	assert.Nil(t, nearest)
}

func BenchmarkResolve(b *testing.B) {
	ab := atlas.NewBuilder("bench")
	for i := 0; i < 10000; i++ {
		lon := float64(i%100) * 0.001
		lat := float64(i/100) * 0.001
		if i%2 == 0 {
			ab.AddNode(int64(i+1), orb.Point{lon, lat}, nil)
		} else {
			ab.AddLine(int64(i+1), orb.LineString{{lon, lat}, {lon + 0.0005, lat + 0.0005}}, nil)
		}
	}
	a, err := ab.Build()
	if err != nil {
		b.Fatal(err)
	}
	r := NewResolver(a, DefaultOptions())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Resolve(orb.Point{0.05, 0.05})
	}
}

package atlas

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAtlas(t *testing.T) *MemoryAtlas {
	t.Helper()
	b := NewBuilder("sample")
	b.AddNode(1, orb.Point{0, 0}, map[string]string{"highway": "traffic_signals"})
	b.AddNode(2, orb.Point{0, 0.002}, nil)
	b.AddPoint(10, orb.Point{0.001, 0.001}, map[string]string{"amenity": "cafe"})
	b.AddEdge(7, orb.LineString{{0, 0}, {0, 0.001}, {0, 0.002}}, map[string]string{"highway": "primary"})
	b.AddEdge(-7, orb.LineString{{0, 0.002}, {0, 0.001}, {0, 0}}, map[string]string{"highway": "primary"})
	b.AddLine(20, orb.LineString{{0.01, 0.01}, {0.02, 0.01}}, map[string]string{"power": "line"})
	b.AddArea(30, orb.Ring{{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}}, map[string]string{"building": "yes"})
	b.AddRelation(40, map[string]string{"type": "route"},
		RelationMemberRef{Type: ItemTypeEdge, Identifier: 7, Role: "forward"},
		RelationMemberRef{Type: ItemTypePoint, Identifier: 10, Role: "stop"},
		RelationMemberRef{Type: ItemTypeRelation, Identifier: 40, Role: "self"},
	)
	a, err := b.Build()
	require.NoError(t, err)
	return a
}

func TestBuilderIndexesEntities(t *testing.T) {
	a := sampleAtlas(t)

	assert.Equal(t, Size{Nodes: 2, Points: 1, Edges: 2, Lines: 1, Areas: 1, Relations: 1}, a.Size())
	assert.NotNil(t, a.Node(1))
	assert.Nil(t, a.Node(3))
	assert.True(t, a.Edge(7).HasReverse())
	assert.True(t, a.Edge(7).IsMainDirection())
	assert.False(t, a.Edge(-7).IsMainDirection())

	// Closing vertex is dropped on insertion
	assert.Len(t, a.Area(30).Polygon(), 4)
	assert.Len(t, a.Area(30).Closed(), 5)

	// Back references from members to relations
	require.Len(t, a.Point(10).Relations(), 1)
	assert.Equal(t, int64(40), a.Point(10).Relations()[0].Identifier())
}

func TestRelationBoundIsCycleSafe(t *testing.T) {
	a := sampleAtlas(t)
	bound := a.Relation(40).Bound()

	assert.True(t, bound.Contains(orb.Point{0, 0}))
	assert.True(t, bound.Contains(orb.Point{0.001, 0.001}))
	assert.True(t, bound.Contains(orb.Point{0, 0.002}))
}

func TestItemsIntersecting(t *testing.T) {
	a := sampleAtlas(t)

	tests := []struct {
		name  string
		bound orb.Bound
		want  []int64
	}{
		{
			name:  "around first node",
			bound: orb.Bound{Min: orb.Point{-0.0001, -0.0001}, Max: orb.Point{0.0001, 0.0001}},
			want:  []int64{1, 7, -7},
		},
		{
			name:  "box crossing line without containing a vertex",
			bound: orb.Bound{Min: orb.Point{0.014, 0.009}, Max: orb.Point{0.016, 0.011}},
			want:  []int64{20},
		},
		{
			name:  "box inside area",
			bound: orb.Bound{Min: orb.Point{1.4, 1.4}, Max: orb.Point{1.6, 1.6}},
			want:  []int64{30},
		},
		{
			name:  "empty region",
			bound: orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{6, 6}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for _, item := range a.ItemsIntersecting(tt.bound) {
				got = append(got, item.Identifier())
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestAreaIntersection(t *testing.T) {
	b := NewBuilder("u")
	b.AddArea(1, orb.Ring{{0, 0}, {3, 0}, {3, 3}, {2, 3}, {2, 1}, {1, 1}, {1, 3}, {0, 3}}, nil)
	a, err := b.Build()
	require.NoError(t, err)

	tests := []struct {
		name  string
		bound orb.Bound
		want  bool
	}{
		{"inside an arm", orb.Bound{Min: orb.Point{0.2, 0.2}, Max: orb.Point{0.8, 0.8}}, true},
		{"crossing the boundary", orb.Bound{Min: orb.Point{2.5, -0.5}, Max: orb.Point{3.5, 0.5}}, true},
		{"around the whole area", orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{4, 4}}, true},
		// the bounds overlap but the box sits in the notch
		{"inside the notch", orb.Bound{Min: orb.Point{1.2, 1.5}, Max: orb.Point{1.8, 2.5}}, false},
		{"outside", orb.Bound{Min: orb.Point{5, 5}, Max: orb.Point{6, 6}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, len(a.ItemsIntersecting(tt.bound)) == 1)
		})
	}
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder("broken")
	b.AddNode(1, orb.Point{0, 0}, nil)
	b.AddNode(1, orb.Point{1, 1}, nil)
	_, err := b.Build()
	var dup *DuplicateEntityError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, int64(1), dup.Identifier)

	b = NewBuilder("missing")
	b.AddRelation(1, nil, RelationMemberRef{Type: ItemTypeNode, Identifier: 99})
	_, err = b.Build()
	var missing *MissingMemberError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, int64(99), missing.Identifier)
}

func TestLoaderRoundTrip(t *testing.T) {
	a := sampleAtlas(t)
	data, err := Encode(a)
	require.NoError(t, err)

	dir := t.TempDir()
	plain := filepath.Join(dir, "sample.atlas")
	require.NoError(t, os.WriteFile(plain, data, 0o644))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	gz := filepath.Join(dir, "zipped.atlas.gz")
	require.NoError(t, os.WriteFile(gz, buf.Bytes(), 0o644))

	ctx := context.Background()
	loader := NewLoader()
	for _, path := range []string{plain, gz} {
		loaded, err := loader.Load(ctx, path)
		require.NoError(t, err, path)
		assert.Equal(t, a.Size(), loaded.Size())
		assert.Equal(t, "sample", loaded.Name())
		assert.Equal(t, "primary", loaded.Edge(7).Tags()["highway"])
		assert.Len(t, loaded.Relation(40).Members(), 3)
	}
}

func TestDecodeNamesAndErrors(t *testing.T) {
	doc := []byte(`
nodes:
  - id: 1
    location: [12.34, 45.67]
relations:
  - id: 2
    members:
      - {type: bogus, id: 1, role: x}
`)
	_, err := Decode(doc, "fallback")
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "fallback", decodeErr.Source)

	a, err := Decode([]byte("nodes:\n  - id: 1\n    location: [12.34, 45.67]\n"), "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", a.Name())
	assert.Equal(t, orb.Point{12.34, 45.67}, a.Node(1).Location())
}

func TestMergeKeepsFirst(t *testing.T) {
	one := NewBuilder("one")
	one.AddNode(1, orb.Point{0, 0}, map[string]string{"source": "one"})
	a1, err := one.Build()
	require.NoError(t, err)

	two := NewBuilder("two")
	two.AddNode(1, orb.Point{0, 0}, map[string]string{"source": "two"})
	two.AddNode(2, orb.Point{1, 1}, nil)
	a2, err := two.Build()
	require.NoError(t, err)

	merged, err := Merge("both", a1, a2)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Size().Nodes)
	assert.Equal(t, "one", merged.Node(1).Tags()["source"])
}

func TestMetaDataLines(t *testing.T) {
	meta := MetaData{Country: "USA", Shard: "9-168-233", Tags: map[string]string{"b": "2", "a": "1"}}
	lines := meta.Lines()
	assert.Contains(t, lines, "country: USA")
	assert.Equal(t, []string{"a: 1", "b: 2"}, lines[len(lines)-2:])
}

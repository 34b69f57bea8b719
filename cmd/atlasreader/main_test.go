package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/importer"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	b := atlas.NewBuilder("harbor")
	b.SetMetaData(atlas.MetaData{Country: "DMA", Shard: "8-123-45"})
	b.AddNode(1, orb.Point{0, 0}, map[string]string{"amenity": "bench"})
	b.AddNode(2, orb.Point{0.01, 0.01}, map[string]string{"amenity": "cafe", "name": "Corner"})
	b.AddEdge(12, orb.LineString{{0, 0.005}, {0.01, 0.005}}, map[string]string{"highway": "primary"})
	a, err := b.Build()
	require.NoError(t, err)
	raw, err := atlas.Encode(a)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "harbor.atlas")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", "", "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "atlasreader", cmd.Use)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"info", "search", "resolve", "select"})
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("cache"))
}

func TestInfo(t *testing.T) {
	path := writeFixture(t)

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "layer: Atlas: harbor\n")
	assert.Contains(t, out, "country: DMA\n")
	assert.Contains(t, out, "shard: 8-123-45\n")
	assert.Contains(t, out, "nodes: 2\n")
	assert.Contains(t, out, "edges: 1\n")
	assert.Contains(t, out, "bounds: 0,0,0.01,0.01\n")
}

func TestInfoCache(t *testing.T) {
	path := writeFixture(t)

	out, err := run(t, "info", "--cache", "1048576", path)
	require.NoError(t, err)
	assert.Contains(t, out, "nodes: 2\n")
	assert.Regexp(t, `cache: 1 atlases, \d+/1048576 bytes, 0 hits, 1 misses\n`, out)

	out, err = run(t, "info", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "cache:")
}

func TestSearch(t *testing.T) {
	path := writeFixture(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "tag",
			args: []string{"--mode", "Tag", path, "amenity"},
			want: []string{"  Index: 0, ID: node 1\n", "  Index: 1, ID: node 2\n", "2 results\n"},
		},
		{
			name: "atlas id",
			args: []string{"--mode", "Atlas ID", path, "12"},
			want: []string{"  Index: 0, ID: way 12\n", "1 results\n"},
		},
		{
			name: "box",
			args: []string{"--mode", "Box", path, "0.009,0.009,0.011,0.011"},
			want: []string{"  Index: 0, ID: node 2\n", "1 results\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"search"}, tt.args...)...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestSearchUnknownMode(t *testing.T) {
	path := writeFixture(t)

	_, err := run(t, "search", "--mode", "Everything", path, "x")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	path := writeFixture(t)

	out, err := run(t, "resolve", path, "--lat", "0", "--lon", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "1. node 1 0.00 m\n")
	assert.Contains(t, out, "bench")

	out, err = run(t, "resolve", path, "--lat", "40", "--lon", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing within click radius")
}

func TestSelect(t *testing.T) {
	path := writeFixture(t)

	out, err := run(t, "select", path, "--id", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "atlas_identifier")
	assert.Contains(t, out, "Corner")

	_, err = run(t, "select", path, "--id", "99")
	assert.Error(t, err)
}

func TestNoFiles(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "*.atlas"))
	assert.ErrorIs(t, err, importer.ErrNoFiles)
}

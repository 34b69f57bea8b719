package atlas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Loader reads atlas documents from any location supported by afs
// (local paths, file://, mem://, and remote schemes when registered).
//
// Documents are YAML; a URL ending in ".gz" is gunzipped first.
type Loader struct {
	fs afs.Service
}

// NewLoader creates a loader backed by the default afs service.
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// NewLoaderWithService creates a loader backed by the given afs service.
func NewLoaderWithService(fs afs.Service) *Loader {
	return &Loader{fs: fs}
}

// Load reads and decodes a single atlas.
//
// The atlas name defaults to the file name without its extensions when the
// document does not carry one.
func (l *Loader) Load(ctx context.Context, URL string) (*MemoryAtlas, error) {
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", URL, err)
	}

	if strings.HasSuffix(URL, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, &DecodeError{Source: URL, Err: err}
		}
		data, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, &DecodeError{Source: URL, Err: err}
		}
	}

	return Decode(data, baseName(URL))
}

// LoadAll loads several atlases and merges them into one.
func (l *Loader) LoadAll(ctx context.Context, URLs ...string) (*MemoryAtlas, error) {
	if len(URLs) == 1 {
		return l.Load(ctx, URLs[0])
	}
	atlases := make([]*MemoryAtlas, 0, len(URLs))
	for _, URL := range URLs {
		a, err := l.Load(ctx, URL)
		if err != nil {
			return nil, err
		}
		atlases = append(atlases, a)
	}
	names := make([]string, len(atlases))
	for i, a := range atlases {
		names[i] = a.Name()
	}
	return Merge(strings.Join(names, "+"), atlases...)
}

// LoadFile is a convenience wrapper around NewLoader().Load.
func LoadFile(ctx context.Context, URL string) (*MemoryAtlas, error) {
	return NewLoader().Load(ctx, URL)
}

func baseName(URL string) string {
	name := path.Base(URL)
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".atlas")
	name = strings.TrimSuffix(name, ".yaml")
	return name
}

// document is the YAML representation of an atlas.
type document struct {
	Name      string        `yaml:"name,omitempty"`
	MetaData  MetaData      `yaml:"metadata,omitempty"`
	Nodes     []locationDoc `yaml:"nodes,omitempty"`
	Points    []locationDoc `yaml:"points,omitempty"`
	Edges     []geometryDoc `yaml:"edges,omitempty"`
	Lines     []geometryDoc `yaml:"lines,omitempty"`
	Areas     []geometryDoc `yaml:"areas,omitempty"`
	Relations []relationDoc `yaml:"relations,omitempty"`
}

// locationDoc coordinates are [longitude, latitude].
type locationDoc struct {
	ID       int64             `yaml:"id"`
	Location [2]float64        `yaml:"location,flow"`
	Tags     map[string]string `yaml:"tags,omitempty"`
}

type geometryDoc struct {
	ID       int64             `yaml:"id"`
	Geometry [][2]float64      `yaml:"geometry,flow"`
	Tags     map[string]string `yaml:"tags,omitempty"`
}

type relationDoc struct {
	ID      int64             `yaml:"id"`
	Tags    map[string]string `yaml:"tags,omitempty"`
	Members []memberDoc       `yaml:"members"`
}

type memberDoc struct {
	Type string `yaml:"type"`
	ID   int64  `yaml:"id"`
	Role string `yaml:"role"`
}

// Decode builds an atlas from a YAML document. fallbackName is used when the
// document has no name.
func Decode(data []byte, fallbackName string) (*MemoryAtlas, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Source: fallbackName, Err: err}
	}

	name := doc.Name
	if name == "" {
		name = fallbackName
	}

	b := NewBuilder(name).SetMetaData(doc.MetaData)
	for _, n := range doc.Nodes {
		b.AddNode(n.ID, orb.Point(n.Location), n.Tags)
	}
	for _, p := range doc.Points {
		b.AddPoint(p.ID, orb.Point(p.Location), p.Tags)
	}
	for _, e := range doc.Edges {
		b.AddEdge(e.ID, toLineString(e.Geometry), e.Tags)
	}
	for _, l := range doc.Lines {
		b.AddLine(l.ID, toLineString(l.Geometry), l.Tags)
	}
	for _, a := range doc.Areas {
		b.AddArea(a.ID, orb.Ring(toLineString(a.Geometry)), a.Tags)
	}
	for _, r := range doc.Relations {
		refs := make([]RelationMemberRef, 0, len(r.Members))
		for _, m := range r.Members {
			t, ok := ParseItemType(m.Type)
			if !ok {
				return nil, &DecodeError{Source: name, Err: fmt.Errorf("relation %d: unknown member type %q", r.ID, m.Type)}
			}
			refs = append(refs, RelationMemberRef{Type: t, Identifier: m.ID, Role: m.Role})
		}
		b.AddRelation(r.ID, r.Tags, refs...)
	}

	a, err := b.Build()
	if err != nil {
		return nil, &DecodeError{Source: name, Err: err}
	}
	return a, nil
}

// Encode serializes an atlas to its YAML document form.
func Encode(a Atlas) ([]byte, error) {
	doc := document{Name: a.Name(), MetaData: a.MetaData()}
	for _, n := range a.Nodes() {
		doc.Nodes = append(doc.Nodes, locationDoc{ID: n.id, Location: [2]float64(n.location), Tags: n.tags})
	}
	for _, p := range a.Points() {
		doc.Points = append(doc.Points, locationDoc{ID: p.id, Location: [2]float64(p.location), Tags: p.tags})
	}
	for _, e := range a.Edges() {
		doc.Edges = append(doc.Edges, geometryDoc{ID: e.id, Geometry: fromLineString(e.polyline), Tags: e.tags})
	}
	for _, l := range a.Lines() {
		doc.Lines = append(doc.Lines, geometryDoc{ID: l.id, Geometry: fromLineString(l.polyline), Tags: l.tags})
	}
	for _, ar := range a.Areas() {
		doc.Areas = append(doc.Areas, geometryDoc{ID: ar.id, Geometry: fromLineString(orb.LineString(ar.polygon)), Tags: ar.tags})
	}
	for _, r := range a.Relations() {
		rd := relationDoc{ID: r.id, Tags: r.tags}
		for _, m := range r.members {
			rd.Members = append(rd.Members, memberDoc{Type: m.Entity.Type().String(), ID: m.Entity.Identifier(), Role: m.Role})
		}
		doc.Relations = append(doc.Relations, rd)
	}
	return yaml.Marshal(&doc)
}

func toLineString(coords [][2]float64) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point(c)
	}
	return ls
}

func fromLineString(ls orb.LineString) [][2]float64 {
	coords := make([][2]float64, len(ls))
	for i, p := range ls {
		coords[i] = [2]float64(p)
	}
	return coords
}

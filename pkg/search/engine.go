// Package search implements the atlas panel queries.
//
// Every query but All produces a fresh List and a fresh BiMap from list
// indexes to primitive identifiers. All returns the full list built when the
// engine was created, with its mapping.
package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/data"
	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// andSeparator splits a compound tag query.
const andSeparator = " AND "

var boxSeparator = regexp.MustCompile(`[:,]`)

// Engine runs queries against a data set.
type Engine struct {
	log   *logrus.Entry
	atlas atlas.Atlas
	ds    *data.DataSet

	full      *List
	fullIndex *BiMap
	index     *BiMap
}

// NewEngine creates an engine over ds, which was built from a.
func NewEngine(a atlas.Atlas, ds *data.DataSet) *Engine {
	full, fullIndex := NewFullList(ds)
	return &Engine{
		log:       logrus.NewEntry(logrus.StandardLogger()).WithField("component", "search"),
		atlas:     a,
		ds:        ds,
		full:      full,
		fullIndex: fullIndex,
		index:     fullIndex,
	}
}

// WithLogger replaces the logger.
func (e *Engine) WithLogger(log *logrus.Entry) *Engine {
	e.log = log
	return e
}

// NewFullList lists every primitive of ds in insertion order, leaving out
// punctuals without tags.
func NewFullList(ds *data.DataSet) (*List, *BiMap) {
	list := NewList()
	index := NewBiMap()
	for _, p := range ds.AllPrimitives() {
		if p.Class() == data.ClassPunctual && !p.HasKeys() {
			continue
		}
		entry := list.Add(p)
		index.Put(entry.Index, p.PrimitiveID())
	}
	return list, index
}

// Full returns the full list and its mapping.
func (e *Engine) Full() (*List, *BiMap) { return e.full, e.fullIndex }

// Index returns the mapping of the last query.
func (e *Engine) Index() *BiMap { return e.index }

// Search runs a query. Malformed identifiers and boxes are logged and yield
// an empty list.
func (e *Engine) Search(mode Mode, text string) *List {
	if mode == All {
		e.index = e.fullIndex
		return e.full
	}

	r := newResults()
	switch mode {
	case AtlasIdentifier:
		e.searchAtlasID(r, text)
	case OSMIdentifier:
		e.searchOSMID(r, text)
	case Tag:
		e.searchTag(r, text)
	case Box:
		e.searchBox(r, text)
	default:
		e.log.WithField("mode", mode.String()).Error("invalid search mode")
	}
	e.index = r.index
	return r.list
}

// results collects the output of a query.
type results struct {
	list  *List
	index *BiMap
}

func newResults() *results {
	return &results{list: NewList(), index: NewBiMap()}
}

func (r *results) add(p data.Primitive) {
	entry := r.list.Add(p)
	r.index.Put(entry.Index, p.PrimitiveID())
}

func (e *Engine) searchAtlasID(r *results, text string) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		e.log.WithError(err).WithField("text", text).Error("invalid atlas identifier")
		return
	}
	for _, pid := range []host.PrimitiveID{host.NodeID(id), host.WayID(id), host.RelationID(id)} {
		if p := e.ds.PrimitiveByID(pid); p != nil {
			r.add(p)
			return
		}
	}
}

func (e *Engine) searchOSMID(r *results, text string) {
	for _, p := range e.ds.AllPrimitives() {
		if p.ID() > 0 && strings.Contains(p.PrimitiveID().String(), text) {
			r.add(p)
		}
	}
}

func (e *Engine) searchTag(r *results, text string) {
	for _, p := range e.matchTag(text) {
		r.add(p)
	}
}

// matchTag returns the primitives matching a tag query: nodes first, then
// ways, then relations.
//
// "a AND b" intersects the matches of a and b in the order of a.
// "key=value" matches primitives having the key and, under any key, the
// value. Anything else matches primitives having the text as a key or as a
// value.
func (e *Engine) matchTag(text string) []data.Primitive {
	if first, second, ok := strings.Cut(text, andSeparator); ok {
		keep := make(map[data.Primitive]bool)
		for _, p := range e.matchTag(second) {
			keep[p] = true
		}
		var out []data.Primitive
		for _, p := range e.matchTag(first) {
			if keep[p] {
				out = append(out, p)
			}
		}
		return out
	}

	var match func(p data.Primitive) bool
	if key, value, ok := strings.Cut(text, "="); ok {
		match = func(p data.Primitive) bool { return p.HasValue(value) && p.HasKey(key) }
	} else {
		match = func(p data.Primitive) bool { return p.HasValue(text) || p.HasKey(text) }
	}

	var out []data.Primitive
	e.eachPrimitive(func(p data.Primitive) {
		if match(p) {
			out = append(out, p)
		}
	})
	return out
}

func (e *Engine) searchBox(r *results, text string) {
	box, err := parseBox(text)
	if err != nil {
		e.log.WithError(err).WithField("text", text).Error("invalid bounding box")
		return
	}
	for _, n := range e.ds.Nodes() {
		if box.Contains(n.Location()) && e.isAtlasLocation(n) {
			r.add(n)
		}
	}
	for _, l := range e.ds.Ways() {
		if box.Contains(l.BBox().Center()) {
			r.add(l)
		}
	}
	for _, rel := range e.ds.Relations() {
		if rel.HasGeometry() && box.Contains(rel.BBox().Center()) {
			r.add(rel)
		}
	}
}

// isAtlasLocation reports whether n was converted from an atlas node or
// point rather than synthesized for a vertex.
func (e *Engine) isAtlasLocation(n *data.Punctual) bool {
	id := n.UniqueID()
	if id <= 0 {
		return false
	}
	if e.atlas == nil {
		return n.Kind() != data.KindShapePoint
	}
	return e.atlas.Node(id) != nil || e.atlas.Point(id) != nil
}

func (e *Engine) eachPrimitive(fn func(p data.Primitive)) {
	for _, n := range e.ds.Nodes() {
		fn(n)
	}
	for _, l := range e.ds.Ways() {
		fn(l)
	}
	for _, rel := range e.ds.Relations() {
		fn(rel)
	}
}

// parseBox parses "minlat,minlon,maxlat,maxlon". Colons may be used as
// separators too; fields after the fourth are ignored.
func parseBox(text string) (orb.Bound, error) {
	fields := boxSeparator.Split(text, -1)
	if len(fields) < 4 {
		return orb.Bound{}, fmt.Errorf("expected 4 coordinates, got %d", len(fields))
	}
	var c [4]float64
	for i := range c {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		c[i] = v
	}
	return orb.Bound{
		Min: orb.Point{c[1], c[0]},
		Max: orb.Point{c[3], c[2]},
	}, nil
}

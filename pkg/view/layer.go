// Package view keeps the atlas panel, the map view and the data set
// selection in sync.
package view

import (
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/data"
	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// ToolTip is the description shown for every atlas layer.
const ToolTip = "Atlas Layer"

// Renderer draws a data set on a map view.
type Renderer interface {
	Render(view host.MapView, ds *data.DataSet, bound orb.Bound)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(view host.MapView, ds *data.DataSet, bound orb.Bound)

func (f RendererFunc) Render(view host.MapView, ds *data.DataSet, bound orb.Bound) { f(view, ds, bound) }

// BoundsVisitor accumulates layer bounds.
type BoundsVisitor interface {
	Visit(bound orb.Bound)
}

// Layer is a read-only map layer showing one converted atlas.
type Layer struct {
	log *logrus.Entry

	name   string
	atlas  atlas.Atlas
	ds     *data.DataSet
	bounds orb.Bound

	coordinators []*Coordinator
}

// NewLayer creates a layer for ds, converted from a.
func NewLayer(name string, a atlas.Atlas, ds *data.DataSet, bounds orb.Bound) *Layer {
	return &Layer{
		log:    logrus.NewEntry(logrus.StandardLogger()).WithFields(logrus.Fields{"component": "layer", "layer": name}),
		name:   name,
		atlas:  a,
		ds:     ds,
		bounds: bounds,
	}
}

func (l *Layer) Name() string            { return l.name }
func (l *Layer) Atlas() atlas.Atlas      { return l.atlas }
func (l *Layer) DataSet() *data.DataSet  { return l.ds }
func (l *Layer) Bounds() orb.Bound       { return l.bounds }
func (l *Layer) ToolTipText() string     { return ToolTip }
func (l *Layer) IsModified() bool        { return false }
func (l *Layer) IsMergeable(*Layer) bool { return false }

// MergeFrom does nothing; atlas layers are never merged.
func (l *Layer) MergeFrom(*Layer) {}

// Paint renders the data set within bound. A destroyed layer paints
// nothing.
func (l *Layer) Paint(r Renderer, view host.MapView, bound orb.Bound) {
	if l.atlas == nil {
		return
	}
	r.Render(view, l.ds, bound)
}

// VisitBoundingBox reports the layer bounds to v.
func (l *Layer) VisitBoundingBox(v BoundsVisitor) {
	v.Visit(l.bounds)
}

// Destroy closes the coordinators attached to the layer and releases the
// data set and the atlas.
func (l *Layer) Destroy() {
	for _, c := range l.coordinators {
		c.Close()
	}
	l.coordinators = nil
	l.ds.Destroy()
	l.atlas = nil
	l.log.Debug("layer destroyed")
}

func (l *Layer) attach(c *Coordinator) {
	l.coordinators = append(l.coordinators, c)
}

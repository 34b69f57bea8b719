package view

import (
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/beetlebugorg/atlasreader/pkg/atlas"
	"github.com/beetlebugorg/atlasreader/pkg/data"
	"github.com/beetlebugorg/atlasreader/pkg/host"
	"github.com/beetlebugorg/atlasreader/pkg/search"
	"github.com/beetlebugorg/atlasreader/pkg/spatial"
)

// AtlasIdentifierRow is the key of the first tag table row.
const AtlasIdentifierRow = "atlas_identifier"

// Panel is the side panel the coordinator drives.
type Panel interface {
	// ShowList replaces the displayed list.
	ShowList(l *search.List)
	// SelectIndex selects and scrolls to a list row.
	SelectIndex(i int)
	// ShowTags replaces the tag table.
	ShowTags(rows []TagRow)
}

// TagRow is a tag table row.
type TagRow struct {
	Key, Value string
}

// Key is a key typed in the panel. Printable keys are their rune.
type Key rune

const (
	KeyEnter  Key = '\n'
	KeyEquals Key = '='
	KeyUp     Key = -1
	KeyDown   Key = -2
)

// Coordinator synchronizes the list, the map and the tag table of one
// layer.
//
// The list shown and the index mapping its rows to primitives change with
// every query. The map click listener is bound to the mapping of the query
// it was created for, so the coordinator replaces it after each query:
// exactly one of its listeners is registered on the map view at any time.
type Coordinator struct {
	log      *logrus.Entry
	layer    *Layer
	mapView  host.MapView
	panel    Panel
	engine   *search.Engine
	resolver *spatial.Resolver

	list     *search.List
	index    *search.BiMap
	selected int

	previousResults *search.List
	previous        data.Primitive

	listener *mapClickListener
}

// NewCoordinator shows the full list of the layer on panel and starts
// listening to clicks on mapView.
func NewCoordinator(layer *Layer, mapView host.MapView, panel Panel, opts spatial.Options) *Coordinator {
	c := &Coordinator{
		log:      logrus.NewEntry(logrus.StandardLogger()).WithFields(logrus.Fields{"component": "coordinator", "layer": layer.Name()}),
		layer:    layer,
		mapView:  mapView,
		panel:    panel,
		engine:   search.NewEngine(layer.Atlas(), layer.DataSet()),
		resolver: spatial.NewResolver(layer.Atlas(), opts),
		selected: -1,
	}
	c.list, c.index = c.engine.Full()
	c.panel.ShowList(c.list)
	c.bind(c.index)
	layer.attach(c)
	return c
}

// WithLogger replaces the logger of the coordinator and its engine.
func (c *Coordinator) WithLogger(log *logrus.Entry) *Coordinator {
	c.log = log
	c.engine.WithLogger(log)
	return c
}

// List returns the displayed list.
func (c *Coordinator) List() *search.List { return c.list }

// Index returns the mapping of the displayed list.
func (c *Coordinator) Index() *search.BiMap { return c.index }

// SelectedIndex returns the selected list row, or -1.
func (c *Coordinator) SelectedIndex() int { return c.selected }

// ListClicked selects the primitive at list row i.
func (c *Coordinator) ListClicked(i int) {
	c.selected = i
	c.selectRow(i)
}

// KeyPressed moves the list selection on KeyUp and KeyDown, staying within
// the list.
func (c *Coordinator) KeyPressed(key Key) {
	n := c.list.Len()
	if n == 0 {
		return
	}
	switch key {
	case KeyUp:
		c.selected--
	case KeyDown:
		c.selected++
	default:
		return
	}
	c.selected = max(0, min(c.selected, n-1))
	c.panel.SelectIndex(c.selected)
	c.selectRow(c.selected)
}

func (c *Coordinator) selectRow(i int) {
	ds := c.layer.DataSet()
	id, ok := c.index.ID(i)
	if !ok {
		ds.ClearSelection()
		return
	}
	ds.SetSelected(id)
	if p := ds.PrimitiveByID(id); p != nil {
		c.zoomTo(p)
		c.panel.ShowTags(TagRows(p))
	}
}

// SearchKey handles a key typed in the search field for the given mode and
// text. KeyEnter submits the query. It reports whether the key should be
// inserted in the field: '=' and non-ASCII keys are swallowed.
func (c *Coordinator) SearchKey(key Key, mode search.Mode, text string) bool {
	switch {
	case key == KeyEnter:
		c.Submit(mode, text)
		return false
	case key == KeyEquals:
		return false
	case key < 0 || key > 0x7f:
		return false
	default:
		return true
	}
}

// Submit runs a query and displays its results. Unless mode is All, the
// results are highlighted and selected. The map zooms to the whole data set.
func (c *Coordinator) Submit(mode search.Mode, text string) {
	results := c.engine.Search(mode, text)
	index := c.engine.Index()
	c.log.WithFields(logrus.Fields{"mode": mode.String(), "text": text, "results": results.Len()}).Debug("query submitted")

	c.show(results, index)
	c.ShowAll()

	if mode != search.All {
		c.unhighlightResults()
		for _, p := range results.Primitives() {
			p.SetHighlighted(true)
		}
		c.layer.DataSet().SetSelected(results.IDs()...)
		c.mapView.Repaint()
		c.previousResults = results
	}
	c.bind(index)
}

// ClearResults shows the full list again, removes the highlights of the
// last query and clears the selection.
func (c *Coordinator) ClearResults() {
	results := c.engine.Search(search.All, "")
	index := c.engine.Index()

	c.show(results, index)
	c.unhighlightResults()
	c.layer.DataSet().ClearSelection()
	c.mapView.Repaint()
	c.bind(index)
}

// ShowAll zooms the map to the whole data set.
func (c *Coordinator) ShowAll() {
	if bound, ok := c.layer.DataSet().Bounds(); ok {
		c.mapView.ZoomTo(bound)
	}
}

// MetaData returns the atlas metadata as "key: value" lines.
func (c *Coordinator) MetaData() []string {
	a := c.layer.Atlas()
	if a == nil {
		return nil
	}
	return a.MetaData().Lines()
}

// MapListenerCount returns the number of coordinator listeners registered
// on the map view.
func (c *Coordinator) MapListenerCount() int {
	n := 0
	for _, l := range c.mapView.MouseListeners() {
		if own, ok := l.(*mapClickListener); ok && own.c == c {
			n++
		}
	}
	return n
}

// Close removes the coordinator listeners from the map view and the
// highlights it set.
func (c *Coordinator) Close() {
	c.unbind()
	c.unhighlightResults()
	if c.previous != nil {
		c.previous.SetHighlighted(false)
		c.previous = nil
	}
}

func (c *Coordinator) show(results *search.List, index *search.BiMap) {
	c.list = results
	c.index = index
	c.selected = -1
	c.panel.ShowList(results)
}

func (c *Coordinator) unhighlightResults() {
	if c.previousResults == nil {
		return
	}
	for _, p := range c.previousResults.Primitives() {
		p.SetHighlighted(false)
	}
	c.previousResults = nil
}

// bind replaces the coordinator map listeners with one bound to index.
// Listeners registered by others are left alone.
func (c *Coordinator) bind(index *search.BiMap) {
	c.unbind()
	c.listener = &mapClickListener{c: c, index: index}
	c.mapView.AddMouseListener(c.listener)
}

func (c *Coordinator) unbind() {
	for _, l := range c.mapView.MouseListeners() {
		if own, ok := l.(*mapClickListener); ok && own.c == c {
			c.mapView.RemoveMouseListener(l)
		}
	}
	c.listener = nil
}

func (c *Coordinator) zoomTo(p data.Primitive) {
	if r, ok := p.(*data.Relation); ok && !r.HasGeometry() {
		return
	}
	c.mapView.ZoomTo(p.BBox())
}

// mapClickListener selects the item under a map click. It translates
// primitives to list rows with the mapping it was created with.
type mapClickListener struct {
	c     *Coordinator
	index *search.BiMap
}

func (l *mapClickListener) MouseClicked(e host.MouseEvent) {
	l.c.mapClicked(e, l.index)
}

func (c *Coordinator) mapClicked(e host.MouseEvent, index *search.BiMap) {
	if c.previous != nil {
		c.previous.SetHighlighted(false)
		c.previous = nil
	}
	ds := c.layer.DataSet()
	location := c.mapView.LatLon(e.X, e.Y)

	item, err := c.resolver.Nearest(location)
	if err != nil {
		c.log.WithError(err).Error("resolve map click")
		return
	}
	if item == nil {
		ds.ClearSelection()
		return
	}

	id, ok := primitiveID(item)
	if !ok {
		return
	}
	p := ds.PrimitiveByID(id)
	if p == nil {
		c.log.WithField("primitive", id.String()).Debug("clicked item has no primitive")
		return
	}

	p.SetHighlighted(true)
	ds.SetSelected(id)
	c.mapView.Repaint()
	if i, ok := index.Index(id); ok {
		c.selected = i
		c.panel.SelectIndex(i)
	}
	c.previous = p
	c.panel.ShowTags(TagRows(p))
}

// primitiveID maps an atlas item to the primitive it was converted to.
// Reverse edges map to their main edge.
func primitiveID(item atlas.Item) (host.PrimitiveID, bool) {
	id := item.Identifier()
	switch item.Type() {
	case atlas.ItemTypeNode, atlas.ItemTypePoint:
		return host.NodeID(id), true
	case atlas.ItemTypeEdge, atlas.ItemTypeLine, atlas.ItemTypeArea:
		if id < 0 {
			id = -id
		}
		return host.WayID(id), true
	default:
		return host.PrimitiveID{}, false
	}
}

// TagRows returns the tag table of p: the atlas identifier row followed by
// the tags sorted by key.
func TagRows(p data.Primitive) []TagRow {
	tags := p.Tags()
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })

	rows := make([]TagRow, 0, len(tags)+1)
	rows = append(rows, TagRow{Key: AtlasIdentifierRow, Value: strconv.FormatInt(p.ID(), 10)})
	for _, t := range tags {
		rows = append(rows, TagRow{Key: t.Key, Value: t.Value})
	}
	return rows
}

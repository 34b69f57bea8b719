package data

import (
	"reflect"
	"strconv"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// AllSelected returns the selected primitives in selection order.
func (ds *DataSet) AllSelected() []Primitive {
	sel := ds.selection.Load()
	out := make([]Primitive, len(sel.order))
	copy(out, sel.order)
	return out
}

// SelectionEmpty reports whether nothing is selected.
func (ds *DataSet) SelectionEmpty() bool {
	return len(ds.selection.Load().order) == 0
}

// IsSelected reports whether p is selected.
func (ds *DataSet) IsSelected(p Primitive) bool {
	return ds.isSelected(p)
}

func (ds *DataSet) isSelected(p Primitive) bool {
	return ds.selection.Load().set[p]
}

// SetSelected replaces the selection. It reports whether the selection
// changed.
func (ds *DataSet) SetSelected(ids ...host.PrimitiveID) bool {
	return ds.changeSelection(host.Replace, ids)
}

// AddSelected adds to the selection.
func (ds *DataSet) AddSelected(ids ...host.PrimitiveID) bool {
	return ds.changeSelection(host.Add, ids)
}

// RemoveSelected removes from the selection.
func (ds *DataSet) RemoveSelected(ids ...host.PrimitiveID) bool {
	return ds.changeSelection(host.Remove, ids)
}

// ToggleSelected flips the selection state of each primitive.
func (ds *DataSet) ToggleSelected(ids ...host.PrimitiveID) bool {
	return ds.changeSelection(host.Toggle, ids)
}

// ClearSelection deselects everything.
func (ds *DataSet) ClearSelection() bool {
	return ds.changeSelection(host.Replace, nil)
}

// AddSelectionListener registers l. Listeners are called with the
// selection lock held and must not change the selection themselves.
func (ds *DataSet) AddSelectionListener(l host.SelectionListener) {
	ds.selectionMu.Lock()
	defer ds.selectionMu.Unlock()
	ds.listeners = append(ds.listeners, l)
}

// RemoveSelectionListener unregisters l. Listeners of uncomparable types,
// such as SelectionListenerFunc, are never removed.
func (ds *DataSet) RemoveSelectionListener(l host.SelectionListener) {
	ds.selectionMu.Lock()
	defer ds.selectionMu.Unlock()
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return
	}
	for i, existing := range ds.listeners {
		if reflect.TypeOf(existing) == reflect.TypeOf(l) && existing == l {
			ds.listeners = append(ds.listeners[:i], ds.listeners[i+1:]...)
			return
		}
	}
}

// SelectionListenerCount returns the number of registered listeners.
func (ds *DataSet) SelectionListenerCount() int {
	ds.selectionMu.Lock()
	defer ds.selectionMu.Unlock()
	return len(ds.listeners)
}

// changeSelection is the single path for selection changes. The old and
// incoming primitives are projected into the shadow data set, the host
// event is built from them and, unless it is a no-op, its selection is
// translated back through the atlas_id tag, installed and broadcast.
func (ds *DataSet) changeSelection(kind host.EventKind, ids []host.PrimitiveID) bool {
	ds.selectionMu.Lock()
	defer ds.selectionMu.Unlock()

	old := ds.selection.Load()

	ds.shadow.Unlock()
	if err := ds.shadow.Clear(); err != nil {
		ds.shadow.Lock()
		ds.log.WithError(err).Error("clear selection data set")
		return false
	}
	oldHost := ds.projectAll(old.order)
	incoming := make([]Primitive, 0, len(ids))
	for _, id := range ids {
		if p := ds.PrimitiveByIDChecked(id); p != nil {
			incoming = append(incoming, p)
		}
	}
	incomingHost := ds.projectAll(incoming)
	ds.shadow.Lock()

	var event *host.SelectionChangeEvent
	switch kind {
	case host.Add:
		event = host.NewAddEvent(ds.shadow, oldHost, incomingHost)
	case host.Remove:
		event = host.NewRemoveEvent(ds.shadow, oldHost, incomingHost)
	case host.Toggle:
		event = host.NewToggleEvent(ds.shadow, oldHost, incomingHost)
	default:
		event = host.NewReplaceEvent(ds.shadow, oldHost, incomingHost)
	}
	if event.IsNop() {
		return false
	}

	next := &selection{set: make(map[Primitive]bool, len(event.Selection))}
	for _, hp := range event.Selection {
		p := ds.fromHost(hp)
		if p != nil && !next.set[p] {
			next.order = append(next.order, p)
			next.set[p] = true
		}
	}
	ds.selection.Store(next)

	for _, l := range ds.listeners {
		l.SelectionChanged(event)
	}
	return true
}

func (ds *DataSet) projectAll(ps []Primitive) []host.Primitive {
	out := make([]host.Primitive, 0, len(ps))
	for _, p := range ps {
		hp, err := p.ToHost(ds.shadow)
		if err != nil {
			ds.log.WithError(err).WithField("primitive", p.PrimitiveID().String()).Error("project primitive")
			continue
		}
		out = append(out, hp)
	}
	return out
}

// fromHost returns the atlas primitive a shadow primitive was made from.
func (ds *DataSet) fromHost(hp host.Primitive) Primitive {
	id, err := strconv.ParseInt(hp.Get(AtlasIDKey), 10, 64)
	if err != nil {
		ds.log.WithError(err).WithField("primitive", hp.PrimitiveID().String()).Error("missing atlas identifier")
		return nil
	}
	return ds.PrimitiveByIDChecked(host.PrimitiveID{Type: hp.PrimitiveID().Type, ID: id})
}

package host

// EventKind is the kind of selection change.
type EventKind int

const (
	// Replace sets the selection to the incoming primitives.
	Replace EventKind = iota
	// Add adds the incoming primitives to the selection.
	Add
	// Remove removes the incoming primitives from the selection.
	Remove
	// Toggle flips the selection state of each incoming primitive.
	Toggle
)

func (k EventKind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Toggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// SelectionChangeEvent describes a selection change in a data set.
//
// Selections are ordered sets: a primitive appears at most once and keeps
// the position it was first selected at.
type SelectionChangeEvent struct {
	Kind         EventKind
	Source       *DataSet
	OldSelection []Primitive
	Selection    []Primitive
	Added        []Primitive
	Removed      []Primitive
}

// IsNop reports whether the event does not change the selection.
func (e *SelectionChangeEvent) IsNop() bool {
	return len(e.Added) == 0 && len(e.Removed) == 0
}

// NewReplaceEvent builds the event replacing old with incoming.
func NewReplaceEvent(source *DataSet, old, incoming []Primitive) *SelectionChangeEvent {
	return newEvent(Replace, source, old, unique(incoming))
}

// NewAddEvent builds the event adding incoming to old.
func NewAddEvent(source *DataSet, old, incoming []Primitive) *SelectionChangeEvent {
	selection := unique(old)
	seen := idSet(selection)
	for _, p := range incoming {
		if !seen[p.PrimitiveID()] {
			seen[p.PrimitiveID()] = true
			selection = append(selection, p)
		}
	}
	return newEvent(Add, source, old, selection)
}

// NewRemoveEvent builds the event removing incoming from old.
func NewRemoveEvent(source *DataSet, old, incoming []Primitive) *SelectionChangeEvent {
	removed := idSet(incoming)
	var selection []Primitive
	for _, p := range unique(old) {
		if !removed[p.PrimitiveID()] {
			selection = append(selection, p)
		}
	}
	return newEvent(Remove, source, old, selection)
}

// NewToggleEvent builds the event toggling incoming in old.
func NewToggleEvent(source *DataSet, old, incoming []Primitive) *SelectionChangeEvent {
	toggled := unique(incoming)
	flip := idSet(toggled)
	current := idSet(old)

	var selection []Primitive
	for _, p := range unique(old) {
		if !flip[p.PrimitiveID()] {
			selection = append(selection, p)
		}
	}
	for _, p := range toggled {
		if !current[p.PrimitiveID()] {
			selection = append(selection, p)
		}
	}
	return newEvent(Toggle, source, old, selection)
}

func newEvent(kind EventKind, source *DataSet, old, selection []Primitive) *SelectionChangeEvent {
	old = unique(old)
	before := idSet(old)
	after := idSet(selection)

	e := &SelectionChangeEvent{
		Kind:         kind,
		Source:       source,
		OldSelection: old,
		Selection:    selection,
	}
	for _, p := range selection {
		if !before[p.PrimitiveID()] {
			e.Added = append(e.Added, p)
		}
	}
	for _, p := range old {
		if !after[p.PrimitiveID()] {
			e.Removed = append(e.Removed, p)
		}
	}
	return e
}

func unique(ps []Primitive) []Primitive {
	seen := make(map[PrimitiveID]bool, len(ps))
	out := make([]Primitive, 0, len(ps))
	for _, p := range ps {
		if !seen[p.PrimitiveID()] {
			seen[p.PrimitiveID()] = true
			out = append(out, p)
		}
	}
	return out
}

func idSet(ps []Primitive) map[PrimitiveID]bool {
	set := make(map[PrimitiveID]bool, len(ps))
	for _, p := range ps {
		set[p.PrimitiveID()] = true
	}
	return set
}

// SelectionListener receives selection changes.
type SelectionListener interface {
	SelectionChanged(e *SelectionChangeEvent)
}

// SelectionListenerFunc adapts a function to a SelectionListener.
type SelectionListenerFunc func(e *SelectionChangeEvent)

func (f SelectionListenerFunc) SelectionChanged(e *SelectionChangeEvent) { f(e) }

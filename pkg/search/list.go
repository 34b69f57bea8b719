package search

import (
	"fmt"

	"github.com/beetlebugorg/atlasreader/pkg/data"
	"github.com/beetlebugorg/atlasreader/pkg/host"
)

// Entry is a primitive displayed at a list index.
type Entry struct {
	Index     int
	Primitive data.Primitive
}

// String renders the entry as "Index: 0, ID: node 12".
func (e Entry) String() string {
	return fmt.Sprintf("Index: %d, ID: %s", e.Index, e.Primitive.PrimitiveID())
}

// List is an ordered list of entries indexed from 0.
type List struct {
	entries []Entry
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// Add appends p and returns its entry.
func (l *List) Add(p data.Primitive) Entry {
	e := Entry{Index: len(l.entries), Primitive: p}
	l.entries = append(l.entries, e)
	return e
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// At returns the entry at index i.
func (l *List) At(i int) (Entry, bool) {
	if i < 0 || i >= l.Len() {
		return Entry{}, false
	}
	return l.entries[i], true
}

// Entries returns a copy of the entries.
func (l *List) Entries() []Entry {
	out := make([]Entry, l.Len())
	if l != nil {
		copy(out, l.entries)
	}
	return out
}

// Primitives returns the listed primitives in order.
func (l *List) Primitives() []data.Primitive {
	out := make([]data.Primitive, l.Len())
	for i := range out {
		out[i] = l.entries[i].Primitive
	}
	return out
}

// IDs returns the identifiers of the listed primitives in order.
func (l *List) IDs() []host.PrimitiveID {
	out := make([]host.PrimitiveID, l.Len())
	for i := range out {
		out[i] = l.entries[i].Primitive.PrimitiveID()
	}
	return out
}

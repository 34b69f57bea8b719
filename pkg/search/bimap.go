package search

import "github.com/beetlebugorg/atlasreader/pkg/host"

// BiMap is a bijection between list indexes and primitive identifiers.
type BiMap struct {
	ids     map[int]host.PrimitiveID
	indexes map[host.PrimitiveID]int
}

// NewBiMap creates an empty mapping.
func NewBiMap() *BiMap {
	return &BiMap{
		ids:     make(map[int]host.PrimitiveID),
		indexes: make(map[host.PrimitiveID]int),
	}
}

// Put maps index to id. It reports false, leaving the mapping unchanged,
// when either side is already mapped to something else.
func (m *BiMap) Put(index int, id host.PrimitiveID) bool {
	if existing, ok := m.ids[index]; ok {
		return existing == id
	}
	if _, ok := m.indexes[id]; ok {
		return false
	}
	m.ids[index] = id
	m.indexes[id] = index
	return true
}

// ID returns the identifier at index.
func (m *BiMap) ID(index int) (host.PrimitiveID, bool) {
	id, ok := m.ids[index]
	return id, ok
}

// Index returns the index of id.
func (m *BiMap) Index(id host.PrimitiveID) (int, bool) {
	index, ok := m.indexes[id]
	return index, ok
}

func (m *BiMap) Len() int { return len(m.ids) }

// Clear removes every mapping.
func (m *BiMap) Clear() {
	clear(m.ids)
	clear(m.indexes)
}

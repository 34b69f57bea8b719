package host

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned when a locked data set is modified.
	ErrLocked = errors.New("data set is locked")
	// ErrDuplicate is returned when a primitive is added twice.
	ErrDuplicate = errors.New("primitive already in data set")
)

// Policy controls whether a data set may be uploaded or downloaded into.
type Policy int

const (
	PolicyNormal Policy = iota
	PolicyDiscouraged
	PolicyBlocked
)

func (p Policy) String() string {
	switch p {
	case PolicyNormal:
		return "normal"
	case PolicyDiscouraged:
		return "discouraged"
	case PolicyBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// HighlightUpdateListener is notified when highlighted primitives change.
type HighlightUpdateListener interface {
	HighlightUpdated()
}

// DataSet is a mutable collection of editor primitives.
//
// A DataSet is not safe for concurrent use.
type DataSet struct {
	primitives map[PrimitiveID]Primitive
	order      []Primitive
	locked     bool

	UploadPolicy   Policy
	DownloadPolicy Policy
}

// NewDataSet creates an empty, unlocked data set.
func NewDataSet() *DataSet {
	return &DataSet{primitives: make(map[PrimitiveID]Primitive)}
}

func (ds *DataSet) Lock()          { ds.locked = true }
func (ds *DataSet) Unlock()        { ds.locked = false }
func (ds *DataSet) IsLocked() bool { return ds.locked }
func (ds *DataSet) Len() int       { return len(ds.order) }

// AddPrimitive adds p to the data set.
func (ds *DataSet) AddPrimitive(p Primitive) error {
	if ds.locked {
		return ErrLocked
	}
	id := p.PrimitiveID()
	if _, ok := ds.primitives[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	ds.primitives[id] = p
	ds.order = append(ds.order, p)
	return nil
}

// PrimitiveByID returns the primitive with the given identifier, or nil.
func (ds *DataSet) PrimitiveByID(id PrimitiveID) Primitive {
	return ds.primitives[id]
}

// Primitives returns all primitives in insertion order.
func (ds *DataSet) Primitives() []Primitive {
	out := make([]Primitive, len(ds.order))
	copy(out, ds.order)
	return out
}

// Clear removes every primitive.
func (ds *DataSet) Clear() error {
	if ds.locked {
		return ErrLocked
	}
	ds.primitives = make(map[PrimitiveID]Primitive)
	ds.order = nil
	return nil
}

package search

import (
	"errors"
	"fmt"
)

// ErrUnknownMode is returned by ModeForName for names no Mode carries.
var ErrUnknownMode = errors.New("unrecognized search type")

// Mode selects how the search text is interpreted.
type Mode int

const (
	// OSMIdentifier matches the text as a substring of primitive
	// identifiers. Synthesized primitives are never matched.
	OSMIdentifier Mode = iota
	// AtlasIdentifier looks up a node, way or relation by identifier.
	AtlasIdentifier
	// Tag matches tag keys and values.
	Tag
	// Box matches primitives inside "minlat,minlon,maxlat,maxlon".
	Box
	// All returns every listed primitive.
	All
)

var modeNames = []string{
	OSMIdentifier:   "OSM ID",
	AtlasIdentifier: "Atlas ID",
	Tag:             "Tag",
	Box:             "Box",
	All:             "All",
}

// Modes returns every mode in display order.
func Modes() []Mode {
	return []Mode{Tag, OSMIdentifier, AtlasIdentifier, Box, All}
}

// Name returns the display name of the mode.
func (m Mode) Name() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) String() string { return m.Name() }

// ModeForName returns the mode with the given display name.
func ModeForName(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name {
			return Mode(m), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, name)
}

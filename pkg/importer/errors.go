package importer

import (
	"errors"
	"fmt"
)

// ErrCorruptAtlas is matched by every error returned for a file that could
// not be loaded.
var ErrCorruptAtlas = errors.New("corrupt atlas file")

// ErrNoFiles is returned when there is nothing to import.
var ErrNoFiles = errors.New("no atlas files")

// CorruptAtlasError wraps a loader failure for one file.
type CorruptAtlasError struct {
	Path string
	Err  error
}

func (e *CorruptAtlasError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCorruptAtlas, e.Path, e.Err)
}

func (e *CorruptAtlasError) Unwrap() error { return e.Err }

func (e *CorruptAtlasError) Is(target error) bool { return target == ErrCorruptAtlas }

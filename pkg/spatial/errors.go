package spatial

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedType is returned for items that are not a node, point,
// edge, line or area.
var ErrUnrecognizedType = errors.New("unrecognized type")

// UnrecognizedTypeError carries the Go type of the rejected item.
type UnrecognizedTypeError struct {
	Type string
}

func (e *UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("Unrecognized type %s", e.Type)
}

func (e *UnrecognizedTypeError) Unwrap() error {
	return ErrUnrecognizedType
}

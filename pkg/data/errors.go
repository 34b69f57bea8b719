package data

import (
	"errors"
	"fmt"

	"github.com/beetlebugorg/atlasreader/pkg/host"
)

var (
	// ErrUnsupported is returned by every mutating operation on a primitive.
	ErrUnsupported = errors.New("unsupported operation on read-only primitive")

	// ErrInvalidID is returned when an identifier cannot be assigned.
	ErrInvalidID = errors.New("invalid identifier")

	// ErrIntegrity is wrapped by every IntegrityError.
	ErrIntegrity = errors.New("data set integrity violation")

	// ErrNotFound is reported by checked lookups that miss.
	ErrNotFound = errors.New("primitive not found")
)

// IntegrityError indicates a primitive could not be added to a data set
type IntegrityError struct {
	Primitive host.PrimitiveID
	Reason    string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("unable to add %s: %s", e.Primitive, e.Reason)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

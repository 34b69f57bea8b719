package atlas

import (
	"fmt"
)

// DuplicateEntityError indicates two entities of the same type share an identifier
type DuplicateEntityError struct {
	Type       ItemType
	Identifier int64
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("duplicate %v %d", e.Type, e.Identifier)
}

// InvalidGeometryError indicates geometry that cannot represent its item type
type InvalidGeometryError struct {
	Type       ItemType
	Identifier int64
	Reason     string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry (%v %d): %s", e.Type, e.Identifier, e.Reason)
}

// MissingMemberError indicates a relation references an entity that does not exist
type MissingMemberError struct {
	Relation   int64
	Type       ItemType
	Identifier int64
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("relation %d references missing %v %d",
		e.Relation, e.Type, e.Identifier)
}

// DecodeError indicates an atlas document could not be decoded
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode atlas %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

package models

import (
	"fmt"
)

// DanglingReferenceError is returned by Build when a link names a node
// that is not part of the node records.
type DanglingReferenceError struct {
	Link   int    // index of the offending link record
	Field  string // "source" or "target"
	NodeID string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("link %d: %s %q does not exist in the node set", e.Link, e.Field, e.NodeID)
}

// DuplicateIdentifierError is returned by Build when two node records share an id
type DuplicateIdentifierError struct {
	NodeID string
	First  int
	Second int
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("node id %q used by records %d and %d", e.NodeID, e.First, e.Second)
}

// InvalidRecordError reports a record whose fields cannot form a valid model
type InvalidRecordError struct {
	Kind   string // "node" or "link"
	Index  int
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("%s %d: invalid %s: %s", e.Kind, e.Index, e.Field, e.Reason)
}

// ViewportError is returned by Build when the viewport cannot be laid out on
type ViewportError struct {
	Width  float64
	Height float64
}

func (e *ViewportError) Error() string {
	return fmt.Sprintf("viewport %gx%g must be positive and at most %d pixels per side", e.Width, e.Height, MaxViewport)
}

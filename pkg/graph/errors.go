package graph

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrUnknownNode   = errors.New("edge references unknown node")
	ErrSelfLoop      = errors.New("self-loop edge")
	ErrNodeNotFound  = errors.New("node not found")
)

// InputError provides structured error information for graph construction
// and lookup failures. Construction errors are fatal to the run: no partial
// graph is ever returned alongside one.
type InputError struct {
	Op     string // operation that failed, e.g. "build", "neighbors"
	Entity string // "node" or "edge"
	ID     string // offending node id or "from->to" edge pair
	Cause  error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *InputError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *InputError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func duplicateNodeError(id string) error {
	return &InputError{Op: "build", Entity: "node", ID: id, Cause: ErrDuplicateNode}
}

func unknownNodeError(from, to, unknown string) error {
	return &InputError{
		Op:     "build",
		Entity: "edge",
		ID:     from + "->" + to,
		Cause:  fmt.Errorf("%w: %q", ErrUnknownNode, unknown),
	}
}

func selfLoopError(id string) error {
	return &InputError{Op: "build", Entity: "edge", ID: id + "->" + id, Cause: ErrSelfLoop}
}

func nodeNotFoundError(op, id string) error {
	return &InputError{Op: op, Entity: "node", ID: id, Cause: ErrNodeNotFound}
}

// IsNotFound returns true if the error is a node lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

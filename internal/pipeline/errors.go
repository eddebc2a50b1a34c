package pipeline

import (
	"errors"
	"fmt"
)

// ErrObjectNotFound reports a missing bucket or object.
var ErrObjectNotFound = errors.New("object not found")

// Kind classifies which step of the pipeline failed.
type Kind string

// Failure kinds, one per pipeline step.
const (
	KindUnknown     Kind = "unknown"
	KindRetrieval   Kind = "retrieval"
	KindPartition   Kind = "partition"
	KindPersistence Kind = "persistence"
	KindPublish     Kind = "publish"
)

// Error is returned by Orchestrator.Process. Op names the failed step and Err
// is the backend error, untouched.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

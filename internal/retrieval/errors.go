// ABOUTME: Error taxonomy for building and querying snapshots
// ABOUTME: Sentinels plus CollaboratorError wrapping embedder failures
package retrieval

import (
	"errors"
	"fmt"
)

var (
	// ErrCollaborator is matched by every CollaboratorError.
	ErrCollaborator = errors.New("embedding collaborator failed")
	// ErrNoSnapshot is returned by Retrieve before any snapshot has been published.
	ErrNoSnapshot = errors.New("no index snapshot published")
	// ErrBuildInProgress is returned when Rebuild is called while another build runs.
	ErrBuildInProgress = errors.New("index build already in progress")
	// ErrNothingIndexed is returned by Rebuild when every conversation failed
	// and a non-empty snapshot was left in place.
	ErrNothingIndexed = errors.New("every conversation failed; previous snapshot kept")
)

// CollaboratorError wraps a failure of the external embedding function.
// The engine does not retry; retry policy belongs to the embedder.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}

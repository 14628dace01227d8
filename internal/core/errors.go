// ABOUTME: Data integrity errors raised while walking reply graphs
// ABOUTME: Matched with errors.Is(err, ErrDataIntegrity)
package core

import (
	"errors"
	"fmt"
)

// ErrDataIntegrity is the sentinel matched by every DataIntegrityError.
var ErrDataIntegrity = errors.New("data integrity error")

// DataIntegrityError reports a reply graph that cannot be carved into subthreads,
// such as a reply cycle or a duplicated post number.
type DataIntegrityError struct {
	ConversationID string
	PostNumbers    []int
	Reason         string
}

func (e *DataIntegrityError) Error() string {
	if e.ConversationID == "" {
		return fmt.Sprintf("data integrity: %s (posts %v)", e.Reason, e.PostNumbers)
	}
	return fmt.Sprintf("data integrity: conversation %s: %s (posts %v)", e.ConversationID, e.Reason, e.PostNumbers)
}

// Is lets errors.Is match the ErrDataIntegrity sentinel.
func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

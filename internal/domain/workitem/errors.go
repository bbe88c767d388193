package workitem

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidType indicates an unrecognized work item type.
	ErrInvalidType = errors.New("invalid work item type: must be Task or Epic")
	// ErrMissingTitle indicates an empty title after trimming.
	ErrMissingTitle = errors.New("work item title is required")
	// ErrInvalidPriority indicates a priority outside the valid range.
	ErrInvalidPriority = errors.New("priority must be an integer between 1 and 4")
	// ErrEmptyTaskTitle indicates a blank entry in a task title list.
	ErrEmptyTaskTitle = errors.New("task titles contain an empty entry")
	// ErrSegmentationMismatch indicates description and title counts cannot be aligned.
	ErrSegmentationMismatch = errors.New("task description count does not match task title count")
	// ErrInvalidLinkTarget indicates a link endpoint of the wrong work item type.
	ErrInvalidLinkTarget = errors.New("invalid link target")
	// ErrNotFound indicates the tracker has no work item with the given id.
	ErrNotFound = errors.New("work item not found")
	// ErrEmptyProject indicates a blank project name.
	ErrEmptyProject = errors.New("project name is required")
)

// RemoteError carries a tracker failure with its message preserved
// verbatim. The orchestrator wraps these, never inspects them.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote %s failed (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("remote %s failed: %s", e.Op, e.Message)
}

// IsValidation reports whether err is a local validation failure that
// must be returned before any remote call is made.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrMissingTitle) ||
		errors.Is(err, ErrInvalidPriority) ||
		errors.Is(err, ErrEmptyTaskTitle) ||
		errors.Is(err, ErrSegmentationMismatch) ||
		errors.Is(err, ErrEmptyProject)
}

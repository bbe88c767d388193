package workitem

import (
	"strings"
	"time"
)

// Type identifies the kind of work item
type Type string

const (
	TypeTask Type = "Task"
	TypeEpic Type = "Epic"
)

// ParseType canonicalizes a work item type string, case-insensitively.
func ParseType(s string) (Type, error) {
	switch {
	case strings.EqualFold(s, string(TypeTask)):
		return TypeTask, nil
	case strings.EqualFold(s, string(TypeEpic)):
		return TypeEpic, nil
	default:
		return "", ErrInvalidType
	}
}

// Draft is the validated input to work item creation
type Draft struct {
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Record is a work item as known to the remote tracker
type Record struct {
	ID          int       `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	State       string    `json:"state,omitempty"`
	Assignee    string    `json:"assignee,omitempty"`
	Priority    *int      `json:"priority,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	URL         string    `json:"url,omitempty"`
	ParentID    *int      `json:"parent_id,omitempty"`
	Children    []int     `json:"children,omitempty"`
}

// LinkStatus represents the outcome of a parent/child link attempt
type LinkStatus string

const (
	LinkLinked LinkStatus = "linked"
	LinkFailed LinkStatus = "failed"
	// LinkSkipped marks tasks that were never linked because creation failed.
	LinkSkipped LinkStatus = "skipped"
)

// LinkResult is the outcome of connecting an Epic id to a Task id
type LinkResult struct {
	EpicID int        `json:"epic_id"`
	TaskID int        `json:"task_id"`
	Status LinkStatus `json:"status"`
	Err    string     `json:"error,omitempty"`
}

// TaskInput pairs a task title with its description
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskOutcome records one task row of a compound creation: either the
// created record or the error that stopped it, plus the link attempt.
type TaskOutcome struct {
	Title  string
	Record *Record
	Err    error
	Link   LinkResult
}

// CompoundResult aggregates one Epic creation with its task creations
// and link attempts, in input order. Constructed fresh per invocation
// and discarded after the report is rendered.
type CompoundResult struct {
	Epic  *Record
	Tasks []TaskOutcome
}

// CreatedCount returns the number of successfully created tasks.
func (r *CompoundResult) CreatedCount() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Record != nil {
			n++
		}
	}
	return n
}

// FailedCount returns the number of task rows that failed creation.
func (r *CompoundResult) FailedCount() int {
	return len(r.Tasks) - r.CreatedCount()
}

// LinkedCount returns the number of successful link attempts.
func (r *CompoundResult) LinkedCount() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Link.Status == LinkLinked {
			n++
		}
	}
	return n
}

// LinkFailedCount returns the number of failed link attempts.
// Skipped rows are not counted; their links were never attempted.
func (r *CompoundResult) LinkFailedCount() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Link.Status == LinkFailed {
			n++
		}
	}
	return n
}

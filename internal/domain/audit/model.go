package audit

import (
	"context"
	"time"
)

// Op identifies the orchestration operation an entry records
type Op string

const (
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpLink       Op = "link"
	OpCompound   Op = "create_epic_with_tasks"
	OpSetProject Op = "set_project"
)

// Outcome is the recorded result of an operation
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Entry is one row of the local audit trail. It records what this
// server attempted and how it went, never remote state.
type Entry struct {
	ID         int64     `json:"id"`
	Op         Op        `json:"op"`
	Project    string    `json:"project"`
	WorkItemID *int      `json:"work_item_id,omitempty"`
	Outcome    Outcome   `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListOptions filters audit listings.
type ListOptions struct {
	Project    string
	Op         *Op
	WorkItemID *int
	Limit      int
	Offset     int
}

// Repository persists audit entries.
type Repository interface {
	Log(ctx context.Context, entry *Entry) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
}

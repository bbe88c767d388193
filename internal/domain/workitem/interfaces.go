package workitem

import (
	"context"

	"boardsmcp/internal/domain/audit"
)

// CreateFields carries the field values for a work item creation.
// Empty strings and nil pointers are simply not sent.
type CreateFields struct {
	Title       string
	Description string
	Assignee    string
	Priority    *int
	Tags        []string
}

// UpdateFields carries a partial update. A nil pointer leaves the field
// unchanged on the tracker; a pointer to an empty value clears it. The
// two must stay distinguishable all the way to the wire.
type UpdateFields struct {
	Title       *string
	Description *string
	Assignee    *string
	Priority    *int
	Tags        *string
}

// Backend performs work item operations against the remote tracker.
// Its errors are opaque to the orchestrator beyond not-found detection.
type Backend interface {
	CreateWorkItem(ctx context.Context, project string, typ Type, fields CreateFields) (*Record, error)
	UpdateWorkItem(ctx context.Context, project string, id int, fields UpdateFields) (*Record, error)
	DeleteWorkItem(ctx context.Context, project string, id int) error
	GetWorkItem(ctx context.Context, project string, id int) (*Record, error)
	LinkParentChild(ctx context.Context, project string, parentID, childID int) error
}

// AuditRepository records orchestration outcomes locally and lists
// them back, newest first.
type AuditRepository interface {
	Log(ctx context.Context, entry *audit.Entry) error
	List(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error)
}

package workitem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"boardsmcp/internal/domain/audit"
	"boardsmcp/internal/htmltext"
)

// Service orchestrates work item operations: validation, remote
// creation, linking, and aggregation of partial failures. All remote
// calls go through the Backend; per-call project selection is read from
// the guarded project context.
type Service struct {
	backend Backend
	audits  AuditRepository
	logger  *slog.Logger

	org string

	mu      sync.RWMutex
	project string
}

// NewService creates a work item service. audits may be nil to disable
// the local audit trail.
func NewService(backend Backend, audits AuditRepository, org, project string, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		audits:  audits,
		logger:  logger,
		org:     org,
		project: project,
	}
}

// Project returns the currently selected project name.
func (s *Service) Project() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// SetProject replaces the current project selection. The project is not
// verified remotely; a later operation against a nonexistent project
// fails with the tracker's own diagnostic.
func (s *Service) SetProject(ctx context.Context, name string) (previous, current string, err error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", "", ErrEmptyProject
	}

	s.mu.Lock()
	previous = s.project
	s.project = trimmed
	s.mu.Unlock()

	s.logAudit(ctx, audit.OpSetProject, trimmed, nil, nil,
		fmt.Sprintf("switched from %q to %q", previous, trimmed))
	return previous, trimmed, nil
}

// Create validates a draft and creates the work item. Validation
// failures return before any remote call.
func (s *Service) Create(ctx context.Context, draft Draft) (*Record, error) {
	normalized, err := NormalizeDraft(draft)
	if err != nil {
		return nil, err
	}
	return s.createIn(ctx, s.Project(), normalized)
}

// UpdateRequest describes a partial work item update. Nil fields are
// left unchanged on the tracker; pointers to empty strings clear the
// field. The two are distinct operations.
type UpdateRequest struct {
	ID          int
	Title       *string
	Description *string
	Assignee    *string
	Priority    *int
	Tags        *string
}

// Update applies a partial update to an existing work item.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Record, error) {
	if req.Priority != nil && (*req.Priority < 1 || *req.Priority > 4) {
		return nil, ErrInvalidPriority
	}

	fields := UpdateFields{
		Title:    req.Title,
		Assignee: req.Assignee,
		Priority: req.Priority,
		Tags:     req.Tags,
	}
	if req.Description != nil {
		rendered := htmltext.Render(*req.Description)
		fields.Description = &rendered
	}

	project := s.Project()
	rec, err := s.backend.UpdateWorkItem(ctx, project, req.ID, fields)
	if err != nil {
		s.logAudit(ctx, audit.OpUpdate, project, &req.ID, err, "")
		return nil, err
	}
	rec.URL = itemURL(s.org, project, rec.ID)

	s.logAudit(ctx, audit.OpUpdate, project, &rec.ID, nil, fmt.Sprintf("updated %s %q", rec.Type, rec.Title))
	return rec, nil
}

// Delete removes a work item. The tracker is the sole source of truth
// for whether the id existed.
func (s *Service) Delete(ctx context.Context, id int) error {
	project := s.Project()
	if err := s.backend.DeleteWorkItem(ctx, project, id); err != nil {
		s.logAudit(ctx, audit.OpDelete, project, &id, err, "")
		return err
	}
	s.logAudit(ctx, audit.OpDelete, project, &id, nil, "deleted")
	return nil
}

// Get is a pure read-through to the tracker; no local caching.
func (s *Service) Get(ctx context.Context, id int) (*Record, error) {
	project := s.Project()
	rec, err := s.backend.GetWorkItem(ctx, project, id)
	if err != nil {
		return nil, err
	}
	rec.URL = itemURL(s.org, project, rec.ID)
	return rec, nil
}

// GetChildren fetches the child records of an Epic. Children that
// cannot be retrieved are skipped.
func (s *Service) GetChildren(ctx context.Context, rec *Record) []*Record {
	if rec == nil || len(rec.Children) == 0 {
		return nil
	}
	children := make([]*Record, 0, len(rec.Children))
	for _, id := range rec.Children {
		child, err := s.Get(ctx, id)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("skipping unreadable child", "id", id, "error", err)
			}
			continue
		}
		children = append(children, child)
	}
	return children
}

// Link sets the task's parent reference to the epic. Both endpoints are
// resolved and type-checked up front: a mislinked hierarchy is hard to
// detect later, and the message is more actionable at this layer than
// the tracker's own constraint error.
func (s *Service) Link(ctx context.Context, epicID, taskID int) error {
	project := s.Project()

	parent, err := s.resolveLinkTarget(ctx, project, epicID)
	if err != nil {
		return err
	}
	child, err := s.resolveLinkTarget(ctx, project, taskID)
	if err != nil {
		return err
	}
	if parent.Type != TypeEpic {
		return fmt.Errorf("%w: work item %d is a %s, not an Epic", ErrInvalidLinkTarget, epicID, parent.Type)
	}
	if child.Type != TypeTask {
		return fmt.Errorf("%w: work item %d is a %s, not a Task", ErrInvalidLinkTarget, taskID, child.Type)
	}

	if err := s.backend.LinkParentChild(ctx, project, epicID, taskID); err != nil {
		s.logAudit(ctx, audit.OpLink, project, &taskID, err, fmt.Sprintf("link to epic %d", epicID))
		return err
	}
	s.logAudit(ctx, audit.OpLink, project, &taskID, nil, fmt.Sprintf("linked to epic %d", epicID))
	return nil
}

// CompoundRequest describes one Epic plus its tasks. Assignee, priority
// and tags apply to every created item.
type CompoundRequest struct {
	EpicTitle       string
	EpicDescription string
	Tasks           []TaskInput
	Assignee        string
	Priority        *int
	Tags            []string
}

// CreateEpicWithTasks creates an Epic, then its tasks, linking each
// task as it is created. The operation fails outright only when the
// epic draft is invalid or the epic itself cannot be created; per-task
// failures are recorded and the loop continues, since partial progress
// plus a clear failure list is worth more to the caller than an
// all-or-nothing rollback. Nothing is compensated on partial failure.
func (s *Service) CreateEpicWithTasks(ctx context.Context, req CompoundRequest) (*CompoundResult, error) {
	epicDraft, err := NormalizeDraft(Draft{
		Type:        TypeEpic,
		Title:       req.EpicTitle,
		Description: req.EpicDescription,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
		Tags:        req.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("epic: %w", err)
	}

	// The whole compound operation targets one project, even if a
	// project switch races with it.
	project := s.Project()

	epic, err := s.createIn(ctx, project, epicDraft)
	if err != nil {
		return nil, fmt.Errorf("creating epic: %w", err)
	}

	result := &CompoundResult{
		Epic:  epic,
		Tasks: make([]TaskOutcome, 0, len(req.Tasks)),
	}

	for _, task := range req.Tasks {
		outcome := TaskOutcome{
			Title: task.Title,
			Link:  LinkResult{EpicID: epic.ID, Status: LinkSkipped},
		}

		draft, err := NormalizeDraft(Draft{
			Type:        TypeTask,
			Title:       task.Title,
			Description: task.Description,
			Assignee:    req.Assignee,
			Priority:    req.Priority,
			Tags:        req.Tags,
		})
		if err != nil {
			outcome.Err = err
			result.Tasks = append(result.Tasks, outcome)
			continue
		}

		rec, err := s.createIn(ctx, project, draft)
		if err != nil {
			outcome.Err = err
			result.Tasks = append(result.Tasks, outcome)
			continue
		}
		outcome.Record = rec
		outcome.Link.TaskID = rec.ID

		// Types are known here; both records were just created, so the
		// up-front type check in Link is unnecessary.
		if err := s.backend.LinkParentChild(ctx, project, epic.ID, rec.ID); err != nil {
			outcome.Link.Status = LinkFailed
			outcome.Link.Err = err.Error()
		} else {
			outcome.Link.Status = LinkLinked
		}
		result.Tasks = append(result.Tasks, outcome)
	}

	s.logAudit(ctx, audit.OpCompound, project, &epic.ID, nil,
		fmt.Sprintf("%d/%d tasks created, %d linked",
			result.CreatedCount(), len(result.Tasks), result.LinkedCount()))
	return result, nil
}

// RecentActivity lists audit entries, newest first. An empty project
// filter defaults to the current project; a nil audit repository yields
// an empty list.
func (s *Service) RecentActivity(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error) {
	if s.audits == nil {
		return nil, nil
	}
	if opts.Project == "" {
		opts.Project = s.Project()
	}
	return s.audits.List(ctx, opts)
}

func (s *Service) createIn(ctx context.Context, project string, draft Draft) (*Record, error) {
	fields := CreateFields{
		Title:       draft.Title,
		Description: htmltext.Render(draft.Description),
		Assignee:    draft.Assignee,
		Priority:    draft.Priority,
		Tags:        draft.Tags,
	}

	rec, err := s.backend.CreateWorkItem(ctx, project, draft.Type, fields)
	if err != nil {
		s.logAudit(ctx, audit.OpCreate, project, nil, err, fmt.Sprintf("%s %q", draft.Type, draft.Title))
		return nil, err
	}
	rec.URL = itemURL(s.org, project, rec.ID)

	s.logAudit(ctx, audit.OpCreate, project, &rec.ID, nil, fmt.Sprintf("created %s %q", rec.Type, rec.Title))
	return rec, nil
}

func (s *Service) resolveLinkTarget(ctx context.Context, project string, id int) (*Record, error) {
	rec, err := s.backend.GetWorkItem(ctx, project, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: work item %d does not resolve", ErrInvalidLinkTarget, id)
		}
		return nil, err
	}
	return rec, nil
}

// logAudit records an operation outcome best-effort; audit failures
// never affect the operation's result.
func (s *Service) logAudit(ctx context.Context, op audit.Op, project string, id *int, opErr error, detail string) {
	if s.audits == nil {
		return
	}
	outcome := audit.OutcomeOK
	if opErr != nil {
		outcome = audit.OutcomeFailed
		if detail == "" {
			detail = opErr.Error()
		} else {
			detail = fmt.Sprintf("%s: %v", detail, opErr)
		}
	}
	entry := &audit.Entry{
		Op:         op,
		Project:    project,
		WorkItemID: id,
		Outcome:    outcome,
		Detail:     detail,
	}
	if err := s.audits.Log(ctx, entry); err != nil && s.logger != nil {
		s.logger.Debug("audit log write failed", "op", op, "error", err)
	}
}

func itemURL(org, project string, id int) string {
	return fmt.Sprintf("https://dev.azure.com/%s/%s/_workitems/edit/%d", org, project, id)
}

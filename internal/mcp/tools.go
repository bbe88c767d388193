package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"boardsmcp/internal/domain/audit"
	"boardsmcp/internal/domain/workitem"
	"boardsmcp/internal/report"
)

// handler binds tool implementations to the work item service.
type handler struct {
	svc WorkItemService
}

func registerTools(server *sdkmcp.Server, svc WorkItemService) {
	h := &handler{svc: svc}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_work_item",
		Description: "Create a single work item (Task or Epic) in the current project.",
	}, h.handleCreateWorkItem)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_work_item",
		Description: "Update fields of an existing work item. Omitted fields are left unchanged; an explicit empty string for assigned_to or tags clears the field.",
	}, h.handleUpdateWorkItem)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_work_item",
		Description: "Delete a work item by id. Irreversible.",
	}, h.handleDeleteWorkItem)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_work_item",
		Description: "Get work item details by id. For Epics, includes a breakdown of all linked child work items with their URLs.",
	}, h.handleGetWorkItem)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "link_task_to_epic",
		Description: "Establish a parent-child relationship between an Epic and a Task. Both ids are type-checked before the link is attempted.",
	}, h.handleLinkTaskToEpic)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_current_project",
		Description: "Get the currently configured project name.",
	}, h.handleGetCurrentProject)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_project",
		Description: "Switch the project that subsequent operations target. The project is not verified remotely.",
	}, h.handleSetProject)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent operations recorded by this server (creates, updates, deletes, links), newest first. Reflects what this server attempted, not remote state.",
	}, h.handleGetRecentActivity)

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_epic_with_tasks",
		Description: "Create an Epic with multiple Tasks and link them together in one operation. Returns a summary table with ids, URLs, and per-row status; individual task failures do not abort the rest.",
	}, h.handleCreateEpicWithTasks)
}

// --- Tool input/output types ---

type createWorkItemInput struct {
	WorkItemType string `json:"work_item_type" jsonschema:"required,the type of work item to create: Task or Epic"`
	Title        string `json:"title" jsonschema:"required,the work item title"`
	Description  string `json:"description,omitempty" jsonschema:"description text; markdown-style headers and lists are converted to HTML"`
	AssignedTo   string `json:"assigned_to,omitempty" jsonschema:"email address of the assignee"`
	Priority     *int   `json:"priority,omitempty" jsonschema:"priority level 1-4 where 1 is highest"`
	Tags         string `json:"tags,omitempty" jsonschema:"semicolon-separated tags"`
}

type workItemOutput struct {
	ID       int      `json:"id"`
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	State    string   `json:"state,omitempty"`
	Assignee string   `json:"assignee,omitempty"`
	Priority *int     `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	URL      string   `json:"url"`
	ParentID *int     `json:"parent_id,omitempty"`
	Children []int    `json:"children,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type updateWorkItemInput struct {
	ItemID      int     `json:"item_id" jsonschema:"required,the id of the work item to update"`
	Title       *string `json:"title,omitempty" jsonschema:"new title"`
	Description *string `json:"description,omitempty" jsonschema:"new description"`
	AssignedTo  *string `json:"assigned_to,omitempty" jsonschema:"email address to assign, or empty string to unassign"`
	Priority    *int    `json:"priority,omitempty" jsonschema:"new priority level 1-4"`
	Tags        *string `json:"tags,omitempty" jsonschema:"new semicolon-separated tags, or empty string to remove all tags"`
}

type deleteWorkItemInput struct {
	ItemID int `json:"item_id" jsonschema:"required,the id of the work item to delete"`
}

type deleteWorkItemOutput struct {
	Message string `json:"message"`
}

type getWorkItemInput struct {
	ItemID int `json:"item_id" jsonschema:"required,the id of the work item to retrieve"`
}

type getWorkItemOutput struct {
	Item    workItemOutput `json:"item"`
	Details string         `json:"details"`
}

type linkInput struct {
	EpicID int `json:"epic_id" jsonschema:"required,the id of the Epic (parent)"`
	TaskID int `json:"task_id" jsonschema:"required,the id of the Task (child)"`
}

type linkOutput struct {
	Message string `json:"message"`
}

type getCurrentProjectInput struct{}

type projectOutput struct {
	Project string `json:"project"`
}

type setProjectInput struct {
	NewProjectName string `json:"new_project_name" jsonschema:"required,the name of the project to switch to"`
}

type setProjectOutput struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Message  string `json:"message"`
}

type recentActivityInput struct {
	Op         string `json:"op,omitempty" jsonschema:"filter by operation: create, update, delete, link, create_epic_with_tasks, or set_project"`
	WorkItemID *int   `json:"work_item_id,omitempty" jsonschema:"filter by work item id"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of entries to return, default 20"`
}

type activityEntryOutput struct {
	Op         string `json:"op"`
	Project    string `json:"project"`
	WorkItemID *int   `json:"work_item_id,omitempty"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type recentActivityOutput struct {
	Entries []activityEntryOutput `json:"entries"`
}

type createEpicWithTasksInput struct {
	EpicTitle        string `json:"epic_title" jsonschema:"required,the title of the Epic to create"`
	EpicDescription  string `json:"epic_description,omitempty" jsonschema:"description of the Epic"`
	TaskTitles       string `json:"task_titles,omitempty" jsonschema:"comma-separated list of Task titles"`
	TaskDescriptions string `json:"task_descriptions,omitempty" jsonschema:"Task descriptions separated by ||| (comma accepted as legacy fallback)"`
	AssignedTo       string `json:"assigned_to,omitempty" jsonschema:"email address to assign the Epic and all Tasks to"`
	Priority         *int   `json:"priority,omitempty" jsonschema:"priority level 1-4 applied to all work items"`
	Tags             string `json:"tags,omitempty" jsonschema:"semicolon-separated tags applied to all work items"`
}

type compoundTaskOutput struct {
	Title      string `json:"title"`
	ID         int    `json:"id,omitempty"`
	URL        string `json:"url,omitempty"`
	Error      string `json:"error,omitempty"`
	LinkStatus string `json:"link_status"`
	LinkError  string `json:"link_error,omitempty"`
}

type createEpicWithTasksOutput struct {
	Epic        workItemOutput       `json:"epic"`
	Tasks       []compoundTaskOutput `json:"tasks"`
	Created     int                  `json:"tasks_created"`
	Failed      int                  `json:"tasks_failed"`
	Linked      int                  `json:"tasks_linked"`
	LinksFailed int                  `json:"links_failed"`
	Report      string               `json:"report"`
}

// --- Tool handlers ---

func (h *handler) handleCreateWorkItem(ctx context.Context, _ *sdkmcp.CallToolRequest, input createWorkItemInput) (*sdkmcp.CallToolResult, workItemOutput, error) {
	rec, err := h.svc.Create(ctx, workitem.Draft{
		Type:        workitem.Type(input.WorkItemType),
		Title:       input.Title,
		Description: input.Description,
		Assignee:    input.AssignedTo,
		Priority:    input.Priority,
		Tags:        workitem.SplitTags(input.Tags),
	})
	if err != nil {
		return errorResult(describeError(err)), workItemOutput{}, nil
	}

	out := recordToOutput(rec)
	out.Message = fmt.Sprintf("%s created successfully! ID: %d, URL: %s", rec.Type, rec.ID, rec.URL)
	return nil, out, nil
}

func (h *handler) handleUpdateWorkItem(ctx context.Context, _ *sdkmcp.CallToolRequest, input updateWorkItemInput) (*sdkmcp.CallToolResult, workItemOutput, error) {
	if input.ItemID <= 0 {
		return errorResult("item_id is required and must be positive"), workItemOutput{}, nil
	}

	rec, err := h.svc.Update(ctx, workitem.UpdateRequest{
		ID:          input.ItemID,
		Title:       input.Title,
		Description: input.Description,
		Assignee:    input.AssignedTo,
		Priority:    input.Priority,
		Tags:        input.Tags,
	})
	if err != nil {
		return errorResult(describeError(err)), workItemOutput{}, nil
	}

	out := recordToOutput(rec)
	out.Message = fmt.Sprintf("Work item updated successfully! URL: %s", rec.URL)
	return nil, out, nil
}

func (h *handler) handleDeleteWorkItem(ctx context.Context, _ *sdkmcp.CallToolRequest, input deleteWorkItemInput) (*sdkmcp.CallToolResult, deleteWorkItemOutput, error) {
	if input.ItemID <= 0 {
		return errorResult("item_id is required and must be positive"), deleteWorkItemOutput{}, nil
	}

	if err := h.svc.Delete(ctx, input.ItemID); err != nil {
		return errorResult(describeError(err)), deleteWorkItemOutput{}, nil
	}

	return nil, deleteWorkItemOutput{
		Message: fmt.Sprintf("Work item %d deleted successfully", input.ItemID),
	}, nil
}

func (h *handler) handleGetWorkItem(ctx context.Context, _ *sdkmcp.CallToolRequest, input getWorkItemInput) (*sdkmcp.CallToolResult, getWorkItemOutput, error) {
	if input.ItemID <= 0 {
		return errorResult("item_id is required and must be positive"), getWorkItemOutput{}, nil
	}

	rec, err := h.svc.Get(ctx, input.ItemID)
	if err != nil {
		return errorResult(describeError(err)), getWorkItemOutput{}, nil
	}

	children := h.svc.GetChildren(ctx, rec)
	return nil, getWorkItemOutput{
		Item:    recordToOutput(rec),
		Details: report.Details(rec, children),
	}, nil
}

func (h *handler) handleLinkTaskToEpic(ctx context.Context, _ *sdkmcp.CallToolRequest, input linkInput) (*sdkmcp.CallToolResult, linkOutput, error) {
	if input.EpicID <= 0 || input.TaskID <= 0 {
		return errorResult("epic_id and task_id are required and must be positive"), linkOutput{}, nil
	}

	if err := h.svc.Link(ctx, input.EpicID, input.TaskID); err != nil {
		return errorResult(describeError(err)), linkOutput{}, nil
	}

	return nil, linkOutput{
		Message: fmt.Sprintf("Successfully linked Task %d to Epic %d", input.TaskID, input.EpicID),
	}, nil
}

func (h *handler) handleGetCurrentProject(_ context.Context, _ *sdkmcp.CallToolRequest, _ getCurrentProjectInput) (*sdkmcp.CallToolResult, projectOutput, error) {
	return nil, projectOutput{Project: h.svc.Project()}, nil
}

func (h *handler) handleSetProject(ctx context.Context, _ *sdkmcp.CallToolRequest, input setProjectInput) (*sdkmcp.CallToolResult, setProjectOutput, error) {
	previous, current, err := h.svc.SetProject(ctx, input.NewProjectName)
	if err != nil {
		return errorResult(describeError(err)), setProjectOutput{}, nil
	}

	return nil, setProjectOutput{
		Previous: previous,
		Current:  current,
		Message:  fmt.Sprintf("Project changed from %q to %q", previous, current),
	}, nil
}

func (h *handler) handleGetRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, input recentActivityInput) (*sdkmcp.CallToolResult, recentActivityOutput, error) {
	opts := audit.ListOptions{
		WorkItemID: input.WorkItemID,
		Limit:      input.Limit,
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if input.Op != "" {
		op := audit.Op(input.Op)
		opts.Op = &op
	}

	entries, err := h.svc.RecentActivity(ctx, opts)
	if err != nil {
		return errorResult(describeError(err)), recentActivityOutput{}, nil
	}

	out := recentActivityOutput{Entries: make([]activityEntryOutput, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, activityEntryOutput{
			Op:         string(e.Op),
			Project:    e.Project,
			WorkItemID: e.WorkItemID,
			Outcome:    string(e.Outcome),
			Detail:     e.Detail,
			CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

func (h *handler) handleCreateEpicWithTasks(ctx context.Context, _ *sdkmcp.CallToolRequest, input createEpicWithTasksInput) (*sdkmcp.CallToolResult, createEpicWithTasksOutput, error) {
	tags := workitem.SplitTags(input.Tags)

	// The epic draft is checked before segmentation so a bad epic_title
	// is reported ahead of a description mismatch. Normalization is
	// idempotent; the orchestrator repeats it on the real draft.
	if _, err := workitem.NormalizeDraft(workitem.Draft{
		Type:        workitem.TypeEpic,
		Title:       input.EpicTitle,
		Description: input.EpicDescription,
		Assignee:    input.AssignedTo,
		Priority:    input.Priority,
		Tags:        tags,
	}); err != nil {
		return errorResult(describeError(err)), createEpicWithTasksOutput{Tasks: []compoundTaskOutput{}}, nil
	}

	// Segmentation happens here at the transport boundary; the
	// orchestrator only sees structured pairs. Any mismatch aborts
	// before a single remote call.
	tasks, err := workitem.SegmentTasks(input.TaskTitles, input.TaskDescriptions)
	if err != nil {
		return errorResult(describeError(err)), createEpicWithTasksOutput{Tasks: []compoundTaskOutput{}}, nil
	}

	res, err := h.svc.CreateEpicWithTasks(ctx, workitem.CompoundRequest{
		EpicTitle:       input.EpicTitle,
		EpicDescription: input.EpicDescription,
		Tasks:           tasks,
		Assignee:        input.AssignedTo,
		Priority:        input.Priority,
		Tags:            tags,
	})
	if err != nil {
		return errorResult(describeError(err)), createEpicWithTasksOutput{Tasks: []compoundTaskOutput{}}, nil
	}

	out := createEpicWithTasksOutput{
		Epic:        recordToOutput(res.Epic),
		Tasks:       make([]compoundTaskOutput, 0, len(res.Tasks)),
		Created:     res.CreatedCount(),
		Failed:      res.FailedCount(),
		Linked:      res.LinkedCount(),
		LinksFailed: res.LinkFailedCount(),
		Report:      report.Compound(res),
	}
	for _, t := range res.Tasks {
		row := compoundTaskOutput{
			Title:      t.Title,
			LinkStatus: string(t.Link.Status),
			LinkError:  t.Link.Err,
		}
		if t.Record != nil {
			row.ID = t.Record.ID
			row.URL = t.Record.URL
		}
		if t.Err != nil {
			row.Error = t.Err.Error()
		}
		out.Tasks = append(out.Tasks, row)
	}
	return nil, out, nil
}

func recordToOutput(rec *workitem.Record) workItemOutput {
	return workItemOutput{
		ID:       rec.ID,
		Type:     string(rec.Type),
		Title:    rec.Title,
		State:    rec.State,
		Assignee: rec.Assignee,
		Priority: rec.Priority,
		Tags:     rec.Tags,
		URL:      rec.URL,
		ParentID: rec.ParentID,
		Children: rec.Children,
	}
}

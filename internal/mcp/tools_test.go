package mcp

import (
	"context"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"boardsmcp/internal/domain/audit"
	"boardsmcp/internal/domain/workitem"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Create(ctx context.Context, draft workitem.Draft) (*workitem.Record, error) {
	args := m.Called(ctx, draft)
	if rec, ok := args.Get(0).(*workitem.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Update(ctx context.Context, req workitem.UpdateRequest) (*workitem.Record, error) {
	args := m.Called(ctx, req)
	if rec, ok := args.Get(0).(*workitem.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockService) Get(ctx context.Context, id int) (*workitem.Record, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*workitem.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) GetChildren(ctx context.Context, rec *workitem.Record) []*workitem.Record {
	args := m.Called(ctx, rec)
	if children, ok := args.Get(0).([]*workitem.Record); ok {
		return children
	}
	return nil
}

func (m *mockService) Link(ctx context.Context, epicID, taskID int) error {
	args := m.Called(ctx, epicID, taskID)
	return args.Error(0)
}

func (m *mockService) CreateEpicWithTasks(ctx context.Context, req workitem.CompoundRequest) (*workitem.CompoundResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*workitem.CompoundResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) RecentActivity(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]audit.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Project() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockService) SetProject(ctx context.Context, name string) (string, string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.String(1), args.Error(2)
}

func textOf(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleCreateWorkItem(t *testing.T) {
	ctx := context.Background()
	svc := &mockService{}
	svc.On("Create", ctx, mock.MatchedBy(func(d workitem.Draft) bool {
		return d.Type == workitem.Type("Task") && d.Title == "Build" &&
			len(d.Tags) == 2 && d.Tags[0] == "backend"
	})).Return(&workitem.Record{
		ID:    42,
		Type:  workitem.TypeTask,
		Title: "Build",
		URL:   "https://dev.azure.com/org/proj/_workitems/edit/42",
	}, nil)

	h := &handler{svc: svc}
	result, out, err := h.handleCreateWorkItem(ctx, nil, createWorkItemInput{
		WorkItemType: "Task",
		Title:        "Build",
		Tags:         "backend; infra",
	})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, 42, out.ID)
	require.Contains(t, out.Message, "ID: 42")
	svc.AssertExpectations(t)
}

func TestHandleCreateWorkItem_ValidationError(t *testing.T) {
	ctx := context.Background()
	svc := &mockService{}
	svc.On("Create", ctx, mock.Anything).Return(nil, workitem.ErrInvalidType)

	h := &handler{svc: svc}
	result, _, err := h.handleCreateWorkItem(ctx, nil, createWorkItemInput{
		WorkItemType: "Story",
		Title:        "x",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.Contains(t, textOf(t, result), "work_item_type must be Task or Epic")
}

func TestHandleUpdateWorkItem_PassesPointerFields(t *testing.T) {
	ctx := context.Background()
	empty := ""
	svc := &mockService{}
	svc.On("Update", ctx, mock.MatchedBy(func(req workitem.UpdateRequest) bool {
		return req.ID == 7 && req.Tags != nil && *req.Tags == "" && req.Assignee == nil
	})).Return(&workitem.Record{ID: 7, Type: workitem.TypeTask, Title: "t"}, nil)

	h := &handler{svc: svc}
	result, out, err := h.handleUpdateWorkItem(ctx, nil, updateWorkItemInput{ItemID: 7, Tags: &empty})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, 7, out.ID)
	svc.AssertExpectations(t)
}

func TestHandleUpdateWorkItem_RejectsMissingID(t *testing.T) {
	h := &handler{svc: &mockService{}}
	result, _, err := h.handleUpdateWorkItem(context.Background(), nil, updateWorkItemInput{})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.IsError)
}

func TestHandleGetWorkItem_EpicDetails(t *testing.T) {
	ctx := context.Background()
	epic := &workitem.Record{ID: 5, Type: workitem.TypeEpic, Title: "E", Children: []int{6}}
	svc := &mockService{}
	svc.On("Get", ctx, 5).Return(epic, nil)
	svc.On("GetChildren", ctx, epic).Return([]*workitem.Record{
		{ID: 6, Type: workitem.TypeTask, Title: "child"},
	})

	h := &handler{svc: svc}
	result, out, err := h.handleGetWorkItem(ctx, nil, getWorkItemInput{ItemID: 5})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, 5, out.Item.ID)
	require.Contains(t, out.Details, "Child Work Items (1 total):")
	require.Contains(t, out.Details, "child")
}

func TestHandleLinkTaskToEpic(t *testing.T) {
	ctx := context.Background()
	svc := &mockService{}
	svc.On("Link", ctx, 5, 6).Return(nil)

	h := &handler{svc: svc}
	result, out, err := h.handleLinkTaskToEpic(ctx, nil, linkInput{EpicID: 5, TaskID: 6})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Contains(t, out.Message, "linked Task 6 to Epic 5")
}

func TestHandleSetProject(t *testing.T) {
	ctx := context.Background()
	svc := &mockService{}
	svc.On("SetProject", ctx, "Other").Return("MyProject", "Other", nil)

	h := &handler{svc: svc}
	result, out, err := h.handleSetProject(ctx, nil, setProjectInput{NewProjectName: "Other"})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, "MyProject", out.Previous)
	require.Equal(t, "Other", out.Current)
}

func TestHandleCreateEpicWithTasks_SegmentsBeforeService(t *testing.T) {
	ctx := context.Background()
	svc := &mockService{}

	h := &handler{svc: svc}
	result, _, err := h.handleCreateEpicWithTasks(ctx, nil, createEpicWithTasksInput{
		EpicTitle:        "Epic",
		TaskTitles:       "One, Two, Three",
		TaskDescriptions: "a ||| b",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.Contains(t, textOf(t, result), "|||")
	svc.AssertNotCalled(t, "CreateEpicWithTasks", mock.Anything, mock.Anything)
}

func TestHandleCreateEpicWithTasks_Success(t *testing.T) {
	ctx := context.Background()
	res := &workitem.CompoundResult{
		Epic: &workitem.Record{ID: 100, Type: workitem.TypeEpic, Title: "Epic"},
		Tasks: []workitem.TaskOutcome{
			{
				Title:  "One",
				Record: &workitem.Record{ID: 101, Type: workitem.TypeTask, Title: "One"},
				Link:   workitem.LinkResult{EpicID: 100, TaskID: 101, Status: workitem.LinkLinked},
			},
		},
	}
	svc := &mockService{}
	svc.On("CreateEpicWithTasks", ctx, mock.MatchedBy(func(req workitem.CompoundRequest) bool {
		return req.EpicTitle == "Epic" && len(req.Tasks) == 1 && req.Tasks[0].Title == "One"
	})).Return(res, nil)

	h := &handler{svc: svc}
	result, out, err := h.handleCreateEpicWithTasks(ctx, nil, createEpicWithTasksInput{
		EpicTitle:  "Epic",
		TaskTitles: "One",
	})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, 100, out.Epic.ID)
	require.Equal(t, 1, out.Created)
	require.Equal(t, 1, out.Linked)
	require.Len(t, out.Tasks, 1)
	require.Equal(t, string(workitem.LinkLinked), out.Tasks[0].LinkStatus)
	require.Contains(t, out.Report, "Epic with Tasks created successfully!")
	svc.AssertExpectations(t)
}

func TestHandleCreateEpicWithTasks_EpicValidatedBeforeSegmentation(t *testing.T) {
	ctx := context.Background()
	svc := &mockService{}

	// Both the epic title and the descriptions are bad; the epic draft
	// failure must win.
	h := &handler{svc: svc}
	result, _, err := h.handleCreateEpicWithTasks(ctx, nil, createEpicWithTasksInput{
		EpicTitle:        "   ",
		TaskTitles:       "One, Two, Three",
		TaskDescriptions: "a ||| b",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.Contains(t, textOf(t, result), "title must not be empty")
	require.NotContains(t, textOf(t, result), "|||")
	svc.AssertNotCalled(t, "CreateEpicWithTasks", mock.Anything, mock.Anything)
}

func TestHandleGetRecentActivity(t *testing.T) {
	ctx := context.Background()
	itemID := 42
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockService{}
	svc.On("RecentActivity", ctx, mock.MatchedBy(func(opts audit.ListOptions) bool {
		return opts.Limit == 20 && opts.Op != nil && *opts.Op == audit.OpCreate
	})).Return([]audit.Entry{
		{
			Op:         audit.OpCreate,
			Project:    "MyProject",
			WorkItemID: &itemID,
			Outcome:    audit.OutcomeOK,
			Detail:     `created Task "Build"`,
			CreatedAt:  created,
		},
	}, nil)

	h := &handler{svc: svc}
	result, out, err := h.handleGetRecentActivity(ctx, nil, recentActivityInput{Op: "create"})
	require.NoError(t, err)
	require.Nil(t, result)
	require.Len(t, out.Entries, 1)
	require.Equal(t, "create", out.Entries[0].Op)
	require.Equal(t, "ok", out.Entries[0].Outcome)
	require.Equal(t, "2025-06-01T12:00:00Z", out.Entries[0].CreatedAt)
	svc.AssertExpectations(t)
}

func TestDescribeError_ValidationMessages(t *testing.T) {
	cases := map[error]string{
		workitem.ErrInvalidType:     "work_item_type must be Task or Epic",
		workitem.ErrMissingTitle:    "title must not be empty",
		workitem.ErrInvalidPriority: "priority must be an integer between 1 and 4 (1 is highest)",
		workitem.ErrEmptyTaskTitle:  "task_titles contains an empty entry; remove stray commas",
		workitem.ErrEmptyProject:    "new_project_name must not be empty",
	}
	for err, want := range cases {
		require.Equal(t, want, describeError(err))
	}
	require.Contains(t, describeError(workitem.ErrSegmentationMismatch), workitem.DescriptionDelimiter)
}

func TestDescribeError_RemoteVerbatim(t *testing.T) {
	err := &workitem.RemoteError{Op: "create work item", Status: 400, Message: "VS402371: rule violated"}
	require.Contains(t, describeError(err), "VS402371: rule violated")
}

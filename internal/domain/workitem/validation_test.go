package workitem_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boardsmcp/internal/domain/workitem"
)

func TestNormalizeDraft_Canonicalizes(t *testing.T) {
	priority := 2
	draft, err := workitem.NormalizeDraft(workitem.Draft{
		Type:     "task",
		Title:    "  Build the thing  ",
		Assignee: " dev@example.com ",
		Priority: &priority,
		Tags:     []string{" backend ", "backend", "", "infra"},
	})
	require.NoError(t, err)
	require.Equal(t, workitem.TypeTask, draft.Type)
	require.Equal(t, "Build the thing", draft.Title)
	require.Equal(t, "dev@example.com", draft.Assignee)
	require.Equal(t, []string{"backend", "infra"}, draft.Tags)
}

func TestNormalizeDraft_Idempotent(t *testing.T) {
	priority := 1
	first, err := workitem.NormalizeDraft(workitem.Draft{
		Type:     "EPIC",
		Title:    " Quarterly goals ",
		Priority: &priority,
		Tags:     []string{"a", " a ", "b"},
	})
	require.NoError(t, err)

	second, err := workitem.NormalizeDraft(first)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestNormalizeDraft_InvalidType(t *testing.T) {
	_, err := workitem.NormalizeDraft(workitem.Draft{Type: "Story", Title: "x"})
	require.ErrorIs(t, err, workitem.ErrInvalidType)
}

func TestNormalizeDraft_MissingTitle(t *testing.T) {
	_, err := workitem.NormalizeDraft(workitem.Draft{Type: workitem.TypeTask, Title: "   "})
	require.ErrorIs(t, err, workitem.ErrMissingTitle)
}

func TestNormalizeDraft_PriorityRange(t *testing.T) {
	for _, p := range []int{0, 5, -1} {
		priority := p
		_, err := workitem.NormalizeDraft(workitem.Draft{
			Type:     workitem.TypeTask,
			Title:    "x",
			Priority: &priority,
		})
		require.ErrorIs(t, err, workitem.ErrInvalidPriority, "priority %d", p)
	}
	for _, p := range []int{1, 4} {
		priority := p
		_, err := workitem.NormalizeDraft(workitem.Draft{
			Type:     workitem.TypeTask,
			Title:    "x",
			Priority: &priority,
		})
		require.NoError(t, err, "priority %d", p)
	}
}

func TestParseType_CaseInsensitive(t *testing.T) {
	for _, in := range []string{"task", "Task", "TASK"} {
		typ, err := workitem.ParseType(in)
		require.NoError(t, err)
		require.Equal(t, workitem.TypeTask, typ)
	}
	typ, err := workitem.ParseType("epic")
	require.NoError(t, err)
	require.Equal(t, workitem.TypeEpic, typ)

	_, err = workitem.ParseType("Bug")
	require.ErrorIs(t, err, workitem.ErrInvalidType)
}

func TestSplitTags(t *testing.T) {
	require.Nil(t, workitem.SplitTags("  "))
	require.Equal(t, []string{"frontend", "urgent"}, workitem.SplitTags("frontend; urgent"))
	require.Equal(t, []string{"a", "b"}, workitem.SplitTags("a;b;a; ;"))
}

func TestJoinTags(t *testing.T) {
	require.Equal(t, "frontend; urgent", workitem.JoinTags([]string{"frontend", "urgent"}))
	require.Equal(t, "", workitem.JoinTags(nil))
}

func TestIsValidation(t *testing.T) {
	require.True(t, workitem.IsValidation(workitem.ErrInvalidPriority))
	require.True(t, workitem.IsValidation(workitem.ErrSegmentationMismatch))
	require.False(t, workitem.IsValidation(workitem.ErrNotFound))
	require.False(t, workitem.IsValidation(&workitem.RemoteError{Op: "create", Status: 500, Message: "boom"}))
}

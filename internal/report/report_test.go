package report_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"boardsmcp/internal/domain/workitem"
	"boardsmcp/internal/report"
)

func TestCompound_RowPerWorkItem(t *testing.T) {
	res := &workitem.CompoundResult{
		Epic: &workitem.Record{ID: 100, Type: workitem.TypeEpic, Title: "Big Epic"},
		Tasks: []workitem.TaskOutcome{
			{
				Title:  "First",
				Record: &workitem.Record{ID: 101, Type: workitem.TypeTask, Title: "First"},
				Link:   workitem.LinkResult{EpicID: 100, TaskID: 101, Status: workitem.LinkLinked},
			},
			{
				Title:  "Second",
				Record: &workitem.Record{ID: 102, Type: workitem.TypeTask, Title: "Second"},
				Link:   workitem.LinkResult{EpicID: 100, TaskID: 102, Status: workitem.LinkLinked},
			},
		},
	}

	out := report.Compound(res)
	require.Contains(t, out, "Epic with Tasks created successfully!")

	// Epic row plus one row per task, regardless of outcome.
	dataRows := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "|") && !strings.Contains(line, "Work Item") && !strings.Contains(line, "---") {
			dataRows++
		}
	}
	require.Equal(t, len(res.Tasks)+1, dataRows)

	require.Contains(t, out, "Creations: 2 succeeded, 0 failed. Links: 2 succeeded, 0 failed.")
}

func TestCompound_FailedRowsKeepTheirPlace(t *testing.T) {
	res := &workitem.CompoundResult{
		Epic: &workitem.Record{ID: 100, Type: workitem.TypeEpic, Title: "Big Epic"},
		Tasks: []workitem.TaskOutcome{
			{
				Title: "Broken",
				Err:   errors.New("remote create work item failed (status 500): boom"),
				Link:  workitem.LinkResult{EpicID: 100, Status: workitem.LinkSkipped},
			},
			{
				Title:  "Unlinked",
				Record: &workitem.Record{ID: 102, Type: workitem.TypeTask, Title: "Unlinked"},
				Link:   workitem.LinkResult{EpicID: 100, TaskID: 102, Status: workitem.LinkFailed, Err: "link refused"},
			},
		},
	}

	out := report.Compound(res)
	require.Contains(t, out, "some task rows failed")
	require.Contains(t, out, "FAILED")
	require.Contains(t, out, "boom")
	require.Contains(t, out, "failed: link refused")
	require.Contains(t, out, "Creations: 1 succeeded, 1 failed. Links: 0 succeeded, 1 failed.")
}

func TestCompound_NoTasks(t *testing.T) {
	res := &workitem.CompoundResult{
		Epic: &workitem.Record{ID: 100, Type: workitem.TypeEpic, Title: "Solo Epic"},
	}
	out := report.Compound(res)
	require.Contains(t, out, "No tasks were created.")
}

func TestDetails_Task(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	priority := 2
	rec := &workitem.Record{
		ID:        7,
		Type:      workitem.TypeTask,
		Title:     "A task",
		State:     "Active",
		Assignee:  "dev@example.com",
		Priority:  &priority,
		Tags:      []string{"backend"},
		CreatedAt: created,
		URL:       "https://dev.azure.com/org/proj/_workitems/edit/7",
	}

	out := report.Details(rec, nil)
	require.Contains(t, out, "=== Task Details ===")
	require.Contains(t, out, "ID: 7")
	require.Contains(t, out, "State: Active")
	require.Contains(t, out, "Priority: 2")
	require.Contains(t, out, "Tags: backend")
	require.Contains(t, out, "Created: 2025-03-14 09:00:00 UTC")
	require.NotContains(t, out, "Child Work Items")
}

func TestDetails_DefaultsForMissingFields(t *testing.T) {
	rec := &workitem.Record{ID: 8, Type: workitem.TypeTask, Title: "bare"}
	out := report.Details(rec, nil)
	require.Contains(t, out, "State: Unknown")
	require.Contains(t, out, "Assigned To: Unassigned")
	require.Contains(t, out, "Priority: Not Set")
	require.Contains(t, out, "Tags: None")
	require.Contains(t, out, "Description: None")
	require.NotContains(t, out, "Created:")
}

func TestDetails_EpicChildBreakdown(t *testing.T) {
	epic := &workitem.Record{ID: 5, Type: workitem.TypeEpic, Title: "E", Children: []int{6, 7}}
	children := []*workitem.Record{
		{ID: 6, Type: workitem.TypeTask, Title: "c1", State: "New"},
		{ID: 7, Type: workitem.TypeTask, Title: "c2", State: "Done", Assignee: "dev@example.com"},
	}

	out := report.Details(epic, children)
	require.Contains(t, out, "Child Work Items (2 total):")
	require.Contains(t, out, "c1")
	require.Contains(t, out, "dev@example.com")
}

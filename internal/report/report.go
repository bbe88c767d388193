// Package report renders orchestration results as human-readable
// markdown. Pure projections: nothing here mutates its input.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"boardsmcp/internal/domain/workitem"
)

// Compound renders a compound creation result as a summary table with
// one row per work item (Epic first, then tasks in input order) and a
// trailing count section.
func Compound(res *workitem.CompoundResult) string {
	var b strings.Builder

	if res.FailedCount() == 0 && res.LinkFailedCount() == 0 {
		b.WriteString("Epic with Tasks created successfully!\n\n")
	} else {
		b.WriteString("Epic created; some task rows failed, see below.\n\n")
	}

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Work Item", "Type", "ID", "Linked", "URL"})
	tw.AppendRow(table.Row{res.Epic.Title, workitem.TypeEpic, res.Epic.ID, "-", res.Epic.URL})

	for _, t := range res.Tasks {
		tw.AppendRow(taskRow(t))
	}
	b.WriteString(tw.RenderMarkdown())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Creations: %d succeeded, %d failed. Links: %d succeeded, %d failed.\n",
		res.CreatedCount(), res.FailedCount(), res.LinkedCount(), res.LinkFailedCount())

	if len(res.Tasks) == 0 {
		b.WriteString("No tasks were created. Use task_titles to add tasks.\n")
	}
	return b.String()
}

func taskRow(t workitem.TaskOutcome) table.Row {
	if t.Record == nil {
		detail := ""
		if t.Err != nil {
			detail = t.Err.Error()
		}
		return table.Row{t.Title, workitem.TypeTask, "FAILED", "SKIPPED", detail}
	}

	linked := string(t.Link.Status)
	if t.Link.Status == workitem.LinkFailed && t.Link.Err != "" {
		linked = fmt.Sprintf("failed: %s", t.Link.Err)
	}
	return table.Row{t.Title, workitem.TypeTask, t.Record.ID, linked, t.Record.URL}
}

// Details renders one work item, appending a child breakdown table when
// the record is an Epic with retrievable children.
func Details(rec *workitem.Record, children []*workitem.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s Details ===\n", rec.Type)
	fmt.Fprintf(&b, "ID: %d\n", rec.ID)
	fmt.Fprintf(&b, "Title: %s\n", rec.Title)
	fmt.Fprintf(&b, "State: %s\n", orDefault(rec.State, "Unknown"))
	fmt.Fprintf(&b, "Assigned To: %s\n", orDefault(rec.Assignee, "Unassigned"))
	fmt.Fprintf(&b, "Priority: %s\n", priorityString(rec.Priority))
	fmt.Fprintf(&b, "Tags: %s\n", orDefault(workitem.JoinTags(rec.Tags), "None"))
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "Description: %s\n", orDefault(rec.Description, "None"))
	fmt.Fprintf(&b, "URL: %s\n", rec.URL)

	if rec.Type == workitem.TypeEpic && len(children) > 0 {
		fmt.Fprintf(&b, "\nChild Work Items (%d total):\n", len(children))
		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"ID", "Type", "Title", "State", "Assigned To", "URL"})
		for _, child := range children {
			tw.AppendRow(table.Row{
				child.ID, child.Type, child.Title,
				orDefault(child.State, "Unknown"),
				orDefault(child.Assignee, "Unassigned"),
				child.URL,
			})
		}
		b.WriteString(tw.RenderMarkdown())
		b.WriteString("\n")
	}
	return b.String()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func priorityString(p *int) string {
	if p == nil {
		return "Not Set"
	}
	return fmt.Sprintf("%d", *p)
}

package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `boards-mcp manages Azure DevOps work items: Epics, the Tasks under them, and the parent-child links between them.

Core concepts:
- Work item: a Task or an Epic in the current project. Every tool that touches a work item returns its web URL.
- Project context: one project is active at a time. get_current_project reads it, set_project switches it. Switching is local only; the project is not verified against Azure DevOps until the next operation uses it.
- Hierarchy: Epics are parents, Tasks are children. link_task_to_epic verifies both types before linking.

Rules of engagement:
1) Check the project with get_current_project before a batch of work; switch with set_project if needed.
2) For a single item use create_work_item / update_work_item / delete_work_item / get_work_item.
3) For an Epic plus its Tasks in one shot use create_epic_with_tasks. Task titles are comma-separated; task descriptions are separated with ||| so descriptions may themselves contain commas. One description with many titles applies the description to the first task only.
4) update_work_item distinguishes omitted from empty: leave assigned_to or tags out to keep them, pass "" to clear them.
5) create_epic_with_tasks does not roll back: a failed task or link is reported in the summary table and the rest proceeds. Read the per-row status before retrying anything.
   get_recent_activity lists what this server attempted recently (local audit trail, not remote state); useful before retrying a partially failed batch.
6) Descriptions accept markdown-style ## headers, **bold**, and - or 1. lists; they are converted to the HTML Azure DevOps renders.

Docs (read on demand):
- ado://standard/gold — the gold standard work item structure new descriptions should follow.
- ado://standard/template — a fill-in description template, including the ||| delimiter convention.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "ado://standard/gold",
		Name:        "gold_standard",
		Title:       "Gold standard work item structure",
		Description: "The proven enterprise work item structure all new descriptions should follow.",
		Content: `# Gold Standard Work Item Structure

All new work items should follow this format and quality level.

## Structure Requirements

### Required Sections (5 total):
1. **## Objective** - Clear accomplishment statement
2. **## Technical Requirements** - Specific tools and constraints
3. **## Implementation Steps** - 8-10 numbered steps minimum
4. **## Acceptance Criteria** - 6-8 testable checkboxes
5. **## Business Context** - Enterprise value explanation

### Quality Standards:
- **Minimum 4-5 sentences per section** with proper formatting
- **Comprehensive technical details** with specific tools and technologies
- **Clear business value** that ties to strategic goals
- **Actionable implementation steps** that a developer can follow
- **Measurable acceptance criteria** that can be tested and validated

Headers, bold text, and bulleted or numbered lists written in this
markdown style are converted to the HTML Azure DevOps renders.
`,
	},
	{
		URI:         "ado://standard/template",
		Name:        "description_template",
		Title:       "Work item description template",
		Description: "A fill-in template for comprehensive work item descriptions, with the multi-task delimiter convention.",
		Content: `## Work Item Description Template

Use this template for creating comprehensive work item descriptions:

` + "```" + `
## Objective
[Clear statement of what will be accomplished - 4-5 sentences minimum]

## Technical Requirements
[Specific tools, technologies, and constraints - bulleted list]

## Implementation Steps
[8-10 numbered steps with specific actions]

## Acceptance Criteria
[6-8 testable checkboxes with measurable outcomes]

## Business Context
[Enterprise value and strategic importance - 4-5 sentences]
` + "```" + `

**Quality Guidelines:**
- Each section should have substantial content (4-5 sentences minimum)
- Use specific technical details and tools
- Include measurable, testable criteria
- Connect to business value

**Delimiter for Multiple Tasks:**
When creating multiple tasks, separate descriptions with ` + "`|||`" + `:

` + "```" + `
Task 1 complete description ||| Task 2 complete description ||| Task 3 complete description
` + "```" + `
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

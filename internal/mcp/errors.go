package mcp

import (
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"boardsmcp/internal/domain/workitem"
)

// errorResult wraps a message as a tool error payload. Tool failures
// are results, never transport errors: every call returns either a
// success payload or a single clear message.
func errorResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// describeError renders a domain error as an actionable message.
// Validation failures name the offending field; remote failures keep
// the tracker's diagnostic verbatim.
func describeError(err error) string {
	if workitem.IsValidation(err) {
		return validationMessage(err)
	}
	return err.Error()
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, workitem.ErrInvalidType):
		return "work_item_type must be Task or Epic"
	case errors.Is(err, workitem.ErrMissingTitle):
		return "title must not be empty"
	case errors.Is(err, workitem.ErrInvalidPriority):
		return "priority must be an integer between 1 and 4 (1 is highest)"
	case errors.Is(err, workitem.ErrEmptyTaskTitle):
		return "task_titles contains an empty entry; remove stray commas"
	case errors.Is(err, workitem.ErrSegmentationMismatch):
		return err.Error() + `; separate task_descriptions with "` + workitem.DescriptionDelimiter + `"`
	case errors.Is(err, workitem.ErrEmptyProject):
		return "new_project_name must not be empty"
	default:
		return err.Error()
	}
}

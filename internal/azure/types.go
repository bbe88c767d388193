package azure

import (
	"strconv"
	"strings"
	"time"

	"boardsmcp/internal/domain/workitem"
)

// Field reference names used in patch documents.
const (
	fieldTitle       = "System.Title"
	fieldDescription = "System.Description"
	fieldAssignedTo  = "System.AssignedTo"
	fieldTags        = "System.Tags"
	fieldPriority    = "Microsoft.VSTS.Common.Priority"
)

// patchOp is one operation of a JSON Patch document.
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

type relationValue struct {
	Rel string `json:"rel"`
	URL string `json:"url"`
}

type identityRef struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

type workItemRelation struct {
	Rel string `json:"rel"`
	URL string `json:"url"`
}

type workItemFields struct {
	Type        string       `json:"System.WorkItemType,omitempty"`
	Title       string       `json:"System.Title,omitempty"`
	Description string       `json:"System.Description,omitempty"`
	State       string       `json:"System.State,omitempty"`
	Tags        string       `json:"System.Tags,omitempty"`
	Priority    *int         `json:"Microsoft.VSTS.Common.Priority,omitempty"`
	CreatedDate *time.Time   `json:"System.CreatedDate,omitempty"`
	AssignedTo  *identityRef `json:"System.AssignedTo,omitempty"`
}

type workItemPayload struct {
	ID        int                `json:"id"`
	Fields    workItemFields     `json:"fields"`
	Relations []workItemRelation `json:"relations,omitempty"`
}

func (p *workItemPayload) toRecord() *workitem.Record {
	rec := &workitem.Record{
		ID:          p.ID,
		Title:       p.Fields.Title,
		Description: p.Fields.Description,
		State:       p.Fields.State,
		Priority:    p.Fields.Priority,
		Tags:        workitem.SplitTags(p.Fields.Tags),
	}
	if typ, err := workitem.ParseType(p.Fields.Type); err == nil {
		rec.Type = typ
	} else {
		rec.Type = workitem.Type(p.Fields.Type)
	}
	if p.Fields.AssignedTo != nil {
		rec.Assignee = p.Fields.AssignedTo.UniqueName
		if rec.Assignee == "" {
			rec.Assignee = p.Fields.AssignedTo.DisplayName
		}
	}
	if p.Fields.CreatedDate != nil {
		rec.CreatedAt = *p.Fields.CreatedDate
	}

	for _, rel := range p.Relations {
		id, ok := relationID(rel.URL)
		if !ok {
			continue
		}
		switch rel.Rel {
		case hierarchyForward:
			rec.Children = append(rec.Children, id)
		case "System.LinkTypes.Hierarchy-Reverse":
			parent := id
			rec.ParentID = &parent
		}
	}
	return rec
}

// relationID extracts the work item id from a relation URL like
// .../_apis/wit/workItems/123.
func relationID(relURL string) (int, bool) {
	idx := strings.LastIndexByte(relURL, '/')
	if idx < 0 {
		return 0, false
	}
	id, err := strconv.Atoi(relURL[idx+1:])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// createPatch builds the patch document for a creation. Unset fields
// are not sent; the tracker applies its defaults.
func createPatch(fields workitem.CreateFields) []patchOp {
	var patch []patchOp
	add := func(field string, value any) {
		patch = append(patch, patchOp{Op: "add", Path: "/fields/" + field, Value: value})
	}

	add(fieldTitle, fields.Title)
	if fields.Description != "" {
		add(fieldDescription, fields.Description)
	}
	if fields.Assignee != "" {
		add(fieldAssignedTo, fields.Assignee)
	}
	if fields.Priority != nil {
		add(fieldPriority, *fields.Priority)
	}
	if len(fields.Tags) > 0 {
		add(fieldTags, workitem.JoinTags(fields.Tags))
	}
	return patch
}

// updatePatch builds the patch document for a partial update. Omitted
// (nil) fields produce no operation at all; empty strings produce
// remove operations. A missing value and an intentionally empty value
// are different requests on the wire.
func updatePatch(fields workitem.UpdateFields) []patchOp {
	var patch []patchOp
	set := func(field string, value any) {
		patch = append(patch, patchOp{Op: "add", Path: "/fields/" + field, Value: value})
	}
	remove := func(field string) {
		patch = append(patch, patchOp{Op: "remove", Path: "/fields/" + field})
	}
	setOrRemove := func(field string, value *string) {
		if value == nil {
			return
		}
		if *value == "" {
			remove(field)
		} else {
			set(field, *value)
		}
	}

	setOrRemove(fieldTitle, fields.Title)
	setOrRemove(fieldDescription, fields.Description)
	setOrRemove(fieldAssignedTo, fields.Assignee)
	setOrRemove(fieldTags, fields.Tags)
	if fields.Priority != nil {
		set(fieldPriority, *fields.Priority)
	}
	return patch
}

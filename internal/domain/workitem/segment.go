package workitem

import (
	"fmt"
	"strings"
)

// DescriptionDelimiter separates concatenated task descriptions. A bare
// comma cannot serve here: descriptions routinely contain commas inside
// prose, which silently misaligned tasks under the old scheme. Comma
// splitting remains only as a legacy fallback.
const DescriptionDelimiter = "|||"

// SegmentTasks aligns a comma-separated title list with a delimited
// description string, producing (title, description) pairs in title
// order. A single description with multiple titles is assigned to the
// first title; any other count mismatch is an error, surfaced before
// any remote call is made.
func SegmentTasks(titles, descriptions string) ([]TaskInput, error) {
	titleList, err := splitTitles(titles)
	if err != nil {
		return nil, err
	}
	if len(titleList) == 0 {
		return nil, nil
	}

	descList := splitDescriptions(descriptions, len(titleList))

	switch {
	case len(descList) == 0:
		descList = make([]string, len(titleList))
	case len(descList) == len(titleList):
		// aligned
	case len(descList) == 1 && len(titleList) > 1:
		// Documented fallback: the one description belongs to the
		// first task, the rest get none.
		padded := make([]string, len(titleList))
		padded[0] = descList[0]
		descList = padded
	default:
		return nil, fmt.Errorf("%w: %d descriptions for %d titles",
			ErrSegmentationMismatch, len(descList), len(titleList))
	}

	tasks := make([]TaskInput, len(titleList))
	for i, title := range titleList {
		tasks[i] = TaskInput{Title: title, Description: descList[i]}
	}
	return tasks, nil
}

func splitTitles(titles string) ([]string, error) {
	if strings.TrimSpace(titles) == "" {
		return nil, nil
	}
	parts := strings.Split(titles, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, ErrEmptyTaskTitle
		}
		out = append(out, part)
	}
	return out, nil
}

func splitDescriptions(descriptions string, titleCount int) []string {
	if strings.TrimSpace(descriptions) == "" {
		return nil
	}

	if strings.Contains(descriptions, DescriptionDelimiter) {
		parts := strings.Split(descriptions, DescriptionDelimiter)
		out := make([]string, len(parts))
		for i, part := range parts {
			out[i] = strings.TrimSpace(part)
		}
		return out
	}

	// Legacy comma form: trust it only when the counts line up exactly,
	// otherwise treat the whole string as a single description.
	commaSplit := strings.Split(descriptions, ",")
	if len(commaSplit) == titleCount {
		out := make([]string, len(commaSplit))
		for i, part := range commaSplit {
			out[i] = strings.TrimSpace(part)
		}
		return out
	}
	return []string{strings.TrimSpace(descriptions)}
}

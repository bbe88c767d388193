package workitem

import "strings"

// NormalizeDraft validates a draft and returns its canonical form.
// Normalization is idempotent: re-normalizing a normalized draft
// yields the identical draft.
func NormalizeDraft(d Draft) (Draft, error) {
	typ, err := ParseType(string(d.Type))
	if err != nil {
		return Draft{}, err
	}
	d.Type = typ

	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return Draft{}, ErrMissingTitle
	}

	if d.Priority != nil && (*d.Priority < 1 || *d.Priority > 4) {
		return Draft{}, ErrInvalidPriority
	}

	d.Assignee = strings.TrimSpace(d.Assignee)
	d.Tags = normalizeTags(d.Tags)
	return d, nil
}

// SplitTags parses a semicolon-delimited tag string into a normalized
// tag set, preserving first-seen order.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return normalizeTags(strings.Split(s, ";"))
}

// JoinTags renders a tag set back to the tracker's transport form.
func JoinTags(tags []string) string {
	return strings.Join(tags, "; ")
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Package htmltext renders plain work item description text into the
// HTML the tracker's description field expects. The input is the loose
// markdown-ish style agents tend to produce: bold headers, bullet and
// numbered lists, paragraphs separated by blank lines.
package htmltext

import "strings"

// Render converts description text to HTML paragraphs and lists.
// Literal "\n" escape sequences are unescaped first. Empty input is
// returned as-is.
func Render(text string) string {
	if text == "" {
		return text
	}

	unescaped := strings.ReplaceAll(text, `\n`, "\n")

	var out []string
	for _, section := range strings.Split(unescaped, "\n\n") {
		out = append(out, renderSection(section)...)
	}
	return strings.Join(out, "\n")
}

func renderSection(section string) []string {
	var html []string
	inList := false
	listTag := ""

	closeList := func() {
		if inList {
			html = append(html, "</"+listTag+">")
			inList = false
		}
	}
	openList := func(tag string) {
		if !inList || listTag != tag {
			closeList()
			html = append(html, "<"+tag+">")
			inList = true
			listTag = tag
		}
	}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && len(line) > 4:
			closeList()
			html = append(html, "<p><strong>"+line[2:len(line)-2]+"</strong></p>")
		case strings.HasPrefix(line, "## "):
			closeList()
			html = append(html, "<p><strong>"+line[3:]+"</strong></p>")
		case strings.HasPrefix(line, "- "):
			openList("ul")
			html = append(html, "<li>"+line[2:]+"</li>")
		case strings.HasPrefix(line, "* "):
			openList("ul")
			html = append(html, "<li>"+line[2:]+"</li>")
		case isNumberedItem(line):
			openList("ol")
			html = append(html, "<li>"+numberedItemText(line)+"</li>")
		default:
			closeList()
			html = append(html, "<p>"+line+"</p>")
		}
	}

	closeList()
	return html
}

func isNumberedItem(line string) bool {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	return i > 0 && i < len(line) && line[i] == '.'
}

func numberedItemText(line string) string {
	dot := strings.IndexByte(line, '.')
	return strings.TrimSpace(line[dot+1:])
}

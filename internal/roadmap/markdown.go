package roadmap

import (
	"regexp"
	"strings"
)

// line is one source line of a roadmap document.
type line struct {
	text   string
	fenced bool // inside a ``` block, fence markers included
}

var fenceRe = regexp.MustCompile("^```")

// scan splits text into lines and marks the ones that belong to fenced
// code blocks. An unclosed fence runs to the end of the text.
func scan(text string) []line {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]line, len(raw))
	open := false
	for i, l := range raw {
		isFence := fenceRe.MatchString(strings.TrimSpace(l))
		lines[i] = line{text: l, fenced: open || isFence}
		if isFence {
			open = !open
		}
	}
	return lines
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// heading returns the level and text of a markdown heading. Lines inside
// code fences are never headings.
func heading(l line) (int, string, bool) {
	if l.fenced {
		return 0, "", false
	}
	m := headingRe.FindStringSubmatch(strings.TrimRight(l.text, " \t"))
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), strings.TrimSpace(m[2]), true
}

var (
	boldRe     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.+?)\*`)
	codeSpanRe = regexp.MustCompile("`(.+?)`")
)

const minBulletLength = 6

// bullets returns the list items of lines with emphasis and code marks
// removed. Checkbox items and very short items are skipped.
func bullets(lines []line) []string {
	var out []string
	for _, l := range lines {
		if l.fenced {
			continue
		}
		content, ok := bulletContent(strings.TrimSpace(l.text))
		if !ok || strings.HasPrefix(content, "[") || len([]rune(content)) < minBulletLength {
			continue
		}
		content = boldRe.ReplaceAllString(content, "$1")
		content = italicRe.ReplaceAllString(content, "$1")
		content = codeSpanRe.ReplaceAllString(content, "$1")
		out = append(out, content)
	}
	return out
}

// bulletContent requires whitespace after the marker so that bold lead-ins
// like **Goal:** are not taken for list items.
func bulletContent(s string) (string, bool) {
	for _, marker := range []string{"-", "*", "•"} {
		rest, ok := strings.CutPrefix(s, marker)
		if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// codeBlocks returns the trimmed contents of every closed fenced block, in
// order of appearance.
func codeBlocks(lines []line) []string {
	var blocks []string
	var buf strings.Builder
	inside := false
	for _, l := range lines {
		trimmed := strings.TrimSpace(l.text)
		if !inside {
			if fenceRe.MatchString(trimmed) {
				inside = true
				buf.Reset()
			}
			continue
		}
		if trimmed == "```" {
			blocks = append(blocks, strings.TrimSpace(buf.String()))
			inside = false
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(l.text)
	}
	return blocks
}

func join(lines []line) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.text
	}
	return strings.Join(texts, "\n")
}

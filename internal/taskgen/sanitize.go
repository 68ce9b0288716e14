package taskgen

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTitleLength is the tracker's subject limit, in characters.
const MaxTitleLength = 100

const minTitleLength = 3

var pictographRanges = []struct{ lo, hi rune }{
	{0x1F300, 0x1F9FF},
	{0x1FA00, 0x1FAFF},
	{0x2600, 0x27BF},
	{0x1F000, 0x1F64F},
	{0x1F680, 0x1F6FF},
}

// roadmapGlyphs are status markers commonly found in roadmap headings.
const roadmapGlyphs = "🆕🔄✅🚧📋⚡🎨🎯🔗🌐⚙🛠"

func isPictograph(r rune) bool {
	for _, rg := range pictographRanges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return strings.ContainsRune(roadmapGlyphs, r)
}

func isJoiner(r rune) bool {
	return (r >= 0xFE00 && r <= 0xFE0F) || r == 0x200D
}

func stripGlyphs(s string) string {
	if !hasPictograph(s) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isPictograph(r) || isJoiner(r) {
			return -1
		}
		return r
	}, s)
}

var (
	checkboxRe   = regexp.MustCompile(`\[[ xX]\]`)
	asterisksRe  = regexp.MustCompile(`\*+`)
	backticksRe  = regexp.MustCompile("`+")
	underscoreRe = regexp.MustCompile(`_+`)
	spaceRe      = regexp.MustCompile(`[\s\v\x{85}\p{Z}]+`)
)

func isEdge(r rune) bool {
	return r == ':' || r == ';' || r == ',' || r == '-' || unicode.IsSpace(r)
}

func collapse(s string) string {
	return strings.TrimFunc(spaceRe.ReplaceAllString(s, " "), isEdge)
}

func markdownPass(s string) string {
	s = stripGlyphs(s)
	s = checkboxRe.ReplaceAllString(s, "")
	s = asterisksRe.ReplaceAllString(s, "")
	s = backticksRe.ReplaceAllString(s, "")
	s = underscoreRe.ReplaceAllString(s, " ")
	return collapse(s)
}

func guardPass(s string) string {
	return collapse(stripGlyphs(s))
}

// fixpoint applies pass until the string stops changing. Every pass either
// shrinks the string or leaves it unchanged, so this terminates, and it is
// what makes the sanitizers idempotent.
func fixpoint(s string, pass func(string) string) string {
	for {
		next := pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SanitizeTitle strips pictographs, checkbox markers and markdown emphasis
// from a roadmap-derived title and bounds it to MaxTitleLength. It reports
// false when what is left is junk: a dangling label or fewer than three
// characters.
func SanitizeTitle(title string) (string, bool) {
	s := fixpoint(title, markdownPass)
	if strings.HasSuffix(s, ":") || utf8.RuneCountInString(s) < minTitleLength {
		return "", false
	}
	s = fixpoint(truncate(s, MaxTitleLength), markdownPass)
	if utf8.RuneCountInString(s) < minTitleLength {
		return "", false
	}
	return s, true
}

// SubmittableTitle is the light guard applied to every title before
// submission: pictographs, variation selectors and joiners are removed,
// whitespace collapsed and the length bounded. Markdown is left alone.
func SubmittableTitle(title string) (string, bool) {
	s := fixpoint(truncate(fixpoint(title, guardPass), MaxTitleLength), guardPass)
	if s == "" {
		return "", false
	}
	return s, true
}

// hasPictograph reports whether s contains any character the sanitizers strip.
func hasPictograph(s string) bool {
	for _, r := range s {
		if isPictograph(r) || isJoiner(r) {
			return true
		}
	}
	return false
}

package catalog

import (
	"os"
	"regexp"
	"strings"
	"unicode"
)

// scriptMeta is the statically-extracted metadata of one query script.
// Zero values mean "not declared"; the catalog falls back to mechanical
// defaults derived from the filename.
type scriptMeta struct {
	Title   string
	Summary string
}

var queryNamePattern = regexp.MustCompile(`^QUERY_NAME\s*=\s*(?:"([^"]*)"|'([^']*)')\s*(?:#.*)?$`)

// extractScriptMeta statically inspects a query script for its leading
// docstring and a top-level QUERY_NAME string constant. The script is
// never executed. Any read or parse failure yields empty metadata; the
// script stays listed under its default title.
func extractScriptMeta(path string) scriptMeta {
	source, err := os.ReadFile(path)
	if err != nil {
		return scriptMeta{}
	}

	lines := strings.Split(string(source), "\n")

	doc, body, ok := leadingDocstring(lines)
	if !ok {
		// Unterminated docstring: the file would not parse, so no
		// metadata is trusted.
		return scriptMeta{}
	}

	var meta scriptMeta
	for _, line := range doc {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			meta.Summary = trimmed
			break
		}
	}

	for _, line := range lines[body:] {
		m := queryNamePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		candidate := m[1]
		if candidate == "" {
			candidate = m[2]
		}
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			meta.Title = candidate
		}
	}
	return meta
}

// leadingDocstring returns the content lines of the module docstring, if
// the file opens with one after the shebang, comments and blank lines,
// plus the index of the first line after it. ok=false only when a
// docstring opens but never closes.
func leadingDocstring(lines []string) (content []string, body int, ok bool) {
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}
		break
	}
	if i >= len(lines) {
		return nil, i, true
	}

	first := strings.TrimLeft(strings.TrimSpace(lines[i]), "rRuUbBfF")
	var delim string
	switch {
	case strings.HasPrefix(first, `"""`):
		delim = `"""`
	case strings.HasPrefix(first, "'''"):
		delim = "'''"
	default:
		return nil, i, true
	}

	rest := first[len(delim):]
	if idx := strings.Index(rest, delim); idx >= 0 {
		return []string{rest[:idx]}, i + 1, true
	}

	content = []string{rest}
	for j := i + 1; j < len(lines); j++ {
		if idx := strings.Index(lines[j], delim); idx >= 0 {
			content = append(content, lines[j][:idx])
			return content, j + 1, true
		}
		content = append(content, lines[j])
	}
	return nil, len(lines), false
}

// titleize turns a filename stem into a human-readable default title:
// underscores become spaces and every word is capitalized, matching the
// way the scripts were historically labeled.
func titleize(stem string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.ReplaceAll(stem, "_", " ") {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// Package narration picks the text spoken over a rendered scene.
package narration

import (
	"regexp"
	"strings"
)

// Default is spoken when neither the scene nor the script supply lines.
const Default = "Watch this educational animation."

var commentRe = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*NARRATION[ \t]*:[ \t]*(.*?)[ \t]*\r?$`)

// Extract returns the text of every "# NARRATION: ..." comment in code, in
// order, with surrounding quotes removed.
func Extract(code string) []string {
	var lines []string
	for _, m := range commentRe.FindAllStringSubmatch(code, -1) {
		if s := unquote(m[1]); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}

// Choose returns the narration for a scene: its NARRATION comments, else the
// script's narration lines, else Default.
func Choose(code string, scriptLines []string) string {
	if lines := Extract(code); len(lines) > 0 {
		return join(lines)
	}
	if s := join(scriptLines); s != "" {
		return s
	}
	return Default
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if q := s[0]; (q == '"' || q == '\'') && s[len(s)-1] == q {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

func join(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " ")
}

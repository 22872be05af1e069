package sanitize

import (
	"regexp"
	"strings"
)

// span is a half-open byte range [start, end) into a source string.
type span struct {
	start, end int
}

// call is one call site: the callee identifier and its bracket positions.
type call struct {
	name  string
	start int // first byte of the callee identifier
	open  int // index of '('
	close int // index of the matching ')', -1 if unbalanced
}

// pyKeywords are identifiers that may be followed by '(' without being calls.
var pyKeywords = map[string]bool{
	"and": true, "as": true, "assert": true, "elif": true, "else": true,
	"for": true, "if": true, "in": true, "is": true, "lambda": true,
	"not": true, "or": true, "return": true, "while": true, "with": true,
	"yield": true, "del": true,
}

var (
	anyCallRe = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)
	kwargRe   = regexp.MustCompile(`^([A-Za-z_]\w*)[ \t]*=`)
)

// codeMask reports, for every byte of src, whether it is executable code as
// opposed to part of a string literal or a comment.
func codeMask(src string) []bool {
	mask := make([]bool, len(src))
	i := 0
	for i < len(src) {
		switch c := src[i]; c {
		case '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case '\'', '"':
			i = skipString(src, i)
		default:
			mask[i] = true
			i++
		}
	}
	return mask
}

// skipString returns the index just past the string literal opening at i.
// Unterminated single-line strings end at the newline.
func skipString(src string, i int) int {
	q := src[i]
	if strings.HasPrefix(src[i:], strings.Repeat(string(q), 3)) {
		delim := src[i : i+3]
		for j := i + 3; j < len(src); j++ {
			if src[j] == '\\' {
				j++
				continue
			}
			if strings.HasPrefix(src[j:], delim) {
				return j + 3
			}
		}
		return len(src)
	}
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(src)
}

// matchClose returns the index of the bracket that closes the one at open,
// ignoring brackets inside strings and comments. Returns -1 when unbalanced.
func matchClose(src string, mask []bool, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		if !mask[i] {
			continue
		}
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits the text between open and close at top-level commas.
// An empty argument list yields a single empty span.
func splitArgs(src string, mask []bool, open, close int) []span {
	var out []span
	depth := 0
	start := open + 1
	for i := open + 1; i < close; i++ {
		if !mask[i] {
			continue
		}
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, span{start, i})
				start = i + 1
			}
		}
	}
	return append(out, span{start, close})
}

// argKeyword returns the keyword name of a `name=value` argument and the span
// of the name. Leading whitespace and comments are skipped.
func argKeyword(src string, mask []bool, arg span) (string, span, bool) {
	i := arg.start
	for i < arg.end && (!mask[i] || src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	if i >= arg.end {
		return "", span{}, false
	}
	m := kwargRe.FindStringSubmatchIndex(src[i:arg.end])
	if m == nil {
		return "", span{}, false
	}
	// `a == b` is a comparison, not a keyword argument.
	if eq := i + m[1]; eq < arg.end && src[eq] == '=' {
		return "", span{}, false
	}
	return src[i+m[2] : i+m[3]], span{i + m[2], i + m[3]}, true
}

// findCalls returns the call sites in code whose callee matches group 1 of re.
// re must end at the opening parenthesis.
func findCalls(src string, mask []bool, re *regexp.Regexp) []call {
	var calls []call
	for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
		start, open := m[2], m[1]-1
		if !mask[start] || !mask[open] {
			continue
		}
		name := src[m[2]:m[3]]
		if pyKeywords[name] || isDefinition(src, start) {
			continue
		}
		calls = append(calls, call{name: name, start: start, open: open, close: matchClose(src, mask, open)})
	}
	return calls
}

// isDefinition reports whether the identifier at pos is being declared by
// `def` or `class` rather than called.
func isDefinition(src string, pos int) bool {
	fields := strings.Fields(src[max(0, pos-16):pos])
	if len(fields) == 0 {
		return false
	}
	last := fields[len(fields)-1]
	return last == "def" || last == "class"
}

// editCalls rewrites the argument list of every call matched by re. Calls are
// visited from last to first so that offsets of earlier calls stay valid;
// an outer call is re-measured after its inner calls were edited.
func editCalls(src string, re *regexp.Regexp, edit func(src string, mask []bool, c call) (string, bool)) string {
	mask := codeMask(src)
	calls := findCalls(src, mask, re)
	dirty := false
	for i := len(calls) - 1; i >= 0; i-- {
		c := calls[i]
		if dirty {
			mask = codeMask(src)
			c.close = matchClose(src, mask, c.open)
			dirty = false
		}
		if c.close < 0 {
			continue
		}
		args, changed := edit(src, mask, c)
		if !changed {
			continue
		}
		src = src[:c.open+1] + args + src[c.close:]
		dirty = true
	}
	return src
}

// joinArgs rebuilds an argument list from the kept argument spans.
func joinArgs(src string, args []span, drop map[int]bool) string {
	var kept []string
	for i, a := range args {
		if drop[i] {
			continue
		}
		kept = append(kept, src[a.start:a.end])
	}
	if len(kept) > 0 && drop[0] && !strings.Contains(kept[0], "\n") {
		kept[0] = strings.TrimLeft(kept[0], " \t")
	}
	out := strings.Join(kept, ",")
	if strings.TrimSpace(out) == "" && !strings.Contains(out, "\n") {
		return ""
	}
	return out
}

// statementBounds returns the logical line containing pos, spanning any
// bracket continuation lines. end excludes the terminating newline.
func statementBounds(src string, mask []bool, pos int) (start, end int) {
	depth := 0
	for i := 0; i < pos; i++ {
		if !mask[i] {
			continue
		}
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case '\n':
			if depth == 0 && (i == 0 || src[i-1] != '\\') {
				start = i + 1
			}
		}
	}

	depth = 0
	for i := start; i < len(src); i++ {
		if !mask[i] {
			continue
		}
		switch src[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case '\n':
			if depth == 0 && (i == start || src[i-1] != '\\') {
				return start, i
			}
		}
	}
	return start, len(src)
}

// indentOf returns the leading whitespace of the line starting at start.
func indentOf(src string, start int) string {
	i := start
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	return src[start:i]
}

// firstCodeMatch returns the first match of re that starts inside code.
func firstCodeMatch(src string, mask []bool, re *regexp.Regexp) []int {
	for _, m := range re.FindAllStringIndex(src, -1) {
		if m[0] < len(mask) && mask[m[0]] {
			return m
		}
	}
	return nil
}

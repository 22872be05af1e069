package sanitize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// step is a compiled rule: a pure text transform.
type step interface {
	apply(src string) string
}

func compile(r Rule) (step, error) {
	switch r.Policy {
	case PolicyRewrite:
		return newRewrite(r)
	case PolicyRenameCall:
		if !isIdent(r.From) || !isIdent(r.To) {
			return nil, fmt.Errorf("rename_call needs identifier from/to")
		}
		return &renameCall{
			re: regexp.MustCompile(`\b` + regexp.QuoteMeta(r.From) + `\b`),
			to: r.To,
		}, nil
	case PolicyRenameKwarg:
		if len(r.Calls) == 0 || !isIdent(r.From) || !isIdent(r.To) {
			return nil, fmt.Errorf("rename_kwarg needs calls and identifier from/to")
		}
		return &renameKwarg{calls: callsRegexp(r.Calls), from: r.From, to: r.To}, nil
	case PolicyDedupeKwargs:
		return dedupeKwargs{}, nil
	case PolicyRemoveStatement:
		if len(r.Calls) == 0 {
			return nil, fmt.Errorf("remove_statement needs calls")
		}
		return &removeStatement{calls: callsRegexp(r.Calls)}, nil
	case PolicyStripKwarg:
		if len(r.Kwargs) == 0 {
			return nil, fmt.Errorf("strip_kwarg needs kwargs")
		}
		deny := make(map[string]bool, len(r.Kwargs))
		for _, k := range r.Kwargs {
			deny[k] = true
		}
		return &stripKwarg{deny: deny}, nil
	case PolicyInjectConstant:
		return newInjectConstant(r)
	case PolicyClamp:
		return newClamp(r)
	default:
		return nil, fmt.Errorf("unknown policy %q", r.Policy)
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)

func isIdent(s string) bool { return identRe.MatchString(s) }

// callsRegexp matches a call to any of names, capturing the name in group 1.
func callsRegexp(names []string) *regexp.Regexp {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\s*\(`)
}

// --- rewrite ---

type rewrite struct {
	re      *regexp.Regexp
	replace string
	when    *regexp.Regexp
}

func newRewrite(r Rule) (step, error) {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("pattern %q matches empty text", r.Pattern)
	}
	s := &rewrite{re: re, replace: r.Replace}
	if r.When != "" {
		if s.when, err = regexp.Compile(r.When); err != nil {
			return nil, fmt.Errorf("when: %w", err)
		}
	}
	return s, nil
}

func (s *rewrite) apply(src string) string {
	mask := codeMask(src)
	if s.when != nil && firstCodeMatch(src, mask, s.when) == nil {
		return src
	}
	var b strings.Builder
	last := 0
	for _, m := range s.re.FindAllStringSubmatchIndex(src, -1) {
		if m[0] == m[1] || !mask[m[0]] {
			continue
		}
		b.WriteString(src[last:m[0]])
		b.Write(s.re.ExpandString(nil, s.replace, src, m))
		last = m[1]
	}
	if last == 0 {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

// --- rename_call ---

type renameCall struct {
	re *regexp.Regexp
	to string
}

func (s *renameCall) apply(src string) string {
	mask := codeMask(src)
	var b strings.Builder
	last := 0
	for _, m := range s.re.FindAllStringIndex(src, -1) {
		if !mask[m[0]] {
			continue
		}
		b.WriteString(src[last:m[0]])
		b.WriteString(s.to)
		last = m[1]
	}
	if last == 0 {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

// --- rename_kwarg ---

// renameKwarg renames keyword `from` to `to` on the configured callees. When
// the call already passes `to`, the `from` argument is dropped instead, so the
// rewrite can never produce a duplicate keyword.
type renameKwarg struct {
	calls    *regexp.Regexp
	from, to string
}

func (s *renameKwarg) apply(src string) string {
	return editCalls(src, s.calls, func(src string, mask []bool, c call) (string, bool) {
		args := splitArgs(src, mask, c.open, c.close)
		fromIdx, hasTo := -1, false
		var fromName span
		for i, a := range args {
			name, sp, ok := argKeyword(src, mask, a)
			if !ok {
				continue
			}
			switch name {
			case s.from:
				if fromIdx < 0 {
					fromIdx, fromName = i, sp
				}
			case s.to:
				hasTo = true
			}
		}
		if fromIdx < 0 {
			return "", false
		}
		if hasTo {
			return joinArgs(src, args, map[int]bool{fromIdx: true}), true
		}
		inner := src[c.open+1 : fromName.start] + s.to + src[fromName.end:c.close]
		return inner, true
	})
}

// --- dedupe_kwargs ---

type dedupeKwargs struct{}

func (dedupeKwargs) apply(src string) string {
	return editCalls(src, anyCallRe, func(src string, mask []bool, c call) (string, bool) {
		args := splitArgs(src, mask, c.open, c.close)
		seen := make(map[string]bool)
		drop := make(map[int]bool)
		for i, a := range args {
			name, _, ok := argKeyword(src, mask, a)
			if !ok {
				continue
			}
			if seen[name] {
				drop[i] = true
			}
			seen[name] = true
		}
		if len(drop) == 0 {
			return "", false
		}
		return joinArgs(src, args, drop), true
	})
}

// --- remove_statement ---

// removeStatement replaces each statement that calls one of the configured
// names with `pass`, keeping indentation so the enclosing block stays valid.
// Inside a compound statement header the call expression becomes `None`
// instead, so the indented body keeps its owner.
type removeStatement struct {
	calls *regexp.Regexp
}

func (s *removeStatement) apply(src string) string {
	for range len(src) + 1 {
		mask := codeMask(src)
		calls := findCalls(src, mask, s.calls)
		if len(calls) == 0 {
			return src
		}
		c := calls[0]
		start, end := statementBounds(src, mask, c.start)
		if c.close >= 0 && isHeader(src, mask, start, end) {
			src = src[:receiverStart(src, c.start)] + "None" + src[c.close+1:]
			continue
		}
		src = src[:start] + indentOf(src, start) + "pass  # removed: " + c.name + src[end:]
	}
	return src
}

var headerKeywords = map[string]bool{
	"def": true, "class": true, "with": true, "for": true, "if": true,
	"elif": true, "while": true, "async": true, "except": true,
}

// isHeader reports whether src[start:end] opens an indented block.
func isHeader(src string, mask []bool, start, end int) bool {
	fields := strings.FieldsFunc(src[start:end], func(r rune) bool {
		return r == ' ' || r == '\t' || r == '(' || r == ':'
	})
	if len(fields) == 0 || !headerKeywords[fields[0]] {
		return false
	}
	for i := end - 1; i >= start; i-- {
		if !mask[i] {
			continue
		}
		switch src[i] {
		case ' ', '\t', '\r', '\n', '\\':
			continue
		}
		return src[i] == ':'
	}
	return false
}

// receiverStart extends a callee start back over a dotted receiver such as
// `self.` or `mn.`.
func receiverStart(src string, pos int) int {
	for pos > 1 && src[pos-1] == '.' && isIdentByte(src[pos-2]) {
		pos--
		for pos > 0 && isIdentByte(src[pos-1]) {
			pos--
		}
	}
	return pos
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// --- strip_kwarg ---

type stripKwarg struct {
	deny map[string]bool
}

func (s *stripKwarg) apply(src string) string {
	return editCalls(src, anyCallRe, func(src string, mask []bool, c call) (string, bool) {
		args := splitArgs(src, mask, c.open, c.close)
		drop := make(map[int]bool)
		for i, a := range args {
			if name, _, ok := argKeyword(src, mask, a); ok && s.deny[name] {
				drop[i] = true
			}
		}
		if len(drop) == 0 {
			return "", false
		}
		return joinArgs(src, args, drop), true
	})
}

// --- inject_constant ---

type injectConstant struct {
	imp       string
	constants []Constant
	refs      []*regexp.Regexp
	defs      []*regexp.Regexp
	importRe  *regexp.Regexp
	ownRe     *regexp.Regexp
}

func newInjectConstant(r Rule) (step, error) {
	if len(r.Constants) == 0 {
		return nil, fmt.Errorf("inject_constant needs constants")
	}
	s := &injectConstant{
		imp:       r.Import,
		constants: r.Constants,
		importRe:  regexp.MustCompile(`(?m)^(?:from[ \t]+manim[ \t]+import\b|import[ \t]+manim\b).*$`),
	}
	if s.imp == "" {
		s.imp = "from manim import *"
	}
	s.ownRe = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(s.imp) + `[ \t]*(?:#.*)?$`)
	for _, c := range r.Constants {
		if !isIdent(c.Name) || c.Value == "" {
			return nil, fmt.Errorf("constant %q needs a name and value", c.Name)
		}
		q := regexp.QuoteMeta(c.Name)
		s.refs = append(s.refs, regexp.MustCompile(`\b`+q+`\b`))
		s.defs = append(s.defs, regexp.MustCompile(`(?m)^`+q+`[ \t]*=[^=]`))
	}
	return s, nil
}

func (s *injectConstant) apply(src string) string {
	mask := codeMask(src)
	firstRef := -1
	var missing []string
	for i, c := range s.constants {
		ref := s.firstReference(src, mask, i)
		if ref < 0 {
			continue
		}
		if def := firstCodeMatch(src, mask, s.defs[i]); def != nil && def[0] < ref {
			continue
		}
		missing = append(missing, c.Name+" = "+c.Value)
		if firstRef < 0 || ref < firstRef {
			firstRef = ref
		}
	}
	if len(missing) == 0 {
		return src
	}
	block := strings.Join(missing, "\n")
	// The values need the configured import in scope. Reuse it when present,
	// otherwise add it after the first library import.
	if end := s.importEnd(src, mask, s.ownRe); end >= 0 && end <= firstRef {
		return src[:end] + "\n" + block + src[end:]
	}
	if end := s.importEnd(src, mask, s.importRe); end >= 0 && end <= firstRef {
		return src[:end] + "\n" + s.imp + "\n" + block + src[end:]
	}
	return s.imp + "\n" + block + "\n" + src
}

// importEnd returns the end of the first import statement matching re,
// including any bracket or backslash continuation, or -1.
func (s *injectConstant) importEnd(src string, mask []bool, re *regexp.Regexp) int {
	m := firstCodeMatch(src, mask, re)
	if m == nil {
		return -1
	}
	_, end := statementBounds(src, mask, m[0])
	return end
}

// firstReference returns the offset of the first bare use of constant i that
// is not its own top-level definition, or -1. Attribute accesses such as
// `mn.FRAME_WIDTH` are resolved by their module and do not count.
func (s *injectConstant) firstReference(src string, mask []bool, i int) int {
	for _, m := range s.refs[i].FindAllStringIndex(src, -1) {
		if !mask[m[0]] || afterDot(src, m[0]) {
			continue
		}
		if m[0] == 0 || src[m[0]-1] == '\n' {
			if loc := s.defs[i].FindStringIndex(src[m[0]:]); loc != nil && loc[0] == 0 {
				continue
			}
		}
		return m[0]
	}
	return -1
}

func afterDot(src string, pos int) bool {
	for pos > 0 && (src[pos-1] == ' ' || src[pos-1] == '\t') {
		pos--
	}
	return pos > 0 && src[pos-1] == '.'
}

// --- clamp ---

var numberRe = regexp.MustCompile(`^-?(?:\d+(?:\.\d*)?|\.\d+)$`)

type clamp struct {
	calls *regexp.Regexp
	kwarg string
	min   float64
	lit   string
}

func newClamp(r Rule) (step, error) {
	if r.Call == "" && r.Kwarg == "" {
		return nil, fmt.Errorf("clamp needs call or kwarg")
	}
	if r.Min <= 0 {
		return nil, fmt.Errorf("clamp needs a positive min")
	}
	s := &clamp{kwarg: r.Kwarg, min: r.Min, lit: strconv.FormatFloat(r.Min, 'f', -1, 64)}
	if r.Call != "" {
		s.calls = callsRegexp([]string{r.Call})
	}
	return s, nil
}

func (s *clamp) apply(src string) string {
	if s.calls != nil {
		src = editCalls(src, s.calls, func(src string, mask []bool, c call) (string, bool) {
			args := splitArgs(src, mask, c.open, c.close)
			first := args[0]
			if _, _, kw := argKeyword(src, mask, first); kw {
				return "", false
			}
			return s.clampValue(src, c, first)
		})
	}
	if s.kwarg != "" {
		re := anyCallRe
		if s.calls != nil {
			re = s.calls
		}
		src = editCalls(src, re, func(src string, mask []bool, c call) (string, bool) {
			for _, a := range splitArgs(src, mask, c.open, c.close) {
				name, sp, ok := argKeyword(src, mask, a)
				if !ok || name != s.kwarg {
					continue
				}
				eq := strings.IndexByte(src[sp.end:a.end], '=')
				if eq < 0 {
					continue
				}
				if out, changed := s.clampValue(src, c, span{sp.end + eq + 1, a.end}); changed {
					return out, true
				}
			}
			return "", false
		})
	}
	return src
}

// clampValue rewrites the numeric literal in v when it is below the minimum
// and returns the call's new argument text.
func (s *clamp) clampValue(src string, c call, v span) (string, bool) {
	raw := src[v.start:v.end]
	lit := strings.TrimSpace(raw)
	if !numberRe.MatchString(lit) {
		return "", false
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || f >= s.min {
		return "", false
	}
	at := v.start + strings.Index(raw, lit)
	return src[c.open+1:at] + s.lit + src[at+len(lit):c.close], true
}

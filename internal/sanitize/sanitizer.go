// Package sanitize patches scene source code produced by the language model
// before it reaches the renderer.
//
// Corrections come from an ordered, versioned rule Table. Each rule is a pure
// text transform that only touches executable code (never string literals or
// comments), and every rule is idempotent: sanitizing already sanitized code
// returns it unchanged. Sanitize never fails; code it cannot repair is left
// for the render stage to reject.
package sanitize

import (
	"fmt"
	"sync"
)

// Sanitizer applies a compiled rule table. It is safe for concurrent use.
type Sanitizer struct {
	version int
	target  string
	names   []string
	steps   []step
}

// New compiles a rule table. Invalid patterns or unknown policies are
// reported here, never at sanitize time.
func New(t Table) (*Sanitizer, error) {
	s := &Sanitizer{version: t.Version, target: t.Target}
	seen := make(map[string]bool, len(t.Rules))
	for i, r := range t.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d has no name", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true

		st, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		s.names = append(s.names, r.Name)
		s.steps = append(s.steps, st)
	}
	return s, nil
}

var (
	defaultOnce      sync.Once
	defaultSanitizer *Sanitizer
	defaultErr       error
)

// Default returns the sanitizer for the embedded rule table.
func Default() (*Sanitizer, error) {
	defaultOnce.Do(func() {
		t, err := DefaultTable()
		if err != nil {
			defaultErr = err
			return
		}
		defaultSanitizer, defaultErr = New(t)
	})
	return defaultSanitizer, defaultErr
}

// Version is the rule table version this sanitizer was built from.
func (s *Sanitizer) Version() int { return s.version }

// Target describes the library version the rules were written against.
func (s *Sanitizer) Target() string { return s.target }

// Rules lists rule names in application order.
func (s *Sanitizer) Rules() []string {
	return append([]string(nil), s.names...)
}

// Sanitize returns a corrected copy of code.
func (s *Sanitizer) Sanitize(code string) string {
	out, _ := s.SanitizeReport(code)
	return out
}

// SanitizeReport is Sanitize plus the names of the rules that changed the text.
func (s *Sanitizer) SanitizeReport(code string) (string, []string) {
	var fired []string
	for i, st := range s.steps {
		next := st.apply(code)
		if next != code {
			fired = append(fired, s.names[i])
		}
		code = next
	}
	return code, fired
}

package sanitize

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy names the kind of correction a rule performs.
type Policy string

const (
	// PolicyInjectConstant defines names the library is expected to export.
	PolicyInjectConstant Policy = "inject_constant"
	// PolicyRenameCall renames a function, class or method identifier.
	PolicyRenameCall Policy = "rename_call"
	// PolicyRenameKwarg renames a keyword argument on specific callees.
	PolicyRenameKwarg Policy = "rename_kwarg"
	// PolicyRewrite is a guarded regular-expression rewrite.
	PolicyRewrite Policy = "rewrite"
	// PolicyDedupeKwargs drops repeated keyword arguments, keeping the first.
	PolicyDedupeKwargs Policy = "dedupe_kwargs"
	// PolicyRemoveStatement replaces statements calling unavailable functions.
	PolicyRemoveStatement Policy = "remove_statement"
	// PolicyStripKwarg removes deny-listed keyword arguments from any call.
	PolicyStripKwarg Policy = "strip_kwarg"
	// PolicyClamp raises numeric literals below a minimum.
	PolicyClamp Policy = "clamp"
)

//go:embed rules/manim.yaml
var defaultRules []byte

// Table is an ordered, versioned set of sanitizer rules. Rules run in the
// order they appear; later rules may rely on shapes normalized earlier.
type Table struct {
	Version int    `yaml:"version"`
	Target  string `yaml:"target"`
	Rules   []Rule `yaml:"rules"`
}

// Rule is one entry of a Table. Which fields apply depends on Policy.
type Rule struct {
	Name   string `yaml:"name"`
	Policy Policy `yaml:"policy"`

	// rewrite
	Pattern string `yaml:"pattern,omitempty"`
	Replace string `yaml:"replace,omitempty"`
	When    string `yaml:"when,omitempty"`

	// rename_call, rename_kwarg
	From  string   `yaml:"from,omitempty"`
	To    string   `yaml:"to,omitempty"`
	Calls []string `yaml:"calls,omitempty"`

	// strip_kwarg
	Kwargs []string `yaml:"kwargs,omitempty"`

	// inject_constant
	Constants []Constant `yaml:"constants,omitempty"`
	Import    string     `yaml:"import,omitempty"`

	// clamp: first positional argument of Call and keyword Kwarg on Call,
	// or Kwarg on any call when Call is empty
	Call  string  `yaml:"call,omitempty"`
	Kwarg string  `yaml:"kwarg,omitempty"`
	Min   float64 `yaml:"min,omitempty"`
}

// Constant is a name and the expression that defines it.
type Constant struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// DefaultTable returns the embedded rule table for Manim Community Edition.
func DefaultTable() (Table, error) {
	return ParseTable(defaultRules)
}

// ParseTable decodes a YAML rule table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse rule table: %w", err)
	}
	if t.Version <= 0 {
		return Table{}, fmt.Errorf("rule table has no version")
	}
	return t, nil
}

// LoadTable reads a YAML rule table from disk.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read rule table: %w", err)
	}
	return ParseTable(data)
}

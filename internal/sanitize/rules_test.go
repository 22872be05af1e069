package sanitize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTableLoads(t *testing.T) {
	table, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error: %v", err)
	}
	if table.Version <= 0 {
		t.Errorf("expected a positive version, got %d", table.Version)
	}
	if len(table.Rules) == 0 {
		t.Fatal("expected rules in default table")
	}

	policies := make(map[Policy]bool)
	for _, r := range table.Rules {
		policies[r.Policy] = true
	}
	for _, p := range []Policy{PolicyInjectConstant, PolicyRenameKwarg, PolicyRemoveStatement, PolicyStripKwarg, PolicyClamp} {
		if !policies[p] {
			t.Errorf("default table has no %s rule", p)
		}
	}
}

func TestDedupeRunsAfterRenames(t *testing.T) {
	table, err := DefaultTable()
	if err != nil {
		t.Fatalf("DefaultTable() error: %v", err)
	}
	dedupe, lastRename := -1, -1
	for i, r := range table.Rules {
		switch r.Policy {
		case PolicyDedupeKwargs:
			dedupe = i
		case PolicyRenameKwarg:
			lastRename = i
		}
	}
	if dedupe < lastRename {
		t.Errorf("dedupe-kwargs at %d runs before rename rule at %d", dedupe, lastRename)
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
		want  string
	}{
		{"unknown policy", []Rule{{Name: "x", Policy: "explode"}}, "unknown policy"},
		{"bad pattern", []Rule{{Name: "x", Policy: PolicyRewrite, Pattern: "("}}, "pattern"},
		{"missing name", []Rule{{Policy: PolicyDedupeKwargs}}, "no name"},
		{"duplicate name", []Rule{{Name: "x", Policy: PolicyDedupeKwargs}, {Name: "x", Policy: PolicyDedupeKwargs}}, "duplicate"},
		{"rename without calls", []Rule{{Name: "x", Policy: PolicyRenameKwarg, From: "a", To: "b"}}, "needs calls"},
		{"clamp without min", []Rule{{Name: "x", Policy: PolicyClamp, Call: "wait"}}, "positive min"},
		{"strip without kwargs", []Rule{{Name: "x", Policy: PolicyStripKwarg}}, "needs kwargs"},
		{"empty match pattern", []Rule{{Name: "x", Policy: PolicyRewrite, Pattern: `[ \t]*$`}}, "matches empty text"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(Table{Version: 1, Rules: tc.rules})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestRewriteZeroWidthMatches(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"word boundary pattern", Rule{Name: "x", Policy: PolicyRewrite, Pattern: `\b`, Replace: "|"}},
		{"end of text guard", Rule{Name: "x", Policy: PolicyRewrite, Pattern: "y", Replace: "z", When: `(?m)$`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(Table{Version: 1, Rules: []Rule{tc.rule}})
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if got := s.Sanitize("x = 1"); got != "x = 1" {
				t.Errorf("Sanitize() = %q, expected unchanged", got)
			}
		})
	}
}

func TestParseTableRequiresVersion(t *testing.T) {
	if _, err := ParseTable([]byte("rules: []\n")); err == nil {
		t.Error("expected error for table without version")
	}
}

func TestLoadTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := `version: 7
target: test
rules:
  - name: wait
    policy: clamp
    call: wait
    min: 1
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable() error: %v", err)
	}
	s, err := New(table)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if s.Version() != 7 || s.Target() != "test" {
		t.Errorf("got version %d target %q", s.Version(), s.Target())
	}
	if got := s.Sanitize("self.wait(0.5)"); got != "self.wait(1)" {
		t.Errorf("Sanitize() = %q, expected %q", got, "self.wait(1)")
	}
}

func TestCodeMask(t *testing.T) {
	src := `a = "x#(" # c(
b = '''q
(''' + f(1)`
	mask := codeMask(src)
	for i, c := range src {
		inCode := mask[i]
		switch {
		case i == 0 && !inCode:
			t.Errorf("byte %d (%q) should be code", i, c)
		case c == '(' && strings.HasSuffix(src[:i+1], "f(") && !inCode:
			t.Errorf("call paren at %d should be code", i)
		}
	}
	open := strings.Index(src, "f(") + 1
	if got := matchClose(src, mask, open); got != len(src)-1 {
		t.Errorf("matchClose = %d, expected %d", got, len(src)-1)
	}
	if mask[strings.Index(src, "x#(")] {
		t.Error("string contents should not be code")
	}
	if mask[strings.Index(src, "c(")] {
		t.Error("comment should not be code")
	}
}

package llmtext

import (
	"errors"
	"testing"
)

func TestExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "python fence preferred",
			in:   "Here:\n```json\n{}\n```\n```python\nfrom manim import *\n```\nDone",
			want: "from manim import *\n",
		},
		{
			name: "any fence",
			in:   "```\nx = 1\n```",
			want: "x = 1\n",
		},
		{
			name: "py alias",
			in:   "```py\ny = 2\n```",
			want: "y = 2\n",
		},
		{
			name: "no fence",
			in:   "\n\nclass A(Scene):\n    pass\n\n",
			want: "class A(Scene):\n    pass\n",
		},
		{
			name: "unterminated fence",
			in:   "```python\nz = 3\n",
			want: "z = 3\n",
		},
		{
			name: "crlf",
			in:   "```python\r\na = 1\r\n```\r\n",
			want: "a = 1\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractCodeBlock(tc.in, "python")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ExtractCodeBlock() = %q, expected %q", got, tc.want)
			}
		})
	}
}

func TestExtractCodeBlockEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "```python\n```"} {
		if _, err := ExtractCodeBlock(in, "python"); !errors.Is(err, ErrNoContent) {
			t.Errorf("ExtractCodeBlock(%q) error = %v, expected ErrNoContent", in, err)
		}
	}
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Title string   `json:"title"`
		Lines []string `json:"lines"`
	}
	raw := "Sure!\n```json\n{\"title\": \"Circles\", \"lines\": [\"a\", \"b\"]}\n```"
	got, err := ParseJSON[payload](raw)
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	if got.Title != "Circles" || len(got.Lines) != 2 {
		t.Errorf("ParseJSON() = %+v", got)
	}

	if _, err := ParseJSON[payload]("no json here"); err == nil {
		t.Error("expected error for text without JSON")
	}
	if _, err := ParseJSON[payload]("{\"title\": }"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestTruncateAndTail(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := Tail("abcdef", 2); got != "...ef" {
		t.Errorf("Tail = %q", got)
	}
	if got := Tail("ab", 5); got != "ab" {
		t.Errorf("Tail = %q", got)
	}
}

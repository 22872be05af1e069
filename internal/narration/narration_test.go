package narration

import (
	"reflect"
	"testing"
)

const sceneWithNarration = `from manim import *

class EducationScene(Scene):
    def construct(self):
        # NARRATION: "A circle appears."
        self.play(Create(Circle()))
        #NARRATION:'It grows.'
        self.play(circle.animate.scale(2))
        # NARRATION: It fades away.
        # NARRATION: ""
        label = Text("# NARRATION: not a comment")
`

func TestExtract(t *testing.T) {
	got := Extract(sceneWithNarration)
	expected := []string{"A circle appears.", "It grows.", "It fades away."}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Extract() = %q, expected %q", got, expected)
	}
}

func TestChoose(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		lines    []string
		expected string
	}{
		{"comments win", sceneWithNarration, []string{"ignored"}, "A circle appears. It grows. It fades away."},
		{"script lines", "self.wait(1)\n", []string{" First. ", "", "Second."}, "First. Second."},
		{"default", "self.wait(1)\n", nil, Default},
		{"blank script", "", []string{" "}, Default},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Choose(tt.code, tt.lines); got != tt.expected {
				t.Errorf("Choose() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

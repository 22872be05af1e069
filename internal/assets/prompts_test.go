package assets

import (
	"strings"
	"testing"
)

func TestRenderElaborationPrompt(t *testing.T) {
	p := RenderElaborationPrompt(ElaborationData{Topic: "orbit of the moon", ModeLabel: "3D", ThreeD: true, TargetSeconds: 30})
	for _, want := range []string{"orbit of the moon", "30-second", "narration_lines", "camera angles"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	flat := RenderElaborationPrompt(ElaborationData{Topic: "fractions", ModeLabel: "2D", TargetSeconds: 30})
	if strings.Contains(flat, "camera angles") {
		t.Error("2D prompt should not mention camera angles")
	}
}

func TestRenderCodePrompt(t *testing.T) {
	p := RenderCodePrompt(CodeData{
		Title:          "Halves",
		NarrationLines: []string{"One whole.", "Two halves."},
		VisualBeats:    []string{"A circle appears", "It splits"},
		BaseClass:      "Scene",
		TargetSeconds:  30,
	})
	for _, want := range []string{"1. One whole.", "2. Two halves.", "2. It splits", "class EducationScene(Scene):", "# NARRATION:"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "set_camera_orientation") {
		t.Error("2D prompt should not ask for camera orientation")
	}
}

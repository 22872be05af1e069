// Package scene decides between 2D and 3D rendering for a topic and maps the
// decision to a render profile.
package scene

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Mode is the rendering profile family for one request.
type Mode string

const (
	// Auto lets Detect choose from the topic text.
	Auto Mode = "auto"
	// Mode2D renders a flat Scene.
	Mode2D Mode = "2d"
	// Mode3D renders a ThreeDScene.
	Mode3D Mode = "3d"
)

func (m Mode) String() string {
	switch m {
	case Mode2D:
		return "2D"
	case Mode3D:
		return "3D"
	default:
		return "auto"
	}
}

// BaseClass is the scene base class the generated code should extend.
func (m Mode) BaseClass() string {
	if m == Mode3D {
		return "ThreeDScene"
	}
	return "Scene"
}

// ParseMode accepts "2d", "3d", "auto" or empty (auto), case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "2d":
		return Mode2D, nil
	case "3d":
		return Mode3D, nil
	default:
		return "", fmt.Errorf("invalid scene mode %q (want 2d, 3d or auto)", s)
	}
}

var (
	threeDTerms = []string{
		"cube", "sphere", "pyramid", "cone", "cylinder", "3d",
		"three dimensional", "three-dimensional", "solid", "volume", "surface",
		"rotation in space", "spatial", "dimension", "polyhedron", "prism",
		"torus", "geometry 3d",
	}
	twoDTerms = []string{
		"function", "graph", "equation", "chart", "diagram", "flow", "tree",
		"network", "circle", "square", "triangle", "percentage", "angle",
		"algebra", "fraction", "ratio", "animation", "step by step",
	}

	threeDRe = vocabulary(threeDTerms)
	twoDRe   = vocabulary(twoDTerms)
)

// vocabulary matches any term as a whole word or phrase, allowing plurals.
func vocabulary(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)(?:e?s)?\b`)
}

// Detect picks 3D only when the topic mentions 3D vocabulary and no 2D
// vocabulary. Both, neither, or an empty topic select 2D.
func Detect(topic string) Mode {
	has3D := threeDRe.MatchString(topic)
	has2D := twoDRe.MatchString(topic)
	if has3D && !has2D {
		return Mode3D
	}
	return Mode2D
}

// Resolve returns forced unless it is Auto, in which case the topic decides.
func Resolve(forced Mode, topic string) Mode {
	switch forced {
	case Mode2D, Mode3D:
		return forced
	default:
		return Detect(topic)
	}
}

// Profile is the renderer quality flag and timeout for a mode.
type Profile struct {
	Mode        Mode
	QualityFlag string
	Timeout     time.Duration
}

// ProfileFor returns the render profile for a resolved mode.
func ProfileFor(m Mode) Profile {
	if m == Mode3D {
		return Profile{Mode: Mode3D, QualityFlag: "-ql", Timeout: 180 * time.Second}
	}
	return Profile{Mode: Mode2D, QualityFlag: "-qm", Timeout: 120 * time.Second}
}

package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/fpang/ai-video-generator/internal/scene"
)

// MinTopicLength is the shortest topic accepted, after trimming.
const MinTopicLength = 10

// Request is one video to generate. It is not modified once built.
type Request struct {
	ID    string
	Topic string
	Mode  scene.Mode
}

// Result describes a finished video.
type Result struct {
	ID         string
	VideoPath  string
	PosterPath string
	BundlePath string
	Title      string
	Mode       scene.Mode
	Narration  string
	Code       string
	Duration   time.Duration
}

// ValidateTopic checks a user-supplied topic and returns it trimmed.
func ValidateTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if len([]rune(topic)) < MinTopicLength {
		return "", fmt.Errorf("topic must be at least %d characters", MinTopicLength)
	}
	return topic, nil
}

// VideoName is the final file name for a request.
func VideoName(id string) string {
	return "video_" + id + ".mp4"
}

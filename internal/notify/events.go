// Package notify publishes job completion events to EventBridge.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/jobs"
)

// Source is the EventBridge source of every event.
const Source = "ai-video-generator"

// Detail types.
const (
	DetailVideoGenerated = "VideoGenerated"
	DetailVideoFailed    = "VideoFailed"
)

// EventPutter is the subset of the EventBridge client used here.
type EventPutter interface {
	PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// VideoEvent is the event detail.
type VideoEvent struct {
	VideoID   string `json:"videoId"`
	Status    string `json:"status"`
	Topic     string `json:"topic"`
	Mode      string `json:"mode"`
	Title     string `json:"title,omitempty"`
	VideoKey  string `json:"videoKey,omitempty"`
	PosterKey string `json:"posterKey,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
}

// EventBridge publishes to one bus. An empty bus name means the default bus.
type EventBridge struct {
	client EventPutter
	bus    string
}

var _ jobs.Notifier = (*EventBridge)(nil)

// New creates an EventBridge notifier.
func New(client EventPutter, bus string) *EventBridge {
	return &EventBridge{client: client, bus: bus}
}

// Notify publishes VideoGenerated for completed jobs and VideoFailed for
// failed ones. Other states are ignored.
func (n *EventBridge) Notify(ctx context.Context, job *jobs.Job) error {
	var detailType string
	switch job.Status {
	case jobs.StatusCompleted:
		detailType = DetailVideoGenerated
	case jobs.StatusFailed:
		detailType = DetailVideoFailed
	default:
		return nil
	}

	detail, err := json.Marshal(VideoEvent{
		VideoID:   job.ID,
		Status:    string(job.Status),
		Topic:     job.Topic,
		Mode:      string(job.Mode),
		Title:     job.Title,
		VideoKey:  job.VideoKey,
		PosterKey: job.PosterKey,
		Stage:     job.Stage,
		Error:     job.Error,
	})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", detailType, err)
	}

	entry := eventbridgetypes.PutEventsRequestEntry{
		Source:     aws.String(Source),
		DetailType: aws.String(detailType),
		Detail:     aws.String(string(detail)),
	}
	if n.bus != "" {
		entry.EventBusName = aws.String(n.bus)
	}

	result, err := n.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []eventbridgetypes.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("PutEvents: %w", err)
	}
	if result.FailedEntryCount > 0 {
		for i, e := range result.Entries {
			if e.ErrorCode != nil || e.ErrorMessage != nil {
				return fmt.Errorf("PutEvents entry %d failed: %s - %s", i, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
		return fmt.Errorf("PutEvents reported %d failed entries", result.FailedEntryCount)
	}

	log.Debug().Str("videoId", job.ID).Str("detailType", detailType).Msg("Event published to EventBridge")
	return nil
}

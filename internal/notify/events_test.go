package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/scene"
)

type fakeBus struct {
	inputs []*eventbridge.PutEventsInput
	failed bool
}

func (f *fakeBus) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.failed {
		return &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries:          []eventbridgetypes.PutEventsResultEntry{{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")}},
		}, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func TestNotifyDetailTypes(t *testing.T) {
	tests := []struct {
		status   jobs.Status
		expected string
	}{
		{jobs.StatusCompleted, DetailVideoGenerated},
		{jobs.StatusFailed, DetailVideoFailed},
		{jobs.StatusProcessing, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			bus := &fakeBus{}
			job := jobs.New("photosynthesis in plants", scene.Mode2D)
			job.Status = tt.status
			job.Stage = "Render"

			if err := New(bus, "videos").Notify(context.Background(), job); err != nil {
				t.Fatalf("Notify() error: %v", err)
			}
			if tt.expected == "" {
				if len(bus.inputs) != 0 {
					t.Errorf("expected no event for %s", tt.status)
				}
				return
			}
			entry := bus.inputs[0].Entries[0]
			if aws.ToString(entry.DetailType) != tt.expected || aws.ToString(entry.Source) != Source || aws.ToString(entry.EventBusName) != "videos" {
				t.Errorf("unexpected entry: %+v", entry)
			}
			var ev VideoEvent
			if err := json.Unmarshal([]byte(aws.ToString(entry.Detail)), &ev); err != nil {
				t.Fatal(err)
			}
			if ev.VideoID != job.ID || ev.Status != string(tt.status) || ev.Stage != "Render" {
				t.Errorf("detail = %+v", ev)
			}
		})
	}
}

func TestNotifyReportsFailedEntries(t *testing.T) {
	job := jobs.New("photosynthesis in plants", scene.Mode2D)
	job.Status = jobs.StatusCompleted
	if err := New(&fakeBus{failed: true}, "").Notify(context.Background(), job); err == nil {
		t.Error("expected error for failed entry")
	}
}

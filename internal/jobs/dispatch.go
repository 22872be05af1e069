package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/scene"
)

// EventTypeGenerate is the worker event type for a video request.
const EventTypeGenerate = "generate"

// Event is the payload sent to the worker.
type Event struct {
	Type    string     `json:"type"`
	VideoID string     `json:"videoId"`
	Topic   string     `json:"topic"`
	Mode    scene.Mode `json:"mode,omitempty"`
}

// Dispatcher hands a stored job to whatever runs the pipeline. Dispatch
// returns once the job is queued, not when it finishes.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *Job) error
}

// LocalDispatcher runs jobs in goroutines of this process, at most limit at
// a time. Jobs outlive the request that submitted them; they stop when the
// base context passed to NewLocalDispatcher is cancelled.
type LocalDispatcher struct {
	runner *Runner
	base   context.Context
	sem    chan struct{}
	wg     sync.WaitGroup
}

// NewLocalDispatcher creates a LocalDispatcher. limit <= 0 means one.
func NewLocalDispatcher(base context.Context, runner *Runner, limit int) *LocalDispatcher {
	if limit <= 0 {
		limit = 1
	}
	return &LocalDispatcher{runner: runner, base: base, sem: make(chan struct{}, limit)}
}

// Dispatch starts the job in the background.
func (d *LocalDispatcher) Dispatch(ctx context.Context, job *Job) error {
	ev := Event{Type: EventTypeGenerate, VideoID: job.ID, Topic: job.Topic, Mode: job.Mode}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case d.sem <- struct{}{}:
		case <-d.base.Done():
			return
		}
		defer func() { <-d.sem }()
		if err := d.runner.Handle(d.base, ev); err != nil {
			log.Debug().Err(err).Str("videoId", ev.VideoID).Msg("Background job finished with error")
		}
	}()
	log.Debug().Str("videoId", job.ID).Msg("Job dispatched locally")
	return nil
}

// Wait blocks until every dispatched job has returned.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

// LambdaInvoker is the subset of the Lambda client used for dispatch.
type LambdaInvoker interface {
	Invoke(ctx context.Context, in *lambdasvc.InvokeInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.InvokeOutput, error)
}

// LambdaDispatcher invokes the worker Lambda asynchronously.
type LambdaDispatcher struct {
	Client      LambdaInvoker
	FunctionARN string
}

// Dispatch sends the job as an Event invocation, so it returns as soon as
// Lambda has queued it.
func (d *LambdaDispatcher) Dispatch(ctx context.Context, job *Job) error {
	if d.Client == nil || d.FunctionARN == "" {
		return fmt.Errorf("worker lambda not configured")
	}
	payload, err := json.Marshal(Event{Type: EventTypeGenerate, VideoID: job.ID, Topic: job.Topic, Mode: job.Mode})
	if err != nil {
		return fmt.Errorf("marshal worker event: %w", err)
	}
	_, err = d.Client.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(d.FunctionARN),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		log.Error().Err(err).Str("videoId", job.ID).Msg("Failed to invoke worker Lambda")
		return fmt.Errorf("invoke worker lambda: %w", err)
	}
	log.Debug().Str("videoId", job.ID).Int("payloadSize", len(payload)).Msg("Worker Lambda invoked asynchronously")
	return nil
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/llmtext"
	"github.com/fpang/ai-video-generator/internal/pipeline"
)

// StageUpload marks failures while publishing finished artifacts.
const StageUpload = "Upload"

const engineOutputLimit = 4000

// Generator runs the video pipeline. *pipeline.Pipeline satisfies it.
type Generator interface {
	Run(ctx context.Context, req pipeline.Request, onStage pipeline.StageFunc) (*pipeline.Result, error)
}

// Artifacts are the storage keys of a published video.
type Artifacts struct {
	VideoKey  string
	PosterKey string
}

// Publisher copies finished files to shared storage.
type Publisher interface {
	Publish(ctx context.Context, res *pipeline.Result) (*Artifacts, error)
}

// Notifier announces finished jobs.
type Notifier interface {
	Notify(ctx context.Context, job *Job) error
}

// Runner takes a dispatched job through the pipeline, recording progress
// in the store. Publisher and Notifier are optional.
type Runner struct {
	Generator Generator
	Store     Store
	Publisher Publisher
	Notifier  Notifier
}

// Handle processes one worker event. Jobs that already finished are skipped,
// so a redelivered event does not render twice.
func (r *Runner) Handle(ctx context.Context, ev Event) error {
	if ev.Type != EventTypeGenerate {
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.VideoID == "" {
		return errors.New("event has no video ID")
	}

	job, err := r.Store.Get(ctx, ev.VideoID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", ev.VideoID, err)
	}
	if job == nil {
		job = &Job{ID: ev.VideoID, Topic: ev.Topic, Mode: ev.Mode, CreatedAt: time.Now().UTC()}
	}
	if job.Status.Done() {
		log.Info().Str("videoId", job.ID).Str("status", string(job.Status)).Msg("Job already finished, skipping")
		return nil
	}

	job.Status = StatusProcessing
	r.save(ctx, job)

	res, err := r.Generator.Run(ctx, job.Request(), func(s pipeline.Stage) {
		job.Stage = string(s)
		r.save(ctx, job)
	})
	if err != nil {
		return r.fail(ctx, job, err)
	}

	job.Title = res.Title
	job.VideoPath = res.VideoPath
	if r.Publisher != nil {
		job.Stage = StageUpload
		art, err := r.Publisher.Publish(ctx, res)
		if err != nil {
			return r.fail(ctx, job, err)
		}
		job.VideoKey, job.PosterKey = art.VideoKey, art.PosterKey
	}

	job.Status = StatusCompleted
	job.Stage = ""
	r.save(ctx, job)
	r.notify(ctx, job)
	log.Info().Str("videoId", job.ID).Str("title", job.Title).Msg("Job completed")
	return nil
}

// fail records err on the job and returns it.
func (r *Runner) fail(ctx context.Context, job *Job, err error) error {
	log.Error().Err(err).Str("videoId", job.ID).Str("stage", job.Stage).Msg("Job failed")

	job.Status = StatusFailed
	job.Error = err.Error()
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		job.Stage = string(perr.Stage)
		job.EngineOutput = llmtext.Tail(perr.Output, engineOutputLimit)
	}
	r.save(ctx, job)
	r.notify(ctx, job)
	return err
}

func (r *Runner) save(ctx context.Context, job *Job) {
	job.UpdatedAt = time.Now().UTC()
	if err := r.Store.Put(ctx, job); err != nil {
		log.Warn().Err(err).Str("videoId", job.ID).Str("status", string(job.Status)).Msg("Failed to persist job")
	}
}

func (r *Runner) notify(ctx context.Context, job *Job) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Notify(ctx, job); err != nil {
		log.Warn().Err(err).Str("videoId", job.ID).Msg("Failed to publish job event")
	}
}

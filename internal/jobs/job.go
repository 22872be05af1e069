// Package jobs tracks video generation requests from submission to a
// finished (or failed) video and dispatches them to a worker.
//
// Jobs live in a Store: in memory for the local web server, or in a
// single DynamoDB table when running on Lambda. Records expire after TTL.
package jobs

import (
	"time"

	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/scene"
)

// TTL is how long job records are kept.
const TTL = 24 * time.Hour

// Status is the lifecycle state of a job.
type Status string

// Job states.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Done reports whether the job will not change again.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one video request and its progress.
type Job struct {
	ID           string     `json:"video_id" dynamodbav:"-"`
	Topic        string     `json:"topic" dynamodbav:"topic"`
	Mode         scene.Mode `json:"mode" dynamodbav:"mode"`
	Status       Status     `json:"status" dynamodbav:"status"`
	Stage        string     `json:"stage,omitempty" dynamodbav:"stage,omitempty"`
	Error        string     `json:"error,omitempty" dynamodbav:"error,omitempty"`
	EngineOutput string     `json:"engine_output,omitempty" dynamodbav:"engineOutput,omitempty"`
	Title        string     `json:"title,omitempty" dynamodbav:"title,omitempty"`
	VideoPath    string     `json:"-" dynamodbav:"videoPath,omitempty"`
	VideoKey     string     `json:"-" dynamodbav:"videoKey,omitempty"`
	PosterKey    string     `json:"-" dynamodbav:"posterKey,omitempty"`
	CreatedAt    time.Time  `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt    time.Time  `json:"updated_at" dynamodbav:"updatedAt"`
}

// New creates a pending job for a validated topic.
func New(topic string, mode scene.Mode) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        NewID(),
		Topic:     topic,
		Mode:      mode,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Request converts the job into a pipeline request.
func (j *Job) Request() pipeline.Request {
	return pipeline.Request{ID: j.ID, Topic: j.Topic, Mode: j.Mode}
}

// Ready reports whether the job has a downloadable video.
func (j *Job) Ready() bool {
	return j.Status == StatusCompleted && (j.VideoPath != "" || j.VideoKey != "")
}

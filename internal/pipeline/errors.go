package pipeline

import "fmt"

// Stage names a pipeline step.
type Stage string

// Pipeline stages, in execution order.
const (
	StageElaboration    Stage = "Elaboration"
	StageCodeGeneration Stage = "CodeGeneration"
	StageRender         Stage = "Render"
	StageAudioSynthesis Stage = "AudioSynthesis"
	StageMux            Stage = "Mux"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageElaboration, StageCodeGeneration, StageRender, StageAudioSynthesis, StageMux}

// metricName is the EMF timing metric for a stage.
func (s Stage) metricName() string {
	switch s {
	case StageElaboration:
		return "ElaborationMs"
	case StageCodeGeneration:
		return "CodeGenMs"
	case StageRender:
		return "RenderMs"
	case StageAudioSynthesis:
		return "TTSMs"
	case StageMux:
		return "MuxMs"
	}
	return string(s) + "Ms"
}

// Error is a terminal failure of one stage. Output carries the rendering
// engine's output for render failures.
type Error struct {
	Stage   Stage
	Message string
	Output  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func stageError(stage Stage, msg string, err error) *Error {
	return &Error{Stage: stage, Message: msg, Err: err}
}

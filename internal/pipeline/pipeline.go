// Package pipeline runs one request through elaboration, code generation,
// sanitisation, rendering, narration and muxing. Stages run sequentially and
// every stage failure is terminal; nothing is retried.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/gemini"
	"github.com/fpang/ai-video-generator/internal/media"
	"github.com/fpang/ai-video-generator/internal/metrics"
	"github.com/fpang/ai-video-generator/internal/narration"
	"github.com/fpang/ai-video-generator/internal/render"
	"github.com/fpang/ai-video-generator/internal/sanitize"
	"github.com/fpang/ai-video-generator/internal/scene"
)

// Elaborator expands a topic into a short script.
type Elaborator interface {
	Elaborate(ctx context.Context, topic string, mode scene.Mode) (*gemini.Elaboration, error)
}

// CodeGenerator writes scene source for a script.
type CodeGenerator interface {
	GenerateCode(ctx context.Context, elab *gemini.Elaboration, mode scene.Mode) (string, error)
}

// Renderer turns scene source into a silent video.
type Renderer interface {
	Render(ctx context.Context, job render.Job) (*render.Artifact, error)
}

// Synthesizer speaks narration into an audio file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outPath string) error
}

// Muxer combines video and narration into the final file.
type Muxer interface {
	Mux(ctx context.Context, video, audio, out string) error
}

// PosterFunc writes a still image for a finished video.
type PosterFunc func(ctx context.Context, video, out string) error

// StageFunc is told when each stage starts.
type StageFunc func(Stage)

// Pipeline holds the stage implementations. Poster is optional.
type Pipeline struct {
	Elaborator  Elaborator
	CodeGen     CodeGenerator
	Sanitizer   *sanitize.Sanitizer
	Renderer    Renderer
	Synthesizer Synthesizer
	Muxer       Muxer
	Poster      PosterFunc

	OutputDir    string
	DebugBundles bool
}

// WorkDir returns the directory holding every file for a request.
func (p *Pipeline) WorkDir(id string) string {
	return filepath.Join(p.OutputDir, id)
}

// run tracks one request's intermediate products.
type run struct {
	req       Request
	dir       string
	mode      scene.Mode
	elab      *gemini.Elaboration
	rawCode   string
	code      string
	fired     []string
	engineOut string
	narration string
	rec       *metrics.Recorder
	onStage   StageFunc
}

// Run executes the pipeline for req. onStage may be nil.
func (p *Pipeline) Run(ctx context.Context, req Request, onStage StageFunc) (*Result, error) {
	if req.ID == "" {
		return nil, errors.New("request ID is required")
	}
	if strings.TrimSpace(req.Topic) == "" {
		return nil, errors.New("topic is required")
	}
	r := &run{
		req:     req,
		dir:     p.WorkDir(req.ID),
		mode:    scene.Resolve(req.Mode, req.Topic),
		rec:     metrics.New(metrics.Namespace),
		onStage: onStage,
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	start := time.Now()
	log.Info().
		Str("id", req.ID).
		Str("topic", req.Topic).
		Str("mode", r.mode.String()).
		Msg("Pipeline started")

	res, err := p.execute(ctx, r)
	elapsed := time.Since(start)

	if p.DebugBundles {
		p.writeBundle(r, err)
	}

	outcome := "success"
	var perr *Error
	if errors.As(err, &perr) {
		outcome = string(perr.Stage)
	} else if err != nil {
		outcome = "error"
	}
	r.rec.
		Dimension("Result", outcome).
		Dimension("Mode", r.mode.String()).
		Duration("PipelineMs", elapsed).
		Count("PipelineResult").
		Property("videoId", req.ID).
		Flush()

	if err != nil {
		log.Error().Err(err).Str("id", req.ID).Dur("duration", elapsed).Msg("Pipeline failed")
		return nil, err
	}
	res.Duration = elapsed
	if p.DebugBundles {
		res.BundlePath = filepath.Join(r.dir, BundleName)
	}
	log.Info().Str("id", req.ID).Str("video", res.VideoPath).Dur("duration", elapsed).Msg("Pipeline complete")
	return res, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) (*Result, error) {
	profile := scene.ProfileFor(r.mode)

	err := r.stage(StageElaboration, func() error {
		elab, err := p.Elaborator.Elaborate(ctx, r.req.Topic, r.mode)
		if err != nil {
			return stageError(StageElaboration, "could not elaborate topic", err)
		}
		r.elab = elab
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(StageCodeGeneration, func() error {
		code, err := p.CodeGen.GenerateCode(ctx, r.elab, r.mode)
		if err != nil {
			return stageError(StageCodeGeneration, "could not generate scene code", err)
		}
		if strings.TrimSpace(code) == "" {
			return stageError(StageCodeGeneration, "generated code is empty", nil)
		}
		r.rawCode = code
		r.code, r.fired = p.Sanitizer.SanitizeReport(code)
		log.Debug().Str("id", r.req.ID).Strs("rules", r.fired).Msg("Sanitizer rules applied")
		return nil
	})
	if err != nil {
		return nil, err
	}

	var art *render.Artifact
	err = r.stage(StageRender, func() error {
		a, err := p.Renderer.Render(ctx, render.Job{ID: r.req.ID, Dir: r.dir, Code: r.code, Profile: profile})
		if err != nil {
			perr := stageError(StageRender, "scene did not render", err)
			var rerr *render.Error
			if errors.As(err, &rerr) {
				perr.Output = rerr.Output
				r.engineOut = rerr.Output
			}
			return perr
		}
		art = a
		r.engineOut = a.Output
		return nil
	})
	if err != nil {
		return nil, err
	}

	audio := filepath.Join(r.dir, "narration.wav")
	r.narration = narration.Choose(r.code, r.elab.NarrationLines)
	err = r.stage(StageAudioSynthesis, func() error {
		if err := p.Synthesizer.Synthesize(ctx, r.narration, audio); err != nil {
			return stageError(StageAudioSynthesis, "could not synthesize narration", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := filepath.Join(r.dir, VideoName(r.req.ID))
	err = r.stage(StageMux, func() error {
		if err := p.Muxer.Mux(ctx, art.VideoPath, audio, out); err != nil {
			return stageError(StageMux, "could not combine video and narration", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:        r.req.ID,
		VideoPath: out,
		Title:     r.elab.Title,
		Mode:      r.mode,
		Narration: r.narration,
		Code:      r.code,
	}
	if p.Poster != nil {
		poster := filepath.Join(r.dir, "poster.jpg")
		if err := p.Poster(ctx, out, poster); err != nil {
			log.Warn().Err(err).Str("id", r.req.ID).Msg("Poster generation failed")
		} else {
			res.PosterPath = poster
		}
	}
	return res, nil
}

// stage times fn and records its duration.
func (r *run) stage(s Stage, fn func() error) error {
	if r.onStage != nil {
		r.onStage(s)
	}
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	r.rec.Duration(s.metricName(), elapsed)
	evt := log.Debug()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Str("id", r.req.ID).Str("stage", string(s)).Dur("duration", elapsed).Msg("Stage finished")
	return err
}

func (p *Pipeline) writeBundle(r *run, runErr error) {
	summary := map[string]any{
		"id":    r.req.ID,
		"topic": r.req.Topic,
		"mode":  r.mode,
		"rules": r.fired,
	}
	if p.Sanitizer != nil {
		summary["rulesVersion"] = p.Sanitizer.Version()
	}
	if runErr != nil {
		summary["error"] = runErr.Error()
	}
	meta, _ := json.MarshalIndent(summary, "", "  ")
	files := []BundleFile{{Name: "request.json", Data: meta}}
	if r.elab != nil {
		elab, _ := json.MarshalIndent(r.elab, "", "  ")
		files = append(files, BundleFile{Name: "elaboration.json", Data: elab})
	}
	if r.rawCode != "" {
		files = append(files,
			BundleFile{Name: "scene.generated.py", Data: []byte(r.rawCode)},
			BundleFile{Name: "scene.sanitized.py", Data: []byte(r.code)},
		)
	}
	if r.engineOut != "" {
		files = append(files, BundleFile{Name: "engine.log", Data: []byte(r.engineOut)})
	}
	if r.narration != "" {
		files = append(files, BundleFile{Name: "narration.txt", Data: []byte(r.narration)})
	}
	if err := WriteDebugBundle(filepath.Join(r.dir, BundleName), files); err != nil {
		log.Warn().Err(err).Str("id", r.req.ID).Msg("Failed to write debug bundle")
	}
}

// Options selects the binaries and models the default stages use.
type Options struct {
	Model          string
	TTSModel       string
	Voice          string
	Language       string
	ManimBin       string
	FFmpegBin      string
	FFprobeBin     string
	OutputDir      string
	TargetDuration time.Duration
	DebugBundles   bool
}

// New wires the Gemini, Manim and ffmpeg implementations of every stage.
func New(gen gemini.ContentGenerator, s *sanitize.Sanitizer, opts Options) *Pipeline {
	secs := int(opts.TargetDuration / time.Second)
	return &Pipeline{
		Elaborator:  gemini.NewElaborator(gen, opts.Model, secs),
		CodeGen:     gemini.NewCodeGenerator(gen, opts.Model, secs),
		Sanitizer:   s,
		Renderer:    render.New(opts.ManimBin),
		Synthesizer: gemini.NewSynthesizer(gen, opts.TTSModel, opts.Voice, opts.Language),
		Muxer:       media.NewMuxer(opts.FFmpegBin, opts.FFprobeBin, opts.TargetDuration),
		Poster: func(ctx context.Context, video, out string) error {
			return media.Poster(ctx, opts.FFmpegBin, video, out, media.DefaultPosterMaxDimension)
		},
		OutputDir:    opts.OutputDir,
		DebugBundles: opts.DebugBundles,
	}
}

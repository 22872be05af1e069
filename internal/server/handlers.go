package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/jobs"
	"github.com/fpang/ai-video-generator/internal/pipeline"
	"github.com/fpang/ai-video-generator/internal/scene"
)

const maxRequestBody = 64 << 10

type generateRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

type generateResponse struct {
	VideoID string      `json:"video_id"`
	Status  jobs.Status `json:"status"`
}

type statusResponse struct {
	*jobs.Job
	DownloadURL string `json:"download_url,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	topic, err := pipeline.ValidateTopic(req.Text)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := scene.ParseMode(req.Mode)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	job := jobs.New(topic, mode)
	if err := s.store.Put(ctx, job); err != nil {
		log.Error().Err(err).Msg("Failed to create job")
		httpError(w, http.StatusInternalServerError, "could not create job")
		return
	}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		job.Status = jobs.StatusFailed
		job.Error = "could not start job"
		if perr := s.store.Put(ctx, job); perr != nil {
			log.Warn().Err(perr).Str("videoId", job.ID).Msg("Failed to record dispatch failure")
		}
		log.Error().Err(err).Str("videoId", job.ID).Msg("Failed to dispatch job")
		httpError(w, http.StatusServiceUnavailable, "could not start job")
		return
	}

	log.Info().Str("videoId", job.ID).Str("mode", string(mode)).Msg("Video job accepted")
	respondJSON(w, http.StatusAccepted, generateResponse{VideoID: job.ID, Status: job.Status})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookup(w, r)
	if !ok {
		return
	}
	resp := statusResponse{Job: job}
	if job.Ready() {
		resp.DownloadURL = "/api/download/" + job.ID
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !job.Ready() {
		msg := "video is not ready"
		if job.Status == jobs.StatusFailed {
			msg = "video generation failed"
		}
		respondJSON(w, http.StatusConflict, map[string]string{"error": msg, "status": string(job.Status)})
		return
	}

	if job.VideoKey != "" && s.signer != nil {
		url, err := s.signer.DownloadURL(r.Context(), job.VideoKey)
		if err != nil {
			log.Error().Err(err).Str("videoId", job.ID).Msg("Failed to presign download")
			httpError(w, http.StatusInternalServerError, "could not create download link")
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	f, err := os.Open(job.VideoPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			httpError(w, http.StatusGone, "video file is no longer available")
			return
		}
		httpError(w, http.StatusInternalServerError, "could not open video")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "could not open video")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+pipeline.VideoName(job.ID)+`"`)
	http.ServeContent(w, r, filepath.Base(job.VideoPath), info.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
		"commit":  s.commit,
	})
}

// lookup loads the job named in the path, writing a 404 when there is none.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	id := chi.URLParam(r, "id")
	if !jobs.ValidID(id) {
		httpError(w, http.StatusNotFound, "video not found")
		return nil, false
	}
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("videoId", id).Msg("Failed to load job")
		httpError(w, http.StatusInternalServerError, "could not load job")
		return nil, false
	}
	if job == nil {
		httpError(w, http.StatusNotFound, "video not found")
		return nil, false
	}
	return job, true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

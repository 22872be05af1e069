// Package server exposes the video generator over HTTP.
//
//	POST /api/generate         submit a topic, returns 202 with the video ID
//	GET  /api/status/{id}      job progress
//	GET  /api/download/{id}    the finished MP4 (file or redirect to S3)
//	GET  /api/health           liveness and build identity
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ai-video-generator/internal/jobs"
)

// URLSigner turns a storage key into a temporary download URL.
type URLSigner interface {
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Options configures a Server. Signer is only needed when jobs carry
// storage keys instead of local paths. When OriginSecret is set, requests
// must carry it in the x-origin-verify header (injected by CloudFront).
type Options struct {
	Store        jobs.Store
	Dispatcher   jobs.Dispatcher
	Signer       URLSigner
	Version      string
	Commit       string
	OriginSecret string
}

// Server holds the HTTP handlers.
type Server struct {
	store      jobs.Store
	dispatcher jobs.Dispatcher
	signer     URLSigner
	version    string
	commit     string
	origin     string
}

// New creates a Server.
func New(opts Options) *Server {
	return &Server{
		store:      opts.Store,
		dispatcher: opts.Dispatcher,
		signer:     opts.Signer,
		version:    opts.Version,
		commit:     opts.Commit,
		origin:     opts.OriginSecret,
	}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(requestLogger)
	r.Use(localCORS)
	if s.origin != "" {
		r.Use(originVerify(s.origin))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/status/{id}", s.handleStatus)
		r.Get("/download/{id}", s.handleDownload)
		r.Get("/health", s.handleHealth)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		evt := log.Info()
		if r.URL.Path == "/api/health" {
			evt = log.Debug()
		}
		evt.
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})
}

// localCORS allows browser clients served from localhost.
func localCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originVerify(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-origin-verify") != secret {
				log.Warn().Str("path", r.URL.Path).Msg("Blocked request: missing or invalid x-origin-verify header")
				httpError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

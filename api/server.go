package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/JasChiang/ai-video-writer-sub002/filestore"
	"github.com/JasChiang/ai-video-writer-sub002/pipeline"
	"github.com/JasChiang/ai-video-writer-sub002/types"
)

// videoIDPattern is enforced before any pipeline component runs; anything
// else is a client error, not a pipeline failure.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Pipeline is the orchestrator surface the server needs.
type Pipeline interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Screenshots(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Server exposes the pipeline to the UI layer over HTTP.
type Server struct {
	addr     string
	pipeline Pipeline
	server   *http.Server
	once     sync.Once
}

func New(addr string, p Pipeline) *Server {
	return &Server{addr: addr, pipeline: p}
}

// Handler builds the route table; separated from Run so tests can drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/screenshots", s.handleScreenshots)
	return corsMiddleware(loggingMiddleware(mux))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{Addr: s.addr, Handler: s.Handler()}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[api] shutdown: %v", err)
		}
	}()
	log.Printf("[api] listening on %s", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type generateRequest struct {
	VideoID         string                 `json:"video_id"`
	Quality         int                    `json:"quality"`
	Title           string                 `json:"title"`
	Prompt          string                 `json:"prompt"`
	Public          bool                   `json:"public"`
	ReferenceFiles  []string               `json:"reference_files"`
	ReferenceVideos []string               `json:"reference_videos"`
	Screenshots     []types.ScreenshotSpec `json:"screenshots"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Stage  string `json:"stage,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	result, err := s.pipeline.Generate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleScreenshots(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	result, err := s.pipeline.Screenshots(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return pipeline.Request{}, false
	}
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Detail: err.Error()})
		return pipeline.Request{}, false
	}
	if !videoIDPattern.MatchString(body.VideoID) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "video_id must match ^[A-Za-z0-9_-]{11}$",
			Stage: types.StageValidation,
		})
		return pipeline.Request{}, false
	}
	return pipeline.Request{
		VideoID:         body.VideoID,
		Quality:         body.Quality,
		Title:           body.Title,
		Instructions:    body.Prompt,
		Public:          body.Public,
		ReferenceFiles:  body.ReferenceFiles,
		ReferenceVideos: body.ReferenceVideos,
		Screenshots:     body.Screenshots,
	}, true
}

// writeError maps pipeline failures to HTTP statuses so the operator can
// tell which external dependency to investigate. Stack detail stays in the
// server log; the message text of the failing stage goes to the caller.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	stage := ""

	var stageErr *types.StageError
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
		switch stageErr.Stage {
		case types.StageValidation:
			status = http.StatusBadRequest
		case types.StageDownload, types.StageGeneration, types.StageParsing:
			status = http.StatusBadGateway
		case types.StageRegistry:
			status = http.StatusBadGateway
		}
	}
	if errors.Is(err, filestore.ErrPollTimeout) {
		status = http.StatusGatewayTimeout
	}

	log.Printf("[api] request failed (%d): %v", status, err)
	writeJSON(w, status, errorResponse{Error: err.Error(), Stage: stage})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[api] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

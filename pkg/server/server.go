// Package server exposes the detection pipeline over HTTP and
// WebSocket: a one-shot upload endpoint for stored clips, a streaming
// recording endpoint for live microphone audio, and the embedded
// browser UI.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voiceguard-ai/voiceguard/pkg/audio"
	"github.com/voiceguard-ai/voiceguard/pkg/classifier"
	"github.com/voiceguard-ai/voiceguard/pkg/detector"
	"github.com/voiceguard-ai/voiceguard/pkg/features"
	"github.com/voiceguard-ai/voiceguard/pkg/trace"
)

//go:embed static
var staticFS embed.FS

// AnalyzeResponse is the JSON body returned for a successful analysis.
type AnalyzeResponse struct {
	RequestID string `json:"request_id"`
	detector.Result
	ElapsedMs int64 `json:"elapsed_ms"`
}

// ErrorResponse is the JSON body returned for a failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code plus a human
// readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server serves the detection API and the browser UI.
type Server struct {
	config   *Config
	detector *detector.Detector

	httpServer *http.Server
	mux        *http.ServeMux
	upgrader   websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server around a ready detector.
func New(config *Config, det *detector.Detector) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:   config,
		detector: det,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins; customize for production
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}

	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/ws/record", s.handleRecord)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embedded tree is fixed at compile time.
		panic(err)
	}
	s.mux.Handle("/", http.FileServer(http.FS(static)))

	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.mux)
}

// Start starts the server and returns once it is listening.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Handler(),
	}

	log.Printf("[Server] starting on %s", s.config.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.config.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"threshold": s.detector.Threshold(),
	})
}

// handleAnalyze accepts a multipart upload with an "audio" file field
// and returns the verdict for the clip.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	requestID := uuid.New().String()
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_upload",
			"multipart form must include an 'audio' file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_upload", "reading upload: "+err.Error())
		return
	}

	format := uploadFormat(header)

	ctx, span := trace.StartAnalyze(r.Context(), requestID, format, len(data))
	defer span.End()

	result, err := s.detector.Analyze(ctx, data, format)
	if err != nil {
		trace.RecordError(span, err)
		status, code := classifyError(err)
		log.Printf("[Server] [request %s] analyze failed: %v", requestID, err)
		writeError(w, status, code, err.Error())
		return
	}

	trace.RecordVerdict(span, string(result.Verdict.Label), result.Verdict.Confidence)
	log.Printf("[Server] [request %s] %s (confidence=%.3f, %s)",
		requestID, result.Verdict.Label, result.Verdict.Confidence, time.Since(start).Round(time.Millisecond))

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		RequestID: requestID,
		Result:    *result,
		ElapsedMs: time.Since(start).Milliseconds(),
	})
}

// uploadFormat derives the audio format from the uploaded file name,
// falling back to the part's Content-Type.
func uploadFormat(header *multipart.FileHeader) string {
	if ext := filepath.Ext(header.Filename); ext != "" {
		return strings.TrimPrefix(ext, ".")
	}
	return header.Header.Get("Content-Type")
}

// classifyError maps pipeline errors onto an HTTP status and a stable
// error code. Client-side input problems are 400s; everything else is a
// 500.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, audio.ErrEmptyAudio):
		return http.StatusBadRequest, "empty_audio"
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, audio.ErrDecode):
		return http.StatusBadRequest, "decode_error"
	case errors.Is(err, features.ErrInsufficientAudio):
		return http.StatusBadRequest, "insufficient_audio"
	case errors.Is(err, features.ErrInvalidWaveform):
		// The ingestor guarantees normalization, so this is a broken
		// internal contract, not client input.
		return http.StatusInternalServerError, "invalid_waveform"
	case errors.Is(err, classifier.ErrShapeMismatch):
		return http.StatusInternalServerError, "shape_mismatch"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Server] failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

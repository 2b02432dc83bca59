package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/critical-events-service/internal/filestore"
	"github.com/couchcryptid/critical-events-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecks is ready when every member is ready.
type ReadinessChecks []sharedobs.ReadinessChecker

// CheckReadiness returns the first failing check's error.
func (c ReadinessChecks) CheckReadiness(ctx context.Context) error {
	for _, rc := range c {
		if err := rc.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FileService stores, lists, deletes and processes day files.
type FileService interface {
	UploadExcel(ctx context.Context, f *filestore.UploadedFile) (filestore.MessageResponse, error)
	UploadJSON(ctx context.Context, f *filestore.UploadedFile) (filestore.MessageResponse, error)
	ListFiles(ctx context.Context, q filestore.ListQuery) (filestore.ListFilesResponse, error)
	DeleteFile(ctx context.Context, name string) (filestore.MessageResponse, error)
	DeleteAllFiles(ctx context.Context) (filestore.MessageResponse, error)
	CreateFolder(ctx context.Context, folder string) (filestore.MessageResponse, error)
	DownloadAndProcess(ctx context.Context, name, fileType string) (filestore.ProcessedFile, error)
}

// Options configures request handling.
type Options struct {
	MaxBodyBytes      int64
	CORSAllowedOrigin string
}

// Server exposes the detection and file APIs plus health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	files      FileService
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options
}

// NewServer creates an HTTP server with the /api routes, /healthz, /readyz,
// and /metrics.
func NewServer(addr string, opts Options, files FileService, ready sharedobs.ReadinessChecker, logger *slog.Logger, metrics *observability.Metrics) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if opts.CORSAllowedOrigin == "" {
		opts.CORSAllowedOrigin = "*"
	}

	mux := http.NewServeMux()

	s := &Server{
		files:   files,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/critical-events", s.handleFindCriticalEvents)
	mux.HandleFunc("POST /api/critical-events/files/{file_name}", s.handleFindCriticalEventsInFile)

	mux.HandleFunc("POST /api/file-upload/uploadExcel", s.handleUploadExcel)
	mux.HandleFunc("POST /api/file-upload/uploadJSON", s.handleUploadJSON)
	mux.HandleFunc("GET /api/file-upload/listFiles", s.handleListFiles)
	mux.HandleFunc("DELETE /api/file-upload/deleteFile/{file_name}", s.handleDeleteFile)
	mux.HandleFunc("DELETE /api/file-upload/deleteAllFiles", s.handleDeleteAllFiles)
	mux.HandleFunc("POST /api/file-upload/createFolder", s.handleCreateFolder)
	mux.HandleFunc("GET /api/file-upload/downloadAndProcessFile/{file_name}", s.handleDownloadAndProcessFile)

	handler := s.withRequestID(s.withCORS(s.withObservability(mux)))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

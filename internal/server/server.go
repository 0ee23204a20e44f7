package server

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/beaconcheck/docs/swagger" // registers the OpenAPI document
	"github.com/raysh454/beaconcheck/internal/app"
	"github.com/raysh454/beaconcheck/internal/logging"
	"github.com/raysh454/beaconcheck/internal/model"
	"github.com/raysh454/beaconcheck/internal/runstore"
)

const (
	msgProcessed      = "File processed successfully!"
	msgNoFilePart     = "No file part"
	msgNoSelectedFile = "No selected file"
	msgInternal       = "Internal Server Error"

	uploadField = "file"

	// HeaderRunID carries the id of the run that processed an upload.
	HeaderRunID = "X-Run-ID"

	defaultRunsLimit = 50
)

const uploadForm = `<!doctype html>
<html>
	<body>
		<h1>Upload a CSV file</h1>
		<form action="/upload" method="post" enctype="multipart/form-data">
			<input type="file" name="file" accept=".csv">
			<input type="submit" value="Upload">
		</form>
	</body>
</html>
`

// Server is the HTTP + WebSocket surface of beaconcheck.
type Server struct {
	app      *app.Application
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates the router around an assembled Application. The upload
// directory is created if it does not exist.
func NewServer(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.App.Checker == nil {
		return nil, errors.New("server: application is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	if err := os.MkdirAll(cfg.App.Config.Server.UploadDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating upload dir %s", cfg.App.Config.Server.UploadDir)
	}

	s := &Server{
		app:    cfg.App,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Get("/healthz", s.handleHealth)

	r.Get("/upload", s.handleUploadForm)
	r.Post("/upload", s.handleUpload)

	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}", s.handleGetRun)

	r.Get("/ws/runs", s.handleRunsWS)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		logging.String("method", r.Method),
		logging.String("path", r.URL.Path),
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}
	if r.ContentLength > 0 {
		fields = append(fields, logging.Field{Key: "content_length", Value: r.ContentLength})
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the application: browser session and run history.
func (s *Server) Close() error {
	if s.app == nil {
		return nil
	}
	return s.app.Close()
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:        s.app.Config.Server.Addr,
		Handler:     s,
		ReadTimeout: s.app.Config.Server.ReadTimeout(),
		// Uploads block for the whole run and websockets stream.
		WriteTimeout: 0,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

// handleHealth godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUploadForm godoc
// @Summary Upload form
// @Tags upload
// @Produce html
// @Success 200 {string} string "HTML form"
// @Router /upload [get]
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, uploadForm)
}

// handleUpload godoc
// @Summary Process a CSV upload
// @Description Saves the file, visits every row URL in the shared browser session and marks each row Pass or Fail.
// @Tags upload
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV with Url, Fieldname, Value and optional Action columns"
// @Success 200 {object} UploadResponse
// @Header 200 {string} X-Run-ID "run id"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /upload [post]
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxMemory := int64(s.app.Config.Server.MaxUploadMB) << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		s.logger.Warn("parsing upload form", logging.Err(err))
		writeError(w, http.StatusBadRequest, msgNoFilePart)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		// A file input submitted without a selection arrives as a plain
		// value with an empty filename.
		if _, ok := r.MultipartForm.Value[uploadField]; ok {
			writeError(w, http.StatusBadRequest, msgNoSelectedFile)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFilePart)
		return
	}
	fh := headers[0]
	if fh.Filename == "" {
		writeError(w, http.StatusBadRequest, msgNoSelectedFile)
		return
	}

	path, err := s.saveUpload(fh)
	if err != nil {
		s.logger.Error("saving upload", logging.String("file", fh.Filename), logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	run, err := s.app.Checker.Run(r.Context(), app.RunRequest{FileName: fh.Filename, FilePath: path})
	if run != nil {
		w.Header().Set(HeaderRunID, run.ID)
	}
	if err != nil {
		s.logger.Error("processing upload", logging.String("file", fh.Filename), logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.logger.Info("processed upload",
		logging.String("file", fh.Filename),
		logging.String("run_id", run.ID),
		logging.Int("rows", len(run.Rows)))
	rows := run.Rows
	if rows == nil {
		rows = []*model.Row{}
	}
	writeJSON(w, http.StatusOK, UploadResponse{Message: msgProcessed, Rows: rows})
}

func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	path := filepath.Join(s.app.Config.Server.UploadDir, fh.Filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", path)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", errors.Wrapf(err, "write %s", path)
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", path)
	}
	return path, nil
}

// handleListRuns godoc
// @Summary List recent runs
// @Tags runs
// @Produce json
// @Param limit query int false "max runs" default(50)
// @Success 200 {array} model.Run
// @Failure 500 {object} ErrorResponse
// @Router /runs [get]
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.app.History == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	limit := defaultRunsLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	runs, err := s.app.History.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing runs", logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGetRun godoc
// @Summary Get one run with its annotated rows
// @Tags runs
// @Produce json
// @Param runID path string true "run id"
// @Success 200 {object} model.Run
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /runs/{runID} [get]
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.app.History == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	run, err := s.app.History.Get(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, runstore.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("loading run", logging.Err(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// WebSockets

// handleRunsWS godoc
// @Summary Stream run progress events
// @Tags runs
// @Router /ws/runs [get]
func (s *Server) handleRunsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := s.app.Checker.Events().Subscribe(64)
	defer unsubscribe()

	// The client never sends anything; reading detects the disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("websocket client went away", logging.Err(err))
				return
			}
		}
	}
}

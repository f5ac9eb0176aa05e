package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/yurifrl/conciliu/pkg/config"
	"github.com/yurifrl/conciliu/pkg/dates"
	"github.com/yurifrl/conciliu/pkg/export"
	"github.com/yurifrl/conciliu/pkg/models"
	"github.com/yurifrl/conciliu/pkg/parser"
	"github.com/yurifrl/conciliu/pkg/reconcile"
	"github.com/yurifrl/conciliu/pkg/settings"
)

const maxUploadBytes = 64 << 20

// Server exposes the reconciliation state over a local JSON API. Handlers run
// concurrently, so every state access goes through mu.
type Server struct {
	config     *config.Config
	logger     *log.Logger
	mux        *http.ServeMux
	parser     *parser.Parser
	calculator *reconcile.Calculator
	store      settings.Store

	mu    sync.Mutex
	state *reconcile.State
}

func New(cfg *config.Config, logger *log.Logger) *Server {
	s := &Server{
		config:     cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		parser:     parser.New(logger),
		calculator: reconcile.New(logger, cfg.Options()),
		store:      settings.NewFileStore(cfg.Settings),
		state:      reconcile.NewState(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Restore applies the stored settings to the in-memory state.
func (s *Server) Restore(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return stored.Apply(s.state)
}

// Start restores settings and serves until the listener fails.
func (s *Server) Start(addr string) error {
	if err := s.Restore(context.Background()); err != nil {
		return fmt.Errorf("restoring settings: %w", err)
	}
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/files", s.withLogging(s.handleUpload))
	s.mux.HandleFunc("GET /api/files", s.withLogging(s.handleListFiles))
	s.mux.HandleFunc("DELETE /api/files/{id}", s.withLogging(s.handleRemoveFile))
	s.mux.HandleFunc("POST /api/reset", s.withLogging(s.handleReset))
	s.mux.HandleFunc("GET /api/accounts", s.withLogging(s.handleAccounts))
	s.mux.HandleFunc("GET /api/accounts/{account}/rows", s.withLogging(s.handleAccountRows))
	s.mux.HandleFunc("GET /api/settings", s.withLogging(s.handleGetSettings))
	s.mux.HandleFunc("PUT /api/settings", s.withLogging(s.handlePutSettings))
	s.mux.HandleFunc("POST /api/calculate", s.withLogging(s.handleCalculate))
	s.mux.HandleFunc("GET /api/merge", s.withLogging(s.handleMerge))
}

// ---------------- files ----------------

type uploadError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// handleUpload normalizes every uploaded file. A file that fails to load is
// reported and the others are still added.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	src, err := models.ParseSource(r.URL.Query().Get("source"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "source must be conta or anaf", err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read upload", err)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, r, http.StatusBadRequest, "no files uploaded", nil)
		return
	}

	var (
		loaded []*models.LoadedFile
		failed []uploadError
	)
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			failed = append(failed, uploadError{File: fh.Filename, Message: err.Error()})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			failed = append(failed, uploadError{File: fh.Filename, Message: err.Error()})
			continue
		}
		lf, err := s.parser.ProcessBytes(data, fh.Filename, src)
		if err != nil {
			s.logger.Warn("failed to load file", "file", fh.Filename, "err", err)
			failed = append(failed, uploadError{File: fh.Filename, Message: err.Error()})
			continue
		}
		loaded = append(loaded, lf)
	}

	s.mu.Lock()
	for _, lf := range loaded {
		s.state.AddFile(lf)
	}
	s.mu.Unlock()

	status := http.StatusOK
	if len(loaded) == 0 {
		status = http.StatusBadRequest
	}
	s.writeJSONOrWarn(w, status, map[string]any{
		"status": statusText(status),
		"files":  loaded,
		"errors": failed,
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	files := append([]*models.LoadedFile(nil), s.state.Files...)
	s.mu.Unlock()

	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{
		"status": "success",
		"files":  files,
	})
}

func (s *Server) handleRemoveFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	removed := s.state.RemoveFile(id)
	s.mu.Unlock()

	if !removed {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}
	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{"status": "success", "removed": id})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.state.Reset()
	s.mu.Unlock()

	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{"status": "success"})
}

// ---------------- accounts ----------------

// handleAccounts lists the distinct ledger accounts found in the loaded
// Contabilitate files.
func (s *Server) handleAccounts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	rows := s.state.Rows(models.Conta)
	tracked := append([]string(nil), s.state.Accounts...)
	s.mu.Unlock()

	seen := make(map[string]struct{})
	accounts := []string{}
	for _, r := range rows {
		a := r.Account()
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)

	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{
		"status":   "success",
		"accounts": accounts,
		"tracked":  tracked,
	})
}

func (s *Server) handleAccountRows(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	s.mu.Lock()
	rows := s.calculator.Details(s.state, account)
	s.mu.Unlock()

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Values())
	}
	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{
		"status":  "success",
		"account": account,
		"header":  export.Header,
		"rows":    out,
	})
}

// ---------------- settings ----------------

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	current := settings.FromState(s.state)
	s.mu.Unlock()

	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{
		"status":   "success",
		"settings": current,
	})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var incoming settings.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&incoming); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid settings body", err)
		return
	}

	s.mu.Lock()
	err := incoming.Apply(s.state)
	current := settings.FromState(s.state)
	s.mu.Unlock()
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	if err := s.store.Save(r.Context(), current); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to save settings", err)
		return
	}
	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{
		"status":   "success",
		"settings": current,
	})
}

// ---------------- calculate ----------------

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	res, err := s.calculator.Calculate(s.state)
	s.mu.Unlock()

	if errors.Is(err, reconcile.ErrNoAccounts) || errors.Is(err, reconcile.ErrNoFiles) {
		s.respondError(w, r, http.StatusUnprocessableEntity, reconcile.StatusMessage(err), nil)
		return
	}
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "calculation failed", err)
		return
	}

	s.writeJSONOrWarn(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": reconcile.StatusMessage(nil),
		"result":  res,
	})
}

// ---------------- merge ----------------

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src, err := models.ParseSource(q.Get("source"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "source must be conta or anaf", err)
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}

	s.mu.Lock()
	merged, err := export.Merge(src, s.state.Files, s.convention(src))
	s.mu.Unlock()
	if errors.Is(err, export.ErrNothingToMerge) {
		s.respondError(w, r, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "merge failed", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", merged.FileName(format)))
	if err := merged.Write(w, format); err != nil {
		s.logger.Warn("failed to write merge response", "err", err)
	}
}

func (s *Server) convention(src models.Source) dates.Convention {
	opts := s.calculator.Options()
	if src == models.Anaf {
		return opts.AnafConvention
	}
	return opts.ContaConvention
}

// --- helpers ---

func statusText(code int) string {
	if code >= http.StatusBadRequest {
		return "error"
	}
	return "success"
}

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) writeJSONOrWarn(w http.ResponseWriter, status int, v any) {
	if err := s.writeJSON(w, status, v); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}

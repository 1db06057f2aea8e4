// Package server runs the task planner over HTTP: the web pages at the root
// and a JSON API under /api/.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/amonks/taskplanner/internal/logging"
	internalstrings "github.com/amonks/taskplanner/internal/strings"
	"github.com/amonks/taskplanner/planner"
	"github.com/amonks/taskplanner/task"
	"github.com/amonks/taskplanner/web"
	"github.com/charmbracelet/log"
)

// Options configures a Server.
type Options struct {
	Planner *planner.Planner
	Logger  *log.Logger
}

// Server handles web and API requests.
type Server struct {
	planner *planner.Planner
	logger  *log.Logger
}

const shutdownTimeout = 5 * time.Second

// NewServer creates a server for the given planner.
func NewServer(opts Options) (*Server, error) {
	if opts.Planner == nil {
		return nil, fmt.Errorf("planner is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = opts.Planner.Logger
	}
	return &Server{
		planner: opts.Planner,
		logger:  logging.OrDiscard(logger).WithPrefix("server"),
	}, nil
}

// Handler returns the HTTP handler for the web pages and the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/tasks/complete", s.handleTasksComplete)
	mux.HandleFunc("/api/tasks/delete", s.handleTasksDelete)
	mux.HandleFunc("/api/remind", s.handleRemind)
	mux.Handle("/", web.NewHandler(web.Options{
		Tasks:         s.planner.Tasks,
		Subscriptions: s.planner.Subscriptions,
		Exporter:      s.planner.Exporter,
		BaseURL:       s.planner.Config.Server.BaseURL,
		Logger:        s.logger,
	}))
	return s.recoverHandler(s.logRequests(mux))
}

// ListenAndServe listens on addr and serves until ctx is done or the
// process is interrupted.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done or the process
// is interrupted, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ErrorLog:          logging.StandardLog(s.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.Serve(listener)
	}()
	s.logger.Info("listening", "addr", listener.Addr().String())

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "err", err)
			return err
		}
		return nil
	case <-interrupts:
		s.logger.Info("interrupt received, shutting down")
	case <-ctx.Done():
		s.logger.Info("context done, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	shutdownErr := server.Shutdown(shutdownCtx)
	cancel()
	listenErr := <-listenErrs
	if errors.Is(listenErr, http.ErrServerClosed) {
		listenErr = nil
	}
	if errors.Is(shutdownErr, http.ErrServerClosed) {
		shutdownErr = nil
	}
	return errors.Join(shutdownErr, listenErr)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, tasksListResponse{Tasks: s.planner.Tasks.All(r.Context())})
	case http.MethodPost:
		var payload tasksCreateRequest
		if err := decodeJSON(r, &payload); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		created, err := s.planner.Tasks.Add(r.Context(), internalstrings.TrimSpace(payload.Name))
		if err != nil {
			s.writeError(w, r, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, taskResponse{Task: created})
	default:
		w.Header().Set("Allow", "GET, POST")
		s.writeError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (s *Server) handleTasksComplete(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload tasksCompleteRequest
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if payload.Completed == nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("completed is required"))
		return
	}
	id, err := requestTaskID(payload.ID)
	if err != nil {
		s.writeError(w, r, statusForError(err), err)
		return
	}
	updated, err := s.planner.Tasks.SetCompleted(r.Context(), id, *payload.Completed)
	if err != nil {
		s.writeError(w, r, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: updated})
}

func (s *Server) handleTasksDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	var payload tasksDeleteRequest
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	id, err := requestTaskID(payload.ID)
	if err != nil {
		s.writeError(w, r, statusForError(err), err)
		return
	}
	if err := s.planner.Tasks.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, emptyResponse{})
}

func (s *Server) handleRemind(w http.ResponseWriter, r *http.Request) {
	if !s.requireMethod(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusOK, s.planner.Reminders.Send(r.Context()))
}

// requestTaskID returns the trimmed id from a request body. The API matches
// ids exactly; prefix lookup is left to the CLI.
func requestTaskID(input string) (string, error) {
	id := internalstrings.TrimSpace(input)
	if id == "" {
		return "", errTaskIDRequired
	}
	return id, nil
}

var errTaskIDRequired = errors.New("task id is required")

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, task.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, task.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, task.ErrEmptyName),
		errors.Is(err, task.ErrAmbiguousIDPrefix),
		errors.Is(err, errTaskIDRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseTracker{ResponseWriter: w}
		defer func() {
			if recovered := recover(); recovered != nil {
				s.logger.Error("panic handling request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", recovered,
					"stack", string(debug.Stack()))
				if writer.wroteHeader {
					return
				}
				writeJSON(writer, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(writer, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writer := &responseTracker{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration", time.Since(start))
	})
}

func (s *Server) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	s.writeError(w, r, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	return false
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logRequestError(r, status, err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logRequestError(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
		return
	}
	s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
}

type responseTracker struct {
	http.ResponseWriter
	wroteHeader bool
	status      int
}

func (w *responseTracker) WriteHeader(status int) {
	w.wroteHeader = true
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(data)
}

func (w *responseTracker) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

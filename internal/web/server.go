package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"family-calendar/internal/calendar"
	appLog "family-calendar/internal/log"
	"family-calendar/internal/model"
	"family-calendar/internal/service"
)

const maxBodyBytes = 1 << 20

// Options tunes a Server.
type Options struct {
	Title string
	// APIKey protects every route except /health when set.
	APIKey string
	Now    func() time.Time
}

// Server exposes the calendar over JSON and iCalendar.
type Server struct {
	schedules *service.ScheduleService
	tasks     *service.TaskService
	reminders *service.ReminderService
	opts      Options
	mux       *http.ServeMux
}

func NewServer(schedules *service.ScheduleService, tasks *service.TaskService, reminders *service.ReminderService, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Title == "" {
		opts.Title = "Calendar"
	}
	s := &Server{
		schedules: schedules,
		tasks:     tasks,
		reminders: reminders,
		opts:      opts,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed handler wrapped in the request interceptors.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.opts.APIKey != "" {
		h = s.apiKeyMiddleware(h)
	}
	return recoverMiddleware(h)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr, "auth", s.opts.APIKey != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		appLog.Info("stopping HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/schedules", s.handleListSchedules)
	s.mux.HandleFunc("POST /api/schedules", s.handleCreateSchedule)
	s.mux.HandleFunc("GET /api/schedules/{id}", s.handleGetSchedule)
	s.mux.HandleFunc("PUT /api/schedules/{id}", s.handleUpdateSchedule)
	s.mux.HandleFunc("DELETE /api/schedules/{id}", s.handleDeleteSchedule)
	s.mux.HandleFunc("GET /api/schedules/{id}/occurrences/{date}", s.handleFindOccurrence)

	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/missed", s.handleMarkMissed)
	s.mux.HandleFunc("POST /api/tasks/{id}/reschedule", s.handleRescheduleTask)

	s.mux.HandleFunc("GET /api/reminder-check", s.handleReminderCheck)
	s.mux.HandleFunc("POST /api/regenerate", s.handleRegenerate)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendarFeed)
}

func (s *Server) today() time.Time {
	return calendar.Day(s.opts.Now())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "title": s.opts.Title})
}

// apiKeyMiddleware requires X-API-Key on every route except /health. The
// calendar feed also accepts ?key= since calendar clients cannot set headers.
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" && r.URL.Path == "/calendar.ics" {
			key = r.URL.Query().Get("key")
		}
		if !secureCompare(key, s.opts.APIKey) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				appLog.Error("handler panic", errors.New("panic"), "path", r.URL.Path, "value", rec)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Storage
// details are logged and never sent to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("request failed", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if model.IsValidation(err) {
			return err
		}
		return model.Invalid("body", "malformed JSON: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, model.Invalid("id", "invalid id %q", raw)
	}
	return uint(id), nil
}

// queryDay parses an optional YYYY-MM-DD query parameter.
func queryDay(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.ParseDay(name, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

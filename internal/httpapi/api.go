// Package httpapi is the HTTP surface of the service. Handlers stay thin:
// decode, call a service, map the error, encode.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"taskora.org/internal/auth"
	"taskora.org/internal/obs"
	"taskora.org/internal/todo"
)

// ReadyProbe checks readiness (pings the database when one is configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth     *auth.Service
	resolver *auth.Resolver
	todos    *todo.Service

	rateBurst    int
	ratePerSec   float64
	maxBodyBytes int64
}

// Option configures API behavior.
type Option func(*API)

// WithRateLimit overrides the per-IP throttle settings.
func WithRateLimit(burst int, perSecond float64) Option {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSecond > 0 {
			a.ratePerSec = perSecond
		}
	}
}

// WithMaxBodyBytes overrides the request body size limit.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

func New(rp ReadyProbe, version string, authSvc *auth.Service, resolver *auth.Resolver, todos *todo.Service, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		auth:         authSvc,
		resolver:     resolver,
		todos:        todos,
		rateBurst:    20,
		ratePerSec:   10,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// credential exchange
	a.mux.HandleFunc("/auth/register", a.handleRegister)
	a.mux.HandleFunc("/auth/token", a.handleToken)

	// self-service profile
	a.mux.HandleFunc("/user/me", a.handleUserMe)
	a.mux.HandleFunc("/user/password", a.handleUserPassword)

	// todos
	a.mux.HandleFunc("/todos", a.handleTodos)
	a.mux.HandleFunc("/todos/", a.handleTodoByID)

	// admin
	a.mux.HandleFunc("/admin/users", a.handleAdminUsers)
	a.mux.HandleFunc("/admin/users/", a.handleAdminUserScoped)
	a.mux.HandleFunc("/admin/todos/", a.handleAdminTodoByID)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, r, http.StatusNotFound, "Resource not found.")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "taskora-api",
			"version": a.version,
		})
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "taskora-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// decodeJSON relies on the MaxBodyBytes middleware for the size cap, so the
// configured limit applies here without a second hard-coded one.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, r, http.StatusUnauthorized, "Could not validate user.")
}

// handleServiceError maps domain errors onto the HTTP contract. Credential
// and token failures share one 401 body; ownership failures arrive here
// already collapsed into not-found.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *auth.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeError(w, r, http.StatusConflict, conflict.Error())
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, todo.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		unauthorized(w, r)
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "Operation requires administrator privileges.")
	case errors.Is(err, todo.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Todo not found.")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Resource not found.")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// Package httpapi exposes a producer pool over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/genlist/internal/pool"
	"github.com/roach88/genlist/internal/producer"
	"github.com/roach88/genlist/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Service is the pool surface the API needs. *pool.Pool implements it.
type Service interface {
	Add(ctx context.Context, spec producer.Spec) (string, error)
	Next(ctx context.Context) (pool.Step, error)
	Pull(ctx context.Context) (pool.Step, error)
	Sweep(ctx context.Context) ([]string, error)
	Retire(ctx context.Context, id string) error
	Snapshot(ctx context.Context) ([]pool.NodeView, error)
	Events(ctx context.Context, f store.EventFilter) ([]store.Event, error)
}

// Options configures NewMux.
type Options struct {
	// Registry receives the HTTP metrics and backs GET /metrics.
	// Nil means a fresh registry.
	Registry *prometheus.Registry

	// Logger for request logs. Nil means slog.Default().
	Logger *slog.Logger
}

// NewMux builds the router for svc.
func NewMux(svc Service, opts Options) http.Handler {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	metrics := newHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.middleware)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/producers", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			views, err := svc.Snapshot(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"producers": views})
		})

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			var spec producer.Spec
			if err := dec.Decode(&spec); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			id, err := svc.Add(r.Context(), spec)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"id": id})
		})

		r.Post("/{id}/retire", func(w http.ResponseWriter, r *http.Request) {
			if err := svc.Retire(r.Context(), chi.URLParam(r, "id")); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	// POST /next pulls until a value or an empty list; ?step=1 performs a
	// single GenerateNext instead.
	r.Post("/next", func(w http.ResponseWriter, r *http.Request) {
		next := svc.Pull
		if r.URL.Query().Get("step") == "1" {
			next = svc.Next
		}
		step, err := next(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, step)
	})

	r.Post("/sweep", func(w http.ResponseWriter, r *http.Request) {
		removed, err := svc.Sweep(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if removed == nil {
			removed = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
	})

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := store.EventFilter{
			ProducerID: q.Get("producer"),
			Kind:       store.EventKind(q.Get("kind")),
		}
		var err error
		if f.AfterSeq, err = intParam(q.Get("after")); err != nil {
			writeJSONError(w, http.StatusBadRequest, "after must be an integer")
			return
		}
		limit, err := intParam(q.Get("limit"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		f.Limit = int(limit)

		events, err := svc.Events(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	})

	r.Get("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP)

	return r
}

func intParam(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request at debug level.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"dur", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

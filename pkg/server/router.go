package server

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/factsd/factsd/pkg/plugin"
	"github.com/factsd/factsd/pkg/serializer"
)

// maxConfigBytes caps the execute request body. Collector configurations
// are small option maps; anything larger is a client bug.
const maxConfigBytes = 1 << 20

// setupRoutes configures all HTTP routes and middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Default handler
	mux.HandleFunc("/", s.handleDefault)

	// System endpoints (no rate limiting)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	// Boundary endpoints with middleware
	mux.HandleFunc("GET /v1/collectors", s.withMiddleware(s.handleEnumerate))
	mux.HandleFunc("POST /v1/collectors/{name}", s.withMiddleware(s.handleExecute))
	mux.HandleFunc("GET /v1/extensions/{category}", s.withMiddleware(s.handleExtensions))

	return mux
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	slog.Debug("handling default route",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)

	resp := struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		Ready     bool     `json:"ready"`
		Timestamp string   `json:"timestamp"`
		Routes    []string `json:"routes"`
	}{
		Name:      Name,
		Version:   Version,
		Ready:     s.Ready(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Routes: []string{
			"GET /v1/collectors",
			"POST /v1/collectors/{name}",
			"GET /v1/extensions/{category}",
			"GET /health",
			"GET /ready",
			"GET /metrics",
		},
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}

// handleEnumerate serves the descriptor set. A serialization fault here is
// host-fatal and becomes a 500, distinguishable from an empty list.
func (s *Server) handleEnumerate(w http.ResponseWriter, r *http.Request) {
	raw, err := s.registry.EnumerateRaw()
	if err != nil {
		slog.Error("descriptor enumeration failed", slog.String("error", err.Error()))
		WriteError(w, r, http.StatusInternalServerError,
			ErrCodeInternalError, "descriptor enumeration failed", false, nil)
		return
	}
	serializer.RespondRawJSON(w, http.StatusOK, raw)
}

// handleExecute runs a collector. The response is always 200 with either a
// facts document or an error document; the dispatch boundary guarantees
// the body is well-formed JSON.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest,
			ErrCodeInvalidRequest, "failed to read request body", true, nil)
		return
	}

	raw := s.registry.ExecuteRaw(r.Context(), name, body)
	serializer.RespondRawJSON(w, http.StatusOK, raw)
}

// handleExtensions enumerates a sibling extension category. Categories the
// plugin does not declare yield an empty sequence, which is a valid,
// complete answer.
func (s *Server) handleExtensions(w http.ResponseWriter, r *http.Request) {
	category := plugin.Category(r.PathValue("category"))

	known := category == plugin.CategoryFactsCollectors
	for _, c := range plugin.SiblingCategories {
		if category == c {
			known = true
			break
		}
	}
	if !known {
		WriteError(w, r, http.StatusNotFound,
			ErrCodeInvalidRequest, "unknown extension category: "+string(category), false, nil)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, s.registry.Extensions(category))
}

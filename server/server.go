// Package server is the HTTP front end: it marshals the wire surface
// (GET /key?key=K, POST /key, DELETE /key/<K>) to coordinator calls and
// owns nothing else — request parsing, routing, and response shaping live
// here, while every cache/queue/store decision stays behind the
// coordinator.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/MohitThorat/kvserver/log"
)

// Coordinator is the surface the front end drives. Implemented by
// *coordinator.Coordinator.
type Coordinator interface {
	HandleGet(ctx context.Context, key string) (value []byte, ok bool, err error)
	HandlePut(key string, value []byte)
	HandleDelete(key string)
}

// Server serves the key/value wire surface over HTTP.
type Server struct {
	co     Coordinator
	logger log.Logger

	// handlers caps in-flight requests at the configured handler budget;
	// net/http spawns a goroutine per connection, so the bound is applied
	// here rather than by a fixed thread pool.
	handlers *semaphore.Weighted
}

// New constructs a Server. handlerBudget caps concurrently-served
// requests; values <= 0 leave the server unbounded. A nil logger falls
// back to log.NopLogger.
func New(co Coordinator, handlerBudget int, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NopLogger{}
	}
	s := &Server{co: co, logger: logger}
	if handlerBudget > 0 {
		s.handlers = semaphore.NewWeighted(int64(handlerBudget))
	}
	return s
}

// Handler returns the routing table: /key for GET and POST, /key/<K> for
// DELETE.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/key", s.limit(s.handleKey))
	mux.HandleFunc("/key/", s.limit(s.handleKeyPath))
	return mux
}

// limit wraps a handler with the handler-budget semaphore.
func (s *Server) limit(h http.HandlerFunc) http.HandlerFunc {
	if s.handlers == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.handlers.Acquire(r.Context(), 1); err != nil {
			// Client went away while waiting for a slot.
			return
		}
		defer s.handlers.Release(1)
		h(w, r)
	}
}

// putRequest is the POST /key body.
type putRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"status": "error", "message": "method not allowed",
		})
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"error": "No 'key' parameter was provided.",
		})
		return
	}

	v, ok, err := s.co.HandleGet(r.Context(), key)
	switch {
	case err != nil:
		s.logger.Warn("get failed", log.Fields{"key": key, "err": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"key": key, "error": "Lookup failed",
		})
	case !ok:
		writeJSON(w, http.StatusOK, map[string]string{
			"key": key, "error": "Key not found",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"key": key, "value": string(v),
		})
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength <= 0 {
		writeJSON(w, http.StatusLengthRequired, map[string]string{
			"status": "error", "message": "Content-Length header is missing or invalid.",
		})
		return
	}

	var req putRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "message": "Invalid JSON format",
		})
		return
	}

	s.co.HandlePut(req.Key, []byte(req.Value))
	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "ok", "created_key": req.Key,
	})
}

func (s *Server) handleKeyPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"status": "error", "message": "method not allowed",
		})
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/key/")
	if key == "" || strings.Contains(key, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "message": "No key specified in path",
		})
		return
	}

	s.co.HandleDelete(key)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok", "deleted_key": key,
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Encoding a flat string map cannot fail; the error is deliberately
	// dropped, matching the log-and-continue posture everywhere else.
	_ = json.NewEncoder(w).Encode(body)
}

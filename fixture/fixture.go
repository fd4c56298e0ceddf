// Package fixture serves deterministic response bodies for benchmarks and tests.
package fixture

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

// Server answers with bodies of known length.
//
//	GET /bytes/{n}?delay=50ms  n bytes, optionally delayed
//	GET /empty                 204 without a body
//	GET /status/{code}         empty body with the given status
type Server struct {
	logger *zap.Logger
	router chi.Router
	hits   atomic.Int64
}

func New(logger *zap.Logger) *Server {
	s := &Server{logger: logger}

	r := chi.NewRouter()
	r.Get("/bytes/{n}", s.handleBytes)
	r.Get("/empty", s.handleEmpty)
	r.Get("/status/{code}", s.handleStatus)
	s.router = r

	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return handlers.RecoveryHandler()(s.instrument(s.router))
}

// Start serves the fixture on a loopback listener. The caller closes it.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.Handler())
}

// Hits is the number of requests served so far.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// BytesURL builds the URL of an n-byte body on the server at base.
func BytesURL(base string, n int, delay time.Duration) string {
	u := fmt.Sprintf("%s/bytes/%d", base, n)
	if delay > 0 {
		u += "?delay=" + delay.String()
	}
	return u
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)

		m := httpsnoop.CaptureMetrics(next, w, r)

		s.logger.Debug("fixture request served",
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Int64("written", m.Written),
			zap.Duration("duration", m.Duration),
		)
	})
}

func (s *Server) handleBytes(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 {
		http.Error(w, "bad length", http.StatusBadRequest)
		return
	}

	if raw := r.URL.Query().Get("delay"); raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil {
			http.Error(w, "bad delay", http.StatusBadRequest)
			return
		}

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(n))
	_, _ = w.Write(bytes.Repeat([]byte{'x'}, n))
}

func (s *Server) handleEmpty(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 200 || code > 599 {
		http.Error(w, "bad status", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
}

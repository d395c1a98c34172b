// Package inspect serves a small HTTP view over a resource cache.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/spaghettifunk/rezcache/engine/assets"
	"github.com/spaghettifunk/rezcache/engine/core"
	"github.com/spaghettifunk/rezcache/engine/resources"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.MaxDepth = 4
}

// ResourceInfo is the JSON summary of a cached resource.
type ResourceInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Directory string    `json:"directory"`
	Loaded    bool      `json:"loaded"`
}

type Server struct {
	cache   *resources.Cache
	metrics *core.Metrics
	watcher *assets.Watcher
}

type Option func(*Server)

func WithMetrics(m *core.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithWatcher(w *assets.Watcher) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

func NewServer(cache *resources.Cache, options ...Option) *Server {
	s := &Server{cache: cache}
	for _, o := range options {
		o(s)
	}
	return s
}

// Handler returns the routed handler, with panic recovery and request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/resources", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/resources/{name}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/resources/{name}", s.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/dump/resources/{name}", s.handleDump).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/stale", s.handleStale).Methods(http.MethodGet)

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	return handlers.LoggingHandler(logWriter{}, h)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		core.LogInfo("Starting inspector on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names := s.cache.Names()
	infos := make([]ResourceInfo, 0, len(names))
	for _, name := range names {
		if res, ok := s.cache.Get(name); ok {
			infos = append(infos, describe(res))
		}
	}
	writeJson(w, http.StatusOK, infos)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJson(w, http.StatusOK, describe(res))
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	spewConfig.Fdump(w, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, ok := s.cache.RemoveNamed(name); !ok {
		writeError(w, http.StatusNotFound, "resource '"+name+"' not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusNotFound, "metrics are not enabled")
		return
	}
	writeJson(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleStale(w http.ResponseWriter, r *http.Request) {
	if s.watcher == nil {
		writeError(w, http.StatusNotFound, "watching is not enabled")
		return
	}
	stale := s.watcher.Stale()
	if stale == nil {
		stale = []assets.StaleResource{}
	}
	writeJson(w, http.StatusOK, stale)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (resources.Resource, bool) {
	name := mux.Vars(r)["name"]
	res, ok := s.cache.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "resource '"+name+"' not found")
	}
	return res, ok
}

func describe(r resources.Resource) ResourceInfo {
	t := reflect.TypeOf(r)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return ResourceInfo{
		ID:        r.ID(),
		Name:      r.Name(),
		Kind:      t.Name(),
		Directory: r.Directory(),
		Loaded:    r.WasLoaded(),
	}
}

func writeJson(w http.ResponseWriter, status int, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// logWriter forwards access log lines to the engine logger.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	core.LogDebug("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Package server implements the HTTP resolver contract: it translates
// inbound requests into calls against a cachemgr.Manager and renders the
// JSON/byte responses, but owns no scanning, caching, or rescan logic of
// its own.
//
// Routing is done by hand over the standard library's net/http rather
// than a third-party router, since only four fixed routes ever need to
// be matched.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Lighty-Launcher/LightyUpdater/cachemgr"
	"github.com/Lighty-Launcher/LightyUpdater/cmn"
)

// Server owns the HTTP listener and its dependency on the cache manager.
type Server struct {
	mgr    *cachemgr.Manager
	logger *zap.SugaredLogger
	http   *http.Server
	// inflight bounds concurrent request handling when
	// server.max_concurrent_requests is configured; nil means unbounded.
	inflight chan struct{}
}

// New builds a Server bound to addr, backed by mgr. Request timeouts,
// the in-flight request cap, and allowed origins come from the active
// configuration's server section.
func New(addr string, mgr *cachemgr.Manager, logger *zap.SugaredLogger) *Server {
	cfg := mgr.Config()
	s := &Server{mgr: mgr, logger: logger}
	if n := cfg.Server.MaxConcurrentReqs; n > 0 {
		s.inflight = make(chan struct{}, n)
	}

	timeout := time.Duration(cfg.Server.TimeoutSecs) * time.Second
	s.http = &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(s.dispatch),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	return s
}

// dispatch routes every request by hand instead of registering patterns
// on an http.ServeMux: ServeMux sanitizes "." and ".." path elements by
// issuing a 301 redirect to the cleaned path before any handler runs,
// which would silently rewrite a traversal attempt instead of letting
// step 1 of the serve-file contract reject it with 400.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if s.inflight != nil {
		select {
		case s.inflight <- struct{}{}:
			defer func() { <-s.inflight }()
		default:
			writeError(w, http.StatusServiceUnavailable, "overloaded", "too many concurrent requests", nil)
			return
		}
	}
	s.applyCORS(w, r)

	if strings.HasPrefix(r.URL.Path, "/rescan/") {
		s.handleRescan(w, r)
		return
	}
	s.handleRoot(w, r)
}

// applyCORS reflects the request origin back when it is in the
// configured allowed set ("*" allows any).
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origins := s.mgr.Config().Server.AllowedOrigins
	if len(origins) == 0 {
		return
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range origins {
		if allowed == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			return
		}
		if allowed == origin && origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			return
		}
	}
}

// ListenAndServe starts serving until the process is signaled to stop;
// callers should run it in its own goroutine and call Shutdown to stop
// it cleanly.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the request handler so tests can exercise the
// resolver contract with httptest without binding a real listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// handleRoot dispatches GET / (namespace directory), GET /{ns}.json
// (snapshot document), and GET /{ns}/{path...} (file serve) -- the three
// endpoints share a prefix, so a single handler multiplexes on the
// trimmed path.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported", nil)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		s.listNamespaces(w, r)
		return
	}

	if ns, ok := strings.CutSuffix(path, ".json"); ok && !strings.Contains(ns, "/") {
		s.namespaceDocument(w, r, ns)
		return
	}

	ns, requestPath, ok := strings.Cut(path, "/")
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown route", nil)
		return
	}
	s.serveFile(w, r, ns, requestPath)
}

// namespaceListEntry is one row of the directory response.
type namespaceListEntry struct {
	Name          string  `json:"name"`
	Loader        string  `json:"loader"`
	TargetVersion string  `json:"target_version"`
	URL           string  `json:"url"`
	LastUpdated   *string `json:"last_update,omitempty"`
}

func (s *Server) listNamespaces(w http.ResponseWriter, _ *http.Request) {
	cfg := s.mgr.Config()
	baseURL := strings.TrimRight(cfg.Server.BaseURL, "/")

	entries := make([]namespaceListEntry, 0, len(cfg.Servers))
	for _, sc := range cfg.EnabledNamespaces() {
		entry := namespaceListEntry{
			Name:          sc.Name,
			Loader:        sc.Loader,
			TargetVersion: sc.TargetVersion,
			URL:           baseURL + "/" + sc.Name + ".json",
		}
		if ts, ok := s.mgr.LastUpdated(sc.Name); ok {
			entry.LastUpdated = &ts
		}
		entries = append(entries, entry)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"servers": entries})
}

func (s *Server) namespaceDocument(w http.ResponseWriter, _ *http.Request, namespace string) {
	snap, ok := s.mgr.Get(namespace)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_namespace", "namespace not found", s.availableNames())
		return
	}
	body, err := snap.MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to render snapshot", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// serveFile validates the request path, resolves it against the
// namespace's snapshot, and serves the bytes from the cache or disk.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, namespace, requestPath string) {
	if cmn.ContainsTraversal(requestPath) {
		writeError(w, http.StatusBadRequest, "invalid_path", "request path is not allowed", nil)
		return
	}

	snap, ok := s.mgr.Get(namespace)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_namespace", "namespace not found", s.availableNames())
		return
	}

	cfg := s.mgr.Config()
	fullURL := strings.TrimRight(cfg.Server.BaseURL, "/") + "/" + namespace + "/" + requestPath
	relPath, ok := snap.Resolve(fullURL)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_file", "file is not part of this namespace's inventory", nil)
		return
	}

	absPath := s.mgr.AbsPath(namespace, relPath)
	thresholdBytes := int64(cfg.Server.StreamingThresholdMB) * 1024 * 1024

	result, err := s.mgr.GetFile(r.Context(), namespace, relPath, absPath, thresholdBytes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to read file", nil)
		return
	}

	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}

	if result.Bytes != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(int64(len(result.Bytes)), 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Bytes)
		return
	}

	f, err := os.Open(result.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to open file", nil)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported", nil)
		return
	}
	namespace := strings.TrimPrefix(r.URL.Path, "/rescan/")
	if namespace == "" || strings.Contains(namespace, "/") {
		writeError(w, http.StatusBadRequest, "invalid_path", "missing namespace", nil)
		return
	}

	if err := s.mgr.ForceRescan(r.Context(), namespace); err != nil {
		if cmn.IsNamespaceNotFound(err) {
			writeError(w, http.StatusNotFound, "unknown_namespace", "namespace not found", s.availableNames())
			return
		}
		s.logger.Warnw("rescan request failed", "namespace", namespace, "error", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "rescan complete"})
}

func (s *Server) availableNames() []string {
	cfg := s.mgr.Config()
	out := make([]string, 0, len(cfg.Servers))
	for _, sc := range cfg.EnabledNamespaces() {
		out = append(out, sc.Name)
	}
	return out
}

type errorBody struct {
	Error struct {
		Code             string   `json:"code"`
		Message          string   `json:"message"`
		AvailableServers []string `json:"available_servers,omitempty"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, code, message string, available []string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	body.Error.AvailableServers = available
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}


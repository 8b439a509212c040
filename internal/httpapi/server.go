// Package httpapi exposes a read-only introspection surface over the node's
// deployed versions: identity, path classification, source provenance and
// node metrics.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/AppHost-Network/host_runtime/internal/appversion"
	"github.com/AppHost-Network/host_runtime/internal/config"
	"github.com/AppHost-Network/host_runtime/internal/metrics"
	"github.com/AppHost-Network/host_runtime/internal/registry"
	"github.com/AppHost-Network/host_runtime/pkg/logger"
)

// Server answers introspection queries against the version registry.
type Server struct {
	router  *mux.Router
	reg     *registry.Registry
	log     *logger.Logger
	limiter *rate.Limiter
}

// New builds the introspection server and its routes.
func New(reg *registry.Registry, log *logger.Logger, cfg config.ServerConfig) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		reg:     reg,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.rateLimit)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Handle("/versions",
		metrics.InstrumentHandler("/v1/versions", http.HandlerFunc(s.handleListVersions))).
		Methods(http.MethodGet)
	api.Handle("/versions/{app}/{version}",
		metrics.InstrumentHandler("/v1/versions/{app}/{version}", http.HandlerFunc(s.handleGetVersion))).
		Methods(http.MethodGet)
	api.Handle("/versions/{app}/{version}/classify",
		metrics.InstrumentHandler("/v1/versions/{app}/{version}/classify", http.HandlerFunc(s.handleClassifyPath))).
		Methods(http.MethodGet)
	api.Handle("/versions/{app}/{version}/source-context",
		metrics.InstrumentHandler("/v1/versions/{app}/{version}/source-context", http.HandlerFunc(s.handleSourceContext))).
		Methods(http.MethodGet)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.log.Warnf("rate limit exceeded for %s %s", r.Method, r.URL.Path)
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type versionSummary struct {
	App           string `json:"app"`
	Version       string `json:"version"`
	PublicRoot    string `json:"public_root"`
	RootDirectory string `json:"root_directory,omitempty"`
}

func summarize(av *appversion.AppVersion) versionSummary {
	key := av.Key()
	return versionSummary{
		App:           key.AppID,
		Version:       key.VersionID,
		PublicRoot:    av.PublicRoot(),
		RootDirectory: av.RootDirectory(),
	}
}

func (s *Server) handleListVersions(w http.ResponseWriter, _ *http.Request) {
	versions := s.reg.List()
	out := make([]versionSummary, 0, len(versions))
	for _, av := range versions {
		out = append(out, summarize(av))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *appversion.AppVersion {
	vars := mux.Vars(r)
	key := appversion.VersionKey{AppID: vars["app"], VersionID: vars["version"]}
	av, err := s.reg.Get(key)
	if err != nil {
		respondError(w, http.StatusNotFound, "version not found")
		return nil
	}
	return av
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	av := s.lookup(w, r)
	if av == nil {
		return
	}
	respondJSON(w, http.StatusOK, summarize(av))
}

type classifyResponse struct {
	Path     string `json:"path"`
	Resource bool   `json:"resource"`
	Static   bool   `json:"static"`
}

func (s *Server) handleClassifyPath(w http.ResponseWriter, r *http.Request) {
	av := s.lookup(w, r)
	if av == nil {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	respondJSON(w, http.StatusOK, classifyResponse{
		Path:     path,
		Resource: av.IsResourceFile(path),
		Static:   av.IsStaticFile(path),
	})
}

func (s *Server) handleSourceContext(w http.ResponseWriter, r *http.Request) {
	av := s.lookup(w, r)
	if av == nil {
		return
	}
	ctx := av.SourceContext()
	if ctx == nil {
		respondError(w, http.StatusNotFound, "no source context")
		return
	}
	respondJSON(w, http.StatusOK, ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

package apiserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newMux builds the façade's routing table. Route patterns use Go 1.22's
// method+wildcard http.ServeMux syntax; verb filtering beyond what the
// pattern encodes (e.g. unsupported verbs on a known resource) happens
// inside each handler so the façade can answer 501 instead of stdlib's
// plain-text 405.
func (s *Server) newMux() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/version", s.handleVersion)
	mux.HandleFunc("/api", s.handleAPIRoot)
	mux.HandleFunc("/api/v1", s.handleAPIV1Discovery)
	mux.HandleFunc("/apis", s.handleAPIsRoot)
	mux.HandleFunc("/apis/apps/v1", s.handleAppsV1Discovery)
	mux.HandleFunc("/apis/coordination.k8s.io/v1", s.handleCoordinationV1Discovery)

	mux.HandleFunc("/api/v1/namespaces/{namespace}/pods/{name}/log", s.handlePodLog)
	mux.HandleFunc("/api/v1/namespaces/{namespace}/{resource}/{name}", s.handleNamespacedItem)
	mux.HandleFunc("/api/v1/namespaces/{namespace}/{resource}", s.handleNamespacedList)
	mux.HandleFunc("/api/v1/{resource}/{name}", s.handleClusterItem)
	mux.HandleFunc("/api/v1/{resource}", s.handleClusterList)

	mux.HandleFunc("/apis/apps/v1/namespaces/{namespace}/deployments/{name}", s.handleDeploymentItem)
	mux.HandleFunc("/apis/apps/v1/namespaces/{namespace}/deployments", s.handleDeploymentList)

	mux.HandleFunc("/apis/coordination.k8s.io/v1/namespaces/{namespace}/leases/{name}", s.handleLeaseItem)
	mux.HandleFunc("/apis/coordination.k8s.io/v1/namespaces/{namespace}/leases", s.handleLeaseList)

	mux.HandleFunc("/", s.handleUnknownPath)

	return withLogging(s.logger, withWatchGuard(mux))
}

// withWatchGuard rejects any request bearing ?watch=true before it reaches
// a resource handler, regardless of which resource it names.
func withWatchGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("watch") == "true" {
			writeNotImplemented(w, "watch is not supported")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written so it can be logged after
// the handler returns, without changing ResponseWriter's contract.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		requestID := uuid.NewString()
		next.ServeHTTP(rec, r)
		logger.Info("request",
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.code),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleUnknownPath(w http.ResponseWriter, r *http.Request) {
	writeNotFound(w, "no such route: "+r.Method+" "+r.URL.Path)
}

func resourceKind(resource string) string {
	return canonicalResource(strings.TrimSuffix(resource, "/"))
}

package apiserver

import (
	"errors"
	"net/http"

	"github.com/baptisterajaut/h2c-api/internal/bridge"
)

// handlePodLog serves GET .../namespaces/{namespace}/pods/{name}/log,
// bridging to the container runtime for the pod's backing container. Any
// bridge failure — socket absent, connection refused, non-2xx — degrades
// to 501 rather than 500, per the runtime bridge's isolation contract.
func (s *Server) handlePodLog(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	if r.Method != http.MethodGet {
		writeNotImplemented(w, "unsupported verb "+r.Method+" on pods/log")
		return
	}

	snap, err := s.snapshot()
	if err != nil {
		writeInternalError(w, "failed to load compose state: "+err.Error())
		return
	}
	if namespace != snap.ProjectName {
		writeNotFound(w, "pod "+name+" not found in namespace "+namespace)
		return
	}
	svc, ok := serviceForPodName(snap, name)
	if !ok {
		writeNotFound(w, "pod "+name+" not found")
		return
	}

	opts := bridge.LogOptions{
		TailLines:  r.URL.Query().Get("tailLines"),
		Timestamps: r.URL.Query().Get("timestamps") == "true",
		Follow:     r.URL.Query().Get("follow") == "true",
	}

	ctx := r.Context()
	if err := s.bridge.Ping(ctx); err != nil {
		writeNotImplemented(w, "runtime bridge unavailable")
		return
	}
	if _, err := s.bridge.FindContainer(ctx, snap.ProjectName, svc.Name, svc.Ports); err != nil {
		writeNotImplemented(w, "no running container for "+svc.Name)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	if err := s.bridge.Logs(ctx, snap.ProjectName, svc.Name, svc.Ports, opts, flushWriter{w, flusher}); err != nil {
		if errors.Is(err, bridge.ErrUnavailable) {
			// headers are already sent; nothing more to do than stop.
			return
		}
	}
}

// flushWriter flushes after every write, matching the chunked-transfer
// contract the follow=true mode relies on to deliver lines as they arrive.
type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}

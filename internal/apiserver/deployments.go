package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/baptisterajaut/h2c-api/internal/compose"
	"github.com/baptisterajaut/h2c-api/internal/projector"
)

// restartAnnotation is the standard "kubectl rollout restart" idiom: a PATCH
// touching this annotation on the pod template is the signal to actually
// bounce the container via the runtime bridge. Any other PATCH body is
// accepted and echoed back with no side effect.
const restartAnnotation = "kubectl.kubernetes.io/restartedAt"

type patchBody struct {
	Spec struct {
		Template struct {
			Metadata struct {
				Annotations map[string]string `json:"annotations"`
			} `json:"metadata"`
		} `json:"template"`
	} `json:"spec"`
}

func (s *Server) handleDeploymentList(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	if r.Method != http.MethodGet {
		writeNotImplemented(w, "unsupported verb "+r.Method+" on deployments")
		return
	}

	reqs, err := parseSelector(r.URL.Query().Get("labelSelector"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	snap, err := s.snapshot()
	if err != nil {
		writeInternalError(w, "failed to load compose state: "+err.Error())
		return
	}

	if namespace != snap.ProjectName {
		writeJSON(w, http.StatusOK, newList("DeploymentList", "apps/v1", s.rv(), []struct{}{}))
		return
	}

	rv := s.rv()
	var items []interface{}
	for _, svc := range workloadsMatching(snap, reqs) {
		items = append(items, s.proj.Deployment(namespace, svc, rv))
	}
	writeJSON(w, http.StatusOK, newList("DeploymentList", "apps/v1", rv, nonNilAny(items)))
}

func (s *Server) handleDeploymentItem(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	snap, err := s.snapshot()
	if err != nil {
		writeInternalError(w, "failed to load compose state: "+err.Error())
		return
	}
	if namespace != snap.ProjectName {
		writeNotFound(w, "deployment "+name+" not found in namespace "+namespace)
		return
	}
	svc, ok := workloadByName(snap, name)
	if !ok {
		writeNotFound(w, "deployment "+name+" not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.proj.Deployment(namespace, svc, s.rv()))
	case http.MethodPatch:
		s.handleDeploymentPatch(w, r, namespace, svc)
	default:
		writeNotImplemented(w, "unsupported verb "+r.Method+" on deployments")
	}
}

func (s *Server) handleDeploymentPatch(w http.ResponseWriter, r *http.Request, namespace string, svc compose.Service) {
	var body patchBody
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if _, wantsRestart := body.Spec.Template.Metadata.Annotations[restartAnnotation]; wantsRestart {
		if err := s.bridge.Restart(r.Context(), namespace, svc.Name, svc.Ports); err != nil {
			// restart is best-effort: the bridge isolates its own
			// failures and the PATCH itself still succeeds.
			s.logger.Warn("restart via runtime bridge failed", "service", svc.Name, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, s.proj.Deployment(namespace, svc, s.rv()))
}

func workloadsMatching(snap *compose.Snapshot, reqs []requirement) []compose.Service {
	var out []compose.Service
	for _, svc := range projector.Workloads(snap) {
		if matches(reqs, podLabels(svc)) {
			out = append(out, svc)
		}
	}
	return out
}

func nonNilAny(items []interface{}) []interface{} {
	if items == nil {
		return []interface{}{}
	}
	return items
}

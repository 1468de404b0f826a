package apiserver

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/baptisterajaut/h2c-api/internal/compose"
	"github.com/baptisterajaut/h2c-api/internal/configstore"
	"github.com/baptisterajaut/h2c-api/internal/projector"
)

// handleNamespacedList serves GET .../namespaces/{namespace}/{resource} for
// the read-only core resources (pods, services, endpoints, configmaps,
// secrets). Any other method on a known resource is 501.
func (s *Server) handleNamespacedList(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	resource := resourceKind(r.PathValue("resource"))

	if r.Method != http.MethodGet {
		writeNotImplemented(w, "unsupported verb "+r.Method+" on "+resource)
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
		if !isKnownCoreResource(resource) {
			writeNotFound(w, "unknown resource "+resource)
			return
		}
		writeJSON(w, http.StatusOK, emptyListFor(resource, s.leases.ResourceVersion()))
		return
	}

	rv := s.rv()
	switch resource {
	case "pods":
		var items []corev1.Pod
		for _, svc := range projector.Workloads(snap) {
			if !matches(reqs, podLabels(svc)) {
				continue
			}
			items = append(items, *s.proj.Pod(namespace, svc, rv))
		}
		writeJSON(w, http.StatusOK, newList("PodList", "v1", rv, nonNil(items)))
	case "services":
		var items []corev1.Service
		for _, svc := range projector.Workloads(snap) {
			if !matches(reqs, podLabels(svc)) {
				continue
			}
			items = append(items, *s.proj.Service(namespace, svc, rv))
		}
		writeJSON(w, http.StatusOK, newList("ServiceList", "v1", rv, nonNil(items)))
	case "endpoints":
		var items []corev1.Endpoints
		for _, svc := range projector.Workloads(snap) {
			if !matches(reqs, podLabels(svc)) {
				continue
			}
			items = append(items, *s.proj.Endpoints(namespace, svc, rv))
		}
		writeJSON(w, http.StatusOK, newList("EndpointsList", "v1", rv, nonNil(items)))
	case "configmaps":
		items := s.configMapList(namespace, reqs, rv)
		writeJSON(w, http.StatusOK, newList("ConfigMapList", "v1", rv, nonNil(items)))
	case "secrets":
		items := s.secretList(namespace, reqs, rv)
		writeJSON(w, http.StatusOK, newList("SecretList", "v1", rv, nonNil(items)))
	default:
		writeNotFound(w, "unknown resource "+resource)
	}
}

// handleNamespacedItem serves GET .../namespaces/{namespace}/{resource}/{name}.
func (s *Server) handleNamespacedItem(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	resource := resourceKind(r.PathValue("resource"))
	name := r.PathValue("name")

	if r.Method != http.MethodGet {
		writeNotImplemented(w, "unsupported verb "+r.Method+" on "+resource)
		return
	}

	snap, err := s.snapshot()
	if err != nil {
		writeInternalError(w, "failed to load compose state: "+err.Error())
		return
	}

	if namespace != snap.ProjectName {
		writeNotFound(w, resource+" "+name+" not found in namespace "+namespace)
		return
	}

	rv := s.rv()
	switch resource {
	case "pods":
		svc, ok := serviceForPodName(snap, name)
		if !ok {
			writeNotFound(w, "pod "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, s.proj.Pod(namespace, svc, rv))
	case "services":
		svc, ok := workloadByName(snap, name)
		if !ok {
			writeNotFound(w, "service "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, s.proj.Service(namespace, svc, rv))
	case "endpoints":
		svc, ok := workloadByName(snap, name)
		if !ok {
			writeNotFound(w, "endpoints "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, s.proj.Endpoints(namespace, svc, rv))
	case "configmaps":
		e, ok := s.configMapByName(name)
		if !ok {
			writeNotFound(w, "configmap "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, configMapResource(namespace, e, rv))
	case "secrets":
		e, ok := s.secretByName(name)
		if !ok {
			writeNotFound(w, "secret "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, secretResource(namespace, e, rv))
	default:
		writeNotFound(w, "unknown resource "+resource)
	}
}

// handleClusterList serves GET /api/v1/{resource} for cluster-scoped
// resources: namespaces and nodes.
func (s *Server) handleClusterList(w http.ResponseWriter, r *http.Request) {
	resource := resourceKind(r.PathValue("resource"))
	if r.Method != http.MethodGet {
		writeNotImplemented(w, "unsupported verb "+r.Method+" on "+resource)
		return
	}

	snap, err := s.snapshot()
	if err != nil {
		writeInternalError(w, "failed to load compose state: "+err.Error())
		return
	}

	rv := s.rv()
	switch resource {
	case "namespaces":
		writeJSON(w, http.StatusOK, newList("NamespaceList", "v1", rv, namespaceObjects(snap.ProjectName, rv)))
	case "nodes":
		writeJSON(w, http.StatusOK, newList("NodeList", "v1", rv, []corev1.Node{fakeNode(rv)}))
	default:
		writeNotFound(w, "unknown resource "+resource)
	}
}

// handleClusterItem serves GET /api/v1/{resource}/{name}.
func (s *Server) handleClusterItem(w http.ResponseWriter, r *http.Request) {
	resource := resourceKind(r.PathValue("resource"))
	name := r.PathValue("name")
	if r.Method != http.MethodGet {
		writeNotImplemented(w, "unsupported verb "+r.Method+" on "+resource)
		return
	}

	snap, err := s.snapshot()
	if err != nil {
		writeInternalError(w, "failed to load compose state: "+err.Error())
		return
	}

	rv := s.rv()
	switch resource {
	case "namespaces":
		for _, ns := range namespaceObjects(snap.ProjectName, rv) {
			if ns.Name == name {
				writeJSON(w, http.StatusOK, ns)
				return
			}
		}
		writeNotFound(w, "namespace "+name+" not found")
	case "nodes":
		node := fakeNode(rv)
		if node.Name != name {
			writeNotFound(w, "node "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, node)
	default:
		writeNotFound(w, "unknown resource "+resource)
	}
}

func (s *Server) rv() string {
	return strconv.FormatInt(s.leases.ResourceVersion(), 10)
}

func podLabels(svc compose.Service) map[string]string {
	l := map[string]string{"app": svc.Name}
	for k, v := range svc.Labels {
		if k == projector.ReservedLabel {
			continue
		}
		l[k] = v
	}
	return l
}

func workloadByName(snap *compose.Snapshot, name string) (compose.Service, bool) {
	for _, svc := range projector.Workloads(snap) {
		if svc.Name == name {
			return svc, true
		}
	}
	return compose.Service{}, false
}

func serviceForPodName(snap *compose.Snapshot, podName string) (compose.Service, bool) {
	name := strings.TrimSuffix(podName, "-0")
	return workloadByName(snap, name)
}

func isKnownCoreResource(resource string) bool {
	switch resource {
	case "pods", "services", "endpoints", "configmaps", "secrets":
		return true
	}
	return false
}

func emptyListFor(resource string, rv int64) list {
	kind := map[string]string{
		"pods":       "PodList",
		"services":   "ServiceList",
		"endpoints":  "EndpointsList",
		"configmaps": "ConfigMapList",
		"secrets":    "SecretList",
	}[resource]
	return newList(kind, "v1", strconv.FormatInt(rv, 10), []struct{}{})
}

func namespaceObjects(project, rv string) []corev1.Namespace {
	names := append([]string{}, systemNamespaces...)
	found := false
	for _, n := range names {
		if n == project {
			found = true
		}
	}
	if !found {
		names = append(names, project)
	}
	out := make([]corev1.Namespace, 0, len(names))
	for _, n := range names {
		out = append(out, corev1.Namespace{
			TypeMeta:   metav1.TypeMeta{Kind: "Namespace", APIVersion: "v1"},
			ObjectMeta: metav1.ObjectMeta{Name: n, ResourceVersion: rv},
			Status:     corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
		})
	}
	return out
}

func fakeNode(rv string) corev1.Node {
	return corev1.Node{
		TypeMeta:   metav1.TypeMeta{Kind: "Node", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{Name: "h2c-node", ResourceVersion: rv},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func (s *Server) configMapList(namespace string, reqs []requirement, rv string) []corev1.ConfigMap {
	entries, err := configstore.Scan(s.cfg.DataDir + "/configmaps")
	if err != nil {
		return nil
	}
	var out []corev1.ConfigMap
	for _, e := range entries {
		cm := configMapResource(namespace, e, rv)
		if !matches(reqs, cm.Labels) {
			continue
		}
		out = append(out, cm)
	}
	return out
}

func (s *Server) configMapByName(name string) (configstore.Entry, bool) {
	entries, err := configstore.Scan(s.cfg.DataDir + "/configmaps")
	if err != nil {
		return configstore.Entry{}, false
	}
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return configstore.Entry{}, false
}

func (s *Server) secretList(namespace string, reqs []requirement, rv string) []corev1.Secret {
	entries, err := configstore.Scan(s.cfg.DataDir + "/secrets")
	if err != nil {
		return nil
	}
	var out []corev1.Secret
	for _, e := range entries {
		sec := secretResource(namespace, e, rv)
		if !matches(reqs, sec.Labels) {
			continue
		}
		out = append(out, sec)
	}
	return out
}

func (s *Server) secretByName(name string) (configstore.Entry, bool) {
	entries, err := configstore.Scan(s.cfg.DataDir + "/secrets")
	if err != nil {
		return configstore.Entry{}, false
	}
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return configstore.Entry{}, false
}

// configMapResource splits raw file bytes into UTF-8 Data and binary
// BinaryData, matching the real ConfigMap wire contract.
func configMapResource(namespace string, e configstore.Entry, rv string) corev1.ConfigMap {
	cm := corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{Kind: "ConfigMap", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            e.Name,
			Namespace:       namespace,
			ResourceVersion: rv,
		},
	}
	for key, content := range e.Files {
		if utf8.Valid(content) {
			if cm.Data == nil {
				cm.Data = map[string]string{}
			}
			cm.Data[key] = string(content)
			continue
		}
		if cm.BinaryData == nil {
			cm.BinaryData = map[string][]byte{}
		}
		cm.BinaryData[key] = content
	}
	return cm
}

// secretResource assigns raw bytes directly into Secret.Data; encoding/json
// base64-encodes []byte fields automatically, giving the documented
// "secrets always base64-encode their values" behaviour for free.
func secretResource(namespace string, e configstore.Entry, rv string) corev1.Secret {
	sec := corev1.Secret{
		TypeMeta: metav1.TypeMeta{Kind: "Secret", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            e.Name,
			Namespace:       namespace,
			ResourceVersion: rv,
		},
		Data: map[string][]byte{},
	}
	for key, content := range e.Files {
		sec.Data[key] = content
	}
	return sec
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

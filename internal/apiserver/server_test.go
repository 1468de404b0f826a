package apiserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/baptisterajaut/h2c-api/internal/config"
)

func newTestServer(t *testing.T, composeYAML string) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	composePath := filepath.Join(dir, "docker-compose.yml")
	if err := os.WriteFile(composePath, []byte(composeYAML), 0644); err != nil {
		t.Fatalf("failed to write compose file: %v", err)
	}

	cfg := &config.Config{
		ComposePath:   composePath,
		DataDir:       filepath.Join(dir, "data"),
		Port:          "0",
		SADir:         filepath.Join(dir, "sa"),
		RuntimeSocket: filepath.Join(dir, "no-such-runtime.sock"),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ts := httptest.NewServer(srv.newMux())
	t.Cleanup(ts.Close)
	return srv, ts
}

const demoCompose = `
name: demo
services:
  app:
    image: nginx
`

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func TestDiscoveryNeverFails(t *testing.T) {
	_, ts := newTestServer(t, demoCompose)

	paths := []string{"/version", "/api", "/api/v1", "/apis", "/apis/apps/v1", "/apis/coordination.k8s.io/v1"}
	for _, p := range paths {
		resp, err := http.Get(ts.URL + p)
		if err != nil {
			t.Fatalf("GET %s: %v", p, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", p, resp.StatusCode)
		}
	}
}

func TestAPIRootAdvertisesServerAddress(t *testing.T) {
	_, ts := newTestServer(t, demoCompose)

	resp, err := http.Get(ts.URL + "/api")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body apiVersions
	decodeJSON(t, resp, &body)

	if len(body.ServerAddressByClientCIDRs) != 1 {
		t.Fatalf("expected exactly one serverAddressByClientCIDRs entry, got %v", body.ServerAddressByClientCIDRs)
	}
	entry := body.ServerAddressByClientCIDRs[0]
	if entry["clientCIDR"] != "0.0.0.0/0" {
		t.Fatalf("clientCIDR = %q, want 0.0.0.0/0", entry["clientCIDR"])
	}
	if entry["serverAddress"] == "" {
		t.Fatalf("expected a non-empty serverAddress")
	}
}

func TestCoordinationDiscoveryListsLeases(t *testing.T) {
	_, ts := newTestServer(t, demoCompose)

	resp, err := http.Get(ts.URL + "/apis/coordination.k8s.io/v1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body apiResourceList
	decodeJSON(t, resp, &body)

	found := false
	for _, r := range body.Resources {
		if r.Name == "leases" && r.Kind == "Lease" && r.Namespaced {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a namespaced leases resource, got %+v", body.Resources)
	}
}

func TestPodListing(t *testing.T) {
	_, ts := newTestServer(t, demoCompose)

	resp, err := http.Get(ts.URL + "/api/v1/namespaces/demo/pods")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Kind  string `json:"kind"`
		Items []struct {
			Metadata struct {
				Name            string `json:"name"`
				ResourceVersion string `json:"resourceVersion"`
			} `json:"metadata"`
		} `json:"items"`
	}
	decodeJSON(t, resp, &body)

	if body.Kind != "PodList" {
		t.Fatalf("kind = %q, want PodList", body.Kind)
	}
	if len(body.Items) != 1 || body.Items[0].Metadata.Name != "app-0" {
		t.Fatalf("unexpected items: %+v", body.Items)
	}
	if body.Items[0].Metadata.ResourceVersion == "" {
		t.Fatalf("expected the pod item to carry a resourceVersion")
	}

	resp2, err := http.Get(ts.URL + "/api/v1/namespaces/other/pods")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body2 struct {
		Items []interface{} `json:"items"`
	}
	decodeJSON(t, resp2, &body2)
	if len(body2.Items) != 0 {
		t.Fatalf("expected empty list for foreign namespace, got %v", body2.Items)
	}
}

func TestConfigMapListHasNamespace(t *testing.T) {
	dir := t.TempDir()
	composePath := filepath.Join(dir, "docker-compose.yml")
	if err := os.WriteFile(composePath, []byte(demoCompose), 0644); err != nil {
		t.Fatalf("failed to write compose file: %v", err)
	}
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(filepath.Join(dataDir, "configmaps"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "configmaps", "app.conf"), []byte("key=value"), 0644); err != nil {
		t.Fatalf("write configmap file: %v", err)
	}

	cfg := &config.Config{
		ComposePath:   composePath,
		DataDir:       dataDir,
		Port:          "0",
		SADir:         filepath.Join(dir, "sa"),
		RuntimeSocket: filepath.Join(dir, "no-such-runtime.sock"),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.newMux())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/api/v1/namespaces/demo/configmaps")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	var list struct {
		Items []struct {
			Metadata struct {
				Name      string `json:"name"`
				Namespace string `json:"namespace"`
			} `json:"metadata"`
		} `json:"items"`
	}
	decodeJSON(t, resp, &list)
	if len(list.Items) != 1 || list.Items[0].Metadata.Name != "app" {
		t.Fatalf("unexpected items: %+v", list.Items)
	}
	if list.Items[0].Metadata.Namespace != "demo" {
		t.Fatalf("list item namespace = %q, want demo", list.Items[0].Metadata.Namespace)
	}

	resp2, err := http.Get(ts.URL + "/api/v1/namespaces/demo/configmaps/app")
	if err != nil {
		t.Fatalf("GET item: %v", err)
	}
	var item struct {
		Metadata struct {
			Namespace string `json:"namespace"`
		} `json:"metadata"`
	}
	decodeJSON(t, resp2, &item)
	if item.Metadata.Namespace != list.Items[0].Metadata.Namespace {
		t.Fatalf("list namespace %q disagrees with item namespace %q", list.Items[0].Metadata.Namespace, item.Metadata.Namespace)
	}
}

const labeledCompose = `
name: demo
services:
  web:
    image: nginx
    labels:
      tier: frontend
  db:
    image: postgres
    labels:
      tier: backend
`

func TestLabelSelectorFilter(t *testing.T) {
	_, ts := newTestServer(t, labeledCompose)

	resp, err := http.Get(ts.URL + "/api/v1/namespaces/demo/pods?labelSelector=tier=frontend")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var body struct {
		Items []struct {
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
		} `json:"items"`
	}
	decodeJSON(t, resp, &body)
	if len(body.Items) != 1 || body.Items[0].Metadata.Name != "web-0" {
		t.Fatalf("expected exactly web-0, got %+v", body.Items)
	}
}

func TestLeaseLifecycle(t *testing.T) {
	_, ts := newTestServer(t, demoCompose)
	client := ts.Client()

	createBody := `{"metadata":{"name":"L"},"spec":{"holderIdentity":"A"}}`
	resp, err := client.Post(ts.URL+"/apis/coordination.k8s.io/v1/namespaces/demo/leases", "application/json", strings.NewReader(createBody))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created wireLease
	decodeJSON(t, resp, &created)
	v1 := created.Metadata.ResourceVersion

	updateBody := `{"metadata":{"name":"L","resourceVersion":"` + v1 + `"},"spec":{"holderIdentity":"B"}}`
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/apis/coordination.k8s.io/v1/namespaces/demo/leases/L", strings.NewReader(updateBody))
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", resp.StatusCode)
	}
	var updated wireLease
	decodeJSON(t, resp, &updated)
	if updated.Metadata.ResourceVersion == v1 {
		t.Fatalf("resourceVersion did not change on update")
	}

	// Stale retry with v1 must conflict.
	req2, _ := http.NewRequest(http.MethodPut, ts.URL+"/apis/coordination.k8s.io/v1/namespaces/demo/leases/L", strings.NewReader(updateBody))
	resp2, err := client.Do(req2)
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("stale update status = %d, want 409", resp2.StatusCode)
	}

	req3, _ := http.NewRequest(http.MethodDelete, ts.URL+"/apis/coordination.k8s.io/v1/namespaces/demo/leases/L", nil)
	resp3, err := client.Do(req3)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp3.StatusCode)
	}

	resp4, err := http.Get(ts.URL + "/apis/coordination.k8s.io/v1/namespaces/demo/leases/L")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if resp4.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", resp4.StatusCode)
	}
}

func TestUnsupportedVerbAndWatch(t *testing.T) {
	_, ts := newTestServer(t, demoCompose)
	client := ts.Client()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/namespaces/demo/pods/app-0", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("delete pod: %v", err)
	}
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", resp.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/api/v1/pods?watch=true")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if resp2.StatusCode != http.StatusNotImplemented {
		t.Fatalf("watch status = %d, want 501", resp2.StatusCode)
	}
}

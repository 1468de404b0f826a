package apiserver

// apiResource mirrors metav1.APIResource's JSON shape closely enough for
// discovery clients; it is hand-shaped rather than imported because the
// discovery documents here are static literals, not derived from any
// runtime scheme registry.
type apiResource struct {
	Name       string   `json:"name"`
	Namespaced bool     `json:"namespaced"`
	Kind       string   `json:"kind"`
	Verbs      []string `json:"verbs"`
	ShortNames []string `json:"shortNames,omitempty"`
}

type apiResourceList struct {
	Kind         string        `json:"kind"`
	APIVersion   string        `json:"apiVersion"`
	GroupVersion string        `json:"groupVersion"`
	Resources    []apiResource `json:"resources"`
}

type apiVersions struct {
	Kind                       string              `json:"kind"`
	Versions                   []string            `json:"versions"`
	ServerAddressByClientCIDRs []map[string]string `json:"serverAddressByClientCIDRs"`
}

type apiGroupList struct {
	Kind     string     `json:"kind"`
	APIVersion string   `json:"apiVersion"`
	Groups   []apiGroup `json:"groups"`
}

type groupVersionForDiscovery struct {
	GroupVersion string `json:"groupVersion"`
	Version      string `json:"version"`
}

type apiGroup struct {
	Name             string                     `json:"name"`
	Versions         []groupVersionForDiscovery `json:"versions"`
	PreferredVersion groupVersionForDiscovery   `json:"preferredVersion"`
}

var coreResources = []apiResource{
	{Name: "namespaces", Namespaced: false, Kind: "Namespace", Verbs: []string{"get", "list"}, ShortNames: []string{"ns"}},
	{Name: "nodes", Namespaced: false, Kind: "Node", Verbs: []string{"get", "list"}, ShortNames: []string{"no"}},
	{Name: "pods", Namespaced: true, Kind: "Pod", Verbs: []string{"get", "list"}, ShortNames: []string{"po"}},
	{Name: "pods/log", Namespaced: true, Kind: "Pod", Verbs: []string{"get"}},
	{Name: "services", Namespaced: true, Kind: "Service", Verbs: []string{"get", "list"}, ShortNames: []string{"svc"}},
	{Name: "endpoints", Namespaced: true, Kind: "Endpoints", Verbs: []string{"get", "list"}, ShortNames: []string{"ep"}},
	{Name: "configmaps", Namespaced: true, Kind: "ConfigMap", Verbs: []string{"get", "list"}, ShortNames: []string{"cm"}},
	{Name: "secrets", Namespaced: true, Kind: "Secret", Verbs: []string{"get", "list"}},
}

var appsResources = []apiResource{
	{Name: "deployments", Namespaced: true, Kind: "Deployment", Verbs: []string{"get", "list", "patch"}, ShortNames: []string{"deploy"}},
}

var coordinationResources = []apiResource{
	{Name: "leases", Namespaced: true, Kind: "Lease", Verbs: []string{"create", "delete", "get", "list", "update"}},
}

func versionInfo() map[string]string {
	return map[string]string{
		"major":        "1",
		"minor":        "28",
		"gitVersion":   "v1.28.0-h2c",
		"gitCommit":    "h2c",
		"gitTreeState": "clean",
		"platform":     "linux/amd64",
	}
}

// apiRoot builds the /api response. serverAddressByClientCIDRs is kept
// because some older client libraries still read it to locate the API
// server, exactly as h2c-api:6443 was advertised there in the original.
func (s *Server) apiRoot() apiVersions {
	return apiVersions{
		Kind:     "APIVersions",
		Versions: []string{"v1"},
		ServerAddressByClientCIDRs: []map[string]string{
			{"clientCIDR": "0.0.0.0/0", "serverAddress": "h2c-api:" + s.cfg.Port},
		},
	}
}

func apiV1Discovery() apiResourceList {
	return apiResourceList{Kind: "APIResourceList", APIVersion: "v1", GroupVersion: "v1", Resources: coreResources}
}

func apisRoot() apiGroupList {
	return apiGroupList{
		Kind:       "APIGroupList",
		APIVersion: "v1",
		Groups: []apiGroup{
			{
				Name:             "apps",
				Versions:         []groupVersionForDiscovery{{GroupVersion: "apps/v1", Version: "v1"}},
				PreferredVersion: groupVersionForDiscovery{GroupVersion: "apps/v1", Version: "v1"},
			},
			{
				Name:             "coordination.k8s.io",
				Versions:         []groupVersionForDiscovery{{GroupVersion: "coordination.k8s.io/v1", Version: "v1"}},
				PreferredVersion: groupVersionForDiscovery{GroupVersion: "coordination.k8s.io/v1", Version: "v1"},
			},
		},
	}
}

func appsV1Discovery() apiResourceList {
	return apiResourceList{Kind: "APIResourceList", APIVersion: "v1", GroupVersion: "apps/v1", Resources: appsResources}
}

func coordinationV1Discovery() apiResourceList {
	return apiResourceList{Kind: "APIResourceList", APIVersion: "v1", GroupVersion: "coordination.k8s.io/v1", Resources: coordinationResources}
}

// shortNames maps the documented short aliases to their canonical resource.
var shortNames = map[string]string{
	"po":     "pods",
	"svc":    "services",
	"ep":     "endpoints",
	"cm":     "configmaps",
	"no":     "nodes",
	"ns":     "namespaces",
	"deploy": "deployments",
}

func canonicalResource(name string) string {
	if canon, ok := shortNames[name]; ok {
		return canon
	}
	return name
}

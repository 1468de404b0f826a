package inject

import (
	"fmt"

	"github.com/baptisterajaut/h2c-api/internal/compose"
)

// facadeServiceName is the name given to the injected façade service in
// the rewritten compose graph.
const facadeServiceName = "h2c-api"

// facadeImage is the image the injected façade service runs. It is a
// build-time constant rather than a flag: the planner and the façade ship
// together, so pinning the image here keeps a single override run
// reproducible without an extra CLI surface.
const facadeImage = "baptisterajaut/h2c-api:latest"

// facadePort is the façade's fixed in-container listen port.
const facadePort = 6443

// Options configures a single planner run.
type Options struct {
	ComposePath    string
	Hosts          []string
	ExposeHostPort string // "" = not requested; "" with ExposeHost=true means default facadePort
	ExposeHost     bool
	KubeconfigPath string
	SADirName      string // relative directory name mounted as H2C_SA_DIR, default "h2c-sa"
	RuntimeSocket  string // "" if no socket probe passed
}

// serviceOverride is one entry of the compose.override.yml document; only
// non-empty fields are emitted, letting compose's own merge semantics graft
// them onto the base file without disturbing anything else.
type serviceOverride struct {
	Image       string            `yaml:"image,omitempty"`
	Volumes     []string          `yaml:"volumes,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
	Ports       []string          `yaml:"ports,omitempty"`
}

// overrideDocument is the top-level compose.override.yml shape.
type overrideDocument struct {
	Services map[string]serviceOverride `yaml:"services"`
}

// BuildOverride computes the compose graph rewrite: an SA mount and cluster
// locator env vars on every existing service, plus a new façade service.
func BuildOverride(snap *compose.Snapshot, opts Options) overrideDocument {
	saDir := opts.SADirName
	if saDir == "" {
		saDir = "h2c-sa"
	}

	doc := overrideDocument{Services: map[string]serviceOverride{}}

	for _, svc := range snap.Services {
		doc.Services[svc.Name] = serviceOverride{
			Volumes: []string{fmt.Sprintf("./%s:/var/run/secrets/kubernetes.io/serviceaccount:ro", saDir)},
			Environment: map[string]string{
				"KUBERNETES_SERVICE_HOST": facadeServiceName,
				"KUBERNETES_SERVICE_PORT": fmt.Sprintf("%d", facadePort),
			},
			DependsOn: []string{facadeServiceName},
		}
	}

	facade := serviceOverride{
		Image: facadeImage,
		Volumes: []string{
			fmt.Sprintf("%s:/data/compose.yml:ro", opts.ComposePath),
			fmt.Sprintf("./%s:/var/run/secrets/kubernetes.io/serviceaccount:ro", saDir),
		},
	}
	if opts.RuntimeSocket != "" {
		facade.Volumes = append(facade.Volumes, fmt.Sprintf("%s:%s", opts.RuntimeSocket, opts.RuntimeSocket))
	}
	if opts.ExposeHost {
		port := opts.ExposeHostPort
		if port == "" {
			port = fmt.Sprintf("%d", facadePort)
		}
		facade.Ports = []string{fmt.Sprintf("%s:%d", port, facadePort)}
	}
	doc.Services[facadeServiceName] = facade

	return doc
}

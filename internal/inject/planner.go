package inject

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/baptisterajaut/h2c-api/internal/compose"
)

// Result summarises a completed standalone planner run for the caller
// (currently just the CLI, printing a human-readable report).
type Result struct {
	OverridePath   string
	SABundleDir    string
	KubeconfigPath string
	RuntimeSocket  string
	SANs           []string
}

// Run executes the full standalone planner: parse, issue certs, synthesise
// the SA bundle, probe runtime sockets, rewrite the compose graph, and emit
// compose.override.yml (plus a kubeconfig if host exposure was requested).
func Run(ctx context.Context, opts Options) (*Result, error) {
	snap, err := compose.Load(opts.ComposePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compose file: %w", err)
	}

	dir := filepath.Dir(opts.ComposePath)
	saDirName := opts.SADirName
	if saDirName == "" {
		saDirName = "h2c-sa"
	}
	saDir := filepath.Join(dir, saDirName)

	bundle, err := EnsureBundle(saDir, opts.Hosts)
	if err != nil {
		return nil, fmt.Errorf("failed to issue certificate bundle: %w", err)
	}
	if err := WriteServiceAccountBundle(saDir, snap.ProjectName, bundle); err != nil {
		return nil, fmt.Errorf("failed to write service account bundle: %w", err)
	}

	socket := FindRuntimeSocket(ctx)
	opts.RuntimeSocket = socket

	doc := BuildOverride(snap, opts)
	overridePath := filepath.Join(dir, "compose.override.yml")
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compose override: %w", err)
	}
	if err := os.WriteFile(overridePath, out, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", overridePath, err)
	}

	result := &Result{
		OverridePath:  overridePath,
		SABundleDir:   saDir,
		RuntimeSocket: socket,
		SANs:          bundle.SANs,
	}

	if opts.ExposeHost {
		host := "localhost"
		if len(opts.Hosts) > 0 {
			host = opts.Hosts[0]
		}
		port := opts.ExposeHostPort
		if port == "" {
			port = strconv.Itoa(facadePort)
		}
		kubeconfigPath := filepath.Join(dir, fmt.Sprintf("kubeconfig-%s.conf", host))
		if err := WriteKubeconfig(kubeconfigPath, host, port, bundle.CACertPEM); err != nil {
			return nil, fmt.Errorf("failed to write kubeconfig: %w", err)
		}
		result.KubeconfigPath = kubeconfigPath
	}

	return result, nil
}

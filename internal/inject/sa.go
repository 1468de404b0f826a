package inject

import (
	"fmt"
	"os"
	"path/filepath"
)

// fixedToken is the literal string every synthetic ServiceAccount bundle
// carries. There is no real authentication in this façade, so a stable
// literal is sufficient and lets callers hardcode expectations in tests.
const fixedToken = "h2c-synthetic-token"

// WriteServiceAccountBundle writes the trio {ca.crt, token, namespace}
// under dir, alongside the tls.crt/tls.key pair EnsureBundle already
// placed there — together these five files are exactly what a Kubernetes
// client library expects to find at its service-account mount point.
func WriteServiceAccountBundle(dir, project string, bundle *Bundle) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "token"), []byte(fixedToken), 0644); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "namespace"), []byte(project), 0644); err != nil {
		return fmt.Errorf("failed to write namespace: %w", err)
	}
	return nil
}

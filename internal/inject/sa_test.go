package inject

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteServiceAccountBundle(t *testing.T) {
	dir := t.TempDir()

	if err := WriteServiceAccountBundle(dir, "demo", &Bundle{}); err != nil {
		t.Fatalf("WriteServiceAccountBundle: %v", err)
	}

	token, err := os.ReadFile(filepath.Join(dir, "token"))
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	if string(token) != fixedToken {
		t.Fatalf("token = %q, want %q", token, fixedToken)
	}

	ns, err := os.ReadFile(filepath.Join(dir, "namespace"))
	if err != nil {
		t.Fatalf("read namespace: %v", err)
	}
	if string(ns) != "demo" {
		t.Fatalf("namespace = %q, want demo", ns)
	}
}

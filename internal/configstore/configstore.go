// Package configstore reads the ${H2C_DATA_DIR}/configmaps and .../secrets
// directories and presents them as ConfigMap/Secret-shaped records. Content
// is kept as raw bytes here; base64-encoding secrets and splitting
// configmap data into UTF-8 vs. binary fields is the wire layer's job
// (corev1.Secret.Data and corev1.ConfigMap.BinaryData are both []byte and
// base64-encode themselves on JSON marshal).
package configstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one projected ConfigMap or Secret, keyed by top-level file stem
// or subdirectory name.
type Entry struct {
	Name  string
	Files map[string][]byte
}

// Scan reads dir (either the configmaps/ or secrets/ subdirectory) and
// returns one Entry per top-level file (keyed on the file's own name) and
// one Entry per top-level subdirectory (keyed on the subdirectory name,
// with one data entry per contained file). A missing dir yields no error
// and no entries — the loader is optional infrastructure.
func Scan(dir string) ([]Entry, error) {
	items, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var entries []Entry
	for _, item := range items {
		full := filepath.Join(dir, item.Name())
		if item.IsDir() {
			e, err := scanSubdir(full, item.Name())
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
			continue
		}
		e, err := scanFile(full, item.Name())
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func scanFile(path, name string) (Entry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Entry{Name: stem(name), Files: map[string][]byte{name: content}}, nil
}

func scanSubdir(dir, name string) (Entry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	e := Entry{Name: name, Files: map[string][]byte{}}
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, item.Name()))
		if err != nil {
			return Entry{}, fmt.Errorf("failed to read %s: %w", item.Name(), err)
		}
		e.Files[item.Name()] = content
	}
	return e, nil
}

func stem(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}

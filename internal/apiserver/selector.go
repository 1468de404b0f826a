package apiserver

import (
	"fmt"
	"strings"
)

// requirement is one term of a label selector conjunction.
type requirement struct {
	key    string
	value  string
	negate bool
}

// parseSelector supports the subset of the Kubernetes selector grammar this
// façade promises: "key=value", "key==value", "key!=value", comma-joined.
func parseSelector(raw string) ([]requirement, error) {
	if raw == "" {
		return nil, nil
	}
	var reqs []requirement
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		r, err := parseTerm(term)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func parseTerm(term string) (requirement, error) {
	switch {
	case strings.Contains(term, "!="):
		parts := strings.SplitN(term, "!=", 2)
		return requirement{key: strings.TrimSpace(parts[0]), value: strings.TrimSpace(parts[1]), negate: true}, nil
	case strings.Contains(term, "=="):
		parts := strings.SplitN(term, "==", 2)
		return requirement{key: strings.TrimSpace(parts[0]), value: strings.TrimSpace(parts[1])}, nil
	case strings.Contains(term, "="):
		parts := strings.SplitN(term, "=", 2)
		return requirement{key: strings.TrimSpace(parts[0]), value: strings.TrimSpace(parts[1])}, nil
	default:
		return requirement{}, fmt.Errorf("unsupported selector term %q", term)
	}
}

func matches(reqs []requirement, labels map[string]string) bool {
	for _, r := range reqs {
		v, ok := labels[r.key]
		if r.negate {
			if ok && v == r.value {
				return false
			}
			continue
		}
		if !ok || v != r.value {
			return false
		}
	}
	return true
}

package apiserver

import "testing"

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		labels  map[string]string
		want    bool
		wantErr bool
	}{
		{"equality", "tier=frontend", map[string]string{"tier": "frontend"}, true, false},
		{"double-equals", "tier==frontend", map[string]string{"tier": "frontend"}, true, false},
		{"inequality-match", "tier!=frontend", map[string]string{"tier": "backend"}, true, false},
		{"inequality-excludes", "tier!=frontend", map[string]string{"tier": "frontend"}, false, false},
		{"conjunction", "tier=frontend,app=web", map[string]string{"tier": "frontend", "app": "web"}, true, false},
		{"missing-key", "tier=frontend", map[string]string{}, false, false},
		{"empty-selector-matches-all", "", map[string]string{}, true, false},
		{"bad-operator", "tier~frontend", map[string]string{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs, err := parseSelector(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := matches(reqs, tt.labels); got != tt.want {
				t.Errorf("matches(%q, %v) = %v, want %v", tt.raw, tt.labels, got, tt.want)
			}
		})
	}
}

// Package compose parses the compose document the façade is projecting and
// exposes a normalised, read-only snapshot of it. Loading follows the same
// compose-go/v2 option set the injection planner's host tooling uses, so
// both processes resolve project names identically.
package compose

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/compose-spec/compose-go/v2/cli"
	"github.com/compose-spec/compose-go/v2/types"
)

// Port is a normalised compose port mapping.
type Port struct {
	Published string
	Target    uint32
	Protocol  string
}

// Service is a normalised view of one compose service.
type Service struct {
	Name        string
	Image       string
	Command     []string
	Ports       []Port
	Environment map[string]string
	Labels      map[string]string
	Volumes     []string
	DependsOn   []string
}

// Snapshot is an immutable, normalised view of a compose file at the
// moment it was loaded. The façade constructs a fresh Snapshot per request
// rather than caching one, which trivially satisfies "reflects the file at
// response time within seconds" (there is no staleness window to reason
// about).
type Snapshot struct {
	ProjectName string
	Services    []Service
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeProjectName lowercases and maps non-alphanumerics to '-', mirroring
// the rule spec'd for the fallback (directory-basename) case.
func sanitizeProjectName(name string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// Load parses the compose file at path and returns a normalised Snapshot.
// Absent optional fields (ports, labels, environment, volumes) are simply
// empty, never an error.
func Load(path string) (*Snapshot, error) {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}

	opts := []cli.ProjectOptionsFn{
		cli.WithOsEnv,
		cli.WithDotEnv,
		cli.WithWorkingDirectory(dir),
	}

	options, err := cli.NewProjectOptions([]string{path}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build compose project options: %w", err)
	}

	project, err := options.LoadProject(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to parse compose file %s: %w", path, err)
	}

	return fromProject(project, dir), nil
}

func fromProject(project *types.Project, dir string) *Snapshot {
	name := project.Name
	if name == "" {
		absDir, err := filepath.Abs(dir)
		if err == nil {
			name = filepath.Base(absDir)
		}
	}
	name = sanitizeProjectName(name)
	if name == "" {
		name = "default"
	}

	snap := &Snapshot{ProjectName: name}
	for _, name := range project.ServiceNames() {
		svc := project.Services[name]
		snap.Services = append(snap.Services, serviceFromCompose(svc))
	}
	return snap
}

func serviceFromCompose(svc types.ServiceConfig) Service {
	s := Service{
		Name:        svc.Name,
		Image:       svc.Image,
		Command:     []string(svc.Command),
		Environment: map[string]string{},
		Labels:      map[string]string{},
	}
	for k, v := range svc.Environment {
		if v != nil {
			s.Environment[k] = *v
		}
	}
	for k, v := range svc.Labels {
		s.Labels[k] = v
	}
	for _, p := range svc.Ports {
		proto := p.Protocol
		if proto == "" {
			proto = "tcp"
		}
		s.Ports = append(s.Ports, Port{
			Published: p.Published,
			Target:    p.Target,
			Protocol:  proto,
		})
	}
	for _, v := range svc.Volumes {
		s.Volumes = append(s.Volumes, v.String())
	}
	for dep := range svc.DependsOn {
		s.DependsOn = append(s.DependsOn, dep)
	}
	return s
}

// Service looks up a service by name, returning ok=false if absent.
func (s *Snapshot) Service(name string) (Service, bool) {
	for _, svc := range s.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

package inject

import (
	"fmt"

	"github.com/compose-spec/compose-go/v2/types"
)

// Transform mutates an already-parsed compose project in place, applying
// the same rewrite BuildOverride computes for the standalone override file.
// This is the embedding path: an external driver that owns the compose
// merge step calls Transform instead of shelling out to this planner's
// binary and re-parsing its output.
func Transform(project *types.Project, opts Options) error {
	saDir := opts.SADirName
	if saDir == "" {
		saDir = "h2c-sa"
	}

	for name, svc := range project.Services {
		svc.Volumes = append(svc.Volumes, types.ServiceVolumeConfig{
			Type:     "bind",
			Source:   "./" + saDir,
			Target:   "/var/run/secrets/kubernetes.io/serviceaccount",
			ReadOnly: true,
		})
		if svc.Environment == nil {
			svc.Environment = types.MappingWithEquals{}
		}
		host := facadeServiceName
		port := fmt.Sprintf("%d", facadePort)
		svc.Environment["KUBERNETES_SERVICE_HOST"] = &host
		svc.Environment["KUBERNETES_SERVICE_PORT"] = &port
		if svc.DependsOn == nil {
			svc.DependsOn = types.DependsOnConfig{}
		}
		svc.DependsOn[facadeServiceName] = types.ServiceDependency{Condition: types.ServiceConditionStarted}
		project.Services[name] = svc
	}

	facade := types.ServiceConfig{
		Name:  facadeServiceName,
		Image: facadeImage,
		Volumes: []types.ServiceVolumeConfig{
			{Type: "bind", Source: opts.ComposePath, Target: "/data/compose.yml", ReadOnly: true},
			{Type: "bind", Source: "./" + saDir, Target: "/var/run/secrets/kubernetes.io/serviceaccount", ReadOnly: true},
		},
	}
	if opts.RuntimeSocket != "" {
		facade.Volumes = append(facade.Volumes, types.ServiceVolumeConfig{
			Type:   "bind",
			Source: opts.RuntimeSocket,
			Target: opts.RuntimeSocket,
		})
	}
	if opts.ExposeHost {
		port := opts.ExposeHostPort
		if port == "" {
			port = fmt.Sprintf("%d", facadePort)
		}
		facade.Ports = []types.ServicePortConfig{
			{Published: port, Target: uint32(facadePort), Protocol: "tcp"},
		}
	}

	if project.Services == nil {
		project.Services = types.Services{}
	}
	project.Services[facadeServiceName] = facade

	return nil
}

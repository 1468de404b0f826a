package inject

import (
	"testing"

	"github.com/compose-spec/compose-go/v2/types"
)

func newTestProject() *types.Project {
	return &types.Project{
		Name: "demo",
		Services: types.Services{
			"web": types.ServiceConfig{Name: "web", Image: "nginx"},
		},
	}
}

func TestTransformMountsSABundleOnExistingServices(t *testing.T) {
	project := newTestProject()

	if err := Transform(project, Options{ComposePath: "/abs/docker-compose.yml"}); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	web := project.Services["web"]
	if len(web.Volumes) != 1 {
		t.Fatalf("expected exactly one mounted volume on web, got %+v", web.Volumes)
	}
	if web.Volumes[0].Target != "/var/run/secrets/kubernetes.io/serviceaccount" {
		t.Fatalf("unexpected mount target: %+v", web.Volumes[0])
	}

	host, ok := web.Environment["KUBERNETES_SERVICE_HOST"]
	if !ok || host == nil || *host != facadeServiceName {
		t.Fatalf("expected KUBERNETES_SERVICE_HOST=%s, got %v", facadeServiceName, web.Environment)
	}

	if _, ok := web.DependsOn[facadeServiceName]; !ok {
		t.Fatalf("expected web to depend on %s, got %+v", facadeServiceName, web.DependsOn)
	}
}

func TestTransformAddsFacadeService(t *testing.T) {
	project := newTestProject()

	if err := Transform(project, Options{ComposePath: "/abs/docker-compose.yml"}); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	facade, ok := project.Services[facadeServiceName]
	if !ok {
		t.Fatalf("expected a facade service to be added")
	}
	if facade.Image != facadeImage {
		t.Fatalf("Image = %q, want %q", facade.Image, facadeImage)
	}
	if len(facade.Ports) != 0 {
		t.Fatalf("expected no published ports without ExposeHost, got %+v", facade.Ports)
	}
}

func TestTransformExposesHostPortWhenRequested(t *testing.T) {
	project := newTestProject()

	err := Transform(project, Options{
		ComposePath:    "/abs/docker-compose.yml",
		ExposeHost:     true,
		ExposeHostPort: "16443",
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	facade := project.Services[facadeServiceName]
	if len(facade.Ports) != 1 {
		t.Fatalf("expected exactly one published port, got %+v", facade.Ports)
	}
	if facade.Ports[0].Published != "16443" || facade.Ports[0].Target != uint32(facadePort) {
		t.Fatalf("unexpected port mapping: %+v", facade.Ports[0])
	}
}

func TestTransformMountsRuntimeSocketWhenProbed(t *testing.T) {
	project := newTestProject()

	err := Transform(project, Options{
		ComposePath:   "/abs/docker-compose.yml",
		RuntimeSocket: "/var/run/docker.sock",
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	facade := project.Services[facadeServiceName]
	found := false
	for _, v := range facade.Volumes {
		if v.Source == "/var/run/docker.sock" && v.Target == "/var/run/docker.sock" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the runtime socket mounted into the facade, got %+v", facade.Volumes)
	}
}

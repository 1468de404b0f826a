package projector

import (
	"testing"

	"github.com/baptisterajaut/h2c-api/internal/compose"
)

func TestWorkloadsExcludesFacadeService(t *testing.T) {
	snap := &compose.Snapshot{
		ProjectName: "demo",
		Services: []compose.Service{
			{Name: "web"},
			{Name: "h2c-api", Labels: map[string]string{ReservedLabel: "true"}},
		},
	}

	got := Workloads(snap)
	if len(got) != 1 || got[0].Name != "web" {
		t.Fatalf("expected only web, got %+v", got)
	}
}

func TestPodProjectionIsStableAndReady(t *testing.T) {
	p := New()
	svc := compose.Service{
		Name:  "web",
		Image: "nginx:latest",
		Ports: []compose.Port{{Target: 80, Protocol: "tcp"}},
	}

	a := p.Pod("demo", svc, "42")
	b := p.Pod("demo", svc, "42")

	if a.ObjectMeta.UID != b.ObjectMeta.UID {
		t.Fatalf("expected identical UID across projections of the same service")
	}
	if a.Name != "web-0" {
		t.Fatalf("Name = %q, want web-0", a.Name)
	}
	if a.ObjectMeta.ResourceVersion != "42" {
		t.Fatalf("ResourceVersion = %q, want 42", a.ObjectMeta.ResourceVersion)
	}
	if a.Status.Phase != "Running" {
		t.Fatalf("Phase = %q, want Running", a.Status.Phase)
	}
	if len(a.Status.Conditions) != 1 || a.Status.Conditions[0].Status != "True" {
		t.Fatalf("expected a single Ready=True condition, got %+v", a.Status.Conditions)
	}
}

func TestServiceProjectionUsesClusterIPType(t *testing.T) {
	p := New()
	svc := compose.Service{Name: "web", Ports: []compose.Port{{Target: 80, Published: "8080"}}}
	s := p.Service("demo", svc, "7")

	if s.Spec.Type != "ClusterIP" {
		t.Fatalf("Type = %q, want ClusterIP", s.Spec.Type)
	}
	if s.Spec.ClusterIP == "" {
		t.Fatalf("expected a non-empty ClusterIP")
	}
	if s.ObjectMeta.ResourceVersion != "7" {
		t.Fatalf("ResourceVersion = %q, want 7", s.ObjectMeta.ResourceVersion)
	}
	if len(s.Spec.Ports) != 1 || s.Spec.Ports[0].NodePort != 8080 {
		t.Fatalf("unexpected ports: %+v", s.Spec.Ports)
	}
}

func TestDeploymentProjectionIsSingleReplica(t *testing.T) {
	p := New()
	d := p.Deployment("demo", compose.Service{Name: "web"}, "3")

	if d.Spec.Replicas == nil || *d.Spec.Replicas != 1 {
		t.Fatalf("expected exactly 1 replica")
	}
	if d.Status.ReadyReplicas != 1 || d.Status.AvailableReplicas != 1 {
		t.Fatalf("expected ready/available replicas of 1, got %+v", d.Status)
	}
}

func TestEndpointsReferencesProjectedPod(t *testing.T) {
	p := New()
	ep := p.Endpoints("demo", compose.Service{Name: "web", Ports: []compose.Port{{Target: 80}}}, "1")

	if len(ep.Subsets) != 1 || len(ep.Subsets[0].Addresses) != 1 {
		t.Fatalf("expected exactly one subset with one address, got %+v", ep.Subsets)
	}
	ref := ep.Subsets[0].Addresses[0].TargetRef
	if ref == nil || ref.Name != "web-0" {
		t.Fatalf("expected targetRef to web-0, got %+v", ref)
	}
}

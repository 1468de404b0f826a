package lease

import "testing"

func TestCreateGetDeleteGet(t *testing.T) {
	s := New()

	created, err := s.Create(Lease{Namespace: "demo", Name: "L", HolderIdentity: "A"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ResourceVersion == 0 {
		t.Fatalf("expected nonzero resourceVersion")
	}

	got, err := s.Get("demo", "L")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ResourceVersion != created.ResourceVersion {
		t.Fatalf("Get returned different resourceVersion: %d vs %d", got.ResourceVersion, created.ResourceVersion)
	}

	if err := s.Delete("demo", "L"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Get("demo", "L"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreateCollision(t *testing.T) {
	s := New()
	if _, err := s.Create(Lease{Namespace: "demo", Name: "L"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(Lease{Namespace: "demo", Name: "L"}); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateBumpsResourceVersionAndTransitions(t *testing.T) {
	s := New()
	created, _ := s.Create(Lease{Namespace: "demo", Name: "L", HolderIdentity: "A"})

	updated, err := s.Update("demo", "L", Lease{
		HolderIdentity:  "B",
		ResourceVersion: created.ResourceVersion,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ResourceVersion <= created.ResourceVersion {
		t.Fatalf("resourceVersion did not strictly increase: %d -> %d", created.ResourceVersion, updated.ResourceVersion)
	}
	if updated.LeaseTransitions != 1 {
		t.Fatalf("expected leaseTransitions=1 after holder change, got %d", updated.LeaseTransitions)
	}
}

func TestUpdateStaleResourceVersionConflicts(t *testing.T) {
	s := New()
	created, _ := s.Create(Lease{Namespace: "demo", Name: "L", HolderIdentity: "A"})

	if _, err := s.Update("demo", "L", Lease{HolderIdentity: "B", ResourceVersion: created.ResourceVersion}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// Retry with the now-stale resourceVersion from the initial create.
	if _, err := s.Update("demo", "L", Lease{HolderIdentity: "C", ResourceVersion: created.ResourceVersion}); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	current, _ := s.Get("demo", "L")
	if current.HolderIdentity != "B" {
		t.Fatalf("state changed despite conflicting update: holder=%s", current.HolderIdentity)
	}
}

func TestListScopesToNamespace(t *testing.T) {
	s := New()
	s.Create(Lease{Namespace: "demo", Name: "a"})
	s.Create(Lease{Namespace: "other", Name: "b"})

	items := s.List("demo")
	if len(items) != 1 || items[0].Name != "a" {
		t.Fatalf("expected exactly lease 'a' in namespace demo, got %v", items)
	}
}

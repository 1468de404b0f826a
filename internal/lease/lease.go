// Package lease implements the façade's in-memory leader-election lease
// store: a mutex-guarded map with optimistic concurrency via a monotonic
// resourceVersion counter. The store owns this state exclusively; nothing
// else in the process mutates it.
package lease

import (
	"fmt"
	"sync"
	"time"
)

// Lease mirrors the coordination.k8s.io/v1 Lease shape closely enough for
// client libraries doing leader election, without pulling in a client-go
// dependency whose version skew policy doesn't fit a resource that is never
// actually round-tripped through a real API server's codec.
type Lease struct {
	Namespace            string
	Name                 string
	Labels               map[string]string
	HolderIdentity       string
	LeaseDurationSeconds int64
	AcquireTime          time.Time
	RenewTime            time.Time
	LeaseTransitions     int64
	ResourceVersion      int64
}

// ErrNotFound is returned by Get, Update, and Delete for an absent lease.
var ErrNotFound = fmt.Errorf("lease not found")

// ErrAlreadyExists is returned by Create on a namespace/name collision.
var ErrAlreadyExists = fmt.Errorf("lease already exists")

// ErrConflict is returned by Update when the caller's resourceVersion is
// stale.
var ErrConflict = fmt.Errorf("resource version conflict")

// Store is the process-wide Lease table. The zero value is not usable; use
// New.
type Store struct {
	mu      sync.Mutex
	leases  map[string]*Lease
	counter int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{leases: map[string]*Lease{}}
}

func key(namespace, name string) string {
	return namespace + "/" + name
}

// nextVersion must be called with mu held.
func (s *Store) nextVersion() int64 {
	s.counter++
	return s.counter
}

// Create inserts l if no lease exists at (l.Namespace, l.Name).
func (s *Store) Create(l Lease) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(l.Namespace, l.Name)
	if _, exists := s.leases[k]; exists {
		return nil, ErrAlreadyExists
	}
	l.ResourceVersion = s.nextVersion()
	if l.RenewTime.IsZero() {
		l.RenewTime = time.Now()
	}
	stored := l
	s.leases[k] = &stored
	out := stored
	return &out, nil
}

// Get returns a copy of the stored lease.
func (s *Store) Get(namespace, name string) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leases[key(namespace, name)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *l
	return &out, nil
}

// Update performs a full-object replace under an optimistic concurrency
// guard: if update.ResourceVersion is nonzero and differs from the stored
// value, ErrConflict is returned and no state changes. leaseTransitions
// increments only when holderIdentity actually changes from a previous
// non-empty value.
func (s *Store) Update(namespace, name string, update Lease) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(namespace, name)
	current, ok := s.leases[k]
	if !ok {
		return nil, ErrNotFound
	}
	if update.ResourceVersion != 0 && update.ResourceVersion != current.ResourceVersion {
		return nil, ErrConflict
	}

	transitions := current.LeaseTransitions
	if current.HolderIdentity != "" && update.HolderIdentity != current.HolderIdentity {
		transitions++
	}

	renew := update.RenewTime
	if renew.IsZero() {
		renew = time.Now()
	}

	next := Lease{
		Namespace:            namespace,
		Name:                 name,
		Labels:               update.Labels,
		HolderIdentity:       update.HolderIdentity,
		LeaseDurationSeconds: update.LeaseDurationSeconds,
		AcquireTime:          update.AcquireTime,
		RenewTime:            renew,
		LeaseTransitions:     transitions,
		ResourceVersion:      s.nextVersion(),
	}
	s.leases[k] = &next
	out := next
	return &out, nil
}

// Delete removes the lease if present.
func (s *Store) Delete(namespace, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(namespace, name)
	if _, ok := s.leases[k]; !ok {
		return ErrNotFound
	}
	delete(s.leases, k)
	return nil
}

// List returns every lease in namespace. Callers apply label selection
// themselves since Lease carries no compose-derived labels of its own
// beyond what the caller supplied at Create time.
func (s *Store) List(namespace string) []*Lease {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Lease
	for _, l := range s.leases {
		if l.Namespace != namespace {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out
}

// ResourceVersion returns the current global counter, used to stamp list
// envelopes and read-only projected resources.
func (s *Store) ResourceVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/baptisterajaut/h2c-api/internal/lease"
)

// wireLease is the coordination.k8s.io/v1 Lease JSON shape. It exists
// separately from lease.Lease because the store's internal type uses plain
// Go values (time.Time, int64) while the wire format uses Kubernetes'
// string-typed resourceVersion and RFC3339 timestamps.
type wireLease struct {
	Kind       string `json:"kind,omitempty"`
	APIVersion string `json:"apiVersion,omitempty"`
	Metadata   struct {
		Name            string            `json:"name"`
		Namespace       string            `json:"namespace,omitempty"`
		Labels          map[string]string `json:"labels,omitempty"`
		ResourceVersion string            `json:"resourceVersion,omitempty"`
	} `json:"metadata"`
	Spec struct {
		HolderIdentity       *string    `json:"holderIdentity,omitempty"`
		LeaseDurationSeconds *int64     `json:"leaseDurationSeconds,omitempty"`
		AcquireTime          *time.Time `json:"acquireTime,omitempty"`
		RenewTime            *time.Time `json:"renewTime,omitempty"`
		LeaseTransitions     *int64     `json:"leaseTransitions,omitempty"`
	} `json:"spec"`
}

func toWire(l *lease.Lease) wireLease {
	var w wireLease
	w.Kind = "Lease"
	w.APIVersion = "coordination.k8s.io/v1"
	w.Metadata.Name = l.Name
	w.Metadata.Namespace = l.Namespace
	w.Metadata.Labels = l.Labels
	w.Metadata.ResourceVersion = strconv.FormatInt(l.ResourceVersion, 10)
	holder := l.HolderIdentity
	w.Spec.HolderIdentity = &holder
	dur := l.LeaseDurationSeconds
	w.Spec.LeaseDurationSeconds = &dur
	if !l.AcquireTime.IsZero() {
		w.Spec.AcquireTime = &l.AcquireTime
	}
	if !l.RenewTime.IsZero() {
		w.Spec.RenewTime = &l.RenewTime
	}
	trans := l.LeaseTransitions
	w.Spec.LeaseTransitions = &trans
	return w
}

func fromWire(namespace string, w wireLease) lease.Lease {
	l := lease.Lease{
		Namespace: namespace,
		Name:      w.Metadata.Name,
		Labels:    w.Metadata.Labels,
	}
	if rv, err := strconv.ParseInt(w.Metadata.ResourceVersion, 10, 64); err == nil {
		l.ResourceVersion = rv
	}
	if w.Spec.HolderIdentity != nil {
		l.HolderIdentity = *w.Spec.HolderIdentity
	}
	if w.Spec.LeaseDurationSeconds != nil {
		l.LeaseDurationSeconds = *w.Spec.LeaseDurationSeconds
	}
	if w.Spec.AcquireTime != nil {
		l.AcquireTime = *w.Spec.AcquireTime
	}
	if w.Spec.RenewTime != nil {
		l.RenewTime = *w.Spec.RenewTime
	}
	if w.Spec.LeaseTransitions != nil {
		l.LeaseTransitions = *w.Spec.LeaseTransitions
	}
	return l
}

func (s *Server) handleLeaseList(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")

	switch r.Method {
	case http.MethodGet:
		reqs, err := parseSelector(r.URL.Query().Get("labelSelector"))
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		var items []wireLease
		for _, l := range s.leases.List(namespace) {
			if !matches(reqs, l.Labels) {
				continue
			}
			items = append(items, toWire(l))
		}
		writeJSON(w, http.StatusOK, newList("LeaseList", "coordination.k8s.io/v1", s.rv(), nonNil(items)))
	case http.MethodPost:
		s.handleLeaseCreate(w, r, namespace)
	default:
		writeNotImplemented(w, "unsupported verb "+r.Method+" on leases")
	}
}

func (s *Server) handleLeaseCreate(w http.ResponseWriter, r *http.Request, namespace string) {
	var body wireLease
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed lease body: "+err.Error())
		return
	}
	if body.Metadata.Name == "" {
		writeBadRequest(w, "lease name is required")
		return
	}

	created, err := s.leases.Create(fromWire(namespace, body))
	if err != nil {
		if errors.Is(err, lease.ErrAlreadyExists) {
			writeStatus(w, http.StatusConflict, "AlreadyExists", "lease "+body.Metadata.Name+" already exists")
			return
		}
		writeInternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toWire(created))
}

func (s *Server) handleLeaseItem(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	name := r.PathValue("name")

	switch r.Method {
	case http.MethodGet:
		l, err := s.leases.Get(namespace, name)
		if err != nil {
			writeNotFound(w, "lease "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, toWire(l))
	case http.MethodPut:
		var body wireLease
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeBadRequest(w, "malformed lease body: "+err.Error())
			return
		}
		updated, err := s.leases.Update(namespace, name, fromWire(namespace, body))
		if err != nil {
			switch {
			case errors.Is(err, lease.ErrNotFound):
				writeNotFound(w, "lease "+name+" not found")
			case errors.Is(err, lease.ErrConflict):
				writeConflict(w, "resourceVersion conflict on lease "+name)
			default:
				writeInternalError(w, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusOK, toWire(updated))
	case http.MethodDelete:
		existing, err := s.leases.Get(namespace, name)
		if err != nil {
			writeNotFound(w, "lease "+name+" not found")
			return
		}
		if err := s.leases.Delete(namespace, name); err != nil {
			writeNotFound(w, "lease "+name+" not found")
			return
		}
		writeJSON(w, http.StatusOK, toWire(existing))
	default:
		writeNotImplemented(w, "unsupported verb "+r.Method+" on leases")
	}
}

package apiserver

import (
	"encoding/json"
	"net/http"
)

// Status is the Kubernetes error envelope every non-2xx response uses.
type Status struct {
	Kind       string `json:"kind"`
	APIVersion string `json:"apiVersion"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Reason     string `json:"reason"`
	Code       int    `json:"code"`
}

func newStatus(code int, reason, message string) Status {
	return Status{
		Kind:       "Status",
		APIVersion: "v1",
		Status:     "Failure",
		Message:    message,
		Reason:     reason,
		Code:       code,
	}
}

func writeStatus(w http.ResponseWriter, code int, reason, message string) {
	writeJSON(w, code, newStatus(code, reason, message))
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusNotFound, "NotFound", message)
}

func writeNotImplemented(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusNotImplemented, "MethodNotAllowed", message)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusBadRequest, "BadRequest", message)
}

func writeConflict(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusConflict, "Conflict", message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeStatus(w, http.StatusInternalServerError, "InternalError", message)
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// listMeta is the metadata block every *List envelope carries.
type listMeta struct {
	ResourceVersion string `json:"resourceVersion"`
}

// list is a generic Kubernetes list envelope.
type list struct {
	Kind       string      `json:"kind"`
	APIVersion string      `json:"apiVersion"`
	Metadata   listMeta    `json:"metadata"`
	Items      interface{} `json:"items"`
}

func newList(kind, apiVersion, resourceVersion string, items interface{}) list {
	return list{
		Kind:       kind,
		APIVersion: apiVersion,
		Metadata:   listMeta{ResourceVersion: resourceVersion},
		Items:      items,
	}
}

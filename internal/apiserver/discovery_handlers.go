package apiserver

import "net/http"

// The six discovery endpoints and /version must never answer anything but
// 200 once the process is up, so they ignore both HTTP method and query
// string entirely — there is nothing about them that can fail.

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionInfo())
}

func (s *Server) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.apiRoot())
}

func (s *Server) handleAPIV1Discovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiV1Discovery())
}

func (s *Server) handleAPIsRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apisRoot())
}

func (s *Server) handleAppsV1Discovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, appsV1Discovery())
}

func (s *Server) handleCoordinationV1Discovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, coordinationV1Discovery())
}

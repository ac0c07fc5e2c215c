package httpapi

import (
	"net/http"
	"strings"
)

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUser(w, r, id)
	case http.MethodDelete:
		a.deleteUser(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id string) {
	u, err := a.users.Find(r.Context(), id)
	if err != nil {
		handleUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	actor := actorID(r)
	if actor == "" {
		writeError(w, r, http.StatusForbidden, "acting subject is required")
		return
	}
	if err := a.users.Delete(r.Context(), actor, id); err != nil {
		handleUserError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

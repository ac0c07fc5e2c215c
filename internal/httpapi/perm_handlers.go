package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"gatehouse.org/internal/perm"
)

type permissionResponse struct {
	Permission string `json:"permission"`
}

type checkResponse struct {
	Allowed bool `json:"allowed"`
}

// handlePermissionResource serves
// /api/permissions/{subject}/{action}/{resource_id}/{resource_kind}.
// GET checks the permission; POST grants it to the subject on behalf of the
// acting subject; DELETE revokes it.
func (a *API) handlePermissionResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/permissions/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 4 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	subject, action, resourceID, resourceKind := parts[0], parts[1], parts[2], parts[3]

	switch r.Method {
	case http.MethodGet:
		allowed, err := a.perms.Has(r.Context(), subject, action, resourceID, resourceKind)
		if err != nil {
			handlePermError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, checkResponse{Allowed: allowed})
	case http.MethodPost:
		actor := actorID(r)
		if actor == "" {
			writeError(w, r, http.StatusForbidden, "acting subject is required")
			return
		}
		p, err := a.perms.Grant(r.Context(), actor, subject, action, resourceID, resourceKind)
		if err != nil {
			handlePermError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, permissionResponse{Permission: p.String()})
	case http.MethodDelete:
		actor := actorID(r)
		if actor == "" {
			writeError(w, r, http.StatusForbidden, "acting subject is required")
			return
		}
		if err := a.perms.Revoke(r.Context(), actor, subject, action, resourceID, resourceKind); err != nil {
			handlePermError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func handlePermError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, perm.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, perm.ErrUnauthorized):
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gatehouse.org/internal/tenant"
)

type createTenantRequest struct {
	Name string `json:"name"`
}

type tenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (a *API) handleTenants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	actor := actorID(r)
	if actor == "" {
		writeError(w, r, http.StatusForbidden, "acting subject is required")
		return
	}
	var req createTenantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tn, err := a.tenants.Create(r.Context(), actor, req.Name)
	if err != nil {
		handleTenantError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/tenants/"+tn.ID.String())
	writeJSON(w, http.StatusCreated, toTenantResponse(tn))
}

func (a *API) handleTenantResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tenants/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		tn, err := a.tenants.Find(r.Context(), id)
		if err != nil {
			handleTenantError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTenantResponse(tn))
	case http.MethodDelete:
		actor := actorID(r)
		if actor == "" {
			writeError(w, r, http.StatusForbidden, "acting subject is required")
			return
		}
		if err := a.tenants.Delete(r.Context(), actor, id); err != nil {
			handleTenantError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func toTenantResponse(tn tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:        tn.ID.String(),
		Name:      tn.Name,
		CreatedAt: tn.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func handleTenantError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tenant.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, tenant.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, tenant.ErrPermissionDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"gatehouse.org/internal/user"
)

type signInRequest struct {
	Email string `json:"email"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
}

type userResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type profileResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := a.users.SignIn(r.Context(), req.Email)
	if err != nil {
		handleUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		UserID: profile.UserID.String(),
		Email:  profile.Email.String(),
	})
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	u, err := a.users.SignUp(r.Context(), req.Email, req.TenantID)
	if err != nil {
		handleUserError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/users/"+u.ID.String())
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func handleUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrPermissionDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

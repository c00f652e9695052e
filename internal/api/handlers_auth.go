package api

import (
	"encoding/json"
	"net/http"

	"github.com/arborhq/arbor/internal/api/respond"
	"github.com/arborhq/arbor/internal/api/validate"
	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/services"
)

// AuthHandler provides registration and login.
type AuthHandler struct {
	users  *services.UserService
	issuer *auth.TokenIssuer
}

func NewAuthHandler(users *services.UserService, issuer *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Username(req.Username); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Password(req.Password); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	u, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, u)
}

// Login POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	u, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// Do not leak whether the username exists.
		respond.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.issuer.Issue(u.UserID)
	if err != nil {
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

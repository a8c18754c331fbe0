package handler

import (
	"encoding/json"
	"net/http"

	"ninelives-store-api/internal/middleware"
	"ninelives-store-api/internal/service"
	"ninelives-store-api/pkg/apierror"
	"ninelives-store-api/pkg/response"
)

// AuthHandler handles identity provider endpoints.
type AuthHandler struct {
	identity *service.IdentityService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// SignInResponse carries the identity and its session token.
type SignInResponse struct {
	Identity  interface{} `json:"identity"`
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expires_in"`
}

// SignInAnonymously handles POST /auth/anonymous
func (h *AuthHandler) SignInAnonymously(w http.ResponseWriter, r *http.Request) {
	identity, token, err := h.identity.SignInAnonymously(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to create guest session"))
		return
	}

	response.OK(w, SignInResponse{
		Identity:  identity,
		Token:     token,
		ExpiresIn: int(service.SessionTTL.Seconds()),
	})
}

// PasswordSignInRequest is the email/password sign-in payload.
type PasswordSignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInWithPassword handles POST /auth/login
func (h *AuthHandler) SignInWithPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Email == "" || req.Password == "" {
		response.Error(w, apierror.ValidationError("email and password are required"))
		return
	}

	sessionToken := middleware.SessionTokenFrom(r.Context())
	identity, token, err := h.identity.SignInWithPassword(r.Context(), sessionToken, req.Email, req.Password)
	if err != nil {
		switch err {
		case service.ErrInvalidCredentials:
			response.Error(w, apierror.AuthError("invalid email or password"))
		case service.ErrAccountsUnavailable:
			response.Error(w, apierror.ConfigurationError("credentialed sign-in is unavailable"))
		default:
			response.Error(w, apierror.InternalError("sign-in failed"))
		}
		return
	}

	response.OK(w, SignInResponse{
		Identity:  identity,
		Token:     token,
		ExpiresIn: int(service.SessionTTL.Seconds()),
	})
}

// FederatedSignInRequest is the provider-assertion sign-in payload.
type FederatedSignInRequest struct {
	Provider    string `json:"provider"`
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name"`
	Photo       string `json:"photo"`
	Email       string `json:"email"`
}

// SignInWithProvider handles POST /auth/provider
func (h *AuthHandler) SignInWithProvider(w http.ResponseWriter, r *http.Request) {
	var req FederatedSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	sessionToken := middleware.SessionTokenFrom(r.Context())
	identity, token, err := h.identity.SignInWithProvider(r.Context(), sessionToken,
		req.Provider, req.Subject, req.DisplayName, req.Photo, req.Email)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			response.Error(w, apierror.AuthError("provider and subject are required"))
			return
		}
		response.Error(w, apierror.InternalError("sign-in failed"))
		return
	}

	response.OK(w, SignInResponse{
		Identity:  identity,
		Token:     token,
		ExpiresIn: int(service.SessionTTL.Seconds()),
	})
}

// Me handles GET /auth/me - the auth-state restore for a returning page.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.OK(w, map[string]interface{}{"identity": nil})
		return
	}
	response.OK(w, map[string]interface{}{"identity": identity})
}

// SignOut handles POST /auth/logout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionTokenFrom(r.Context())
	if token == "" {
		response.NoContent(w)
		return
	}
	if err := h.identity.SignOut(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to sign out"))
		return
	}
	response.NoContent(w)
}

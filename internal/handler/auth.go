package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/domain"
	"github.com/JackobAssis/Joburguers/internal/server/authctx"
	"github.com/JackobAssis/Joburguers/internal/service"
)

type AuthHandler struct {
	Auth service.AuthService
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.clientLogin)
	r.Post("/api/auth/admin/login", h.adminLogin)
	r.Post("/api/auth/google", h.googleLogin)
}

// RegisterAuthedRoutes holds the routes that need a valid token.
func (h AuthHandler) RegisterAuthedRoutes(r chi.Router) {
	r.Post("/api/auth/logout", h.logout)
}

func (h AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Phone         string `json:"phone"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		ReferralPhone string `json:"referralPhone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.Auth.RegisterClient(r.Context(), service.RegisterInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Password:      req.Password,
		ReferralPhone: req.ReferralPhone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAuthResponse(result))
}

func (h AuthHandler) clientLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.Auth.ClientLogin(r.Context(), service.LoginInput{Phone: req.Phone, Password: req.Password})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h AuthHandler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.Auth.AdminLogin(r.Context(), service.LoginInput{Phone: req.Phone, Password: req.Password})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h AuthHandler) googleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"idToken"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Phone   string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.Auth.LoginWithGoogle(r.Context(), service.GoogleLoginInput{
		IDToken: req.IDToken,
		Email:   req.Email,
		Name:    req.Name,
		Phone:   req.Phone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

func (h AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	actor := authctx.FromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.Auth.Logout(r.Context(), actor.Type, actor.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func toAuthResponse(result *service.AuthResult) map[string]any {
	resp := map[string]any{
		"accessToken": result.AccessToken,
		"actorType":   string(result.ActorType),
		"expiresAt":   result.ExpiresAt.Format(time.RFC3339),
	}
	if result.Client != nil {
		resp["client"] = toClientResponse(*result.Client)
	}
	if result.Admin != nil {
		resp["admin"] = map[string]any{
			"name":  result.Admin.Name,
			"phone": result.Admin.Phone,
		}
	}
	return resp
}

// toClientResponse strips the password hash from client payloads.
func toClientResponse(c domain.Client) map[string]any {
	return map[string]any{
		"id":            c.ID,
		"name":          c.Name,
		"phone":         c.Phone,
		"email":         c.Email,
		"points":        c.Points,
		"level":         string(c.Level),
		"active":        c.Active,
		"createdAt":     c.CreatedAt,
		"lastUpdatedAt": c.LastUpdatedAt,
	}
}

package httpapi

import (
	"net/http"
	"time"

	"taskora.org/internal/audit"
	"taskora.org/internal/auth"
	"taskora.org/internal/obs"
)

type registerRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), auth.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.RecordRegistration()
	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully.",
	})
}

// handleToken is the OAuth2-password-style login endpoint. It accepts a form
// body, not JSON, so stock clients can post credentials directly.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	token, expiresAt, err := a.auth.Login(r.Context(), username, password)
	if err != nil {
		obs.RecordLogin("failure")
		handleServiceError(w, r, err)
		return
	}
	obs.RecordLogin("success")
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"username":   username,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

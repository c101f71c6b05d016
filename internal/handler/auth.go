package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/auth"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/service"
)

// AuthHandler serves registration, login, logout and the current user's
// account.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister      → create an account and start a session
//   - HandleLogin         → check credentials and start a session
//   - HandleLogout        → clear the session cookie
//   - HandleMe            → return the logged-in user
//   - HandleUpdateAccount → change username and email
//   - HandleUpdateSurvey  → replace the user's dietary survey
//   - HandleResetRequest  → mail a password reset link
//   - HandleResetPassword → set a new password from a reset link
type AuthHandler struct {
	auth         *service.AuthService
	accounts     *service.AccountService
	resets       *service.PasswordResetService
	tokenTTL     time.Duration
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(
	authSvc *service.AuthService,
	accounts *service.AccountService,
	resets *service.PasswordResetService,
	tokenTTL time.Duration,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:         authSvc,
		accounts:     accounts,
		resets:       resets,
		tokenTTL:     tokenTTL,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// SessionResponse is returned on register and login. The token is also set
// as an HttpOnly cookie; API clients send it back as a Bearer header.
type SessionResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"username": "alice", "email": "alice@example.com", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.startSession(w, res, http.StatusCreated)
}

// HandleLogin starts a session.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "alice@example.com", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.startSession(w, res, http.StatusOK)
}

// startSession sets the token cookie.
//
// HttpOnly keeps scripts from reading the token (XSS). SameSite=Lax keeps it
// off cross-site POSTs (CSRF). Secure is on whenever the server runs behind
// HTTPS; see auth.cookie_secure.
func (h *AuthHandler) startSession(w http.ResponseWriter, res *service.AuthResult, status int) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, SessionResponse{
		User:      res.User,
		Token:     res.Token,
		ExpiresAt: time.Now().Add(h.tokenTTL).UTC(),
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless, so a copied token stays valid until it expires.
// Logging out only removes the browser's copy.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the logged-in user.
//
// HTTP: GET /api/me
// Auth: required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.accounts.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateSurvey replaces the user's survey answers.
//
// HTTP: PUT /api/me/survey
// REQUEST BODY: {"vegetarianism": "vegan", "glutenFree": true, "healthy": false, "noAlcohol": false}
// Auth: required
func (h *AuthHandler) HandleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var in service.SurveyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.UpdateSurvey(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateAccount changes the username and email.
//
// HTTP: PUT /api/me
// REQUEST BODY: {"username": "alice", "email": "alice@example.com"}
// Auth: required
func (h *AuthHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var in service.AccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accounts.UpdateAccount(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleResetRequest mails a reset link when the email has an account.
//
// HTTP: POST /api/auth/password-reset
// REQUEST BODY: {"email": "alice@example.com"}
//
// The answer is 202 whether or not the account exists.
func (h *AuthHandler) HandleResetRequest(w http.ResponseWriter, r *http.Request) {
	var in service.ResetRequestInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	if err := h.resets.RequestReset(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the email has an account, a reset link has been sent",
	})
}

// HandleResetPassword sets a new password.
//
// HTTP: POST /api/auth/password-reset/confirm
// REQUEST BODY: {"token": "<from the mail>", "password": "..."}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in service.ResetPasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	if err := h.resets.ResetPassword(r.Context(), in); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated, log in again"})
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	app "github.com/safespace-app/safespace-api/internal/application"
	"github.com/safespace-app/safespace-api/pkg/helpers"
	"github.com/safespace-app/safespace-api/pkg/response"
	"github.com/safespace-app/safespace-api/pkg/validation"
)

type AuthHandler struct {
	Svc            *app.AuthService
	Logger         *logrus.Logger
	Cookies        *helpers.CookieManager
	FrontendOrigin string
}

func NewAuthHandler(svc *app.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure bool, frontendOrigin string) *AuthHandler {
	return &AuthHandler{
		Svc:            svc,
		Logger:         logger,
		Cookies:        helpers.NewCookie(cookieDomain, cookieSecure),
		FrontendOrigin: frontendOrigin,
	}
}

type signupRequest struct {
	Email                 string `json:"email" binding:"required,email"`
	Password              string `json:"password" binding:"required,pwd"`
	FullName              string `json:"full_name"`
	UserType              string `json:"user_type" binding:"omitempty,oneof=individual parent organization"`
	Phone                 string `json:"phone" binding:"omitempty,e164"`
	EmergencyContactEmail string `json:"emergency_contact_email" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

func fieldDetails(fe *app.FieldError) []map[string]string {
	return []map[string]string{{"field": fe.Field, "message": fe.Message}}
}

// Signup registers identity plus profile. No session is established;
// the client signs in with the new credentials next.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.SignUp(c.Request.Context(), app.SignUpInput{
		Email:                 req.Email,
		Password:              req.Password,
		FullName:              req.FullName,
		UserType:              req.UserType,
		Phone:                 req.Phone,
		EmergencyContactEmail: req.EmergencyContactEmail,
	})
	if err != nil {
		if fe, ok := app.AsFieldError(err); ok {
			response.Error[any](c, http.StatusBadRequest, fe.Message, fieldDetails(fe))
			return
		}
		switch {
		case errors.Is(err, app.ErrEmailTaken):
			response.Error[any](c, http.StatusConflict, "email already registered", nil)
		case errors.Is(err, app.ErrProfilePersist):
			response.Error[any](c, http.StatusInternalServerError, err.Error(), nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "failed to create account", nil)
		}
		return
	}

	// No session is established here; the client signs in next.
	response.Success(c, http.StatusCreated, gin.H{
		"user_id":    u.ID,
		"email":      u.Email,
		"name":       u.DisplayName(),
		"needs_name": u.NeedsName(),
	}, "account created, please sign in", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, pair, err := h.Svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, res, "login successful", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Refresh rotates the cookie pair from the refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

// Logout is public and idempotent; a request without a session still
// clears cookies and reports success.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		if claims, perr := h.Svc.JWT.ParseAccessToken(token); perr == nil {
			h.Svc.SignOut(c.Request.Context(), claims.UserID)
		}
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPassword always reports success; account existence is never
// disclosed here.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	_ = h.Svc.ResetPassword(c.Request.Context(), req.Email)
	response.Success[any](c, http.StatusOK, nil,
		"If an account exists for that address, a reset link has been sent", nil)
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

func (h *AuthHandler) ConfirmReset(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid or expired reset token", nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"updated": true}, "password updated", nil)
}

type updatePasswordRequest struct {
	Password string `json:"password" binding:"required,pwd"`
}

// UpdatePassword changes the password of the signed-in user.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString("userID")
	if err := h.Svc.UpdatePassword(c.Request.Context(), uid, req.Password); err != nil {
		if errors.Is(err, app.ErrSessionRequired) {
			response.Error[any](c, http.StatusUnauthorized, "active session required", gin.H{"redirect": "/login"})
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to update password", nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"updated": true}, "password updated", nil)
}

// GoogleRedirect hands the browser the provider consent URL. The state
// nonce is pinned in a short-lived cookie and checked on callback.
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	state := uuid.NewString()
	url := h.Svc.OAuthURL(state)
	if url == "" {
		response.Error[any](c, http.StatusServiceUnavailable, "oauth is not configured", nil)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("oauth_state", state, int((10 * time.Minute).Seconds()), "/", h.Cookies.Domain, h.Cookies.Secure, true)
	response.Success(c, http.StatusOK, gin.H{"url": url}, "redirect to provider", nil)
}

// GoogleCallback finishes the consent flow and lands the browser on the
// dashboard.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state, _ := c.Cookie("oauth_state")
	if state == "" || state != c.Query("state") {
		c.Redirect(http.StatusFound, h.FrontendOrigin+"/login?error=oauth_state")
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", h.Cookies.Domain, h.Cookies.Secure, true)

	_, pair, err := h.Svc.OAuthCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("oauth callback failed")
		}
		c.Redirect(http.StatusFound, h.FrontendOrigin+"/login?error=oauth")
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	c.Redirect(http.StatusFound, h.FrontendOrigin+"/dashboard")
}

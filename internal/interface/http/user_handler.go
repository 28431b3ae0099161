package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/safespace-app/safespace-api/internal/application"
	"github.com/safespace-app/safespace-api/internal/domain/entity"
	"github.com/safespace-app/safespace-api/pkg/response"
	"github.com/safespace-app/safespace-api/pkg/validation"
)

type UserHandler struct {
	Svc    *app.AuthService
	Logger *logrus.Logger
}

func NewUserHandler(svc *app.AuthService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

func profileJSON(u *entity.User) gin.H {
	return gin.H{
		"id":                      u.ID,
		"email":                   u.Email,
		"full_name":               u.FullName,
		"display_name":            u.DisplayName(),
		"avatar_url":              u.AvatarURL,
		"phone":                   u.Phone,
		"emergency_contact_email": u.EmergencyContactEmail,
		"user_type":               u.UserType,
		"created_at":              u.CreatedAt,
		"updated_at":              u.UpdatedAt,
	}
}

// Dashboard returns the shell payload. A missing profile row yields a
// placeholder instead of an error so the page always renders; needs_name
// drives the completion prompt.
func (h *UserHandler) Dashboard(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(uid)
	if err != nil {
		placeholder := &entity.User{ID: uid, Email: c.GetString("userEmail")}
		response.Success(c, http.StatusOK, gin.H{
			"user":       profileJSON(placeholder),
			"needs_name": true,
		}, "dashboard", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":       profileJSON(u),
		"needs_name": u.NeedsName(),
	}, "dashboard", nil)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(uid)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(u), "profile", nil)
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone" binding:"omitempty,e164"`
	UserType string `json:"user_type" binding:"omitempty,oneof=individual parent organization"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, app.UpdateProfileInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		UserType: req.UserType,
	})
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "failed to update profile", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(u), "profile updated", nil)
}

type completeNameRequest struct {
	FullName string `json:"full_name" binding:"required"`
}

// CompleteName is the profile-completion save; it writes full_name only.
func (h *UserHandler) CompleteName(c *gin.Context) {
	uid := c.GetString("userID")
	var req completeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.CompleteName(c.Request.Context(), uid, req.FullName)
	if err != nil {
		if fe, ok := app.AsFieldError(err); ok {
			response.Error[any](c, http.StatusBadRequest, fe.Message, fieldDetails(fe))
			return
		}
		response.Error[any](c, http.StatusBadRequest, "failed to save name", nil)
		return
	}
	response.Success(c, http.StatusOK, profileJSON(u), "name saved", nil)
}

// UploadAvatar accepts a multipart "avatar" file and stores it in GCS.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString("userID")
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", uid).Warn("avatar upload failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to upload avatar", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar updated", nil)
}

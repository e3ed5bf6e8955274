package app

import (
	"errors"
	"net/http"
	"strings"

	"coursepulse/internal/service"
	"coursepulse/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService service.AuthService
	cloudinary  *util.CloudinaryClient
	userAvatars AvatarUpdater
}

// AvatarUpdater persists a new avatar URL for a user.
type AvatarUpdater interface {
	UpdateAvatar(userID, avatarURL string) error
}

func NewAuthHandler(authService service.AuthService, cloudinary *util.CloudinaryClient, userAvatars AvatarUpdater) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cloudinary:  cloudinary,
		userAvatars: userAvatars,
	}
}

// bindingErrorMessage turns validator field errors into readable messages.
func bindingErrorMessage(err error) string {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		for _, fieldErr := range validationErr {
			field := strings.ToLower(fieldErr.Field())
			switch fieldErr.Tag() {
			case "required":
				return field + " is required"
			case "email":
				return "invalid email format"
			case "min":
				return field + " must be at least " + fieldErr.Param() + " characters"
			}
		}
	}
	return err.Error()
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, bindingErrorMessage(err))
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		util.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Registration successful", resp)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, bindingErrorMessage(err))
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		util.Unauthorized(c, err.Error())
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Login successful", resp)
}

// GetMe returns the authenticated user's account
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := c.GetString("userID")

	user, err := h.authService.GetMe(userID)
	if err != nil {
		util.NotFound(c, err.Error())
		return
	}

	util.SuccessResponse(c, http.StatusOK, "User retrieved", user)
}

// UploadAvatar stores a new profile picture and updates the user's avatar URL
// POST /api/v1/auth/avatar
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetString("userID")

	if h.cloudinary == nil {
		util.ErrorResponse(c, http.StatusServiceUnavailable, "Avatar uploads are not configured", nil)
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		util.BadRequest(c, "avatar file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to read uploaded file", nil)
		return
	}
	defer file.Close()

	avatarURL, err := h.cloudinary.UploadAvatar(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to upload avatar", nil)
		return
	}

	if err := h.userAvatars.UpdateAvatar(userID, avatarURL); err != nil {
		util.ErrorResponse(c, http.StatusInternalServerError, "Failed to save avatar", nil)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Avatar updated", gin.H{"avatar_url": avatarURL})
}

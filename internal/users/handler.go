package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadertalk-backend/internal/shared/server/middleware"
	"leadertalk-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me/onboarding", h.onboarding)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	if middleware.IsGuestFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":                  user.ID,
		"email":               user.Email,
		"fullName":            user.FullName,
		"pictureUrl":          user.PictureURL,
		"goals":               user.Goals,
		"selectedLeaders":     user.SelectedLeaders,
		"onboardingCompleted": user.OnboardingCompleted,
	})
}

type onboardingRequest struct {
	Goals           string   `json:"goals"`
	SelectedLeaders []string `json:"selectedLeaders"`
}

func (h *Handler) onboarding(c *gin.Context) {
	if middleware.IsGuestFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}

	var req onboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	err := h.Svc.CompleteOnboarding(c.Request.Context(), userID, req.Goals, req.SelectedLeaders)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidLeaders):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save onboarding", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"onboardingCompleted": true})
}

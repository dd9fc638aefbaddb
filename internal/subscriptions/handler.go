package subscriptions

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leadertalk-backend/internal/shared/server/middleware"
	"leadertalk-backend/internal/shared/server/respond"
)

// Handler exposes subscription and billing endpoints.
type Handler struct {
	Svc           *Service
	WebhookSecret string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, webhookSecret string) *Handler {
	return &Handler{Svc: svc, WebhookSecret: webhookSecret}
}

// RegisterRoutes attaches subscription routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/subscriptions/current", h.current)
	rg.POST("/subscriptions/select", h.selectPlan)
	rg.POST("/billing/webhook", h.webhook)
}

func (h *Handler) current(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	sub, err := h.Svc.Current(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch subscription", nil)
		return
	}

	respond.JSON(c, http.StatusOK, sub)
}

type selectPlanRequest struct {
	Plan string `json:"plan"`
}

func (h *Handler) selectPlan(c *gin.Context) {
	if middleware.IsGuestFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to select a plan", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	var req selectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Plan = strings.TrimSpace(req.Plan)
	if req.Plan == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "plan is required", nil)
		return
	}

	sub, err := h.Svc.SelectPlan(c.Request.Context(), userID, req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownPlan):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown plan", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to select plan", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, sub)
}

func (h *Handler) webhook(c *gin.Context) {
	if h.WebhookSecret != "" {
		got := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid webhook secret", nil)
			return
		}
	}

	var event WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(event.Type) == "" || strings.TrimSpace(event.ProviderSubscriptionID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "type and providerSubscriptionId are required", nil)
		return
	}

	if err := h.Svc.HandleWebhook(c.Request.Context(), event); err != nil {
		switch {
		case errors.Is(err, ErrUnknownPlan):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unknown plan", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process webhook", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"received": true})
}

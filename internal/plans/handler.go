package plans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadertalk-backend/internal/shared/server/respond"
)

// Handler exposes the plan catalog.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes attaches plan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/plans", h.list)
}

func (h *Handler) list(c *gin.Context) {
	respond.JSON(c, http.StatusOK, All())
}

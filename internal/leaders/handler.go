package leaders

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadertalk-backend/internal/shared/server/respond"
)

// Handler exposes leader persona endpoints.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches leader routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leaders", h.list)
	rg.GET("/leaders/featured", h.featured)
	rg.GET("/leaders/:id", h.get)
}

func (h *Handler) list(c *gin.Context) {
	all, err := h.Repo.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list leaders", nil)
		return
	}
	respond.JSON(c, http.StatusOK, all)
}

func (h *Handler) featured(c *gin.Context) {
	featured, err := h.Repo.ListFeatured(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list leaders", nil)
		return
	}
	respond.JSON(c, http.StatusOK, featured)
}

func (h *Handler) get(c *gin.Context) {
	leaderID := c.Param("id")
	if leaderID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "leader id is required", nil)
		return
	}
	leader, err := h.Repo.GetByID(c.Request.Context(), leaderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "leader not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch leader", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, leader)
}

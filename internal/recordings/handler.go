package recordings

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"leadertalk-backend/internal/shared/server/middleware"
	"leadertalk-backend/internal/shared/server/respond"
)

const maxUploadSize = 100 << 20 // 100MB, enough for roughly an hour of audio

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches recording routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recordings/upload", h.upload)
	rg.POST("/recordings/from-s3", h.createFromS3)
	rg.GET("/recordings", h.list)
	rg.GET("/recordings/:id", h.get)
	rg.GET("/recordings/:id/transcript", h.transcript)
	rg.DELETE("/recordings/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	title := c.PostForm("title")

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.Create(ctx, userID, title, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload recording", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(rec))
}

type createFromS3Request struct {
	S3Key            string `json:"s3Key"`
	OriginalFileName string `json:"originalFileName"`
	ContentType      string `json:"contentType"`
	SizeBytes        int64  `json:"sizeBytes"`
}

func (h *Handler) createFromS3(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createFromS3Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.S3Key = strings.TrimSpace(req.S3Key)
	req.OriginalFileName = strings.TrimSpace(req.OriginalFileName)
	req.ContentType = strings.TrimSpace(req.ContentType)

	if req.S3Key == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "s3Key is required", nil)
		return
	}
	if req.OriginalFileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "originalFileName is required", nil)
		return
	}
	if req.ContentType == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is required", nil)
		return
	}
	if req.SizeBytes <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes must be positive", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.CreateFromS3(ctx, userID, req.S3Key, req.OriginalFileName, req.ContentType, req.SizeBytes)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create recording", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(rec))
}

func (h *Handler) list(c *gin.Context) {
	if middleware.IsGuestFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	recs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list recordings", nil)
		}
		return
	}

	resp := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, toListItem(rec))
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	recordingID := c.Param("id")

	rec, err := h.Svc.Get(c.Request.Context(), userID, recordingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "recording not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch recording", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponse(rec))
}

func (h *Handler) transcript(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	recordingID := c.Param("id")

	rec, err := h.Svc.Get(c.Request.Context(), userID, recordingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "recording not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch recording", nil)
		}
		return
	}
	if rec.Transcript == "" {
		respond.Error(c, http.StatusConflict, "transcript_pending", "transcript not available yet", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"recordingId": rec.ID,
		"transcript":  rec.Transcript,
		"wordCount":   rec.WordCount,
	})
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	recordingID := c.Param("id")

	if err := h.Svc.Delete(c.Request.Context(), userID, recordingID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "recording not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete recording", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func toResponse(rec Recording) gin.H {
	resp := gin.H{
		"recordingId": rec.ID,
		"title":       rec.Title,
		"source":      rec.Source,
		"status":      rec.Status,
		"fileName":    rec.FileName,
		"mimeType":    rec.MimeType,
		"sizeBytes":   rec.SizeBytes,
		"wordCount":   rec.WordCount,
		"createdAt":   rec.CreatedAt,
	}
	if rec.ErrorCode != nil {
		resp["errorCode"] = *rec.ErrorCode
	}
	if rec.Analysis != nil {
		resp["analysis"] = rec.Analysis
		resp["analysisVersion"] = rec.AnalysisVersion
	}
	return resp
}

func toListItem(rec Recording) gin.H {
	item := gin.H{
		"recordingId": rec.ID,
		"title":       rec.Title,
		"source":      rec.Source,
		"status":      rec.Status,
		"wordCount":   rec.WordCount,
		"createdAt":   rec.CreatedAt,
	}
	if rec.ErrorCode != nil {
		item["errorCode"] = *rec.ErrorCode
	}
	return item
}

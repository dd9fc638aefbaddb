package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"leadertalk-backend/internal/shared/server/middleware"
)

func setupUploadsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Auth("dev"))
	api := router.Group("/api/v1")
	RegisterRoutes(api)
	return router
}

func postPresign(t *testing.T, router *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/presign", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestPresignRejectsMissingFileName(t *testing.T) {
	router := setupUploadsRouter()
	resp := postPresign(t, router, map[string]any{
		"contentType": "audio/mpeg",
		"sizeBytes":   1024,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "fileName is required") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestPresignRejectsDisallowedContentType(t *testing.T) {
	router := setupUploadsRouter()
	resp := postPresign(t, router, map[string]any{
		"fileName":    "standup.mp3",
		"contentType": "image/png",
		"sizeBytes":   1024,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "contentType is not allowed") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestPresignRejectsOversizedFile(t *testing.T) {
	router := setupUploadsRouter()
	resp := postPresign(t, router, map[string]any{
		"fileName":    "standup.mp3",
		"contentType": "audio/mpeg",
		"sizeBytes":   maxUploadBytes + 1,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "sizeBytes exceeds limit") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestPresignSignedHeadersExcludeContentLength(t *testing.T) {
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	client := s3.NewFromConfig(cfg)
	presigner := s3.NewPresignClient(client)

	input := presignInput("bucket", "recordings/user/rec-1-standup.mp3")
	out, err := presigner.PresignPutObject(context.Background(), input)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}

	parsed, err := url.Parse(out.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	signed := parsed.Query().Get("X-Amz-SignedHeaders")
	if signed == "" {
		t.Fatalf("expected X-Amz-SignedHeaders")
	}
	if strings.Contains(signed, "content-length") {
		t.Fatalf("unexpected content-length in signed headers: %s", signed)
	}
	if !strings.Contains(signed, "host") {
		t.Fatalf("expected host in signed headers: %s", signed)
	}
}

package transport

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-photo-engine/internal/config"
	"go-photo-engine/internal/engine"
	apperrors "go-photo-engine/internal/errors"
	"go-photo-engine/internal/logger"
	"go-photo-engine/internal/observer"
	"go-photo-engine/internal/storage"
	"go-photo-engine/pkg/models"
)

// ProcessRequest is the JSON body of POST /v1/process. The image arrives
// either inline (base64) or by reference URL.
type ProcessRequest struct {
	ImageURL string   `json:"image_url,omitempty"`
	ImageB64 string   `json:"image_b64,omitempty"`
	Quality  string   `json:"quality,omitempty"`
	Styles   []string `json:"styles" binding:"required"`
}

// PreviewRequest is the JSON body of POST /v1/preview
type PreviewRequest struct {
	ImageURL string `json:"image_url,omitempty"`
	ImageB64 string `json:"image_b64,omitempty"`
	Style    string `json:"style" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler builds the HTTP surface over the processing orchestrator
func NewHandler(orch *engine.Orchestrator, fetcher storage.ImageFetcher, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", metricsSnapshot(metrics))
	r.POST("/v1/process", processImage(orch, fetcher, cfg))
	r.POST("/v1/preview", previewImage(orch, fetcher, cfg))

	return r
}

func processImage(orch *engine.Orchestrator, fetcher storage.ImageFetcher, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing request received")

		var req ProcessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		quality, err := models.ParseQualityLevel(req.Quality)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid quality level", err)
			return
		}

		imageBytes, err := resolveImage(ctx, fetcher, req.ImageURL, req.ImageB64)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to resolve image", err)
			return
		}

		outcome, err := orch.Process(ctx, models.ProcessingRequest{
			Image:   imageBytes,
			Quality: quality,
			Styles:  req.Styles,
		}, nil)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "processing failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         outcome.RequestID,
			"mode":               outcome.Strategy.Mode,
			"results":            len(outcome.Results),
			"partial":            outcome.Partial,
			"from_cache":         outcome.FromCache,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Processing request completed")

		c.JSON(http.StatusOK, outcome)
	}
}

func previewImage(orch *engine.Orchestrator, fetcher storage.ImageFetcher, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req PreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		imageBytes, err := resolveImage(ctx, fetcher, req.ImageURL, req.ImageB64)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to resolve image", err)
			return
		}

		preview, err := orch.GenerateRealTimePreview(ctx, imageBytes, req.Style)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "preview failed", err)
			return
		}

		c.Data(http.StatusOK, "image/png", preview)
	}
}

// resolveImage produces raw image bytes from either an inline payload or
// a reference URL. Exactly one of the two must be supplied.
func resolveImage(ctx context.Context, fetcher storage.ImageFetcher, imageURL, imageB64 string) ([]byte, error) {
	switch {
	case imageB64 != "" && imageURL != "":
		return nil, apperrors.NewValidationError("supply image_url or image_b64, not both", nil)
	case imageB64 != "":
		data, err := base64.StdEncoding.DecodeString(imageB64)
		if err != nil {
			return nil, apperrors.NewInvalidImageError("invalid base64 image payload", err)
		}
		return data, nil
	case imageURL != "":
		if err := validateImageURL(imageURL); err != nil {
			return nil, err
		}
		data, err := fetcher.FetchImage(ctx, imageURL)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apperrors.NewRemoteTimeoutError("image fetch timeout", err)
			}
			return nil, apperrors.NewInvalidImageError("failed to fetch image", err)
		}
		return data, nil
	default:
		return nil, apperrors.NewValidationError("image_url or image_b64 is required", nil)
	}
}

func validateImageURL(imageURL string) error {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	return nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func metricsSnapshot(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}

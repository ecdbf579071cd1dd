package asset

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruxlab/labvault/internal/auth"
)

type signFunc func(ctx context.Context, userID uuid.UUID, testID, fileName string) (SignedURL, error)

// Handler exposes pre-signed asset URL endpoints.
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler constructs an asset Handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the asset endpoints on the given router group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/tests/:testID/files/:fileName/upload-url", h.uploadURL)
	r.GET("/tests/:testID/files/:fileName/download-url", h.downloadURL)
}

func (h *Handler) uploadURL(c *gin.Context) {
	h.sign(c, h.service.UploadURL)
}

func (h *Handler) downloadURL(c *gin.Context) {
	h.sign(c, h.service.DownloadURL)
}

func (h *Handler) sign(c *gin.Context, fn signFunc) {
	caller, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	signed, err := fn(c.Request.Context(), caller.ID, c.Param("testID"), c.Param("fileName"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		case errors.Is(err, ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "no access to test"})
		default:
			h.log.Error("presign failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, signed)
}

package accounting

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the storage usage endpoint under the provided group.
func RegisterRoutes(group *gin.RouterGroup, engine *Engine) {
	handler := &httpHandler{engine: engine}
	group.POST("/storage/usage", handler.calculateUsage)
}

type httpHandler struct {
	engine *Engine
}

type usageRequest struct {
	TestIDs []string `json:"testIds"`
}

func (h *httpHandler) calculateUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report, err := h.engine.CalculateUsage(c.Request.Context(), req.TestIDs)
	if err != nil {
		if errors.Is(err, ErrNoTestIDs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No testIds provided"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

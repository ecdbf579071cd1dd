package study

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts study CRUD under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/studies", handler.listStudies)
	group.GET("/studies/:studyID", handler.getStudy)
	group.PUT("/studies/:studyID", handler.saveStudy)
	group.DELETE("/studies/:studyID", handler.deleteStudy)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) listStudies(c *gin.Context) {
	docs, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list studies"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"studies": docs})
}

func (h *httpHandler) getStudy(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("studyID"))
	if err != nil {
		if errors.Is(err, ErrStudyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "study not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load study"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *httpHandler) saveStudy(c *gin.Context) {
	var st Study
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st.ID = c.Param("studyID")

	saved, err := h.service.Save(c.Request.Context(), st)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save study"})
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *httpHandler) deleteStudy(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("studyID")); err != nil {
		if errors.Is(err, ErrStudyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "study not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete study"})
		return
	}
	c.Status(http.StatusNoContent)
}

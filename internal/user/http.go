package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts user operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/users", handler.listUsers)
	group.GET("/users/:userID", handler.getUser)
	group.GET("/users/:userID/studies", handler.getUserWithStudies)
	group.PATCH("/users/:userID/profile", handler.updateProfile)
	group.PATCH("/users/:userID/level", handler.updateLevel)
	group.DELETE("/users/:userID", handler.deleteUser)
	group.POST("/users/:userID/notifications", handler.addNotification)
	group.POST("/users/:userID/notifications/read", handler.markNotificationRead)
	group.DELETE("/users/:userID/tests/:testID", handler.removeTest)
}

type httpHandler struct {
	service *Service
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *httpHandler) listUsers(c *gin.Context) {
	users, err := h.service.ReadAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *httpHandler) getUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *httpHandler) getUserWithStudies(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	u, err := h.service.GetUserWithStudies(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileRequest struct {
	Username  string `json:"username"`
	ContactNo string `json:"contactNo"`
	Country   string `json:"country"`
}

func (h *httpHandler) updateProfile(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.UpdateProfile(c.Request.Context(), id, ProfileUpdate{
		Username:  req.Username,
		ContactNo: req.ContactNo,
		Country:   req.Country,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	c.Status(http.StatusNoContent)
}

type levelRequest struct {
	AccessLevel int `json:"accessLevel" binding:"min=0"`
}

func (h *httpHandler) updateLevel(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req levelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateLevel(c.Request.Context(), id, req.AccessLevel); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update access level"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) deleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) addNotification(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var n Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.AddNotification(c.Request.Context(), id, n); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add notification"})
		return
	}
	c.Status(http.StatusCreated)
}

type markReadRequest struct {
	CreatedDate int64 `json:"createdDate" binding:"required"`
}

func (h *httpHandler) markNotificationRead(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.MarkNotificationRead(c.Request.Context(), id, req.CreatedDate)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, ErrNotificationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) removeTest(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.service.RemoveTestFromUser(c.Request.Context(), id, c.Param("testID")); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove test"})
		return
	}
	c.Status(http.StatusNoContent)
}

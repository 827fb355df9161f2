package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"example.com/campushub/services/events/internal/api/middleware"
	"example.com/campushub/services/events/internal/repositories"
	"example.com/campushub/services/events/internal/tracing"
)

// inboxPageSize caps one inbox fetch.
const inboxPageSize = 50

// NotificationHandler serves the in-app notification inbox
type NotificationHandler struct {
	notifications *repositories.NotificationRepository
	tracer        tracing.Tracer
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *repositories.NotificationRepository, tracer tracing.Tracer) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		tracer:        tracer,
	}
}

// HandleList returns the user's inbox, newest first
func (h *NotificationHandler) HandleList(c *gin.Context) {
	userID := middleware.UserID(c)

	notifications, err := h.notifications.ListForUser(c.Request.Context(), userID, inboxPageSize)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": notifications})
}

// HandleUnreadCount returns the user's unread notification count
func (h *NotificationHandler) HandleUnreadCount(c *gin.Context) {
	userID := middleware.UserID(c)

	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to count unread notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"unread": count}})
}

// HandleMarkRead marks one notification as read
func (h *NotificationHandler) HandleMarkRead(c *gin.Context) {
	userID := middleware.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid notification ID"})
		return
	}

	rows, err := h.notifications.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to mark notification read")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to mark notification read"})
		return
	}
	if rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleMarkAllRead marks all of the user's notifications as read
func (h *NotificationHandler) HandleMarkAllRead(c *gin.Context) {
	userID := middleware.UserID(c)

	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to mark all notifications read")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to mark notifications read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterRoutes registers the handler's routes
func (h *NotificationHandler) RegisterRoutes(api *gin.RouterGroup) {
	notifications := api.Group("/notifications")
	notifications.GET("", h.HandleList)
	notifications.GET("/unread-count", h.HandleUnreadCount)
	notifications.PATCH("/:id/read", h.HandleMarkRead)
	notifications.POST("/mark-all-read", h.HandleMarkAllRead)
}

package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
)

// GetNotifications lists the caller's notifications, newest first
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var notifications []models.Notification
	err := database.DB.Preload("Sender").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if util.HandleDBError(c, err, "notifications") {
		return
	}

	var unread int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		unread = 0
	}

	util.RespondOK(c, "Notifications retrieved successfully", gin.H{
		"notifications": notifications,
		"unread":        unread,
	})
}

type createNotificationRequest struct {
	UserID  string  `json:"user_id"`
	Type    string  `json:"type"`
	Message string  `json:"message"`
	PostID  *string `json:"post_id"`
}

// CreateNotification sends a notification from the caller to one user
// POST /api/v1/notifications
func (h *Handlers) CreateNotification(c *gin.Context) {
	senderID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", err.Error())
		return
	}

	if req.UserID == "" {
		util.RespondValidationError(c, "user_id", "Recipient is required")
		return
	}
	if !models.ValidNotificationType(req.Type) {
		util.RespondValidationError(c, "type", "Invalid notification type")
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		util.RespondValidationError(c, "message", "Message is required")
		return
	}

	var recipient models.User
	if err := database.DB.First(&recipient, "id = ?", req.UserID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	notification, err := h.notifier.Notify(c.Request.Context(), req.UserID, senderID,
		req.Type, message, req.PostID)
	if err != nil {
		util.RespondInternalError(c, "Failed to create notification")
		return
	}

	util.RespondCreated(c, "Notification created successfully", notification)
}

type broadcastRequest struct {
	Message string `json:"message"`
}

// BroadcastNotification sends an announcement to every user except the
// caller. Admin only. Zero recipients is a success, not an error.
// POST /api/v1/notifications/all
func (h *Handlers) BroadcastNotification(c *gin.Context) {
	senderID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", err.Error())
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		util.RespondValidationError(c, "message", "Message is required")
		return
	}

	notifications, err := h.notifier.Broadcast(c.Request.Context(), senderID, message)
	if err != nil {
		util.RespondInternalError(c, "Failed to broadcast notification")
		return
	}

	util.RespondCreated(c, "Notification broadcast successfully", gin.H{
		"count": len(notifications),
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
// Reads never go back to unread.
// PATCH /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var notification models.Notification
	err := database.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&notification).Error
	if err != nil {
		util.RespondNotFound(c, "notification")
		return
	}

	if !notification.Read {
		if err := database.DB.Model(&notification).Update("read", true).Error; err != nil {
			util.RespondInternalError(c, "Failed to update notification")
			return
		}
		notification.Read = true
	}

	util.RespondOK(c, "Notification marked as read", notification)
}

// MarkAllNotificationsRead marks every unread notification of the caller
// PATCH /api/v1/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to update notifications")
		return
	}

	util.RespondOK(c, "All notifications marked as read", gin.H{
		"updated": result.RowsAffected,
	})
}

// DeleteNotification removes one of the caller's notifications
// DELETE /api/v1/notifications/:id
func (h *Handlers) DeleteNotification(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var notification models.Notification
	err := database.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&notification).Error
	if err != nil {
		util.RespondNotFound(c, "notification")
		return
	}

	if err := database.DB.Delete(&notification).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete notification")
		return
	}

	util.RespondOK(c, "Notification deleted successfully", nil)
}

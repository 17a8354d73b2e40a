package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
	"github.com/minglehq/backend/internal/websocket"
)

type sendMessageRequest struct {
	ReceiverID string             `json:"receiver_id"`
	Content    string             `json:"content"`
	Media      []models.MediaItem `json:"media"`
}

// SendMessage stores a direct message and pushes it to the receiver's
// open connections, along with a message notification.
// POST /api/v1/messages
func (h *Handlers) SendMessage(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", err.Error())
		return
	}

	if req.ReceiverID == "" {
		util.RespondValidationError(c, "receiver_id", "Receiver is required")
		return
	}
	if req.ReceiverID == userID {
		util.RespondValidationError(c, "receiver_id", "You cannot message yourself")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Media) == 0 {
		util.RespondValidationError(c, "content", "Message content is required")
		return
	}
	for _, m := range req.Media {
		if !m.Valid() {
			util.RespondValidationError(c, "media", "Media entries need a url and a kind of image or video")
			return
		}
	}

	var receiver models.User
	if err := database.DB.First(&receiver, "id = ?", req.ReceiverID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	message := models.Message{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		Content:    content,
		Media:      req.Media,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		util.RespondInternalError(c, "Failed to send message")
		return
	}

	if err := database.DB.Preload("Sender").First(&message, "id = ?", message.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload message "+message.ID, err)
	}

	h.dispatcher.SendToUser(req.ReceiverID,
		websocket.NewMessage(websocket.MessageTypeNewMessage, message))

	if _, err := h.notifier.Notify(c.Request.Context(), req.ReceiverID, userID,
		models.NotificationMessage, "sent you a message", nil); err != nil {
		logger.ErrorWithFields("Failed to send message notification", err)
	}

	util.RespondCreated(c, "Message sent successfully", message)
}

// GetConversation returns the full message history between the caller and
// another user, both directions, oldest first.
// GET /api/v1/messages/:id
func (h *Handlers) GetConversation(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	otherID := c.Param("id")

	var other models.User
	if err := database.DB.First(&other, "id = ?", otherID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var messages []models.Message
	err := database.DB.Preload("Sender").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if util.HandleDBError(c, err, "messages") {
		return
	}

	util.RespondOK(c, "Messages retrieved successfully", messages)
}

// MarkMessageRead marks a message as read. Only the receiver may do this.
// PATCH /api/v1/messages/:id/read
func (h *Handlers) MarkMessageRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var message models.Message
	if err := database.DB.First(&message, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "message")
		return
	}

	if message.ReceiverID != userID {
		util.RespondForbidden(c, "Only the receiver can mark a message as read")
		return
	}

	if !message.Read {
		if err := database.DB.Model(&message).Update("read", true).Error; err != nil {
			util.RespondInternalError(c, "Failed to update message")
			return
		}
		message.Read = true
	}

	util.RespondOK(c, "Message marked as read", message)
}

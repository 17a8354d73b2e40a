package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
	"github.com/minglehq/backend/internal/websocket"
	"gorm.io/gorm"
)

type createCommentRequest struct {
	Text string `json:"text"`
}

// CreateComment adds a comment to a post, notifies the post author, and
// broadcasts the comment to connected clients.
// POST /api/v1/posts/:id/comment
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", err.Error())
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		util.RespondValidationError(c, "text", "Comment text is required")
		return
	}

	comment := models.Comment{
		PostID: postID,
		UserID: userID,
		Text:   text,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&post).
		UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for post "+postID, err)
	}

	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload comment "+comment.ID, err)
	}

	if post.AuthorID != userID {
		if _, err := h.notifier.Notify(c.Request.Context(), post.AuthorID, userID,
			models.NotificationComment, "commented on your post", &postID); err != nil {
			logger.ErrorWithFields("Failed to send comment notification", err)
		}
	}

	mentioned, err := h.resolveMentions(nil, text, userID)
	if err != nil {
		logger.WarnWithFields("Failed to resolve mentions in comment "+comment.ID, err)
	}
	if len(mentioned) > 0 {
		if _, err := h.notifier.NotifyMany(c.Request.Context(), mentioned, userID,
			models.NotificationMention, "mentioned you in a comment", &postID); err != nil {
			logger.ErrorWithFields("Failed to send mention notifications", err)
		}
	}

	h.dispatcher.Broadcast(websocket.NewMessage(websocket.MessageTypeNewComment,
		websocket.CommentPayload{PostID: postID, Comment: comment}))

	util.RespondCreated(c, "Comment created successfully", comment)
}

// DeleteComment removes a comment. Allowed for the comment's author or the
// post's author; anyone else gets a 403 and the comment stays.
// DELETE /api/v1/posts/:id/comment/:commentId
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	commentID := c.Param("commentId")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var comment models.Comment
	if err := database.DB.Where("id = ? AND post_id = ?", commentID, postID).
		First(&comment).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	if comment.UserID != userID && post.AuthorID != userID {
		util.RespondForbidden(c, "Only the comment author or the post author can delete this comment")
		return
	}

	if err := database.DB.Delete(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	if err := database.DB.Model(&post).
		UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement comment count for post "+postID, err)
	}

	h.dispatcher.Broadcast(websocket.NewMessage(websocket.MessageTypeDeleteComment,
		websocket.DeleteCommentPayload{PostID: postID, CommentID: commentID}))

	util.RespondOK(c, "Comment deleted successfully", nil)
}

package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/cache"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
	"github.com/minglehq/backend/internal/websocket"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type createPostRequest struct {
	Content    string             `json:"content"`
	Media      []models.MediaItem `json:"media"`
	Tags       []string           `json:"tags"`
	Mentions   []string           `json:"mentions"`
	Visibility string             `json:"visibility"`
}

// CreatePost creates a new post, fans out mention notifications in one
// batch, and broadcasts the post to all connected clients.
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", err.Error())
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		util.RespondValidationError(c, "content", "Content is required")
		return
	}

	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}
	if !models.ValidVisibility(req.Visibility) {
		util.RespondValidationError(c, "visibility", "Invalid visibility value")
		return
	}

	for _, m := range req.Media {
		if !m.Valid() {
			util.RespondValidationError(c, "media", "Media entries need a url and a kind of image or video")
			return
		}
	}

	post := models.Post{
		AuthorID:   userID,
		Content:    content,
		Media:      req.Media,
		Visibility: req.Visibility,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	if err := h.applyTags(post.ID, req.Tags); err != nil {
		logger.WarnWithFields("Failed to store tags for post "+post.ID, err)
	}
	if len(req.Tags) > 0 {
		h.invalidateTopTags(c.Request.Context())
	}

	mentioned, err := h.resolveMentions(req.Mentions, content, userID)
	if err != nil {
		logger.WarnWithFields("Failed to resolve mentions for post "+post.ID, err)
	}
	if len(mentioned) > 0 {
		if err := h.recordMentions(post.ID, mentioned); err != nil {
			logger.WarnWithFields("Failed to store mentions for post "+post.ID, err)
		}
		// One batched fan-out call for all mentioned users
		if _, err := h.notifier.NotifyMany(c.Request.Context(), mentioned, userID,
			models.NotificationMention, "mentioned you in a post", &post.ID); err != nil {
			logger.ErrorWithFields("Failed to send mention notifications", err)
		}
	}

	if err := database.DB.Preload("Author").First(&post, "id = ?", post.ID).Error; err != nil {
		logger.WarnWithFields("Failed to reload post "+post.ID, err)
	}

	h.dispatcher.Broadcast(websocket.NewMessage(websocket.MessageTypeNewPost, post))

	util.RespondCreated(c, "Post created successfully", post)
}

// GetPosts returns the feed, newest first, limited to what the caller may
// see: public posts, their own, and followers-only posts from followed
// authors.
// GET /api/v1/posts
func (h *Handlers) GetPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var posts []models.Post
	err := visibleToUser(database.DB, userID).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if util.HandleDBError(c, err, "posts") {
		return
	}

	util.RespondOK(c, "Posts retrieved successfully", posts)
}

// postDetail is the single-post read model, assembled from the post row
// and its dependent tables.
type postDetail struct {
	models.Post
	Likes    []string         `json:"likes"`
	Comments []models.Comment `json:"comments"`
	Mentions []models.Profile `json:"mentions"`
	Tags     []string         `json:"tags"`
}

// GetPost returns one post with likes, comments, mentions, and tags.
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.Preload("Author").First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	if !h.canViewPost(&post, userID, util.GetRoleFromContext(c)) {
		util.RespondForbidden(c, "You cannot view this post")
		return
	}

	detail := postDetail{Post: post}

	if err := database.DB.Model(&models.PostLike{}).
		Where("post_id = ?", postID).
		Pluck("user_id", &detail.Likes).Error; err != nil {
		logger.WarnWithFields("Failed to load likes for post "+postID, err)
	}

	if err := database.DB.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&detail.Comments).Error; err != nil {
		logger.WarnWithFields("Failed to load comments for post "+postID, err)
	}

	var mentions []models.PostMention
	if err := database.DB.Preload("User").
		Where("post_id = ?", postID).
		Find(&mentions).Error; err != nil {
		logger.WarnWithFields("Failed to load mentions for post "+postID, err)
	}
	for _, m := range mentions {
		detail.Mentions = append(detail.Mentions, m.User.PublicProfile())
	}

	detail.Tags = h.tagsForPost(postID)

	util.RespondOK(c, "Post retrieved successfully", detail)
}

type updatePostRequest struct {
	Content    *string            `json:"content"`
	Visibility *string            `json:"visibility"`
	Tags       *[]string          `json:"tags"`
	Media      []models.MediaItem `json:"media"`
}

// UpdatePost updates a post's content, visibility, or tags. Media in the
// request is appended to the existing set, never replaced.
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
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
	if post.AuthorID != userID {
		util.RespondForbidden(c, "Only the author can update this post")
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", err.Error())
		return
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			util.RespondValidationError(c, "content", "Content cannot be empty")
			return
		}
		post.Content = content
	}

	if req.Visibility != nil {
		if !models.ValidVisibility(*req.Visibility) {
			util.RespondValidationError(c, "visibility", "Invalid visibility value")
			return
		}
		post.Visibility = *req.Visibility
	}

	for _, m := range req.Media {
		if !m.Valid() {
			util.RespondValidationError(c, "media", "Media entries need a url and a kind of image or video")
			return
		}
	}
	if len(req.Media) > 0 {
		post.Media = append(post.Media, req.Media...)
	}

	if err := database.DB.Save(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to update post")
		return
	}

	if req.Tags != nil {
		if err := database.DB.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
			logger.WarnWithFields("Failed to clear tags for post "+postID, err)
		}
		if err := h.applyTags(postID, *req.Tags); err != nil {
			logger.WarnWithFields("Failed to store tags for post "+postID, err)
		}
		h.invalidateTopTags(c.Request.Context())
	}

	if err := database.DB.Preload("Author").First(&post, "id = ?", postID).Error; err != nil {
		logger.WarnWithFields("Failed to reload post "+postID, err)
	}

	h.dispatcher.Broadcast(websocket.NewMessage(websocket.MessageTypeUpdatePost, post))

	util.RespondOK(c, "Post updated successfully", post)
}

// DeletePost removes a post and its dependent rows. Allowed for the author
// or an admin. Deletion is physical, not a soft delete.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	role := util.GetRoleFromContext(c)

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.AuthorID != userID && role != models.RoleAdmin {
		util.RespondForbidden(c, "Only the author or an admin can delete this post")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to delete post")
		return
	}

	h.invalidateTopTags(c.Request.Context())
	h.dispatcher.Broadcast(websocket.NewMessage(websocket.MessageTypeDeletePost,
		websocket.DeletePostPayload{ID: postID}))

	util.RespondOK(c, "Post deleted successfully", nil)
}

// ToggleLike adds or removes the caller's like. Set semantics are enforced
// by the unique index, so retries and races cannot create duplicates.
// POST /api/v1/posts/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
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

	var existing models.PostLike
	err := database.DB.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error

	if err == nil {
		// Already liked: remove
		if err := database.DB.Delete(&existing).Error; err != nil {
			util.RespondInternalError(c, "Failed to remove like")
			return
		}
		if err := database.DB.Model(&post).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement like count for post "+postID, err)
		}

		h.dispatcher.Broadcast(websocket.NewMessage(websocket.MessageTypeUnlikePost,
			websocket.LikePayload{PostID: postID, UserID: userID}))

		util.RespondOK(c, "Post unliked successfully", gin.H{"liked": false, "post_id": postID})
		return
	}

	like := models.PostLike{PostID: postID, UserID: userID}
	result := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to like post")
		return
	}

	if result.RowsAffected > 0 {
		if err := database.DB.Model(&post).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			logger.WarnWithFields("Failed to increment like count for post "+postID, err)
		}

		if post.AuthorID != userID {
			if _, err := h.notifier.Notify(c.Request.Context(), post.AuthorID, userID,
				models.NotificationLike, "liked your post", &postID); err != nil {
				logger.ErrorWithFields("Failed to send like notification", err)
			}
		}
	}

	h.dispatcher.Broadcast(websocket.NewMessage(websocket.MessageTypeLikePost,
		websocket.LikePayload{PostID: postID, UserID: userID}))

	util.RespondOK(c, "Post liked successfully", gin.H{"liked": true, "post_id": postID})
}

// SearchPosts does a case-insensitive substring match over post content
// and tag names.
// GET /api/v1/posts/search?query=
func (h *Handlers) SearchPosts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		util.RespondValidationError(c, "query", "Search query is required")
		return
	}
	pattern := "%" + strings.ToLower(query) + "%"

	var posts []models.Post
	err := visibleToUser(database.DB, userID).
		Distinct("posts.*").
		Joins("LEFT JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("LEFT JOIN tags ON tags.id = post_tags.tag_id").
		Where("LOWER(posts.content) LIKE ? OR tags.name LIKE ?", pattern, pattern).
		Preload("Author").
		Order("posts.created_at DESC").
		Limit(50).
		Find(&posts).Error
	if util.HandleDBError(c, err, "posts") {
		return
	}

	util.RespondOK(c, "Search results retrieved successfully", posts)
}

// tagCount is one row of the top-tags aggregate
type tagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

const topTagsCacheKey = "posts:top-tags"

// TopTags returns the five most used tags. The aggregate is cached in
// Redis for a minute when Redis is configured.
// GET /api/v1/posts/top-tags
func (h *Handlers) TopTags(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	if cached, ok := h.cachedTopTags(c.Request.Context()); ok {
		util.RespondOK(c, "Top tags retrieved successfully", cached)
		return
	}

	var results []tagCount
	err := database.DB.Model(&models.PostTag{}).
		Select("tags.name AS name, COUNT(post_tags.id) AS count").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Group("tags.name").
		Order("count DESC").
		Limit(5).
		Scan(&results).Error
	if util.HandleDBError(c, err, "tags") {
		return
	}

	h.storeTopTags(c.Request.Context(), results)

	util.RespondOK(c, "Top tags retrieved successfully", results)
}

func (h *Handlers) cachedTopTags(ctx context.Context) ([]tagCount, bool) {
	rc := cache.GetRedisClient()
	if rc == nil {
		return nil, false
	}
	raw, err := rc.Get(ctx, topTagsCacheKey)
	if err != nil {
		return nil, false
	}
	var results []tagCount
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, false
	}
	return results, true
}

func (h *Handlers) storeTopTags(ctx context.Context, results []tagCount) {
	rc := cache.GetRedisClient()
	if rc == nil {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := rc.SetEx(ctx, topTagsCacheKey, string(data), time.Minute); err != nil {
		logger.WarnWithFields("Failed to cache top tags", err)
	}
}

// invalidateTopTags drops the cached aggregate after tag links change
func (h *Handlers) invalidateTopTags(ctx context.Context) {
	rc := cache.GetRedisClient()
	if rc == nil {
		return
	}
	if err := rc.Del(ctx, topTagsCacheKey); err != nil {
		logger.WarnWithFields("Failed to invalidate top tags cache", err)
	}
}

// visibleToUser scopes a posts query to what userID is allowed to see
func visibleToUser(db *gorm.DB, userID string) *gorm.DB {
	following := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Follow{}).
		Select("followee_id").
		Where("follower_id = ?", userID)

	return db.Model(&models.Post{}).Where(
		"posts.visibility = ? OR posts.author_id = ? OR (posts.visibility = ? AND posts.author_id IN (?))",
		models.VisibilityPublic, userID, models.VisibilityFollowersOnly, following,
	)
}

// canViewPost checks single-post visibility for a caller
func (h *Handlers) canViewPost(post *models.Post, userID, role string) bool {
	if post.AuthorID == userID || role == models.RoleAdmin {
		return true
	}
	switch post.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityFollowersOnly:
		var count int64
		database.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", userID, post.AuthorID).
			Count(&count)
		return count > 0
	default:
		return false
	}
}

// applyTags normalizes tag names and links them to the post
func (h *Handlers) applyTags(postID string, tags []string) error {
	for _, name := range util.NormalizeTags(tags) {
		var tag models.Tag
		if err := database.DB.Where("name = ?", name).
			FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return err
		}
		link := models.PostTag{PostID: postID, TagID: tag.ID}
		if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

// tagsForPost returns the tag names linked to a post
func (h *Handlers) tagsForPost(postID string) []string {
	var names []string
	if err := database.DB.Model(&models.PostTag{}).
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("post_tags.post_id = ?", postID).
		Pluck("tags.name", &names).Error; err != nil {
		logger.WarnWithFields("Failed to load tags for post "+postID, err)
	}
	return names
}

// resolveMentions turns the request's mention list plus @mentions scanned
// from the content into existing user ids, excluding the author.
func (h *Handlers) resolveMentions(requested []string, content, authorID string) ([]string, error) {
	usernames := util.ExtractMentions(content)

	ids := make([]string, 0, len(requested))
	for _, m := range requested {
		m = strings.TrimSpace(m)
		if m != "" {
			ids = append(ids, m)
		}
	}

	if len(ids) == 0 && len(usernames) == 0 {
		return nil, nil
	}

	q := database.DB.Model(&models.User{})
	switch {
	case len(ids) > 0 && len(usernames) > 0:
		q = q.Where("id IN ? OR LOWER(username) IN ?", ids, usernames)
	case len(ids) > 0:
		q = q.Where("id IN ?", ids)
	default:
		q = q.Where("LOWER(username) IN ?", usernames)
	}

	var userIDs []string
	if err := q.Where("id <> ?", authorID).Pluck("id", &userIDs).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

// recordMentions stores the mention links for a post
func (h *Handlers) recordMentions(postID string, userIDs []string) error {
	for _, uid := range userIDs {
		mention := models.PostMention{PostID: postID, UserID: uid}
		if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&mention).Error; err != nil {
			return err
		}
	}
	return nil
}

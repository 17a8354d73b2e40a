package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
	"gorm.io/gorm/clause"
)

// FollowUser toggles the follow edge from the caller to :id. Creating the
// edge notifies the followed user once; removing it is silent.
// POST /api/v1/users/follow/:id
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if targetID == userID {
		util.RespondValidationError(c, "id", "You cannot follow yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var existing models.Follow
	err := database.DB.Where("follower_id = ? AND followee_id = ?", userID, targetID).
		First(&existing).Error

	if err == nil {
		if err := database.DB.Delete(&existing).Error; err != nil {
			util.RespondInternalError(c, "Failed to unfollow user")
			return
		}
		util.RespondOK(c, "User unfollowed successfully", gin.H{"following": false, "user_id": targetID})
		return
	}

	follow := models.Follow{FollowerID: userID, FolloweeID: targetID}
	result := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
	if result.Error != nil {
		util.RespondInternalError(c, "Failed to follow user")
		return
	}

	// Notify only when the edge was actually created, so a racing retry
	// cannot produce a second notification
	if result.RowsAffected > 0 {
		if _, err := h.notifier.Notify(c.Request.Context(), targetID, userID,
			models.NotificationFollow, "started following you", nil); err != nil {
			logger.ErrorWithFields("Failed to send follow notification", err)
		}
	}

	util.RespondOK(c, "User followed successfully", gin.H{"following": true, "user_id": targetID})
}

// GetFriends returns users the caller mutually follows. Friendship is
// derived from the follow edges, never stored.
// GET /api/v1/users/friends
func (h *Handlers) GetFriends(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	friends, err := friendsOf(userID)
	if util.HandleDBError(c, err, "friends") {
		return
	}

	util.RespondOK(c, "Friends retrieved successfully", friends)
}

// GetFollowers lists the users following :id
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	targetID := c.Param("id")

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var users []models.User
	err := database.DB.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", targetID).
		Order("users.username ASC").
		Find(&users).Error
	if util.HandleDBError(c, err, "followers") {
		return
	}

	util.RespondOK(c, "Followers retrieved successfully", toProfiles(users))
}

// GetFollowing lists the users :id follows
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	targetID := c.Param("id")

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var users []models.User
	err := database.DB.
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", targetID).
		Order("users.username ASC").
		Find(&users).Error
	if util.HandleDBError(c, err, "following") {
		return
	}

	util.RespondOK(c, "Following retrieved successfully", toProfiles(users))
}

// friendsOf resolves mutual follows for a user into public profiles
func friendsOf(userID string) ([]models.Profile, error) {
	var users []models.User
	err := database.DB.
		Joins("JOIN follows outbound ON outbound.followee_id = users.id AND outbound.follower_id = ?", userID).
		Joins("JOIN follows inbound ON inbound.follower_id = users.id AND inbound.followee_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return toProfiles(users), nil
}

func toProfiles(users []models.User) []models.Profile {
	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.PublicProfile())
	}
	return profiles
}

package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
	"gorm.io/gorm"
)

// GetMe returns the caller's own record plus their derived friends list
// GET /api/v1/users/me
func (h *Handlers) GetMe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	friends, err := friendsOf(userID)
	if err != nil {
		logger.WarnWithFields("Failed to load friends for user "+userID, err)
		friends = []models.Profile{}
	}

	util.RespondOK(c, "User retrieved successfully", gin.H{
		"user":    user,
		"friends": friends,
	})
}

// GetUser returns a user's public profile by id
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	util.RespondOK(c, "User retrieved successfully", user.PublicProfile())
}

// GetUserByUsername returns a user's public profile by username,
// matched case-insensitively
// GET /api/v1/users/user/:username
func (h *Handlers) GetUserByUsername(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	username := strings.ToLower(strings.TrimSpace(c.Param("username")))

	var user models.User
	if err := database.DB.Where("LOWER(username) = ?", username).First(&user).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	util.RespondOK(c, "User retrieved successfully", user.PublicProfile())
}

// SearchUsers matches username, display name, and email by
// case-insensitive substring, capped at ten results
// GET /api/v1/users/search?query=
func (h *Handlers) SearchUsers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		util.RespondValidationError(c, "query", "Search query is required")
		return
	}
	pattern := "%" + strings.ToLower(query) + "%"

	var users []models.User
	err := database.DB.
		Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern).
		Order("username ASC").
		Limit(10).
		Find(&users).Error
	if util.HandleDBError(c, err, "users") {
		return
	}

	util.RespondOK(c, "Users retrieved successfully", toProfiles(users))
}

type updateUserRequest struct {
	Username          *string `json:"username"`
	Email             *string `json:"email"`
	DisplayName       *string `json:"display_name"`
	Bio               *string `json:"bio"`
	ProfilePicture    *string `json:"profile_picture"`
	ProfileBackground *string `json:"profile_background"`
}

// UpdateUser updates the caller's own profile. Username and email
// collisions surface as DUPLICATE_VALUE via the unique indexes rather
// than a racy pre-check.
// PUT /api/v1/users
func (h *Handlers) UpdateUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", err.Error())
		return
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if len(username) < 3 || len(username) > 30 {
			util.RespondValidationError(c, "username", "Username must be between 3 and 30 characters")
			return
		}
		user.Username = username
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.Contains(email, "@") {
			util.RespondValidationError(c, "email", "Invalid email address")
			return
		}
		user.Email = email
	}
	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.ProfileBackground != nil {
		user.ProfileBackground = *req.ProfileBackground
	}

	if err := database.DB.Save(&user).Error; err != nil {
		util.HandleDBError(c, err, "user")
		return
	}

	util.RespondOK(c, "User updated successfully", user)
}

// DeleteUser removes a user account along with their posts, comments,
// likes, follows, notifications, and messages. Users may delete
// themselves; admins may delete anyone.
// DELETE /api/v1/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")
	role := util.GetRoleFromContext(c)

	if targetID != userID && role != models.RoleAdmin {
		util.RespondForbidden(c, "You can only delete your own account")
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var postIDs []string
		if err := tx.Model(&models.Post{}).Where("author_id = ?", targetID).
			Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			for _, dep := range []interface{}{
				&models.PostLike{}, &models.Comment{}, &models.PostMention{}, &models.PostTag{},
			} {
				if err := tx.Where("post_id IN ?", postIDs).Delete(dep).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", targetID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", targetID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", targetID).Delete(&models.PostMention{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", targetID, targetID).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR sender_id = ?", targetID, targetID).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR receiver_id = ?", targetID, targetID).
			Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		util.RespondInternalError(c, "Failed to delete user")
		return
	}

	util.RespondOK(c, "User deleted successfully", nil)
}

// ListUsers returns every account, admin only
// GET /api/v1/users
func (h *Handlers) ListUsers(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	limit, offset := util.ParsePagination(c.Query("limit"), c.Query("offset"))

	var users []models.User
	err := database.DB.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if util.HandleDBError(c, err, "users") {
		return
	}

	util.RespondOK(c, "Users retrieved successfully", users)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/minglehq/backend/internal/database"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/notify"
	"github.com/minglehq/backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Initialize("error", ""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// recordingDispatcher captures real-time events instead of delivering them
type recordingDispatcher struct {
	mu         sync.Mutex
	broadcasts []*websocket.Message
	unicasts   map[string][]*websocket.Message
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{unicasts: make(map[string][]*websocket.Message)}
}

func (r *recordingDispatcher) Broadcast(message *websocket.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, message)
}

func (r *recordingDispatcher) SendToUser(userID string, message *websocket.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unicasts[userID] = append(r.unicasts[userID], message)
}

func (r *recordingDispatcher) broadcastTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.broadcasts))
	for _, m := range r.broadcasts {
		types = append(types, m.Type)
	}
	return types
}

type HandlersTestSuite struct {
	suite.Suite
	db         *gorm.DB
	router     *gin.Engine
	dispatcher *recordingDispatcher

	alice models.User
	bob   models.User
	carol models.User
	admin models.User
}

func (s *HandlersTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.PostLike{},
		&models.PostMention{},
		&models.Tag{},
		&models.PostTag{},
		&models.Comment{},
		&models.Notification{},
		&models.Message{},
	))

	s.db = db
	database.DB = db
}

func (s *HandlersTestSuite) SetupTest() {
	for _, table := range []string{
		"messages", "notifications", "post_likes", "post_mentions",
		"post_tags", "tags", "comments", "posts", "follows", "users",
	} {
		require.NoError(s.T(), s.db.Exec("DELETE FROM "+table).Error)
	}

	s.alice = s.createUser("alice", "alice@example.com", models.RoleUser)
	s.bob = s.createUser("bob", "bob@example.com", models.RoleUser)
	s.carol = s.createUser("carol", "carol@example.com", models.RoleUser)
	s.admin = s.createUser("root", "root@example.com", models.RoleAdmin)

	s.dispatcher = newRecordingDispatcher()
	notifier := notify.NewService(s.db, s.dispatcher)
	h := NewHandlers(s.dispatcher, notifier)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		role := c.GetHeader("X-User-Role")
		if role == "" {
			role = models.RoleUser
		}
		c.Set("role", role)
		c.Next()
	})

	api := router.Group("/api/v1")
	posts := api.Group("/posts")
	posts.POST("", h.CreatePost)
	posts.GET("", h.GetPosts)
	posts.GET("/search", h.SearchPosts)
	posts.GET("/top-tags", h.TopTags)
	posts.GET("/:id", h.GetPost)
	posts.PUT("/:id", h.UpdatePost)
	posts.DELETE("/:id", h.DeletePost)
	posts.POST("/:id/like", h.ToggleLike)
	posts.POST("/:id/comment", h.CreateComment)
	posts.DELETE("/:id/comment/:commentId", h.DeleteComment)

	users := api.Group("/users")
	users.PUT("", h.UpdateUser)
	users.GET("/me", h.GetMe)
	users.GET("/friends", h.GetFriends)
	users.GET("/search", h.SearchUsers)
	users.GET("/user/:username", h.GetUserByUsername)
	users.POST("/follow/:id", h.FollowUser)
	users.GET("/:id", h.GetUser)
	users.GET("/:id/followers", h.GetFollowers)
	users.GET("/:id/following", h.GetFollowing)
	users.DELETE("/:id", h.DeleteUser)

	notifications := api.Group("/notifications")
	notifications.GET("", h.GetNotifications)
	notifications.POST("", h.CreateNotification)
	notifications.POST("/all", h.BroadcastNotification)
	notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
	notifications.PATCH("/:id/read", h.MarkNotificationRead)
	notifications.DELETE("/:id", h.DeleteNotification)

	messages := api.Group("/messages")
	messages.POST("", h.SendMessage)
	messages.GET("/:id", h.GetConversation)
	messages.PATCH("/:id/read", h.MarkMessageRead)

	s.router = router
}

func (s *HandlersTestSuite) createUser(username, email, role string) models.User {
	user := models.User{
		Username:    username,
		Email:       email,
		DisplayName: username,
		Role:        role,
	}
	require.NoError(s.T(), s.db.Create(&user).Error)
	return user
}

func (s *HandlersTestSuite) request(method, path string, body interface{}, as models.User) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", as.ID)
	req.Header.Set("X-User-Role", as.Role)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var envelope map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func (s *HandlersTestSuite) createPost(author models.User, content string, visibility string) models.Post {
	post := models.Post{AuthorID: author.ID, Content: content, Visibility: visibility}
	require.NoError(s.T(), s.db.Create(&post).Error)
	return post
}

// Posts

func (s *HandlersTestSuite) TestCreatePost() {
	w := s.request(http.MethodPost, "/api/v1/posts", gin.H{
		"content": "hello world #golang",
		"tags":    []string{"golang", "#Testing"},
	}, s.alice)

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var count int64
	s.db.Model(&models.Post{}).Where("author_id = ?", s.alice.ID).Count(&count)
	assert.Equal(s.T(), int64(1), count)

	var tagCount int64
	s.db.Model(&models.Tag{}).Count(&tagCount)
	assert.Equal(s.T(), int64(2), tagCount)

	assert.Contains(s.T(), s.dispatcher.broadcastTypes(), websocket.MessageTypeNewPost)
}

func (s *HandlersTestSuite) TestCreatePostRejectsEmptyContent() {
	w := s.request(http.MethodPost, "/api/v1/posts", gin.H{"content": "   "}, s.alice)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	envelope := s.decode(w)
	assert.Equal(s.T(), "VALIDATION_ERROR", envelope["error"])
}

func (s *HandlersTestSuite) TestCreatePostWithMentionNotifies() {
	w := s.request(http.MethodPost, "/api/v1/posts", gin.H{
		"content": "shoutout to @bob for the help",
	}, s.alice)

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var notifications []models.Notification
	s.db.Where("user_id = ?", s.bob.ID).Find(&notifications)
	require.Len(s.T(), notifications, 1)
	assert.Equal(s.T(), models.NotificationMention, notifications[0].Type)
	assert.Equal(s.T(), s.alice.ID, notifications[0].SenderID)

	var mentions int64
	s.db.Model(&models.PostMention{}).Where("user_id = ?", s.bob.ID).Count(&mentions)
	assert.Equal(s.T(), int64(1), mentions)
}

func (s *HandlersTestSuite) TestUpdatePostAppendsMedia() {
	post := s.createPost(s.alice, "original", models.VisibilityPublic)
	post.Media = []models.MediaItem{
		{URL: "https://cdn.example.com/a.png", Kind: models.MediaImage},
	}
	require.NoError(s.T(), s.db.Save(&post).Error)

	w := s.request(http.MethodPut, "/api/v1/posts/"+post.ID, gin.H{
		"media": []gin.H{{"url": "https://cdn.example.com/b.mp4", "kind": "video"}},
	}, s.alice)

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var updated models.Post
	require.NoError(s.T(), s.db.First(&updated, "id = ?", post.ID).Error)
	assert.Len(s.T(), updated.Media, 2)
}

func (s *HandlersTestSuite) TestUpdatePostForbiddenForOthers() {
	post := s.createPost(s.alice, "mine", models.VisibilityPublic)

	w := s.request(http.MethodPut, "/api/v1/posts/"+post.ID, gin.H{
		"content": "hijacked",
	}, s.bob)

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *HandlersTestSuite) TestDeletePostByAdmin() {
	post := s.createPost(s.alice, "to be removed", models.VisibilityPublic)

	w := s.request(http.MethodDelete, "/api/v1/posts/"+post.ID, nil, s.admin)

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var count int64
	s.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	assert.Equal(s.T(), int64(0), count)
}

func (s *HandlersTestSuite) TestPrivatePostHiddenFromStrangers() {
	post := s.createPost(s.alice, "secret", models.VisibilityPrivate)

	w := s.request(http.MethodGet, "/api/v1/posts/"+post.ID, nil, s.bob)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.request(http.MethodGet, "/api/v1/posts/"+post.ID, nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestFollowersOnlyPostVisibleToFollowers() {
	post := s.createPost(s.alice, "for followers", models.VisibilityFollowersOnly)

	w := s.request(http.MethodGet, "/api/v1/posts/"+post.ID, nil, s.bob)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	require.NoError(s.T(), s.db.Create(&models.Follow{
		FollowerID: s.bob.ID, FolloweeID: s.alice.ID,
	}).Error)

	w = s.request(http.MethodGet, "/api/v1/posts/"+post.ID, nil, s.bob)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestFeedRespectsVisibility() {
	s.createPost(s.alice, "public one", models.VisibilityPublic)
	s.createPost(s.alice, "private one", models.VisibilityPrivate)
	s.createPost(s.bob, "bob private", models.VisibilityPrivate)

	w := s.request(http.MethodGet, "/api/v1/posts", nil, s.bob)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	envelope := s.decode(w)
	data := envelope["data"].([]interface{})
	// public post from alice plus bob's own private post
	assert.Len(s.T(), data, 2)
}

// Likes

func (s *HandlersTestSuite) TestLikeToggle() {
	post := s.createPost(s.alice, "like me", models.VisibilityPublic)

	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", nil, s.bob)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	var likes int64
	s.db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likes)
	assert.Equal(s.T(), int64(1), likes)

	var reloaded models.Post
	require.NoError(s.T(), s.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(s.T(), 1, reloaded.LikeCount)

	// author gets exactly one like notification
	var notifCount int64
	s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", s.alice.ID, models.NotificationLike).
		Count(&notifCount)
	assert.Equal(s.T(), int64(1), notifCount)

	// second call unlikes
	w = s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", nil, s.bob)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	s.db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likes)
	assert.Equal(s.T(), int64(0), likes)

	require.NoError(s.T(), s.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(s.T(), 0, reloaded.LikeCount)
}

func (s *HandlersTestSuite) TestLikeOwnPostDoesNotNotify() {
	post := s.createPost(s.alice, "self like", models.VisibilityPublic)

	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/like", nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	var notifCount int64
	s.db.Model(&models.Notification{}).Count(&notifCount)
	assert.Equal(s.T(), int64(0), notifCount)
}

// Comments

func (s *HandlersTestSuite) TestCreateCommentNotifiesAuthor() {
	post := s.createPost(s.alice, "discuss", models.VisibilityPublic)

	w := s.request(http.MethodPost, "/api/v1/posts/"+post.ID+"/comment", gin.H{
		"text": "great point",
	}, s.bob)

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var reloaded models.Post
	require.NoError(s.T(), s.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(s.T(), 1, reloaded.CommentCount)

	var notifications []models.Notification
	s.db.Where("user_id = ?", s.alice.ID).Find(&notifications)
	require.Len(s.T(), notifications, 1)
	assert.Equal(s.T(), models.NotificationComment, notifications[0].Type)

	assert.Contains(s.T(), s.dispatcher.broadcastTypes(), websocket.MessageTypeNewComment)
}

func (s *HandlersTestSuite) TestDeleteCommentAuthorization() {
	post := s.createPost(s.alice, "thread", models.VisibilityPublic)
	comment := models.Comment{PostID: post.ID, UserID: s.bob.ID, Text: "mine"}
	require.NoError(s.T(), s.db.Create(&comment).Error)

	// carol is neither the comment author nor the post author
	w := s.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/comment/"+comment.ID, nil, s.carol)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	var count int64
	s.db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count)
	assert.Equal(s.T(), int64(1), count)

	// the post author may delete it
	w = s.request(http.MethodDelete, "/api/v1/posts/"+post.ID+"/comment/"+comment.ID, nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	s.db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count)
	assert.Equal(s.T(), int64(0), count)
}

// Follows and friends

func (s *HandlersTestSuite) TestFollowToggleNotifiesOnce() {
	w := s.request(http.MethodPost, "/api/v1/users/follow/"+s.bob.ID, nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	var follows int64
	s.db.Model(&models.Follow{}).Count(&follows)
	assert.Equal(s.T(), int64(1), follows)

	var notifCount int64
	s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", s.bob.ID, models.NotificationFollow).
		Count(&notifCount)
	assert.Equal(s.T(), int64(1), notifCount)

	// toggling again unfollows, silently
	w = s.request(http.MethodPost, "/api/v1/users/follow/"+s.bob.ID, nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	s.db.Model(&models.Follow{}).Count(&follows)
	assert.Equal(s.T(), int64(0), follows)

	s.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", s.bob.ID, models.NotificationFollow).
		Count(&notifCount)
	assert.Equal(s.T(), int64(1), notifCount)
}

func (s *HandlersTestSuite) TestSelfFollowRejected() {
	w := s.request(http.MethodPost, "/api/v1/users/follow/"+s.alice.ID, nil, s.alice)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestFriendsAreMutualFollows() {
	require.NoError(s.T(), s.db.Create(&models.Follow{FollowerID: s.alice.ID, FolloweeID: s.bob.ID}).Error)
	require.NoError(s.T(), s.db.Create(&models.Follow{FollowerID: s.bob.ID, FolloweeID: s.alice.ID}).Error)
	// carol follows alice one way only
	require.NoError(s.T(), s.db.Create(&models.Follow{FollowerID: s.carol.ID, FolloweeID: s.alice.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/users/friends", nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	envelope := s.decode(w)
	data := envelope["data"].([]interface{})
	require.Len(s.T(), data, 1)
	friend := data[0].(map[string]interface{})
	assert.Equal(s.T(), s.bob.ID, friend["id"])
}

// Users

func (s *HandlersTestSuite) TestUpdateUserDuplicateUsername() {
	w := s.request(http.MethodPut, "/api/v1/users", gin.H{"username": "bob"}, s.alice)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	envelope := s.decode(w)
	assert.Equal(s.T(), "DUPLICATE_VALUE", envelope["error"])
}

func (s *HandlersTestSuite) TestGetUserByUsernameCaseInsensitive() {
	w := s.request(http.MethodGet, "/api/v1/users/user/ALICE", nil, s.bob)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	envelope := s.decode(w)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(s.T(), s.alice.ID, data["id"])
}

func (s *HandlersTestSuite) TestSearchUsers() {
	w := s.request(http.MethodGet, "/api/v1/users/search?query=ali", nil, s.bob)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	envelope := s.decode(w)
	data := envelope["data"].([]interface{})
	require.Len(s.T(), data, 1)
}

func (s *HandlersTestSuite) TestDeleteUserSelfOrAdmin() {
	w := s.request(http.MethodDelete, "/api/v1/users/"+s.bob.ID, nil, s.alice)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/users/"+s.bob.ID, nil, s.admin)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	var count int64
	s.db.Model(&models.User{}).Where("id = ?", s.bob.ID).Count(&count)
	assert.Equal(s.T(), int64(0), count)
}

// Notifications

func (s *HandlersTestSuite) TestMarkNotificationReadIsOneWay() {
	notification := models.Notification{
		UserID:   s.alice.ID,
		SenderID: s.bob.ID,
		Type:     models.NotificationLike,
		Message:  "liked your post",
	}
	require.NoError(s.T(), s.db.Create(&notification).Error)

	w := s.request(http.MethodPatch, "/api/v1/notifications/"+notification.ID+"/read", nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	var reloaded models.Notification
	require.NoError(s.T(), s.db.First(&reloaded, "id = ?", notification.ID).Error)
	assert.True(s.T(), reloaded.Read)

	// marking again keeps it read
	w = s.request(http.MethodPatch, "/api/v1/notifications/"+notification.ID+"/read", nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	require.NoError(s.T(), s.db.First(&reloaded, "id = ?", notification.ID).Error)
	assert.True(s.T(), reloaded.Read)
}

func (s *HandlersTestSuite) TestCannotReadOthersNotifications() {
	notification := models.Notification{
		UserID:   s.alice.ID,
		SenderID: s.bob.ID,
		Type:     models.NotificationLike,
		Message:  "liked your post",
	}
	require.NoError(s.T(), s.db.Create(&notification).Error)

	w := s.request(http.MethodPatch, "/api/v1/notifications/"+notification.ID+"/read", nil, s.carol)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestBroadcastNotification() {
	w := s.request(http.MethodPost, "/api/v1/notifications/all", gin.H{
		"message": "scheduled maintenance tonight",
	}, s.admin)

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var count int64
	s.db.Model(&models.Notification{}).
		Where("type = ?", models.NotificationAnnouncement).
		Count(&count)
	// everyone except the sending admin
	assert.Equal(s.T(), int64(3), count)
}

// Messages

func (s *HandlersTestSuite) TestSendMessageAndConversation() {
	w := s.request(http.MethodPost, "/api/v1/messages", gin.H{
		"receiver_id": s.bob.ID,
		"content":     "hey bob",
	}, s.alice)
	assert.Equal(s.T(), http.StatusCreated, w.Code)

	w = s.request(http.MethodPost, "/api/v1/messages", gin.H{
		"receiver_id": s.alice.ID,
		"content":     "hey alice",
	}, s.bob)
	assert.Equal(s.T(), http.StatusCreated, w.Code)

	// receiver got a push and a message notification
	s.dispatcher.mu.Lock()
	bobPushes := len(s.dispatcher.unicasts[s.bob.ID])
	s.dispatcher.mu.Unlock()
	assert.GreaterOrEqual(s.T(), bobPushes, 1)

	w = s.request(http.MethodGet, "/api/v1/messages/"+s.bob.ID, nil, s.alice)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	envelope := s.decode(w)
	data := envelope["data"].([]interface{})
	require.Len(s.T(), data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(s.T(), "hey bob", first["content"])
}

func (s *HandlersTestSuite) TestOnlyReceiverMarksMessageRead() {
	message := models.Message{SenderID: s.alice.ID, ReceiverID: s.bob.ID, Content: "ping"}
	require.NoError(s.T(), s.db.Create(&message).Error)

	w := s.request(http.MethodPatch, "/api/v1/messages/"+message.ID+"/read", nil, s.alice)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.request(http.MethodPatch, "/api/v1/messages/"+message.ID+"/read", nil, s.bob)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	var reloaded models.Message
	require.NoError(s.T(), s.db.First(&reloaded, "id = ?", message.ID).Error)
	assert.True(s.T(), reloaded.Read)
}

func (s *HandlersTestSuite) TestMessageToSelfRejected() {
	w := s.request(http.MethodPost, "/api/v1/messages", gin.H{
		"receiver_id": s.alice.ID,
		"content":     "note to self",
	}, s.alice)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

// Search and tags

func (s *HandlersTestSuite) TestSearchPostsMatchesContentAndTags() {
	post := s.createPost(s.alice, "learning about databases", models.VisibilityPublic)
	tagged := s.createPost(s.bob, "unrelated text", models.VisibilityPublic)

	tag := models.Tag{Name: "databases"}
	require.NoError(s.T(), s.db.Create(&tag).Error)
	require.NoError(s.T(), s.db.Create(&models.PostTag{PostID: tagged.ID, TagID: tag.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/posts/search?query=DataBases", nil, s.carol)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	envelope := s.decode(w)
	data := envelope["data"].([]interface{})
	require.Len(s.T(), data, 2)

	ids := map[string]bool{}
	for _, item := range data {
		ids[item.(map[string]interface{})["id"].(string)] = true
	}
	assert.True(s.T(), ids[post.ID])
	assert.True(s.T(), ids[tagged.ID])
}

func (s *HandlersTestSuite) TestTopTags() {
	post := s.createPost(s.alice, "tagged post", models.VisibilityPublic)
	for _, name := range []string{"go", "go", "music"} {
		var tag models.Tag
		require.NoError(s.T(), s.db.Where("name = ?", name).
			FirstOrCreate(&tag, models.Tag{Name: name}).Error)
		other := s.createPost(s.bob, "more "+name, models.VisibilityPublic)
		require.NoError(s.T(), s.db.Create(&models.PostTag{PostID: other.ID, TagID: tag.ID}).Error)
	}
	var goTag models.Tag
	require.NoError(s.T(), s.db.Where("name = ?", "go").First(&goTag).Error)
	require.NoError(s.T(), s.db.Create(&models.PostTag{PostID: post.ID, TagID: goTag.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/posts/top-tags", nil, s.carol)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	envelope := s.decode(w)
	data := envelope["data"].([]interface{})
	require.NotEmpty(s.T(), data)
	top := data[0].(map[string]interface{})
	assert.Equal(s.T(), "go", top["name"])
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

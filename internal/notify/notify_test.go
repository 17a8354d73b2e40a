package notify

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/metrics"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// recordingDispatcher captures pushed events instead of delivering them
type recordingDispatcher struct {
	mu         sync.Mutex
	broadcasts []*websocket.Message
	unicasts   map[string][]*websocket.Message
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{unicasts: make(map[string][]*websocket.Message)}
}

func (d *recordingDispatcher) Broadcast(msg *websocket.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcasts = append(d.broadcasts, msg)
}

func (d *recordingDispatcher) SendToUser(userID string, msg *websocket.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unicasts[userID] = append(d.unicasts[userID], msg)
}

type NotifyTestSuite struct {
	suite.Suite
	db         *gorm.DB
	dispatcher *recordingDispatcher
	service    *Service
	sender     models.User
	alice      models.User
	bob        models.User
}

func (s *NotifyTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.AutoMigrate(&models.User{}, &models.Notification{}))
	s.db = db
}

func (s *NotifyTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM notifications")
	s.db.Exec("DELETE FROM users")

	s.sender = models.User{Username: "sender", Email: "sender@example.com"}
	s.alice = models.User{Username: "alice", Email: "alice@example.com"}
	s.bob = models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(s.T(), s.db.Create(&s.sender).Error)
	require.NoError(s.T(), s.db.Create(&s.alice).Error)
	require.NoError(s.T(), s.db.Create(&s.bob).Error)

	s.dispatcher = newRecordingDispatcher()
	s.service = NewService(s.db, s.dispatcher)
}

func (s *NotifyTestSuite) TestNotifyManyDedupesRecipients() {
	recipients := []string{s.alice.ID, s.bob.ID, s.alice.ID, s.alice.ID}

	created, err := s.service.NotifyMany(context.Background(), recipients, s.sender.ID,
		models.NotificationMention, "you were mentioned", nil)
	require.NoError(s.T(), err)
	assert.Len(s.T(), created, 2)

	var count int64
	s.db.Model(&models.Notification{}).Where("user_id = ?", s.alice.ID).Count(&count)
	assert.Equal(s.T(), int64(1), count)
}

func (s *NotifyTestSuite) TestNotifyManyExcludesSender() {
	created, err := s.service.NotifyMany(context.Background(),
		[]string{s.sender.ID, s.alice.ID}, s.sender.ID,
		models.NotificationLike, "liked your post", nil)
	require.NoError(s.T(), err)
	assert.Len(s.T(), created, 1)
	assert.Equal(s.T(), s.alice.ID, created[0].UserID)
}

func (s *NotifyTestSuite) TestNotifyManyPushesPerRecipient() {
	_, err := s.service.NotifyMany(context.Background(),
		[]string{s.alice.ID, s.bob.ID}, s.sender.ID,
		models.NotificationComment, "commented on your post", nil)
	require.NoError(s.T(), err)

	assert.Len(s.T(), s.dispatcher.unicasts[s.alice.ID], 1)
	assert.Len(s.T(), s.dispatcher.unicasts[s.bob.ID], 1)
	assert.Equal(s.T(), websocket.MessageTypeNotification, s.dispatcher.unicasts[s.alice.ID][0].Type)
}

func (s *NotifyTestSuite) TestNotifyManyEmptyRecipients() {
	created, err := s.service.NotifyMany(context.Background(), nil, s.sender.ID,
		models.NotificationLike, "liked your post", nil)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), created)
}

func (s *NotifyTestSuite) TestNotifyManyCountsCreatedMetric() {
	counter := metrics.Get().NotificationsCreated.WithLabelValues(models.NotificationMention)
	before := testutil.ToFloat64(counter)

	_, err := s.service.NotifyMany(context.Background(), []string{s.alice.ID, s.bob.ID},
		s.sender.ID, models.NotificationMention, "you were mentioned", nil)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), before+2, testutil.ToFloat64(counter))
}

func (s *NotifyTestSuite) TestNotifyManyRejectsInvalidType() {
	_, err := s.service.NotifyMany(context.Background(), []string{s.alice.ID}, s.sender.ID,
		"shenanigans", "nope", nil)
	assert.Error(s.T(), err)
}

func (s *NotifyTestSuite) TestNotifySingleRecipient() {
	postID := "post-1"
	n, err := s.service.Notify(context.Background(), s.alice.ID, s.sender.ID,
		models.NotificationFollow, "started following you", &postID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), n)
	assert.Equal(s.T(), s.alice.ID, n.UserID)
	assert.Equal(s.T(), models.NotificationFollow, n.Type)
	assert.False(s.T(), n.Read)
}

func (s *NotifyTestSuite) TestBroadcastExcludesSender() {
	created, err := s.service.Broadcast(context.Background(), s.sender.ID, "maintenance tonight")
	require.NoError(s.T(), err)
	assert.Len(s.T(), created, 2)

	for _, n := range created {
		assert.NotEqual(s.T(), s.sender.ID, n.UserID)
		assert.Equal(s.T(), models.NotificationAnnouncement, n.Type)
	}
}

func (s *NotifyTestSuite) TestBroadcastWithNoOtherUsers() {
	s.db.Exec("DELETE FROM users WHERE id <> ?", s.sender.ID)

	created, err := s.service.Broadcast(context.Background(), s.sender.ID, "anyone there?")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), created)
	assert.Empty(s.T(), created)
}

func TestNotifyTestSuite(t *testing.T) {
	suite.Run(t, new(NotifyTestSuite))
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		exclude string
		want    []string
	}{
		{"empty", nil, "x", []string{}},
		{"duplicates collapse", []string{"a", "b", "a"}, "", []string{"a", "b"}},
		{"exclude dropped", []string{"a", "b"}, "a", []string{"b"}},
		{"blank dropped", []string{"", "a"}, "", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupe(tt.ids, tt.exclude))
		})
	}
}

// Package notify persists notifications and pushes them over the real-time
// channel. The database row is the durable source of truth; the push is
// best effort and failures are dropped silently.
package notify

import (
	"context"
	"fmt"

	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/metrics"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dispatcher delivers real-time events. The websocket hub implements it;
// tests substitute a recorder.
type Dispatcher interface {
	Broadcast(message *websocket.Message)
	SendToUser(userID string, message *websocket.Message)
}

// NopDispatcher drops every event. Used when the hub is not running.
type NopDispatcher struct{}

func (NopDispatcher) Broadcast(*websocket.Message)          {}
func (NopDispatcher) SendToUser(string, *websocket.Message) {}

// Service handles notification fan-out
type Service struct {
	db         *gorm.DB
	dispatcher Dispatcher
}

// NewService creates a notification service
func NewService(db *gorm.DB, dispatcher Dispatcher) *Service {
	if dispatcher == nil {
		dispatcher = NopDispatcher{}
	}
	return &Service{db: db, dispatcher: dispatcher}
}

// NotifyMany persists one notification per distinct recipient in a single
// batch write, then fires one push per recipient. The sender and empty ids
// are dropped from the recipient set.
func (s *Service) NotifyMany(ctx context.Context, recipientIDs []string, senderID, notifType, message string, postID *string) ([]models.Notification, error) {
	if !models.ValidNotificationType(notifType) {
		return nil, fmt.Errorf("invalid notification type: %s", notifType)
	}

	recipients := dedupe(recipientIDs, senderID)
	if len(recipients) == 0 {
		return nil, nil
	}

	notifications := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, models.Notification{
			UserID:   userID,
			SenderID: senderID,
			Type:     notifType,
			PostID:   postID,
			Message:  message,
		})
	}

	if err := s.db.WithContext(ctx).Create(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to persist notifications: %w", err)
	}
	metrics.Get().NotificationsCreated.WithLabelValues(notifType).Add(float64(len(notifications)))

	for i := range notifications {
		s.push(notifications[i])
	}

	return notifications, nil
}

// Notify persists and pushes a single notification
func (s *Service) Notify(ctx context.Context, recipientID, senderID, notifType, message string, postID *string) (*models.Notification, error) {
	created, err := s.NotifyMany(ctx, []string{recipientID}, senderID, notifType, message, postID)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, nil
	}
	return &created[0], nil
}

// Broadcast sends an announcement to every user except the sender. An empty
// recipient set is a valid no-op, not an error.
func (s *Service) Broadcast(ctx context.Context, senderID, message string) ([]models.Notification, error) {
	var recipientIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id <> ?", senderID).
		Pluck("id", &recipientIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	if len(recipientIDs) == 0 {
		return []models.Notification{}, nil
	}

	return s.NotifyMany(ctx, recipientIDs, senderID, models.NotificationAnnouncement, message, nil)
}

// push fires a notification event at its recipient. Fire-and-forget: a
// recipient without an open connection just misses the push.
func (s *Service) push(n models.Notification) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("notification push panic", zap.Any("recover", r))
		}
	}()
	s.dispatcher.SendToUser(n.UserID, websocket.NewMessage(websocket.MessageTypeNotification, n))
}

func dedupe(ids []string, exclude string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification types
const (
	NotificationMention      = "mention"
	NotificationLike         = "like"
	NotificationComment      = "comment"
	NotificationFollow       = "follow"
	NotificationMessage      = "message"
	NotificationAnnouncement = "announcement"
)

// ValidNotificationType reports whether t is an allowed notification type
func ValidNotificationType(t string) bool {
	switch t {
	case NotificationMention, NotificationLike, NotificationComment,
		NotificationFollow, NotificationMessage, NotificationAnnouncement:
		return true
	}
	return false
}

// Notification is a durable per-recipient record. The real-time push is
// best effort; this row is the source of truth for later retrieval. The
// only mutation after creation is Read flipping false to true.
type Notification struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string `gorm:"not null;index" json:"user_id"`
	SenderID string `gorm:"not null;index" json:"sender_id"`
	Sender   User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	Type    string  `gorm:"not null" json:"type"`
	PostID  *string `gorm:"index" json:"post_id,omitempty"`
	Message string  `gorm:"type:text;not null" json:"message"`
	Read    bool    `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}

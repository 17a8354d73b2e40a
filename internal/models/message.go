package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a direct message between two users
type Message struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID   string `gorm:"not null;index" json:"sender_id"`
	Sender     User   `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID string `gorm:"not null;index" json:"receiver_id"`

	Content string      `gorm:"type:text;not null" json:"content"`
	Media   []MediaItem `gorm:"type:jsonb;serializer:json" json:"media"`
	Read    bool        `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

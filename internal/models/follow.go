package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a directed edge: FollowerID follows FolloweeID. The composite
// unique index makes repeated follows a no-op on the edge set.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index;uniqueIndex:idx_follows_follower_followee" json:"follower_id"`
	FolloweeID string `gorm:"not null;index;uniqueIndex:idx_follows_follower_followee" json:"followee_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

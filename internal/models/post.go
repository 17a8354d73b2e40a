package models

import (
	"time"

	"gorm.io/gorm"
)

// Post visibility values
const (
	VisibilityPublic        = "public"
	VisibilityPrivate       = "private"
	VisibilityFollowersOnly = "followers-only"
)

// ValidVisibility reports whether v is one of the allowed visibility values
func ValidVisibility(v string) bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityFollowersOnly:
		return true
	}
	return false
}

// Media kinds
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// MediaItem is an externally hosted object reference. Uploads happen
// elsewhere; only the returned URL and kind are stored.
type MediaItem struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// Valid reports whether the media reference is well formed
func (m MediaItem) Valid() bool {
	if m.URL == "" {
		return false
	}
	return m.Kind == MediaImage || m.Kind == MediaVideo
}

// Post is a user-authored post. Likes, comments, tags, and mentions live
// in their own tables; the counters here are maintained atomically on write.
type Post struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Content    string      `gorm:"type:text;not null" json:"content"`
	Media      []MediaItem `gorm:"type:jsonb;serializer:json" json:"media"`
	Visibility string      `gorm:"not null;default:public" json:"visibility"`

	LikeCount    int `gorm:"default:0" json:"like_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
	return nil
}

// PostLike is one user's like of one post. The composite unique index is
// what enforces set semantics at write time.
type PostLike struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_post_likes_post_user" json:"post_id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_post_likes_post_user" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *PostLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

// PostMention links a post to a mentioned user
type PostMention struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_post_mentions_post_user" json:"post_id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_post_mentions_post_user" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *PostMention) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

// Tag is a normalized lowercase tag name
type Tag struct {
	ID   string `gorm:"primaryKey;type:uuid" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = generateUUID()
	}
	return nil
}

// PostTag links posts to tags (many-to-many)
type PostTag struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index;uniqueIndex:idx_post_tags_post_tag" json:"post_id"`
	TagID  string `gorm:"not null;index;uniqueIndex:idx_post_tags_post_tag" json:"tag_id"`
	Tag    Tag    `gorm:"foreignKey:TagID" json:"tag,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (pt *PostTag) BeforeCreate(tx *gorm.DB) error {
	if pt.ID == "" {
		pt.ID = generateUUID()
	}
	return nil
}

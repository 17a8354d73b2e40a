// Package seed populates the database with realistic development and test
// data.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/minglehq/backend/internal/logger"
	"github.com/minglehq/backend/internal/models"
	"github.com/minglehq/backend/internal/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev fills the development database with a realistic social graph
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users, 200); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, 200)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 400); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating likes...")
	if err := s.seedLikes(users, posts, 600); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	log("Creating messages...")
	if err := s.seedMessages(users, 100); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	return nil
}

// SeedTest creates the fixed accounts the end-to-end tests expect,
// plus a small amount of content
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
	}{
		{"alice", "alice@example.com", "Alice Smith"},
		{"bob", "bob@example.com", "Bob Johnson"},
		{"charlie", "charlie@example.com", "Charlie Brown"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		user = models.User{
			Username:       spec.username,
			Email:          spec.email,
			DisplayName:    spec.displayName,
			ProfilePicture: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	if _, err := s.seedPosts(users, 5); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"messages",
		"notifications",
		"post_likes",
		"post_mentions",
		"post_tags",
		"tags",
		"comments",
		"posts",
		"follows",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, err
	}

	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		if len(username) < 3 {
			username += gofakeit.DigitN(3)
		}
		user := models.User{
			Username:       fmt.Sprintf("%s%d", username, gofakeit.Number(1, 9999)),
			Email:          gofakeit.Email(),
			DisplayName:    gofakeit.Name(),
			Bio:            gofakeit.Sentence(12),
			ProfilePicture: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
		}
		if err := s.db.Create(&user).Error; err != nil {
			// Fake data can collide on the unique columns; skip and move on
			continue
		}
		users = append(users, user)
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("no users available")
	}
	return users, nil
}

func (s *Seeder) seedFollows(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		follower := users[rand.Intn(len(users))]
		followee := users[rand.Intn(len(users))]
		if follower.ID == followee.ID {
			continue
		}
		follow := models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	visibilities := []string{
		models.VisibilityPublic,
		models.VisibilityPublic,
		models.VisibilityPublic,
		models.VisibilityFollowersOnly,
		models.VisibilityPrivate,
	}

	var posts []models.Post
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := models.Post{
			AuthorID:   author.ID,
			Content:    gofakeit.Paragraph(1, 3, 10, " "),
			Visibility: visibilities[rand.Intn(len(visibilities))],
		}
		if rand.Intn(4) == 0 {
			post.Media = []models.MediaItem{{
				URL:  gofakeit.URL(),
				Kind: models.MediaImage,
			}}
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}

		if rand.Intn(3) == 0 {
			if err := s.attachTags(post.ID, []string{gofakeit.Hobby(), gofakeit.Word()}); err != nil {
				return nil, err
			}
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) attachTags(postID string, names []string) error {
	for _, name := range util.NormalizeTags(names) {
		var tag models.Tag
		if err := s.db.Where("name = ?", name).
			FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return err
		}
		link := models.PostTag{PostID: postID, TagID: tag.ID}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		post := posts[rand.Intn(len(posts))]
		user := users[rand.Intn(len(users))]
		comment := models.Comment{
			PostID: post.ID,
			UserID: user.ID,
			Text:   gofakeit.Sentence(gofakeit.Number(4, 16)),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		post := posts[rand.Intn(len(posts))]
		user := users[rand.Intn(len(users))]
		like := models.PostLike{PostID: post.ID, UserID: user.ID}
		result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedMessages(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		sender := users[rand.Intn(len(users))]
		receiver := users[rand.Intn(len(users))]
		if sender.ID == receiver.ID {
			continue
		}
		message := models.Message{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Content:    gofakeit.Sentence(gofakeit.Number(3, 20)),
			Read:       rand.Intn(2) == 0,
		}
		if err := s.db.Create(&message).Error; err != nil {
			return err
		}
	}
	return nil
}

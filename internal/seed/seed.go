// Package seed creates demo users, posts, comment threads and likes for
// development environments. Not intended for production use.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"colloquy/internal/models"
	"colloquy/internal/repository"

	"gorm.io/gorm"
)

// Options controls seed volume.
type Options struct {
	Users           int
	Posts           int
	CommentsPerPost int
	MaxReplies      int
	ClearFirst      bool
}

// DefaultOptions returns sensible volumes for a local environment.
func DefaultOptions() Options {
	return Options{
		Users:           10,
		Posts:           5,
		CommentsPerPost: 8,
		MaxReplies:      4,
	}
}

// Seed populates the database with fake users, posts, threads and likes.
func Seed(db *gorm.DB, opts Options) error {
	ctx := context.Background()

	if opts.ClearFirst {
		if err := clearData(db); err != nil {
			return fmt.Errorf("clearing existing data: %w", err)
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("seeded %d users", len(users))

	likeRepo := repository.NewCommentLikeRepository(db)

	totalComments := 0
	totalLikes := 0
	for i := 0; i < opts.Posts; i++ {
		post, err := f.CreatePost(pick(users))
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}

		for j := 0; j < opts.CommentsPerPost; j++ {
			root, err := f.CreateComment(pick(users), post, nil)
			if err != nil {
				return fmt.Errorf("creating comment: %w", err)
			}
			totalComments++

			replies := rand.Intn(opts.MaxReplies + 1)
			for k := 0; k < replies; k++ {
				if _, err := f.CreateComment(pick(users), post, &root.ID); err != nil {
					return fmt.Errorf("creating reply: %w", err)
				}
				totalComments++
			}

			// A random subset of users likes the root.
			for _, user := range users {
				if rand.Intn(3) == 0 {
					if err := likeRepo.Like(ctx, root.ID, user.ID); err != nil {
						return fmt.Errorf("liking comment: %w", err)
					}
					totalLikes++
				}
			}
		}
	}
	log.Printf("seeded %d posts, %d comments, %d likes", opts.Posts, totalComments, totalLikes)

	return nil
}

func pick(users []*models.User) *models.User {
	return users[rand.Intn(len(users))]
}

func clearData(db *gorm.DB) error {
	// Unscoped to wipe soft-deleted rows too; order respects FK references.
	for _, model := range []any{
		&models.CommentLike{},
		&models.Comment{},
		&models.Post{},
		&models.User{},
	} {
		if err := db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

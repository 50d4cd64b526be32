// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"colloquy/internal/models"
	"colloquy/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// DeleteTree removes the comment and, for root comments, its replies and
	// all affected like rows in a single transaction.
	DeleteTree(ctx context.Context, comment *models.Comment) error
	ListRootsByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListRepliesByParent(ctx context.Context, parentID uint) ([]*models.Comment, error)
	ListRepliesByParents(ctx context.Context, parentIDs []uint) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("update", "comments")()
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) DeleteTree(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("delete_tree", "comments")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{comment.ID}

		if comment.IsRoot() {
			var replyIDs []uint
			if err := tx.Model(&models.Comment{}).
				Where("parent_id = ?", comment.ID).
				Pluck("id", &replyIDs).Error; err != nil {
				return err
			}
			ids = append(ids, replyIDs...)
		}

		// Like rows are hard-deleted together with their comments so counts
		// never resurrect if IDs are reused.
		if err := tx.Where("comment_id IN ?", ids).
			Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Comment{}, ids).Error
	})
}

func (r *commentRepository) ListRootsByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	defer observability.TrackQuery("list_roots", "comments")()
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListRepliesByParent(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	return r.ListRepliesByParents(ctx, []uint{parentID})
}

func (r *commentRepository) ListRepliesByParents(ctx context.Context, parentIDs []uint) ([]*models.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("list_replies", "comments")()
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("parent_id IN ?", parentIDs).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}

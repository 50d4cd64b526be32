package repository

import (
	"context"

	"colloquy/internal/models"
	"colloquy/internal/observability"

	"gorm.io/gorm"
)

// CommentLikeRepository aggregates likes on comments. Like and Unlike are
// idempotent; repeating either is never an error.
type CommentLikeRepository interface {
	Like(ctx context.Context, commentID, userID uint) error
	Unlike(ctx context.Context, commentID, userID uint) error
	CountByComment(ctx context.Context, commentID uint) (int64, error)
	CountByComments(ctx context.Context, commentIDs []uint) (map[uint]int64, error)
	HasLiked(ctx context.Context, commentID, userID uint) (bool, error)
	LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error)
}

type commentLikeRepository struct {
	db *gorm.DB
}

// NewCommentLikeRepository creates a new CommentLikeRepository
func NewCommentLikeRepository(db *gorm.DB) CommentLikeRepository {
	return &commentLikeRepository{db: db}
}

func (r *commentLikeRepository) Like(ctx context.Context, commentID, userID uint) error {
	defer observability.TrackQuery("like", "comment_likes")()
	// INSERT ... ON CONFLICT DO NOTHING keeps concurrent likes from the same
	// user from double-counting or erroring on the unique pair index.
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO comment_likes (comment_id, user_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (comment_id, user_id) DO NOTHING`,
		commentID, userID,
	).Error
}

func (r *commentLikeRepository) Unlike(ctx context.Context, commentID, userID uint) error {
	defer observability.TrackQuery("unlike", "comment_likes")()
	// Deleting an absent row is a no-op, not an error.
	return r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.CommentLike{}).Error
}

func (r *commentLikeRepository) CountByComment(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	return count, err
}

func (r *commentLikeRepository) CountByComments(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(commentIDs))
	if len(commentIDs) == 0 {
		return counts, nil
	}

	defer observability.TrackQuery("count_batch", "comment_likes")()
	var rows []struct {
		CommentID uint
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Select("comment_id, COUNT(*) as total").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.CommentID] = row.Total
	}
	return counts, nil
}

func (r *commentLikeRepository) HasLiked(ctx context.Context, commentID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *commentLikeRepository) LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error) {
	if len(commentIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("liked_batch", "comment_likes")()
	var likedIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &likedIDs).Error
	return likedIDs, err
}

package models

import "time"

// CommentLike records that a user liked a comment.
// The (comment_id, user_id) pair is unique; rows are created on like,
// hard-deleted on unlike, and never updated.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_user_like" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_user_like" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a single comment row. ParentID is nil for root comments;
// replies reference a root and are never nested further (one level deep).
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	ParentID  *uint          `gorm:"index" json:"parent_id,omitempty"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsRoot reports whether the comment is a top-level comment.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// AuthorView is the projection of a comment's author embedded in views.
type AuthorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// CommentView is the per-request read model of a comment: the stored row
// plus derived like/reply aggregates for the current viewer. Replies carry
// a nil Replies slice so the field is omitted from their JSON form.
type CommentView struct {
	ID           uint           `json:"id"`
	Content      string         `json:"content"`
	PostID       uint           `json:"post_id"`
	ParentID     *uint          `json:"parent_id,omitempty"`
	Author       AuthorView     `json:"author"`
	TotalLikes   int            `json:"total_likes"`
	TotalReplies int            `json:"total_replies"`
	IsLiked      bool           `json:"is_liked"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Replies      []*CommentView `json:"replies,omitempty"`
}

// Pagination describes the slice of root comments returned by a listing.
// Replies are never independently paginated.
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	ItemsPerPage int  `json:"items_per_page"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
}

// CommentPage is the paginated listing response body.
type CommentPage struct {
	Data       []*CommentView `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// LikeResult is the response body of like/unlike operations.
type LikeResult struct {
	Success    bool  `json:"success"`
	Liked      bool  `json:"liked"`
	TotalLikes int64 `json:"total_likes"`
}

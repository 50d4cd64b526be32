// Package service contains the comment domain logic: tree assembly, like
// aggregation, sort/paginate composition and ownership guards.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"colloquy/internal/cache"
	"colloquy/internal/models"
	"colloquy/internal/observability"
	"colloquy/internal/repository"

	"gorm.io/gorm"
)

const maxCommentLen = 10000

// Sort labels accepted by ListComments. Handler-level aliases resolve to
// one of these before reaching the service.
const (
	SortRecent  = "recent"
	SortPopular = "popular"
)

// CommentService implements the comment subsystem on top of the repositories.
type CommentService struct {
	comments repository.CommentRepository
	likes    repository.CommentLikeRepository
	posts    repository.PostRepository
	cache    *cache.Cache
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

type ListCommentsInput struct {
	PostID   uint
	ViewerID uint // 0 means anonymous
	Sort     string
	Page     int
	Limit    int
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	comments repository.CommentRepository,
	likes repository.CommentLikeRepository,
	posts repository.PostRepository,
	c *cache.Cache,
) *CommentService {
	return &CommentService{
		comments: comments,
		likes:    likes,
		posts:    posts,
		cache:    c,
	}
}

// mapStoreErr translates raw store errors into the AppError taxonomy.
func mapStoreErr(err error, resource string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewTransientError(err)
	default:
		// Unknown driver failures stay server-side; clients only ever see
		// the generic internal message.
		return models.NewInternalError(err)
	}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

// CreateComment stores a root comment or a one-level reply and returns its view.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.CommentView, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, mapStoreErr(err, "Post", in.PostID)
	}

	if in.ParentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, mapStoreErr(err, "Comment", *in.ParentID)
		}
		// Replies are exactly one level deep and stay on the parent's post;
		// anything else means the referenced root does not exist for this post.
		if !parent.IsRoot() || parent.PostID != in.PostID {
			return nil, models.NewNotFoundError("Root comment", *in.ParentID)
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapStoreErr(err, "Comment", 0)
	}

	kind := "root"
	if in.ParentID != nil {
		kind = "reply"
	}
	observability.CommentsCreated.WithLabelValues(kind).Inc()
	s.cache.InvalidatePost(ctx, in.PostID)

	fresh, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, mapStoreErr(err, "Comment", comment.ID)
	}
	return s.viewOf(ctx, fresh, in.UserID)
}

// UpdateComment replaces the content of the requester's own comment.
// createdAt is untouched; the store bumps updatedAt.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.CommentView, error) {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, mapStoreErr(err, "Comment", in.CommentID)
	}

	if comment.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own comments")
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	comment.Content = in.Content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, mapStoreErr(err, "Comment", in.CommentID)
	}

	s.cache.InvalidatePost(ctx, comment.PostID)

	fresh, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, mapStoreErr(err, "Comment", comment.ID)
	}
	return s.viewOf(ctx, fresh, in.UserID)
}

// DeleteComment removes the requester's own comment. Deleting a root cascades
// to its replies and all affected like rows.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return mapStoreErr(err, "Comment", in.CommentID)
	}

	if comment.UserID != in.UserID {
		return models.NewUnauthorizedError("You can only delete your own comments")
	}

	if err := s.comments.DeleteTree(ctx, comment); err != nil {
		return mapStoreErr(err, "Comment", in.CommentID)
	}

	observability.CommentsDeleted.Inc()
	s.cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

// LikeComment records the viewer's like. Repeats are no-ops.
func (s *CommentService) LikeComment(ctx context.Context, commentID, viewerID uint) (*models.LikeResult, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, mapStoreErr(err, "Comment", commentID)
	}

	if err := s.likes.Like(ctx, commentID, viewerID); err != nil {
		return nil, mapStoreErr(err, "Comment", commentID)
	}

	observability.CommentLikeOps.WithLabelValues("like").Inc()
	s.cache.InvalidateThread(ctx, comment.PostID)

	total, err := s.likes.CountByComment(ctx, commentID)
	if err != nil {
		return nil, mapStoreErr(err, "Comment", commentID)
	}
	return &models.LikeResult{Success: true, Liked: true, TotalLikes: total}, nil
}

// UnlikeComment removes the viewer's like. Unliking a never-liked comment is a no-op.
func (s *CommentService) UnlikeComment(ctx context.Context, commentID, viewerID uint) (*models.LikeResult, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, mapStoreErr(err, "Comment", commentID)
	}

	if err := s.likes.Unlike(ctx, commentID, viewerID); err != nil {
		return nil, mapStoreErr(err, "Comment", commentID)
	}

	observability.CommentLikeOps.WithLabelValues("unlike").Inc()
	s.cache.InvalidateThread(ctx, comment.PostID)

	total, err := s.likes.CountByComment(ctx, commentID)
	if err != nil {
		return nil, mapStoreErr(err, "Comment", commentID)
	}
	return &models.LikeResult{Success: true, Liked: false, TotalLikes: total}, nil
}

// ListComments assembles the post's comment tree and applies sort and
// pagination over the root views.
func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (*models.CommentPage, error) {
	if _, err := s.posts.GetByID(ctx, in.PostID); err != nil {
		return nil, mapStoreErr(err, "Post", in.PostID)
	}

	start := time.Now()
	views, err := s.assembleThread(ctx, in.PostID, in.ViewerID)
	if err != nil {
		return nil, mapStoreErr(err, "Post", in.PostID)
	}
	observability.ObserveThreadAssembly(start)

	return composePage(views, in.Sort, in.Page, in.Limit), nil
}

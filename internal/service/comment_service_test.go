package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"colloquy/internal/cache"
	"colloquy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn               func(context.Context, *models.Comment) error
	getByIDFn              func(context.Context, uint) (*models.Comment, error)
	updateFn               func(context.Context, *models.Comment) error
	deleteTreeFn           func(context.Context, *models.Comment) error
	listRootsFn            func(context.Context, uint) ([]*models.Comment, error)
	listRepliesByParentFn  func(context.Context, uint) ([]*models.Comment, error)
	listRepliesByParentsFn func(context.Context, []uint) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) DeleteTree(ctx context.Context, c *models.Comment) error {
	return s.deleteTreeFn(ctx, c)
}
func (s *commentRepoStub) ListRootsByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listRootsFn(ctx, postID)
}
func (s *commentRepoStub) ListRepliesByParent(ctx context.Context, parentID uint) ([]*models.Comment, error) {
	return s.listRepliesByParentFn(ctx, parentID)
}
func (s *commentRepoStub) ListRepliesByParents(ctx context.Context, parentIDs []uint) ([]*models.Comment, error) {
	return s.listRepliesByParentsFn(ctx, parentIDs)
}
func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		updateFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		deleteTreeFn: func(_ context.Context, _ *models.Comment) error {
			return nil
		},
		listRootsFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listRepliesByParentFn: func(_ context.Context, _ uint) ([]*models.Comment, error) {
			return nil, nil
		},
		listRepliesByParentsFn: func(_ context.Context, _ []uint) ([]*models.Comment, error) {
			return nil, nil
		},
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, p *models.Post) error {
	return s.createFn(ctx, p)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
	}
}

// fakeLikeRepo is an in-memory CommentLikeRepository with the real
// idempotent like/unlike semantics.
type fakeLikeRepo struct {
	likes map[uint]map[uint]bool // commentID -> userID -> liked
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: make(map[uint]map[uint]bool)}
}

func (f *fakeLikeRepo) Like(_ context.Context, commentID, userID uint) error {
	if f.likes[commentID] == nil {
		f.likes[commentID] = make(map[uint]bool)
	}
	f.likes[commentID][userID] = true
	return nil
}

func (f *fakeLikeRepo) Unlike(_ context.Context, commentID, userID uint) error {
	delete(f.likes[commentID], userID)
	return nil
}

func (f *fakeLikeRepo) CountByComment(_ context.Context, commentID uint) (int64, error) {
	return int64(len(f.likes[commentID])), nil
}

func (f *fakeLikeRepo) CountByComments(_ context.Context, commentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(commentIDs))
	for _, id := range commentIDs {
		counts[id] = int64(len(f.likes[id]))
	}
	return counts, nil
}

func (f *fakeLikeRepo) HasLiked(_ context.Context, commentID, userID uint) (bool, error) {
	return f.likes[commentID][userID], nil
}

func (f *fakeLikeRepo) LikedCommentIDs(_ context.Context, userID uint, commentIDs []uint) ([]uint, error) {
	var ids []uint
	for _, id := range commentIDs {
		if f.likes[id][userID] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func noopCache() *cache.Cache {
	return &cache.Cache{}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func newTestService(comments *commentRepoStub, posts *postRepoStub, likes *fakeLikeRepo) *CommentService {
	if comments == nil {
		comments = noopCommentRepo()
	}
	if posts == nil {
		posts = noopPostRepo()
	}
	if likes == nil {
		likes = newFakeLikeRepo()
	}
	return NewCommentService(comments, likes, posts, noopCache())
}

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(nil, nil, nil)
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1})
		assertValidationError(t, err)
	})

	t.Run("whitespace-only content", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(nil, nil, nil)
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1, Content: "   "})
		assertValidationError(t, err)
	})

	t.Run("content too long", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(nil, nil, nil)
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			UserID:  1,
			PostID:  1,
			Content: strings.Repeat("x", 10001),
		})
		assertValidationError(t, err)
	})

	t.Run("missing post maps to not found", func(t *testing.T) {
		t.Parallel()
		posts := noopPostRepo()
		posts.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := newTestService(nil, posts, nil)
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 99, Content: "hi"})
		assertNotFoundError(t, err)
	})
}

func TestCommentService_CreateComment_ParentChecks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing parent is not found", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := newTestService(comments, nil, nil)
		parentID := uint(42)
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1, ParentID: &parentID, Content: "hi"})
		assertNotFoundError(t, err)
	})

	t.Run("replying to a reply is rejected", func(t *testing.T) {
		t.Parallel()
		rootID := uint(1)
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1, ParentID: &rootID}, nil
		}
		svc := newTestService(comments, nil, nil)
		parentID := uint(2)
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1, ParentID: &parentID, Content: "hi"})
		assertNotFoundError(t, err)
	})

	t.Run("parent on another post is rejected", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 7}, nil
		}
		svc := newTestService(comments, nil, nil)
		parentID := uint(2)
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, PostID: 1, ParentID: &parentID, Content: "hi"})
		assertNotFoundError(t, err)
	})
}

func TestCommentService_CreateComment_Success(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		c.ID = 42
		return nil
	}
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		return &models.Comment{
			ID: id, Content: "hello", UserID: 1, PostID: 1,
			User: models.User{ID: 1, Username: "alice"},
		}, nil
	}

	svc := newTestService(comments, nil, nil)
	view, err := svc.CreateComment(context.Background(), CreateCommentInput{
		UserID:  1,
		PostID:  1,
		Content: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), view.ID)
	assert.Equal(t, "hello", view.Content)
	assert.Equal(t, "alice", view.Author.Username)
	assert.Equal(t, 0, view.TotalLikes)
	assert.Equal(t, 0, view.TotalReplies)
	assert.NotNil(t, view.Replies)
}

func TestCommentService_UpdateComment_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("non-owner cannot update", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 10}, nil
		}
		svc := newTestService(comments, nil, nil)
		_, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "new"})
		assertUnauthorizedError(t, err)
	})

	t.Run("empty content is invalid", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 1}, nil
		}
		svc := newTestService(comments, nil, nil)
		_, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: ""})
		assertValidationError(t, err)
	})

	t.Run("owner can update content", func(t *testing.T) {
		t.Parallel()
		// UpdateComment calls GetByID twice: once to fetch, once to return the
		// fresh record; updateFn captures the new content for the second call.
		storedContent := "old"
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 1, Content: storedContent}, nil
		}
		comments.updateFn = func(_ context.Context, c *models.Comment) error {
			storedContent = c.Content
			return nil
		}
		svc := newTestService(comments, nil, nil)
		view, err := svc.UpdateComment(context.Background(), UpdateCommentInput{UserID: 1, CommentID: 1, Content: "updated"})
		require.NoError(t, err)
		assert.Equal(t, "updated", view.Content)
	})
}

func TestCommentService_DeleteComment_Ownership(t *testing.T) {
	t.Parallel()

	t.Run("owner can delete", func(t *testing.T) {
		t.Parallel()
		deleted := false
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 1}, nil
		}
		comments.deleteTreeFn = func(_ context.Context, _ *models.Comment) error {
			deleted = true
			return nil
		}
		svc := newTestService(comments, nil, nil)
		require.NoError(t, svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 1}))
		assert.True(t, deleted)
	})

	t.Run("non-owner is unauthorized regardless of role", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return &models.Comment{ID: 1, UserID: 10}, nil
		}
		svc := newTestService(comments, nil, nil)
		err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 1})
		assertUnauthorizedError(t, err)
	})

	t.Run("missing comment is not found", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := newTestService(comments, nil, nil)
		err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: 1, CommentID: 1})
		assertNotFoundError(t, err)
	})
}

func TestCommentService_LikeComment_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	likes := newFakeLikeRepo()
	svc := newTestService(nil, nil, likes)

	first, err := svc.LikeComment(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(1), first.TotalLikes)

	// Liking again changes nothing.
	second, err := svc.LikeComment(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.TotalLikes)

	// A different viewer adds a second like.
	third, err := svc.LikeComment(ctx, 1, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.TotalLikes)
}

func TestCommentService_UnlikeComment_NeverLiked(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil, nil, newFakeLikeRepo())

	res, err := svc.UnlikeComment(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(0), res.TotalLikes)
}

func TestCommentService_LikeComment_MissingComment(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := newTestService(comments, nil, nil)

	_, err := svc.LikeComment(context.Background(), 99, 10)
	assertNotFoundError(t, err)
}

func TestCommentService_MapStoreErr_Transient(t *testing.T) {
	t.Parallel()

	err := mapStoreErr(context.DeadlineExceeded, "Comment", 1)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TRANSIENT", appErr.Code)

	plain := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	wrapped := mapStoreErr(plain, "Comment", 1)
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
	assert.Equal(t, "Internal server error", appErr.Message)
	assert.ErrorIs(t, wrapped, plain)
	assert.NotContains(t, appErr.Message, "dial tcp")
}

package service

import (
	"context"
	"sort"

	"colloquy/internal/cache"
	"colloquy/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func newView(c *models.Comment) *models.CommentView {
	return &models.CommentView{
		ID:       c.ID,
		Content:  c.Content,
		PostID:   c.PostID,
		ParentID: c.ParentID,
		Author: models.AuthorView{
			ID:       c.User.ID,
			Username: c.User.Username,
			Avatar:   c.User.Avatar,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// assembleThread produces annotated root views for the post. The viewer-free
// base thread is cached; the viewer's liked flags are layered on afterwards
// so the cache stays shareable between viewers.
func (s *CommentService) assembleThread(ctx context.Context, postID, viewerID uint) ([]*models.CommentView, error) {
	var views []*models.CommentView
	err := s.cache.Aside(ctx, cache.ThreadKey(postID), &views, cache.ThreadTTL, func() error {
		loaded, err := s.loadThread(ctx, postID)
		if err != nil {
			return err
		}
		views = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if viewerID != 0 {
		if err := s.applyLikedFlags(ctx, views, viewerID); err != nil {
			return nil, err
		}
	}
	return views, nil
}

// loadThread fetches roots, their direct replies and batched like counts.
// O(n) in the total comments on the post; acceptable with one-level
// threading and bounded per-post volume.
func (s *CommentService) loadThread(ctx context.Context, postID uint) ([]*models.CommentView, error) {
	roots, err := s.comments.ListRootsByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	rootIDs := make([]uint, 0, len(roots))
	for _, root := range roots {
		rootIDs = append(rootIDs, root.ID)
	}

	replies, err := s.comments.ListRepliesByParents(ctx, rootIDs)
	if err != nil {
		return nil, err
	}

	allIDs := make([]uint, 0, len(roots)+len(replies))
	allIDs = append(allIDs, rootIDs...)
	for _, reply := range replies {
		allIDs = append(allIDs, reply.ID)
	}

	counts, err := s.likes.CountByComments(ctx, allIDs)
	if err != nil {
		return nil, err
	}

	// Replies arrive oldest-first from the store and keep that order.
	repliesByParent := make(map[uint][]*models.CommentView, len(roots))
	for _, reply := range replies {
		view := newView(reply)
		view.TotalLikes = int(counts[reply.ID])
		repliesByParent[*reply.ParentID] = append(repliesByParent[*reply.ParentID], view)
	}

	views := make([]*models.CommentView, 0, len(roots))
	for _, root := range roots {
		view := newView(root)
		view.TotalLikes = int(counts[root.ID])
		view.Replies = repliesByParent[root.ID]
		if view.Replies == nil {
			view.Replies = []*models.CommentView{}
		}
		view.TotalReplies = len(view.Replies)
		views = append(views, view)
	}
	return views, nil
}

// applyLikedFlags sets IsLiked on every view the given viewer has liked.
func (s *CommentService) applyLikedFlags(ctx context.Context, views []*models.CommentView, viewerID uint) error {
	ids := make([]uint, 0, len(views))
	for _, view := range views {
		ids = append(ids, view.ID)
		for _, reply := range view.Replies {
			ids = append(ids, reply.ID)
		}
	}

	likedIDs, err := s.likes.LikedCommentIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}

	liked := make(map[uint]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}

	for _, view := range views {
		view.IsLiked = liked[view.ID]
		for _, reply := range view.Replies {
			reply.IsLiked = liked[reply.ID]
		}
	}
	return nil
}

// viewOf builds the annotated view of a single comment, including its reply
// list when the comment is a root.
func (s *CommentService) viewOf(ctx context.Context, c *models.Comment, viewerID uint) (*models.CommentView, error) {
	view := newView(c)

	ids := []uint{c.ID}
	if c.IsRoot() {
		replies, err := s.comments.ListRepliesByParent(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		view.Replies = make([]*models.CommentView, 0, len(replies))
		for _, reply := range replies {
			view.Replies = append(view.Replies, newView(reply))
			ids = append(ids, reply.ID)
		}
		view.TotalReplies = len(view.Replies)
	}

	counts, err := s.likes.CountByComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	view.TotalLikes = int(counts[c.ID])
	for _, reply := range view.Replies {
		reply.TotalLikes = int(counts[reply.ID])
	}

	if viewerID != 0 {
		if err := s.applyLikedFlags(ctx, []*models.CommentView{view}, viewerID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// composePage sorts the root views and slices out the requested page.
// Pagination parameters are clamped, never rejected.
func composePage(views []*models.CommentView, sortBy string, page, limit int) *models.CommentPage {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page < 1 {
		page = 1
	}

	switch sortBy {
	case SortPopular:
		// Likes descending; ties broken by recency so the order is deterministic.
		sort.SliceStable(views, func(i, j int) bool {
			if views[i].TotalLikes != views[j].TotalLikes {
				return views[i].TotalLikes > views[j].TotalLikes
			}
			return views[i].CreatedAt.After(views[j].CreatedAt)
		})
	default: // SortRecent
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].CreatedAt.After(views[j].CreatedAt)
		})
	}

	total := len(views)
	skip := (page - 1) * limit

	data := []*models.CommentView{}
	if skip < total {
		end := skip + limit
		if end > total {
			end = total
		}
		data = views[skip:end]
	}

	totalPages := (total + limit - 1) / limit

	return &models.CommentPage{
		Data: data,
		Pagination: models.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
			HasNextPage:  skip+len(data) < total,
			HasPrevPage:  page > 1,
		},
	}
}

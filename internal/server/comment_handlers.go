package server

import (
	"colloquy/internal/models"
	"colloquy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// sortAliases maps accepted sort query labels onto service sort modes.
// "oldest" is a legacy alias kept for an upstream caller that predates the
// popularity sort; it has always resolved to the popular ordering.
var sortAliases = map[string]string{
	"":        service.SortRecent,
	"recent":  service.SortRecent,
	"popular": service.SortPopular,
	"oldest":  service.SortPopular,
}

// GetComments returns the comment thread for a post (public, viewer-aware
// when a valid token is supplied)
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	sortBy, ok := sortAliases[c.Query("sort")]
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid sort parameter"))
	}

	identity := s.optionalIdentity(c)
	pp := parsePagination(c)

	page, err := s.commentService.ListComments(c.UserContext(), service.ListCommentsInput{
		PostID:   postID,
		ViewerID: identity.ID,
		Sort:     sortBy,
		Page:     pp.Page,
		Limit:    pp.Limit,
	})
	if err != nil {
		return models.RespondWithError(c, appErrorStatus(err), err)
	}

	return c.JSON(page)
}

// CreateComment creates a root comment or a reply on a post (protected)
func (s *Server) CreateComment(c *fiber.Ctx) error {
	identity := requesterIdentity(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   identity.ID,
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, appErrorStatus(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateComment updates a comment's content (owner only)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	identity := requesterIdentity(c)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    identity.ID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, appErrorStatus(err), err)
	}

	return c.JSON(updated)
}

// DeleteComment deletes a comment (owner only). Deleting a root removes its
// replies as well.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	identity := requesterIdentity(c)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    identity.ID,
		CommentID: commentID,
	}); err != nil {
		return models.RespondWithError(c, appErrorStatus(err), err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// LikeComment records the requester's like on a comment (protected, idempotent)
func (s *Server) LikeComment(c *fiber.Ctx) error {
	identity := requesterIdentity(c)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	result, err := s.commentService.LikeComment(c.UserContext(), commentID, identity.ID)
	if err != nil {
		return models.RespondWithError(c, appErrorStatus(err), err)
	}

	return c.JSON(result)
}

// UnlikeComment removes the requester's like from a comment (protected, idempotent)
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	identity := requesterIdentity(c)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	result, err := s.commentService.UnlikeComment(c.UserContext(), commentID, identity.ID)
	if err != nil {
		return models.RespondWithError(c, appErrorStatus(err), err)
	}

	return c.JSON(result)
}

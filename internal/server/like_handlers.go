package server

import (
	"errors"

	"basecamp/internal/authz"
	"basecamp/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LikePost handles POST /api/posts/:id/like. Idempotent: liking an already
// liked post changes nothing and reports the current counts.
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := c.Locals("userID").(uint)
	result, err := s.postService.LikePost(c.Context(), userID, id)
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.JSON(result)
}

// UnlikePost handles DELETE /api/posts/:id/like. Idempotent: removing an
// absent like is a no-op.
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := c.Locals("userID").(uint)
	result, err := s.postService.UnlikePost(c.Context(), userID, id)
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.JSON(result)
}

// CheckLike handles GET /api/posts/:id/like/check.
func (s *Server) CheckLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postRepo.GetByID(c.Context(), id, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Post not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	userID := c.Locals("userID").(uint)
	liked, err := s.likeRepo.IsLiked(c.Context(), userID, id)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}
	likes, _, err := s.postRepo.Counts(c.Context(), id)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"post_id":     id,
		"is_liked":    liked,
		"likes_count": likes,
	})
}

// GetLikes handles GET /api/likes, listing the caller's likes newest first.
// Staff may scope to another user with ?user_id=; for everyone else the
// parameter is silently ignored rather than rejected.
func (s *Server) GetLikes(c *fiber.Ctx) error {
	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondError(c, err)
	}

	targetID := actor.ID
	if requested := c.QueryInt("user_id"); requested > 0 && authz.CanFilterLikesByUser(actor) {
		targetID = uint(requested)
	}

	pagination := parsePagination(c, 50)
	likes, total, err := s.likeRepo.ListByUser(
		c.Context(), targetID, pagination.PerPage, pagination.Offset)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"user_id": targetID,
		"data":    likes,
		"meta":    pagination.meta(total),
	})
}

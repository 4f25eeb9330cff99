package server

import (
	"errors"
	"strings"

	"basecamp/internal/models"
	"basecamp/internal/repository"
	"basecamp/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetPosts handles GET /api/posts. The feed lists top-level posts only;
// replies are reachable through their parent. Unknown sort_by values fall
// back to recency and unauthenticated callers simply get no is_liked field.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	pagination := parsePagination(c, 20)
	currentUserID, _ := s.optionalUserID(c)

	filter, err := s.buildPostFilter(c)
	if err != nil {
		return models.RespondError(c, err)
	}

	sortBy, sortDir := repository.NormalizePostSort(c.Query("sort_by"), c.Query("sort_dir"))
	posts, total, err := s.postRepo.List(
		c.Context(), filter, sortBy, sortDir,
		pagination.PerPage, pagination.Offset, currentUserID)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	meta := pagination.meta(total)
	meta["sort_by"] = sortBy
	meta["sort_dir"] = sortDir

	return c.JSON(fiber.Map{
		"data": posts,
		"meta": meta,
	})
}

// buildPostFilter resolves the listing filters. Theme name wins over
// theme_id and author_id wins over author; a named theme that does not exist
// yields an empty result set rather than an error.
func (s *Server) buildPostFilter(c *fiber.Ctx) (repository.PostFilter, error) {
	var filter repository.PostFilter

	if name := strings.TrimSpace(c.Query("theme")); name != "" {
		theme, err := s.themeRepo.GetByName(c.Context(), name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				var none uint // matches nothing
				filter.ThemeID = &none
				return filter, nil
			}
			return filter, models.NewInternalError(err)
		}
		filter.ThemeID = &theme.ID
	} else if themeID := c.QueryInt("theme_id"); themeID > 0 {
		id := uint(themeID)
		filter.ThemeID = &id
	}

	if authorID := c.QueryInt("author_id"); authorID > 0 {
		id := uint(authorID)
		filter.AuthorID = &id
	} else {
		filter.AuthorName = strings.TrimSpace(c.Query("author"))
	}

	filter.Query = strings.TrimSpace(c.Query("q"))
	filter.From = parseDate(c.Query("from"))
	filter.To = parseDateTo(c.Query("to"))

	return filter, nil
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	currentUserID, _ := s.optionalUserID(c)
	post, err := s.postRepo.GetByID(c.Context(), id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Post not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(post)
}

// GetReplies handles GET /api/posts/:id/replies.
func (s *Server) GetReplies(c *fiber.Ctx) error {
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

	pagination := parsePagination(c, 20)
	currentUserID, _ := s.optionalUserID(c)

	replies, total, err := s.postRepo.Replies(
		c.Context(), id, pagination.PerPage, pagination.Offset, currentUserID)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"data": replies,
		"meta": pagination.meta(total),
	})
}

// GetPostLikes handles GET /api/posts/:id/likes, the public list of who
// liked a post, newest first.
func (s *Server) GetPostLikes(c *fiber.Ctx) error {
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

	pagination := parsePagination(c, 50)
	likes, total, err := s.likeRepo.ListByPost(
		c.Context(), id, pagination.PerPage, pagination.Offset)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"post_id": id,
		"likes":   likes,
		"meta":    pagination.meta(total),
	})
}

// CreatePost handles POST /api/posts for both top-level posts and replies.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		Theme       string `json:"theme"`
		ThemeID     *uint  `json:"theme_id"`
		RepliedToID *uint  `json:"replied_to_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}

	userID := c.Locals("userID").(uint)
	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		UserID:      userID,
		Title:       req.Title,
		Content:     req.Content,
		ThemeID:     req.ThemeID,
		ThemeName:   req.Theme,
		RepliedToID: req.RepliedToID,
	})
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// DeletePost handles DELETE /api/posts/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	userID := c.Locals("userID").(uint)
	if err := s.postService.DeletePost(c.Context(), userID, id); err != nil {
		return models.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Post deleted successfully",
	})
}

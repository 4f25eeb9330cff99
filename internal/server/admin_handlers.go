package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"basecamp/internal/authz"
	"basecamp/internal/cache"
	"basecamp/internal/models"
	"basecamp/internal/repository"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetUsers handles GET /api/admin/users with search, role filter and a
// whitelisted sort.
func (s *Server) GetUsers(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Search: strings.TrimSpace(c.Query("search")),
	}
	if role := c.Query("role"); models.ValidRole(role) {
		filter.Role = role
	}

	pagination := parsePagination(c, 20)
	sortBy, sortDir := repository.NormalizeUserSort(c.Query("sort_by"), c.Query("sort_dir"))
	users, total, err := s.userRepo.List(
		c.Context(), filter, sortBy, sortDir,
		pagination.PerPage, pagination.Offset)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	meta := pagination.meta(total)
	meta["has_more_pages"] = int64(pagination.Page*pagination.PerPage) < total
	meta["sort_by"] = sortBy
	meta["sort_dir"] = sortDir
	meta["search"] = filter.Search
	meta["role_filter"] = filter.Role

	return c.JSON(fiber.Map{
		"data": users,
		"meta": meta,
	})
}

// TogglePublish handles PATCH /api/admin/users/:id/toggle-publish. Moderators
// may only toggle regular users and nobody toggles themselves.
func (s *Server) TogglePublish(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondError(c, err)
	}

	target, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("User not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	if err := authz.Authorize(actor, authz.ActionTogglePublish, target); err != nil {
		// Self-toggle is a bad request, not a validation failure of the body.
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
		return models.RespondError(c, err)
	}

	newValue := !target.CanPublish
	if err := s.userRepo.SetCanPublish(c.Context(), id, newValue); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}
	target.CanPublish = newValue

	return c.JSON(fiber.Map{
		"message": "User publishing status updated successfully",
		"user":    target,
	})
}

// UpdateRole handles PUT /api/admin/users/:id/role. Admin only; admins
// cannot change their own role.
func (s *Server) UpdateRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}
	if !models.ValidRole(req.Role) {
		return models.RespondError(c,
			models.NewValidationError("Role must be one of: user, moderator, admin"))
	}

	actor, err := s.currentUser(c)
	if err != nil {
		return models.RespondError(c, err)
	}

	target, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("User not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	if err := authz.Authorize(actor, authz.ActionChangeRole, target); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
		return models.RespondError(c, err)
	}

	previous := target.Role
	if err := s.userRepo.SetRole(c.Context(), id, req.Role); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}
	target.Role = req.Role

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("User role changed from %s to %s", previous, req.Role),
		"user":    target,
	})
}

type statsResponse struct {
	Stats     repository.Stats `json:"stats"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// GetStats handles GET /api/admin/stats, briefly cached. updated_at reflects
// when the numbers were collected, not when they were served.
func (s *Server) GetStats(c *fiber.Ctx) error {
	response, _, err := cache.Aside(c.Context(), cache.StatsKey(), cache.StatsTTL,
		func(ctx context.Context) (statsResponse, error) {
			collected, err := s.statsRepo.Collect(ctx)
			if err != nil {
				return statsResponse{}, err
			}
			return statsResponse{Stats: *collected, UpdatedAt: time.Now().UTC()}, nil
		})
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(response)
}

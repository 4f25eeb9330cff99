package server

import (
	"context"
	"errors"
	"strings"

	"basecamp/internal/cache"
	"basecamp/internal/models"
	"basecamp/internal/repository"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetCategories handles GET /api/categories. The listing is cached briefly;
// admin writes invalidate it.
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, _, err := cache.Aside(c.Context(), cache.CategoriesKey(), cache.CategoriesTTL,
		func(ctx context.Context) ([]*models.Category, error) {
			return s.categoryRepo.List(ctx)
		})
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"data": categories})
}

// GetCategory handles GET /api/categories/:id.
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	category, err := s.categoryRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Category not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(category)
}

// GetCategoryThemes handles GET /api/categories/:id/themes, the themes in a
// category with their post counts.
func (s *Server) GetCategoryThemes(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	category, err := s.categoryRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Category not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	themes, err := s.themeRepo.List(c.Context(), &id)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"category": category,
		"themes":   themes,
	})
}

// CreateCategory handles POST /api/categories. The slug is derived from the
// name, never client-supplied.
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Order       int    `json:"order"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return models.RespondError(c,
			models.NewValidationError("Name is required"))
	}

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		Order:       req.Order,
		IsActive:    true,
	}
	if err := s.categoryRepo.Create(c.Context(), category); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	_ = cache.Delete(c.Context(), cache.CategoriesKey())
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/categories/:id. Renaming re-derives the slug.
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	category, err := s.categoryRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Category not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Order       *int    `json:"order"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return models.RespondError(c,
				models.NewValidationError("Name is required"))
		}
		category.Name = name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Order != nil {
		category.Order = *req.Order
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.categoryRepo.Update(c.Context(), category); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	_ = cache.Delete(c.Context(), cache.CategoriesKey())
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/categories/:id. A category holding
// themes cannot be deleted.
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.categoryRepo.GetByID(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Category not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	themeCount, err := s.categoryRepo.ThemeCount(c.Context(), id)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}
	if themeCount > 0 {
		return models.RespondError(c,
			models.NewValidationError("Cannot delete a category that still has themes"))
	}

	if err := s.categoryRepo.Delete(c.Context(), id); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	_ = cache.Delete(c.Context(), cache.CategoriesKey())
	return c.JSON(fiber.Map{"message": "Category deleted"})
}

// GetThemes handles GET /api/themes, optionally filtered by category_id.
func (s *Server) GetThemes(c *fiber.Ctx) error {
	var categoryID *uint
	if raw := c.QueryInt("category_id"); raw > 0 {
		id := uint(raw)
		categoryID = &id
	}

	themes, err := s.themeRepo.List(c.Context(), categoryID)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"data": themes})
}

// GetTheme handles GET /api/themes/:id.
func (s *Server) GetTheme(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	theme, err := s.themeRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Theme not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(theme)
}

// GetThemePosts handles GET /api/themes/:id/posts, the top-level posts in a
// theme, newest first.
func (s *Server) GetThemePosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	theme, err := s.themeRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Theme not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	pagination := parsePagination(c, 20)
	currentUserID, _ := s.optionalUserID(c)

	posts, total, err := s.postRepo.List(
		c.Context(), repository.PostFilter{ThemeID: &theme.ID}, "", "",
		pagination.PerPage, pagination.Offset, currentUserID)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"theme": theme,
		"data":  posts,
		"meta":  pagination.meta(total),
	})
}

// CreateTheme handles POST /api/themes.
func (s *Server) CreateTheme(c *fiber.Ctx) error {
	var req struct {
		Name         string   `json:"name"`
		Description  string   `json:"description"`
		CategoryID   *uint    `json:"category_id"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
		LocationName string   `json:"location_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return models.RespondError(c,
			models.NewValidationError("Name is required"))
	}
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		return models.RespondError(c, err)
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(c.Context(), *req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.RespondError(c,
					models.NewValidationError("Category not found"))
			}
			return models.RespondError(c, models.NewInternalError(err))
		}
	}

	theme := &models.Theme{
		Name:         req.Name,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		LocationName: req.LocationName,
	}
	if err := s.themeRepo.Create(c.Context(), theme); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(theme)
}

// UpdateTheme handles PUT /api/themes/:id. Changing the location invalidates
// the cached weather for the theme.
func (s *Server) UpdateTheme(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	theme, err := s.themeRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Theme not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}

	var req struct {
		Name         *string  `json:"name"`
		Description  *string  `json:"description"`
		CategoryID   *uint    `json:"category_id"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
		LocationName *string  `json:"location_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}

	locationChanged := false
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return models.RespondError(c,
				models.NewValidationError("Name is required"))
		}
		theme.Name = name
	}
	if req.Description != nil {
		theme.Description = *req.Description
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(c.Context(), *req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.RespondError(c,
					models.NewValidationError("Category not found"))
			}
			return models.RespondError(c, models.NewInternalError(err))
		}
		theme.CategoryID = req.CategoryID
	}
	if req.Latitude != nil || req.Longitude != nil {
		lat, lon := theme.Latitude, theme.Longitude
		if req.Latitude != nil {
			lat = req.Latitude
		}
		if req.Longitude != nil {
			lon = req.Longitude
		}
		if err := validateCoordinates(lat, lon); err != nil {
			return models.RespondError(c, err)
		}
		theme.Latitude, theme.Longitude = lat, lon
		locationChanged = true
	}
	if req.LocationName != nil {
		theme.LocationName = *req.LocationName
	}

	if err := s.themeRepo.Update(c.Context(), theme); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	if locationChanged {
		_ = cache.Delete(c.Context(), cache.WeatherKey(id))
	}
	return c.JSON(theme)
}

// DeleteTheme handles DELETE /api/themes/:id. A theme holding posts cannot
// be deleted.
func (s *Server) DeleteTheme(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	theme, err := s.themeRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondError(c, models.NewNotFoundError("Theme not found"))
		}
		return models.RespondError(c, models.NewInternalError(err))
	}
	if theme.PostsCount > 0 {
		return models.RespondError(c,
			models.NewValidationError("Cannot delete a theme that still has posts"))
	}

	if err := s.themeRepo.Delete(c.Context(), id); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	_ = cache.Delete(c.Context(), cache.WeatherKey(id))
	return c.JSON(fiber.Map{"message": "Theme deleted successfully"})
}

// validateCoordinates checks that latitude and longitude are supplied as a
// pair and lie within range.
func validateCoordinates(lat, lon *float64) error {
	if lat == nil && lon == nil {
		return nil
	}
	if lat == nil || lon == nil {
		return models.NewValidationError("Latitude and longitude must be provided together")
	}
	if *lat < -90 || *lat > 90 {
		return models.NewValidationError("Latitude must be between -90 and 90")
	}
	if *lon < -180 || *lon > 180 {
		return models.NewValidationError("Longitude must be between -180 and 180")
	}
	return nil
}

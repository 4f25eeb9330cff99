package server

import (
	"basecamp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetThemeWeather handles GET /api/themes/:id/weather. Responses are cached
// per theme for ten minutes; the payload reports whether it was served from
// cache. Upstream failures map to 502 and are never cached.
func (s *Server) GetThemeWeather(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.weatherService.ForTheme(c.Context(), id)
	if err != nil {
		return models.RespondError(c, err)
	}

	return c.JSON(result)
}

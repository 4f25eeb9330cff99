package server

import (
	"errors"
	"time"

	"basecamp/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page/per_page query parameters. Offset is derived.
type Pagination struct {
	Page    int
	PerPage int
	Offset  int
}

const (
	minPerPage = 5
	maxPerPage = 100
)

// parsePagination extracts page and per_page query parameters with the given
// default page size. Out-of-range values clamp silently rather than erroring.
func parsePagination(c *fiber.Ctx, defaultPerPage int) Pagination {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	perPage := c.QueryInt("per_page", defaultPerPage)
	if perPage < minPerPage {
		perPage = minPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return Pagination{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

// meta builds the pagination envelope for list responses.
func (p Pagination) meta(total int64) fiber.Map {
	lastPage := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}
	return fiber.Map{
		"current_page": p.Page,
		"per_page":     p.PerPage,
		"total":        total,
		"last_page":    lastPage,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUser loads the authenticated user from locals set by AuthRequired.
func (s *Server) currentUser(c *fiber.Ctx) (*models.User, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		return nil, models.NewUnauthenticatedError("Authorization required")
	}
	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthenticatedError("Authorization required")
		}
		return nil, err
	}
	return user, nil
}

// parseDate parses a YYYY-MM-DD or RFC3339 query value. Invalid values are
// ignored so bad filters degrade instead of erroring.
func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

// parseDateTo parses the upper creation-date bound. A plain YYYY-MM-DD value
// is inclusive of its whole day, so the bound moves to the day's last instant.
func parseDateTo(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		t = t.Add(24*time.Hour - time.Nanosecond)
		return &t
	}
	return nil
}

package server

import (
	"fmt"
	"strconv"
	"time"

	"basecamp/internal/cache"
	"basecamp/internal/models"
	"basecamp/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is how long issued tokens stay valid; the logout blacklist entry
// uses the same horizon.
const tokenTTL = 24 * time.Hour * 7

// Register handles POST /api/register.
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return models.RespondError(c,
			models.NewValidationError("Name, email, and password are required"))
	}
	if err := validation.ValidateName(req.Name); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondError(c, models.NewValidationError(err.Error()))
	}

	exists, err := s.userRepo.ExistsByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}
	if exists {
		return models.RespondError(c,
			models.NewConflictError("Email already registered"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hashed),
		Role:       models.RoleUser,
		CanPublish: true,
	}
	if err := s.userRepo.Create(c.Context(), user); err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondError(c,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		// Same response as a bad password; login must not reveal whether
		// the email exists.
		return models.RespondError(c,
			models.NewUnauthenticatedError("Invalid credentials"))
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondError(c,
			models.NewUnauthenticatedError("Invalid credentials"))
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return models.RespondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/logout. The token's jti is blacklisted until its
// natural expiry; without Redis logout is a client-side concern.
func (s *Server) Logout(c *fiber.Ctx) error {
	if s.redis != nil {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 {
			tokenString := authHeader[7:]
			token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
			if err == nil {
				if claims, ok := token.Claims.(jwt.MapClaims); ok {
					if jti, ok := claims["jti"].(string); ok && jti != "" {
						// Blacklist only for the token's remaining lifetime;
						// after exp the verifier rejects it anyway.
						ttl := tokenTTL
						if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
							ttl = time.Until(exp.Time)
						}
						if ttl > 0 {
							s.redis.Set(c.Context(), cache.BlacklistKey(jti), "1", ttl)
						}
					}
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "You have successfully logged out.",
	})
}

// generateToken creates a JWT token for the given user ID.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": "basecamp-api",
		"aud": "basecamp-client",
		"exp": now.Add(tokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

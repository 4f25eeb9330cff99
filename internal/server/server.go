// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"basecamp/internal/authz"
	"basecamp/internal/cache"
	"basecamp/internal/config"
	"basecamp/internal/database"
	"basecamp/internal/middleware"
	"basecamp/internal/models"
	"basecamp/internal/repository"
	"basecamp/internal/service"
	"basecamp/internal/weather"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo     repository.UserRepository
	postRepo     repository.PostRepository
	likeRepo     repository.LikeRepository
	categoryRepo repository.CategoryRepository
	themeRepo    repository.ThemeRepository
	statsRepo    repository.StatsRepository

	postService    *service.PostService
	weatherService *weather.Service
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	// Redis is optional; the server degrades to uncached operation.
	if _, err := cache.InitRedis(cfg.RedisURL); err != nil {
		middleware.Logger.Warn("redis unavailable, running without cache", "error", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use this with an in-memory database and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	themeRepo := repository.NewThemeRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	prom := fiberprometheus.New("basecamp-api")

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		postRepo:       postRepo,
		likeRepo:       likeRepo,
		categoryRepo:   categoryRepo,
		themeRepo:      themeRepo,
		statsRepo:      statsRepo,
	}

	s.postService = service.NewPostService(postRepo, likeRepo, themeRepo, userRepo)

	provider := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherTimeout)
	var weatherCache weather.Cache
	if redisClient != nil {
		weatherCache = weather.RedisCache{Client: redisClient}
	}
	s.weatherService = weather.NewService(themeRepo, provider, weatherCache)

	return s, nil
}

// SetWeatherService swaps the weather service. Tests inject a fake provider
// and cache through this.
func (s *Server) SetWeatherService(ws *weather.Service) {
	s.weatherService = ws
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	// CORS before middlewares that can short-circuit so browser clients still
	// receive CORS headers on error responses.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth
	api.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	api.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	api.Post("/logout", s.AuthRequired(), s.Logout)

	// Public browse routes. Specific /:id/:resource routes go before the
	// generic /:id route.
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id/replies", s.GetReplies)
	api.Get("/posts/:id/likes", s.GetPostLikes)
	api.Get("/posts/:id", s.GetPost)
	api.Get("/categories", s.GetCategories)
	api.Get("/categories/:id/themes", s.GetCategoryThemes)
	api.Get("/categories/:id", s.GetCategory)
	api.Get("/themes", s.GetThemes)
	api.Get("/themes/:id/weather", s.GetThemeWeather)
	api.Get("/themes/:id/posts", s.GetThemePosts)
	api.Get("/themes/:id", s.GetTheme)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	protected.Post("/posts", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	protected.Delete("/posts/:id", s.DeletePost)

	protected.Post("/posts/:id/like", s.LikePost)
	protected.Delete("/posts/:id/like", s.UnlikePost)
	protected.Get("/posts/:id/like/check", s.CheckLike)
	protected.Get("/likes", s.GetLikes)

	// Taxonomy management (admin only)
	taxonomy := protected.Group("", s.AdminRequired())
	taxonomy.Post("/categories", s.CreateCategory)
	taxonomy.Put("/categories/:id", s.UpdateCategory)
	taxonomy.Delete("/categories/:id", s.DeleteCategory)
	taxonomy.Post("/themes", s.CreateTheme)
	taxonomy.Put("/themes/:id", s.UpdateTheme)
	taxonomy.Delete("/themes/:id", s.DeleteTheme)

	// Admin area (staff may view, role changes are admin-gated per handler)
	admin := protected.Group("/admin", s.StaffRequired())
	admin.Get("/users", s.GetUsers)
	admin.Patch("/users/:id/toggle-publish", s.TogglePublish)
	admin.Put("/users/:id/role", s.UpdateRole)
	admin.Get("/stats", s.GetStats)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app runs uncached without Redis; readiness only degrades, it
		// does not fail.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondError(c,
				models.NewUnauthenticatedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return models.RespondError(c,
				models.NewUnauthenticatedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondError(c,
				models.NewUnauthenticatedError("Invalid token claims"))
		}

		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != "basecamp-api" {
			return models.RespondError(c,
				models.NewUnauthenticatedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != "basecamp-client" {
			return models.RespondError(c,
				models.NewUnauthenticatedError("Invalid token audience"))
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondError(c,
				models.NewUnauthenticatedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondError(c,
				models.NewUnauthenticatedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
			blacklisted, err := s.redis.Exists(c.Context(), cache.BlacklistKey(jti)).Result()
			if err == nil && blacklisted > 0 {
				return models.RespondError(c,
					models.NewUnauthenticatedError("Token has been revoked"))
			}
		}

		c.Locals("userID", uint(userID))
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// StaffRequired rejects users that are neither admin nor moderator with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := s.currentUser(c)
		if err != nil {
			return models.RespondError(c, err)
		}
		if !actor.IsStaff() {
			return models.RespondError(c,
				models.NewUnauthorizedError("Admin or moderator access required"))
		}
		return c.Next()
	}
}

// AdminRequired rejects everyone but admins with 403. Must be placed after
// AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := s.currentUser(c)
		if err != nil {
			return models.RespondError(c, err)
		}
		if err := authz.Authorize(actor, authz.ActionManageTaxonomy, nil); err != nil {
			return models.RespondError(c, err)
		}
		return c.Next()
	}
}

// optionalUserID attempts to extract userID from the Authorization header but
// does not enforce it. Anonymous browsing of public routes stays possible.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(userID), true
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Basecamp API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondError(c, models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

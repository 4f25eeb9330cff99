package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"basecamp/internal/cache"
	"basecamp/internal/config"
	"basecamp/internal/database"
	"basecamp/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var emailSeq atomic.Uint64

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		JWTSecret:      "test-secret-key-not-for-production-use",
		WeatherTimeout: 1,
		Env:            "test",
	}
}

// newTestServer builds a server against an in-memory SQLite database and a
// miniredis instance, returning a Fiber app with all routes registered.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", emailSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

// useSharedCache points the package-level cache at a fresh miniredis so
// handler cache paths are exercised instead of degrading to the database.
func useSharedCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})
	return mr
}

func createUser(t *testing.T, s *Server, role string, canPublish bool) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	seq := emailSeq.Add(1)
	user := &models.User{
		Name:       fmt.Sprintf("user%d", seq),
		Email:      fmt.Sprintf("user%d@example.com", seq),
		Password:   string(hashed),
		Role:       role,
		CanPublish: canPublish,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func tokenFor(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID)
	require.NoError(t, err)
	return token
}

func createTheme(t *testing.T, s *Server, name string) *models.Theme {
	t.Helper()
	theme := &models.Theme{Name: name}
	require.NoError(t, s.db.Create(theme).Error)
	return theme
}

func createPost(t *testing.T, s *Server, user *models.User, theme *models.Theme, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:   title,
		Content: "content of " + title,
		UserID:  user.ID,
		ThemeID: theme.ID,
	}
	require.NoError(t, s.db.Create(post).Error)
	return post
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"basecamp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Uint64

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Theme{},
		&models.Post{},
		&models.Like{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		Name:       name,
		Email:      fmt.Sprintf("%s%d@example.com", name, dbSeq.Add(1)),
		Password:   "x",
		Role:       models.RoleUser,
		CanPublish: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTheme(t *testing.T, db *gorm.DB, name string) *models.Theme {
	t.Helper()
	theme := &models.Theme{Name: name}
	require.NoError(t, db.Create(theme).Error)
	return theme
}

func seedPost(t *testing.T, db *gorm.DB, user *models.User, theme *models.Theme, title string) *models.Post {
	t.Helper()
	post := &models.Post{Title: title, Content: "c", UserID: user.ID, ThemeID: theme.ID}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestLikeRepositoryIdempotency(t *testing.T) {
	db := setupDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "liker")
	theme := seedTheme(t, db, "t")
	post := seedPost(t, db, user, theme, "p")

	created, err := repo.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Like(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	db.Model(&models.Like{}).Count(&count)
	assert.Equal(t, int64(1), count)

	removed, err := repo.Unlike(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Unlike(ctx, user.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostRepositoryListFilters(t *testing.T) {
	db := setupDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	hiking := seedTheme(t, db, "hiking")
	vinyl := seedTheme(t, db, "vinyl")

	seedPost(t, db, alice, hiking, "Ridge traverse")
	seedPost(t, db, alice, vinyl, "Crate digging")
	seedPost(t, db, bob, hiking, "Valley loop")

	t.Run("theme filter", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{ThemeID: &hiking.ID}, "", "", 20, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, posts, 2)
	})

	t.Run("author id filter", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{AuthorID: &bob.ID}, "", "", 20, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("author name filter", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{AuthorName: "ali"}, "", "", 20, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("author id wins over name", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{AuthorID: &bob.ID, AuthorName: "alice"}, "", "", 20, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("text search spans title and content", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{Query: "traverse"}, "", "", 20, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("date bounds", func(t *testing.T) {
		future := time.Now().Add(time.Hour)
		_, total, err := repo.List(ctx, PostFilter{From: &future}, "", "", 20, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})
}

func TestPostRepositoryCountsAndLiked(t *testing.T) {
	db := setupDB(t)
	repo := NewPostRepository(db)
	likeRepo := NewLikeRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "author")
	fan := seedUser(t, db, "fan")
	theme := seedTheme(t, db, "t")
	post := seedPost(t, db, author, theme, "counted")

	reply := &models.Post{Title: "re", Content: "c", UserID: fan.ID, ThemeID: theme.ID, RepliedToID: &post.ID}
	require.NoError(t, db.Create(reply).Error)
	_, err := likeRepo.Like(ctx, fan.ID, post.ID)
	require.NoError(t, err)

	t.Run("projected counts", func(t *testing.T) {
		got, err := repo.GetByID(ctx, post.ID, fan.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.RepliesCount)
		assert.Equal(t, 1, got.LikesCount)
		require.NotNil(t, got.Liked)
		assert.True(t, *got.Liked)
	})

	t.Run("anonymous viewer has no liked flag", func(t *testing.T) {
		got, err := repo.GetByID(ctx, post.ID, 0)
		require.NoError(t, err)
		assert.Nil(t, got.Liked)
	})

	t.Run("counts helper", func(t *testing.T) {
		likes, replies, err := repo.Counts(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), likes)
		assert.Equal(t, int64(1), replies)
	})
}

func TestUserRepositoryListSort(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	quiet := seedUser(t, db, "quiet")
	busy := seedUser(t, db, "busy")
	theme := seedTheme(t, db, "t")
	seedPost(t, db, busy, theme, "one")
	seedPost(t, db, busy, theme, "two")

	users, total, err := repo.List(ctx, UserFilter{}, "posts_count", "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)
	assert.Equal(t, busy.ID, users[0].ID)
	assert.Equal(t, 2, users[0].PostsCount)
	assert.Equal(t, quiet.ID, users[1].ID)
}

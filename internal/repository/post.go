// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"
	"time"

	"basecamp/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows the post listing. AuthorID wins over AuthorName and the
// caller resolves theme name vs id precedence before building the filter.
type PostFilter struct {
	ThemeID    *uint
	AuthorID   *uint
	AuthorName string
	Query      string
	From       *time.Time
	To         *time.Time
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, sortBy, sortDir string, limit, offset int, currentUserID uint) ([]*models.Post, int64, error)
	Replies(ctx context.Context, parentID uint, limit, offset int, currentUserID uint) ([]*models.Post, int64, error)
	Delete(ctx context.Context, id uint) error
	Counts(ctx context.Context, postID uint) (likes int64, replies int64, err error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("Author").
		Preload("Theme").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, sortBy, sortDir string, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("posts.replied_to_id IS NULL")
	base = r.applyFilter(base, filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	query := r.applyPostDetails(base, currentUserID).
		Preload("Author").
		Preload("Theme")
	err := r.applySort(query, sortBy, sortDir).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) Replies(ctx context.Context, parentID uint, limit, offset int, currentUserID uint) ([]*models.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("posts.replied_to_id = ?", parentID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var replies []*models.Post
	err := r.applyPostDetails(base, currentUserID).
		Preload("Author").
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&replies).Error
	if err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	// Replies and likes go with the post. The FK cascades handle this in
	// PostgreSQL; doing it explicitly keeps SQLite-backed tests honest too.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var replyIDs []uint
		if err := tx.Model(&models.Post{}).
			Where("replied_to_id = ?", id).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		ids := append(replyIDs, id)
		if err := tx.Where("post_id IN ?", ids).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Post{}).Error
	})
}

func (r *postRepository) Counts(ctx context.Context, postID uint) (int64, int64, error) {
	var likes, replies int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID).Count(&likes).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("replied_to_id = ?", postID).Count(&replies).Error; err != nil {
		return 0, 0, err
	}
	return likes, replies, nil
}

func (r *postRepository) applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.ThemeID != nil {
		db = db.Where("posts.theme_id = ?", *filter.ThemeID)
	}
	if filter.AuthorID != nil {
		db = db.Where("posts.user_id = ?", *filter.AuthorID)
	} else if filter.AuthorName != "" {
		db = db.Where("posts.user_id IN (SELECT id FROM users WHERE LOWER(name) LIKE LOWER(?))", "%"+filter.AuthorName+"%")
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		db = db.Where("LOWER(posts.title) LIKE LOWER(?) OR LOWER(posts.content) LIKE LOWER(?)", like, like)
	}
	if filter.From != nil {
		db = db.Where("posts.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("posts.created_at <= ?", *filter.To)
	}
	return db
}

// NormalizePostSort whitelists the post sort inputs. Unknown fields fall
// back to created_at and anything but "asc" sorts descending. Handlers echo
// the normalized values in the response meta.
func NormalizePostSort(sortBy, sortDir string) (string, string) {
	switch sortBy {
	case "created_at", "replies_count", "likes_count", "title":
	default:
		sortBy = "created_at"
	}
	if strings.ToLower(sortDir) == "asc" {
		return sortBy, "asc"
	}
	return sortBy, "desc"
}

// applySort appends the ORDER BY clause for the requested sort column.
// replies_count and likes_count are SELECT aliases from applyPostDetails and
// may be referenced in ORDER BY at the same query level.
func (r *postRepository) applySort(db *gorm.DB, sortBy, sortDir string) *gorm.DB {
	sortBy, sortDir = NormalizePostSort(sortBy, sortDir)
	dir := strings.ToUpper(sortDir)
	switch sortBy {
	case "replies_count", "likes_count":
		return db.Order(sortBy + " " + dir + ", posts.created_at DESC")
	case "title":
		return db.Order("posts.title " + dir)
	default:
		return db.Order("posts.created_at " + dir)
	}
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM posts AS replies WHERE replies.replied_to_id = posts.id) as replies_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery)
}

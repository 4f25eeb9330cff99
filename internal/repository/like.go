package repository

import (
	"context"

	"basecamp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like ledger operations.
type LikeRepository interface {
	// Like records a like and reports whether a new row was created.
	// Re-liking an already liked post is a no-op.
	Like(ctx context.Context, userID, postID uint) (created bool, err error)
	// Unlike removes a like and reports whether a row was removed.
	Unlike(ctx context.Context, userID, postID uint) (removed bool, err error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Like, int64, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Like, int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	// INSERT ... ON CONFLICT DO NOTHING makes concurrent double-likes race
	// safely against the unique (user_id, post_id) index.
	like := models.Like{UserID: userID, PostID: postID}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(&like)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *likeRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *likeRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Like, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var likes []*models.Like
	err := base.
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&likes).Error
	if err != nil {
		return nil, 0, err
	}
	return likes, total, nil
}

func (r *likeRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Like, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ?", userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var likes []*models.Like
	err := base.
		Preload("Post").
		Preload("Post.Author").
		Preload("Post.Theme").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&likes).Error
	if err != nil {
		return nil, 0, err
	}
	return likes, total, nil
}

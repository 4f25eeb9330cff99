package repository

import (
	"context"
	"time"

	"basecamp/internal/models"

	"gorm.io/gorm"
)

// Stats is the admin dashboard aggregate. Recent windows cover the last 7 days.
type Stats struct {
	Users       int64 `json:"users"`
	Posts       int64 `json:"posts"`
	Themes      int64 `json:"themes"`
	Likes       int64 `json:"likes"`
	RecentUsers int64 `json:"recent_users"`
	RecentPosts int64 `json:"recent_posts"`
}

// StatsRepository defines the interface for aggregate statistics.
type StatsRepository interface {
	Collect(ctx context.Context) (*Stats, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Collect(ctx context.Context) (*Stats, error) {
	var stats Stats
	since := time.Now().AddDate(0, 0, -7)

	counts := []struct {
		model any
		dest  *int64
		where []any
	}{
		{&models.User{}, &stats.Users, nil},
		{&models.Post{}, &stats.Posts, nil},
		{&models.Theme{}, &stats.Themes, nil},
		{&models.Like{}, &stats.Likes, nil},
		{&models.User{}, &stats.RecentUsers, []any{"created_at >= ?", since}},
		{&models.Post{}, &stats.RecentPosts, []any{"created_at >= ?", since}},
	}

	for _, c := range counts {
		query := r.db.WithContext(ctx).Model(c.model)
		if c.where != nil {
			query = query.Where(c.where[0], c.where[1:]...)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return &stats, nil
}

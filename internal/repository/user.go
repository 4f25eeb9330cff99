package repository

import (
	"context"
	"strings"

	"basecamp/internal/models"

	"gorm.io/gorm"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string
	Role   string
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter UserFilter, sortBy, sortDir string, limit, offset int) ([]*models.User, int64, error)
	SetCanPublish(ctx context.Context, id uint, canPublish bool) error
	SetRole(ctx context.Context, id uint, role string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, sortBy, sortDir string, limit, offset int) ([]*models.User, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		base = base.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like)
	}
	if filter.Role != "" {
		base = base.Where("role = ?", filter.Role)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	query := base.Select("users.*, " +
		"(SELECT COUNT(*) FROM posts WHERE posts.user_id = users.id) as posts_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.user_id = users.id) as likes_count")
	err := r.applySort(query, sortBy, sortDir).
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// NormalizeUserSort whitelists the admin user sort inputs. Unknown fields
// fall back to created_at and anything but "asc" sorts descending.
func NormalizeUserSort(sortBy, sortDir string) (string, string) {
	switch sortBy {
	case "id", "name", "email", "role", "created_at", "posts_count":
	default:
		sortBy = "created_at"
	}
	if strings.ToLower(sortDir) == "asc" {
		return sortBy, "asc"
	}
	return sortBy, "desc"
}

func (r *userRepository) applySort(db *gorm.DB, sortBy, sortDir string) *gorm.DB {
	sortBy, sortDir = NormalizeUserSort(sortBy, sortDir)
	dir := strings.ToUpper(sortDir)
	switch sortBy {
	case "posts_count":
		return db.Order("posts_count " + dir + ", users.created_at DESC")
	case "created_at":
		return db.Order("users.created_at " + dir)
	default:
		return db.Order("users." + sortBy + " " + dir + ", users.created_at DESC")
	}
}

func (r *userRepository) SetCanPublish(ctx context.Context, id uint, canPublish bool) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("can_publish", canPublish).Error
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role).Error
}

package repository

import (
	"context"

	"basecamp/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines the interface for category data operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
	ThemeCount(ctx context.Context, id uint) (int64, error)
}

// ThemeRepository defines the interface for theme data operations.
type ThemeRepository interface {
	Create(ctx context.Context, theme *models.Theme) error
	GetByID(ctx context.Context, id uint) (*models.Theme, error)
	GetByName(ctx context.Context, name string) (*models.Theme, error)
	List(ctx context.Context, categoryID *uint) ([]*models.Theme, error)
	Update(ctx context.Context, theme *models.Theme) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Select("categories.*, (SELECT COUNT(*) FROM themes WHERE themes.category_id = categories.id) as themes_count").
		First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).
		Select("categories.*, (SELECT COUNT(*) FROM themes WHERE themes.category_id = categories.id) as themes_count").
		Order("categories.\"order\" ASC, categories.name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, id).Error
}

func (r *categoryRepository) ThemeCount(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Theme{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

type themeRepository struct {
	db *gorm.DB
}

// NewThemeRepository creates a new theme repository.
func NewThemeRepository(db *gorm.DB) ThemeRepository {
	return &themeRepository{db: db}
}

func (r *themeRepository) Create(ctx context.Context, theme *models.Theme) error {
	return r.db.WithContext(ctx).Create(theme).Error
}

func (r *themeRepository) GetByID(ctx context.Context, id uint) (*models.Theme, error) {
	var theme models.Theme
	err := r.db.WithContext(ctx).
		Select("themes.*, (SELECT COUNT(*) FROM posts WHERE posts.theme_id = themes.id) as posts_count").
		Preload("Category").
		First(&theme, id).Error
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

func (r *themeRepository) GetByName(ctx context.Context, name string) (*models.Theme, error) {
	var theme models.Theme
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&theme).Error
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

func (r *themeRepository) List(ctx context.Context, categoryID *uint) ([]*models.Theme, error) {
	query := r.db.WithContext(ctx).
		Select("themes.*, (SELECT COUNT(*) FROM posts WHERE posts.theme_id = themes.id) as posts_count").
		Preload("Category").
		Order("themes.name ASC")
	if categoryID != nil {
		query = query.Where("themes.category_id = ?", *categoryID)
	}

	var themes []*models.Theme
	err := query.Find(&themes).Error
	return themes, err
}

func (r *themeRepository) Update(ctx context.Context, theme *models.Theme) error {
	return r.db.WithContext(ctx).Save(theme).Error
}

func (r *themeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Theme{}, id).Error
}

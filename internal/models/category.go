package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Category is a top-level container grouping themes.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	Order       int       `gorm:"not null;default:0" json:"order"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Themes []Theme `gorm:"foreignKey:CategoryID" json:"themes,omitempty"`

	// ThemesCount is not persisted; computed at query time
	ThemesCount int `gorm:"->" json:"themes_count"`
}

// BeforeSave keeps the slug in lockstep with the name. The slug is always
// derived, never client-supplied.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	if c.Name != "" {
		c.Slug = slug.Make(c.Name)
	}
	return nil
}

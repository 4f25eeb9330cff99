package models

import "time"

// Theme is a discussion topic that posts attach to. A theme may carry a
// geolocation, which the weather endpoint uses.
type Theme struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null" json:"name"`
	Description  string    `json:"description"`
	CategoryID   *uint     `gorm:"index" json:"category_id,omitempty"`
	Category     *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// PostsCount is not persisted; computed at query time
	PostsCount int `gorm:"->" json:"posts_count"`
}

// HasLocation reports whether the theme carries coordinates usable for a
// weather lookup.
func (t *Theme) HasLocation() bool {
	return t.Latitude != nil && t.Longitude != nil
}

// Package seed populates the database with realistic development data.
package seed

import (
	"fmt"
	"log"

	"basecamp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder generates fake forum data.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll wipes seeded tables. Development use only.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, table := range []string{"likes", "posts", "themes", "categories", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// defaultCategories are the starter taxonomy every fresh install gets.
var defaultCategories = []struct {
	name        string
	description string
	themes      []string
}{
	{"Outdoors", "Trails, peaks and open water", []string{"Hiking", "Climbing", "Kayaking"}},
	{"Technology", "Software, hardware and everything between", []string{"Programming", "Homelab", "Gadgets"}},
	{"Culture", "Books, film and music", []string{"Reading", "Cinema", "Vinyl"}},
}

// SeedTaxonomy creates the default categories and themes. Idempotent on name.
func (s *Seeder) SeedTaxonomy() ([]models.Theme, error) {
	log.Println("Seeding categories and themes...")

	var themes []models.Theme
	for order, c := range defaultCategories {
		category := models.Category{
			Name:        c.name,
			Description: c.description,
			Order:       order,
			IsActive:    true,
		}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&category).Error; err != nil {
			return nil, err
		}
		if category.ID == 0 {
			if err := s.db.Where("name = ?", c.name).First(&category).Error; err != nil {
				return nil, err
			}
		}

		for _, name := range c.themes {
			lat := gofakeit.Latitude()
			lon := gofakeit.Longitude()
			theme := models.Theme{
				Name:         name,
				Description:  gofakeit.Sentence(8),
				CategoryID:   &category.ID,
				Latitude:     &lat,
				Longitude:    &lon,
				LocationName: gofakeit.City(),
			}
			if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&theme).Error; err != nil {
				return nil, err
			}
			if theme.ID != 0 {
				themes = append(themes, theme)
			}
		}
	}

	if len(themes) == 0 {
		if err := s.db.Find(&themes).Error; err != nil {
			return nil, err
		}
	}
	return themes, nil
}

// SeedUsers creates count users plus one admin and one moderator. Every
// seeded account uses the password "password123".
func (s *Seeder) SeedUsers(count int) ([]models.User, error) {
	log.Printf("Seeding %d users...", count)

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := []models.User{
		{Name: "Admin", Email: "admin@basecamp.local", Password: string(hashed), Role: models.RoleAdmin, CanPublish: true},
		{Name: "Moderator", Email: "moderator@basecamp.local", Password: string(hashed), Role: models.RoleModerator, CanPublish: true},
	}
	for i := 0; i < count; i++ {
		users = append(users, models.User{
			Name:       gofakeit.Name(),
			Email:      fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Password:   string(hashed),
			Role:       models.RoleUser,
			CanPublish: gofakeit.Number(0, 9) > 0, // roughly one in ten muted
		})
	}

	if err := s.db.CreateInBatches(&users, 50).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SeedPosts creates count top-level posts with replies and likes spread
// across the given users and themes.
func (s *Seeder) SeedPosts(users []models.User, themes []models.Theme, count int) error {
	if len(users) == 0 || len(themes) == 0 {
		return fmt.Errorf("need users and themes before seeding posts")
	}
	log.Printf("Seeding %d posts...", count)

	for i := 0; i < count; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		theme := themes[gofakeit.Number(0, len(themes)-1)]

		post := models.Post{
			Title:   gofakeit.Sentence(gofakeit.Number(3, 8)),
			Content: gofakeit.Paragraph(1, gofakeit.Number(2, 5), 12, "\n"),
			UserID:  author.ID,
			ThemeID: theme.ID,
		}
		if err := s.db.Create(&post).Error; err != nil {
			return err
		}

		for r := 0; r < gofakeit.Number(0, 4); r++ {
			replier := users[gofakeit.Number(0, len(users)-1)]
			reply := models.Post{
				Title:       "Re: " + post.Title,
				Content:     gofakeit.Sentence(gofakeit.Number(6, 20)),
				UserID:      replier.ID,
				ThemeID:     post.ThemeID,
				RepliedToID: &post.ID,
			}
			if err := s.db.Create(&reply).Error; err != nil {
				return err
			}
		}

		for l := 0; l < gofakeit.Number(0, 8); l++ {
			liker := users[gofakeit.Number(0, len(users)-1)]
			like := models.Like{UserID: liker.ID, PostID: post.ID}
			if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&like).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

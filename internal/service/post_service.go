// Package service contains the business rules sitting between HTTP handlers
// and repositories.
package service

import (
	"context"
	"errors"
	"strings"

	"basecamp/internal/authz"
	"basecamp/internal/models"
	"basecamp/internal/repository"

	"gorm.io/gorm"
)

// PostService owns post creation, deletion and the like ledger.
type PostService struct {
	postRepo  repository.PostRepository
	likeRepo  repository.LikeRepository
	themeRepo repository.ThemeRepository
	userRepo  repository.UserRepository
}

// CreatePostInput carries everything needed to create a post or reply.
// Exactly one of ThemeID/ThemeName is required for top-level posts; replies
// inherit the parent's theme and may omit both.
type CreatePostInput struct {
	UserID      uint
	Title       string
	Content     string
	ThemeID     *uint
	ThemeName   string
	RepliedToID *uint
}

// LikeResult is the payload for like and unlike operations.
type LikeResult struct {
	Message      string `json:"message"`
	Liked        bool   `json:"liked"`
	PostID       uint   `json:"post_id"`
	LikesCount   int64  `json:"likes_count"`
	RepliesCount int64  `json:"replies_count"`
}

const (
	maxTitleLen   = 255
	maxContentLen = 50000
)

// NewPostService creates a new post service.
func NewPostService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	themeRepo repository.ThemeRepository,
	userRepo repository.UserRepository,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		likeRepo:  likeRepo,
		themeRepo: themeRepo,
		userRepo:  userRepo,
	}
}

// CreatePost validates the input, resolves the theme and persists the post.
// Replies must land in the same theme as their parent.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	actor, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewUnauthenticatedError("Authentication required")
		}
		return nil, err
	}
	if err := authz.Authorize(actor, authz.ActionCreatePost, nil); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 255 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	var parent *models.Post
	if in.RepliedToID != nil {
		parent, err = s.postRepo.GetByID(ctx, *in.RepliedToID, 0)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewValidationError("Parent post not found")
			}
			return nil, err
		}
	}

	themeID, err := s.resolveTheme(ctx, in, parent)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:       in.Title,
		Content:     in.Content,
		UserID:      in.UserID,
		ThemeID:     themeID,
		RepliedToID: in.RepliedToID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// resolveTheme determines the theme a new post belongs to. Theme name wins
// over theme id when both are supplied. A reply with an explicit theme must
// agree with its parent's theme.
func (s *PostService) resolveTheme(ctx context.Context, in CreatePostInput, parent *models.Post) (uint, error) {
	var resolved *uint

	if name := strings.TrimSpace(in.ThemeName); name != "" {
		theme, err := s.themeRepo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, models.NewValidationError("Theme not found")
			}
			return 0, err
		}
		resolved = &theme.ID
	} else if in.ThemeID != nil {
		theme, err := s.themeRepo.GetByID(ctx, *in.ThemeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, models.NewValidationError("Theme not found")
			}
			return 0, err
		}
		resolved = &theme.ID
	}

	if parent != nil {
		if resolved != nil && *resolved != parent.ThemeID {
			return 0, models.NewValidationError("Reply must be in the same theme as its parent post")
		}
		return parent.ThemeID, nil
	}

	if resolved == nil {
		return 0, models.NewValidationError("Theme is required (theme name or theme_id)")
	}
	return *resolved, nil
}

// DeletePost removes a post after checking ownership. Replies and likes go
// with it.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post not found")
		}
		return err
	}

	if post.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}

	return s.postRepo.Delete(ctx, postID)
}

// LikePost records a like. Liking an already liked post is a no-op and still
// returns the current counts.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post not found")
		}
		return nil, err
	}

	created, err := s.likeRepo.Like(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	message := "Post already liked"
	if created {
		message = "Post liked"
	}
	return s.likeResult(ctx, message, true, postID)
}

// UnlikePost removes a like. Unliking a post that was never liked is a no-op.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post not found")
		}
		return nil, err
	}

	removed, err := s.likeRepo.Unlike(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	message := "Post was not liked"
	if removed {
		message = "Like removed"
	}
	return s.likeResult(ctx, message, false, postID)
}

func (s *PostService) likeResult(ctx context.Context, message string, liked bool, postID uint) (*LikeResult, error) {
	likes, replies, err := s.postRepo.Counts(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeResult{
		Message:      message,
		Liked:        liked,
		PostID:       postID,
		LikesCount:   likes,
		RepliesCount: replies,
	}, nil
}

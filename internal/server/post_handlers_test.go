package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"basecamp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostPublishGate(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Hiking")

	body := map[string]any{
		"title":    "First ascent",
		"content":  "Trip report",
		"theme_id": theme.ID,
	}

	t.Run("publisher may post", func(t *testing.T) {
		author := createUser(t, s, "user", true)
		resp := doJSON(t, app, http.MethodPost, "/api/posts", tokenFor(t, s, author), body)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("muted user is forbidden regardless of role", func(t *testing.T) {
		for _, role := range []string{"user", "moderator", "admin"} {
			muted := createUser(t, s, role, false)
			resp := doJSON(t, app, http.MethodPost, "/api/posts", tokenFor(t, s, muted), body)
			var errResp models.ErrorResponse
			decodeBody(t, resp, &errResp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, "role %s", role)
			assert.Equal(t, "Only users with publishing rights can create posts", errResp.Error)
		}
	})
}

func TestCreatePostThemeResolution(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Climbing")
	author := createUser(t, s, "user", true)
	token := tokenFor(t, s, author)

	t.Run("theme name resolves", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]any{
			"title": "By name", "content": "c", "theme": "Climbing",
		})
		var body struct {
			Message string      `json:"message"`
			Post    models.Post `json:"post"`
		}
		decodeBody(t, resp, &body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "Post created successfully", body.Message)
		assert.Equal(t, theme.ID, body.Post.ThemeID)
	})

	t.Run("missing theme is unprocessable", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]any{
			"title": "No theme", "content": "c",
		})
		var errResp models.ErrorResponse
		decodeBody(t, resp, &errResp)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Theme is required (theme name or theme_id)", errResp.Error)
	})

	t.Run("unknown theme is unprocessable", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]any{
			"title": "Ghost theme", "content": "c", "theme": "Nope",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestCreateReply(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Kayaking")
	otherTheme := createTheme(t, s, "Sailing")
	author := createUser(t, s, "user", true)
	token := tokenFor(t, s, author)
	parent := createPost(t, s, author, theme, "Parent")

	t.Run("reply inherits parent theme", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]any{
			"title": "Re: Parent", "content": "reply", "replied_to_id": parent.ID,
		})
		var body struct {
			Post models.Post `json:"post"`
		}
		decodeBody(t, resp, &body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, theme.ID, body.Post.ThemeID)
		require.NotNil(t, body.Post.RepliedToID)
		assert.Equal(t, parent.ID, *body.Post.RepliedToID)
	})

	t.Run("mismatched explicit theme is rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]any{
			"title": "Re: Parent", "content": "reply",
			"replied_to_id": parent.ID, "theme_id": otherTheme.ID,
		})
		var errResp models.ErrorResponse
		decodeBody(t, resp, &errResp)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Reply must be in the same theme as its parent post", errResp.Error)
	})

	t.Run("missing parent is rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", token, map[string]any{
			"title": "Re: Ghost", "content": "reply", "replied_to_id": 99999,
		})
		var errResp models.ErrorResponse
		decodeBody(t, resp, &errResp)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "Parent post not found", errResp.Error)
	})
}

type listResponse struct {
	Data []models.Post `json:"data"`
	Meta struct {
		CurrentPage int    `json:"current_page"`
		PerPage     int    `json:"per_page"`
		Total       int64  `json:"total"`
		LastPage    int    `json:"last_page"`
		SortBy      string `json:"sort_by"`
		SortDir     string `json:"sort_dir"`
	} `json:"meta"`
}

func TestGetPostsPaginationClamps(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Reading")
	author := createUser(t, s, "user", true)
	for i := 0; i < 12; i++ {
		createPost(t, s, author, theme, fmt.Sprintf("Post %02d", i))
	}

	tests := []struct {
		query   string
		perPage int
	}{
		{"", 20},
		{"?per_page=3", 5},
		{"?per_page=1000", 100},
		{"?per_page=-1", 5},
		{"?per_page=10&page=-5", 10},
	}

	for _, tt := range tests {
		t.Run("query "+tt.query, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodGet, "/api/posts"+tt.query, "", nil)
			var list listResponse
			decodeBody(t, resp, &list)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.perPage, list.Meta.PerPage)
			assert.Equal(t, int64(12), list.Meta.Total)
		})
	}
}

func TestGetPostsExcludesReplies(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Cinema")
	author := createUser(t, s, "user", true)
	parent := createPost(t, s, author, theme, "Top level")

	reply := &models.Post{
		Title: "Re: Top level", Content: "r",
		UserID: author.ID, ThemeID: theme.ID, RepliedToID: &parent.ID,
	}
	require.NoError(t, s.db.Create(reply).Error)

	resp := doJSON(t, app, http.MethodGet, "/api/posts", "", nil)
	var list listResponse
	decodeBody(t, resp, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Data, 1)
	assert.Equal(t, parent.ID, list.Data[0].ID)
	assert.Equal(t, int64(1), list.Meta.Total)
	assert.Equal(t, 1, list.Data[0].RepliesCount)
}

func TestGetPostsThemeFilterAffectsTotal(t *testing.T) {
	s, app := newTestServer(t)
	hiking := createTheme(t, s, "Hiking")
	vinyl := createTheme(t, s, "Vinyl")
	author := createUser(t, s, "user", true)
	for i := 0; i < 3; i++ {
		createPost(t, s, author, hiking, fmt.Sprintf("Hike %d", i))
	}
	createPost(t, s, author, vinyl, "Crate digging")

	t.Run("filter by theme name", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?theme=Hiking", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		assert.Equal(t, int64(3), list.Meta.Total)
		assert.Len(t, list.Data, 3)
	})

	t.Run("theme name wins over theme_id", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet,
			fmt.Sprintf("/api/posts?theme=Vinyl&theme_id=%d", hiking.ID), "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		assert.Equal(t, int64(1), list.Meta.Total)
	})

	t.Run("unknown theme name yields empty set", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?theme=Unknown", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		assert.Equal(t, int64(0), list.Meta.Total)
		assert.Empty(t, list.Data)
	})
}

func TestGetPostsDateRange(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "History")
	author := createUser(t, s, "user", true)

	createAt := func(title string, created time.Time) *models.Post {
		post := &models.Post{
			Title: title, Content: "c",
			UserID: author.ID, ThemeID: theme.ID,
			CreatedAt: created,
		}
		require.NoError(t, s.db.Create(post).Error)
		return post
	}

	early := createAt("Early", time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC))
	boundary := createAt("Boundary", time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	late := createAt("Late", time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	ids := func(list listResponse) []uint {
		out := make([]uint, 0, len(list.Data))
		for _, post := range list.Data {
			out = append(out, post.ID)
		}
		return out
	}

	t.Run("to includes posts created during the named day", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?to=2026-08-28", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(2), list.Meta.Total)
		assert.ElementsMatch(t, []uint{early.ID, boundary.ID}, ids(list))
	})

	t.Run("from includes the named day", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?from=2026-08-28", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		assert.ElementsMatch(t, []uint{boundary.ID, late.ID}, ids(list))
	})

	t.Run("same from and to narrows to one day", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?from=2026-08-28&to=2026-08-28", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		assert.ElementsMatch(t, []uint{boundary.ID}, ids(list))
	})

	t.Run("invalid dates are ignored", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?from=yesterday&to=someday", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		assert.Equal(t, int64(3), list.Meta.Total)
	})
}

func TestGetPostsSort(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Gadgets")
	author := createUser(t, s, "user", true)
	liker := createUser(t, s, "user", true)

	quiet := createPost(t, s, author, theme, "B quiet post")
	popular := createPost(t, s, author, theme, "A popular post")
	require.NoError(t, s.db.Create(&models.Like{UserID: liker.ID, PostID: popular.ID}).Error)

	t.Run("likes_count sorts by popularity", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?sort_by=likes_count", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		require.Len(t, list.Data, 2)
		assert.Equal(t, popular.ID, list.Data[0].ID)
		assert.Equal(t, 1, list.Data[0].LikesCount)
	})

	t.Run("title sorts alphabetically ascending", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?sort_by=title&sort_dir=asc", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		require.Len(t, list.Data, 2)
		assert.Equal(t, popular.ID, list.Data[0].ID)
		assert.Equal(t, "title", list.Meta.SortBy)
		assert.Equal(t, "asc", list.Meta.SortDir)
	})

	t.Run("sort direction defaults to descending", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?sort_by=title", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		require.Len(t, list.Data, 2)
		assert.Equal(t, quiet.ID, list.Data[0].ID)
		assert.Equal(t, "desc", list.Meta.SortDir)
	})

	t.Run("unknown sort falls back silently", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts?sort_by=drop+table", "", nil)
		var list listResponse
		decodeBody(t, resp, &list)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, list.Data, 2)
		assert.Equal(t, "created_at", list.Meta.SortBy)
	})
}

func TestIsLikedVisibility(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Homelab")
	author := createUser(t, s, "user", true)
	fan := createUser(t, s, "user", true)
	post := createPost(t, s, author, theme, "Rack build")
	require.NoError(t, s.db.Create(&models.Like{UserID: fan.ID, PostID: post.ID}).Error)

	t.Run("anonymous viewer gets no is_liked", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
		var body map[string]any
		decodeBody(t, resp, &body)
		_, present := body["is_liked"]
		assert.False(t, present)
	})

	t.Run("authenticated viewer sees their own flag", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, s, fan), nil)
		var got models.Post
		decodeBody(t, resp, &got)
		require.NotNil(t, got.Liked)
		assert.True(t, *got.Liked)
	})

	t.Run("non liker sees false", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, s, author), nil)
		var got models.Post
		decodeBody(t, resp, &got)
		require.NotNil(t, got.Liked)
		assert.False(t, *got.Liked)
	})
}

func TestDeletePostOwnership(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Programming")
	author := createUser(t, s, "user", true)
	stranger := createUser(t, s, "admin", true)
	post := createPost(t, s, author, theme, "Mine")

	t.Run("non owner is forbidden", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, s, stranger), nil)
		var errResp models.ErrorResponse
		decodeBody(t, resp, &errResp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "You can only delete your own posts", errResp.Error)
	})

	t.Run("owner deletes, replies and likes cascade", func(t *testing.T) {
		reply := &models.Post{
			Title: "Re: Mine", Content: "r",
			UserID: stranger.ID, ThemeID: theme.ID, RepliedToID: &post.ID,
		}
		require.NoError(t, s.db.Create(reply).Error)
		require.NoError(t, s.db.Create(&models.Like{UserID: stranger.ID, PostID: post.ID}).Error)

		resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, s, author), nil)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var posts, likes int64
		s.db.Model(&models.Post{}).Count(&posts)
		s.db.Model(&models.Like{}).Count(&likes)
		assert.Equal(t, int64(0), posts)
		assert.Equal(t, int64(0), likes)
	})

	t.Run("deleting a missing post is 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, "/api/posts/424242", tokenFor(t, s, author), nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetReplies(t *testing.T) {
	s, app := newTestServer(t)
	theme := createTheme(t, s, "Reading")
	author := createUser(t, s, "user", true)
	parent := createPost(t, s, author, theme, "Book club")

	for i := 0; i < 3; i++ {
		reply := &models.Post{
			Title: fmt.Sprintf("Re %d", i), Content: "r",
			UserID: author.ID, ThemeID: theme.ID, RepliedToID: &parent.ID,
		}
		require.NoError(t, s.db.Create(reply).Error)
	}

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d/replies", parent.ID), "", nil)
	var list listResponse
	decodeBody(t, resp, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), list.Meta.Total)
	assert.Len(t, list.Data, 3)

	t.Run("missing parent is 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts/99999/replies", "", nil)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

package services

import (
	"fmt"
	"sync"
	"testing"

	"tipsvendor/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPost(title string, published bool) *models.Post {
	return &models.Post{
		Title:       title,
		Description: longText(120),
		Published:   published,
	}
}

func TestPostService_CreatePost(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPostService(env.repos.Posts, env.repos.Comments, env.repos.Categories, nil)
	svc.now = fixedClock(testNow)
	author := &models.User{ID: "author-1"}

	t.Run("valid post", func(t *testing.T) {
		post := newTestPost("Weekend Accumulator Tips", true)
		require.NoError(t, svc.CreatePost(post, author))
		assert.NotZero(t, post.ID)
		assert.Equal(t, "weekend-accumulator-tips", post.Slug)
		assert.Equal(t, "author-1", post.AuthorID)
		assert.Equal(t, testNow, post.CreatedAt)
		assert.Equal(t, testNow, post.UpdatedAt)
	})

	t.Run("short description", func(t *testing.T) {
		post := newTestPost("Too Short", true)
		post.Description = "tiny"
		assertFieldError(t, svc.CreatePost(post, author), "description")
	})

	t.Run("duplicate slug", func(t *testing.T) {
		require.NoError(t, svc.CreatePost(newTestPost("Derby Preview", true), author))
		assertFieldError(t, svc.CreatePost(newTestPost("Derby  Preview", true), author), "slug")
	})

	t.Run("unknown category", func(t *testing.T) {
		post := newTestPost("Category Check", true)
		post.CategoryID = 99
		assertFieldError(t, svc.CreatePost(post, author), "category_id")
	})

	t.Run("known category", func(t *testing.T) {
		cat := &models.Category{Name: "Premier League", CreatedAt: testNow}
		require.NoError(t, cat.Validate())
		require.NoError(t, env.repos.Categories.Create(cat))

		post := newTestPost("Matchday Thirty", true)
		post.CategoryID = cat.ID
		assert.NoError(t, svc.CreatePost(post, author))
	})
}

func TestPostService_ListPosts(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPostService(env.repos.Posts, env.repos.Comments, env.repos.Categories, nil)
	for i := 1; i <= 5; i++ {
		require.NoError(t, svc.CreatePost(newTestPost(fmt.Sprintf("Post number %d", i), i != 3), nil))
	}

	t.Run("published first page", func(t *testing.T) {
		page, err := svc.ListPosts(PostQuery{Page: 1, PerPage: 2, PublishedOnly: true})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Post number 5", page.Items[0].Title)
		assert.Equal(t, "Post number 4", page.Items[1].Title)
		assert.Equal(t, 4, page.Total)
		assert.Equal(t, 2, page.TotalPages())
		assert.False(t, page.HasPrev())
		assert.True(t, page.HasNext())
	})

	t.Run("published second page skips draft", func(t *testing.T) {
		page, err := svc.ListPosts(PostQuery{Page: 2, PerPage: 2, PublishedOnly: true})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Post number 2", page.Items[0].Title)
		assert.Equal(t, "Post number 1", page.Items[1].Title)
		assert.True(t, page.HasPrev())
		assert.False(t, page.HasNext())
	})

	t.Run("defaults", func(t *testing.T) {
		page, err := svc.ListPosts(PostQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, defaultPerPage, page.PerPage)
		assert.Len(t, page.Items, 5)
	})

	t.Run("page size is capped", func(t *testing.T) {
		page, err := svc.ListPosts(PostQuery{PerPage: 100000})
		require.NoError(t, err)
		assert.Equal(t, MaxPerPage, page.PerPage)
	})
}

func TestPostService_ViewPost(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPostService(env.repos.Posts, env.repos.Comments, env.repos.Categories, nil)
	require.NoError(t, svc.CreatePost(newTestPost("Published Post", true), nil))
	require.NoError(t, svc.CreatePost(newTestPost("Draft Post", false), nil))

	t.Run("counts views", func(t *testing.T) {
		post, err := svc.ViewPost("published-post", false)
		require.NoError(t, err)
		assert.Equal(t, 1, post.Views)

		post, err = svc.ViewPost("published-post", false)
		require.NoError(t, err)
		assert.Equal(t, 2, post.Views)
	})

	t.Run("draft hidden", func(t *testing.T) {
		_, err := svc.ViewPost("draft-post", false)
		assert.True(t, IsNotFound(err))

		post, err := svc.ViewPost("draft-post", true)
		require.NoError(t, err)
		assert.Equal(t, "Draft Post", post.Title)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.ViewPost("nope", true)
		assert.True(t, IsNotFound(err))
	})
}

func TestPostService_ViewPostConcurrently(t *testing.T) {
	env := newBadgerEnv(t)
	svc := NewPostService(env.repos.Posts, env.repos.Comments, env.repos.Categories, nil)
	require.NoError(t, svc.CreatePost(newTestPost("Popular Preview", true), nil))

	const readers = 50
	var wg sync.WaitGroup
	errs := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ViewPost("popular-preview", false); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	post, err := svc.GetPostBySlug("popular-preview")
	require.NoError(t, err)
	assert.Equal(t, readers, post.Views)
}

func TestPostService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPostService(env.repos.Posts, env.repos.Comments, env.repos.Categories, nil)
	svc.now = fixedClock(testNow)
	post := newTestPost("Original Title", true)
	require.NoError(t, svc.CreatePost(post, &models.User{ID: "author-1"}))

	t.Run("update keeps server fields", func(t *testing.T) {
		update := newTestPost("Updated Title", true)
		update.ID = post.ID
		update.Slug = "updated-title"
		update.AuthorID = "someone-else"
		update.Views = 1000
		require.NoError(t, svc.UpdatePost(update))

		got, err := svc.GetPost(post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", got.Title)
		assert.Equal(t, "author-1", got.AuthorID)
		assert.Equal(t, 0, got.Views)
		assert.Equal(t, testNow, got.CreatedAt)
	})

	t.Run("update missing", func(t *testing.T) {
		update := newTestPost("Ghost Post", true)
		update.ID = 42
		assert.True(t, IsNotFound(svc.UpdatePost(update)))
	})

	t.Run("delete cascades comments", func(t *testing.T) {
		comments := NewCommentService(env.repos.Comments, env.repos.Posts)
		require.NoError(t, comments.CreateComment(&models.Comment{PostID: post.ID, Author: "Reader", Content: "Nice"}))

		require.NoError(t, svc.DeletePost(post.ID))
		_, err := svc.GetPost(post.ID)
		assert.True(t, IsNotFound(err))

		left, err := env.repos.Comments.ListByPost(post.ID)
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

package services

import (
	"testing"

	"tipsvendor/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSEOPage(path string, published bool) *models.SEOPage {
	return &models.SEOPage{
		Path:            path,
		Title:           "Best Football Tips Today",
		MetaDescription: "Daily football predictions.",
		Content:         longText(150),
		Published:       published,
	}
}

func TestIsReservedPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/":                   true,
		"/admin":              true,
		"/admin/posts":        true,
		"/blog/some-post":     true,
		"/api/posts":          true,
		"/best-tips":          false,
		"/administrator":      false,
		"/football/under-2-5": false,
	} {
		assert.Equal(t, want, IsReservedPath(path), path)
	}
}

func TestSEOService(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSEOService(env.repos.SEOPages)
	svc.now = fixedClock(testNow)

	live := newTestSEOPage("Best-Tips/", true)
	require.NoError(t, svc.Create(live))
	assert.Equal(t, "/best-tips", live.Path)
	assert.Equal(t, testNow, live.CreatedAt)

	draft := newTestSEOPage("/coming-soon", false)
	require.NoError(t, svc.Create(draft))

	t.Run("reserved path", func(t *testing.T) {
		assertFieldError(t, svc.Create(newTestSEOPage("/admin/seo", true)), "path")
	})

	t.Run("duplicate path", func(t *testing.T) {
		assertFieldError(t, svc.Create(newTestSEOPage("/best-tips", true)), "path")
	})

	t.Run("invalid page", func(t *testing.T) {
		page := newTestSEOPage("/thin-content", true)
		page.Content = "too short"
		assertFieldError(t, svc.Create(page), "content")
	})

	t.Run("published lookup", func(t *testing.T) {
		page, err := svc.Published("/BEST-TIPS")
		require.NoError(t, err)
		assert.Equal(t, live.ID, page.ID)

		_, err = svc.Published("/coming-soon")
		assert.True(t, IsNotFound(err))

		_, err = svc.Published("/nothing-here")
		assert.True(t, IsNotFound(err))
	})

	t.Run("update path", func(t *testing.T) {
		edit := newTestSEOPage("/sure-tips", true)
		edit.ID = draft.ID
		require.NoError(t, svc.Update(edit))

		page, err := svc.Published("/sure-tips")
		require.NoError(t, err)
		assert.Equal(t, draft.ID, page.ID)

		clash := newTestSEOPage("/best-tips", true)
		clash.ID = draft.ID
		assertFieldError(t, svc.Update(clash), "path")
	})

	t.Run("list and delete", func(t *testing.T) {
		pages, err := svc.List()
		require.NoError(t, err)
		assert.Len(t, pages, 2)

		require.NoError(t, svc.Delete(live.ID))
		_, err = svc.Get(live.ID)
		assert.True(t, IsNotFound(err))
	})
}

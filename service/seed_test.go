package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/repositories/mock"
)

const seedYAML = `
categories:
  - name: Premier League
    description: English top flight
  - name: Match Previews
    slug: previews
posts:
  - title: How we pick our tips
    category: previews
    published: true
    description: >
      Every tip on the site starts with form, injuries and the market. This post
      walks through the checks we run before a selection is published.
predictions:
  - league: Premier League
    home_team: Arsenal
    away_team: Chelsea
    kickoff_at: 2030-08-16T15:00:00Z
    tip: Over 2.5
    odds: "1.85"
    confidence: 70
    plan: free
  - league: La Liga
    home_team: Sevilla
    away_team: Betis
    kickoff_at: 2030-08-17T19:00:00Z
    tip: Home win
    odds: "2.10"
    confidence: 55
    plan: vip
seo_pages:
  - path: /best-football-tips
    title: Best football tips
    meta_description: Daily football tips from our analysts.
    published: true
    content: >
      Our analysts publish free football tips every day and a VIP card for
      subscribers, with every result recorded on the site.
wallet:
  currency: NGN
  min_deposit: "500"
  plans:
    - name: weekly
      label: One week
      amount: "2500"
      days: 7
`

func TestSeed(t *testing.T) {
	repos := mock.NewRepositories()

	counts, err := Seed(repos, []byte(seedYAML))
	require.NoError(t, err)
	assert.Equal(t, SeedCounts{Categories: 2, Posts: 1, Predictions: 2, SEOPages: 1, Wallet: true}, counts)

	category, err := repos.Categories.GetBySlug("premier-league")
	require.NoError(t, err)
	assert.Equal(t, "Premier League", category.Name)

	previews, err := repos.Categories.GetBySlug("previews")
	require.NoError(t, err)
	post, err := repos.Posts.GetBySlug("how-we-pick-our-tips")
	require.NoError(t, err)
	assert.Equal(t, previews.ID, post.CategoryID)
	assert.True(t, post.Published)

	predictions, err := repos.Predictions.List(repositories.PredictionFilter{Plan: models.PlanVIP})
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, "Sevilla", predictions[0].HomeTeam)
	assert.Equal(t, "2.1", predictions[0].Odds.String())

	page, err := repos.SEOPages.GetByPath("/best-football-tips")
	require.NoError(t, err)
	assert.True(t, page.Published)

	settings, err := repos.Settings.GetWalletSettings()
	require.NoError(t, err)
	require.Len(t, settings.Plans, 1)
	assert.Equal(t, "weekly", settings.Plans[0].Name)
	assert.Equal(t, "500", settings.MinDeposit.String())
}

func TestSeed_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Seed(mock.NewRepositories(), []byte("categories: [\n"))
		assert.Error(t, err)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := Seed(mock.NewRepositories(), []byte("posts:\n  - title: Orphan post\n    category: nowhere\n"))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("bad odds", func(t *testing.T) {
		counts, err := Seed(mock.NewRepositories(), []byte("categories:\n  - name: Serie A\npredictions:\n  - odds: lots\n"))
		assert.Error(t, err)
		assert.Equal(t, 1, counts.Categories)
	})

	t.Run("invalid record", func(t *testing.T) {
		_, err := Seed(mock.NewRepositories(), []byte("seo_pages:\n  - path: no-slash\n    title: x\n"))
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestSeedCommand(t *testing.T) {
	cfg, out := setupTestEnv(t, "")
	file := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(file, []byte(seedYAML), 0o644))

	assert.Equal(t, 0, HandleCommand([]string{"seed", file}))
	assert.Contains(t, out.String(), "Seeded 2 categories, 1 posts, 2 predictions and 1 SEO pages")
	assert.Contains(t, out.String(), "Wallet settings saved")

	store, err := repositories.Open(cfg.DBPath)
	require.NoError(t, err)
	defer store.Close()
	_, err = store.Repositories().Posts.GetBySlug("how-we-pick-our-tips")
	assert.NoError(t, err)
}

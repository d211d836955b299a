package service

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tipsvendor/app/config"
	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
)

// SeedFile is the YAML layout accepted by the seed command. Money and odds
// are strings so they keep their exact decimal value.
type SeedFile struct {
	Categories []struct {
		Name        string `yaml:"name"`
		Slug        string `yaml:"slug"`
		Description string `yaml:"description"`
	} `yaml:"categories"`
	Posts []struct {
		Title       string `yaml:"title"`
		Category    string `yaml:"category"`
		Excerpt     string `yaml:"excerpt"`
		Description string `yaml:"description"`
		Published   bool   `yaml:"published"`
	} `yaml:"posts"`
	Predictions []struct {
		League     string    `yaml:"league"`
		HomeTeam   string    `yaml:"home_team"`
		AwayTeam   string    `yaml:"away_team"`
		KickoffAt  time.Time `yaml:"kickoff_at"`
		Tip        string    `yaml:"tip"`
		Odds       string    `yaml:"odds"`
		Confidence int       `yaml:"confidence"`
		Plan       string    `yaml:"plan"`
		Analysis   string    `yaml:"analysis"`
	} `yaml:"predictions"`
	SEOPages []struct {
		Path            string `yaml:"path"`
		Title           string `yaml:"title"`
		MetaDescription string `yaml:"meta_description"`
		Keywords        string `yaml:"keywords"`
		Content         string `yaml:"content"`
		Published       bool   `yaml:"published"`
	} `yaml:"seo_pages"`
	Wallet *struct {
		Currency      string `yaml:"currency"`
		MinDeposit    string `yaml:"min_deposit"`
		MinWithdrawal string `yaml:"min_withdrawal"`
		Plans         []struct {
			Name   string `yaml:"name"`
			Label  string `yaml:"label"`
			Amount string `yaml:"amount"`
			Days   int    `yaml:"days"`
		} `yaml:"plans"`
	} `yaml:"wallet"`
}

// SeedCounts reports how many records of each kind were created.
type SeedCounts struct {
	Categories, Posts, Predictions, SEOPages int
	Wallet                                   bool
}

func seed(cfg *config.Config, path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		outf("Failed to read seed file: %v\n", err)
		return 1
	}
	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		outf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	counts, err := Seed(store.Repositories(), raw)
	if err != nil {
		outf("Failed to seed database: %v\n", err)
		return 1
	}
	outf("Seeded %d categories, %d posts, %d predictions and %d SEO pages\n",
		counts.Categories, counts.Posts, counts.Predictions, counts.SEOPages)
	if counts.Wallet {
		outln("Wallet settings saved")
	}
	return 0
}

// Seed loads a YAML seed document through the services so every record
// passes the same validation as the admin screens. It stops at the first
// invalid record.
func Seed(repos repositories.Repositories, raw []byte) (SeedCounts, error) {
	var counts SeedCounts
	var file SeedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return counts, errors.Wrap(err, "parsing seed file")
	}

	subs := services.NewSubscriptionService(repos.Users)
	categories := services.NewCategoryService(repos.Categories, repos.Posts)
	posts := services.NewPostService(repos.Posts, repos.Comments, repos.Categories, nil)
	predictions := services.NewPredictionService(repos.Predictions, subs, nil)
	seo := services.NewSEOService(repos.SEOPages)
	wallet := services.NewWalletService(repos.Wallets, repos.Settings, repos.Transactions, repos.Users, subs, nil)

	for _, c := range file.Categories {
		category := &models.Category{Name: c.Name, Slug: c.Slug, Description: c.Description}
		if err := categories.Create(category); err != nil {
			return counts, errors.Wrapf(err, "category %q", c.Name)
		}
		counts.Categories++
	}

	for _, p := range file.Posts {
		post := &models.Post{Title: p.Title, Excerpt: p.Excerpt, Description: p.Description, Published: p.Published}
		if p.Category != "" {
			category, err := categories.GetBySlug(p.Category)
			if err != nil {
				return counts, errors.Wrapf(err, "post %q: category %q", p.Title, p.Category)
			}
			post.CategoryID = category.ID
		}
		if err := posts.CreatePost(post, nil); err != nil {
			return counts, errors.Wrapf(err, "post %q", p.Title)
		}
		counts.Posts++
	}

	for _, p := range file.Predictions {
		odds, err := decimal.NewFromString(p.Odds)
		if err != nil {
			return counts, errors.Wrapf(err, "prediction %s v %s: odds", p.HomeTeam, p.AwayTeam)
		}
		prediction := &models.Prediction{
			League:     p.League,
			HomeTeam:   p.HomeTeam,
			AwayTeam:   p.AwayTeam,
			KickoffAt:  p.KickoffAt.UTC(),
			Tip:        p.Tip,
			Odds:       odds,
			Confidence: p.Confidence,
			Plan:       p.Plan,
			Analysis:   p.Analysis,
		}
		if err := predictions.Create(prediction); err != nil {
			return counts, errors.Wrapf(err, "prediction %s v %s", p.HomeTeam, p.AwayTeam)
		}
		counts.Predictions++
	}

	for _, p := range file.SEOPages {
		page := &models.SEOPage{
			Path:            p.Path,
			Title:           p.Title,
			MetaDescription: p.MetaDescription,
			Keywords:        p.Keywords,
			Content:         p.Content,
			Published:       p.Published,
		}
		if err := seo.Create(page); err != nil {
			return counts, errors.Wrapf(err, "seo page %q", p.Path)
		}
		counts.SEOPages++
	}

	if w := file.Wallet; w != nil {
		settings, err := wallet.Settings()
		if err != nil {
			return counts, err
		}
		if w.Currency != "" {
			settings.Currency = w.Currency
		}
		if w.MinDeposit != "" {
			if settings.MinDeposit, err = decimal.NewFromString(w.MinDeposit); err != nil {
				return counts, errors.Wrap(err, "wallet min_deposit")
			}
		}
		if w.MinWithdrawal != "" {
			if settings.MinWithdrawal, err = decimal.NewFromString(w.MinWithdrawal); err != nil {
				return counts, errors.Wrap(err, "wallet min_withdrawal")
			}
		}
		if len(w.Plans) > 0 {
			settings.Plans = settings.Plans[:0]
			for _, p := range w.Plans {
				amount, err := decimal.NewFromString(p.Amount)
				if err != nil {
					return counts, errors.Wrapf(err, "plan %q amount", p.Name)
				}
				settings.Plans = append(settings.Plans, models.PlanPrice{Name: p.Name, Label: p.Label, Amount: amount, Days: p.Days})
			}
		}
		if err := wallet.UpdateSettings(settings); err != nil {
			return counts, errors.Wrap(err, "wallet settings")
		}
		counts.Wallet = true
	}
	return counts, nil
}

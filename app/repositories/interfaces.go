package repositories

import (
	"time"

	"tipsvendor/app/models"
)

// UserRepository defines the interface for user account storage
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	List() ([]*models.User, error)
	Update(user *models.User) error
	Delete(id string) error
}

// PostFilter narrows post listings. Zero values mean "any".
type PostFilter struct {
	CategoryID    int
	PublishedOnly bool
	Limit         int
	Offset        int
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	GetBySlug(slug string) (*models.Post, error)
	List(filter PostFilter) ([]*models.Post, error)
	Count(filter PostFilter) (int, error)
	Update(post *models.Post) error
	IncrementViews(id int) (int, error)
	Delete(id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id int) (*models.Comment, error)
	ListByPost(postID int) ([]*models.Comment, error)
	Update(comment *models.Comment) error
	Delete(id int) error
}

// CategoryRepository defines the interface for blog category storage
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id int) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	List() ([]*models.Category, error)
	Update(category *models.Category) error
	Delete(id int) error
}

// PredictionFilter narrows prediction listings by plan and kickoff window.
type PredictionFilter struct {
	Plan  string
	From  time.Time
	To    time.Time
	Limit int
}

// PredictionRepository defines the interface for tip storage
type PredictionRepository interface {
	Create(prediction *models.Prediction) error
	GetByID(id int) (*models.Prediction, error)
	List(filter PredictionFilter) ([]*models.Prediction, error)
	Update(prediction *models.Prediction) error
	Delete(id int) error
}

// SEOPageRepository defines the interface for SEO landing page storage
type SEOPageRepository interface {
	Create(page *models.SEOPage) error
	GetByID(id int) (*models.SEOPage, error)
	GetByPath(path string) (*models.SEOPage, error)
	List() ([]*models.SEOPage, error)
	Update(page *models.SEOPage) error
	Delete(id int) error
}

// WalletRepository stores one wallet per user
type WalletRepository interface {
	Get(userID string) (*models.Wallet, error)
	Save(wallet *models.Wallet) error
}

// SettingsRepository stores site-wide singleton documents
type SettingsRepository interface {
	GetWalletSettings() (*models.WalletSettings, error)
	SaveWalletSettings(settings *models.WalletSettings) error
}

// TransactionRepository defines the interface for wallet transaction storage
type TransactionRepository interface {
	Create(tx *models.Transaction) error
	GetByReference(reference string) (*models.Transaction, error)
	ListByUser(userID string) ([]*models.Transaction, error)
	Update(tx *models.Transaction) error
	// Resolve moves a pending transaction to status, crediting the wallet
	// for successful deposits; changed is false if it was no longer pending.
	Resolve(reference, status string, at time.Time) (tx *models.Transaction, changed bool, err error)
}

// Repositories bundles every repository the services need.
type Repositories struct {
	Users        UserRepository
	Posts        PostRepository
	Comments     CommentRepository
	Categories   CategoryRepository
	Predictions  PredictionRepository
	SEOPages     SEOPageRepository
	Wallets      WalletRepository
	Settings     SettingsRepository
	Transactions TransactionRepository
}

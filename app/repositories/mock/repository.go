// Package mock provides in-memory repositories for service and controller tests.
package mock

import (
	"sort"
	"strings"
	"sync"
	"time"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewRepositories returns a fresh set of in-memory repositories.
// Deleting a post also drops its comments, matching the Badger store.
func NewRepositories() repositories.Repositories {
	comments := NewCommentRepository()
	posts := NewPostRepository()
	posts.comments = comments
	wallets := NewWalletRepository()
	return repositories.Repositories{
		Users:        NewUserRepository(),
		Posts:        posts,
		Comments:     comments,
		Categories:   NewCategoryRepository(),
		Predictions:  NewPredictionRepository(),
		SEOPages:     NewSEOPageRepository(),
		Wallets:      wallets,
		Settings:     NewSettingsRepository(),
		Transactions: NewTransactionRepository(wallets),
	}
}

type UserRepository struct {
	users map[string]*models.User
	mutex sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*models.User)}
}

func (m *UserRepository) Create(user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	for _, u := range m.users {
		if u.ID == user.ID || strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *UserRepository) GetByID(id string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return user, nil
}

func (m *UserRepository) GetByEmail(email string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) List() ([]*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *UserRepository) Update(user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return repositories.ErrNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrDuplicate
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *UserRepository) Delete(id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.users[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type PostRepository struct {
	posts    map[int]*models.Post
	nextID   int
	mutex    sync.RWMutex
	comments *CommentRepository
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]*models.Post),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]*models.Post)
	m.nextID = 1
}

func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, p := range m.posts {
		if p.Slug == post.Slug {
			return repositories.ErrDuplicate
		}
	}
	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = post
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return post, nil
}

func (m *PostRepository) GetBySlug(slug string) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, p := range m.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *PostRepository) Update(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	for _, p := range m.posts {
		if p.ID != post.ID && p.Slug == post.Slug {
			return repositories.ErrDuplicate
		}
	}
	m.posts[post.ID] = post
	return nil
}

func (m *PostRepository) IncrementViews(id int) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	post, exists := m.posts[id]
	if !exists {
		return 0, repositories.ErrNotFound
	}
	post.Views++
	return post.Views, nil
}

func (m *PostRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	if m.comments != nil {
		m.comments.deleteForPost(id)
	}
	return nil
}

// List returns matching posts newest first, like the Badger implementation.
func (m *PostRepository) List(filter repositories.PostFilter) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var posts []*models.Post
	count := 0
	for id := m.nextID - 1; id >= 1; id-- {
		post, exists := m.posts[id]
		if !exists {
			continue
		}
		if filter.PublishedOnly && !post.Published {
			continue
		}
		if filter.CategoryID > 0 && post.CategoryID != filter.CategoryID {
			continue
		}
		if count >= filter.Offset && (filter.Limit <= 0 || len(posts) < filter.Limit) {
			posts = append(posts, post)
		}
		count++
	}
	return posts, nil
}

func (m *PostRepository) Count(filter repositories.PostFilter) (int, error) {
	filter.Limit, filter.Offset = 0, 0
	posts, err := m.List(filter)
	return len(posts), err
}

type CommentRepository struct {
	comments map[int]*models.Comment
	nextID   int
	mutex    sync.RWMutex
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[int]*models.Comment),
		nextID:   1,
	}
}

func (m *CommentRepository) Create(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.ID = m.nextID
	m.nextID++
	m.comments[comment.ID] = comment
	return nil
}

func (m *CommentRepository) GetByID(id int) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comment, exists := m.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return comment, nil
}

func (m *CommentRepository) Update(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.comments[comment.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.comments[comment.ID] = comment
	return nil
}

func (m *CommentRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var comments []*models.Comment
	for _, comment := range m.comments {
		if comment.PostID == postID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (m *CommentRepository) deleteForPost(postID int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for id, c := range m.comments {
		if c.PostID == postID {
			delete(m.comments, id)
		}
	}
}

type CategoryRepository struct {
	categories map[int]*models.Category
	nextID     int
	mutex      sync.RWMutex
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{categories: make(map[int]*models.Category), nextID: 1}
}

func (m *CategoryRepository) Create(category *models.Category) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, c := range m.categories {
		if c.Slug == category.Slug {
			return repositories.ErrDuplicate
		}
	}
	category.ID = m.nextID
	m.nextID++
	m.categories[category.ID] = category
	return nil
}

func (m *CategoryRepository) GetByID(id int) (*models.Category, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	category, exists := m.categories[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return category, nil
}

func (m *CategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *CategoryRepository) List() ([]*models.Category, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var categories []*models.Category
	for id := 1; id < m.nextID; id++ {
		if c, exists := m.categories[id]; exists {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func (m *CategoryRepository) Update(category *models.Category) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.categories[category.ID]; !exists {
		return repositories.ErrNotFound
	}
	for _, c := range m.categories {
		if c.ID != category.ID && c.Slug == category.Slug {
			return repositories.ErrDuplicate
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *CategoryRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.categories[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

type PredictionRepository struct {
	predictions map[int]*models.Prediction
	nextID      int
	mutex       sync.RWMutex
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{predictions: make(map[int]*models.Prediction), nextID: 1}
}

func (m *PredictionRepository) Create(prediction *models.Prediction) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	prediction.ID = m.nextID
	m.nextID++
	m.predictions[prediction.ID] = prediction
	return nil
}

func (m *PredictionRepository) GetByID(id int) (*models.Prediction, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	prediction, exists := m.predictions[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return prediction, nil
}

func (m *PredictionRepository) List(filter repositories.PredictionFilter) ([]*models.Prediction, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var predictions []*models.Prediction
	for _, p := range m.predictions {
		if filter.Plan != "" && p.Plan != filter.Plan {
			continue
		}
		if !filter.From.IsZero() && p.KickoffAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !p.KickoffAt.Before(filter.To) {
			continue
		}
		predictions = append(predictions, p)
	}
	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].KickoffAt.Equal(predictions[j].KickoffAt) {
			return predictions[i].ID > predictions[j].ID
		}
		return predictions[i].KickoffAt.After(predictions[j].KickoffAt)
	})
	if filter.Limit > 0 && len(predictions) > filter.Limit {
		predictions = predictions[:filter.Limit]
	}
	return predictions, nil
}

func (m *PredictionRepository) Update(prediction *models.Prediction) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.predictions[prediction.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.predictions[prediction.ID] = prediction
	return nil
}

func (m *PredictionRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.predictions[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.predictions, id)
	return nil
}

type SEOPageRepository struct {
	pages  map[int]*models.SEOPage
	nextID int
	mutex  sync.RWMutex
}

func NewSEOPageRepository() *SEOPageRepository {
	return &SEOPageRepository{pages: make(map[int]*models.SEOPage), nextID: 1}
}

func (m *SEOPageRepository) Create(page *models.SEOPage) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, p := range m.pages {
		if p.Path == page.Path {
			return repositories.ErrDuplicate
		}
	}
	page.ID = m.nextID
	m.nextID++
	m.pages[page.ID] = page
	return nil
}

func (m *SEOPageRepository) GetByID(id int) (*models.SEOPage, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	page, exists := m.pages[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return page, nil
}

func (m *SEOPageRepository) GetByPath(path string) (*models.SEOPage, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, p := range m.pages {
		if p.Path == path {
			return p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *SEOPageRepository) List() ([]*models.SEOPage, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var pages []*models.SEOPage
	for id := 1; id < m.nextID; id++ {
		if p, exists := m.pages[id]; exists {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func (m *SEOPageRepository) Update(page *models.SEOPage) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.pages[page.ID]; !exists {
		return repositories.ErrNotFound
	}
	for _, p := range m.pages {
		if p.ID != page.ID && p.Path == page.Path {
			return repositories.ErrDuplicate
		}
	}
	m.pages[page.ID] = page
	return nil
}

func (m *SEOPageRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.pages[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.pages, id)
	return nil
}

type WalletRepository struct {
	wallets map[string]*models.Wallet
	mutex   sync.RWMutex
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{wallets: make(map[string]*models.Wallet)}
}

func (m *WalletRepository) Get(userID string) (*models.Wallet, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	w, exists := m.wallets[userID]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *WalletRepository) Save(wallet *models.Wallet) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cp := *wallet
	m.wallets[wallet.UserID] = &cp
	return nil
}

func (m *WalletRepository) credit(userID string, amount decimal.Decimal, currency string, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	w, exists := m.wallets[userID]
	if !exists {
		w = &models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: currency}
		m.wallets[userID] = w
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = at
}

type SettingsRepository struct {
	wallet *models.WalletSettings
	mutex  sync.RWMutex
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (m *SettingsRepository) GetWalletSettings() (*models.WalletSettings, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.wallet == nil {
		defaults := models.DefaultWalletSettings()
		return &defaults, nil
	}
	cp := *m.wallet
	return &cp, nil
}

func (m *SettingsRepository) SaveWalletSettings(settings *models.WalletSettings) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	cp := *settings
	m.wallet = &cp
	return nil
}

// TransactionRepository credits wallets on settled deposits, like the
// Badger store.
type TransactionRepository struct {
	txs     map[int]*models.Transaction
	nextID  int
	mutex   sync.RWMutex
	wallets *WalletRepository
}

func NewTransactionRepository(wallets *WalletRepository) *TransactionRepository {
	return &TransactionRepository{txs: make(map[int]*models.Transaction), nextID: 1, wallets: wallets}
}

func (m *TransactionRepository) Create(tx *models.Transaction) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, t := range m.txs {
		if t.Reference == tx.Reference {
			return repositories.ErrDuplicate
		}
	}
	tx.ID = m.nextID
	m.nextID++
	cp := *tx
	m.txs[tx.ID] = &cp
	return nil
}

func (m *TransactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, t := range m.txs {
		if t.Reference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *TransactionRepository) ListByUser(userID string) ([]*models.Transaction, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var txs []*models.Transaction
	for id := m.nextID - 1; id >= 1; id-- {
		if t, exists := m.txs[id]; exists && t.UserID == userID {
			cp := *t
			txs = append(txs, &cp)
		}
	}
	return txs, nil
}

func (m *TransactionRepository) Update(tx *models.Transaction) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.txs[tx.ID]; !exists {
		return repositories.ErrNotFound
	}
	cp := *tx
	m.txs[tx.ID] = &cp
	return nil
}

func (m *TransactionRepository) Resolve(reference, status string, at time.Time) (*models.Transaction, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var tx *models.Transaction
	for _, t := range m.txs {
		if t.Reference == reference {
			tx = t
			break
		}
	}
	if tx == nil {
		return nil, false, repositories.ErrNotFound
	}
	if !tx.IsPending() {
		cp := *tx
		return &cp, false, nil
	}
	tx.Status = status
	tx.UpdatedAt = at
	if status == models.TxSuccess && tx.Kind == models.TxDeposit {
		m.wallets.credit(tx.UserID, tx.Amount, tx.Currency, at)
	}
	cp := *tx
	return &cp, true, nil
}

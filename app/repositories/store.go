package repositories

import (
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Store owns the Badger database backing every repository.
type Store struct {
	db       *badger.DB
	mutex    sync.Mutex
	dbPath   string
	inMemory bool
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", path, err)
	}
	return &Store{db: db, dbPath: path}, nil
}

// OpenInMemory opens a throwaway database for tests and tooling.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, inMemory: true}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *badger.DB { return s.db }

// Path is the on-disk location, empty for in-memory stores.
func (s *Store) Path() string { return s.dbPath }

func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.Close()
}

// Clear drops every key.
func (s *Store) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.DropAll()
}

// Backup writes a full backup to w and returns the version it covers.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// Restore loads a backup produced by Backup.
func (s *Store) Restore(r io.Reader) error {
	return s.db.Load(r, 4)
}

// Repositories wires Badger implementations of every repository to this store.
func (s *Store) Repositories() Repositories {
	return NewRepositories(s.db)
}

// NewRepositories wires Badger implementations of every repository to db.
func NewRepositories(db *badger.DB) Repositories {
	return Repositories{
		Users:        NewBadgerUserRepository(db),
		Posts:        NewBadgerPostRepository(db),
		Comments:     NewBadgerCommentRepository(db),
		Categories:   NewBadgerCategoryRepository(db),
		Predictions:  NewBadgerPredictionRepository(db),
		SEOPages:     NewBadgerSEOPageRepository(db),
		Wallets:      NewBadgerWalletRepository(db),
		Settings:     NewBadgerSettingsRepository(db),
		Transactions: NewBadgerTransactionRepository(db),
	}
}

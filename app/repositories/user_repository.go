package repositories

import (
	"strings"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db *badger.DB
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

// userDocument is the stored form of a user; the hash is hidden from API JSON
// but has to survive the round trip through the database.
type userDocument struct {
	*models.User
	PasswordHash []byte `json:"password_hash"`
}

func userKey(id string) []byte        { return []byte(UserKeyPrefix + id) }
func userEmailKey(email string) []byte { return []byte(UserEmailIndex + strings.ToLower(email)) }

func putUser(txn *badger.Txn, user *models.User) error {
	return setEntity(txn, userKey(user.ID), userDocument{User: user, PasswordHash: user.PasswordHash})
}

func loadUser(txn *badger.Txn, key []byte) (*models.User, error) {
	doc := userDocument{User: &models.User{}}
	if err := getEntity(txn, key, &doc); err != nil {
		return nil, err
	}
	doc.User.PasswordHash = doc.PasswordHash
	return doc.User, nil
}

// Create stores a new user, assigning a UUID when ID is empty.
// Emails are unique case-insensitively.
func (r *BadgerUserRepository) Create(user *models.User) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		if ok, err := exists(txn, userKey(user.ID)); err != nil {
			return err
		} else if ok {
			return ErrDuplicate
		}
		if err := claimIndex(txn, userEmailKey(user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return putUser(txn, user)
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id string) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = loadUser(txn, userKey(id))
		return err
	})
	return user, err
}

// GetByEmail retrieves a user through the email index
func (r *BadgerUserRepository) GetByEmail(email string) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getRaw(txn, userEmailKey(email))
		if err != nil {
			return err
		}
		user, err = loadUser(txn, userKey(string(id)))
		return err
	})
	return user, err
}

// List returns every user ordered by ID
func (r *BadgerUserRepository) List() ([]*models.User, error) {
	var users []*models.User
	err := r.db.View(func(txn *badger.Txn) error {
		return iterate(txn, UserKeyPrefix, false, func(_, val []byte) (bool, error) {
			doc := userDocument{User: &models.User{}}
			if err := unmarshalEntity(val, &doc); err != nil {
				return false, err
			}
			doc.User.PasswordHash = doc.PasswordHash
			users = append(users, doc.User)
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update saves an existing user and re-points the email index on change
func (r *BadgerUserRepository) Update(user *models.User) error {
	return r.db.Update(func(txn *badger.Txn) error {
		old, err := loadUser(txn, userKey(user.ID))
		if err != nil {
			return err
		}
		if !strings.EqualFold(old.Email, user.Email) {
			if err := claimIndex(txn, userEmailKey(user.Email), []byte(user.ID)); err != nil {
				return err
			}
			if err := txn.Delete(userEmailKey(old.Email)); err != nil {
				return err
			}
		}
		return putUser(txn, user)
	})
}

// Delete removes a user and its email index entry
func (r *BadgerUserRepository) Delete(id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		user, err := loadUser(txn, userKey(id))
		if err != nil {
			return err
		}
		if err := txn.Delete(userEmailKey(user.Email)); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
}

package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/shopspring/decimal"
)

// BadgerWalletRepository implements WalletRepository using BadgerDB
type BadgerWalletRepository struct {
	db *badger.DB
}

func NewBadgerWalletRepository(db *badger.DB) *BadgerWalletRepository {
	return &BadgerWalletRepository{db: db}
}

// Get returns the user's wallet; ErrNotFound until the first save.
func (r *BadgerWalletRepository) Get(userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, []byte(WalletKeyPrefix+userID), &wallet)
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// creditWallet adds amount to the user's wallet inside txn, creating the
// wallet on first credit.
func creditWallet(txn *badger.Txn, userID string, amount decimal.Decimal, currency string, at time.Time) error {
	key := []byte(WalletKeyPrefix + userID)
	wallet := models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: currency}
	if err := getEntity(txn, key, &wallet); err != nil && err != ErrNotFound {
		return err
	}
	wallet.Balance = wallet.Balance.Add(amount)
	wallet.UpdatedAt = at
	return setEntity(txn, key, &wallet)
}

func (r *BadgerWalletRepository) Save(wallet *models.Wallet) error {
	if wallet.UserID == "" {
		return errors.New("wallet has no user")
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return setEntity(txn, []byte(WalletKeyPrefix+wallet.UserID), wallet)
	})
}

// BadgerSettingsRepository implements SettingsRepository using BadgerDB
type BadgerSettingsRepository struct {
	db *badger.DB
}

func NewBadgerSettingsRepository(db *badger.DB) *BadgerSettingsRepository {
	return &BadgerSettingsRepository{db: db}
}

// GetWalletSettings falls back to the defaults until an admin saves settings.
func (r *BadgerSettingsRepository) GetWalletSettings() (*models.WalletSettings, error) {
	settings := models.DefaultWalletSettings()
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, []byte(WalletSettingsKey), &settings)
	})
	if err == ErrNotFound {
		defaults := models.DefaultWalletSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *BadgerSettingsRepository) SaveWalletSettings(settings *models.WalletSettings) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return setEntity(txn, []byte(WalletSettingsKey), settings)
	})
}

// BadgerTransactionRepository implements TransactionRepository using BadgerDB.
// Transactions are indexed by payment reference and by user.
type BadgerTransactionRepository struct {
	txs collection[models.Transaction]
}

func NewBadgerTransactionRepository(db *badger.DB) *BadgerTransactionRepository {
	return &BadgerTransactionRepository{
		txs: collection[models.Transaction]{
			db:     db,
			prefix: TransactionKeyPrefix,
			seqKey: TransactionSeqKey,
			id:     func(t *models.Transaction) int { return t.ID },
			setID:  func(t *models.Transaction, id int) { t.ID = id },
		},
	}
}

func txReferenceKey(ref string) []byte {
	return []byte(TxReferenceIndex + ref)
}

func txUserKey(userID string, id int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", TxUserIndex, userID, id))
}

// Create stores a new transaction; references must be unique.
func (r *BadgerTransactionRepository) Create(tx *models.Transaction) error {
	if tx.Reference == "" {
		return errors.New("transaction has no reference")
	}
	return r.txs.update(func(txn *badger.Txn) error {
		if ok, err := exists(txn, txReferenceKey(tx.Reference)); err != nil {
			return err
		} else if ok {
			return ErrDuplicate
		}
		if err := r.txs.insert(txn, tx); err != nil {
			return err
		}
		id := []byte(strconv.Itoa(tx.ID))
		if err := txn.Set(txReferenceKey(tx.Reference), id); err != nil {
			return err
		}
		return txn.Set(txUserKey(tx.UserID, tx.ID), id)
	})
}

func (r *BadgerTransactionRepository) getByReference(txn *badger.Txn, reference string) (*models.Transaction, error) {
	raw, err := getRaw(txn, txReferenceKey(reference))
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(string(raw))
	if err != nil {
		return nil, err
	}
	return r.txs.get(txn, id)
}

func (r *BadgerTransactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	var tx *models.Transaction
	err := r.txs.view(func(txn *badger.Txn) error {
		var err error
		tx, err = r.getByReference(txn, reference)
		return err
	})
	return tx, err
}

// ListByUser returns the user's transactions, newest first.
func (r *BadgerTransactionRepository) ListByUser(userID string) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.txs.view(func(txn *badger.Txn) error {
		prefix := fmt.Sprintf("%s%s:", TxUserIndex, userID)
		return iterate(txn, prefix, true, func(_, val []byte) (bool, error) {
			id, err := strconv.Atoi(string(val))
			if err != nil {
				return false, err
			}
			tx, err := r.txs.get(txn, id)
			if err != nil {
				return false, err
			}
			txs = append(txs, tx)
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Update saves a transaction. Reference and owner are immutable.
func (r *BadgerTransactionRepository) Update(tx *models.Transaction) error {
	return r.txs.update(func(txn *badger.Txn) error {
		old, err := r.txs.get(txn, tx.ID)
		if err != nil {
			return err
		}
		if old.Reference != tx.Reference || old.UserID != tx.UserID {
			return fmt.Errorf("transaction %d: reference and user cannot change", tx.ID)
		}
		return r.txs.replace(txn, tx)
	})
}

// Resolve moves a pending transaction to status and reports whether this call
// made the change. A successful deposit credits the owner's wallet in the same
// database transaction. Concurrent callers race on the transaction record, so
// exactly one of them sees changed == true.
func (r *BadgerTransactionRepository) Resolve(reference, status string, at time.Time) (*models.Transaction, bool, error) {
	var (
		tx      *models.Transaction
		changed bool
	)
	err := retryConflicts(func() error {
		changed = false
		return r.txs.update(func(txn *badger.Txn) error {
			var err error
			if tx, err = r.getByReference(txn, reference); err != nil {
				return err
			}
			if !tx.IsPending() {
				return nil
			}
			tx.Status = status
			tx.UpdatedAt = at
			if err := r.txs.replace(txn, tx); err != nil {
				return err
			}
			if status == models.TxSuccess && tx.Kind == models.TxDeposit {
				if err := creditWallet(txn, tx.UserID, tx.Amount, tx.Currency, at); err != nil {
					return err
				}
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return tx, changed, nil
}

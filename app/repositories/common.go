package repositories

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const (
	// Key prefixes for different entity types
	UserKeyPrefix        = "user:"
	PostKeyPrefix        = "post:"
	CommentKeyPrefix     = "comment:"
	CategoryKeyPrefix    = "category:"
	PredictionKeyPrefix  = "prediction:"
	SEOPageKeyPrefix     = "seo:"
	WalletKeyPrefix      = "wallet:"
	TransactionKeyPrefix = "tx:"
	WalletSettingsKey    = "settings:wallet"
	PostViewsPrefix      = "views:post:"

	// Secondary indexes pointing at primary keys or IDs
	UserEmailIndex    = "idx:user:email:"
	PostSlugIndex     = "idx:post:slug:"
	CommentIDIndex    = "idx:comment:id:"
	CategorySlugIndex = "idx:category:slug:"
	SEOPathIndex      = "idx:seo:path:"
	TxReferenceIndex  = "idx:tx:ref:"
	TxUserIndex       = "idx:tx:user:"

	// Sequence keys for auto-incrementing IDs
	PostSeqKey        = "seq:post"
	CommentSeqKey     = "seq:comment"
	CategorySeqKey    = "seq:category"
	PredictionSeqKey  = "seq:prediction"
	SEOPageSeqKey     = "seq:seo"
	TransactionSeqKey = "seq:tx"
)

// getNextID gets the next available ID for a given sequence key
func getNextID(txn *badger.Txn, seqKey string) (int, error) {
	var id int
	item, err := txn.Get([]byte(seqKey))
	if err == badger.ErrKeyNotFound {
		id = 1
	} else if err != nil {
		return 0, err
	} else {
		err = item.Value(func(val []byte) error {
			id = int(val[0])<<24 | int(val[1])<<16 | int(val[2])<<8 | int(val[3])
			return nil
		})
		if err != nil {
			return 0, err
		}
		id++
	}

	// Store new ID
	idBytes := []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	if err := txn.Set([]byte(seqKey), idBytes); err != nil {
		return 0, err
	}

	return id, nil
}

// maxConflictRetries bounds retryConflicts. Each conflict means another
// writer committed, so this only runs out under sustained contention.
const maxConflictRetries = 100

// retryConflicts reruns fn while Badger rejects its commit with ErrConflict,
// sleeping a little longer each time.
func retryConflicts(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err = fn(); !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(time.Duration(rand.Int63n(int64(attempt+1) * int64(100*time.Microsecond))))
	}
	return err
}

func encodeCount(n int) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(n))
}

func decodeCount(raw []byte) (int, error) {
	if len(raw) != 8 {
		return 0, fmt.Errorf("counter has %d bytes, want 8", len(raw))
	}
	return int(binary.BigEndian.Uint64(raw)), nil
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %v", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %v", err)
	}
	return nil
}

// idKey zero-pads id so keys iterate in numeric order.
func idKey(prefix string, id int) []byte {
	return []byte(fmt.Sprintf("%s%010d", prefix, id))
}

func getEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshalEntity(val, entity)
	})
}

func setEntity(txn *badger.Txn, key []byte, entity interface{}) error {
	data, err := marshalEntity(entity)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func getRaw(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// claimIndex points an index key at val, failing with ErrDuplicate when another
// value already owns it.
func claimIndex(txn *badger.Txn, key []byte, val []byte) error {
	cur, err := getRaw(txn, key)
	if err == nil && string(cur) != string(val) {
		return ErrDuplicate
	}
	if err != nil && err != ErrNotFound {
		return err
	}
	return txn.Set(key, val)
}

// iterate walks every value under prefix. Returning false from fn stops the walk.
func iterate(txn *badger.Txn, prefix string, reverse bool, fn func(key, val []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.Reverse = reverse
	it := txn.NewIterator(opts)
	defer it.Close()

	seek := []byte(prefix)
	if reverse {
		seek = append([]byte(prefix), 0xFF)
	}
	for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		more, err := fn(item.KeyCopy(nil), val)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// collection is a JSON document set keyed by an auto-incremented integer ID.
type collection[T any] struct {
	db     *badger.DB
	prefix string
	seqKey string
	id     func(*T) int
	setID  func(*T, int)
}

func (c collection[T]) key(id int) []byte { return idKey(c.prefix, id) }

func (c collection[T]) insert(txn *badger.Txn, entity *T) error {
	id, err := getNextID(txn, c.seqKey)
	if err != nil {
		return err
	}
	c.setID(entity, id)
	return setEntity(txn, c.key(id), entity)
}

func (c collection[T]) get(txn *badger.Txn, id int) (*T, error) {
	var entity T
	if err := getEntity(txn, c.key(id), &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (c collection[T]) replace(txn *badger.Txn, entity *T) error {
	key := c.key(c.id(entity))
	ok, err := exists(txn, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return setEntity(txn, key, entity)
}

func (c collection[T]) remove(txn *badger.Txn, id int) error {
	key := c.key(id)
	ok, err := exists(txn, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return txn.Delete(key)
}

// scan decodes documents in ID order (newest first when reverse) and passes
// them to keep; collection stops after limit accepted items when limit > 0.
func (c collection[T]) scan(txn *badger.Txn, reverse bool, offset, limit int, keep func(*T) bool) ([]*T, error) {
	var out []*T
	skipped := 0
	err := iterate(txn, c.prefix, reverse, func(_, val []byte) (bool, error) {
		var entity T
		if err := unmarshalEntity(val, &entity); err != nil {
			return false, err
		}
		if keep != nil && !keep(&entity) {
			return true, nil
		}
		if skipped < offset {
			skipped++
			return true, nil
		}
		out = append(out, &entity)
		return limit <= 0 || len(out) < limit, nil
	})
	return out, err
}

func (c collection[T]) view(fn func(txn *badger.Txn) error) error   { return c.db.View(fn) }
func (c collection[T]) update(fn func(txn *badger.Txn) error) error { return c.db.Update(fn) }

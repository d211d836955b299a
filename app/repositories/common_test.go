package repositories

import (
	"testing"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	store, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store.DB()
}

func TestGetNextID(t *testing.T) {
	db := newTestDB(t)

	t.Run("first ID", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			id, err := getNextID(txn, PostSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, id)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("sequential IDs", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			for i := 2; i <= 5; i++ {
				id, err := getNextID(txn, PostSeqKey)
				assert.NoError(t, err)
				assert.Equal(t, i, id)
			}
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("different sequence keys", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			commentID, err := getNextID(txn, CommentSeqKey)
			assert.NoError(t, err)
			assert.Equal(t, 1, commentID, "Comment sequence should start from 1")
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("past one byte", func(t *testing.T) {
		err := db.Update(func(txn *badger.Txn) error {
			var id int
			for i := 0; i < 300; i++ {
				var err error
				id, err = getNextID(txn, "test:wide")
				if err != nil {
					return err
				}
			}
			assert.Equal(t, 300, id)
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestMarshalEntity(t *testing.T) {
	t.Run("marshal invalid entity", func(t *testing.T) {
		invalidEntity := struct {
			Ch chan int
		}{
			Ch: make(chan int),
		}

		_, err := marshalEntity(invalidEntity)
		assert.Error(t, err)
	})

	t.Run("unmarshal invalid JSON", func(t *testing.T) {
		var post models.Post
		err := unmarshalEntity([]byte(`{"id":1,invalid json}`), &post)
		assert.Error(t, err)
	})

	t.Run("unmarshal into nil", func(t *testing.T) {
		err := unmarshalEntity([]byte(`{"id":1}`), nil)
		assert.Error(t, err)
	})
}

func TestIdKeyOrdering(t *testing.T) {
	assert.Equal(t, "post:0000000009", string(idKey(PostKeyPrefix, 9)))
	assert.Less(t, string(idKey(PostKeyPrefix, 9)), string(idKey(PostKeyPrefix, 10)))
}

func TestClaimIndex(t *testing.T) {
	db := newTestDB(t)
	key := []byte("idx:test:a")

	assert.NoError(t, db.Update(func(txn *badger.Txn) error {
		return claimIndex(txn, key, []byte("1"))
	}))
	assert.NoError(t, db.Update(func(txn *badger.Txn) error {
		return claimIndex(txn, key, []byte("1"))
	}), "re-claiming with the same owner is allowed")
	assert.ErrorIs(t, db.Update(func(txn *badger.Txn) error {
		return claimIndex(txn, key, []byte("2"))
	}), ErrDuplicate)
}

func TestIterate(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		for _, k := range []string{"a:1", "a:2", "a:3", "b:1"} {
			if err := txn.Set([]byte(k), []byte(k)); err != nil {
				return err
			}
		}
		return nil
	}))

	collect := func(reverse bool, max int) []string {
		var out []string
		err := db.View(func(txn *badger.Txn) error {
			return iterate(txn, "a:", reverse, func(key, _ []byte) (bool, error) {
				out = append(out, string(key))
				return max == 0 || len(out) < max, nil
			})
		})
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, []string{"a:1", "a:2", "a:3"}, collect(false, 0))
	assert.Equal(t, []string{"a:3", "a:2", "a:1"}, collect(true, 0))
	assert.Equal(t, []string{"a:3", "a:2"}, collect(true, 2))
}

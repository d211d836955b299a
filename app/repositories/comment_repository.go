package repositories

import (
	"fmt"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB.
// Comments live under their post's key range so ListByPost is a prefix scan;
// an ID index maps each comment ID back to its full key.
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

func commentKey(postID, id int) []byte {
	return []byte(fmt.Sprintf("%s%010d:%010d", CommentKeyPrefix, postID, id))
}

func commentIndexKey(id int) []byte {
	return []byte(fmt.Sprintf("%s%010d", CommentIDIndex, id))
}

func commentPostPrefix(postID int) string {
	return fmt.Sprintf("%s%010d:", CommentKeyPrefix, postID)
}

// Create creates a new comment. The parent post must exist.
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		ok, err := exists(txn, idKey(PostKeyPrefix, comment.PostID))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("post %d: %w", comment.PostID, ErrNotFound)
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		key := commentKey(comment.PostID, comment.ID)
		if err := setEntity(txn, key, comment); err != nil {
			return err
		}
		return txn.Set(commentIndexKey(comment.ID), key)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(id int) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := getRaw(txn, commentIndexKey(id))
		if err != nil {
			return err
		}
		return getEntity(txn, key, &comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost retrieves all comments for a post, oldest first
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		return iterate(txn, commentPostPrefix(postID), false, func(_, val []byte) (bool, error) {
			var comment models.Comment
			if err := unmarshalEntity(val, &comment); err != nil {
				return false, fmt.Errorf("failed to unmarshal comment: %v", err)
			}
			comments = append(comments, &comment)
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Update updates an existing comment. A comment cannot move between posts.
func (r *BadgerCommentRepository) Update(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := getRaw(txn, commentIndexKey(comment.ID))
		if err != nil {
			return err
		}
		if string(key) != string(commentKey(comment.PostID, comment.ID)) {
			return fmt.Errorf("comment %d does not belong to post %d", comment.ID, comment.PostID)
		}
		return setEntity(txn, key, comment)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := getRaw(txn, commentIndexKey(id))
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(commentIndexKey(id))
	})
}

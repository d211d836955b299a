package repositories

import (
	"strings"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db    *badger.DB
	posts collection[models.Post]
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{
		db: db,
		posts: collection[models.Post]{
			db:     db,
			prefix: PostKeyPrefix,
			seqKey: PostSeqKey,
			id:     func(p *models.Post) int { return p.ID },
			setID:  func(p *models.Post, id int) { p.ID = id },
		},
	}
}

func slugKey(slug string) []byte {
	return []byte(PostSlugIndex + slug)
}

func viewsKey(id int) []byte {
	return idKey(PostViewsPrefix, id)
}

// loadViews overrides the stored document's count with the view counter.
func loadViews(txn *badger.Txn, post *models.Post) error {
	raw, err := getRaw(txn, viewsKey(post.ID))
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	post.Views, err = decodeCount(raw)
	return err
}

// Create creates a new post and claims its slug
func (r *BadgerPostRepository) Create(post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if ok, err := exists(txn, slugKey(post.Slug)); err != nil {
			return err
		} else if ok {
			return ErrDuplicate
		}
		doc := stripComments(post)
		if err := r.posts.insert(txn, doc); err != nil {
			return err
		}
		post.ID = doc.ID
		return txn.Set(slugKey(post.Slug), r.posts.key(post.ID))
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		if post, err = r.posts.get(txn, id); err != nil {
			return err
		}
		return loadViews(txn, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetBySlug follows the slug index to the post
func (r *BadgerPostRepository) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := getRaw(txn, slugKey(slug))
		if err != nil {
			return err
		}
		if err := getEntity(txn, key, &post); err != nil {
			return err
		}
		return loadViews(txn, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List retrieves a page of posts, newest first
func (r *BadgerPostRepository) List(filter PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		if posts, err = r.posts.scan(txn, true, filter.Offset, filter.Limit, filter.match); err != nil {
			return err
		}
		for _, p := range posts {
			if err := loadViews(txn, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Count returns how many posts match the filter, ignoring paging
func (r *BadgerPostRepository) Count(filter PostFilter) (int, error) {
	filter.Limit, filter.Offset = 0, 0
	posts, err := r.List(filter)
	if err != nil {
		return 0, err
	}
	return len(posts), nil
}

// Update updates an existing post, moving the slug index if the slug changed
func (r *BadgerPostRepository) Update(post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		old, err := r.posts.get(txn, post.ID)
		if err != nil {
			return err
		}
		if old.Slug != post.Slug {
			if err := claimIndex(txn, slugKey(post.Slug), r.posts.key(post.ID)); err != nil {
				return err
			}
			if err := txn.Delete(slugKey(old.Slug)); err != nil {
				return err
			}
		}
		return r.posts.replace(txn, stripComments(post))
	})
}

// IncrementViews adds one to the post's view counter and returns the new
// count. The counter has its own key, so readers only contend with each
// other, and conflicting commits are retried.
func (r *BadgerPostRepository) IncrementViews(id int) (int, error) {
	var views int
	err := retryConflicts(func() error {
		return r.db.Update(func(txn *badger.Txn) error {
			raw, err := getRaw(txn, viewsKey(id))
			switch {
			case err == ErrNotFound:
				// First counted view; older posts kept the count in the document.
				post, err := r.posts.get(txn, id)
				if err != nil {
					return err
				}
				views = post.Views
			case err != nil:
				return err
			default:
				if views, err = decodeCount(raw); err != nil {
					return err
				}
			}
			views++
			return txn.Set(viewsKey(id), encodeCount(views))
		})
	})
	if err != nil {
		return 0, err
	}
	return views, nil
}

// Delete deletes a post by ID together with its comments
func (r *BadgerPostRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		post, err := r.posts.get(txn, id)
		if err != nil {
			return err
		}
		if err := deleteCommentsForPost(txn, id); err != nil {
			return err
		}
		if err := txn.Delete(slugKey(post.Slug)); err != nil {
			return err
		}
		if err := txn.Delete(viewsKey(id)); err != nil {
			return err
		}
		return r.posts.remove(txn, id)
	})
}

func (f PostFilter) match(p *models.Post) bool {
	if f.PublishedOnly && !p.Published {
		return false
	}
	if f.CategoryID > 0 && p.CategoryID != f.CategoryID {
		return false
	}
	return true
}

// stripComments keeps loaded comments out of the stored post document.
func stripComments(post *models.Post) *models.Post {
	if len(post.Comments) == 0 {
		return post
	}
	cp := *post
	cp.Comments = nil
	return &cp
}

func deleteCommentsForPost(txn *badger.Txn, postID int) error {
	prefix := commentPostPrefix(postID)
	var keys [][]byte
	err := iterate(txn, prefix, false, func(key, _ []byte) (bool, error) {
		keys = append(keys, key)
		return true, nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		id := strings.TrimPrefix(string(key), prefix)
		if err := txn.Delete([]byte(CommentIDIndex + id)); err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

package repositories

import (
	"strconv"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCategoryRepository implements CategoryRepository using BadgerDB
type BadgerCategoryRepository struct {
	db         *badger.DB
	categories collection[models.Category]
}

// NewBadgerCategoryRepository creates a new BadgerCategoryRepository
func NewBadgerCategoryRepository(db *badger.DB) *BadgerCategoryRepository {
	return &BadgerCategoryRepository{
		db: db,
		categories: collection[models.Category]{
			db:     db,
			prefix: CategoryKeyPrefix,
			seqKey: CategorySeqKey,
			id:     func(c *models.Category) int { return c.ID },
			setID:  func(c *models.Category, id int) { c.ID = id },
		},
	}
}

func categorySlugKey(slug string) []byte {
	return []byte(CategorySlugIndex + slug)
}

func (r *BadgerCategoryRepository) Create(category *models.Category) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if ok, err := exists(txn, categorySlugKey(category.Slug)); err != nil {
			return err
		} else if ok {
			return ErrDuplicate
		}
		if err := r.categories.insert(txn, category); err != nil {
			return err
		}
		return txn.Set(categorySlugKey(category.Slug), []byte(strconv.Itoa(category.ID)))
	})
}

func (r *BadgerCategoryRepository) GetByID(id int) (*models.Category, error) {
	var category *models.Category
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		category, err = r.categories.get(txn, id)
		return err
	})
	return category, err
}

func (r *BadgerCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category *models.Category
	err := r.db.View(func(txn *badger.Txn) error {
		raw, err := getRaw(txn, categorySlugKey(slug))
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(string(raw))
		if err != nil {
			return err
		}
		category, err = r.categories.get(txn, id)
		return err
	})
	return category, err
}

// List returns categories in creation order
func (r *BadgerCategoryRepository) List() ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		categories, err = r.categories.scan(txn, false, 0, 0, nil)
		return err
	})
	return categories, err
}

func (r *BadgerCategoryRepository) Update(category *models.Category) error {
	return r.db.Update(func(txn *badger.Txn) error {
		old, err := r.categories.get(txn, category.ID)
		if err != nil {
			return err
		}
		if old.Slug != category.Slug {
			if err := claimIndex(txn, categorySlugKey(category.Slug), []byte(strconv.Itoa(category.ID))); err != nil {
				return err
			}
			if err := txn.Delete(categorySlugKey(old.Slug)); err != nil {
				return err
			}
		}
		return r.categories.replace(txn, category)
	})
}

func (r *BadgerCategoryRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		category, err := r.categories.get(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(categorySlugKey(category.Slug)); err != nil {
			return err
		}
		return r.categories.remove(txn, id)
	})
}

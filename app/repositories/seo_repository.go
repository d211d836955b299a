package repositories

import (
	"strconv"

	"tipsvendor/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerSEOPageRepository implements SEOPageRepository using BadgerDB.
// Paths are unique through the path index.
type BadgerSEOPageRepository struct {
	pages collection[models.SEOPage]
}

// NewBadgerSEOPageRepository creates a new BadgerSEOPageRepository
func NewBadgerSEOPageRepository(db *badger.DB) *BadgerSEOPageRepository {
	return &BadgerSEOPageRepository{
		pages: collection[models.SEOPage]{
			db:     db,
			prefix: SEOPageKeyPrefix,
			seqKey: SEOPageSeqKey,
			id:     func(p *models.SEOPage) int { return p.ID },
			setID:  func(p *models.SEOPage, id int) { p.ID = id },
		},
	}
}

func seoPathKey(path string) []byte {
	return []byte(SEOPathIndex + path)
}

func (r *BadgerSEOPageRepository) Create(page *models.SEOPage) error {
	return r.pages.update(func(txn *badger.Txn) error {
		if ok, err := exists(txn, seoPathKey(page.Path)); err != nil {
			return err
		} else if ok {
			return ErrDuplicate
		}
		if err := r.pages.insert(txn, page); err != nil {
			return err
		}
		return txn.Set(seoPathKey(page.Path), []byte(strconv.Itoa(page.ID)))
	})
}

func (r *BadgerSEOPageRepository) GetByID(id int) (*models.SEOPage, error) {
	var page *models.SEOPage
	err := r.pages.view(func(txn *badger.Txn) error {
		var err error
		page, err = r.pages.get(txn, id)
		return err
	})
	return page, err
}

func (r *BadgerSEOPageRepository) GetByPath(path string) (*models.SEOPage, error) {
	var page *models.SEOPage
	err := r.pages.view(func(txn *badger.Txn) error {
		raw, err := getRaw(txn, seoPathKey(path))
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(string(raw))
		if err != nil {
			return err
		}
		page, err = r.pages.get(txn, id)
		return err
	})
	return page, err
}

func (r *BadgerSEOPageRepository) List() ([]*models.SEOPage, error) {
	var pages []*models.SEOPage
	err := r.pages.view(func(txn *badger.Txn) error {
		var err error
		pages, err = r.pages.scan(txn, false, 0, 0, nil)
		return err
	})
	return pages, err
}

func (r *BadgerSEOPageRepository) Update(page *models.SEOPage) error {
	return r.pages.update(func(txn *badger.Txn) error {
		old, err := r.pages.get(txn, page.ID)
		if err != nil {
			return err
		}
		if old.Path != page.Path {
			if err := claimIndex(txn, seoPathKey(page.Path), []byte(strconv.Itoa(page.ID))); err != nil {
				return err
			}
			if err := txn.Delete(seoPathKey(old.Path)); err != nil {
				return err
			}
		}
		return r.pages.replace(txn, page)
	})
}

func (r *BadgerSEOPageRepository) Delete(id int) error {
	return r.pages.update(func(txn *badger.Txn) error {
		page, err := r.pages.get(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(seoPathKey(page.Path)); err != nil {
			return err
		}
		return r.pages.remove(txn, id)
	})
}

package services

import (
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// CategoryService manages blog categories.
type CategoryService struct {
	categories repositories.CategoryRepository
	posts      repositories.PostRepository
	now        func() time.Time
}

func NewCategoryService(categories repositories.CategoryRepository, posts repositories.PostRepository) *CategoryService {
	return &CategoryService{categories: categories, posts: posts, now: time.Now}
}

func (s *CategoryService) List() ([]*models.Category, error) {
	return s.categories.List()
}

func (s *CategoryService) Get(id int) (*models.Category, error) {
	return s.categories.GetByID(id)
}

func (s *CategoryService) GetBySlug(slug string) (*models.Category, error) {
	return s.categories.GetBySlug(slug)
}

func (s *CategoryService) Create(c *models.Category) error {
	c.ID = 0
	c.CreatedAt = s.now()
	if err := c.Validate(); err != nil {
		return err
	}
	return s.translateDuplicate(s.categories.Create(c), "creating category")
}

func (s *CategoryService) Update(c *models.Category) error {
	existing, err := s.categories.GetByID(c.ID)
	if err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt
	if err := c.Validate(); err != nil {
		return err
	}
	return s.translateDuplicate(s.categories.Update(c), "updating category")
}

// Delete removes a category that no post uses any more.
func (s *CategoryService) Delete(id int) error {
	if _, err := s.categories.GetByID(id); err != nil {
		return err
	}
	n, err := s.posts.Count(repositories.PostFilter{CategoryID: id})
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.Wrapf(ErrConflict, "category still has %d post(s)", n)
	}
	return s.categories.Delete(id)
}

func (s *CategoryService) translateDuplicate(err error, action string) error {
	if errors.Cause(err) == repositories.ErrDuplicate {
		return fieldError("slug", "a category with this slug already exists")
	}
	return errors.Wrap(err, action)
}

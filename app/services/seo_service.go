package services

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// ReservedPaths are owned by the application and cannot host SEO pages.
var ReservedPaths = []string{
	"/", "/about", "/account", "/admin", "/api", "/blog", "/contact", "/dashboard",
	"/forgot-password", "/healthz", "/live", "/login", "/logout", "/pricing",
	"/register", "/reset-password", "/static", "/tips", "/uploads", "/verify-email",
	"/vip", "/wallet",
}

// IsReservedPath reports whether path is, or sits under, a reserved path.
func IsReservedPath(path string) bool {
	for _, r := range ReservedPaths {
		if path == r || (r != "/" && strings.HasPrefix(path, r+"/")) {
			return true
		}
	}
	return false
}

// SEOService manages editable landing pages.
type SEOService struct {
	pages repositories.SEOPageRepository
	now   func() time.Time
}

func NewSEOService(pages repositories.SEOPageRepository) *SEOService {
	return &SEOService{pages: pages, now: time.Now}
}

func (s *SEOService) List() ([]*models.SEOPage, error) {
	return s.pages.List()
}

func (s *SEOService) Get(id int) (*models.SEOPage, error) {
	return s.pages.GetByID(id)
}

// Published returns the live page at path.
func (s *SEOService) Published(path string) (*models.SEOPage, error) {
	page, err := s.pages.GetByPath(models.NormalizePath(path))
	if err != nil {
		return nil, err
	}
	if !page.Published {
		return nil, repositories.ErrNotFound
	}
	return page, nil
}

func (s *SEOService) Create(page *models.SEOPage) error {
	page.ID = 0
	page.CreatedAt = s.now()
	page.UpdatedAt = page.CreatedAt
	if err := s.validate(page); err != nil {
		return err
	}
	return s.translateDuplicate(s.pages.Create(page), "creating page")
}

func (s *SEOService) Update(page *models.SEOPage) error {
	existing, err := s.pages.GetByID(page.ID)
	if err != nil {
		return err
	}
	page.CreatedAt = existing.CreatedAt
	page.UpdatedAt = s.now()
	if err := s.validate(page); err != nil {
		return err
	}
	return s.translateDuplicate(s.pages.Update(page), "updating page")
}

func (s *SEOService) Delete(id int) error {
	return s.pages.Delete(id)
}

func (s *SEOService) validate(page *models.SEOPage) error {
	if err := page.Validate(); err != nil {
		return err
	}
	if IsReservedPath(page.Path) {
		return fieldError("path", "this path is used by the site")
	}
	return nil
}

func (s *SEOService) translateDuplicate(err error, action string) error {
	if errors.Cause(err) == repositories.ErrDuplicate {
		return fieldError("path", "another page already uses this path")
	}
	return errors.Wrap(err, action)
}

package models

import (
	"strings"
	"time"
)

// SEOPage is an editable landing page rendered at Path.
type SEOPage struct {
	ID              int       `json:"id"`
	Path            string    `json:"path" validate:"required,urlpath,max=200"`
	Title           string    `json:"title" validate:"required,min=3,max=70"`
	MetaDescription string    `json:"meta_description" validate:"required,max=160"`
	Keywords        string    `json:"keywords" validate:"max=255"`
	Content         string    `json:"content" validate:"required,min=100"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *SEOPage) Validate() error {
	p.Path = NormalizePath(p.Path)
	p.Title = CleanString(p.Title)
	p.MetaDescription = CleanString(p.MetaDescription)
	p.Keywords = CleanString(p.Keywords)
	p.Content = strings.TrimSpace(p.Content)
	return ValidateStruct(p)
}

// NormalizePath lowercases p, ensures a leading slash and drops a trailing one.
func NormalizePath(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

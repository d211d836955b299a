package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Post represents a blog post with comments.
type Post struct {
	ID          int        `json:"id"`
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Slug        string     `json:"slug" validate:"omitempty,slug,max=220"`
	Description string     `json:"description" validate:"required,min=100"`
	Excerpt     string     `json:"excerpt" validate:"max=300"`
	CoverImage  string     `json:"cover_image"`
	CategoryID  int        `json:"category_id" validate:"gte=0"`
	AuthorID    string     `json:"author_id"`
	Published   bool       `json:"published"`
	Views       int        `json:"views"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Comments    []*Comment `json:"comments,omitempty" validate:"-"`
}

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := ValidateStruct(p); err != nil {
		return err
	}

	if p.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (p *Post) BeforeCreate() {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	p.Normalize()
}

// Normalize trims user input and derives the slug from the title when empty.
func (p *Post) Normalize() {
	p.Title = CleanString(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Excerpt = strings.TrimSpace(p.Excerpt)
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	} else {
		p.Slug = Slugify(p.Slug)
	}
}

// Summary returns the excerpt, or the start of the description.
func (p *Post) Summary() string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	const max = 160
	if utf8.RuneCountInString(p.Description) <= max {
		return p.Description
	}
	return strings.TrimSpace(string([]rune(p.Description)[:max])) + "…"
}

// AddComment adds a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	comment.PostID = p.ID
	p.Comments = append(p.Comments, comment)
	return nil
}

// RemoveComment removes a comment from the post
func (p *Post) RemoveComment(commentID int) error {
	for i, comment := range p.Comments {
		if comment.ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return nil
		}
	}
	return errors.New("comment not found")
}

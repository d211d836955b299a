package models

import (
	"errors"
	"strings"
	"time"
)

// Comment represents a comment on a blog post.
type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id" validate:"required,gt=0"`
	Author    string    `json:"author" validate:"required,min=2,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Content   string    `json:"content" validate:"required,min=1,max=1000"`
	CreatedAt time.Time `json:"created_at"`
	Post      *Post     `json:"-" validate:"-"`
}

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return err
	}

	if c.CreatedAt.IsZero() {
		return errors.New("created_at cannot be zero")
	}

	return nil
}

// BeforeCreate sets up any necessary fields before creation
func (c *Comment) BeforeCreate() {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.Author = CleanString(c.Author)
	c.Email = CleanString(c.Email, true)
	c.Content = strings.TrimSpace(c.Content)
}

// SetPost sets the parent post and updates the PostID
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.Post = post
	c.PostID = post.ID
	return nil
}

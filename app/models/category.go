package models

import "time"

// Category groups blog posts.
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name" validate:"required,min=2,max=60"`
	Slug        string    `json:"slug" validate:"omitempty,slug,max=80"`
	Description string    `json:"description" validate:"max=500"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Category) Validate() error {
	c.Name = CleanString(c.Name)
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	} else {
		c.Slug = Slugify(c.Slug)
	}
	return ValidateStruct(c)
}

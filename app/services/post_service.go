package services

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

const (
	defaultPerPage = 10
	// MaxPerPage caps client-chosen page sizes.
	MaxPerPage = 50
)

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

func (p Page[T]) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages() }
func (p Page[T]) PrevPage() int { return p.Page - 1 }
func (p Page[T]) NextPage() int { return p.Page + 1 }

// PostQuery selects a page of posts.
type PostQuery struct {
	Page          int
	PerPage       int
	CategoryID    int
	PublishedOnly bool
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo     repositories.PostRepository
	commentRepo  repositories.CommentRepository
	categoryRepo repositories.CategoryRepository
	log          *slog.Logger
	now          func() time.Time
}

// NewPostService creates a new PostService. A nil log uses slog.Default.
func NewPostService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository,
	categoryRepo repositories.CategoryRepository, log *slog.Logger) *PostService {
	if log == nil {
		log = slog.Default()
	}
	return &PostService{
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		log:          log,
		now:          time.Now,
	}
}

// CreatePost creates a new blog post with validation
func (s *PostService) CreatePost(post *models.Post, author *models.User) error {
	post.ID = 0
	post.Views = 0
	post.CreatedAt = s.now()
	post.BeforeCreate()
	if author != nil {
		post.AuthorID = author.ID
	}

	if err := s.validate(post); err != nil {
		return err
	}

	if err := s.postRepo.Create(post); err != nil {
		if errors.Cause(err) == repositories.ErrDuplicate {
			return fieldError("slug", "a post with this slug already exists")
		}
		return errors.Wrap(err, "creating post")
	}
	return nil
}

// GetPost retrieves a post by ID with its comments
func (s *PostService) GetPost(id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(post); err != nil {
		return nil, err
	}
	return post, nil
}

// ViewPost loads a post by slug for a reader and counts the view.
// Drafts are hidden unless includeDrafts is set. A view that cannot be
// counted is logged and the post is still returned.
func (s *PostService) ViewPost(slug string, includeDrafts bool) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if !post.Published && !includeDrafts {
		return nil, repositories.ErrNotFound
	}

	if views, err := s.postRepo.IncrementViews(post.ID); err != nil {
		s.log.Warn("counting view", "post", post.ID, "error", err)
	} else {
		post.Views = views
	}
	if err := s.attachComments(post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPostBySlug loads a post with its comments without counting a view.
func (s *PostService) GetPostBySlug(slug string) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(post); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts retrieves a paginated list of posts, newest first
func (s *PostService) ListPosts(q PostQuery) (Page[*models.Post], error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}

	filter := repositories.PostFilter{
		CategoryID:    q.CategoryID,
		PublishedOnly: q.PublishedOnly,
		Limit:         q.PerPage,
		Offset:        (q.Page - 1) * q.PerPage,
	}
	posts, err := s.postRepo.List(filter)
	if err != nil {
		return Page[*models.Post]{}, err
	}
	total, err := s.postRepo.Count(filter)
	if err != nil {
		return Page[*models.Post]{}, err
	}
	return Page[*models.Post]{Items: posts, Page: q.Page, PerPage: q.PerPage, Total: total}, nil
}

// UpdatePost updates an existing post with validation
func (s *PostService) UpdatePost(post *models.Post) error {
	existing, err := s.postRepo.GetByID(post.ID)
	if err != nil {
		return err
	}

	// Preserve server-owned fields
	post.CreatedAt = existing.CreatedAt
	post.AuthorID = existing.AuthorID
	post.Views = existing.Views
	post.UpdatedAt = s.now()
	post.Normalize()

	if err := s.validate(post); err != nil {
		return err
	}

	if err := s.postRepo.Update(post); err != nil {
		if errors.Cause(err) == repositories.ErrDuplicate {
			return fieldError("slug", "a post with this slug already exists")
		}
		return errors.Wrap(err, "updating post")
	}
	return nil
}

// DeletePost deletes a post and all its comments
func (s *PostService) DeletePost(id int) error {
	return s.postRepo.Delete(id)
}

func (s *PostService) attachComments(post *models.Post) error {
	comments, err := s.commentRepo.ListByPost(post.ID)
	if err != nil {
		return errors.Wrap(err, "failed to get comments")
	}
	post.Comments = comments
	return nil
}

func (s *PostService) validate(post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}
	if post.CategoryID > 0 {
		if _, err := s.categoryRepo.GetByID(post.CategoryID); err != nil {
			if errors.Cause(err) == repositories.ErrNotFound {
				return fieldError("category_id", "category does not exist")
			}
			return err
		}
	}
	return nil
}

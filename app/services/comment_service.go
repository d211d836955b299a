package services

import (
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
	now         func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		now:         time.Now,
	}
}

// CreateComment creates a new comment with validation. Comments are only
// accepted on published posts.
func (s *CommentService) CreateComment(comment *models.Comment) error {
	comment.ID = 0
	comment.CreatedAt = s.now()
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return err
	}

	post, err := s.postRepo.GetByID(comment.PostID)
	if err != nil {
		return err
	}
	if !post.Published {
		return repositories.ErrNotFound
	}

	return errors.Wrap(s.commentRepo.Create(comment), "creating comment")
}

// GetComment retrieves a comment by ID
func (s *CommentService) GetComment(id int) (*models.Comment, error) {
	return s.commentRepo.GetByID(id)
}

// ListPostComments retrieves all comments for a post
func (s *CommentService) ListPostComments(postID int) ([]*models.Comment, error) {
	// Verify post exists
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(postID)
}

// UpdateComment updates an existing comment with validation
func (s *CommentService) UpdateComment(comment *models.Comment) error {
	existing, err := s.commentRepo.GetByID(comment.ID)
	if err != nil {
		return err
	}
	if existing.PostID != comment.PostID {
		return fieldError("post_id", "comment does not belong to specified post")
	}

	// Preserve creation time and post ID
	comment.CreatedAt = existing.CreatedAt
	comment.PostID = existing.PostID
	if err := comment.Validate(); err != nil {
		return err
	}
	return s.commentRepo.Update(comment)
}

// DeleteComment deletes a comment
func (s *CommentService) DeleteComment(id int) error {
	return s.commentRepo.Delete(id)
}

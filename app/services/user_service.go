package services

import (
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// UserService backs the admin user screens.
type UserService struct {
	users repositories.UserRepository
	subs  *SubscriptionService
	now   func() time.Time
}

func NewUserService(users repositories.UserRepository, subs *SubscriptionService) *UserService {
	return &UserService{users: users, subs: subs, now: time.Now}
}

func (s *UserService) List() ([]*models.User, error) {
	return s.users.List()
}

func (s *UserService) Get(id string) (*models.User, error) {
	return s.users.GetByID(id)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *UserService) SetRole(actor *models.User, id, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, fieldError("role", "unknown role")
	}
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.ID == user.ID && role != models.RoleAdmin {
		return nil, errors.Wrap(ErrForbidden, "admins cannot demote themselves")
	}
	user.Role = role
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(user); err != nil {
		return nil, errors.Wrap(err, "saving role")
	}
	return user, nil
}

// GrantPlan gives a user VIP access without a payment.
func (s *UserService) GrantPlan(id, plan string, days int) (*models.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.subs.Activate(user, plan, days); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(actor *models.User, id string) error {
	if actor != nil && actor.ID == id {
		return errors.Wrap(ErrForbidden, "admins cannot delete themselves")
	}
	return s.users.Delete(id)
}

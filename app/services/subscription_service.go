package services

import (
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// SubscriptionService keeps stored subscriptions in step with the calendar.
type SubscriptionService struct {
	users repositories.UserRepository
	now   func() time.Time
}

func NewSubscriptionService(users repositories.UserRepository) *SubscriptionService {
	return &SubscriptionService{users: users, now: time.Now}
}

// Check settles an ended freeze or an expired plan and saves the user once
// when something changed.
func (s *SubscriptionService) Check(user *models.User) error {
	sub, changed := models.CheckAndUpdateSubscription(user.Subscription, s.now())
	if !changed {
		return nil
	}
	user.Subscription = sub
	user.UpdatedAt = s.now().UTC()
	return errors.Wrap(s.users.Update(user), "updating subscription")
}

// Freeze pauses the user's active plan for days.
func (s *SubscriptionService) Freeze(user *models.User, days int) error {
	if err := s.Check(user); err != nil {
		return err
	}
	sub, err := user.Subscription.Freeze(days, s.now())
	if err != nil {
		return fieldError("days", err.Error())
	}
	user.Subscription = sub
	user.UpdatedAt = s.now().UTC()
	return errors.Wrap(s.users.Update(user), "freezing subscription")
}

// Activate starts or extends plan for days.
func (s *SubscriptionService) Activate(user *models.User, plan string, days int) error {
	if days < 1 {
		return fieldError("days", "days must be at least 1")
	}
	if err := s.Check(user); err != nil {
		return err
	}
	user.Subscription = user.Subscription.Activate(plan, days, s.now())
	user.UpdatedAt = s.now().UTC()
	return errors.Wrap(s.users.Update(user), "activating subscription")
}

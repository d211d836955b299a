package models

import (
	"errors"
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionNone    SubscriptionStatus = ""
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionFrozen  SubscriptionStatus = "frozen"
	SubscriptionExpired SubscriptionStatus = "expired"
)

var (
	ErrSubscriptionInactive = errors.New("subscription is not active")
	ErrInvalidFreezeDays    = errors.New("freeze must last at least one day")
)

// Subscription tracks a VIP plan through its start, expiry and freeze dates.
type Subscription struct {
	Plan       string             `json:"plan,omitempty"`
	Status     SubscriptionStatus `json:"status,omitempty"`
	StartedAt  time.Time          `json:"started_at,omitempty"`
	ExpiresAt  time.Time          `json:"expires_at,omitempty"`
	FrozenAt   time.Time          `json:"frozen_at,omitempty"`
	UnfreezeAt time.Time          `json:"unfreeze_at,omitempty"`
}

// IsActive reports whether the plan grants access at now.
func (s Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && now.Before(s.ExpiresAt)
}

// DaysLeft is the number of whole days until expiry; frozen days do not count down.
func (s Subscription) DaysLeft(now time.Time) int {
	ref := now
	if s.Status == SubscriptionFrozen {
		ref = s.FrozenAt
	} else if !s.IsActive(now) {
		return 0
	}
	d := s.ExpiresAt.Sub(ref)
	if d <= 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// CheckAndUpdateSubscription settles freezes that have ended and plans that have
// run out. It returns the new state and whether anything changed.
//
// A frozen plan is extended by the full frozen span once UnfreezeAt passes.
func CheckAndUpdateSubscription(s Subscription, now time.Time) (Subscription, bool) {
	switch s.Status {
	case SubscriptionFrozen:
		if s.UnfreezeAt.IsZero() || now.Before(s.UnfreezeAt) {
			return s, false
		}
		if span := s.UnfreezeAt.Sub(s.FrozenAt); span > 0 && !s.FrozenAt.IsZero() {
			s.ExpiresAt = s.ExpiresAt.Add(span)
		}
		s.FrozenAt = time.Time{}
		s.UnfreezeAt = time.Time{}
		s.Status = SubscriptionActive
		if !now.Before(s.ExpiresAt) {
			s.Status = SubscriptionExpired
		}
		return s, true
	case SubscriptionActive:
		if !now.Before(s.ExpiresAt) {
			s.Status = SubscriptionExpired
			return s, true
		}
	}
	return s, false
}

// Activate starts plan for days, or extends it when the same plan is still running.
func (s Subscription) Activate(plan string, days int, now time.Time) Subscription {
	length := time.Duration(days) * 24 * time.Hour
	if s.IsActive(now) && s.Plan == plan {
		s.ExpiresAt = s.ExpiresAt.Add(length)
		return s
	}
	return Subscription{
		Plan:      plan,
		Status:    SubscriptionActive,
		StartedAt: now,
		ExpiresAt: now.Add(length),
	}
}

// Freeze pauses an active plan for days.
func (s Subscription) Freeze(days int, now time.Time) (Subscription, error) {
	if days < 1 {
		return s, ErrInvalidFreezeDays
	}
	if !s.IsActive(now) {
		return s, ErrSubscriptionInactive
	}
	s.Status = SubscriptionFrozen
	s.FrozenAt = now
	s.UnfreezeAt = now.Add(time.Duration(days) * 24 * time.Hour)
	return s, nil
}

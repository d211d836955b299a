package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds
const (
	TxDeposit      = "deposit"
	TxWithdrawal   = "withdrawal"
	TxSubscription = "subscription"
)

// Transaction statuses
const (
	TxPending = "pending"
	TxSuccess = "success"
	TxFailed  = "failed"
)

// Wallet holds a user's balance.
type Wallet struct {
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PlanPrice is a purchasable VIP plan.
type PlanPrice struct {
	Name   string          `json:"name" validate:"required,slug"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount" validate:"-"`
	Days   int             `json:"days" validate:"gte=1"`
}

// WalletSettings are the site-wide payment limits and plan prices.
type WalletSettings struct {
	Currency           string          `json:"currency" validate:"required,len=3"`
	MinDeposit         decimal.Decimal `json:"min_deposit" validate:"-"`
	MinWithdrawal      decimal.Decimal `json:"min_withdrawal" validate:"-"`
	DepositsEnabled    bool            `json:"deposits_enabled"`
	WithdrawalsEnabled bool            `json:"withdrawals_enabled"`
	Plans              []PlanPrice     `json:"plans" validate:"dive"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DefaultWalletSettings is used until an admin saves settings.
func DefaultWalletSettings() WalletSettings {
	return WalletSettings{
		Currency:           "NGN",
		MinDeposit:         decimal.NewFromInt(1000),
		MinWithdrawal:      decimal.NewFromInt(5000),
		DepositsEnabled:    true,
		WithdrawalsEnabled: true,
		Plans: []PlanPrice{
			{Name: "daily", Label: "Daily VIP", Amount: decimal.NewFromInt(1000), Days: 1},
			{Name: "weekly", Label: "Weekly VIP", Amount: decimal.NewFromInt(5000), Days: 7},
			{Name: "monthly", Label: "Monthly VIP", Amount: decimal.NewFromInt(15000), Days: 30},
		},
	}
}

func (s *WalletSettings) Validate() error {
	return ValidateStruct(s)
}

// Plan looks up a plan by name.
func (s WalletSettings) Plan(name string) (PlanPrice, bool) {
	for _, p := range s.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return PlanPrice{}, false
}

// Transaction is a wallet movement awaiting or past payment verification.
type Transaction struct {
	ID        int             `json:"id"`
	Reference string          `json:"reference"`
	UserID    string          `json:"user_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	Plan      string          `json:"plan,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (t *Transaction) IsPending() bool { return t.Status == TxPending }

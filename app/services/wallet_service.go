package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tipsvendor/app/models"
	"tipsvendor/app/payments"
	"tipsvendor/app/repositories"
)

// WalletService records deposits, withdrawals and plan purchases, and settles
// them once the payment processor confirms.
type WalletService struct {
	wallets  repositories.WalletRepository
	settings repositories.SettingsRepository
	txs      repositories.TransactionRepository
	users    repositories.UserRepository
	subs     *SubscriptionService
	verifier payments.Verifier
	now      func() time.Time
}

func NewWalletService(wallets repositories.WalletRepository, settings repositories.SettingsRepository,
	txs repositories.TransactionRepository, users repositories.UserRepository,
	subs *SubscriptionService, verifier payments.Verifier) *WalletService {
	return &WalletService{
		wallets:  wallets,
		settings: settings,
		txs:      txs,
		users:    users,
		subs:     subs,
		verifier: verifier,
		now:      time.Now,
	}
}

// Settings returns the current wallet settings.
func (s *WalletService) Settings() (*models.WalletSettings, error) {
	return s.settings.GetWalletSettings()
}

// UpdateSettings validates and saves new wallet settings.
func (s *WalletService) UpdateSettings(settings *models.WalletSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	settings.UpdatedAt = s.now()
	return s.settings.SaveWalletSettings(settings)
}

// Wallet returns the user's wallet, empty until first funded.
func (s *WalletService) Wallet(userID string) (*models.Wallet, error) {
	w, err := s.wallets.Get(userID)
	if errors.Cause(err) == repositories.ErrNotFound {
		settings, err := s.settings.GetWalletSettings()
		if err != nil {
			return nil, err
		}
		return &models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: settings.Currency}, nil
	}
	return w, err
}

// Transactions lists the user's transactions, newest first.
func (s *WalletService) Transactions(userID string) ([]*models.Transaction, error) {
	return s.txs.ListByUser(userID)
}

// Deposit records a pending deposit for the client to pay.
func (s *WalletService) Deposit(user *models.User, amount decimal.Decimal) (*models.Transaction, error) {
	settings, err := s.settings.GetWalletSettings()
	if err != nil {
		return nil, err
	}
	if !settings.DepositsEnabled {
		return nil, fieldError("amount", "deposits are currently disabled")
	}
	if amount.LessThan(settings.MinDeposit) {
		return nil, fieldError("amount", "amount is below the minimum deposit of "+payments.Format(settings.MinDeposit, settings.Currency))
	}
	return s.record(user.ID, models.TxDeposit, amount, settings.Currency, "")
}

// Withdraw records a pending withdrawal. Funds are not moved until an
// operator pays it out.
func (s *WalletService) Withdraw(user *models.User, amount decimal.Decimal) (*models.Transaction, error) {
	settings, err := s.settings.GetWalletSettings()
	if err != nil {
		return nil, err
	}
	if !settings.WithdrawalsEnabled {
		return nil, fieldError("amount", "withdrawals are currently disabled")
	}
	if amount.LessThan(settings.MinWithdrawal) {
		return nil, fieldError("amount", "amount is below the minimum withdrawal of "+payments.Format(settings.MinWithdrawal, settings.Currency))
	}
	available, err := s.Available(user.ID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(available) {
		return nil, fieldError("amount", "insufficient balance")
	}
	return s.record(user.ID, models.TxWithdrawal, amount, settings.Currency, "")
}

// Available is the balance less withdrawals still waiting to be paid out.
func (s *WalletService) Available(userID string) (decimal.Decimal, error) {
	w, err := s.Wallet(userID)
	if err != nil {
		return decimal.Zero, err
	}
	txs, err := s.txs.ListByUser(userID)
	if err != nil {
		return decimal.Zero, err
	}
	available := w.Balance
	for _, tx := range txs {
		if tx.Kind == models.TxWithdrawal && tx.IsPending() {
			available = available.Sub(tx.Amount)
		}
	}
	return available, nil
}

// SubscribePlan records a pending purchase of plan at its configured price.
func (s *WalletService) SubscribePlan(user *models.User, plan string) (*models.Transaction, error) {
	settings, err := s.settings.GetWalletSettings()
	if err != nil {
		return nil, err
	}
	price, ok := settings.Plan(plan)
	if !ok {
		return nil, fieldError("plan", "unknown plan")
	}
	return s.record(user.ID, models.TxSubscription, price.Amount, settings.Currency, price.Name)
}

func (s *WalletService) record(userID, kind string, amount decimal.Decimal, currency, plan string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fieldError("amount", "amount must be positive")
	}
	now := s.now()
	tx := &models.Transaction{
		Reference: "tv_" + uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		Currency:  currency,
		Status:    models.TxPending,
		Plan:      plan,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.txs.Create(tx); err != nil {
		return nil, errors.Wrap(err, "recording transaction")
	}
	return tx, nil
}

// VerifyPayment asks the processor about reference and settles the
// transaction when the charge covers it; a charge that does not is treated as
// failed. Settling is atomic per reference, so repeated or concurrent calls
// credit once.
func (s *WalletService) VerifyPayment(ctx context.Context, reference string) (*models.Transaction, error) {
	tx, err := s.txs.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if !tx.IsPending() || tx.Kind == models.TxWithdrawal {
		return tx, nil
	}

	v, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		return nil, errors.Wrap(err, "verifying payment")
	}
	switch {
	case v.Successful() && paysFor(v, tx):
		return s.settle(reference)
	case v.Successful(), v.Status == "failed", v.Status == "reversed":
		failed, _, err := s.txs.Resolve(reference, models.TxFailed, s.now())
		if err != nil {
			return nil, errors.Wrap(err, "failing transaction")
		}
		return failed, nil
	default:
		return tx, nil
	}
}

// paysFor reports whether the processor's charge covers tx.
func paysFor(v *payments.Verification, tx *models.Transaction) bool {
	return v.Reference == tx.Reference &&
		strings.EqualFold(v.Currency, tx.Currency) &&
		v.Amount.GreaterThanOrEqual(tx.Amount)
}

// settle marks the transaction paid. Deposits are credited by the
// repository in the same write; plan purchases are activated by whichever
// caller won the transition, and put back to pending if that fails.
func (s *WalletService) settle(reference string) (*models.Transaction, error) {
	tx, changed, err := s.txs.Resolve(reference, models.TxSuccess, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "settling transaction")
	}
	if !changed || tx.Kind != models.TxSubscription {
		return tx, nil
	}
	if err := s.activate(tx); err != nil {
		tx.Status = models.TxPending
		tx.UpdatedAt = s.now()
		if rerr := s.txs.Update(tx); rerr != nil {
			return nil, errors.Wrapf(err, "activating plan (reopening %s: %v)", reference, rerr)
		}
		return nil, errors.Wrap(err, "activating plan")
	}
	return tx, nil
}

// VerifyPaymentFor is VerifyPayment limited to the transaction's owner and
// admins.
func (s *WalletService) VerifyPaymentFor(ctx context.Context, user *models.User, reference string) (*models.Transaction, error) {
	tx, err := s.txs.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if tx.UserID != user.ID && !user.IsAdmin() {
		return nil, errors.Wrapf(ErrForbidden, "transaction %s", reference)
	}
	return s.VerifyPayment(ctx, reference)
}

// activate starts the plan bought by a confirmed subscription payment.
func (s *WalletService) activate(tx *models.Transaction) error {
	settings, err := s.settings.GetWalletSettings()
	if err != nil {
		return err
	}
	price, ok := settings.Plan(tx.Plan)
	if !ok {
		return errors.Errorf("plan %q no longer exists", tx.Plan)
	}
	user, err := s.users.GetByID(tx.UserID)
	if err != nil {
		return err
	}
	return s.subs.Activate(user, price.Name, price.Days)
}

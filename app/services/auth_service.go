package services

import (
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	tvmail "tipsvendor/app/mail"
	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// Mailer queues email for background delivery.
type Mailer interface {
	SendMessages(messages ...*tvmail.Message)
}

// AuthService handles accounts: sign-up, sign-in, sessions, email
// verification and password resets.
type AuthService struct {
	users    repositories.UserRepository
	sessions *SessionManager
	tokens   *TokenGenerator
	mailer   Mailer
	subs     *SubscriptionService
	resetTTL time.Duration
	now      func() time.Time
}

func NewAuthService(users repositories.UserRepository, sessions *SessionManager, tokens *TokenGenerator,
	mailer Mailer, subs *SubscriptionService, resetTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		subs:     subs,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// Register creates a user account with the default role and emails a
// verification link.
func (s *AuthService) Register(form *models.RegisterForm) (*models.User, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		Name:      form.Name,
		Email:     form.Email,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := setPassword(user, form.Password); err != nil {
		return nil, err
	}
	if err := s.CreateUser(user); err != nil {
		return nil, err
	}

	if err := s.SendVerification(user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser validates and stores a user whose password is already set.
func (s *AuthService) CreateUser(user *models.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if len(user.PasswordHash) == 0 {
		return fieldError("password", "password is required")
	}
	if err := s.users.Create(user); err != nil {
		if errors.Cause(err) == repositories.ErrDuplicate {
			return fieldError("email", "a user with this email already exists")
		}
		return errors.Wrap(err, "creating user")
	}
	return nil
}

// Login checks credentials, records the login and returns a session token.
func (s *AuthService) Login(form *models.LoginForm) (*models.User, string, error) {
	if err := form.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.users.GetByEmail(form.Email)
	if err != nil {
		if errors.Cause(err) == repositories.ErrNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := user.CheckPassword(form.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	user.LastLogin = s.now().UTC()
	if err := s.users.Update(user); err != nil {
		return nil, "", errors.Wrap(err, "recording login")
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves the user behind a session token. The subscription is
// brought up to date on the way through.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.sessions.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(claims.Subject)
	if err != nil {
		if errors.Cause(err) == repositories.ErrNotFound {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !s.sessions.Current(claims, user) {
		return nil, ErrUnauthorized
	}
	if s.subs != nil {
		if err := s.subs.Check(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// SessionTTL is the lifetime of issued session cookies.
func (s *AuthService) SessionTTL() time.Duration { return s.sessions.TTL() }

// SendVerification emails a link that confirms the user's address.
func (s *AuthService) SendVerification(user *models.User) error {
	token, err := s.tokens.Make(user, PurposeVerifyEmail)
	if err != nil {
		return errors.Wrap(err, "making verification token")
	}
	s.mailer.SendMessages(&tvmail.Message{
		To:       []mail.Address{{Name: user.Name, Address: user.Email}},
		Subject:  "Confirm your email address",
		Template: "verify_email",
		Data:     map[string]any{"Name": user.Name, "UID": EncodeUID(user), "Token": token},
	})
	return nil
}

// VerifyEmail marks the user's address as confirmed.
func (s *AuthService) VerifyEmail(uid, token string) (*models.User, error) {
	user, err := s.userFromUID(uid)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return user, nil
	}
	if err := s.tokens.Verify(user, PurposeVerifyEmail, token); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(user); err != nil {
		return nil, errors.Wrap(err, "verifying email")
	}
	return user, nil
}

// RequestPasswordReset emails a reset link. Unknown addresses are ignored so
// the response does not reveal which emails have accounts.
func (s *AuthService) RequestPasswordReset(email string) error {
	email = models.CleanString(email, true)
	if _, err := mail.ParseAddress(email); err != nil {
		return fieldError("email", "email must be a valid email address")
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Cause(err) == repositories.ErrNotFound {
			return nil
		}
		return err
	}

	token, err := s.tokens.Make(user, PurposePasswordReset)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	s.mailer.SendMessages(&tvmail.Message{
		To:       []mail.Address{{Name: user.Name, Address: user.Email}},
		Subject:  "Reset your password",
		Template: "password_reset",
		Data: map[string]any{
			"Name":      user.Name,
			"UID":       EncodeUID(user),
			"Token":     token,
			"ValidDays": int(s.resetTTL / (24 * time.Hour)),
		},
	})
	return nil
}

// ResetPassword sets a new password when the link is valid.
func (s *AuthService) ResetPassword(form *models.ResetPasswordForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	user, err := s.userFromUID(form.UID)
	if err != nil {
		return err
	}
	if err := s.tokens.Verify(user, PurposePasswordReset, form.Token); err != nil {
		return err
	}
	if err := setPassword(user, form.Password); err != nil {
		return err
	}
	user.UpdatedAt = s.now().UTC()
	return errors.Wrap(s.users.Update(user), "saving password")
}

// setPassword hashes pwd onto user, reporting bcrypt's length limit as a
// form error.
func setPassword(user *models.User, pwd string) error {
	err := user.SetPassword(pwd)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return fieldError("password", "password must be at most 72 bytes")
	}
	return errors.Wrap(err, "hashing password")
}

func (s *AuthService) userFromUID(uid string) (*models.User, error) {
	id, err := DecodeUID(uid)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Cause(err) == repositories.ErrNotFound {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"

	"tipsvendor/app/models"
)

// SessionCookie is the name of the signed session cookie.
const SessionCookie = "tv_session"

// SessionClaims are carried in the session JWT. PasswordStamp changes with
// the user's password hash, so a new password signs out older sessions.
type SessionClaims struct {
	jwt.RegisteredClaims
	Role          string `json:"role"`
	PasswordStamp string `json:"pws"`
}

// SessionManager signs and parses HS256 session tokens.
type SessionManager struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret, issuer string, ttl time.Duration) *SessionManager {
	return &SessionManager{key: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// TTL is how long issued sessions stay valid.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

func (m *SessionManager) passwordStamp(u *models.User) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write(u.PasswordHash)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:12])
}

// Issue returns a signed token for u.
func (m *SessionManager) Issue(u *models.User) (string, error) {
	now := m.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Role:          u.Role,
		PasswordStamp: m.passwordStamp(u),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(m.key)
	if err != nil {
		return "", errors.Wrap(err, "signing session")
	}
	return ss, nil
}

// Parse validates the signature and expiry and returns the claims.
func (m *SessionManager) Parse(tokenString string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Issuer != m.issuer || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Current reports whether claims were issued under u's present password.
func (m *SessionManager) Current(claims *SessionClaims, u *models.User) bool {
	return hmac.Equal([]byte(claims.PasswordStamp), []byte(m.passwordStamp(u)))
}

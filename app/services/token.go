package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tipsvendor/app/models"
)

var tokenSalt = []byte("tipsvendor.app.services.token")

// Token purposes keep a verification link from being replayed as a reset link.
const (
	PurposeVerifyEmail   = "verify-email"
	PurposePasswordReset = "password-reset"
)

// TokenGenerator makes one-shot links for email verification and password
// resets. A token is "<base32 day stamp>-<hmac>" where the HMAC covers the
// user state the link is meant to change, so it dies once that state changes.
type TokenGenerator struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

func NewTokenGenerator(secret string, timeout time.Duration) *TokenGenerator {
	return &TokenGenerator{secret: []byte(secret), timeout: timeout, now: time.Now}
}

// EncodeUID base64 encodes a user ID for use in links.
func EncodeUID(u *models.User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(u.ID))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", ErrInvalidToken
	}
	return string(idBytes), nil
}

// Make generates a token for u and purpose.
func (g *TokenGenerator) Make(u *models.User, purpose string) (string, error) {
	return g.makeWithTimestamp(u, purpose, numDaysSince2001(g.now()))
}

// Verify checks that token was made for u and purpose and has not expired.
func (g *TokenGenerator) Verify(u *models.User, purpose, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return ErrInvalidToken
	}

	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(parts[0])
	if err != nil {
		return ErrInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return ErrInvalidToken
	}

	expected, err := g.makeWithTimestamp(u, purpose, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 0 {
		return ErrInvalidToken
	}

	if numDaysSince2001(g.now())-ts > int(g.timeout/(24*time.Hour)) {
		return ErrTokenExpired
	}
	return nil
}

func (g *TokenGenerator) makeWithTimestamp(u *models.User, purpose string, ts int) (string, error) {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.Itoa(ts)))
	sig, err := g.sign(hashValue(u, purpose, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func (g *TokenGenerator) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, tokenSalt...), g.secret...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func hashValue(u *models.User, purpose string, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(purpose)
	val.WriteString(u.ID)
	val.WriteString(u.Email)
	val.Write(u.PasswordHash)
	if !u.LastLogin.IsZero() {
		val.WriteString(u.LastLogin.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.FormatBool(u.EmailVerified))
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}

package services

import (
	"testing"
	"time"

	"tipsvendor/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerator(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "jane@example.com", PasswordHash: []byte("hash")}

	newGen := func(now time.Time) *TokenGenerator {
		g := NewTokenGenerator(testSecret, 3*24*time.Hour)
		g.now = fixedClock(now)
		return g
	}

	t.Run("valid token", func(t *testing.T) {
		g := newGen(testNow)
		token, err := g.Make(user, PurposePasswordReset)
		require.NoError(t, err)
		assert.NoError(t, g.Verify(user, PurposePasswordReset, token))
	})

	t.Run("wrong purpose", func(t *testing.T) {
		g := newGen(testNow)
		token, err := g.Make(user, PurposeVerifyEmail)
		require.NoError(t, err)
		assert.Equal(t, ErrInvalidToken, g.Verify(user, PurposePasswordReset, token))
	})

	t.Run("changed password invalidates", func(t *testing.T) {
		g := newGen(testNow)
		token, err := g.Make(user, PurposePasswordReset)
		require.NoError(t, err)

		changed := *user
		changed.PasswordHash = []byte("other")
		assert.Equal(t, ErrInvalidToken, g.Verify(&changed, PurposePasswordReset, token))
	})

	t.Run("other secret", func(t *testing.T) {
		token, err := newGen(testNow).Make(user, PurposePasswordReset)
		require.NoError(t, err)

		other := NewTokenGenerator("another-secret", 3*24*time.Hour)
		other.now = fixedClock(testNow)
		assert.Equal(t, ErrInvalidToken, other.Verify(user, PurposePasswordReset, token))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := newGen(testNow).Make(user, PurposePasswordReset)
		require.NoError(t, err)

		assert.NoError(t, newGen(testNow.Add(2*24*time.Hour)).Verify(user, PurposePasswordReset, token))
		assert.Equal(t, ErrTokenExpired, newGen(testNow.Add(5*24*time.Hour)).Verify(user, PurposePasswordReset, token))
	})

	t.Run("malformed", func(t *testing.T) {
		g := newGen(testNow)
		for _, token := range []string{"", "nodash", "!!!-abc", "MFRGG-abc"} {
			assert.Equal(t, ErrInvalidToken, g.Verify(user, PurposePasswordReset, token), token)
		}
	})
}

func TestUIDRoundTrip(t *testing.T) {
	user := &models.User{ID: "7f9c2ba4-e88f-11e4-abcd-000000000000"}
	id, err := DecodeUID(EncodeUID(user))
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = DecodeUID("%%%")
	assert.Equal(t, ErrInvalidToken, err)
}

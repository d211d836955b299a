package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaystackVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/tv-123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{
			"status":"success","reference":"tv-123","amount":1500000,"currency":"NGN",
			"paid_at":"2026-03-01T10:00:00.000Z"}}`))
	}))
	defer server.Close()

	client := NewPaystackClient("sk_test", server.URL)
	v, err := client.Verify(context.Background(), "tv-123")
	require.NoError(t, err)

	assert.True(t, v.Successful())
	assert.Equal(t, "tv-123", v.Reference)
	assert.True(t, v.Amount.Equal(decimal.NewFromInt(15000)), v.Amount.String())
	assert.Equal(t, "NGN", v.Currency)
}

func TestPaystackVerifyAbandoned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"message":"ok","data":{"status":"abandoned","reference":"tv-9","amount":100}}`))
	}))
	defer server.Close()

	v, err := NewPaystackClient("sk", server.URL).Verify(context.Background(), "tv-9")
	require.NoError(t, err)
	assert.False(t, v.Successful())
}

func TestPaystackVerifyErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer server.Close()

	_, err := NewPaystackClient("sk", server.URL).Verify(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transaction reference not found")

	_, err = NewPaystackClient("", server.URL).Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

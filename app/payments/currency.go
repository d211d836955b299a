package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tipsvendor/app/cache"
)

// ErrUnknownCurrency is returned when the rate table has no entry for a code.
var ErrUnknownCurrency = errors.New("unknown currency")

var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"GHS": "GH₵",
	"KES": "KSh",
	"ZAR": "R",
}

// Converter converts between currencies using rates fetched from an
// open.er-api.com style endpoint: GET {base}/{CODE} → {"result","rates"}.
type Converter struct {
	apiURL     string
	ttl        time.Duration
	memo       *cache.Memo
	httpClient *http.Client
	log        *slog.Logger

	// retryDelay is the first backoff step; it doubles on each retry.
	retryDelay time.Duration
}

func NewConverter(apiURL string, ttl time.Duration, memo *cache.Memo, log *slog.Logger) *Converter {
	return &Converter{
		apiURL:     apiURL,
		ttl:        ttl,
		memo:       memo,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
		retryDelay: time.Second,
	}
}

type ratesResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
	Error    string             `json:"error-type"`
}

// Rates returns the table of rates relative to base, cached for the TTL.
func (c *Converter) Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	base = strings.ToUpper(base)
	v, err := c.memo.GetCached("rates:"+base, c.ttl, func() (any, error) {
		return c.fetchRates(ctx, base)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]decimal.Decimal), nil
}

// Convert returns amount in the target currency, rounded to 2 dp.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount.Round(2), nil
	}
	rates, err := c.Rates(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := rates[to]
	if !ok {
		return decimal.Zero, errors.Wrap(ErrUnknownCurrency, to)
	}
	return amount.Mul(rate).Round(2), nil
}

// fetchRates tries three times with exponential backoff between attempts.
func (c *Converter) fetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(i-1))
			c.log.Info("Retrying exchange rate fetch", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		rates, err := c.doFetch(ctx, base)
		if err == nil {
			return rates, nil
		}
		lastErr = err
		c.log.Warn("Exchange rate fetch attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	return nil, errors.Wrap(lastErr, "fetching exchange rates")
}

func (c *Converter) doFetch(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/"+base, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.Result != "success" {
		return nil, fmt.Errorf("exchange rate API error: %s", data.Error)
	}

	rates := make(map[string]decimal.Decimal, len(data.Rates))
	for code, r := range data.Rates {
		rates[code] = decimal.NewFromFloat(r)
	}
	return rates, nil
}

// Format renders amount with the currency symbol, thousands separators and
// two decimals, e.g. ₦15,000.00. Unknown codes are prefixed with the code.
func Format(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(currency)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	symbol, ok := symbols[currency]
	if !ok {
		symbol = currency + " "
	}
	return sign + symbol + b.String() + "." + frac
}

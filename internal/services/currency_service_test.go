package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsake/internal/domain"
	"keepsake/internal/rates"
	"keepsake/internal/services"
)

func TestCurrencyService_NewSessionGetsRates(t *testing.T) {
	f := newFixture(t)
	sel, err := f.currency.Selection(context.Background(), "sid-1")
	require.NoError(t, err)

	assert.Equal(t, "USD", sel.Currency)
	assert.Equal(t, 1.0, sel.ExchangeRate)
	assert.Equal(t, 0.92, sel.Rates["EUR"])
	assert.Equal(t, 1, f.rates.calls)
}

func TestCurrencyService_SetCurrencyUsesCachedTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sel, err := f.currency.SetCurrency(ctx, "sid-1", "GBP")
	require.NoError(t, err)
	assert.Equal(t, 0.79, sel.ExchangeRate)

	sel, err = f.currency.SetCurrency(ctx, "sid-1", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.92, sel.ExchangeRate)
	assert.Equal(t, 1, f.rates.calls, "switching currency does not fetch")

	// known but absent from the live table
	sel, err = f.currency.SetCurrency(ctx, "sid-1", "MXN")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sel.ExchangeRate)

	_, err = f.currency.SetCurrency(ctx, "sid-1", "XYZ")
	assert.ErrorIs(t, err, services.ErrUnknownCurrency)
}

func TestCurrencyService_RehydratesAcrossReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.currency.SetCurrency(ctx, "sid-1", "EUR")
	require.NoError(t, err)

	// a fresh service over the same storage behaves like a reload
	reloaded := services.NewCurrencyService(f.currency.Repo, f.rates, time.Hour)
	sel, err := reloaded.Selection(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", sel.Currency)
	assert.Equal(t, 0.92, sel.ExchangeRate)
	assert.Equal(t, 1, f.rates.calls)
}

func TestCurrencyService_FallbackIsRetriedNextRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rates.quote = rates.Quote{Rates: domain.FallbackRates(), Source: rates.SourceFallback, FetchedAt: time.Now()}

	sel, err := f.currency.SetCurrency(ctx, "sid-1", "JPY")
	require.NoError(t, err)
	assert.Equal(t, 149.50, sel.ExchangeRate)

	f.rates.quote = rates.Quote{Rates: domain.Rates{"USD": 1, "JPY": 150.25, "GBP": 0.8}, Source: rates.SourceLive, FetchedAt: time.Now()}
	sel, err = f.currency.SetCurrency(ctx, "sid-1", "GBP")
	require.NoError(t, err)
	assert.Equal(t, 0.79, sel.ExchangeRate, "switching keeps the stored fallback table")
	assert.Equal(t, 1, f.rates.calls, "switching currency never fetches")

	_, err = f.currency.SetCurrency(ctx, "sid-1", "JPY")
	require.NoError(t, err)
	sel, err = f.currency.Selection(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 150.25, sel.ExchangeRate)
	assert.Equal(t, 2, f.rates.calls)
}

func TestCurrencyService_RefreshRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.currency.SetCurrency(ctx, "sid-1", "EUR")
	require.NoError(t, err)

	f.rates.quote = rates.Quote{Rates: domain.Rates{"USD": 1, "EUR": 0.95}, Source: rates.SourceCache, FetchedAt: time.Now()}
	sel, q, err := f.currency.RefreshRates(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, rates.SourceCache, q.Source)
	assert.Equal(t, 0.95, sel.ExchangeRate)
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"keepsake/internal/domain"
	"keepsake/internal/rates"
	"keepsake/internal/repos"
)

var ErrUnknownCurrency = errors.New("unknown currency")

type RatesProvider interface {
	Latest(ctx context.Context) rates.Quote
}

// CurrencyService owns the session's display currency. Rates are pulled
// from the provider when a session has none yet or its table is older
// than TTL; fallback tables are stored as already stale so the next read
// retries the live source.
type CurrencyService struct {
	Repo  *repos.CurrencyRepo
	Rates RatesProvider
	TTL   time.Duration
	locks sessionLocks
	now   func() time.Time
}

func NewCurrencyService(repo *repos.CurrencyRepo, provider RatesProvider, ttl time.Duration) *CurrencyService {
	if ttl <= 0 {
		ttl = rates.DefaultTTL
	}
	return &CurrencyService{Repo: repo, Rates: provider, TTL: ttl, now: time.Now}
}

func (s *CurrencyService) Selection(ctx context.Context, sessionID string) (domain.Selection, error) {
	defer s.locks.lock(sessionID)()
	sel, _, err := s.current(ctx, sessionID)
	return sel, err
}

// SetCurrency accepts any known code and derives its rate from the
// session's stored table, stale or not. Only a session with no table yet
// is initialized from the provider; refreshing is left to reads and
// RefreshRates.
func (s *CurrencyService) SetCurrency(ctx context.Context, sessionID, code string) (domain.Selection, error) {
	if !domain.IsKnownCurrency(code) {
		return domain.Selection{}, ErrUnknownCurrency
	}
	defer s.locks.lock(sessionID)()
	sel, ratesAt, err := s.Repo.Load(sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		sel, ratesAt, err = s.current(ctx, sessionID)
	}
	if err != nil {
		return domain.Selection{}, err
	}
	sel.SetCurrency(code)
	if err := s.Repo.Save(sessionID, sel, ratesAt); err != nil {
		return domain.Selection{}, err
	}
	return sel, nil
}

func (s *CurrencyService) RefreshRates(ctx context.Context, sessionID string) (domain.Selection, rates.Quote, error) {
	defer s.locks.lock(sessionID)()
	sel, _, err := s.load(sessionID)
	if err != nil {
		return domain.Selection{}, rates.Quote{}, err
	}
	q, err := s.apply(ctx, sessionID, &sel)
	return sel, q, err
}

// current loads the selection and refreshes its rates when needed.
func (s *CurrencyService) current(ctx context.Context, sessionID string) (domain.Selection, time.Time, error) {
	sel, ratesAt, err := s.load(sessionID)
	if err != nil {
		return domain.Selection{}, time.Time{}, err
	}
	if s.now().Sub(ratesAt) < s.TTL {
		return sel, ratesAt, nil
	}
	q, err := s.apply(ctx, sessionID, &sel)
	if err != nil {
		return domain.Selection{}, time.Time{}, err
	}
	return sel, stamp(q), nil
}

func (s *CurrencyService) load(sessionID string) (domain.Selection, time.Time, error) {
	sel, ratesAt, err := s.Repo.Load(sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSelection(), time.Time{}, nil
	}
	return sel, ratesAt, err
}

func (s *CurrencyService) apply(ctx context.Context, sessionID string, sel *domain.Selection) (rates.Quote, error) {
	q := s.Rates.Latest(ctx)
	sel.SetRates(q.Rates)
	return q, s.Repo.Save(sessionID, *sel, stamp(q))
}

func stamp(q rates.Quote) time.Time {
	if q.Source == rates.SourceFallback {
		return time.Time{}
	}
	return q.FetchedAt
}

package rates

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"keepsake/internal/domain"
)

type fakeSource struct {
	calls atomic.Int32
	rates domain.Rates
	err   error
	delay time.Duration
}

func (f *fakeSource) Fetch(ctx context.Context) (domain.Rates, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

func TestService_CachesWithinWindow(t *testing.T) {
	src := &fakeSource{rates: domain.Rates{"USD": 1, "EUR": 0.9}}
	svc := NewService(src, NewMemoryCache(DefaultTTL))
	ctx := context.Background()

	q := svc.Latest(ctx)
	assert.Equal(t, SourceLive, q.Source)
	assert.Equal(t, 0.9, q.Rates["EUR"])

	for i := 0; i < 5; i++ {
		q = svc.Latest(ctx)
		assert.Equal(t, SourceCache, q.Source)
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestService_CanceledCallerDoesNotSpoilSharedFetch(t *testing.T) {
	src := &fakeSource{rates: domain.Rates{"USD": 1, "EUR": 0.9}}
	svc := NewService(src, NewMemoryCache(DefaultTTL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := svc.Latest(ctx)
	assert.Equal(t, SourceLive, q.Source)
	assert.Equal(t, 0.9, q.Rates["EUR"])
	assert.Equal(t, SourceCache, svc.Latest(context.Background()).Source)
}

func TestService_RefetchesAfterWindow(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(DefaultTTL)
	cache.now = func() time.Time { return now }
	src := &fakeSource{rates: domain.Rates{"USD": 1, "EUR": 0.9}}
	svc := NewService(src, cache)

	svc.Latest(context.Background())
	now = now.Add(DefaultTTL + time.Second)
	q := svc.Latest(context.Background())

	assert.Equal(t, SourceLive, q.Source)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestService_FallbackOnFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream error: status 503")}
	svc := NewService(src, NewMemoryCache(DefaultTTL))

	q := svc.Latest(context.Background())
	assert.Equal(t, SourceFallback, q.Source)
	assert.Equal(t, domain.FallbackRates(), q.Rates)

	// fallback is not cached: the next call tries the source again
	svc.Latest(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestService_BreakerStopsHammering(t *testing.T) {
	src := &fakeSource{err: errors.New("down")}
	svc := NewService(src, NewMemoryCache(DefaultTTL))

	for i := 0; i < 10; i++ {
		q := svc.Latest(context.Background())
		assert.Equal(t, SourceFallback, q.Source)
	}
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestService_CollapsesConcurrentMisses(t *testing.T) {
	src := &fakeSource{rates: domain.Rates{"USD": 1, "GBP": 0.8}, delay: 50 * time.Millisecond}
	svc := NewService(src, NewMemoryCache(DefaultTTL))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := svc.Latest(context.Background())
			assert.Equal(t, 0.8, q.Rates["GBP"])
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, src.calls.Load(), int32(2))
}

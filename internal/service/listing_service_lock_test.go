package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emiafrica/market-intel/internal/domain"
)

// blockingLocks mimics the redis lock manager's contract: Acquire waits
// for the current holder instead of failing.
type blockingLocks struct {
	mu       sync.Mutex
	keys     map[string]*sync.Mutex
	acquired atomic.Int64
}

func newBlockingLocks() *blockingLocks {
	return &blockingLocks{keys: make(map[string]*sync.Mutex)}
}

func (l *blockingLocks) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	l.acquired.Add(1)
	return m.Unlock, nil
}

func TestConcurrentPriceWritesSerializeBehindLock(t *testing.T) {
	locks := newBlockingLocks()
	f := newFixtureOpts(t, ListingServiceOpts{Locks: locks})
	ctx := context.Background()

	l, err := f.svc.Create(ctx, maizeInput("10.00"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			price := decimal.New(int64(11+i), 0)
			_, errs[i] = f.svc.UpdatePrice(ctx, l.ID, price, domain.DefaultCurrency)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("writer %d: %v", i, err)
		}
	}
	if got := locks.acquired.Load(); got != writers {
		t.Errorf("lock acquisitions = %d, want %d", got, writers)
	}

	// Every write carried a distinct price, so each one must have landed
	// in the ledger on top of the seed row.
	count, err := f.history.CountForListing(ctx, l.ID)
	if err != nil {
		t.Fatalf("CountForListing: %v", err)
	}
	if count != writers+1 {
		t.Errorf("history count = %d, want %d", count, writers+1)
	}

	points, err := f.history.ListForListing(ctx, l.ID, domain.OrderAsc, 0)
	if err != nil {
		t.Fatalf("ListForListing: %v", err)
	}
	sum := decimal.Zero
	lo, hi := points[0].Price, points[0].Price
	for _, p := range points {
		sum = sum.Add(p.Price)
		if p.Price.LessThan(lo) {
			lo = p.Price
		}
		if p.Price.GreaterThan(hi) {
			hi = p.Price
		}
	}
	wantAvg := sum.Div(decimal.NewFromInt(int64(len(points)))).Round(2)

	final, err := f.svc.Get(ctx, l.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !final.AveragePrice.Equal(wantAvg) {
		t.Errorf("average = %s, want %s from the ledger", final.AveragePrice, wantAvg)
	}
	if !final.LowestPrice.Equal(lo) || !final.HighestPrice.Equal(hi) {
		t.Errorf("bounds = %s/%s, want %s/%s", final.LowestPrice, final.HighestPrice, lo, hi)
	}
}

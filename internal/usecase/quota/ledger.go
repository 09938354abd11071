// Package quota gates and records per-provider daily API usage. Pure
// bookkeeping: no network or translation logic lives here.
package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"lingochat/internal/domain"
	"lingochat/internal/ports"
)

// Ledger tracks daily call budgets, one record per metered provider. Every
// mutation writes the full snapshot through to the store synchronously;
// call volume is bounded by the quotas themselves, so batching is not worth
// the complexity.
type Ledger struct {
	mu    sync.Mutex
	store ports.KVStore
	log   *slog.Logger

	quotas    map[domain.ProviderTag]*domain.APIQuota
	lastReset string
	now       func() time.Time
}

type Option func(*Ledger)

// WithClock overrides the time source (tests, rollover).
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLimits overrides the default daily limits for the given providers.
func WithLimits(limits map[domain.ProviderTag]int) Option {
	return func(l *Ledger) {
		for tag, limit := range limits {
			if q, ok := l.quotas[tag]; ok && limit > 0 {
				q.DailyLimit = limit
			}
		}
	}
}

// New loads the persisted ledger and performs the calendar-day rollover:
// when the persisted day stamp differs from today, every usage counter is
// reset to zero while configured limits are preserved.
func New(ctx context.Context, store ports.KVStore, log *slog.Logger, opts ...Option) (*Ledger, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Ledger{
		store:  store,
		log:    log,
		quotas: domain.DefaultQuotas(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}

	raw, err := store.Get(ctx, ports.KeyQuotas)
	if err != nil {
		return nil, fmt.Errorf("load quotas: %w", err)
	}
	if raw != "" {
		var snap domain.QuotaSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("decode quotas: %w", err)
		}
		// Only usage counts and the day stamp come from disk; limits are
		// configuration and always taken from the constructor.
		for tag, q := range snap.Quotas {
			if cur, ok := l.quotas[tag]; ok {
				cur.CurrentUsage = q.CurrentUsage
			}
		}
		l.lastReset = snap.LastReset
	}

	today := l.dayStamp()
	if l.lastReset != today {
		for _, q := range l.quotas {
			q.CurrentUsage = 0
		}
		l.lastReset = today
		if err := l.persistLocked(ctx); err != nil {
			return nil, err
		}
		log.Info("quota ledger reset for new day", "day", today)
	}
	return l, nil
}

// CanUse reports whether the provider still has budget today. Unknown tags
// (the unmetered offline dictionary) are always allowed.
func (l *Ledger) CanUse(tag domain.ProviderTag) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked(context.Background())
	q, ok := l.quotas[tag]
	if !ok {
		return true
	}
	return q.CurrentUsage < q.DailyLimit
}

// RecordUse increments the provider's usage and persists the snapshot.
func (l *Ledger) RecordUse(ctx context.Context, tag domain.ProviderTag) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rolloverLocked(ctx)
	q, ok := l.quotas[tag]
	if !ok {
		return nil
	}
	q.CurrentUsage++
	l.log.Debug("provider use recorded", "provider", tag, "usage", q.CurrentUsage, "limit", q.DailyLimit)
	return l.persistLocked(ctx)
}

// Usage returns a copy of the provider's current-day record.
func (l *Ledger) Usage(tag domain.ProviderTag) (domain.APIQuota, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.quotas[tag]
	if !ok {
		return domain.APIQuota{}, false
	}
	return *q, true
}

// Snapshot returns copies of every quota record.
func (l *Ledger) Snapshot() []domain.APIQuota {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.APIQuota, 0, len(l.quotas))
	for _, q := range l.quotas {
		out = append(out, *q)
	}
	return out
}

func (l *Ledger) dayStamp() string {
	// Calendar-day granularity in local time, matching user expectations of
	// "daily" limits.
	return l.now().Local().Format("2006-01-02")
}

// rolloverLocked resets counters when the process lives across midnight.
func (l *Ledger) rolloverLocked(ctx context.Context) {
	today := l.dayStamp()
	if l.lastReset == today {
		return
	}
	for _, q := range l.quotas {
		q.CurrentUsage = 0
	}
	l.lastReset = today
	if err := l.persistLocked(ctx); err != nil {
		l.log.Error("persist quota rollover", "error", err)
	}
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	snap := domain.QuotaSnapshot{Quotas: l.quotas, LastReset: l.lastReset}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode quotas: %w", err)
	}
	if err := l.store.Set(ctx, ports.KeyQuotas, string(raw)); err != nil {
		return fmt.Errorf("persist quotas: %w", err)
	}
	return nil
}

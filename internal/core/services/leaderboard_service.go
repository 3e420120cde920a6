package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/game_currency_ledger/internal/core/ports/services"
	"github.com/SscSPs/game_currency_ledger/internal/utils"
)

// Unavailable is the sentinel returned by rank lookups for out-of-range ranks
// or unknown currencies. Lookups never fail.
const Unavailable = "unavailable"

// SnapshotPublisher receives each completed snapshot, e.g. to fan it out to
// sibling processes through redis. Publishing is best-effort; failures are
// logged and never block a refresh.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snapshot *domain.LeaderboardSnapshot) error
}

// leaderboardServiceImpl caches top-N balances per currency. The first refresh
// runs synchronously at Start so reads are never empty after startup; later
// refreshes run on a background timer. Each refresh replaces a currency's
// snapshot wholesale, so concurrent readers observe either the old or the new
// snapshot, never a mix.
type leaderboardServiceImpl struct {
	BaseService
	ledger    portssvc.LedgerReaderSvc
	currency  portssvc.CurrencyReaderSvc
	publisher SnapshotPublisher
	size      int
	interval  time.Duration

	snapshots sync.Map // currencyID -> *domain.LeaderboardSnapshot

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// LeaderboardOption is a functional option for configuring the leaderboard cache.
type LeaderboardOption func(*leaderboardServiceImpl)

// WithSnapshotPublisher adds an external publisher notified on every refresh.
func WithSnapshotPublisher(publisher SnapshotPublisher) LeaderboardOption {
	return func(s *leaderboardServiceImpl) {
		s.publisher = publisher
	}
}

// NewLeaderboardService creates the leaderboard cache.
func NewLeaderboardService(ledger portssvc.LedgerReaderSvc, currency portssvc.CurrencyReaderSvc, size int, interval time.Duration, options ...LeaderboardOption) portssvc.LeaderboardSvcFacade {
	if size < 1 {
		size = 10
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	svc := &leaderboardServiceImpl{
		ledger:   ledger,
		currency: currency,
		size:     size,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LeaderboardSvcFacade = (*leaderboardServiceImpl)(nil)

// Start performs one blocking refresh of every enabled currency, then launches
// the background refresh loop.
func (s *leaderboardServiceImpl) Start(ctx context.Context) error {
	if err := s.RefreshAll(ctx); err != nil {
		return err
	}
	go s.refreshLoop(ctx)
	return nil
}

// Stop halts the background refresh loop and waits for it to exit.
func (s *leaderboardServiceImpl) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *leaderboardServiceImpl) refreshLoop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				s.LogError(ctx, err, "Leaderboard refresh failed")
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RefreshAll rebuilds the snapshot of every enabled currency and evicts
// snapshots of currencies that no longer exist.
func (s *leaderboardServiceImpl) RefreshAll(ctx context.Context) error {
	currencies, err := s.currency.ListEnabledCurrencies(ctx)
	if err != nil {
		return err
	}

	live := make(map[string]bool, len(currencies))
	for _, currency := range currencies {
		live[currency.ID] = true
		if err := s.refreshCurrency(ctx, currency); err != nil {
			s.LogError(ctx, err, "Leaderboard currency refresh failed",
				slog.String("currency_id", currency.ID))
		}
	}

	s.snapshots.Range(func(key, _ any) bool {
		if !live[key.(string)] {
			s.snapshots.Delete(key)
		}
		return true
	})
	return nil
}

// refreshCurrency rebuilds one currency's snapshot and swaps it in wholesale.
func (s *leaderboardServiceImpl) refreshCurrency(ctx context.Context, currency domain.Currency) error {
	entries, err := s.ledger.TopBalances(ctx, currency.ID, s.size)
	if err != nil {
		return err
	}
	snapshot := &domain.LeaderboardSnapshot{
		CurrencyID: currency.ID,
		Symbol:     currency.Symbol,
		Precision:  currency.Precision(),
		TakenAt:    time.Now().UTC(),
		Entries:    entries,
	}
	s.snapshots.Store(currency.ID, snapshot)

	if s.publisher != nil {
		if err := s.publisher.PublishSnapshot(ctx, snapshot); err != nil {
			s.LogWarn(ctx, "Leaderboard snapshot publish failed",
				slog.String("currency_id", currency.ID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// Snapshot returns the latest snapshot for the currency, or nil.
func (s *leaderboardServiceImpl) Snapshot(currencyID string) *domain.LeaderboardSnapshot {
	value, ok := s.snapshots.Load(currencyID)
	if !ok {
		return nil
	}
	return value.(*domain.LeaderboardSnapshot)
}

func (s *leaderboardServiceImpl) entry(currencyID string, rank int) (domain.LeaderboardEntry, bool) {
	snapshot := s.Snapshot(currencyID)
	if snapshot == nil || rank < 1 || rank > len(snapshot.Entries) {
		return domain.LeaderboardEntry{}, false
	}
	return snapshot.Entries[rank-1], true
}

// RankName returns the display name at the 1-based rank.
func (s *leaderboardServiceImpl) RankName(currencyID string, rank int) string {
	e, ok := s.entry(currencyID, rank)
	if !ok {
		return Unavailable
	}
	return e.DisplayName
}

// RankPlayer returns the player ID at the 1-based rank.
func (s *leaderboardServiceImpl) RankPlayer(currencyID string, rank int) string {
	e, ok := s.entry(currencyID, rank)
	if !ok {
		return Unavailable
	}
	return e.PlayerID
}

// RankBalance returns the formatted balance at the 1-based rank, using the
// symbol and precision captured with the snapshot.
func (s *leaderboardServiceImpl) RankBalance(currencyID string, rank int) string {
	snapshot := s.Snapshot(currencyID)
	if snapshot == nil || rank < 1 || rank > len(snapshot.Entries) {
		return Unavailable
	}
	e := snapshot.Entries[rank-1]
	return snapshot.Symbol + utils.FormatAmount(e.Balance, snapshot.Precision)
}

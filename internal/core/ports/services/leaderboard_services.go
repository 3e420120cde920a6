package services

import (
	"context"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
)

// LeaderboardReaderSvc is the read surface of the leaderboard cache. Lookups
// hit the latest in-memory snapshot only and never touch storage; out-of-range
// ranks and unknown currencies yield the Unavailable sentinel, not an error.
type LeaderboardReaderSvc interface {
	// Snapshot returns the latest snapshot for the currency, or nil if none
	// has been taken.
	Snapshot(currencyID string) *domain.LeaderboardSnapshot

	// RankName returns the display name at the 1-based rank.
	RankName(currencyID string, rank int) string

	// RankPlayer returns the player ID at the 1-based rank.
	RankPlayer(currencyID string, rank int) string

	// RankBalance returns the formatted balance at the 1-based rank.
	RankBalance(currencyID string, rank int) string
}

// LeaderboardSvcFacade adds the cache lifecycle to the read surface.
type LeaderboardSvcFacade interface {
	LeaderboardReaderSvc

	// Start performs one blocking refresh, then launches the timer loop.
	Start(ctx context.Context) error

	// RefreshAll rebuilds every enabled currency's snapshot immediately.
	RefreshAll(ctx context.Context) error

	// Stop halts the refresh loop and waits for it to exit.
	Stop()
}

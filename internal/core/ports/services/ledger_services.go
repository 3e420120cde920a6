package services

import (
	"context"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/SscSPs/game_currency_ledger/internal/executor"
	"github.com/shopspring/decimal"
)

// LedgerReaderSvc defines the read surface of the ledger orchestrator.
// An empty currencyID selects the default currency.
type LedgerReaderSvc interface {
	// GetBalance returns the player's balance, creating the account with the
	// currency's starting balance on first sight.
	GetBalance(ctx context.Context, playerID, currencyID string) (decimal.Decimal, error)

	// HasEnough reports whether the player's balance covers amount.
	HasEnough(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) (bool, error)

	// TopBalances returns up to limit leaderboard entries for the currency,
	// with display names resolved from the name directory.
	TopBalances(ctx context.Context, currencyID string, limit int) ([]domain.LeaderboardEntry, error)

	// TotalAccounts returns the number of accounts held in the currency.
	TotalAccounts(ctx context.Context, currencyID string) (int64, error)

	// TotalCirculating returns the total supply of the currency.
	TotalCirculating(ctx context.Context, currencyID string) (decimal.Decimal, error)
}

// LedgerWriterSvc defines the blocking mutation surface of the ledger
// orchestrator. The blocking forms exist for startup-time code; steady-state
// callers should prefer the deferred forms in LedgerAsyncSvc.
type LedgerWriterSvc interface {
	// SetBalance overwrites the player's balance, clamped to
	// [0, currency.MaxBalance].
	SetBalance(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) error

	// AddMoney credits amount (> 0) and returns the resulting balance. The
	// credit is rejected, not clamped, if it would exceed MaxBalance.
	AddMoney(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) (decimal.Decimal, error)

	// RemoveMoney debits amount (> 0) via the atomic conditional decrement
	// and returns the resulting balance, or ErrInsufficientFunds.
	RemoveMoney(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) (decimal.Decimal, error)

	// CreateAccount ensures the player has an account in the currency.
	CreateAccount(ctx context.Context, playerID, currencyID string) error

	// Transfer moves amount from one player to another: an atomic conditional
	// debit of the source followed by a credit of the destination, with a
	// best-effort compensating credit if the second leg fails.
	Transfer(ctx context.Context, fromPlayerID, toPlayerID, currencyID string, amount decimal.Decimal) error
}

// LedgerAsyncSvc mirrors the orchestrator surface in deferred form: each call
// dispatches onto the worker pool and returns immediately.
type LedgerAsyncSvc interface {
	GetBalanceAsync(ctx context.Context, playerID, currencyID string) *executor.Deferred[decimal.Decimal]
	SetBalanceAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[struct{}]
	AddMoneyAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[decimal.Decimal]
	RemoveMoneyAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[decimal.Decimal]
	HasEnoughAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[bool]
	CreateAccountAsync(ctx context.Context, playerID, currencyID string) *executor.Deferred[struct{}]
	TransferAsync(ctx context.Context, fromPlayerID, toPlayerID, currencyID string, amount decimal.Decimal) *executor.Deferred[struct{}]
}

// EventObserver receives pre/post mutation events on the primary thread.
// Observers may cancel PhasePre events to veto the pending storage write.
type EventObserver interface {
	HandleMutation(event *domain.MutationEvent)
}

// NameDirectorySvc exposes the player-name directory maintained alongside
// balances for leaderboard display.
type NameDirectorySvc interface {
	// UpsertPlayerName records or refreshes a player's display name.
	UpsertPlayerName(ctx context.Context, playerID, displayName string) error

	// SyncPlayerNames bulk-reconciles the directory with the host's player
	// registry, best-effort.
	SyncPlayerNames(ctx context.Context, names map[string]string) error
}

// LedgerSvcFacade combines the full orchestrator surface.
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerAsyncSvc
	NameDirectorySvc

	// RegisterObserver adds an observer for mutation events.
	RegisterObserver(observer EventObserver)

	// Reinitialize explicitly re-attaches the primary storage backend after a
	// degrade; the orchestrator never switches back on its own.
	Reinitialize(ctx context.Context) error

	// Degraded reports whether operations are running on the fallback store.
	Degraded() bool
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/game_currency_ledger/internal/core/ports/services"
	"github.com/SscSPs/game_currency_ledger/internal/executor"
	"github.com/shopspring/decimal"
)

// ledgerServiceImpl is the public-facing balance orchestrator. It validates
// every call before any storage operation, fires cancellable pre-mutation
// events on the primary thread, routes to the active storage backend and
// degrades to the fallback store on connectivity failure. Once degraded it
// never switches back silently; Reinitialize is the explicit way home.
type ledgerServiceImpl struct {
	BaseService
	primary     portsrepo.LedgerStore
	fallback    portsrepo.LedgerStore
	currencySvc portssvc.CurrencyReaderSvc
	exec        *executor.Executor

	degraded atomic.Bool

	obsMu     sync.RWMutex
	observers []portssvc.EventObserver
}

// LedgerServiceOption is a functional option for configuring the ledger service.
type LedgerServiceOption func(*ledgerServiceImpl)

// WithFallbackStore adds a secondary store used when the primary reports
// ErrBackendUnavailable. Conventionally the in-memory store.
func WithFallbackStore(store portsrepo.LedgerStore) LedgerServiceOption {
	return func(s *ledgerServiceImpl) {
		s.fallback = store
	}
}

// NewLedgerService creates the orchestrator over the active storage backend.
func NewLedgerService(store portsrepo.LedgerStore, currencySvc portssvc.CurrencyReaderSvc, exec *executor.Executor, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerServiceImpl{
		primary:     store,
		currencySvc: currencySvc,
		exec:        exec,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerServiceImpl)(nil)

// RegisterObserver adds an observer for mutation events.
func (s *ledgerServiceImpl) RegisterObserver(observer portssvc.EventObserver) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, observer)
}

// Reinitialize re-attaches the primary store after a degrade. Reconnection is
// always explicit; nothing switches back on its own.
func (s *ledgerServiceImpl) Reinitialize(ctx context.Context) error {
	if err := s.primary.Initialize(ctx); err != nil {
		return err
	}
	s.degraded.Store(false)
	s.LogInfo(ctx, "Primary storage backend re-attached")
	return nil
}

// Degraded reports whether the orchestrator is running on the fallback store.
func (s *ledgerServiceImpl) Degraded() bool {
	return s.degraded.Load()
}

// withStore runs op against the active store. If the primary reports
// ErrBackendUnavailable and a fallback exists, the orchestrator degrades
// (logged, sticky) and retries op once against the fallback.
func (s *ledgerServiceImpl) withStore(ctx context.Context, op func(store portsrepo.LedgerStore) error) error {
	if s.degraded.Load() {
		return op(s.fallback)
	}
	err := op(s.primary)
	if err == nil || s.fallback == nil || !errors.Is(err, apperrors.ErrBackendUnavailable) {
		return err
	}
	if s.degraded.CompareAndSwap(false, true) {
		s.LogError(ctx, err, "Primary storage backend unavailable, degrading to fallback store")
	}
	return op(s.fallback)
}

// resolveCurrency maps an identifier (empty selects the default currency) to
// its definition, rejecting mutations against disabled currencies.
func (s *ledgerServiceImpl) resolveCurrency(ctx context.Context, currencyID string, mutating bool) (*domain.Currency, error) {
	var (
		currency *domain.Currency
		err      error
	)
	if currencyID == "" {
		currency, err = s.currencySvc.DefaultCurrency(ctx)
	} else {
		currency, err = s.currencySvc.GetCurrencyByID(ctx, currencyID)
	}
	if err != nil {
		return nil, err
	}
	if mutating && !currency.Enabled {
		return nil, fmt.Errorf("currency %s: %w", currency.ID, apperrors.ErrCurrencyDisabled)
	}
	return currency, nil
}

// dispatchPre fires a cancellable pre-mutation event on the primary thread and
// blocks until all observers ran. Returns ErrOperationCancelled if an observer
// vetoed the mutation.
func (s *ledgerServiceImpl) dispatchPre(ctx context.Context, event *domain.MutationEvent) error {
	s.obsMu.RLock()
	observers := make([]portssvc.EventObserver, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()
	if len(observers) == 0 {
		return nil
	}

	event.Phase = domain.PhasePre
	err := s.exec.RunOnPrimaryWait(ctx, func() {
		for _, observer := range observers {
			observer.HandleMutation(event)
		}
	})
	if err != nil {
		return fmt.Errorf("dispatch pre-event: %w", err)
	}
	if event.Cancelled() {
		return apperrors.ErrOperationCancelled
	}
	return nil
}

// dispatchPost fires the observational post-mutation event on the primary
// thread without blocking the mutating call. Cancellation is meaningless here;
// the write has already happened.
func (s *ledgerServiceImpl) dispatchPost(ctx context.Context, event *domain.MutationEvent) {
	s.obsMu.RLock()
	observers := make([]portssvc.EventObserver, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()
	if len(observers) == 0 {
		return
	}

	event.Phase = domain.PhasePost
	err := s.exec.RunOnPrimary(func() {
		for _, observer := range observers {
			observer.HandleMutation(event)
		}
	})
	if err != nil {
		s.LogWarn(ctx, "Post-event dropped, executor stopped",
			slog.String("player_id", event.PlayerID),
			slog.String("currency_id", event.CurrencyID))
	}
}

// GetBalance returns the player's balance, creating the account with the
// currency's starting balance on first sight.
func (s *ledgerServiceImpl) GetBalance(ctx context.Context, playerID, currencyID string) (decimal.Decimal, error) {
	currency, err := s.resolveCurrency(ctx, currencyID, false)
	if err != nil {
		return decimal.Zero, err
	}
	key := domain.BalanceKey{PlayerID: playerID, CurrencyID: currency.ID}

	var balance decimal.Decimal
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		balance, opErr = store.FindBalance(ctx, key, currency.StartingBalance)
		return opErr
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// HasEnough reports whether the player's balance covers amount.
func (s *ledgerServiceImpl) HasEnough(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) (bool, error) {
	currency, err := s.resolveCurrency(ctx, currencyID, false)
	if err != nil {
		return false, err
	}
	if !amount.IsPositive() {
		return false, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	key := domain.BalanceKey{PlayerID: playerID, CurrencyID: currency.ID}

	var enough bool
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		// Provision on first sight so a never-seen account is judged against
		// its starting balance, not an implicit zero.
		if _, opErr := store.FindBalance(ctx, key, currency.StartingBalance); opErr != nil {
			return opErr
		}
		var opErr error
		enough, opErr = store.HasEnough(ctx, key, amount)
		return opErr
	})
	return enough, err
}

// CreateAccount ensures the player has an account in the currency, seeded with
// its starting balance. Idempotent.
func (s *ledgerServiceImpl) CreateAccount(ctx context.Context, playerID, currencyID string) error {
	currency, err := s.resolveCurrency(ctx, currencyID, false)
	if err != nil {
		return err
	}
	key := domain.BalanceKey{PlayerID: playerID, CurrencyID: currency.ID}
	return s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		return store.CreateAccount(ctx, key, currency.StartingBalance)
	})
}

// SetBalance overwrites the player's balance, clamping the requested amount to
// [0, currency.MaxBalance] before it reaches storage.
func (s *ledgerServiceImpl) SetBalance(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) error {
	currency, err := s.resolveCurrency(ctx, currencyID, true)
	if err != nil {
		return err
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if currency.MaxBalance.IsPositive() && amount.GreaterThan(currency.MaxBalance) {
		amount = currency.MaxBalance
	}
	key := domain.BalanceKey{PlayerID: playerID, CurrencyID: currency.ID}

	var before decimal.Decimal
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		before, opErr = store.FindBalance(ctx, key, currency.StartingBalance)
		return opErr
	})
	if err != nil {
		return err
	}

	kind := domain.MutationCredit
	if amount.LessThan(before) {
		kind = domain.MutationDebit
	}
	event := &domain.MutationEvent{
		Kind:          kind,
		PlayerID:      playerID,
		CurrencyID:    currency.ID,
		Amount:        amount.Sub(before).Abs(),
		BalanceBefore: before,
		BalanceAfter:  amount,
	}
	if err := s.dispatchPre(ctx, event); err != nil {
		return err
	}

	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		return store.SaveBalance(ctx, key, amount)
	})
	if err != nil {
		return err
	}
	s.dispatchPost(ctx, event)
	return nil
}

// AddMoney credits amount and returns the resulting balance. A credit that
// would push the balance past MaxBalance is rejected, not clamped.
func (s *ledgerServiceImpl) AddMoney(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) (decimal.Decimal, error) {
	currency, err := s.resolveCurrency(ctx, currencyID, true)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	key := domain.BalanceKey{PlayerID: playerID, CurrencyID: currency.ID}

	var before decimal.Decimal
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		before, opErr = store.FindBalance(ctx, key, currency.StartingBalance)
		return opErr
	})
	if err != nil {
		return decimal.Zero, err
	}

	after := before.Add(amount)
	if currency.MaxBalance.IsPositive() && after.GreaterThan(currency.MaxBalance) {
		return decimal.Zero, fmt.Errorf("%w: balance would exceed maximum of %s", apperrors.ErrValidation, currency.MaxBalance)
	}

	event := &domain.MutationEvent{
		Kind:          domain.MutationCredit,
		PlayerID:      playerID,
		CurrencyID:    currency.ID,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
	}
	if err := s.dispatchPre(ctx, event); err != nil {
		return decimal.Zero, err
	}

	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		return store.AddBalance(ctx, key, amount)
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.dispatchPost(ctx, event)
	return after, nil
}

// RemoveMoney debits amount through the atomic conditional decrement and
// returns the resulting balance. Insufficient funds is a boolean-style
// failure, reported as ErrInsufficientFunds with no mutation.
func (s *ledgerServiceImpl) RemoveMoney(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) (decimal.Decimal, error) {
	currency, err := s.resolveCurrency(ctx, currencyID, true)
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	key := domain.BalanceKey{PlayerID: playerID, CurrencyID: currency.ID}

	var before decimal.Decimal
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		before, opErr = store.FindBalance(ctx, key, currency.StartingBalance)
		return opErr
	})
	if err != nil {
		return decimal.Zero, err
	}

	event := &domain.MutationEvent{
		Kind:          domain.MutationDebit,
		PlayerID:      playerID,
		CurrencyID:    currency.ID,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  before.Sub(amount),
	}
	if err := s.dispatchPre(ctx, event); err != nil {
		return decimal.Zero, err
	}

	var removed bool
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		removed, opErr = store.RemoveBalance(ctx, key, amount)
		return opErr
	})
	if err != nil {
		return decimal.Zero, err
	}
	if !removed {
		return decimal.Zero, fmt.Errorf("player %s in %s: %w", playerID, currency.ID, apperrors.ErrInsufficientFunds)
	}
	s.dispatchPost(ctx, event)
	return before.Sub(amount), nil
}

// Transfer moves amount between players as a conditional debit of the source
// followed by a credit of the destination. The two legs are separate storage
// operations; if the credit fails a compensating credit restores the source,
// best-effort.
func (s *ledgerServiceImpl) Transfer(ctx context.Context, fromPlayerID, toPlayerID, currencyID string, amount decimal.Decimal) error {
	currency, err := s.resolveCurrency(ctx, currencyID, true)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if currency.MinTransfer.IsPositive() && amount.LessThan(currency.MinTransfer) {
		return fmt.Errorf("%w: amount below minimum transfer of %s", apperrors.ErrValidation, currency.MinTransfer)
	}
	if currency.MaxTransfer.IsPositive() && amount.GreaterThan(currency.MaxTransfer) {
		return fmt.Errorf("%w: amount above maximum transfer of %s", apperrors.ErrValidation, currency.MaxTransfer)
	}
	if fromPlayerID == toPlayerID {
		return fmt.Errorf("%w: cannot transfer to self", apperrors.ErrValidation)
	}

	fromKey := domain.BalanceKey{PlayerID: fromPlayerID, CurrencyID: currency.ID}
	toKey := domain.BalanceKey{PlayerID: toPlayerID, CurrencyID: currency.ID}

	var fromBefore, toBefore decimal.Decimal
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		if fromBefore, opErr = store.FindBalance(ctx, fromKey, currency.StartingBalance); opErr != nil {
			return opErr
		}
		toBefore, opErr = store.FindBalance(ctx, toKey, currency.StartingBalance)
		return opErr
	})
	if err != nil {
		return err
	}

	if currency.MaxBalance.IsPositive() && toBefore.Add(amount).GreaterThan(currency.MaxBalance) {
		return fmt.Errorf("%w: recipient balance would exceed maximum of %s", apperrors.ErrValidation, currency.MaxBalance)
	}

	debitEvent := &domain.MutationEvent{
		Kind:          domain.MutationDebit,
		PlayerID:      fromPlayerID,
		CurrencyID:    currency.ID,
		Amount:        amount,
		BalanceBefore: fromBefore,
		BalanceAfter:  fromBefore.Sub(amount),
	}
	creditEvent := &domain.MutationEvent{
		Kind:          domain.MutationCredit,
		PlayerID:      toPlayerID,
		CurrencyID:    currency.ID,
		Amount:        amount,
		BalanceBefore: toBefore,
		BalanceAfter:  toBefore.Add(amount),
	}
	if err := s.dispatchPre(ctx, debitEvent); err != nil {
		return err
	}
	if err := s.dispatchPre(ctx, creditEvent); err != nil {
		return err
	}

	var removed bool
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		removed, opErr = store.RemoveBalance(ctx, fromKey, amount)
		return opErr
	})
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("player %s in %s: %w", fromPlayerID, currency.ID, apperrors.ErrInsufficientFunds)
	}

	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		return store.AddBalance(ctx, toKey, amount)
	})
	if err != nil {
		// Credit leg failed after a successful debit. Compensate the source;
		// if that fails too the funds are lost and all we can do is log it.
		compErr := s.withStore(ctx, func(store portsrepo.LedgerStore) error {
			return store.AddBalance(ctx, fromKey, amount)
		})
		if compErr != nil {
			s.LogError(ctx, compErr, "Transfer compensation failed, funds lost",
				slog.String("from", fromPlayerID),
				slog.String("to", toPlayerID),
				slog.String("currency_id", currency.ID),
				slog.String("amount", amount.String()))
		} else {
			s.LogWarn(ctx, "Transfer credit failed, source compensated",
				slog.String("from", fromPlayerID),
				slog.String("to", toPlayerID),
				slog.String("currency_id", currency.ID),
				slog.String("amount", amount.String()))
		}
		return fmt.Errorf("credit %s: %w: %w", toPlayerID, apperrors.ErrPartialTransfer, err)
	}

	s.dispatchPost(ctx, debitEvent)
	s.dispatchPost(ctx, creditEvent)
	return nil
}

// TopBalances returns up to limit leaderboard entries with display names
// resolved from the name directory. Players without a directory entry show
// their stable identity instead.
func (s *ledgerServiceImpl) TopBalances(ctx context.Context, currencyID string, limit int) ([]domain.LeaderboardEntry, error) {
	currency, err := s.resolveCurrency(ctx, currencyID, false)
	if err != nil {
		return nil, err
	}

	var balances []domain.AccountBalance
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		balances, opErr = store.TopBalances(ctx, currency.ID, limit)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	playerIDs := make([]string, len(balances))
	for i, balance := range balances {
		playerIDs[i] = balance.Key.PlayerID
	}
	var names map[string]string
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		names, opErr = store.FindNames(ctx, playerIDs)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, len(balances))
	for i, balance := range balances {
		name, ok := names[balance.Key.PlayerID]
		if !ok {
			name = balance.Key.PlayerID
		}
		entries[i] = domain.LeaderboardEntry{
			Rank:        i + 1,
			PlayerID:    balance.Key.PlayerID,
			DisplayName: name,
			Balance:     balance.Balance,
		}
	}
	return entries, nil
}

// TotalAccounts returns the number of accounts held in the currency.
func (s *ledgerServiceImpl) TotalAccounts(ctx context.Context, currencyID string) (int64, error) {
	currency, err := s.resolveCurrency(ctx, currencyID, false)
	if err != nil {
		return 0, err
	}
	var total int64
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		total, opErr = store.TotalAccounts(ctx, currency.ID)
		return opErr
	})
	return total, err
}

// TotalCirculating returns the total supply of the currency.
func (s *ledgerServiceImpl) TotalCirculating(ctx context.Context, currencyID string) (decimal.Decimal, error) {
	currency, err := s.resolveCurrency(ctx, currencyID, false)
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err = s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		var opErr error
		total, opErr = store.TotalCirculating(ctx, currency.ID)
		return opErr
	})
	return total, err
}

// UpsertPlayerName records or refreshes a player's display name.
func (s *ledgerServiceImpl) UpsertPlayerName(ctx context.Context, playerID, displayName string) error {
	return s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		return store.UpsertName(ctx, playerID, displayName)
	})
}

// SyncPlayerNames bulk-reconciles the name directory.
func (s *ledgerServiceImpl) SyncPlayerNames(ctx context.Context, names map[string]string) error {
	return s.withStore(ctx, func(store portsrepo.LedgerStore) error {
		return store.SyncNames(ctx, names)
	})
}

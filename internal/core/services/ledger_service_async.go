package services

import (
	"context"

	"github.com/SscSPs/game_currency_ledger/internal/executor"
	"github.com/shopspring/decimal"
)

// Deferred forms of the orchestrator surface. Each call dispatches onto the
// worker pool and returns immediately; callers chain continuations on the
// returned Deferred instead of blocking. There is no per-key submission
// ordering across these calls; single-operation storage atomicity is what
// keeps concurrent mutations correct.

func (s *ledgerServiceImpl) GetBalanceAsync(ctx context.Context, playerID, currencyID string) *executor.Deferred[decimal.Decimal] {
	return executor.Submit(s.exec, func() (decimal.Decimal, error) {
		return s.GetBalance(ctx, playerID, currencyID)
	})
}

func (s *ledgerServiceImpl) SetBalanceAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[struct{}] {
	return executor.Submit(s.exec, func() (struct{}, error) {
		return struct{}{}, s.SetBalance(ctx, playerID, currencyID, amount)
	})
}

func (s *ledgerServiceImpl) AddMoneyAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[decimal.Decimal] {
	return executor.Submit(s.exec, func() (decimal.Decimal, error) {
		return s.AddMoney(ctx, playerID, currencyID, amount)
	})
}

func (s *ledgerServiceImpl) RemoveMoneyAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[decimal.Decimal] {
	return executor.Submit(s.exec, func() (decimal.Decimal, error) {
		return s.RemoveMoney(ctx, playerID, currencyID, amount)
	})
}

func (s *ledgerServiceImpl) HasEnoughAsync(ctx context.Context, playerID, currencyID string, amount decimal.Decimal) *executor.Deferred[bool] {
	return executor.Submit(s.exec, func() (bool, error) {
		return s.HasEnough(ctx, playerID, currencyID, amount)
	})
}

func (s *ledgerServiceImpl) CreateAccountAsync(ctx context.Context, playerID, currencyID string) *executor.Deferred[struct{}] {
	return executor.Submit(s.exec, func() (struct{}, error) {
		return struct{}{}, s.CreateAccount(ctx, playerID, currencyID)
	})
}

func (s *ledgerServiceImpl) TransferAsync(ctx context.Context, fromPlayerID, toPlayerID, currencyID string, amount decimal.Decimal) *executor.Deferred[struct{}] {
	return executor.Submit(s.exec, func() (struct{}, error) {
		return struct{}{}, s.Transfer(ctx, fromPlayerID, toPlayerID, currencyID, amount)
	})
}

package repositories

import (
	"context"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceReader defines read operations against per-player, per-currency
// account balances.
type BalanceReader interface {
	// FindBalance retrieves the balance for key. If the account does not
	// exist it is created atomically with the supplied seed (the currency's
	// starting balance) and that value is returned. Callers never need a
	// separate existence check.
	FindBalance(ctx context.Context, key domain.BalanceKey, seed decimal.Decimal) (decimal.Decimal, error)

	// HasEnough reports whether the account's balance is at least amount.
	HasEnough(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error)

	// TotalAccounts returns the number of accounts held in currencyID.
	TotalAccounts(ctx context.Context, currencyID string) (int64, error)

	// TotalCirculating returns the sum of all balances in currencyID.
	TotalCirculating(ctx context.Context, currencyID string) (decimal.Decimal, error)

	// TopBalances returns up to n accounts in currencyID ordered by balance
	// descending. Ties are broken by account creation order, which must be
	// deterministic for a fixed data snapshot.
	TopBalances(ctx context.Context, currencyID string, n int) ([]domain.AccountBalance, error)
}

// BalanceWriter defines mutation operations against account balances. The
// atomicity of each single operation is the correctness linchpin of the whole
// ledger: no implementation may read-then-write in two steps where a single
// atomic primitive exists.
type BalanceWriter interface {
	// SaveBalance unconditionally overwrites the balance. The caller clamps
	// the amount to [0, maxBalance] before invocation.
	SaveBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) error

	// AddBalance atomically increments the balance by amount (> 0). The
	// account must already exist.
	AddBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) error

	// RemoveBalance atomically decrements the balance by amount, but only if
	// the current balance is at least amount, evaluated and applied as one
	// indivisible operation. Returns false (and no mutation) otherwise.
	RemoveBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error)

	// CreateAccount ensures an account exists for key, seeding it with the
	// currency's starting balance. Idempotent; a no-op if already present.
	CreateAccount(ctx context.Context, key domain.BalanceKey, seed decimal.Decimal) error
}

// BalanceRepositoryFacade combines all balance-related repository interfaces.
type BalanceRepositoryFacade interface {
	BalanceReader
	BalanceWriter
}

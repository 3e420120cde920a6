package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/game_currency_ledger/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxBalanceRepository stores account balances in the player_balances table.
// Every mutation is a single SQL statement so that atomicity comes from the
// database, never from program-level sequencing.
type PgxBalanceRepository struct {
	pool *pgxpool.Pool
}

// newPgxBalanceRepository creates a new repository for balance data.
func newPgxBalanceRepository(pool *pgxpool.Pool) *PgxBalanceRepository {
	return &PgxBalanceRepository{pool: pool}
}

var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

// Helper to convert models.PlayerBalance from DB to domain.AccountBalance
func toDomainBalance(m models.PlayerBalance) domain.AccountBalance {
	return domain.AccountBalance{
		Key:         domain.BalanceKey{PlayerID: m.PlayerID, CurrencyID: m.CurrencyID},
		Balance:     m.Balance,
		LastUpdated: m.UpdatedAt,
	}
}

// FindBalance reads the balance, provisioning the account with seed on first
// sight. The insert races harmlessly with concurrent callers: ON CONFLICT DO
// NOTHING makes provisioning idempotent, and the SELECT always observes the
// winning row.
func (r *PgxBalanceRepository) FindBalance(ctx context.Context, key domain.BalanceKey, seed decimal.Decimal) (decimal.Decimal, error) {
	insert := `
		INSERT INTO player_balances (player_id, currency_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (player_id, currency_id) DO NOTHING;
	`
	if _, err := r.pool.Exec(ctx, insert, key.PlayerID, key.CurrencyID, seed); err != nil {
		return decimal.Zero, mapStoreError("provision balance", err)
	}

	var balance decimal.Decimal
	query := `SELECT balance FROM player_balances WHERE player_id = $1 AND currency_id = $2;`
	if err := r.pool.QueryRow(ctx, query, key.PlayerID, key.CurrencyID).Scan(&balance); err != nil {
		return decimal.Zero, mapStoreError("find balance", err)
	}
	return balance, nil
}

// SaveBalance unconditionally overwrites the balance, creating the row if the
// account has never been seen.
func (r *PgxBalanceRepository) SaveBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) error {
	query := `
		INSERT INTO player_balances (player_id, currency_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (player_id, currency_id) DO UPDATE SET
			balance = EXCLUDED.balance,
			updated_at = now();
	`
	if _, err := r.pool.Exec(ctx, query, key.PlayerID, key.CurrencyID, amount); err != nil {
		return mapStoreError("save balance", err)
	}
	return nil
}

// AddBalance increments the balance in one statement. The account must exist;
// the orchestrator guarantees that by reading (and thereby provisioning) the
// balance first.
func (r *PgxBalanceRepository) AddBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) error {
	query := `
		UPDATE player_balances
		SET balance = balance + $3, updated_at = now()
		WHERE player_id = $1 AND currency_id = $2;
	`
	tag, err := r.pool.Exec(ctx, query, key.PlayerID, key.CurrencyID, amount)
	if err != nil {
		return mapStoreError("add balance", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("add balance: account %s/%s: %w", key.PlayerID, key.CurrencyID, apperrors.ErrNotFound)
	}
	return nil
}

// RemoveBalance applies the conditional decrement: the balance check and the
// subtraction happen in one UPDATE, so two racing debits can never both pass
// the check against the same funds.
func (r *PgxBalanceRepository) RemoveBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error) {
	query := `
		UPDATE player_balances
		SET balance = balance - $3, updated_at = now()
		WHERE player_id = $1 AND currency_id = $2 AND balance >= $3;
	`
	tag, err := r.pool.Exec(ctx, query, key.PlayerID, key.CurrencyID, amount)
	if err != nil {
		return false, mapStoreError("remove balance", err)
	}
	return tag.RowsAffected() == 1, nil
}

// HasEnough reports whether the account holds at least amount.
func (r *PgxBalanceRepository) HasEnough(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error) {
	var enough bool
	query := `
		SELECT balance >= $3 FROM player_balances
		WHERE player_id = $1 AND currency_id = $2;
	`
	err := r.pool.QueryRow(ctx, query, key.PlayerID, key.CurrencyID, amount).Scan(&enough)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, mapStoreError("has enough", err)
	}
	return enough, nil
}

// CreateAccount provisions the account with seed if absent.
func (r *PgxBalanceRepository) CreateAccount(ctx context.Context, key domain.BalanceKey, seed decimal.Decimal) error {
	query := `
		INSERT INTO player_balances (player_id, currency_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (player_id, currency_id) DO NOTHING;
	`
	if _, err := r.pool.Exec(ctx, query, key.PlayerID, key.CurrencyID, seed); err != nil {
		return mapStoreError("create account", err)
	}
	return nil
}

// TotalAccounts returns the number of accounts held in the currency.
func (r *PgxBalanceRepository) TotalAccounts(ctx context.Context, currencyID string) (int64, error) {
	var total int64
	query := `SELECT COUNT(*) FROM player_balances WHERE currency_id = $1;`
	if err := r.pool.QueryRow(ctx, query, currencyID).Scan(&total); err != nil {
		return 0, mapStoreError("total accounts", err)
	}
	return total, nil
}

// TotalCirculating returns the sum of all balances in the currency.
func (r *PgxBalanceRepository) TotalCirculating(ctx context.Context, currencyID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(balance), 0) FROM player_balances WHERE currency_id = $1;`
	if err := r.pool.QueryRow(ctx, query, currencyID).Scan(&total); err != nil {
		return decimal.Zero, mapStoreError("total circulating", err)
	}
	return total, nil
}

// TopBalances returns the n richest accounts. created_at breaks ties so the
// ordering is deterministic for a fixed data snapshot.
func (r *PgxBalanceRepository) TopBalances(ctx context.Context, currencyID string, n int) ([]domain.AccountBalance, error) {
	query := `
		SELECT player_id, currency_id, balance, created_at, updated_at
		FROM player_balances
		WHERE currency_id = $1
		ORDER BY balance DESC, created_at ASC
		LIMIT $2;
	`
	rows, err := r.pool.Query(ctx, query, currencyID, n)
	if err != nil {
		return nil, mapStoreError("top balances", err)
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PlayerBalance, error) {
		var m models.PlayerBalance
		err := row.Scan(&m.PlayerID, &m.CurrencyID, &m.Balance, &m.CreatedAt, &m.UpdatedAt)
		return m, err
	})
	if err != nil {
		return nil, mapStoreError("top balances", err)
	}

	balances := make([]domain.AccountBalance, len(ms))
	for i, m := range ms {
		balances[i] = toDomainBalance(m)
	}
	return balances, nil
}

package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/game_currency_ledger/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCurrencyRepository struct {
	pool *pgxpool.Pool
}

// newPgxCurrencyRepository creates a new repository for currency definitions.
func newPgxCurrencyRepository(pool *pgxpool.Pool) *PgxCurrencyRepository {
	return &PgxCurrencyRepository{pool: pool}
}

var _ portsrepo.CurrencyRepositoryFacade = (*PgxCurrencyRepository)(nil)

// Helper to convert domain.Currency to models.Currency for DB storage
func toModelCurrency(d domain.Currency) models.Currency {
	return models.Currency{
		CurrencyID:      d.ID,
		Name:            d.Name,
		NameSingular:    d.NameSingular,
		Symbol:          d.Symbol,
		IsDecimal:       d.IsDecimal,
		StartingBalance: d.StartingBalance,
		MaxBalance:      d.MaxBalance,
		MinTransfer:     d.MinTransfer,
		MaxTransfer:     d.MaxTransfer,
		Enabled:         d.Enabled,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// Helper to convert models.Currency from DB to domain.Currency
func toDomainCurrency(m models.Currency) domain.Currency {
	return domain.Currency{
		ID:              m.CurrencyID,
		Name:            m.Name,
		NameSingular:    m.NameSingular,
		Symbol:          m.Symbol,
		IsDecimal:       m.IsDecimal,
		StartingBalance: m.StartingBalance,
		MaxBalance:      m.MaxBalance,
		MinTransfer:     m.MinTransfer,
		MaxTransfer:     m.MaxTransfer,
		Enabled:         m.Enabled,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// SaveCurrency inserts or updates a currency definition. Audit timestamps are
// owned by the service layer and persisted as given.
func (r *PgxCurrencyRepository) SaveCurrency(ctx context.Context, currency domain.Currency) error {
	m := toModelCurrency(currency)

	query := `
		INSERT INTO currencies (currency_id, name, name_singular, symbol, is_decimal,
			starting_balance, max_balance, min_transfer, max_transfer, enabled,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (currency_id) DO UPDATE SET
			name = EXCLUDED.name,
			name_singular = EXCLUDED.name_singular,
			symbol = EXCLUDED.symbol,
			is_decimal = EXCLUDED.is_decimal,
			starting_balance = EXCLUDED.starting_balance,
			max_balance = EXCLUDED.max_balance,
			min_transfer = EXCLUDED.min_transfer,
			max_transfer = EXCLUDED.max_transfer,
			enabled = EXCLUDED.enabled,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.pool.Exec(ctx, query,
		m.CurrencyID,
		m.Name,
		m.NameSingular,
		m.Symbol,
		m.IsDecimal,
		m.StartingBalance,
		m.MaxBalance,
		m.MinTransfer,
		m.MaxTransfer,
		m.Enabled,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return mapStoreError(fmt.Sprintf("save currency %s", m.CurrencyID), err)
	}
	return nil
}

// FindCurrencyByID retrieves a currency by its identifier.
func (r *PgxCurrencyRepository) FindCurrencyByID(ctx context.Context, currencyID string) (*domain.Currency, error) {
	query := `
		SELECT currency_id, name, name_singular, symbol, is_decimal,
			starting_balance, max_balance, min_transfer, max_transfer, enabled,
			created_at, created_by, last_updated_at, last_updated_by
		FROM currencies
		WHERE currency_id = $1;
	`
	var m models.Currency
	err := r.pool.QueryRow(ctx, query, currencyID).Scan(
		&m.CurrencyID,
		&m.Name,
		&m.NameSingular,
		&m.Symbol,
		&m.IsDecimal,
		&m.StartingBalance,
		&m.MaxBalance,
		&m.MinTransfer,
		&m.MaxTransfer,
		&m.Enabled,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, mapStoreError(fmt.Sprintf("find currency %s", currencyID), err)
	}
	d := toDomainCurrency(m)
	return &d, nil
}

// ListCurrencies retrieves all currencies ordered by identifier.
func (r *PgxCurrencyRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	query := `
		SELECT currency_id, name, name_singular, symbol, is_decimal,
			starting_balance, max_balance, min_transfer, max_transfer, enabled,
			created_at, created_by, last_updated_at, last_updated_by
		FROM currencies
		ORDER BY currency_id;
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, mapStoreError("list currencies", err)
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Currency, error) {
		var m models.Currency
		err := row.Scan(
			&m.CurrencyID,
			&m.Name,
			&m.NameSingular,
			&m.Symbol,
			&m.IsDecimal,
			&m.StartingBalance,
			&m.MaxBalance,
			&m.MinTransfer,
			&m.MaxTransfer,
			&m.Enabled,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		return m, err
	})
	if err != nil {
		return nil, mapStoreError("list currencies", err)
	}

	currencies := make([]domain.Currency, len(ms))
	for i, m := range ms {
		currencies[i] = toDomainCurrency(m)
	}
	return currencies, nil
}

// DeleteCurrency removes a currency definition. Balances are untouched.
func (r *PgxCurrencyRepository) DeleteCurrency(ctx context.Context, currencyID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM currencies WHERE currency_id = $1;`, currencyID)
	if err != nil {
		return mapStoreError(fmt.Sprintf("delete currency %s", currencyID), err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

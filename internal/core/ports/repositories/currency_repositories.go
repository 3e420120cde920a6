package repositories

import (
	"context"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
)

// CurrencyReader defines read operations for currency definitions.
type CurrencyReader interface {
	// FindCurrencyByID retrieves a specific currency by its identifier.
	FindCurrencyByID(ctx context.Context, currencyID string) (*domain.Currency, error)

	// ListCurrencies retrieves all persisted currencies, enabled or not.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// CurrencyWriter defines write operations for currency definitions.
type CurrencyWriter interface {
	// SaveCurrency inserts or updates a currency definition.
	SaveCurrency(ctx context.Context, currency domain.Currency) error

	// DeleteCurrency removes a currency definition. Balances held in the
	// currency are untouched.
	DeleteCurrency(ctx context.Context, currencyID string) error
}

// CurrencyRepositoryFacade combines all currency-related repository interfaces.
type CurrencyRepositoryFacade interface {
	CurrencyReader
	CurrencyWriter
}

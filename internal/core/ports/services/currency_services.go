package services

import (
	"context"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/SscSPs/game_currency_ledger/internal/dto"
)

// CurrencyReaderSvc defines read operations for currency definitions.
type CurrencyReaderSvc interface {
	// GetCurrencyByID retrieves a specific currency by its identifier.
	GetCurrencyByID(ctx context.Context, currencyID string) (*domain.Currency, error)

	// DefaultCurrency returns the default currency, which always exists.
	DefaultCurrency(ctx context.Context) (*domain.Currency, error)

	// ListCurrencies retrieves all currencies, enabled or not.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)

	// ListEnabledCurrencies retrieves only the currencies accepting mutations.
	ListEnabledCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// CurrencyWriterSvc defines administrative operations on currency definitions.
type CurrencyWriterSvc interface {
	// CreateCurrency persists a new currency.
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorID string) (*domain.Currency, error)

	// SetCurrencyEnabled toggles whether a currency accepts new mutations.
	SetCurrencyEnabled(ctx context.Context, currencyID string, enabled bool, updaterID string) error

	// RemoveCurrency deletes a currency definition. The default currency
	// cannot be removed.
	RemoveCurrency(ctx context.Context, currencyID string) error
}

// CurrencySvcFacade combines all currency-related service interfaces.
type CurrencySvcFacade interface {
	CurrencyReaderSvc
	CurrencyWriterSvc

	// Initialize loads persisted currencies and ensures the default currency
	// exists. Called once at startup, blocking.
	Initialize(ctx context.Context) error
}

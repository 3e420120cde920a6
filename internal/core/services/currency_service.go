package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/game_currency_ledger/internal/core/ports/services"
	"github.com/SscSPs/game_currency_ledger/internal/dto"
	"github.com/go-playground/validator/v10"
)

// currencyServiceImpl keeps currency definitions cached in memory, backed by
// the currency repository. Definitions are owned by administrative callers and
// are off the balance hot path, so a full reload on every write is fine.
type currencyServiceImpl struct {
	BaseService
	repo      portsrepo.CurrencyRepositoryFacade
	validate  *validator.Validate
	defaultID string

	mu         sync.RWMutex
	currencies map[string]domain.Currency
}

// NewCurrencyService creates the currency service. Initialize must be called
// before first use so the default currency exists and the cache is warm.
func NewCurrencyService(repo portsrepo.CurrencyRepositoryFacade, defaultCurrency domain.Currency) portssvc.CurrencySvcFacade {
	return &currencyServiceImpl{
		repo:       repo,
		validate:   validator.New(),
		defaultID:  defaultCurrency.ID,
		currencies: map[string]domain.Currency{defaultCurrency.ID: defaultCurrency},
	}
}

var _ portssvc.CurrencySvcFacade = (*currencyServiceImpl)(nil)

// Initialize loads persisted currencies and ensures the default currency is
// stored. Called once at startup, blocking.
func (s *currencyServiceImpl) Initialize(ctx context.Context) error {
	s.mu.RLock()
	defaultCurrency := s.currencies[s.defaultID]
	s.mu.RUnlock()

	persisted, err := s.repo.ListCurrencies(ctx)
	if err != nil {
		return fmt.Errorf("load currencies: %w", err)
	}

	// The cache is pre-seeded with the default, so presence has to be judged
	// on what storage returned, not on the cache.
	hasDefault := false
	s.mu.Lock()
	for _, currency := range persisted {
		s.currencies[currency.ID] = currency
		if currency.ID == s.defaultID {
			hasDefault = true
		}
	}
	s.mu.Unlock()

	if !hasDefault {
		if err := s.repo.SaveCurrency(ctx, defaultCurrency); err != nil {
			return fmt.Errorf("persist default currency: %w", err)
		}
		s.LogInfo(ctx, "Default currency created", slog.String("currency_id", s.defaultID))
	}
	return nil
}

func (s *currencyServiceImpl) CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest, creatorID string) (*domain.Currency, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}
	if req.MaxBalance.IsNegative() || req.StartingBalance.IsNegative() {
		return nil, fmt.Errorf("%w: starting and max balance must be non-negative", apperrors.ErrValidation)
	}
	if req.MaxTransfer.IsPositive() && req.MinTransfer.GreaterThan(req.MaxTransfer) {
		return nil, fmt.Errorf("%w: minTransfer exceeds maxTransfer", apperrors.ErrValidation)
	}

	s.mu.RLock()
	_, exists := s.currencies[req.ID]
	s.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: currency %s", apperrors.ErrDuplicate, req.ID)
	}

	now := time.Now().UTC()
	currency := domain.Currency{
		ID:              req.ID,
		Name:            req.Name,
		NameSingular:    req.NameSingular,
		Symbol:          req.Symbol,
		IsDecimal:       req.IsDecimal,
		StartingBalance: req.StartingBalance,
		MaxBalance:      req.MaxBalance,
		MinTransfer:     req.MinTransfer,
		MaxTransfer:     req.MaxTransfer,
		Enabled:         true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorID,
		},
	}

	if err := s.repo.SaveCurrency(ctx, currency); err != nil {
		s.LogError(ctx, err, "Failed to save currency", slog.String("currency_id", currency.ID))
		return nil, err
	}

	s.mu.Lock()
	s.currencies[currency.ID] = currency
	s.mu.Unlock()

	s.LogInfo(ctx, "Currency created", slog.String("currency_id", currency.ID))
	return &currency, nil
}

func (s *currencyServiceImpl) SetCurrencyEnabled(ctx context.Context, currencyID string, enabled bool, updaterID string) error {
	s.mu.RLock()
	currency, ok := s.currencies[currencyID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("currency %s: %w", currencyID, apperrors.ErrNotFound)
	}

	currency.Enabled = enabled
	currency.LastUpdatedAt = time.Now().UTC()
	currency.LastUpdatedBy = updaterID
	if err := s.repo.SaveCurrency(ctx, currency); err != nil {
		s.LogError(ctx, err, "Failed to update currency", slog.String("currency_id", currencyID))
		return err
	}

	s.mu.Lock()
	s.currencies[currencyID] = currency
	s.mu.Unlock()

	s.LogInfo(ctx, "Currency enabled state changed",
		slog.String("currency_id", currencyID),
		slog.Bool("enabled", enabled))
	return nil
}

func (s *currencyServiceImpl) RemoveCurrency(ctx context.Context, currencyID string) error {
	if currencyID == s.defaultID {
		return fmt.Errorf("%w: the default currency cannot be removed", apperrors.ErrValidation)
	}

	if err := s.repo.DeleteCurrency(ctx, currencyID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to delete currency", slog.String("currency_id", currencyID))
		}
		return err
	}

	s.mu.Lock()
	delete(s.currencies, currencyID)
	s.mu.Unlock()

	s.LogInfo(ctx, "Currency removed", slog.String("currency_id", currencyID))
	return nil
}

func (s *currencyServiceImpl) GetCurrencyByID(_ context.Context, currencyID string) (*domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currency, ok := s.currencies[currencyID]
	if !ok {
		return nil, fmt.Errorf("currency %s: %w", currencyID, apperrors.ErrNotFound)
	}
	return &currency, nil
}

func (s *currencyServiceImpl) DefaultCurrency(ctx context.Context) (*domain.Currency, error) {
	return s.GetCurrencyByID(ctx, s.defaultID)
}

func (s *currencyServiceImpl) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currencies := make([]domain.Currency, 0, len(s.currencies))
	for _, currency := range s.currencies {
		currencies = append(currencies, currency)
	}
	return currencies, nil
}

func (s *currencyServiceImpl) ListEnabledCurrencies(_ context.Context) ([]domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currencies := make([]domain.Currency, 0, len(s.currencies))
	for _, currency := range s.currencies {
		if currency.Enabled {
			currencies = append(currencies, currency)
		}
	}
	return currencies, nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// account is one in-memory balance. Its own mutex is the per-key critical
// section that makes the conditional decrement indivisible.
type account struct {
	mu      sync.Mutex
	balance decimal.Decimal
	seq     int64 // creation order, leaderboard tie-break
	updated time.Time
}

// MemoryLedgerStore is the volatile backend: a map of per-key locked accounts
// with an optional JSON file snapshot loaded on Initialize and written on
// Shutdown. It doubles as the fallback store when a primary backend degrades.
type MemoryLedgerStore struct {
	mu         sync.RWMutex // guards map shape, names, currencies
	accounts   map[domain.BalanceKey]*account
	names      map[string]string
	currencies map[string]domain.Currency
	nextSeq    int64
	path       string // snapshot file, empty to disable persistence
}

// NewMemoryLedgerStore creates an in-memory backend. path may be empty to
// disable file snapshots.
func NewMemoryLedgerStore(path string) *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts:   make(map[domain.BalanceKey]*account),
		names:      make(map[string]string),
		currencies: make(map[string]domain.Currency),
		path:       path,
	}
}

var _ portsrepo.LedgerStore = (*MemoryLedgerStore)(nil)

// getOrCreate returns the account for key, provisioning it with seed when
// absent. The store lock serializes map mutation; the returned account's own
// lock serializes balance access.
func (s *MemoryLedgerStore) getOrCreate(key domain.BalanceKey, seed decimal.Decimal) *account {
	s.mu.RLock()
	acc, ok := s.accounts[key]
	s.mu.RUnlock()
	if ok {
		return acc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[key]; ok {
		return acc
	}
	s.nextSeq++
	acc = &account{balance: seed, seq: s.nextSeq, updated: time.Now().UTC()}
	s.accounts[key] = acc
	return acc
}

// FindBalance reads the balance, provisioning the account with seed on first
// sight.
func (s *MemoryLedgerStore) FindBalance(_ context.Context, key domain.BalanceKey, seed decimal.Decimal) (decimal.Decimal, error) {
	acc := s.getOrCreate(key, seed)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

// SaveBalance unconditionally overwrites the balance.
func (s *MemoryLedgerStore) SaveBalance(_ context.Context, key domain.BalanceKey, amount decimal.Decimal) error {
	acc := s.getOrCreate(key, amount)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.balance = amount
	acc.updated = time.Now().UTC()
	return nil
}

// AddBalance increments the balance under the account lock.
func (s *MemoryLedgerStore) AddBalance(_ context.Context, key domain.BalanceKey, amount decimal.Decimal) error {
	s.mu.RLock()
	acc, ok := s.accounts[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("add balance: account %s/%s: %w", key.PlayerID, key.CurrencyID, apperrors.ErrNotFound)
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.balance = acc.balance.Add(amount)
	acc.updated = time.Now().UTC()
	return nil
}

// RemoveBalance applies the conditional decrement: check and subtraction both
// happen under the account lock, as one indivisible operation.
func (s *MemoryLedgerStore) RemoveBalance(_ context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error) {
	s.mu.RLock()
	acc, ok := s.accounts[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if acc.balance.LessThan(amount) {
		return false, nil
	}
	acc.balance = acc.balance.Sub(amount)
	acc.updated = time.Now().UTC()
	return true, nil
}

// HasEnough reports whether the account holds at least amount.
func (s *MemoryLedgerStore) HasEnough(_ context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error) {
	s.mu.RLock()
	acc, ok := s.accounts[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance.GreaterThanOrEqual(amount), nil
}

// CreateAccount provisions the account with seed if absent.
func (s *MemoryLedgerStore) CreateAccount(_ context.Context, key domain.BalanceKey, seed decimal.Decimal) error {
	s.getOrCreate(key, seed)
	return nil
}

// TotalAccounts returns the number of accounts held in the currency.
func (s *MemoryLedgerStore) TotalAccounts(_ context.Context, currencyID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for key := range s.accounts {
		if key.CurrencyID == currencyID {
			total++
		}
	}
	return total, nil
}

// TotalCirculating returns the sum of all balances in the currency.
func (s *MemoryLedgerStore) TotalCirculating(_ context.Context, currencyID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for key, acc := range s.accounts {
		if key.CurrencyID != currencyID {
			continue
		}
		acc.mu.Lock()
		total = total.Add(acc.balance)
		acc.mu.Unlock()
	}
	return total, nil
}

// TopBalances returns the n richest accounts, ties broken by creation order.
func (s *MemoryLedgerStore) TopBalances(_ context.Context, currencyID string, n int) ([]domain.AccountBalance, error) {
	type row struct {
		bal domain.AccountBalance
		seq int64
	}

	s.mu.RLock()
	rows := make([]row, 0, len(s.accounts))
	for key, acc := range s.accounts {
		if key.CurrencyID != currencyID {
			continue
		}
		acc.mu.Lock()
		rows = append(rows, row{
			bal: domain.AccountBalance{Key: key, Balance: acc.balance, LastUpdated: acc.updated},
			seq: acc.seq,
		})
		acc.mu.Unlock()
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].bal.Balance.Equal(rows[j].bal.Balance) {
			return rows[i].bal.Balance.GreaterThan(rows[j].bal.Balance)
		}
		return rows[i].seq < rows[j].seq
	})
	if len(rows) > n {
		rows = rows[:n]
	}

	balances := make([]domain.AccountBalance, len(rows))
	for i, r := range rows {
		balances[i] = r.bal
	}
	return balances, nil
}

// UpsertName inserts or refreshes one directory entry.
func (s *MemoryLedgerStore) UpsertName(_ context.Context, playerID, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[playerID] = displayName
	return nil
}

// FindName retrieves the display name for playerID.
func (s *MemoryLedgerStore) FindName(_ context.Context, playerID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[playerID]
	if !ok {
		return "", fmt.Errorf("find name %s: %w", playerID, apperrors.ErrNotFound)
	}
	return name, nil
}

// FindNames retrieves display names for the given player IDs.
func (s *MemoryLedgerStore) FindNames(_ context.Context, playerIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]string, len(playerIDs))
	for _, id := range playerIDs {
		if name, ok := s.names[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

// SyncNames bulk-reconciles the directory. A single map assignment loop is
// already bounded here; chunking only matters for the remote backends.
func (s *MemoryLedgerStore) SyncNames(_ context.Context, names map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, name := range names {
		s.names[id] = name
	}
	return nil
}

// SaveCurrency inserts or updates a currency definition.
func (s *MemoryLedgerStore) SaveCurrency(_ context.Context, currency domain.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencies[currency.ID] = currency
	return nil
}

// FindCurrencyByID retrieves a currency by its identifier.
func (s *MemoryLedgerStore) FindCurrencyByID(_ context.Context, currencyID string) (*domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currency, ok := s.currencies[currencyID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &currency, nil
}

// ListCurrencies retrieves all currencies ordered by identifier.
func (s *MemoryLedgerStore) ListCurrencies(_ context.Context) ([]domain.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	currencies := make([]domain.Currency, 0, len(s.currencies))
	for _, currency := range s.currencies {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i].ID < currencies[j].ID })
	return currencies, nil
}

// DeleteCurrency removes a currency definition.
func (s *MemoryLedgerStore) DeleteCurrency(_ context.Context, currencyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.currencies[currencyID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.currencies, currencyID)
	return nil
}

// Initialize loads the snapshot file if one is configured and present.
func (s *MemoryLedgerStore) Initialize(_ context.Context) error {
	return s.loadSnapshot()
}

// Shutdown writes the snapshot file if one is configured.
func (s *MemoryLedgerStore) Shutdown(_ context.Context) error {
	return s.saveSnapshot()
}

// Available always reports true; memory never loses connectivity.
func (s *MemoryLedgerStore) Available(_ context.Context) bool {
	return true
}

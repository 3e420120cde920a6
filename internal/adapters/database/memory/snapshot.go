package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// snapshotFile is the on-disk form of the whole store. It is written once on
// shutdown and read once on startup; the store never appends incrementally.
type snapshotFile struct {
	Balances   []snapshotBalance `json:"balances"`
	Names      map[string]string `json:"names"`
	Currencies []domain.Currency `json:"currencies"`
}

type snapshotBalance struct {
	PlayerID   string          `json:"playerID"`
	CurrencyID string          `json:"currencyID"`
	Balance    decimal.Decimal `json:"balance"`
	Seq        int64           `json:"seq"`
	Updated    time.Time       `json:"updated"`
}

func (s *MemoryLedgerStore) loadSnapshot() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load snapshot %s: %w", s.path, err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range file.Balances {
		key := domain.BalanceKey{PlayerID: b.PlayerID, CurrencyID: b.CurrencyID}
		s.accounts[key] = &account{balance: b.Balance, seq: b.Seq, updated: b.Updated}
		if b.Seq > s.nextSeq {
			s.nextSeq = b.Seq
		}
	}
	for id, name := range file.Names {
		s.names[id] = name
	}
	for _, currency := range file.Currencies {
		s.currencies[currency.ID] = currency
	}
	return nil
}

func (s *MemoryLedgerStore) saveSnapshot() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	file := snapshotFile{
		Names:      make(map[string]string, len(s.names)),
		Currencies: make([]domain.Currency, 0, len(s.currencies)),
		Balances:   make([]snapshotBalance, 0, len(s.accounts)),
	}
	for key, acc := range s.accounts {
		acc.mu.Lock()
		file.Balances = append(file.Balances, snapshotBalance{
			PlayerID:   key.PlayerID,
			CurrencyID: key.CurrencyID,
			Balance:    acc.balance,
			Seq:        acc.seq,
			Updated:    acc.updated,
		})
		acc.mu.Unlock()
	}
	for id, name := range s.names {
		file.Names[id] = name
	}
	for _, currency := range s.currencies {
		file.Currencies = append(file.Currencies, currency)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	// Write-then-rename so a crash mid-write never corrupts the last snapshot.
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.path, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.path, err)
	}
	return nil
}

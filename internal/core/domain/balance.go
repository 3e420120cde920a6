package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifies a single account balance: one player in one currency.
type BalanceKey struct {
	PlayerID   string `json:"playerID"`
	CurrencyID string `json:"currencyID"`
}

// AccountBalance is the ledger's unit of state. Balances are created lazily on
// first read/write, seeded with the currency's starting balance, and are never
// deleted during normal operation.
// Invariant: 0 <= Balance <= currency.MaxBalance.
type AccountBalance struct {
	Key         BalanceKey      `json:"key"`
	Balance     decimal.Decimal `json:"balance"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

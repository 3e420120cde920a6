package domain

import (
	"github.com/shopspring/decimal"
)

// Currency describes a virtual currency handled by the ledger.
// The default currency always exists and cannot be removed.
type Currency struct {
	ID              string          `json:"id"`           // Primary Key, stable identifier (e.g., "coins")
	Name            string          `json:"name"`         // Plural display name, e.g., "Coins"
	NameSingular    string          `json:"nameSingular"` // Singular display name, e.g., "Coin"
	Symbol          string          `json:"symbol"`       // e.g., "$"
	IsDecimal       bool            `json:"isDecimal"`    // Controls formatting precision (2dp vs whole units)
	StartingBalance decimal.Decimal `json:"startingBalance"`
	MaxBalance      decimal.Decimal `json:"maxBalance"`
	MinTransfer     decimal.Decimal `json:"minTransfer"`
	MaxTransfer     decimal.Decimal `json:"maxTransfer"`
	Enabled         bool            `json:"enabled"` // Disabled currencies reject mutations but stay readable
	AuditFields
}

// Precision returns the number of decimal places used when formatting
// amounts of this currency.
func (c Currency) Precision() int32 {
	if c.IsDecimal {
		return 2
	}
	return 0
}

package models

import (
	"github.com/shopspring/decimal"
)

// Currency is the persisted form of a currency definition.
type Currency struct {
	CurrencyID      string          `db:"currency_id"` // Primary Key (e.g., "coins")
	Name            string          `db:"name"`
	NameSingular    string          `db:"name_singular"`
	Symbol          string          `db:"symbol"`
	IsDecimal       bool            `db:"is_decimal"`
	StartingBalance decimal.Decimal `db:"starting_balance"`
	MaxBalance      decimal.Decimal `db:"max_balance"`
	MinTransfer     decimal.Decimal `db:"min_transfer"`
	MaxTransfer     decimal.Decimal `db:"max_transfer"`
	Enabled         bool            `db:"enabled"`
	AuditFields
}

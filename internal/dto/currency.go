package dto

import (
	"github.com/shopspring/decimal"
)

// CreateCurrencyRequest defines the data needed to create a new currency.
// Validated with go-playground/validator before anything is persisted.
type CreateCurrencyRequest struct {
	ID              string          `json:"id" validate:"required,lowercase,alphanum,max=32"`
	Name            string          `json:"name" validate:"required"`
	NameSingular    string          `json:"nameSingular" validate:"required"`
	Symbol          string          `json:"symbol" validate:"required"`
	IsDecimal       bool            `json:"isDecimal"`
	StartingBalance decimal.Decimal `json:"startingBalance"`
	MaxBalance      decimal.Decimal `json:"maxBalance"`
	MinTransfer     decimal.Decimal `json:"minTransfer"`
	MaxTransfer     decimal.Decimal `json:"maxTransfer"`
}

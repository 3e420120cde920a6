package utils

import (
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
	trillion = decimal.NewFromInt(1_000_000_000_000)
)

// FormatMoney formats an amount for display in the given currency: the
// currency symbol followed by the amount at the currency's precision.
// Example: amount 12.3456 in a decimal currency returns "$12.35"
// Example: amount 12.3456 in a whole-unit currency returns "$12"
func FormatMoney(amount decimal.Decimal, currency domain.Currency) string {
	return currency.Symbol + amount.StringFixed(currency.Precision())
}

// FormatAmount formats an amount with the given precision, no symbol.
// This is a convenience function when you only have the precision value.
func FormatAmount(amount decimal.Decimal, precision int32) string {
	return amount.StringFixed(precision)
}

// FormatMoneyShort abbreviates magnitudes >= 1,000 using K/M/B/T suffixes
// with one decimal of precision.
// Example: 1,500 returns "$1.5K"; 2,340,000 returns "$2.3M"
func FormatMoneyShort(amount decimal.Decimal, currency domain.Currency) string {
	magnitude := amount.Abs()
	var (
		scaled decimal.Decimal
		suffix string
	)
	switch {
	case magnitude.GreaterThanOrEqual(trillion):
		scaled, suffix = amount.Div(trillion), "T"
	case magnitude.GreaterThanOrEqual(billion):
		scaled, suffix = amount.Div(billion), "B"
	case magnitude.GreaterThanOrEqual(million):
		scaled, suffix = amount.Div(million), "M"
	case magnitude.GreaterThanOrEqual(thousand):
		scaled, suffix = amount.Div(thousand), "K"
	default:
		return FormatMoney(amount, currency)
	}
	return currency.Symbol + scaled.RoundDown(1).StringFixed(1) + suffix
}

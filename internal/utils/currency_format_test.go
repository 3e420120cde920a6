package utils_test

import (
	"testing"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/SscSPs/game_currency_ledger/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func decimalCurrency() domain.Currency {
	return domain.Currency{ID: "coins", Symbol: "$", IsDecimal: true}
}

func wholeCurrency() domain.Currency {
	return domain.Currency{ID: "gems", Symbol: "*", IsDecimal: false}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		currency domain.Currency
		want     string
	}{
		{"decimal currency rounds to cents", decimal.NewFromFloat(12.3456), decimalCurrency(), "$12.35"},
		{"whole currency drops fraction", decimal.NewFromFloat(12.3456), wholeCurrency(), "*12"},
		{"zero", decimal.Zero, decimalCurrency(), "$0.00"},
		{"negative", decimal.NewFromFloat(-3.5), decimalCurrency(), "$-3.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.FormatMoney(tt.amount, tt.currency))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "12.35", utils.FormatAmount(decimal.NewFromFloat(12.3456), 2))
	assert.Equal(t, "12", utils.FormatAmount(decimal.NewFromFloat(12.3456), 0))
}

func TestFormatMoneyShort(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
		want   string
	}{
		{"below a thousand stays exact", decimal.NewFromInt(999), "$999.00"},
		{"thousands", decimal.NewFromInt(1500), "$1.5K"},
		{"millions truncate not round", decimal.NewFromInt(2_390_000), "$2.3M"},
		{"billions", decimal.NewFromInt(7_100_000_000), "$7.1B"},
		{"trillions", decimal.NewFromInt(1_200_000_000_000), "$1.2T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.FormatMoneyShort(tt.amount, decimalCurrency()))
		})
	}
}

package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shopspring/decimal"
)

const (
	balancesCollection   = "player_balances"
	namesCollection      = "player_names"
	currenciesCollection = "currencies"
)

// balanceDoc is the persisted form of an account balance. Balances are stored
// as Decimal128 so $inc stays exact for currency amounts.
type balanceDoc struct {
	PlayerID   string               `bson:"player_id"`
	CurrencyID string               `bson:"currency_id"`
	Balance    primitive.Decimal128 `bson:"balance"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

// nameDoc is the persisted form of a name-directory entry.
type nameDoc struct {
	PlayerID    string    `bson:"player_id"`
	DisplayName string    `bson:"display_name"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// currencyDoc is the persisted form of a currency definition.
type currencyDoc struct {
	CurrencyID      string               `bson:"currency_id"`
	Name            string               `bson:"name"`
	NameSingular    string               `bson:"name_singular"`
	Symbol          string               `bson:"symbol"`
	IsDecimal       bool                 `bson:"is_decimal"`
	StartingBalance primitive.Decimal128 `bson:"starting_balance"`
	MaxBalance      primitive.Decimal128 `bson:"max_balance"`
	MinTransfer     primitive.Decimal128 `bson:"min_transfer"`
	MaxTransfer     primitive.Decimal128 `bson:"max_transfer"`
	Enabled         bool                 `bson:"enabled"`
	CreatedAt       time.Time            `bson:"created_at"`
	CreatedBy       string               `bson:"created_by"`
	LastUpdatedAt   time.Time            `bson:"last_updated_at"`
	LastUpdatedBy   string               `bson:"last_updated_by"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

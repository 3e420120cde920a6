package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlayerBalance is the persisted form of an account balance, keyed by
// (player_id, currency_id).
type PlayerBalance struct {
	PlayerID   string          `db:"player_id"`
	CurrencyID string          `db:"currency_id"`
	Balance    decimal.Decimal `db:"balance"`
	CreatedAt  time.Time       `db:"created_at"` // Tie-break order for leaderboards
	UpdatedAt  time.Time       `db:"updated_at"`
}

// PlayerName is the persisted form of a name-directory entry.
type PlayerName struct {
	PlayerID    string    `db:"player_id"`
	DisplayName string    `db:"display_name"`
	UpdatedAt   time.Time `db:"updated_at"`
}

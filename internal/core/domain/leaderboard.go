package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaderboardEntry is one row of a currency's top-balances ranking.
// Rank is 1-based.
type LeaderboardEntry struct {
	Rank        int             `json:"rank"`
	PlayerID    string          `json:"playerID"`
	DisplayName string          `json:"displayName"`
	Balance     decimal.Decimal `json:"balance"`
}

// LeaderboardSnapshot is an immutable ranking for one currency. Snapshots are
// replaced wholesale on refresh; readers always observe either the old or the
// new snapshot, never a partially populated one. Symbol and Precision are
// captured at refresh so rank lookups can format balances without another
// currency lookup.
type LeaderboardSnapshot struct {
	CurrencyID string             `json:"currencyID"`
	Symbol     string             `json:"symbol"`
	Precision  int32              `json:"precision"`
	TakenAt    time.Time          `json:"takenAt"`
	Entries    []LeaderboardEntry `json:"entries"`
}

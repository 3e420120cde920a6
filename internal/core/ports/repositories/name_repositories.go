package repositories

import "context"

// NameRepository maintains the (playerID -> display name) directory used for
// leaderboard display.
type NameRepository interface {
	// UpsertName inserts or updates a single directory entry.
	UpsertName(ctx context.Context, playerID, displayName string) error

	// FindName retrieves the display name for playerID.
	FindName(ctx context.Context, playerID string) (string, error)

	// FindNames retrieves display names for the given player IDs. Unknown
	// IDs are absent from the result, not an error.
	FindNames(ctx context.Context, playerIDs []string) (map[string]string, error)

	// SyncNames bulk-reconciles the directory with the game server's player
	// registry. Implementations must chunk the upserts into bounded-size
	// batches rather than issuing one unbounded statement.
	SyncNames(ctx context.Context, names map[string]string) error
}

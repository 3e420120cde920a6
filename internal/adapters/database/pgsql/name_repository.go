package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/game_currency_ledger/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// syncChunkSize bounds a single SyncNames batch so reconciliation of a large
// player registry never issues one unbounded statement.
const syncChunkSize = 500

// PgxNameRepository stores the player name directory in the player_names table.
type PgxNameRepository struct {
	pool *pgxpool.Pool
}

// newPgxNameRepository creates a new repository for name-directory data.
func newPgxNameRepository(pool *pgxpool.Pool) *PgxNameRepository {
	return &PgxNameRepository{pool: pool}
}

var _ portsrepo.NameRepository = (*PgxNameRepository)(nil)

// UpsertName inserts or refreshes one directory entry.
func (r *PgxNameRepository) UpsertName(ctx context.Context, playerID, displayName string) error {
	query := `
		INSERT INTO player_names (player_id, display_name, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (player_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = now();
	`
	if _, err := r.pool.Exec(ctx, query, playerID, displayName); err != nil {
		return mapStoreError("upsert name", err)
	}
	return nil
}

// FindName retrieves the display name for playerID.
func (r *PgxNameRepository) FindName(ctx context.Context, playerID string) (string, error) {
	var m models.PlayerName
	query := `SELECT player_id, display_name, updated_at FROM player_names WHERE player_id = $1;`
	err := r.pool.QueryRow(ctx, query, playerID).Scan(&m.PlayerID, &m.DisplayName, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("find name %s: %w", playerID, apperrors.ErrNotFound)
		}
		return "", mapStoreError("find name", err)
	}
	return m.DisplayName, nil
}

// FindNames retrieves display names for the given player IDs. IDs without a
// directory entry are simply absent from the result.
func (r *PgxNameRepository) FindNames(ctx context.Context, playerIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(playerIDs))
	if len(playerIDs) == 0 {
		return names, nil
	}
	query := `SELECT player_id, display_name, updated_at FROM player_names WHERE player_id = ANY($1);`
	rows, err := r.pool.Query(ctx, query, playerIDs)
	if err != nil {
		return nil, mapStoreError("find names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.PlayerName
		if err := rows.Scan(&m.PlayerID, &m.DisplayName, &m.UpdatedAt); err != nil {
			return nil, mapStoreError("find names", err)
		}
		names[m.PlayerID] = m.DisplayName
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError("find names", err)
	}
	return names, nil
}

// SyncNames reconciles the directory with the host's player registry using
// batched upserts of at most syncChunkSize entries each.
func (r *PgxNameRepository) SyncNames(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}
	query := `
		INSERT INTO player_names (player_id, display_name, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (player_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = now();
	`
	batch := &pgx.Batch{}
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
			return mapStoreError("sync names", err)
		}
		batch = &pgx.Batch{}
		return nil
	}

	for id, name := range names {
		batch.Queue(query, id, name)
		if batch.Len() >= syncChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

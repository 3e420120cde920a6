package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
)

// mapStoreError classifies a pgx failure for the orchestrator. Connection and
// resource-class SQLSTATEs (and any network-level failure that never produced
// a PgError) become ErrBackendUnavailable so the caller can degrade to the
// fallback store; everything else is wrapped as-is.
func mapStoreError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 {
			switch pgErr.Code[:2] {
			case "08", "53", "57": // connection exception, insufficient resources, operator intervention
				return fmt.Errorf("%s: %w: %w", op, apperrors.ErrBackendUnavailable, err)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrBackendUnavailable, err)
}

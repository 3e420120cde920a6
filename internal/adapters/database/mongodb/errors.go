package mongodb

import (
	"errors"
	"fmt"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"go.mongodb.org/mongo-driver/mongo"
)

// mapStoreError classifies a mongo-driver failure. Network and timeout
// failures become ErrBackendUnavailable so the orchestrator can degrade to
// the fallback store.
func mapStoreError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

package pgsql

import (
	"context"

	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxLedgerStore is the relational storage backend: the three repositories
// over one shared connection pool. The pool bounds the number of concurrent
// in-flight storage operations; exhaustion surfaces as acquisition latency or
// failure, never deadlock.
type PgxLedgerStore struct {
	*PgxBalanceRepository
	*PgxNameRepository
	*PgxCurrencyRepository
	pool *pgxpool.Pool
}

// NewPgxLedgerStore creates the relational backend over pool.
func NewPgxLedgerStore(pool *pgxpool.Pool) *PgxLedgerStore {
	return &PgxLedgerStore{
		PgxBalanceRepository:  newPgxBalanceRepository(pool),
		PgxNameRepository:     newPgxNameRepository(pool),
		PgxCurrencyRepository: newPgxCurrencyRepository(pool),
		pool:                  pool,
	}
}

var _ portsrepo.LedgerStore = (*PgxLedgerStore)(nil)

// Initialize verifies connectivity. Schema setup is handled by migrations at
// process start, not here.
func (s *PgxLedgerStore) Initialize(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapStoreError("initialize", err)
	}
	return nil
}

// Shutdown closes the connection pool.
func (s *PgxLedgerStore) Shutdown(_ context.Context) error {
	s.pool.Close()
	return nil
}

// Available reports whether the database currently answers a ping.
func (s *PgxLedgerStore) Available(ctx context.Context) bool {
	return s.pool.Ping(ctx) == nil
}

package repositories

import "context"

// BackendLifecycle covers connection setup and teardown for a storage backend.
type BackendLifecycle interface {
	// Initialize prepares the backend for use (connect, load snapshot, ...).
	Initialize(ctx context.Context) error

	// Shutdown releases backend resources, flushing any pending state.
	Shutdown(ctx context.Context) error

	// Available reports whether the backend can currently serve operations.
	Available(ctx context.Context) bool
}

// LedgerStore is the full capability contract a storage backend implements.
// The in-memory, relational and document backends all present identical
// external behavior behind this interface, including read-with-create-on-miss
// and the atomic conditional decrement.
type LedgerStore interface {
	BalanceRepositoryFacade
	NameRepository
	CurrencyRepositoryFacade
	BackendLifecycle
}

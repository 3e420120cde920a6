package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientFunds indicates a conditional decrement found the balance too
// low. It is the boolean-failure outcome of a debit, not a system fault.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrCurrencyDisabled indicates a mutation was attempted against a disabled
// currency. Disabled currencies remain readable for migration.
var ErrCurrencyDisabled = errors.New("currency is disabled")

// ErrBackendUnavailable indicates a storage connectivity or pool-exhaustion
// failure. Operations fail cleanly; the orchestrator may fall back to the
// in-memory store.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// ErrOperationCancelled indicates an observer cancelled the pre-mutation event,
// so the storage write was skipped.
var ErrOperationCancelled = errors.New("operation cancelled by event observer")

// ErrPartialTransfer indicates the debit leg of a transfer succeeded but the
// credit leg failed; a compensating credit has been attempted.
var ErrPartialTransfer = errors.New("transfer partially applied")

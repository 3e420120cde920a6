package domain

import (
	"github.com/shopspring/decimal"
)

// MutationKind tags a balance mutation event as a credit or a debit.
type MutationKind string

const (
	MutationCredit MutationKind = "CREDIT"
	MutationDebit  MutationKind = "DEBIT"
)

// EventPhase distinguishes the cancellable pre-mutation event from the
// purely observational post-mutation event.
type EventPhase string

const (
	PhasePre  EventPhase = "PRE"
	PhasePost EventPhase = "POST"
)

// MutationEvent is dispatched on the primary thread around every balance
// mutation. Observers may cancel a PhasePre event to skip the storage write;
// cancelling a PhasePost event has no effect because the write has already
// been applied.
type MutationEvent struct {
	Kind          MutationKind
	Phase         EventPhase
	PlayerID      string
	CurrencyID    string
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal

	cancelled bool
}

// Cancel marks the event as cancelled. Only honored for PhasePre events.
func (e *MutationEvent) Cancel() {
	e.cancelled = true
}

// Cancelled reports whether an observer cancelled this event.
func (e *MutationEvent) Cancelled() bool {
	return e.cancelled
}

package benchmark_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/game_currency_ledger/internal/benchmark"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/game_currency_ledger/internal/core/ports/services"
	"github.com/SscSPs/game_currency_ledger/internal/core/services"
	"github.com/SscSPs/game_currency_ledger/internal/executor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBenchLedger(t *testing.T) (*portssvc.ServiceContainer, func()) {
	t.Helper()
	store := memory.NewMemoryLedgerStore("")
	currency := domain.Currency{
		ID:              "coins",
		Name:            "Coins",
		NameSingular:    "Coin",
		Symbol:          "$",
		StartingBalance: decimal.NewFromInt(1000),
		Enabled:         true,
	}
	currencySvc := services.NewCurrencyService(store, currency)
	exec := executor.New(4, 256, nil)
	exec.Start()
	ledgerSvc := services.NewLedgerService(store, currencySvc, exec)
	return &portssvc.ServiceContainer{
		Ledger:   ledgerSvc,
		Currency: currencySvc,
	}, exec.Stop
}

func TestRun_EveryOperationAccounted(t *testing.T) {
	container, stop := newBenchLedger(t)
	defer stop()

	runner := benchmark.NewRunner(container.Ledger, benchmark.Config{
		Actors:      4,
		OpsPerActor: 100,
		Seed:        42,
	})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 400, report.Successes+report.Failures)
	assert.Greater(t, report.SuccessRate(), 0.0)
	assert.Greater(t, report.OpsPerSecond(), 0.0)
}

func TestRun_NoLostUpdatesOnSharedAccount(t *testing.T) {
	container, stop := newBenchLedger(t)
	defer stop()

	runner := benchmark.NewRunner(container.Ledger, benchmark.Config{
		Actors:      8,
		OpsPerActor: 200,
		PlayerID:    "shared",
		Seed:        7,
	})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	// Final balance must equal the starting balance plus the algebraic sum of
	// every ack'd mutation; any divergence is a lost update.
	final, err := container.Ledger.GetBalance(context.Background(), "shared", "")
	require.NoError(t, err)
	expected := decimal.NewFromInt(1000).Add(report.CreditTotal).Sub(report.DebitTotal)
	assert.True(t, final.Equal(expected), "final=%s expected=%s", final, expected)
}

func TestRun_DurationCutsLoadShort(t *testing.T) {
	container, stop := newBenchLedger(t)
	defer stop()

	runner := benchmark.NewRunner(container.Ledger, benchmark.Config{
		Actors:      2,
		OpsPerActor: 1 << 30,
		Duration:    50 * time.Millisecond,
		Seed:        1,
	})

	start := time.Now()
	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Positive(t, report.Successes+report.Failures)
}

func TestReport_Derivations(t *testing.T) {
	report := &benchmark.Report{
		Successes:    90,
		Failures:     10,
		Elapsed:      time.Second,
		TotalLatency: 500 * time.Millisecond,
	}
	assert.InDelta(t, 0.9, report.SuccessRate(), 1e-9)
	assert.InDelta(t, 100.0, report.OpsPerSecond(), 1e-9)
	assert.Equal(t, 5*time.Millisecond, report.MeanLatency())

	empty := &benchmark.Report{}
	assert.Zero(t, empty.SuccessRate())
	assert.Zero(t, empty.OpsPerSecond())
	assert.Zero(t, empty.MeanLatency())
}

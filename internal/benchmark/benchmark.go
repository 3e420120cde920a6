package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	portssvc "github.com/SscSPs/game_currency_ledger/internal/core/ports/services"
	"github.com/SscSPs/game_currency_ledger/internal/platform/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpWeights is the relative mix of operations each actor performs.
type OpWeights struct {
	Read   int
	Credit int
	Debit  int
	Check  int
}

// DefaultWeights is a read-heavy mix resembling command traffic.
var DefaultWeights = OpWeights{Read: 4, Credit: 3, Debit: 2, Check: 1}

// Config drives one benchmark run.
type Config struct {
	Actors      int
	OpsPerActor int
	Duration    time.Duration
	CurrencyID  string // empty selects the default currency
	PlayerID    string // if set, all actors share one account; otherwise each actor gets its own
	Weights     OpWeights
	Seed        int64
}

// Report aggregates the outcome of a run. CreditTotal and DebitTotal record
// the algebraic sums of the amounts whose operations succeeded, which is what
// the no-lost-update check compares against the final balance.
type Report struct {
	Successes    int64
	Failures     int64
	Elapsed      time.Duration
	TotalLatency time.Duration
	CreditTotal  decimal.Decimal
	DebitTotal   decimal.Decimal
}

// SuccessRate returns the fraction of operations that succeeded.
func (r *Report) SuccessRate() float64 {
	total := r.Successes + r.Failures
	if total == 0 {
		return 0
	}
	return float64(r.Successes) / float64(total)
}

// OpsPerSecond returns the measured throughput.
func (r *Report) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Successes+r.Failures) / r.Elapsed.Seconds()
}

// MeanLatency returns the mean per-operation latency.
func (r *Report) MeanLatency() time.Duration {
	total := r.Successes + r.Failures
	if total == 0 {
		return 0
	}
	return r.TotalLatency / time.Duration(total)
}

func (r *Report) String() string {
	return fmt.Sprintf("ops=%d success=%.1f%% throughput=%.0f ops/s mean_latency=%s net_delta=%s",
		r.Successes+r.Failures,
		r.SuccessRate()*100,
		r.OpsPerSecond(),
		r.MeanLatency(),
		r.CreditTotal.Sub(r.DebitTotal))
}

// ledgerSurface is the slice of the orchestrator the harness drives. It goes
// through the same entry points real callers use; there is no storage bypass.
type ledgerSurface interface {
	portssvc.LedgerReaderSvc
	portssvc.LedgerWriterSvc
}

// Runner generates synthetic concurrent load against the orchestrator. It
// exists to validate the no-lost-update property under contention and doubles
// as an operational throughput check.
type Runner struct {
	svc ledgerSurface
	cfg Config

	successes    atomic.Int64
	failures     atomic.Int64
	latencyNanos atomic.Int64

	deltaMu     sync.Mutex
	creditTotal decimal.Decimal
	debitTotal  decimal.Decimal
}

// NewRunner creates a benchmark runner.
func NewRunner(svc ledgerSurface, cfg Config) *Runner {
	if cfg.Actors < 1 {
		cfg.Actors = 1
	}
	if cfg.OpsPerActor < 1 {
		cfg.OpsPerActor = 1
	}
	if cfg.Weights == (OpWeights{}) {
		cfg.Weights = DefaultWeights
	}
	return &Runner{svc: svc, cfg: cfg}
}

// Run drives the configured load and blocks until every actor finishes.
// Cancelling ctx stops actors from issuing further operations; operations
// already in flight run to completion.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	logger := logging.FromCtx(ctx)
	runCtx := ctx
	if r.cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Duration)
		defer cancel()
	}

	logger.Info("Benchmark starting",
		"actors", r.cfg.Actors,
		"ops_per_actor", r.cfg.OpsPerActor)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Actors; i++ {
		playerID := r.cfg.PlayerID
		if playerID == "" {
			playerID = "bench-" + uuid.NewString()
		}
		seed := r.cfg.Seed + int64(i)
		if r.cfg.Seed == 0 {
			seed = time.Now().UnixNano() + int64(i)
		}

		wg.Add(1)
		go func(playerID string, seed int64) {
			defer wg.Done()
			r.actorLoop(runCtx, playerID, rand.New(rand.NewSource(seed)))
		}(playerID, seed)
	}
	wg.Wait()
	elapsed := time.Since(start)

	r.deltaMu.Lock()
	report := &Report{
		Successes:    r.successes.Load(),
		Failures:     r.failures.Load(),
		Elapsed:      elapsed,
		TotalLatency: time.Duration(r.latencyNanos.Load()),
		CreditTotal:  r.creditTotal,
		DebitTotal:   r.debitTotal,
	}
	r.deltaMu.Unlock()

	logger.Info("Benchmark finished", "report", report.String())
	return report, ctx.Err()
}

func (r *Runner) actorLoop(ctx context.Context, playerID string, rng *rand.Rand) {
	for op := 0; op < r.cfg.OpsPerActor; op++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		r.runOp(ctx, playerID, rng)
	}
}

func (r *Runner) runOp(ctx context.Context, playerID string, rng *rand.Rand) {
	w := r.cfg.Weights
	total := w.Read + w.Credit + w.Debit + w.Check
	pick := rng.Intn(total)
	amount := decimal.NewFromInt(int64(rng.Intn(10) + 1))

	started := time.Now()
	var err error
	switch {
	case pick < w.Read:
		_, err = r.svc.GetBalance(ctx, playerID, r.cfg.CurrencyID)
	case pick < w.Read+w.Credit:
		if _, err = r.svc.AddMoney(ctx, playerID, r.cfg.CurrencyID, amount); err == nil {
			r.recordDelta(amount, decimal.Zero)
		}
	case pick < w.Read+w.Credit+w.Debit:
		if _, err = r.svc.RemoveMoney(ctx, playerID, r.cfg.CurrencyID, amount); err == nil {
			r.recordDelta(decimal.Zero, amount)
		}
	default:
		_, err = r.svc.HasEnough(ctx, playerID, r.cfg.CurrencyID, amount)
	}
	r.latencyNanos.Add(time.Since(started).Nanoseconds())

	if err != nil {
		r.failures.Add(1)
		return
	}
	r.successes.Add(1)
}

func (r *Runner) recordDelta(credit, debit decimal.Decimal) {
	r.deltaMu.Lock()
	r.creditTotal = r.creditTotal.Add(credit)
	r.debitTotal = r.debitTotal.Add(debit)
	r.deltaMu.Unlock()
}

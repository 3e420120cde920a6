package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/game_currency_ledger/internal/core/ports/services"
	"github.com/SscSPs/game_currency_ledger/internal/core/services"
	"github.com/SscSPs/game_currency_ledger/internal/executor"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// faultyStore fails credits against selected keys; everything else passes
// through. Used to force the compensation path of Transfer.
type faultyStore struct {
	portsrepo.LedgerStore
	failCredit map[domain.BalanceKey]error
}

func (s *faultyStore) AddBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) error {
	if err, ok := s.failCredit[key]; ok {
		delete(s.failCredit, key)
		return err
	}
	return s.LedgerStore.AddBalance(ctx, key, amount)
}

// unavailableStore simulates a backend that lost connectivity. Initialize
// brings it back.
type unavailableStore struct {
	portsrepo.LedgerStore
	down bool
}

func (s *unavailableStore) FindBalance(ctx context.Context, key domain.BalanceKey, seed decimal.Decimal) (decimal.Decimal, error) {
	if s.down {
		return decimal.Zero, apperrors.ErrBackendUnavailable
	}
	return s.LedgerStore.FindBalance(ctx, key, seed)
}

func (s *unavailableStore) Initialize(ctx context.Context) error {
	s.down = false
	return s.LedgerStore.Initialize(ctx)
}

// observerFunc adapts a closure to the observer interface.
type observerFunc func(event *domain.MutationEvent)

func (f observerFunc) HandleMutation(event *domain.MutationEvent) { f(event) }

// --- Test Suite ---
type LedgerServiceTestSuite struct {
	suite.Suite
	store       *memory.MemoryLedgerStore
	currencySvc portssvc.CurrencySvcFacade
	exec        *executor.Executor
	service     portssvc.LedgerSvcFacade
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.store = memory.NewMemoryLedgerStore("")
	suite.currencySvc = services.NewCurrencyService(suite.store, defaultTestCurrency())
	suite.exec = executor.New(2, 32, nil)
	suite.exec.Start()
	suite.service = services.NewLedgerService(suite.store, suite.currencySvc, suite.exec)
}

func (suite *LedgerServiceTestSuite) TearDownTest() {
	suite.exec.Stop()
}

func (suite *LedgerServiceTestSuite) balance(playerID string) decimal.Decimal {
	balance, err := suite.service.GetBalance(context.Background(), playerID, "")
	suite.Require().NoError(err)
	return balance
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestGetBalance_SeedsStartingBalance() {
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(100)))
}

func (suite *LedgerServiceTestSuite) TestGetBalance_EmptyCurrencySelectsDefault() {
	ctx := context.Background()
	viaDefault, err := suite.service.GetBalance(ctx, "steve", "")
	suite.Require().NoError(err)
	viaID, err := suite.service.GetBalance(ctx, "steve", "coins")
	suite.Require().NoError(err)
	suite.True(viaDefault.Equal(viaID))
}

func (suite *LedgerServiceTestSuite) TestGetBalance_UnknownCurrency() {
	_, err := suite.service.GetBalance(context.Background(), "steve", "nope")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestAddMoney_CreditsAndReturnsResult() {
	after, err := suite.service.AddMoney(context.Background(), "steve", "", decimal.NewFromInt(50))
	suite.Require().NoError(err)
	suite.True(after.Equal(decimal.NewFromInt(150)))
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(150)))
}

func (suite *LedgerServiceTestSuite) TestAddMoney_RejectsNonPositiveAmount() {
	_, err := suite.service.AddMoney(context.Background(), "steve", "", decimal.Zero)
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.AddMoney(context.Background(), "steve", "", decimal.NewFromInt(-5))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestAddMoney_RejectsBeyondMaxBalance() {
	// Rejected, not clamped; the balance must be untouched.
	_, err := suite.service.AddMoney(context.Background(), "steve", "", decimal.NewFromInt(100001))
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(100)))
}

func (suite *LedgerServiceTestSuite) TestRemoveMoney_DebitsAndReturnsResult() {
	after, err := suite.service.RemoveMoney(context.Background(), "steve", "", decimal.NewFromInt(40))
	suite.Require().NoError(err)
	suite.True(after.Equal(decimal.NewFromInt(60)))
}

func (suite *LedgerServiceTestSuite) TestRemoveMoney_InsufficientFundsLeavesBalance() {
	_, err := suite.service.RemoveMoney(context.Background(), "steve", "", decimal.NewFromInt(200))
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(100)))
}

func (suite *LedgerServiceTestSuite) TestSetBalance_ClampsNegativeToZero() {
	err := suite.service.SetBalance(context.Background(), "steve", "", decimal.NewFromInt(-5))
	suite.Require().NoError(err)
	suite.True(suite.balance("steve").IsZero())
}

func (suite *LedgerServiceTestSuite) TestSetBalance_ClampsToMaxBalance() {
	err := suite.service.SetBalance(context.Background(), "steve", "", decimal.NewFromInt(9000000))
	suite.Require().NoError(err)
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(100000)))
}

func (suite *LedgerServiceTestSuite) TestHasEnough() {
	ctx := context.Background()
	enough, err := suite.service.HasEnough(ctx, "steve", "", decimal.NewFromInt(100))
	suite.Require().NoError(err)
	suite.True(enough)

	enough, err = suite.service.HasEnough(ctx, "steve", "", decimal.NewFromInt(101))
	suite.Require().NoError(err)
	suite.False(enough)
}

func (suite *LedgerServiceTestSuite) TestHasEnough_ProvisionsFreshAccount() {
	ctx := context.Background()
	total, err := suite.service.TotalAccounts(ctx, "")
	suite.Require().NoError(err)
	suite.EqualValues(0, total)

	// The sufficiency check on a never-seen account must be judged against
	// the seeded starting balance, and the account must exist afterwards.
	enough, err := suite.service.HasEnough(ctx, "alex", "", decimal.NewFromInt(100))
	suite.Require().NoError(err)
	suite.True(enough)

	total, err = suite.service.TotalAccounts(ctx, "")
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
}

func (suite *LedgerServiceTestSuite) TestDisabledCurrency_RejectsMutationsKeepsReads() {
	ctx := context.Background()
	suite.Require().NoError(suite.currencySvc.SetCurrencyEnabled(ctx, "coins", false, "admin"))

	_, err := suite.service.AddMoney(ctx, "steve", "coins", decimal.NewFromInt(1))
	suite.ErrorIs(err, apperrors.ErrCurrencyDisabled)

	_, err = suite.service.GetBalance(ctx, "steve", "coins")
	suite.NoError(err)
}

func (suite *LedgerServiceTestSuite) TestTransfer_MovesFunds() {
	ctx := context.Background()
	// steve: 100 + 50 = 150, then 100 goes to alex (seeded with 100).
	_, err := suite.service.AddMoney(ctx, "steve", "", decimal.NewFromInt(50))
	suite.Require().NoError(err)

	err = suite.service.Transfer(ctx, "steve", "alex", "", decimal.NewFromInt(100))
	suite.Require().NoError(err)

	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(50)))
	suite.True(suite.balance("alex").Equal(decimal.NewFromInt(200)))
}

func (suite *LedgerServiceTestSuite) TestTransfer_InsufficientFunds() {
	err := suite.service.Transfer(context.Background(), "steve", "alex", "", decimal.NewFromInt(500))
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(100)))
}

func (suite *LedgerServiceTestSuite) TestTransfer_SelfRejected() {
	err := suite.service.Transfer(context.Background(), "steve", "steve", "", decimal.NewFromInt(10))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestTransfer_CompensatesWhenCreditFails() {
	ctx := context.Background()
	alexKey := domain.BalanceKey{PlayerID: "alex", CurrencyID: "coins"}
	flaky := &faultyStore{
		LedgerStore: suite.store,
		failCredit:  map[domain.BalanceKey]error{alexKey: errors.New("write timeout")},
	}
	service := services.NewLedgerService(flaky, suite.currencySvc, suite.exec)

	err := service.Transfer(ctx, "steve", "alex", "", decimal.NewFromInt(60))

	suite.ErrorIs(err, apperrors.ErrPartialTransfer)
	// The compensating credit restored the source.
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(100)))
	suite.True(suite.balance("alex").Equal(decimal.NewFromInt(100)))
}

func (suite *LedgerServiceTestSuite) TestPreEventCancellationSkipsWrite() {
	ctx := context.Background()
	suite.service.RegisterObserver(observerFunc(func(event *domain.MutationEvent) {
		if event.Phase == domain.PhasePre && event.Kind == domain.MutationDebit {
			event.Cancel()
		}
	}))

	_, err := suite.service.RemoveMoney(ctx, "steve", "", decimal.NewFromInt(10))
	suite.ErrorIs(err, apperrors.ErrOperationCancelled)
	suite.True(suite.balance("steve").Equal(decimal.NewFromInt(100)))

	// Credits pass the same observer untouched.
	_, err = suite.service.AddMoney(ctx, "steve", "", decimal.NewFromInt(10))
	suite.NoError(err)
}

func (suite *LedgerServiceTestSuite) TestPostEventObserved() {
	ctx := context.Background()
	events := make(chan *domain.MutationEvent, 4)
	suite.service.RegisterObserver(observerFunc(func(event *domain.MutationEvent) {
		if event.Phase == domain.PhasePost {
			events <- event
		}
	}))

	_, err := suite.service.AddMoney(ctx, "steve", "", decimal.NewFromInt(25))
	suite.Require().NoError(err)

	select {
	case event := <-events:
		suite.Equal(domain.MutationCredit, event.Kind)
		suite.Equal("steve", event.PlayerID)
		suite.True(event.Amount.Equal(decimal.NewFromInt(25)))
		suite.True(event.BalanceAfter.Equal(decimal.NewFromInt(125)))
	case <-time.After(2 * time.Second):
		suite.FailNow("post-mutation event never arrived")
	}
}

func (suite *LedgerServiceTestSuite) TestDegradesToFallbackAndSticks() {
	ctx := context.Background()
	primary := &unavailableStore{LedgerStore: memory.NewMemoryLedgerStore(""), down: true}
	fallback := memory.NewMemoryLedgerStore("")
	service := services.NewLedgerService(primary, suite.currencySvc, suite.exec,
		services.WithFallbackStore(fallback))

	suite.False(service.Degraded())

	// First read trips the degrade and is served by the fallback.
	balance, err := service.GetBalance(ctx, "steve", "")
	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(100)))
	suite.True(service.Degraded())

	// The primary coming back is not enough; the switch stays until told.
	primary.down = false
	_, err = service.AddMoney(ctx, "steve", "", decimal.NewFromInt(10))
	suite.Require().NoError(err)
	suite.True(service.Degraded())

	suite.Require().NoError(service.Reinitialize(ctx))
	suite.False(service.Degraded())
}

func (suite *LedgerServiceTestSuite) TestDegradeWithoutFallbackSurfacesError() {
	primary := &unavailableStore{LedgerStore: memory.NewMemoryLedgerStore(""), down: true}
	service := services.NewLedgerService(primary, suite.currencySvc, suite.exec)

	_, err := service.GetBalance(context.Background(), "steve", "")
	suite.ErrorIs(err, apperrors.ErrBackendUnavailable)
	suite.False(service.Degraded())
}

func (suite *LedgerServiceTestSuite) TestAsyncMutationsResolve() {
	ctx := context.Background()

	after, err := suite.service.AddMoneyAsync(ctx, "steve", "", decimal.NewFromInt(50)).Await(ctx)
	suite.Require().NoError(err)
	suite.True(after.Equal(decimal.NewFromInt(150)))

	_, err = suite.service.RemoveMoneyAsync(ctx, "steve", "", decimal.NewFromInt(999)).Await(ctx)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *LedgerServiceTestSuite) TestAsyncContinuationChaining() {
	ctx := context.Background()
	resolved := make(chan decimal.Decimal, 1)
	failed := make(chan error, 1)

	suite.service.AddMoneyAsync(ctx, "steve", "", decimal.NewFromInt(1)).
		AndThen(func(after decimal.Decimal) { resolved <- after }).
		OnFailure(func(err error) { failed <- err })

	select {
	case after := <-resolved:
		suite.True(after.Equal(decimal.NewFromInt(101)))
	case err := <-failed:
		suite.FailNow("unexpected failure", err.Error())
	case <-time.After(2 * time.Second):
		suite.FailNow("deferred never resolved")
	}
}

func (suite *LedgerServiceTestSuite) TestTopBalances_ResolvesDisplayNames() {
	ctx := context.Background()
	suite.Require().NoError(suite.service.UpsertPlayerName(ctx, "steve", "Steve"))
	suite.Require().NoError(suite.service.CreateAccount(ctx, "steve", ""))
	suite.Require().NoError(suite.service.CreateAccount(ctx, "anon", ""))
	_, err := suite.service.AddMoney(ctx, "steve", "", decimal.NewFromInt(100))
	suite.Require().NoError(err)

	entries, err := suite.service.TopBalances(ctx, "", 10)
	suite.Require().NoError(err)
	suite.Require().Len(entries, 2)
	suite.Equal(1, entries[0].Rank)
	suite.Equal("Steve", entries[0].DisplayName)
	// No directory entry falls back to the player ID.
	suite.Equal("anon", entries[1].DisplayName)
}

func (suite *LedgerServiceTestSuite) TestTotals() {
	ctx := context.Background()
	suite.Require().NoError(suite.service.CreateAccount(ctx, "a", ""))
	suite.Require().NoError(suite.service.CreateAccount(ctx, "b", ""))

	total, err := suite.service.TotalAccounts(ctx, "")
	suite.Require().NoError(err)
	suite.EqualValues(2, total)

	circulating, err := suite.service.TotalCirculating(ctx, "")
	suite.Require().NoError(err)
	suite.True(circulating.Equal(decimal.NewFromInt(200)))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

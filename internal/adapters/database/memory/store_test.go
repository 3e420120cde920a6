package memory_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(playerID string) domain.BalanceKey {
	return domain.BalanceKey{PlayerID: playerID, CurrencyID: "coins"}
}

func TestFindBalance_CreatesWithSeedOnMiss(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()
	seed := decimal.NewFromInt(100)

	balance, err := store.FindBalance(ctx, key("steve"), seed)
	require.NoError(t, err)
	assert.True(t, balance.Equal(seed))

	// Second read must not reseed.
	require.NoError(t, store.SaveBalance(ctx, key("steve"), decimal.NewFromInt(7)))
	balance, err = store.FindBalance(ctx, key("steve"), seed)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(7)))
}

func TestAddBalance_RequiresExistingAccount(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()

	err := store.AddBalance(ctx, key("ghost"), decimal.NewFromInt(5))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveBalance_ConditionalDecrement(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()
	k := key("alex")
	require.NoError(t, store.CreateAccount(ctx, k, decimal.NewFromInt(100)))

	removed, err := store.RemoveBalance(ctx, k, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.True(t, removed)

	// 40 left, a second 60 must fail and leave the balance untouched.
	removed, err = store.RemoveBalance(ctx, k, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.False(t, removed)

	balance, err := store.FindBalance(ctx, k, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(40)))
}

func TestRemoveBalance_ConcurrentExactlyOneWins(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()
	k := key("alex")
	require.NoError(t, store.CreateAccount(ctx, k, decimal.NewFromInt(100)))

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			removed, err := store.RemoveBalance(ctx, k, decimal.NewFromInt(60))
			assert.NoError(t, err)
			results[i] = removed
		}(i)
	}
	wg.Wait()

	assert.NotEqual(t, results[0], results[1], "exactly one decrement must win")
	balance, err := store.FindBalance(ctx, k, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(40)))
}

func TestAddBalance_NoLostUpdatesUnderContention(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()
	k := key("alex")
	require.NoError(t, store.CreateAccount(ctx, k, decimal.Zero))

	const goroutines = 50
	const perGoroutine = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				assert.NoError(t, store.AddBalance(ctx, k, decimal.NewFromInt(1)))
			}
		}()
	}
	wg.Wait()

	balance, err := store.FindBalance(ctx, k, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(goroutines*perGoroutine)),
		"got %s", balance)
}

func TestHasEnough(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()
	k := key("alex")
	require.NoError(t, store.CreateAccount(ctx, k, decimal.NewFromInt(50)))

	enough, err := store.HasEnough(ctx, k, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, enough)

	enough, err = store.HasEnough(ctx, k, decimal.NewFromInt(51))
	require.NoError(t, err)
	assert.False(t, enough)

	// Unknown accounts have nothing.
	enough, err = store.HasEnough(ctx, key("ghost"), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, enough)
}

func TestTopBalances_OrderAndTieBreak(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, key("first"), decimal.NewFromInt(100)))
	require.NoError(t, store.CreateAccount(ctx, key("second"), decimal.NewFromInt(100)))
	require.NoError(t, store.CreateAccount(ctx, key("rich"), decimal.NewFromInt(500)))
	require.NoError(t, store.CreateAccount(ctx, key("poor"), decimal.NewFromInt(1)))
	// A different currency must not leak in.
	other := domain.BalanceKey{PlayerID: "rich", CurrencyID: "gems"}
	require.NoError(t, store.CreateAccount(ctx, other, decimal.NewFromInt(9999)))

	top, err := store.TopBalances(ctx, "coins", 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "rich", top[0].Key.PlayerID)
	// Equal balances rank by creation order.
	assert.Equal(t, "first", top[1].Key.PlayerID)
	assert.Equal(t, "second", top[2].Key.PlayerID)
}

func TestTotals(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, key("a"), decimal.NewFromInt(10)))
	require.NoError(t, store.CreateAccount(ctx, key("b"), decimal.NewFromInt(20)))

	total, err := store.TotalAccounts(ctx, "coins")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	circulating, err := store.TotalCirculating(ctx, "coins")
	require.NoError(t, err)
	assert.True(t, circulating.Equal(decimal.NewFromInt(30)))
}

func TestNameDirectory(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()

	require.NoError(t, store.UpsertName(ctx, "p1", "Steve"))
	require.NoError(t, store.SyncNames(ctx, map[string]string{"p2": "Alex", "p3": "Herobrine"}))

	name, err := store.FindName(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Steve", name)

	_, err = store.FindName(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Unknown IDs are absent, not errors.
	names, err := store.FindNames(ctx, []string{"p2", "p3", "nobody"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p2": "Alex", "p3": "Herobrine"}, names)
}

func TestCurrencyDefinitions(t *testing.T) {
	store := memory.NewMemoryLedgerStore("")
	ctx := context.Background()

	currency := domain.Currency{ID: "gems", Name: "Gems", Enabled: true}
	require.NoError(t, store.SaveCurrency(ctx, currency))

	found, err := store.FindCurrencyByID(ctx, "gems")
	require.NoError(t, err)
	assert.Equal(t, "Gems", found.Name)

	list, err := store.ListCurrencies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, store.DeleteCurrency(ctx, "gems"))
	_, err = store.FindCurrencyByID(ctx, "gems")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, store.DeleteCurrency(ctx, "gems"), apperrors.ErrNotFound)
}

func TestSnapshot_RoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	ctx := context.Background()

	store := memory.NewMemoryLedgerStore(path)
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.CreateAccount(ctx, key("steve"), decimal.NewFromInt(123)))
	require.NoError(t, store.UpsertName(ctx, "steve", "Steve"))
	require.NoError(t, store.SaveCurrency(ctx, domain.Currency{ID: "coins", Name: "Coins", Enabled: true}))
	require.NoError(t, store.Shutdown(ctx))

	reloaded := memory.NewMemoryLedgerStore(path)
	require.NoError(t, reloaded.Initialize(ctx))

	balance, err := reloaded.FindBalance(ctx, key("steve"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(123)))

	name, err := reloaded.FindName(ctx, "steve")
	require.NoError(t, err)
	assert.Equal(t, "Steve", name)

	currency, err := reloaded.FindCurrencyByID(ctx, "coins")
	require.NoError(t, err)
	assert.Equal(t, "Coins", currency.Name)
}

func TestInitialize_MissingSnapshotIsFine(t *testing.T) {
	store := memory.NewMemoryLedgerStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, store.Initialize(context.Background()))
	assert.True(t, store.Available(context.Background()))
}

func TestShutdown_SnapshotTimestampsSurvive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	ctx := context.Background()

	store := memory.NewMemoryLedgerStore(path)
	require.NoError(t, store.CreateAccount(ctx, key("steve"), decimal.NewFromInt(1)))
	before := time.Now().UTC()
	require.NoError(t, store.Shutdown(ctx))

	reloaded := memory.NewMemoryLedgerStore(path)
	require.NoError(t, reloaded.Initialize(ctx))
	top, err := reloaded.TopBalances(ctx, "coins", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.False(t, top[0].LastUpdated.After(before))
}

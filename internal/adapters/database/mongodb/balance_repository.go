package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBalanceRepository stores account balances in the player_balances
// collection. Each mutation is a single server-side operation ($inc, or a
// filtered $inc for the conditional decrement), so atomicity comes from the
// document store itself.
type MongoBalanceRepository struct {
	db *mongo.Database
}

// newMongoBalanceRepository creates a new repository for balance documents.
func newMongoBalanceRepository(db *mongo.Database) *MongoBalanceRepository {
	return &MongoBalanceRepository{db: db}
}

var _ portsrepo.BalanceRepositoryFacade = (*MongoBalanceRepository)(nil)

func keyFilter(key domain.BalanceKey) bson.M {
	return bson.M{"player_id": key.PlayerID, "currency_id": key.CurrencyID}
}

// FindBalance reads the balance, provisioning the document with seed on first
// sight via an upserting FindOneAndUpdate: the read and the create-on-miss are
// one round trip and concurrent first readers all observe the same seed.
func (r *MongoBalanceRepository) FindBalance(ctx context.Context, key domain.BalanceKey, seed decimal.Decimal) (decimal.Decimal, error) {
	seed128, err := toDecimal128(seed)
	if err != nil {
		return decimal.Zero, err
	}
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"balance":    seed128,
		"created_at": now,
		"updated_at": now,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc balanceDoc
	err = r.db.Collection(balancesCollection).
		FindOneAndUpdate(ctx, keyFilter(key), update, opts).
		Decode(&doc)
	if err != nil {
		return decimal.Zero, mapStoreError("find balance", err)
	}
	return fromDecimal128(doc.Balance)
}

// SaveBalance unconditionally overwrites the balance, creating the document
// if the account has never been seen.
func (r *MongoBalanceRepository) SaveBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) error {
	amount128, err := toDecimal128(amount)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{"balance": amount128, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err = r.db.Collection(balancesCollection).
		UpdateOne(ctx, keyFilter(key), update, options.Update().SetUpsert(true))
	if err != nil {
		return mapStoreError("save balance", err)
	}
	return nil
}

// AddBalance increments the balance with a single $inc.
func (r *MongoBalanceRepository) AddBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) error {
	amount128, err := toDecimal128(amount)
	if err != nil {
		return err
	}
	update := bson.M{
		"$inc": bson.M{"balance": amount128},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.db.Collection(balancesCollection).UpdateOne(ctx, keyFilter(key), update)
	if err != nil {
		return mapStoreError("add balance", err)
	}
	if res.MatchedCount == 0 {
		return mapStoreError("add balance", mongo.ErrNoDocuments)
	}
	return nil
}

// RemoveBalance applies the conditional decrement: the balance >= amount
// filter and the negative $inc are one server-side operation, so two racing
// debits can never both spend the same funds.
func (r *MongoBalanceRepository) RemoveBalance(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error) {
	amount128, err := toDecimal128(amount)
	if err != nil {
		return false, err
	}
	neg128, err := toDecimal128(amount.Neg())
	if err != nil {
		return false, err
	}
	filter := bson.M{
		"player_id":   key.PlayerID,
		"currency_id": key.CurrencyID,
		"balance":     bson.M{"$gte": amount128},
	}
	update := bson.M{
		"$inc": bson.M{"balance": neg128},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.db.Collection(balancesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return false, mapStoreError("remove balance", err)
	}
	return res.ModifiedCount == 1, nil
}

// HasEnough reports whether the account holds at least amount.
func (r *MongoBalanceRepository) HasEnough(ctx context.Context, key domain.BalanceKey, amount decimal.Decimal) (bool, error) {
	amount128, err := toDecimal128(amount)
	if err != nil {
		return false, err
	}
	filter := bson.M{
		"player_id":   key.PlayerID,
		"currency_id": key.CurrencyID,
		"balance":     bson.M{"$gte": amount128},
	}
	err = r.db.Collection(balancesCollection).FindOne(ctx, filter).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, mapStoreError("has enough", err)
	}
	return true, nil
}

// CreateAccount provisions the document with seed if absent.
func (r *MongoBalanceRepository) CreateAccount(ctx context.Context, key domain.BalanceKey, seed decimal.Decimal) error {
	seed128, err := toDecimal128(seed)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"balance":    seed128,
		"created_at": now,
		"updated_at": now,
	}}
	_, err = r.db.Collection(balancesCollection).
		UpdateOne(ctx, keyFilter(key), update, options.Update().SetUpsert(true))
	if err != nil {
		return mapStoreError("create account", err)
	}
	return nil
}

// TotalAccounts returns the number of accounts held in the currency.
func (r *MongoBalanceRepository) TotalAccounts(ctx context.Context, currencyID string) (int64, error) {
	total, err := r.db.Collection(balancesCollection).
		CountDocuments(ctx, bson.M{"currency_id": currencyID})
	if err != nil {
		return 0, mapStoreError("total accounts", err)
	}
	return total, nil
}

// TotalCirculating sums all balances in the currency with one aggregation.
func (r *MongoBalanceRepository) TotalCirculating(ctx context.Context, currencyID string) (decimal.Decimal, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"currency_id": currencyID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$balance"}}}},
	}
	cursor, err := r.db.Collection(balancesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return decimal.Zero, mapStoreError("total circulating", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if !cursor.Next(ctx) {
		return decimal.Zero, nil
	}
	if err := cursor.Decode(&result); err != nil {
		return decimal.Zero, mapStoreError("total circulating", err)
	}
	return fromDecimal128(result.Total)
}

// TopBalances returns the n richest accounts, ties broken by creation time so
// the ordering is deterministic for a fixed data snapshot.
func (r *MongoBalanceRepository) TopBalances(ctx context.Context, currencyID string, n int) ([]domain.AccountBalance, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "balance", Value: -1}, {Key: "created_at", Value: 1}}).
		SetLimit(int64(n))
	cursor, err := r.db.Collection(balancesCollection).
		Find(ctx, bson.M{"currency_id": currencyID}, opts)
	if err != nil {
		return nil, mapStoreError("top balances", err)
	}
	defer cursor.Close(ctx)

	var docs []balanceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapStoreError("top balances", err)
	}

	balances := make([]domain.AccountBalance, 0, len(docs))
	for _, doc := range docs {
		balance, err := fromDecimal128(doc.Balance)
		if err != nil {
			return nil, err
		}
		balances = append(balances, domain.AccountBalance{
			Key:         domain.BalanceKey{PlayerID: doc.PlayerID, CurrencyID: doc.CurrencyID},
			Balance:     balance,
			LastUpdated: doc.UpdatedAt,
		})
	}
	return balances, nil
}

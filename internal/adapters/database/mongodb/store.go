package mongodb

import (
	"context"

	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoLedgerStore is the document-store backend: the three repositories over
// one mongo database handle.
type MongoLedgerStore struct {
	*MongoBalanceRepository
	*MongoNameRepository
	*MongoCurrencyRepository
	db *mongo.Database
}

// NewMongoLedgerStore creates the document backend over db.
func NewMongoLedgerStore(db *mongo.Database) *MongoLedgerStore {
	return &MongoLedgerStore{
		MongoBalanceRepository:  newMongoBalanceRepository(db),
		MongoNameRepository:     newMongoNameRepository(db),
		MongoCurrencyRepository: newMongoCurrencyRepository(db),
		db:                      db,
	}
}

var _ portsrepo.LedgerStore = (*MongoLedgerStore)(nil)

// Initialize verifies connectivity and ensures the unique indexes the atomic
// upserts rely on.
func (s *MongoLedgerStore) Initialize(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return mapStoreError("initialize", err)
	}

	balanceIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "player_id", Value: 1}, {Key: "currency_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.db.Collection(balancesCollection).Indexes().CreateOne(ctx, balanceIdx); err != nil {
		return mapStoreError("initialize balance index", err)
	}

	nameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "player_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.db.Collection(namesCollection).Indexes().CreateOne(ctx, nameIdx); err != nil {
		return mapStoreError("initialize name index", err)
	}

	currencyIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "currency_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.db.Collection(currenciesCollection).Indexes().CreateOne(ctx, currencyIdx); err != nil {
		return mapStoreError("initialize currency index", err)
	}
	return nil
}

// Shutdown disconnects the underlying client.
func (s *MongoLedgerStore) Shutdown(ctx context.Context) error {
	if err := s.db.Client().Disconnect(ctx); err != nil {
		return mapStoreError("shutdown", err)
	}
	return nil
}

// Available reports whether the database currently answers a ping.
func (s *MongoLedgerStore) Available(ctx context.Context) bool {
	return s.db.Client().Ping(ctx, readpref.Primary()) == nil
}

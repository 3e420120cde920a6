package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/apperrors"
	portsrepo "github.com/SscSPs/game_currency_ledger/internal/core/ports/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// syncChunkSize bounds a single SyncNames bulk write.
const syncChunkSize = 500

// MongoNameRepository stores the player name directory in the player_names
// collection.
type MongoNameRepository struct {
	db *mongo.Database
}

// newMongoNameRepository creates a new repository for name-directory documents.
func newMongoNameRepository(db *mongo.Database) *MongoNameRepository {
	return &MongoNameRepository{db: db}
}

var _ portsrepo.NameRepository = (*MongoNameRepository)(nil)

// UpsertName inserts or refreshes one directory entry.
func (r *MongoNameRepository) UpsertName(ctx context.Context, playerID, displayName string) error {
	update := bson.M{"$set": bson.M{
		"display_name": displayName,
		"updated_at":   time.Now().UTC(),
	}}
	_, err := r.db.Collection(namesCollection).
		UpdateOne(ctx, bson.M{"player_id": playerID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return mapStoreError("upsert name", err)
	}
	return nil
}

// FindName retrieves the display name for playerID.
func (r *MongoNameRepository) FindName(ctx context.Context, playerID string) (string, error) {
	var doc nameDoc
	err := r.db.Collection(namesCollection).
		FindOne(ctx, bson.M{"player_id": playerID}).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("find name %s: %w", playerID, apperrors.ErrNotFound)
		}
		return "", mapStoreError("find name", err)
	}
	return doc.DisplayName, nil
}

// FindNames retrieves display names for the given player IDs. IDs without a
// directory entry are simply absent from the result.
func (r *MongoNameRepository) FindNames(ctx context.Context, playerIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(playerIDs))
	if len(playerIDs) == 0 {
		return names, nil
	}
	cursor, err := r.db.Collection(namesCollection).
		Find(ctx, bson.M{"player_id": bson.M{"$in": playerIDs}})
	if err != nil {
		return nil, mapStoreError("find names", err)
	}
	defer cursor.Close(ctx)

	var docs []nameDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, mapStoreError("find names", err)
	}
	for _, doc := range docs {
		names[doc.PlayerID] = doc.DisplayName
	}
	return names, nil
}

// SyncNames reconciles the directory using chunked bulk upserts.
func (r *MongoNameRepository) SyncNames(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, syncChunkSize)
	flush := func() error {
		if len(writes) == 0 {
			return nil
		}
		_, err := r.db.Collection(namesCollection).
			BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return mapStoreError("sync names", err)
		}
		writes = writes[:0]
		return nil
	}

	for id, name := range names {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"player_id": id}).
			SetUpdate(bson.M{"$set": bson.M{"display_name": name, "updated_at": now}}).
			SetUpsert(true))
		if len(writes) >= syncChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

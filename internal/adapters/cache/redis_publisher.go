package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/game_currency_ledger/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const (
	snapshotKeyPrefix  = "ledger/leaderboard/"
	snapshotHistoryKey = "ledger/leaderboard_history"
	maxHistorySize     = 50
)

// RedisSnapshotPublisher mirrors each leaderboard snapshot into redis so
// sibling processes (web frontends, bots) can read rankings without touching
// the storage backend.
type RedisSnapshotPublisher struct {
	rdb *redis.Client
}

// NewRedisSnapshotPublisher creates a publisher over rdb.
func NewRedisSnapshotPublisher(rdb *redis.Client) *RedisSnapshotPublisher {
	return &RedisSnapshotPublisher{rdb: rdb}
}

// PublishSnapshot stores the snapshot under a per-currency key and appends it
// to a bounded history list.
func (p *RedisSnapshotPublisher) PublishSnapshot(ctx context.Context, snapshot *domain.LeaderboardSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := p.rdb.Set(ctx, snapshotKeyPrefix+snapshot.CurrencyID, payload, 0).Err(); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	if err := p.rdb.LPush(ctx, snapshotHistoryKey, payload).Err(); err != nil {
		return fmt.Errorf("publish snapshot history: %w", err)
	}
	if err := p.rdb.LTrim(ctx, snapshotHistoryKey, 0, maxHistorySize).Err(); err != nil {
		return fmt.Errorf("trim snapshot history: %w", err)
	}
	return nil
}

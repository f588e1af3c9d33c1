package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sentinel keeps the key alive for guilds whose member list is empty
const sentinel = "-"

// RedisSnapshot stores each guild as a Redis set with a TTL
type RedisSnapshot struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ Snapshot = (*RedisSnapshot)(nil)

// NewRedisSnapshot connects to redisURL and checks the connection
func NewRedisSnapshot(ctx context.Context, redisURL string, ttl time.Duration) (*RedisSnapshot, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisSnapshot{Client: rdb, TTL: ttl}, nil
}

func snapshotKey(guildID string) string {
	return "membership/" + guildID
}

func (s *RedisSnapshot) Lookup(ctx context.Context, guildID, userID string) (Presence, error) {
	key := snapshotKey(guildID)

	pipe := s.Client.Pipeline()
	exists := pipe.Exists(ctx, key)
	member := pipe.SIsMember(ctx, key, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return Unknown, err
	}

	if exists.Val() == 0 {
		return Unknown, nil
	}
	if member.Val() {
		return Present, nil
	}
	return Absent, nil
}

func (s *RedisSnapshot) Add(ctx context.Context, guildID string, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	key := snapshotKey(guildID)

	n, err := s.Client.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return err
	}
	return s.Client.SAdd(ctx, key, toAny(userIDs)...).Err()
}

func (s *RedisSnapshot) Remove(ctx context.Context, guildID, userID string) error {
	return s.Client.SRem(ctx, snapshotKey(guildID), userID).Err()
}

func (s *RedisSnapshot) Replace(ctx context.Context, guildID string, userIDs []string) error {
	key := snapshotKey(guildID)

	// replace the whole set in a single round-trip
	pipe := s.Client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, append([]interface{}{sentinel}, toAny(userIDs)...)...)
	pipe.Expire(ctx, key, s.TTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSnapshot) Size(ctx context.Context, guildID string) (int, error) {
	n, err := s.Client.SCard(ctx, snapshotKey(guildID)).Result()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	return int(n) - 1, nil
}

// Close releases the Redis connection
func (s *RedisSnapshot) Close() error {
	return s.Client.Close()
}

func toAny(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

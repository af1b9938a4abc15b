package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces settings keys in a shared Redis.
const DefaultKeyPrefix = "alexabridge:settings:"

// RedisConfig holds connection options for RedisStore.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// redisClient is the subset of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps each user's settings as one JSON string value.
type RedisStore struct {
	client redisClient
	prefix string
}

// OpenRedis connects to Redis and verifies the connection.
//
// Parameters:
//   - ctx: Context bounding the initial ping
//   - cfg: Connection options
//
// Returns:
//   - *RedisStore: Connected store
//   - error: If Addr is empty or the server does not answer
func OpenRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("settings: redis address is required")
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return newRedisStore(client, cfg.KeyPrefix), nil
}

func newRedisStore(client redisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// HealthCheck pings the server.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

// GetUserSettings implements Store.
func (s *RedisStore) GetUserSettings(ctx context.Context, userID string) (UserSettings, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	us := UserSettings{}
	if err := json.Unmarshal(raw, &us); err != nil {
		return nil, fmt.Errorf("decoding settings for %s: %w", userID, err)
	}
	return us, nil
}

// SaveUserSettings implements Store.
func (s *RedisStore) SaveUserSettings(ctx context.Context, userID string, us UserSettings) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	data, err := json.Marshal(us.Clone())
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// UpdateUserSettings implements Store. The merge is read-modify-write and
// not atomic across bridge instances; last writer wins.
func (s *RedisStore) UpdateUserSettings(ctx context.Context, userID string, patch UserSettings) (UserSettings, error) {
	current, err := s.GetUserSettings(ctx, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	merged := current.Merge(patch)
	if err := s.SaveUserSettings(ctx, userID, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// DeleteUserSettings implements Store.
func (s *RedisStore) DeleteUserSettings(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Trackshelf/config"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps sessions in Redis so they survive restarts and can be
// shared by several server processes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// ConnectRedis opens a client from configuration and verifies it with PING.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wraps an already connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Data, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &data, nil
}

func (s *RedisStore) Set(ctx context.Context, id string, data *Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Check writes, reads back and deletes a probe key.
func (s *RedisStore) Check(ctx context.Context) error {
	probe := &Data{CreatedAt: time.Now().UTC()}
	id := "healthcheck"
	if err := s.Set(ctx, id, probe, time.Minute); err != nil {
		return err
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !got.CreatedAt.Equal(probe.CreatedAt) {
		return fmt.Errorf("unexpected value from Redis: got %v", got.CreatedAt)
	}
	return s.Delete(ctx, id)
}

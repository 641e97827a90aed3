package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"telegram-wager-bot/internal/model"
)

const (
	sessionKeyPattern  = "wager:session:%d:%d"
	sessionScanPattern = "wager:session:*"
	scanBatchCount     = 100
)

// RedisStore persists sessions in Redis as JSON. Expiry is delegated to the
// key TTL, so a stale session simply disappears.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore initializes a Redis-backed Store. A zero ttl keeps sessions forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, key model.AccountKey) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		log.Error().Err(err).Str("key", key.String()).Msg("Failed to get session from redis")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return decodeSession(data)
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s.State == StateIdle {
		return fmt.Errorf("%w: idle sessions are not stored", ErrInvalidTransition)
	}

	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(s.Key()), data, r.ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", s.Key().String()).Msg("Failed to save session in redis")
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Take implements Store using GETDEL, so two concurrent takers never both
// receive the same session.
func (r *RedisStore) Take(ctx context.Context, key model.AccountKey) (*Session, error) {
	data, err := r.client.GetDel(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		log.Error().Err(err).Str("key", key.String()).Msg("Failed to take session from redis")
		return nil, fmt.Errorf("failed to take session: %w", err)
	}

	return decodeSession(data)
}

// All implements Store by scanning the session keyspace.
func (r *RedisStore) All(ctx context.Context) ([]*Session, error) {
	var (
		cursor uint64
		result []*Session
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, sessionScanPattern, scanBatchCount).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan sessions: %w", err)
		}

		for _, k := range keys {
			data, err := r.client.Get(ctx, k).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, fmt.Errorf("failed to fetch session %s: %w", k, err)
			}

			s, err := decodeSession(data)
			if err != nil {
				log.Warn().Err(err).Str("key", k).Msg("Skipping undecodable session")
				continue
			}
			result = append(result, s)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func decodeSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func sessionKey(key model.AccountKey) string {
	return fmt.Sprintf(sessionKeyPattern, key.ChatID, key.UserID)
}

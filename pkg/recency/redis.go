// Package recency tracks the last inbound message per subject, backing the
// has_replied branch condition.
package recency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/journeyhq/journey/pkg/protocol"
)

const keyPrefix = "journey:last_reply:"

// Keys expire after this long; any window a branch can ask for is shorter.
const retention = 90 * 24 * time.Hour

// RedisStore implements protocol.Recency on Redis. One key per subject
// holding the RFC 3339 timestamp of their latest inbound message.
type RedisStore struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisStore creates a recency store from a Redis URL.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisStore{
		client: redis.NewClient(opts),
		logger: logger.With("module", "recency"),
	}, nil
}

// Touch records an inbound message from the subject at the given time.
// Later touches win; an out-of-order older timestamp is ignored.
func (s *RedisStore) Touch(ctx context.Context, subjectID string, at time.Time) error {
	key := keyPrefix + subjectID

	current, err := s.lastReply(ctx, subjectID)
	if err == nil && current != nil && current.After(at) {
		return nil
	}

	err = s.client.Set(ctx, key, at.UTC().Format(time.RFC3339Nano), retention).Err()
	if err != nil {
		return fmt.Errorf("failed to record reply for subject %s: %w", subjectID, err)
	}

	return nil
}

// HasRecentReply reports whether the subject replied inside the trailing window.
func (s *RedisStore) HasRecentReply(ctx context.Context, subjectID string, window time.Duration) (bool, error) {
	last, err := s.lastReply(ctx, subjectID)
	if err != nil {
		return false, err
	}

	if last == nil {
		return false, nil
	}

	return time.Since(*last) <= window, nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) lastReply(ctx context.Context, subjectID string) (*time.Time, error) {
	value, err := s.client.Get(ctx, keyPrefix+subjectID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read reply recency for subject %s: %w", subjectID, err)
	}

	last, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("corrupt recency value for subject %s: %w", subjectID, err)
	}

	return &last, nil
}

var _ protocol.Recency = (*RedisStore)(nil)

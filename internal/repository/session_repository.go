package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "sessions:"

// SessionRepository tracks live provider sessions in Redis, keyed by subject
// id. Deleting a session revokes the corresponding access token.
type SessionRepository interface {
	Save(ctx context.Context, subjectID, token string, ttl time.Duration) error
	Get(ctx context.Context, subjectID string) (string, error)
	Delete(ctx context.Context, subjectID string) error
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository returns a Redis-backed implementation.
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func (r *sessionRepository) Save(ctx context.Context, subjectID, token string, ttl time.Duration) error {
	return r.client.Set(ctx, sessionKeyPrefix+subjectID, token, ttl).Err()
}

func (r *sessionRepository) Get(ctx context.Context, subjectID string) (string, error) {
	val, err := r.client.Get(ctx, sessionKeyPrefix+subjectID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

func (r *sessionRepository) Delete(ctx context.Context, subjectID string) error {
	return r.client.Del(ctx, sessionKeyPrefix+subjectID).Err()
}

package noncestore

import (
	"context"
	"time"

	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the one-time-use registry for static (Mode A) credential
// nonces. Rotating tokens need no registry; their validity is bound to the
// time window instead.
type Store interface {
	// Register returns true the first time a (ticket, nonce) pair is seen
	// and false on every replay. The entry outlives the token's validity so
	// a replay close to expiry still loses.
	Register(ctx context.Context, ticketID uuid.UUID, nonce string, ttl time.Duration) (bool, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Register(ctx context.Context, ticketID uuid.UUID, nonce string, ttl time.Duration) (bool, error) {
	key := "credential:nonce:" + ticketID.String() + ":" + nonce
	ok, err := s.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, errs.Wrap(err, "failed to register credential nonce")
	}
	return ok, nil
}

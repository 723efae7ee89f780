package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidState means the state was never issued, already used or expired.
var ErrInvalidState = errors.New("invalid oauth state")

const (
	DefaultStateTTL = 10 * time.Minute
	statePrefix     = "oauth:state:"
)

// StateStore keeps single-use OAuth state values in Redis.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{client: client, ttl: ttl}
}

// Issue generates and stores a fresh state value.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	ok, err := s.client.SetNX(ctx, statePrefix+state, 1, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("store state: collision")
	}
	return state, nil
}

// Consume deletes state, failing with ErrInvalidState if it was not live.
func (s *StateStore) Consume(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	err := s.client.GetDel(ctx, statePrefix+state).Err()
	if err == redis.Nil {
		return ErrInvalidState
	}
	if err != nil {
		return fmt.Errorf("consume state: %w", err)
	}
	return nil
}

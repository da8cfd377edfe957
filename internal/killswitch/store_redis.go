package killswitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

const stateKey = "simply:killswitch:state"

// RedisStore keeps the state document as one JSON value. CompareAndSwap
// runs under WATCH so a concurrent write aborts the transaction instead of
// clobbering it.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context) (*State, error) {
	raw, err := s.client.Get(ctx, stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load kill-switch state: %w", err)
	}
	return decodeState(raw)
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, expected int64, next *State) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal kill-switch state: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current := int64(0)
		raw, err := tx.Get(ctx, stateKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// first write
		case err != nil:
			return fmt.Errorf("load kill-switch state: %w", err)
		default:
			state, err := decodeState(raw)
			if err != nil {
				return err
			}
			current = state.Version
		}
		if current != expected {
			return sentinel.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, stateKey, payload, 0)
			return nil
		})
		return err
	}, stateKey)

	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrConflict
	}
	return err
}

func decodeState(raw []byte) (*State, error) {
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode kill-switch state: %w", err)
	}
	return &state, nil
}

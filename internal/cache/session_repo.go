package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrVersionConflict = errors.New("session was modified by another writer")
)

// SessionRepo stores encoded game sessions in Redis hashes with an optimistic
// version check, so only one writer can advance a given version.
type SessionRepo struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewSessionRepo(rdb *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, ttl: ttl, prefix: "uno:session:"}
}

func (r *SessionRepo) key(id uuid.UUID) string {
	return r.prefix + id.String()
}

// Save writes data as version, provided the stored version is still prevVersion
// (0 for a session that does not exist yet).
func (r *SessionRepo) Save(ctx context.Context, id uuid.UUID, prevVersion, version int64, data []byte) error {
	key := r.key(id)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, key, "version").Int64()
		if errors.Is(err, redis.Nil) {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != prevVersion {
			return fmt.Errorf("%w: stored version %d, expected %d", ErrVersionConflict, cur, prevVersion)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "version", version, "state", data)
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		return err
	}

	err := r.rdb.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: key changed during save", ErrVersionConflict)
	}
	return err
}

// Load returns the stored encoding of a session and its version.
func (r *SessionRepo) Load(ctx context.Context, id uuid.UUID) ([]byte, int64, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("load session %s: %w", id, err)
	}
	state, ok := vals["state"]
	if !ok {
		return nil, 0, ErrSessionNotFound
	}
	var version int64
	if _, err := fmt.Sscan(vals["version"], &version); err != nil {
		return nil, 0, fmt.Errorf("session %s has a bad version %q: %w", id, vals["version"], err)
	}
	return []byte(state), version, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}

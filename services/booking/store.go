package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jeffjackson/models"

	"github.com/go-redis/redis/v8"
)

const (
	sessionPrefix = "booking:session:"
	busyPrefix    = "booking:busy:"
	navPrefix     = "booking:nav:"
)

// releaseBusy deletes the busy lock only if it still belongs to the caller.
var releaseBusy = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSessionStore keeps wizard snapshots, the busy lock and the one-shot
// navigation state in Redis.
type RedisSessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	navTTL  time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl, lockTTL time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &RedisSessionStore{client: client, ttl: ttl, lockTTL: lockTTL, navTTL: 10 * time.Minute}
}

// LockTTL is how long a pay attempt may hold the busy lock.
func (s *RedisSessionStore) LockTTL() time.Duration { return s.lockTTL }

// Load fetches a snapshot; a missing or expired session is ErrSessionNotFound.
func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (models.WizardSnapshot, error) {
	data, err := s.client.Get(ctx, sessionPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return models.WizardSnapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return models.WizardSnapshot{}, fmt.Errorf("failed to load booking session: %w", err)
	}
	var snap models.WizardSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.WizardSnapshot{}, NewContractError("stored booking session is unreadable", err)
	}
	return snap, nil
}

// Save writes a snapshot and slides its TTL.
func (s *RedisSessionStore) Save(ctx context.Context, snap models.WizardSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}
	if err := s.client.Set(ctx, sessionPrefix+snap.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store booking session: %w", err)
	}
	return nil
}

// SaveUnlocked writes a snapshot only while no pay attempt holds the busy
// lock. A lock taken between the check and the write aborts the write with
// ErrBusy.
func (s *RedisSessionStore) SaveUnlocked(ctx context.Context, snap models.WizardSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}
	busyKey := busyPrefix + snap.SessionID
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, busyKey).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBusy
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionPrefix+snap.SessionID, data, s.ttl)
			return nil
		})
		return err
	}, busyKey)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBusy), errors.Is(err, redis.TxFailedErr):
		return ErrBusy
	default:
		return fmt.Errorf("failed to store booking session: %w", err)
	}
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionPrefix+sessionID, navPrefix+sessionID).Err()
}

// AcquireBusy takes the per-session busy lock. It returns false when
// another pay attempt already holds it.
func (s *RedisSessionStore) AcquireBusy(ctx context.Context, sessionID, owner string) (bool, error) {
	ok, err := s.client.SetNX(ctx, busyPrefix+sessionID, owner, s.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire busy lock: %w", err)
	}
	return ok, nil
}

func (s *RedisSessionStore) ReleaseBusy(ctx context.Context, sessionID, owner string) error {
	return releaseBusy.Run(ctx, s.client, []string{busyPrefix + sessionID}, owner).Err()
}

// BusyHeld reports whether any pay attempt currently holds the lock.
func (s *RedisSessionStore) BusyHeld(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, busyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PutNavigation stores the created record for the confirmation view.
func (s *RedisSessionStore) PutNavigation(ctx context.Context, sessionID string, rec models.BookingRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, navPrefix+sessionID, data, s.navTTL).Err()
}

// PopNavigation returns the stored record once; later calls find nothing.
func (s *RedisSessionStore) PopNavigation(ctx context.Context, sessionID string) (models.BookingRecord, bool, error) {
	data, err := s.client.GetDel(ctx, navPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return models.BookingRecord{}, false, nil
	}
	if err != nil {
		return models.BookingRecord{}, false, err
	}
	var rec models.BookingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.BookingRecord{}, false, err
	}
	return rec, true, nil
}

// Package cache holds the Redis-backed snapshot of the last-known-good CMS
// payload. The directory has no database of its own; the snapshot only exists
// so a restart behind an unreachable CMS can serve stale data instead of an
// empty list.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bie-paris/delegate-directory/internal/joomla"
)

const snapshotKey = "delegates:snapshot:v1"

// SnapshotStore persists the raw delegate payload in Redis.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// snapshotPayload is the JSON structure stored under the snapshot key.
type snapshotPayload struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Delegates   []joomla.RawDelegate `json:"delegates"`
}

// NewSnapshotStore creates a snapshot store on an existing Redis client.
// A zero ttl keeps snapshots forever.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Save stores the raw payload with a generation timestamp.
func (s *SnapshotStore) Save(ctx context.Context, raws []joomla.RawDelegate) error {
	payload := snapshotPayload{
		GeneratedAt: time.Now().UTC(),
		Delegates:   raws,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling delegate snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing delegate snapshot: %w", err)
	}
	return nil
}

// Load retrieves the stored payload and its generation time. A missing key is
// not an error: it returns nil data and a zero time.
func (s *SnapshotStore) Load(ctx context.Context) ([]joomla.RawDelegate, time.Time, error) {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading delegate snapshot: %w", err)
	}

	var payload snapshotPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing delegate snapshot: %w", err)
	}
	return payload.Delegates, payload.GeneratedAt, nil
}

// Ping verifies the Redis connection, for startup checks.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

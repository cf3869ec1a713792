// Package snapshot persists the client state that survives restarts: the
// bearer token, the signed in user and the last rendered feed.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"safespace/internal/core"
	"safespace/pkg/spaceapi"
)

const (
	tokenKey = "token"
	userKey  = "user"
	feedKey  = "feed"
)

// Store keeps snapshots in a core.KeyValue backend. Feed snapshots older than
// the TTL read as absent even when the backend cannot expire keys itself. The
// user snapshot lives as long as the token it belongs to.
type Store struct {
	Logger *slog.Logger

	kv  core.KeyValue
	ttl time.Duration
	now func() time.Time
}

var (
	_ spaceapi.TokenStore = (*Store)(nil)
	_ core.FeedSnapshots  = (*Store)(nil)
)

func NewStore(logger *slog.Logger, kv core.KeyValue, ttl time.Duration) *Store {
	return &Store{
		Logger: logger.With("component", "snapshot.Store"),
		kv:     kv,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the clock used to age snapshots.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) LoadToken(ctx context.Context) (string, error) {
	value, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("cannot load token: %w", err)
	}
	return string(value), nil
}

func (s *Store) SaveToken(ctx context.Context, token string) error {
	if err := s.kv.Put(ctx, tokenKey, []byte(token), 0); err != nil {
		return fmt.Errorf("cannot save token: %w", err)
	}
	return nil
}

// ClearToken drops the token together with the user snapshot that belongs
// to it.
func (s *Store) ClearToken(ctx context.Context) error {
	for _, key := range []string{tokenKey, userKey} {
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, core.ErrKeyNotFound) {
			return fmt.Errorf("cannot delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) LoadUser(ctx context.Context) (spaceapi.User, bool, error) {
	var snapshot core.UserSnapshot
	ok, err := s.load(ctx, userKey, &snapshot, 0, func() time.Time { return snapshot.SavedAt })
	return snapshot.User, ok, err
}

func (s *Store) SaveUser(ctx context.Context, user spaceapi.User) error {
	return s.save(ctx, userKey, core.UserSnapshot{User: user, SavedAt: s.now()}, 0)
}

func (s *Store) LoadFeed(ctx context.Context) (core.FeedSnapshot, bool, error) {
	var snapshot core.FeedSnapshot
	ok, err := s.load(ctx, feedKey, &snapshot, s.ttl, func() time.Time { return snapshot.SavedAt })
	return snapshot, ok, err
}

func (s *Store) SaveFeed(ctx context.Context, snapshot core.FeedSnapshot) error {
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = s.now()
	}
	return s.save(ctx, feedKey, snapshot, s.ttl)
}

func (s *Store) load(ctx context.Context, key string, into any, ttl time.Duration, savedAt func() time.Time) (bool, error) {
	value, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("cannot load %s snapshot: %w", key, err)
	}

	if err := json.Unmarshal(value, into); err != nil {
		s.Logger.Warn("dropping unreadable snapshot", "key", key, "error", err)
		return false, nil
	}

	if ttl > 0 && s.now().Sub(savedAt()) >= ttl {
		s.Logger.Debug("snapshot expired", "key", key, "saved_at", savedAt())
		return false, nil
	}

	return true, nil
}

func (s *Store) save(ctx context.Context, key string, value any, ttl time.Duration) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := s.kv.Put(ctx, key, bytes, ttl); err != nil {
		return fmt.Errorf("cannot save %s snapshot: %w", key, err)
	}
	return nil
}

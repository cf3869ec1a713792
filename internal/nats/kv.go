package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"safespace/internal/core"
)

// KV adapts a JetStream key-value bucket to core.KeyValue. The bucket keeps
// keys forever, so ttl is ignored and callers age their values themselves.
type KV struct {
	kv jetstream.KeyValue
}

var _ core.KeyValue = (*KV)(nil)

func NewKV(kv jetstream.KeyValue) *KV {
	return &KV{kv: kv}
}

func (c *KV) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, core.ErrKeyNotFound
		}
		return nil, err
	}

	return entry.Value(), nil
}

func (c *KV) Put(ctx context.Context, key string, value []byte, _ time.Duration) error {
	_, err := c.kv.Put(ctx, key, value)
	if err != nil {
		return fmt.Errorf("failed to store key %s: %w", key, err)
	}
	return nil
}

func (c *KV) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

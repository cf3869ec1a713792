package config

import "time"

type Config struct {
	APIURL   string `flag:"api-url"`
	LogLevel string `flag:"log-level"`
	Format   string `flag:"format"`

	PageSize       int           `flag:"page-size"`
	FeedTTL        time.Duration `flag:"feed-ttl"`
	AggregateTTL   time.Duration `flag:"aggregate-ttl"`
	RequestTimeout time.Duration `flag:"request-timeout"`
	FastTimeout    time.Duration `flag:"fast-timeout"`

	DedupWindow     time.Duration `flag:"dedup-window"`
	ErrorClearDelay time.Duration `flag:"error-clear-delay"`
	AnimationDelay  time.Duration `flag:"animation-delay"`

	StateBackend string        `flag:"state-backend"`
	StatePath    string        `flag:"state-path"`
	SnapshotTTL  time.Duration `flag:"snapshot-ttl"`
	NATSURL      string        `flag:"nats-url"`
	NATSInit     bool          `flag:"nats-init"`
	RedisURL     string        `flag:"redis-url"`

	MetricsAddr string `flag:"metrics-addr"`
}

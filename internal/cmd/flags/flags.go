package flags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
)

const envPrefix = "SAFESPACE_"

var (
	validLogLevels    = []string{"debug", "info", "warn", "error"}
	validFormats      = []string{"text", "pretty"}
	validStateBackend = []string{"file", "nats", "redis"}

	errMustBePositive = errors.New("must be positive")
)

func env(name string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + name)
}

func oneOf(name string, valid []string) func(string) error {
	return func(value string) error {
		if !slices.Contains(valid, value) {
			return fmt.Errorf("invalid %s: %s, allowed values are: %s", name, value, valid)
		}
		return nil
	}
}

func positive[T int | time.Duration](value T) error {
	if value <= 0 {
		return errMustBePositive
	}
	return nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "safespace", "state.json")
}

var APIURL = &cli.StringFlag{
	Name:    "api-url",
	Aliases: []string{"u"},
	Usage:   "The base URL of the SafeSpace API",
	Value:   "http://localhost:5000/api",
	Sources: env("API_URL"),
}

var LogLevel = &cli.StringFlag{
	Name:      "log-level",
	Aliases:   []string{"l"},
	Usage:     "The level of the logs",
	Value:     "info",
	Validator: oneOf("log level", validLogLevels),
	Sources:   env("LOG_LEVEL"),
}

var Format = &cli.StringFlag{
	Name:      "format",
	Aliases:   []string{"f"},
	Usage:     "Output format: text or pretty",
	Value:     "text",
	Validator: oneOf("format", validFormats),
	Sources:   env("FORMAT"),
}

var PageSize = &cli.IntFlag{
	Name:      "page-size",
	Usage:     "Posts per feed page",
	Value:     10,
	Validator: positive[int],
	Sources:   env("PAGE_SIZE"),
}

var FeedTTL = &cli.DurationFlag{
	Name:    "feed-ttl",
	Usage:   "How long feed pages and posts are cached",
	Value:   60 * time.Second,
	Sources: env("FEED_TTL"),
}

var AggregateTTL = &cli.DurationFlag{
	Name:    "aggregate-ttl",
	Usage:   "How long the profile and notifications are cached",
	Value:   120 * time.Second,
	Sources: env("AGGREGATE_TTL"),
}

var RequestTimeout = &cli.DurationFlag{
	Name:      "request-timeout",
	Usage:     "Budget of feed requests",
	Value:     30 * time.Second,
	Validator: positive[time.Duration],
	Sources:   env("REQUEST_TIMEOUT"),
}

var FastTimeout = &cli.DurationFlag{
	Name:      "fast-timeout",
	Usage:     "Budget of profile and unread count requests",
	Value:     3 * time.Second,
	Validator: positive[time.Duration],
	Sources:   env("FAST_TIMEOUT"),
}

var DedupWindow = &cli.DurationFlag{
	Name:    "dedup-window",
	Usage:   "How long an identical submission is suppressed after it completes",
	Value:   time.Second,
	Sources: env("DEDUP_WINDOW"),
}

var ErrorClearDelay = &cli.DurationFlag{
	Name:    "error-clear-delay",
	Usage:   "How long transient errors stay visible",
	Value:   5 * time.Second,
	Sources: env("ERROR_CLEAR_DELAY"),
}

var AnimationDelay = &cli.DurationFlag{
	Name:    "animation-delay",
	Usage:   "How long the bookmark highlight lasts",
	Value:   600 * time.Millisecond,
	Sources: env("ANIMATION_DELAY"),
}

var StateBackend = &cli.StringFlag{
	Name:      "state-backend",
	Usage:     "Where the token and snapshots are kept: file, nats or redis",
	Value:     "file",
	Validator: oneOf("state backend", validStateBackend),
	Sources:   env("STATE_BACKEND"),
}

var StatePath = &cli.StringFlag{
	Name:    "state-path",
	Usage:   "The state file of the file backend",
	Value:   defaultStatePath(),
	Sources: env("STATE_PATH"),
}

var SnapshotTTL = &cli.DurationFlag{
	Name:    "snapshot-ttl",
	Usage:   "How long the persisted feed and profile snapshots are used",
	Value:   120 * time.Second,
	Sources: env("SNAPSHOT_TTL"),
}

var NATSURL = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: env("NATS_URL"),
}

var InitNATS = &cli.BoolFlag{
	Name:        "nats-init",
	Aliases:     []string{"i"},
	Usage:       "Initialize the NATS server: create the state bucket",
	DefaultText: "false",
	Value:       false,
	Sources:     env("NATS_INIT"),
}

var RedisURL = &cli.StringFlag{
	Name:    "redis-url",
	Usage:   "The URL of the Redis server",
	Value:   "redis://localhost:6379/0",
	Sources: env("REDIS_URL"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "Serve /metrics and /health on this address while watching, empty to disable",
	Value:   "",
	Sources: env("METRICS_ADDR"),
}

var Anonymous = &cli.BoolFlag{
	Name:    "anonymous",
	Aliases: []string{"a"},
	Usage:   "Post without showing your name",
}

var Pages = &cli.IntFlag{
	Name:      "pages",
	Aliases:   []string{"p"},
	Usage:     "How many feed pages to load",
	Value:     1,
	Validator: positive[int],
}

var Tab = &cli.StringFlag{
	Name:      "tab",
	Aliases:   []string{"t"},
	Usage:     "The feed tab: home or saved",
	Value:     "home",
	Validator: oneOf("tab", []string{"home", "saved"}),
}

var Interval = &cli.DurationFlag{
	Name:      "interval",
	Usage:     "How often the unread count is polled",
	Value:     30 * time.Second,
	Validator: positive[time.Duration],
}

// Global are the flags every command accepts.
var Global = []cli.Flag{
	APIURL,
	LogLevel,
	Format,
	PageSize,
	FeedTTL,
	AggregateTTL,
	RequestTimeout,
	FastTimeout,
	DedupWindow,
	ErrorClearDelay,
	AnimationDelay,
	StateBackend,
	StatePath,
	SnapshotTTL,
	NATSURL,
	InitNATS,
	RedisURL,
	MetricsAddr,
}

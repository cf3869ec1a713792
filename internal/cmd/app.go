package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"resty.dev/v3"

	"safespace/internal/config"
	"safespace/internal/core"
	"safespace/internal/feed"
	"safespace/internal/metrics"
	"safespace/internal/nats"
	"safespace/internal/presenter"
	"safespace/internal/snapshot"
	"safespace/pkg/spaceapi"
)

var ErrUnknownStateBackend = errors.New("unknown state backend")

type initer interface {
	Init(ctx context.Context) error
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// app wires the components of one command run. Components are initialized in
// the order they are added and shut down in reverse.
type app struct {
	Logger *slog.Logger
	Config *config.Config

	store     *snapshot.Store
	client    *spaceapi.Client
	model     *feed.Model
	presenter *presenter.Presenter
	navigator *terminalNavigator
	renderer  *renderer

	health    []metrics.HealthChecker
	shutdowns []shutdowner
}

func newApp(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*app, error) {
	a := &app{
		Logger: logger,
		Config: cfg,
	}

	kv, err := a.stateBackend(ctx)
	if err != nil {
		a.shutdown(ctx)
		return nil, err
	}
	a.store = snapshot.NewStore(logger, kv, cfg.SnapshotTTL)

	auth := spaceapi.NewAuthContext(a.store)
	if err := auth.Load(ctx); err != nil {
		a.shutdown(ctx)
		return nil, fmt.Errorf("cannot load session: %w", err)
	}

	a.client = spaceapi.NewClient(&spaceapi.ClientConfig{
		BaseURL:           cfg.APIURL,
		Auth:              auth,
		Timeout:           cfg.RequestTimeout,
		FastTimeout:       cfg.FastTimeout,
		TransportSettings: spaceapi.DefaultConfig.TransportSettings,
		ResponseMiddlewares: []resty.ResponseMiddleware{
			metrics.LatencyMiddleware,
			spaceapi.LogResponses(logger),
		},
	})
	a.shutdowns = append(a.shutdowns, closer(a.client.Close))

	a.model = feed.New(logger, a.client, feed.Config{
		FeedTTL:      cfg.FeedTTL,
		AggregateTTL: cfg.AggregateTTL,
	})

	a.navigator = &terminalNavigator{w: os.Stderr}
	a.renderer = newRenderer(os.Stdout, cfg.Format)

	a.presenter = presenter.New(presenter.Options{
		Logger:          logger,
		Feed:            a.model,
		Navigator:       a.navigator,
		Snapshots:       a.store,
		PageSize:        cfg.PageSize,
		StaleAfter:      cfg.FeedTTL,
		ErrorClearDelay: cfg.ErrorClearDelay,
		AnimationDelay:  cfg.AnimationDelay,
		DedupWindow:     cfg.DedupWindow,
	})
	a.shutdowns = append(a.shutdowns, closer(func() error {
		a.presenter.Close()
		return nil
	}))

	return a, nil
}

func (a *app) stateBackend(ctx context.Context) (core.KeyValue, error) {
	switch a.Config.StateBackend {
	case "file":
		return snapshot.NewFileKV(a.Config.StatePath)

	case "nats":
		n := &nats.NATS{Logger: a.Logger, Config: a.Config}
		if err := a.init(ctx, n); err != nil {
			return nil, fmt.Errorf("cannot connect to NATS: %w", err)
		}
		a.health = append(a.health, n)
		return nats.NewKV(n.KV), nil

	case "redis":
		kv, err := snapshot.NewRedisKV(ctx, a.Config.RedisURL, "")
		if err != nil {
			return nil, fmt.Errorf("cannot connect to Redis: %w", err)
		}
		a.shutdowns = append(a.shutdowns, closer(kv.Close))
		return kv, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownStateBackend, a.Config.StateBackend)
}

// init initializes a component and registers its shutdown.
func (a *app) init(ctx context.Context, component any) error {
	if i, ok := component.(initer); ok {
		if err := i.Init(ctx); err != nil {
			return err
		}
	}
	if s, ok := component.(shutdowner); ok {
		a.shutdowns = append(a.shutdowns, s)
	}
	return nil
}

func (a *app) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i].Shutdown(ctx); err != nil {
			a.Logger.Warn("shutdown failed", "error", err)
		}
	}
	a.shutdowns = nil
}

// signedIn fails when the presenter asked the user to sign in.
func (a *app) signedIn() error {
	if a.navigator.Asked() {
		return ErrSignInRequired
	}
	return nil
}

type closer func() error

func (c closer) Shutdown(context.Context) error {
	return c()
}

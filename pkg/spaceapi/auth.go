package spaceapi

import (
	"context"
	"sync"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// AuthContext holds the bearer token the client attaches to authenticated
// calls. It is created once and handed to the client and the feed model.
type AuthContext struct {
	store TokenStore

	mu    sync.RWMutex
	token string
}

func NewAuthContext(store TokenStore) *AuthContext {
	return &AuthContext{store: store}
}

// Load reads the persisted token, if any.
func (a *AuthContext) Load(ctx context.Context) error {
	if a.store == nil {
		return nil
	}

	token, err := a.store.LoadToken(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	return nil
}

func (a *AuthContext) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *AuthContext) IsAuthenticated() bool {
	return a.Token() != ""
}

func (a *AuthContext) SetToken(ctx context.Context, token string) error {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	return a.store.SaveToken(ctx, token)
}

// Invalidate drops the token in memory and in the store.
func (a *AuthContext) Invalidate(ctx context.Context) error {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	return a.store.ClearToken(ctx)
}

package core

import (
	"context"
	"errors"
	"time"

	"safespace/pkg/spaceapi"
)

var ErrKeyNotFound = errors.New("key not found")

// Feed is the data model the presenter drives. Every error it returns is
// classified by spaceapi.
type Feed interface {
	IsAuthenticated() bool

	ListPosts(ctx context.Context, page, size int) ([]spaceapi.Post, error)
	HasMorePosts(ctx context.Context, page, size int) bool
	GetPost(ctx context.Context, id string) (spaceapi.Post, error)
	CachedPost(id string) (spaceapi.Post, bool)
	Refresh()

	CreatePost(ctx context.Context, content string, anonymous bool) (spaceapi.Post, error)
	UpdatePost(ctx context.Context, id, content string) (spaceapi.Post, error)
	DeletePost(ctx context.Context, id string) error
	LikePost(ctx context.Context, id string) (spaceapi.LikeResult, error)
	AddComment(ctx context.Context, postID, content string) ([]spaceapi.Comment, error)
	ToggleBookmark(ctx context.Context, id string) ([]string, error)

	Me(ctx context.Context) (spaceapi.User, error)
	UnreadCount(ctx context.Context) (int, error)
	Notifications(ctx context.Context) ([]spaceapi.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Navigator performs the view transitions the presenter cannot express as
// state.
type Navigator interface {
	SignIn()
}

// KeyValue is a byte store with per key expiry. A zero ttl means no expiry.
// Get returns ErrKeyNotFound for absent or expired keys.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// FeedSnapshots keeps the last rendered feed to paint the next start
// instantly.
type FeedSnapshots interface {
	LoadFeed(ctx context.Context) (FeedSnapshot, bool, error)
	SaveFeed(ctx context.Context, snapshot FeedSnapshot) error
}

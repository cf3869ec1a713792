package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"safespace/internal/metrics"
	"safespace/pkg/spaceapi"
	"safespace/pkg/ttlcache"
)

const (
	postsFamily         = "posts:"
	notificationsFamily = "notifications:"
	meKey               = "me"
	notificationsKey    = "notifications:list"
)

func listKey(page, size int) string {
	return fmt.Sprintf("posts:list:%d:%d", page, size)
}

func paginationKey(page, size int) string {
	return fmt.Sprintf("posts:pagination:%d:%d", page, size)
}

func postKey(id string) string {
	return "post:" + id
}

type Config struct {
	FeedTTL      time.Duration
	AggregateTTL time.Duration
}

// Model is the feed data model: typed operations over the SafeSpace API
// behind a read-through cache.
type Model struct {
	Logger *slog.Logger

	client *spaceapi.Client
	auth   *spaceapi.AuthContext

	feed       *ttlcache.Cache[any]
	aggregates *ttlcache.Cache[any]
}

func New(logger *slog.Logger, client *spaceapi.Client, config Config, opts ...ttlcache.Option) *Model {
	return &Model{
		Logger:     logger.With("component", "feed.Model"),
		client:     client,
		auth:       client.Auth(),
		feed:       ttlcache.New[any](config.FeedTTL, opts...),
		aggregates: ttlcache.New[any](config.AggregateTTL, opts...),
	}
}

func (m *Model) IsAuthenticated() bool {
	return m.auth.IsAuthenticated()
}

func lookup[T any](c *ttlcache.Cache[any], family, key string) (T, bool) {
	v, ok := c.Get(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues(family, "miss").Inc()
		var zero T
		return zero, false
	}

	metrics.CacheLookups.WithLabelValues(family, "hit").Inc()
	return v.(T), true
}

func clonePosts(posts []spaceapi.Post) []spaceapi.Post {
	return lo.Map(posts, func(p spaceapi.Post, _ int) spaceapi.Post {
		return p.Clone()
	})
}

// withFallback runs call against the authenticated endpoint variant when
// there is a token, and against the public one when there is none or the
// server rejected it with 401.
func withFallback[T any](m *Model, call func(spaceapi.Visibility) (T, error)) (T, error) {
	if !m.auth.IsAuthenticated() {
		return call(spaceapi.Public)
	}

	res, err := call(spaceapi.Authenticated)
	if err == nil {
		return res, nil
	}

	var apiErr *spaceapi.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		m.Logger.Warn("token rejected, falling back to the public feed")
		return call(spaceapi.Public)
	}

	return res, err
}

// ListPosts returns one page of the feed. When the backend is unreachable
// the first page degrades to placeholder posts.
func (m *Model) ListPosts(ctx context.Context, page, size int) ([]spaceapi.Post, error) {
	if posts, ok := lookup[[]spaceapi.Post](m.feed, "posts", listKey(page, size)); ok {
		return clonePosts(posts), nil
	}

	res, err := withFallback(m, func(v spaceapi.Visibility) (spaceapi.PostPage, error) {
		return m.client.ListPosts(ctx, page, size, v)
	})
	if err != nil {
		if page == 1 && errors.Is(err, spaceapi.ErrNetwork) {
			m.Logger.Warn("feed unreachable, serving placeholders", "error", err)
			metrics.PlaceholderFeeds.Inc()
			return placeholders(), nil
		}
		return nil, err
	}

	m.feed.Set(listKey(page, size), clonePosts(res.Posts))
	if res.Pagination != nil {
		m.feed.Set(paginationKey(page, size), *res.Pagination)
	}
	for _, post := range res.Posts {
		m.feed.Set(postKey(post.ID), post.Clone())
	}

	return res.Posts, nil
}

// Refresh drops every cached page so the next ListPosts hits the network.
func (m *Model) Refresh() {
	m.feed.Invalidate(postsFamily)
}

// HasMorePosts tells whether a page after the given one exists. Failures to
// find out resolve to true on connectivity problems and to false otherwise.
func (m *Model) HasMorePosts(ctx context.Context, page, size int) bool {
	if p, ok := lookup[spaceapi.Pagination](m.feed, "pagination", paginationKey(page, size)); ok {
		return p.HasNext
	}

	if posts, ok := lookup[[]spaceapi.Post](m.feed, "posts", listKey(page, size)); ok {
		return len(posts) >= size
	}

	// The item right after the current page, fetched as a page of one.
	probe := page*size + 1
	res, err := withFallback(m, func(v spaceapi.Visibility) (spaceapi.PostPage, error) {
		return m.client.ListPosts(ctx, probe, 1, v)
	})

	switch {
	case err == nil:
		return len(res.Posts) > 0
	case errors.Is(err, spaceapi.ErrNetwork):
		m.Logger.Warn("pagination probe failed, assuming more posts", "page", page, "error", err)
		return true
	default:
		m.Logger.Warn("pagination probe rejected, assuming end of feed", "page", page, "error", err)
		return false
	}
}

// GetPost always fetches a fresh copy and refreshes the cached one.
func (m *Model) GetPost(ctx context.Context, id string) (spaceapi.Post, error) {
	post, err := withFallback(m, func(v spaceapi.Visibility) (spaceapi.Post, error) {
		return m.client.GetPost(ctx, id, v)
	})
	if err != nil {
		return spaceapi.Post{}, err
	}

	m.feed.Set(postKey(post.ID), post.Clone())
	return post, nil
}

// CachedPost returns the last fetched copy of a post, if still fresh.
func (m *Model) CachedPost(id string) (spaceapi.Post, bool) {
	post, ok := lookup[spaceapi.Post](m.feed, "post", postKey(id))
	if !ok {
		return spaceapi.Post{}, false
	}
	return post.Clone(), true
}

func (m *Model) invalidatePost(id string) {
	m.feed.Invalidate(postsFamily)
	m.feed.Delete(postKey(id))
}

func (m *Model) CreatePost(ctx context.Context, content string, anonymous bool) (spaceapi.Post, error) {
	post, err := m.client.CreatePost(ctx, content, anonymous)
	if err != nil {
		return spaceapi.Post{}, err
	}

	m.feed.Invalidate(postsFamily)
	return post, nil
}

func (m *Model) UpdatePost(ctx context.Context, id, content string) (spaceapi.Post, error) {
	post, err := m.client.UpdatePost(ctx, id, content)
	if err != nil {
		return spaceapi.Post{}, err
	}

	m.invalidatePost(id)
	return post, nil
}

func (m *Model) DeletePost(ctx context.Context, id string) error {
	if err := m.client.DeletePost(ctx, id); err != nil {
		return err
	}

	m.invalidatePost(id)
	return nil
}

func (m *Model) LikePost(ctx context.Context, id string) (spaceapi.LikeResult, error) {
	res, err := m.client.LikePost(ctx, id)
	if err != nil {
		return spaceapi.LikeResult{}, err
	}

	m.invalidatePost(id)
	return res, nil
}

func (m *Model) AddComment(ctx context.Context, postID, content string) ([]spaceapi.Comment, error) {
	comments, err := m.client.AddComment(ctx, postID, content)
	if err != nil {
		return nil, err
	}

	m.invalidatePost(postID)
	return comments, nil
}

func (m *Model) ToggleBookmark(ctx context.Context, id string) ([]string, error) {
	ids, err := m.client.ToggleBookmark(ctx, id)
	if err != nil {
		return nil, err
	}

	m.invalidatePost(id)
	return ids, nil
}

// Me returns the signed in user's profile within the short budget.
func (m *Model) Me(ctx context.Context) (spaceapi.User, error) {
	if user, ok := lookup[spaceapi.User](m.aggregates, "me", meKey); ok {
		return user, nil
	}

	user, err := m.client.Fast().Me(ctx)
	if err != nil {
		return spaceapi.User{}, err
	}

	m.aggregates.Set(meKey, user)
	return user, nil
}

func (m *Model) UnreadCount(ctx context.Context) (int, error) {
	return m.client.Fast().UnreadCount(ctx)
}

func (m *Model) Notifications(ctx context.Context) ([]spaceapi.Notification, error) {
	if list, ok := lookup[[]spaceapi.Notification](m.aggregates, "notifications", notificationsKey); ok {
		return append([]spaceapi.Notification(nil), list...), nil
	}

	list, err := m.client.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}

	m.aggregates.Set(notificationsKey, append([]spaceapi.Notification(nil), list...))
	return list, nil
}

func (m *Model) MarkNotificationRead(ctx context.Context, id string) error {
	if err := m.client.MarkNotificationRead(ctx, id); err != nil {
		return err
	}

	m.aggregates.Invalidate(notificationsFamily)
	return nil
}

func (m *Model) MarkAllNotificationsRead(ctx context.Context) error {
	if err := m.client.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}

	m.aggregates.Invalidate(notificationsFamily)
	return nil
}

// Forget drops everything cached for the signed in user.
func (m *Model) Forget() {
	m.feed.Invalidate()
	m.aggregates.Invalidate()
}

package presenter_test

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"

	"safespace/internal/core"
	"safespace/internal/presenter"
	"safespace/pkg/spaceapi"
)

var (
	errNetwork = &spaceapi.Error{Kind: spaceapi.ErrNetwork, Message: "connection refused"}
	errServer  = &spaceapi.Error{Kind: spaceapi.ErrServer, Status: 500, Message: "boom"}
)

// fakeFeed is an in-memory core.Feed. Hooks override the default behavior of
// single operations.
type fakeFeed struct {
	mu            sync.Mutex
	authenticated bool
	pages         map[int][]spaceapi.Post
	cached        map[string]spaceapi.Post
	notifications []spaceapi.Notification
	user          spaceapi.User
	unread        int
	bookmarks     []string

	listHook     func(page int) ([]spaceapi.Post, error)
	likeHook     func(ctx context.Context, id string) (spaceapi.LikeResult, error)
	commentHook  func(ctx context.Context, postID, content string) ([]spaceapi.Comment, error)
	getPostHook  func(id string) (spaceapi.Post, error)
	meErr        error
	markReadErr  error
	markAllErr   error
	bookmarkErr  error

	calls sync.Map
}

var _ core.Feed = (*fakeFeed)(nil)

func (f *fakeFeed) called(op string) {
	counter, _ := f.calls.LoadOrStore(op, &atomic.Int32{})
	counter.(*atomic.Int32).Add(1)
}

func (f *fakeFeed) count(op string) int {
	counter, ok := f.calls.Load(op)
	if !ok {
		return 0
	}
	return int(counter.(*atomic.Int32).Load())
}

func (f *fakeFeed) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeFeed) ListPosts(_ context.Context, page, _ int) ([]spaceapi.Post, error) {
	f.called("list")
	if f.listHook != nil {
		return f.listHook(page)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return lo.Map(f.pages[page], func(p spaceapi.Post, _ int) spaceapi.Post { return p.Clone() }), nil
}

func (f *fakeFeed) HasMorePosts(_ context.Context, page, _ int) bool {
	f.called("has-more")

	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pages[page+1]
	return ok
}

func (f *fakeFeed) GetPost(_ context.Context, id string) (spaceapi.Post, error) {
	f.called("get")
	if f.getPostHook != nil {
		return f.getPostHook(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, page := range f.pages {
		for _, p := range page {
			if p.ID == id {
				return p.Clone(), nil
			}
		}
	}
	return spaceapi.Post{}, &spaceapi.Error{Kind: spaceapi.ErrNotFound, Status: 404, Message: "not found"}
}

func (f *fakeFeed) CachedPost(id string) (spaceapi.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.cached[id]
	return p, ok
}

func (f *fakeFeed) Refresh() {
	f.called("refresh")
}

func (f *fakeFeed) CreatePost(_ context.Context, content string, anonymous bool) (spaceapi.Post, error) {
	f.called("create")
	return spaceapi.Post{ID: "new", Content: content, IsAnonymous: anonymous}, nil
}

func (f *fakeFeed) UpdatePost(_ context.Context, id, content string) (spaceapi.Post, error) {
	f.called("update")
	return spaceapi.Post{ID: id, Content: content}, nil
}

func (f *fakeFeed) DeletePost(context.Context, string) error {
	f.called("delete")
	return nil
}

func (f *fakeFeed) LikePost(ctx context.Context, id string) (spaceapi.LikeResult, error) {
	f.called("like")
	if f.likeHook != nil {
		return f.likeHook(ctx, id)
	}
	return spaceapi.LikeResult{Liked: true, LikesCount: 1}, nil
}

func (f *fakeFeed) AddComment(ctx context.Context, postID, content string) ([]spaceapi.Comment, error) {
	f.called("comment")
	if f.commentHook != nil {
		return f.commentHook(ctx, postID, content)
	}
	return []spaceapi.Comment{{ID: "c1", Content: content}}, nil
}

func (f *fakeFeed) ToggleBookmark(context.Context, string) ([]string, error) {
	f.called("bookmark")
	if f.bookmarkErr != nil {
		return nil, f.bookmarkErr
	}
	return slices.Clone(f.bookmarks), nil
}

func (f *fakeFeed) Me(context.Context) (spaceapi.User, error) {
	f.called("me")
	return f.user, f.meErr
}

func (f *fakeFeed) UnreadCount(context.Context) (int, error) {
	f.called("unread")
	return f.unread, nil
}

func (f *fakeFeed) Notifications(context.Context) ([]spaceapi.Notification, error) {
	f.called("notifications")
	return slices.Clone(f.notifications), nil
}

func (f *fakeFeed) MarkNotificationRead(context.Context, string) error {
	f.called("mark-read")
	return f.markReadErr
}

func (f *fakeFeed) MarkAllNotificationsRead(context.Context) error {
	f.called("mark-all")
	return f.markAllErr
}

type fakeNavigator struct {
	signIns atomic.Int32
}

func (n *fakeNavigator) SignIn() {
	n.signIns.Add(1)
}

type fakeSnapshots struct {
	mu    sync.Mutex
	saved *core.FeedSnapshot
}

func (s *fakeSnapshots) LoadFeed(context.Context) (core.FeedSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return core.FeedSnapshot{}, false, nil
	}
	return *s.saved, true, nil
}

func (s *fakeSnapshots) SaveFeed(_ context.Context, snapshot core.FeedSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = &snapshot
	return nil
}

// recorder collects every published state.
type recorder struct {
	mu     sync.Mutex
	states []presenter.State
}

func (r *recorder) record(s presenter.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) all() []presenter.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.states)
}

func post(id string) spaceapi.Post {
	return spaceapi.Post{ID: id, Content: "post " + id, Likes: []string{}, Comments: []spaceapi.Comment{}}
}

func postIDs(posts []spaceapi.Post) []string {
	return lo.Map(posts, func(p spaceapi.Post, _ int) string { return p.ID })
}

type setup struct {
	feed      *fakeFeed
	navigator *fakeNavigator
	snapshots core.FeedSnapshots
	opts      func(*presenter.Options)
}

func newPresenter(t *testing.T, s setup) (*presenter.Presenter, *recorder) {
	t.Helper()

	if s.navigator == nil {
		s.navigator = &fakeNavigator{}
	}

	opts := presenter.Options{
		Logger:          slog.New(slog.DiscardHandler),
		Feed:            s.feed,
		Navigator:       s.navigator,
		Snapshots:       s.snapshots,
		PageSize:        10,
		ErrorClearDelay: time.Minute,
		AnimationDelay:  time.Minute,
		DedupWindow:     time.Minute,
	}
	if s.opts != nil {
		s.opts(&opts)
	}

	p := presenter.New(opts)
	t.Cleanup(p.Close)

	rec := &recorder{}
	p.Subscribe(rec.record)

	return p, rec
}

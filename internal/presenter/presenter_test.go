package presenter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safespace/internal/core"
	"safespace/internal/presenter"
	"safespace/pkg/spaceapi"
)

func TestPresenter_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("read-only when signed out", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("a"), post("b")}}}
		p, _ := newPresenter(t, setup{feed: feed})

		require.NoError(t, p.Initialize(t.Context()))

		state := p.State()
		assert.Equal(t, presenter.Ready, state.Status)
		assert.Equal(t, []string{"a", "b"}, postIDs(state.Posts))
		assert.Nil(t, state.User)
		assert.True(t, state.ReadOnly)
		assert.Empty(t, state.Error)
		assert.False(t, state.HasMore)
		assert.Zero(t, feed.count("me"))
		assert.Zero(t, feed.count("unread"))
	})

	t.Run("signed in", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {post("a")}, 2: {post("b")}},
			user:          spaceapi.User{ID: "u1", Name: "Kim"},
			unread:        3,
		}
		p, _ := newPresenter(t, setup{feed: feed})

		require.NoError(t, p.Initialize(t.Context()))

		state := p.State()
		require.NotNil(t, state.User)
		assert.Equal(t, "Kim", state.User.Name)
		assert.False(t, state.ReadOnly)
		assert.Equal(t, 3, state.UnreadCount)
		assert.True(t, state.HasMore)
	})

	t.Run("personal data failure degrades to read-only", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {post("a")}},
			meErr:         errNetwork,
		}
		p, _ := newPresenter(t, setup{feed: feed})

		require.NoError(t, p.Initialize(t.Context()))

		state := p.State()
		assert.Equal(t, presenter.Ready, state.Status)
		assert.True(t, state.ReadOnly)
		assert.Nil(t, state.User)
		assert.Len(t, state.Posts, 1)
		assert.Empty(t, state.Error)
	})

	t.Run("posts failure is fatal", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{listHook: func(int) ([]spaceapi.Post, error) { return nil, errServer }}
		p, _ := newPresenter(t, setup{feed: feed})

		err := p.Initialize(t.Context())
		require.ErrorIs(t, err, spaceapi.ErrServer)

		state := p.State()
		assert.Equal(t, presenter.Failed, state.Status)
		assert.Equal(t, spaceapi.UserMessage(errServer), state.Error)
	})

	t.Run("paints the snapshot first and saves the fresh page", func(t *testing.T) {
		t.Parallel()

		snapshots := &fakeSnapshots{saved: &core.FeedSnapshot{Posts: []spaceapi.Post{post("old")}}}
		feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("new")}}}
		p, rec := newPresenter(t, setup{feed: feed, snapshots: snapshots})

		require.NoError(t, p.Initialize(t.Context()))

		states := rec.all()
		require.Len(t, states, 2)
		assert.Equal(t, presenter.Loading, states[0].Status)
		assert.Equal(t, []string{"old"}, postIDs(states[0].Posts))
		assert.Equal(t, presenter.Ready, states[1].Status)
		assert.Equal(t, []string{"new"}, postIDs(states[1].Posts))

		saved, ok, err := snapshots.LoadFeed(t.Context())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []string{"new"}, postIDs(saved.Posts))
	})

	t.Run("placeholders are not persisted and end the feed", func(t *testing.T) {
		t.Parallel()

		placeholder := post("placeholder-1")
		placeholder.Placeholder = true

		snapshots := &fakeSnapshots{}
		feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {placeholder}, 2: {post("x")}}}
		p, _ := newPresenter(t, setup{feed: feed, snapshots: snapshots})

		require.NoError(t, p.Initialize(t.Context()))
		assert.False(t, p.State().HasMore)

		_, ok, err := snapshots.LoadFeed(t.Context())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestPresenter_ToggleLike(t *testing.T) {
	t.Parallel()

	t.Run("optimistic then authoritative", func(t *testing.T) {
		t.Parallel()

		release := make(chan spaceapi.LikeResult)
		first := post("1")
		first.Content = "hi"
		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {first, post("2")}},
			likeHook: func(_ context.Context, _ string) (spaceapi.LikeResult, error) {
				return <-release, nil
			},
		}
		p, rec := newPresenter(t, setup{feed: feed})

		require.NoError(t, p.Initialize(t.Context()))
		state := p.State()
		require.Len(t, state.Posts, 2)
		require.NotEqual(t, presenter.Loading, state.Status)

		done := make(chan error, 1)
		go func() { done <- p.ToggleLike(t.Context(), "1") }()

		require.Eventually(t, func() bool {
			s := p.State()
			return s.Posts[0].Liked && s.Posts[0].LikesCount == 1
		}, time.Second, time.Millisecond)

		release <- spaceapi.LikeResult{Liked: true, LikesCount: 5}
		require.NoError(t, <-done)

		state = p.State()
		assert.True(t, state.Posts[0].Liked)
		assert.Equal(t, 5, state.Posts[0].LikesCount)

		states := rec.all()
		assert.Equal(t, 1, states[len(states)-2].Posts[0].LikesCount)
		assert.Equal(t, 5, states[len(states)-1].Posts[0].LikesCount)
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		t.Parallel()

		liked := post("p1")
		liked.Liked = true
		liked.LikesCount = 4
		liked.Likes = []string{"me", "u2", "u3", "u4"}

		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {liked}},
			likeHook: func(context.Context, string) (spaceapi.LikeResult, error) {
				return spaceapi.LikeResult{}, errNetwork
			},
		}
		p, _ := newPresenter(t, setup{feed: feed, opts: func(o *presenter.Options) {
			o.ErrorClearDelay = 20 * time.Millisecond
		}})
		require.NoError(t, p.Initialize(t.Context()))

		before := p.State().Posts[0]

		err := p.ToggleLike(t.Context(), "p1")
		require.ErrorIs(t, err, spaceapi.ErrNetwork)

		state := p.State()
		assert.Equal(t, before.Liked, state.Posts[0].Liked)
		assert.Equal(t, before.LikesCount, state.Posts[0].LikesCount)
		assert.Equal(t, before.Likes, state.Posts[0].Likes)
		assert.NotEmpty(t, state.Error)

		require.Eventually(t, func() bool {
			return p.State().Error == ""
		}, time.Second, 5*time.Millisecond)
		assert.Zero(t, p.PendingTimers())
	})

	t.Run("rolls back list and modal copies separately", func(t *testing.T) {
		t.Parallel()

		listed := post("p1")
		listed.LikesCount = 4
		listed.Likes = []string{"u1", "u2", "u3", "u4"}

		opened := post("p1")
		opened.Liked = true
		opened.LikesCount = 6
		opened.Likes = []string{"me", "u1", "u2", "u3", "u4", "u5"}

		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {listed}},
			getPostHook: func(string) (spaceapi.Post, error) {
				return opened, nil
			},
			likeHook: func(context.Context, string) (spaceapi.LikeResult, error) {
				return spaceapi.LikeResult{}, errServer
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))
		require.NoError(t, p.OpenPost(t.Context(), "p1"))

		refreshed := post("p1")
		refreshed.LikesCount = 9
		refreshed.Likes = []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9"}
		feed.mu.Lock()
		feed.pages[1] = []spaceapi.Post{refreshed}
		feed.mu.Unlock()
		require.NoError(t, p.Refresh(t.Context()))

		before := p.State()
		require.Equal(t, 9, before.Posts[0].LikesCount)
		require.Equal(t, 6, before.SelectedPost.LikesCount)

		require.ErrorIs(t, p.ToggleLike(t.Context(), "p1"), spaceapi.ErrServer)

		after := p.State()
		assert.Equal(t, before.Posts[0].Liked, after.Posts[0].Liked)
		assert.Equal(t, before.Posts[0].LikesCount, after.Posts[0].LikesCount)
		assert.Equal(t, before.Posts[0].Likes, after.Posts[0].Likes)
		assert.Equal(t, before.SelectedPost.Liked, after.SelectedPost.Liked)
		assert.Equal(t, before.SelectedPost.LikesCount, after.SelectedPost.LikesCount)
		assert.Equal(t, before.SelectedPost.Likes, after.SelectedPost.Likes)
	})

	t.Run("signed out redirects", func(t *testing.T) {
		t.Parallel()

		navigator := &fakeNavigator{}
		feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("p1")}}}
		p, _ := newPresenter(t, setup{feed: feed, navigator: navigator})
		require.NoError(t, p.Initialize(t.Context()))

		require.NoError(t, p.ToggleLike(t.Context(), "p1"))
		assert.EqualValues(t, 1, navigator.signIns.Load())
		assert.Zero(t, feed.count("like"))
		assert.False(t, p.State().Posts[0].Liked)
	})

	t.Run("unknown post", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{authenticated: true}
		p, _ := newPresenter(t, setup{feed: feed})

		require.ErrorIs(t, p.ToggleLike(t.Context(), "nope"), spaceapi.ErrValidation)
		assert.Zero(t, feed.count("like"))
	})
}

func TestPresenter_Comments(t *testing.T) {
	t.Parallel()

	t.Run("identical rapid submissions issue one call", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{}, 2)
		release := make(chan struct{})
		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {post("p1")}},
			commentHook: func(_ context.Context, _, content string) ([]spaceapi.Comment, error) {
				entered <- struct{}{}
				<-release
				return []spaceapi.Comment{{ID: "c1", Content: content}}, nil
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))

		done := make(chan error, 1)
		go func() { done <- p.HandleInlineComment(t.Context(), "p1", "hello") }()
		<-entered

		assert.True(t, p.State().Submitting["p1"])
		require.NoError(t, p.HandleInlineComment(t.Context(), "p1", "hello"))

		close(release)
		require.NoError(t, <-done)

		// Completed, but still inside the de-dup window.
		require.NoError(t, p.HandleInlineComment(t.Context(), "p1", " hello "))

		assert.Equal(t, 1, feed.count("comment"))

		state := p.State()
		assert.False(t, state.Submitting["p1"])
		assert.Equal(t, 1, state.Posts[0].CommentsCount)
		assert.Equal(t, "hello", state.Posts[0].Comments[0].Content)
	})

	t.Run("the window expires", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{authenticated: true, pages: map[int][]spaceapi.Post{1: {post("p1")}}}
		p, _ := newPresenter(t, setup{feed: feed, opts: func(o *presenter.Options) {
			o.DedupWindow = 20 * time.Millisecond
		}})
		require.NoError(t, p.Initialize(t.Context()))

		require.NoError(t, p.HandleInlineComment(t.Context(), "p1", "hello"))
		time.Sleep(60 * time.Millisecond)
		require.NoError(t, p.HandleInlineComment(t.Context(), "p1", "hello"))

		assert.Equal(t, 2, feed.count("comment"))
	})

	t.Run("modal comment updates both copies", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{authenticated: true, pages: map[int][]spaceapi.Post{1: {post("p1"), post("p2")}}}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))
		require.NoError(t, p.OpenPost(t.Context(), "p2"))

		require.NoError(t, p.HandleNewComment(t.Context(), "welcome"))

		state := p.State()
		require.NotNil(t, state.SelectedPost)
		assert.Len(t, state.SelectedPost.Comments, 1)
		assert.Len(t, state.Posts[1].Comments, 1)
		assert.False(t, state.ModalSubmitting)
	})

	t.Run("auth failure redirects and clears the flag", func(t *testing.T) {
		t.Parallel()

		navigator := &fakeNavigator{}
		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {post("p1")}},
			commentHook: func(context.Context, string, string) ([]spaceapi.Comment, error) {
				return nil, &spaceapi.Error{Kind: spaceapi.ErrAuth, Status: 401, Message: "expired"}
			},
		}
		p, _ := newPresenter(t, setup{feed: feed, navigator: navigator})
		require.NoError(t, p.Initialize(t.Context()))

		err := p.HandleInlineComment(t.Context(), "p1", "hello")
		require.ErrorIs(t, err, spaceapi.ErrAuth)
		assert.EqualValues(t, 1, navigator.signIns.Load())

		state := p.State()
		assert.False(t, state.Submitting["p1"])
		assert.Empty(t, state.Error)
	})

	t.Run("other failures surface an error", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {post("p1")}},
			commentHook: func(context.Context, string, string) ([]spaceapi.Comment, error) {
				return nil, errServer
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))

		require.ErrorIs(t, p.HandleInlineComment(t.Context(), "p1", "hello"), spaceapi.ErrServer)

		state := p.State()
		assert.False(t, state.Submitting["p1"])
		assert.Equal(t, spaceapi.UserMessage(errServer), state.Error)
	})

	t.Run("empty comment", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{authenticated: true}
		p, _ := newPresenter(t, setup{feed: feed})

		require.ErrorIs(t, p.HandleInlineComment(t.Context(), "p1", "  "), spaceapi.ErrValidation)
		assert.Zero(t, feed.count("comment"))
	})
}

func TestPresenter_LoadMorePosts(t *testing.T) {
	t.Parallel()

	t.Run("filters posts already in the list", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{pages: map[int][]spaceapi.Post{
			1: {post("A"), post("B"), post("C")},
			2: {post("C"), post("D")},
		}}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))
		require.True(t, p.State().HasMore)

		require.NoError(t, p.LoadMorePosts(t.Context()))

		state := p.State()
		assert.Equal(t, []string{"A", "B", "C", "D"}, postIDs(state.Posts))
		assert.Equal(t, 2, state.Page)
		assert.False(t, state.HasMore)
		assert.Equal(t, presenter.Ready, state.Status)

		require.NoError(t, p.LoadMorePosts(t.Context()))
		assert.Equal(t, 2, feed.count("list"))
	})

	t.Run("a second call while loading is a no-op", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{}, 1)
		release := make(chan struct{})
		feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("A")}, 2: {post("B")}}}
		feed.listHook = func(page int) ([]spaceapi.Post, error) {
			if page == 2 {
				entered <- struct{}{}
				<-release
			}
			feed.mu.Lock()
			defer feed.mu.Unlock()
			return feed.pages[page], nil
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))

		done := make(chan error, 1)
		go func() { done <- p.LoadMorePosts(t.Context()) }()
		<-entered

		assert.Equal(t, presenter.LoadingMore, p.State().Status)
		require.NoError(t, p.LoadMorePosts(t.Context()))

		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, 2, feed.count("list"))
		assert.Equal(t, []string{"A", "B"}, postIDs(p.State().Posts))
	})

	t.Run("failure keeps the cursor and reports", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("A")}, 2: {post("B")}}}
		feed.listHook = func(page int) ([]spaceapi.Post, error) {
			if page == 2 {
				return nil, errNetwork
			}
			return []spaceapi.Post{post("A")}, nil
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))

		err := p.LoadMorePosts(t.Context())
		require.ErrorIs(t, err, spaceapi.ErrNetwork)

		state := p.State()
		assert.Equal(t, presenter.Ready, state.Status)
		assert.True(t, state.HasMore)
		assert.Equal(t, 1, state.Page)
		assert.Equal(t, []string{"A"}, postIDs(state.Posts))
		assert.NotEmpty(t, state.Error)
	})

	t.Run("outside the home tab", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("A")}, 2: {post("B")}}}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))
		require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabSaved))

		require.NoError(t, p.LoadMorePosts(t.Context()))
		assert.Equal(t, 1, feed.count("list"))
	})
}

func TestPresenter_Bookmark(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{
		authenticated: true,
		pages:         map[int][]spaceapi.Post{1: {post("p1"), post("p2")}},
		bookmarks:     []string{"p1"},
	}
	p, _ := newPresenter(t, setup{feed: feed, opts: func(o *presenter.Options) {
		o.AnimationDelay = 20 * time.Millisecond
	}})
	require.NoError(t, p.Initialize(t.Context()))

	require.NoError(t, p.HandleBookmark(t.Context(), "p1"))

	state := p.State()
	assert.True(t, state.Posts[0].Bookmarked)
	assert.False(t, state.Posts[1].Bookmarked)
	assert.True(t, state.Animating["p1"])

	require.Eventually(t, func() bool {
		return !p.State().Animating["p1"]
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabSaved))
	assert.Equal(t, []string{"p1"}, postIDs(p.State().VisiblePosts()))
	assert.Equal(t, 1, feed.count("list"))
}

func TestPresenter_NotificationClick(t *testing.T) {
	t.Parallel()

	notification := spaceapi.Notification{ID: "n1", Type: spaceapi.NotificationComment, Post: spaceapi.PostRef{ID: "p1"}}

	t.Run("falls back to the cached copy", func(t *testing.T) {
		t.Parallel()

		stale := post("p1")
		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {post("other")}},
			cached:        map[string]spaceapi.Post{"p1": stale},
			notifications: []spaceapi.Notification{notification},
			getPostHook: func(string) (spaceapi.Post, error) {
				return spaceapi.Post{}, errNetwork
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))
		require.NoError(t, p.LoadNotifications(t.Context()))
		require.Equal(t, 1, p.State().UnreadCount)

		require.NoError(t, p.HandleNotificationClick(t.Context(), notification))

		state := p.State()
		assert.Equal(t, 0, state.UnreadCount)
		require.NotNil(t, state.SelectedPost)
		assert.Equal(t, "p1", state.SelectedPost.ID)
		assert.True(t, state.Notifications[0].Read)
		assert.Empty(t, state.ProcessingID)
		assert.Equal(t, 1, feed.count("mark-read"))
		assert.Equal(t, 1, feed.count("get"))
	})

	t.Run("merges the fresh copy into the list", func(t *testing.T) {
		t.Parallel()

		fresh := post("p1")
		fresh.CommentsCount = 7
		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {post("p1")}},
			getPostHook: func(string) (spaceapi.Post, error) {
				return fresh, nil
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))

		require.NoError(t, p.HandleNotificationClick(t.Context(), notification))

		state := p.State()
		assert.Equal(t, 7, state.SelectedPost.CommentsCount)
		assert.Equal(t, 7, state.Posts[0].CommentsCount)
	})

	t.Run("shows the loaded copy while fetching", func(t *testing.T) {
		t.Parallel()

		loaded := post("p1")
		loaded.CommentsCount = 2
		fresh := post("p1")
		fresh.CommentsCount = 3

		release := make(chan struct{})
		feed := &fakeFeed{
			authenticated: true,
			pages:         map[int][]spaceapi.Post{1: {loaded}},
			getPostHook: func(string) (spaceapi.Post, error) {
				<-release
				return fresh, nil
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})
		require.NoError(t, p.Initialize(t.Context()))

		done := make(chan error, 1)
		go func() { done <- p.HandleNotificationClick(t.Context(), notification) }()

		require.Eventually(t, func() bool {
			s := p.State()
			return s.SelectedPost != nil && s.SelectedPost.CommentsCount == 2
		}, time.Second, time.Millisecond)
		assert.Equal(t, "n1", p.State().ProcessingID)

		close(release)
		require.NoError(t, <-done)

		state := p.State()
		assert.Equal(t, 3, state.SelectedPost.CommentsCount)
		assert.Empty(t, state.ProcessingID)
	})

	t.Run("no copy anywhere", func(t *testing.T) {
		t.Parallel()

		feed := &fakeFeed{
			authenticated: true,
			getPostHook: func(string) (spaceapi.Post, error) {
				return spaceapi.Post{}, errNetwork
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})

		require.ErrorIs(t, p.HandleNotificationClick(t.Context(), notification), spaceapi.ErrNetwork)

		state := p.State()
		assert.Nil(t, state.SelectedPost)
		assert.Empty(t, state.ProcessingID)
		assert.NotEmpty(t, state.Error)
	})

	t.Run("duplicate clicks are ignored", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{}, 1)
		release := make(chan struct{})
		feed := &fakeFeed{
			authenticated: true,
			getPostHook: func(string) (spaceapi.Post, error) {
				entered <- struct{}{}
				<-release
				return post("p1"), nil
			},
		}
		p, _ := newPresenter(t, setup{feed: feed})

		done := make(chan error, 1)
		go func() { done <- p.HandleNotificationClick(t.Context(), notification) }()
		<-entered

		assert.Equal(t, "n1", p.State().ProcessingID)
		require.NoError(t, p.HandleNotificationClick(t.Context(), notification))

		close(release)
		require.NoError(t, <-done)
		assert.Equal(t, 1, feed.count("get"))
		assert.Equal(t, 1, feed.count("mark-read"))
	})
}

func TestPresenter_SetActiveTab(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	feed := &fakeFeed{
		authenticated: true,
		pages:         map[int][]spaceapi.Post{1: {post("A")}, 2: {post("B")}},
		notifications: []spaceapi.Notification{{ID: "n1"}, {ID: "n2", Read: true}},
	}
	p, rec := newPresenter(t, setup{feed: feed, opts: func(o *presenter.Options) {
		o.Now = clock
		o.StaleAfter = time.Minute
	}})
	require.NoError(t, p.Initialize(t.Context()))
	require.NoError(t, p.LoadMorePosts(t.Context()))
	require.Equal(t, 2, p.State().Page)

	published := len(rec.all())
	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabHome))
	assert.Len(t, rec.all(), published)

	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabNotifications))
	state := p.State()
	assert.Equal(t, presenter.TabNotifications, state.Tab)
	assert.Equal(t, 1, state.Page)
	assert.True(t, state.HasMore)
	assert.Len(t, state.Notifications, 2)
	assert.Equal(t, 1, state.UnreadCount)

	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabHome))
	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabNotifications))
	assert.Equal(t, 1, feed.count("notifications"))
	assert.Equal(t, 2, feed.count("list"))

	advance(time.Minute)
	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabHome))
	assert.Equal(t, 3, feed.count("list"))
	assert.Equal(t, []string{"A"}, postIDs(p.State().Posts))

	require.ErrorIs(t, p.SetActiveTab(t.Context(), "chat"), spaceapi.ErrValidation)
}

func TestPresenter_RefreshThenSwitchTabs(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	var blocking atomic.Bool
	feed := &fakeFeed{
		authenticated: true,
		pages:         map[int][]spaceapi.Post{1: {post("A"), post("B")}, 2: {post("C")}},
	}
	feed.listHook = func(page int) ([]spaceapi.Post, error) {
		if page == 1 && blocking.Load() {
			<-gate
		}
		feed.mu.Lock()
		defer feed.mu.Unlock()
		return lo.Map(feed.pages[page], func(item spaceapi.Post, _ int) spaceapi.Post { return item.Clone() }), nil
	}
	p, _ := newPresenter(t, setup{feed: feed})
	require.NoError(t, p.Initialize(t.Context()))

	blocking.Store(true)
	done := make(chan error, 1)
	go func() { done <- p.Refresh(t.Context()) }()

	require.Eventually(t, func() bool {
		return p.State().Status == presenter.Loading
	}, time.Second, time.Millisecond)

	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabSaved))
	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, presenter.Ready, p.State().Status)

	require.NoError(t, p.SetActiveTab(t.Context(), presenter.TabHome))
	require.NoError(t, p.LoadMorePosts(t.Context()))

	state := p.State()
	assert.Equal(t, presenter.Ready, state.Status)
	assert.Equal(t, []string{"A", "B", "C"}, postIDs(state.Posts))
	assert.Equal(t, 2, state.Page)
	assert.Equal(t, 3, feed.count("list"))
}

func TestPresenter_EditDeleteCreate(t *testing.T) {
	t.Parallel()

	bookmarked := post("p1")
	bookmarked.Bookmarked = true
	feed := &fakeFeed{authenticated: true, pages: map[int][]spaceapi.Post{1: {bookmarked, post("p2")}}}
	p, _ := newPresenter(t, setup{feed: feed})
	require.NoError(t, p.Initialize(t.Context()))

	require.NoError(t, p.EditPost(t.Context(), "p1", "edited"))
	state := p.State()
	assert.Equal(t, "edited", state.Posts[0].Content)
	assert.True(t, state.Posts[0].Bookmarked)

	require.NoError(t, p.OpenPost(t.Context(), "p2"))
	require.NoError(t, p.DeletePost(t.Context(), "p2"))
	state = p.State()
	assert.Equal(t, []string{"p1"}, postIDs(state.Posts))
	assert.Nil(t, state.SelectedPost)

	require.ErrorIs(t, p.CreatePost(t.Context(), " ", false), spaceapi.ErrValidation)
	assert.Zero(t, feed.count("create"))

	require.NoError(t, p.CreatePost(t.Context(), "fresh thoughts", true))
	state = p.State()
	assert.Equal(t, []string{"new", "p1"}, postIDs(state.Posts))
	assert.True(t, state.Posts[0].IsAnonymous)

	p.DismissError()
	assert.Empty(t, p.State().Error)
}

func TestPresenter_MarkAllRead(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{
		authenticated: true,
		notifications: []spaceapi.Notification{{ID: "n1"}, {ID: "n2"}},
		markAllErr:    errServer,
	}
	p, _ := newPresenter(t, setup{feed: feed})
	require.NoError(t, p.LoadNotifications(t.Context()))
	require.Equal(t, 2, p.State().UnreadCount)

	require.ErrorIs(t, p.MarkAllRead(t.Context()), spaceapi.ErrServer)

	state := p.State()
	assert.Equal(t, 2, state.UnreadCount)
	assert.False(t, state.Notifications[0].Read)

	feed.markAllErr = nil
	require.NoError(t, p.MarkAllRead(t.Context()))
	assert.Equal(t, 0, p.State().UnreadCount)
}

func TestPresenter_Close(t *testing.T) {
	t.Parallel()

	release := make(chan spaceapi.LikeResult)
	entered := make(chan struct{}, 1)
	feed := &fakeFeed{
		authenticated: true,
		pages:         map[int][]spaceapi.Post{1: {post("p1")}},
		likeHook: func(context.Context, string) (spaceapi.LikeResult, error) {
			entered <- struct{}{}
			return <-release, nil
		},
	}
	p, rec := newPresenter(t, setup{feed: feed})
	require.NoError(t, p.Initialize(t.Context()))

	done := make(chan error, 1)
	go func() { done <- p.ToggleLike(t.Context(), "p1") }()
	<-entered

	published := len(rec.all())
	p.Close()

	release <- spaceapi.LikeResult{Liked: true, LikesCount: 9}
	require.NoError(t, <-done)

	assert.Len(t, rec.all(), published)
	assert.NotEqual(t, 9, p.State().Posts[0].LikesCount)
}

func TestPresenter_Unsubscribe(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("p1")}}}
	p, _ := newPresenter(t, setup{feed: feed})

	var calls int
	unsubscribe := p.Subscribe(func(presenter.State) { calls++ })
	require.NoError(t, p.Initialize(t.Context()))
	require.Equal(t, 1, calls)

	unsubscribe()
	p.DismissError()
	require.Equal(t, 1, calls)
}

func TestPresenter_Refresh(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{pages: map[int][]spaceapi.Post{1: {post("A")}, 2: {post("B")}}}
	p, rec := newPresenter(t, setup{feed: feed})
	require.NoError(t, p.Initialize(t.Context()))
	require.NoError(t, p.LoadMorePosts(t.Context()))

	feed.mu.Lock()
	feed.pages[1] = []spaceapi.Post{post("Z"), post("A")}
	feed.mu.Unlock()

	published := len(rec.all())
	require.NoError(t, p.Refresh(t.Context()))

	states := rec.all()[published:]
	require.Len(t, states, 2)
	assert.Equal(t, presenter.Loading, states[0].Status)

	state := p.State()
	assert.Equal(t, presenter.Ready, state.Status)
	assert.Equal(t, []string{"Z", "A"}, postIDs(state.Posts))
	assert.Equal(t, 1, state.Page)
	assert.True(t, state.HasMore)
	assert.Equal(t, 1, feed.count("refresh"))
}

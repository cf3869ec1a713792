// Package presenter holds the feed state machine between the view and the
// feed model.
//
// Every mutation produces exactly one new State that is delivered
// synchronously to the subscribers, in mutation order. Network calls happen
// outside the lock, so methods may be called from any goroutine.
package presenter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"safespace/internal/core"
	"safespace/internal/dedup"
	"safespace/pkg/spaceapi"
)

type Options struct {
	Logger    *slog.Logger
	Feed      core.Feed
	Navigator core.Navigator
	Snapshots core.FeedSnapshots

	PageSize int
	// StaleAfter is the age after which a tab's data is fetched again when
	// the tab is activated.
	StaleAfter time.Duration

	ErrorClearDelay time.Duration
	AnimationDelay  time.Duration
	DedupWindow     time.Duration

	Now func() time.Time
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = time.Minute
	}
	if o.ErrorClearDelay <= 0 {
		o.ErrorClearDelay = 5 * time.Second
	}
	if o.AnimationDelay <= 0 {
		o.AnimationDelay = 600 * time.Millisecond
	}
	if o.DedupWindow <= 0 {
		o.DedupWindow = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type subscriber struct {
	id int
	fn func(State)
}

type Presenter struct {
	logger    *slog.Logger
	feed      core.Feed
	navigator core.Navigator
	snapshots core.FeedSnapshots
	opts      Options
	pending   *dedup.Registry

	mu          sync.Mutex
	state       State
	subscribers []subscriber
	nextID      int
	closed      bool

	// generation changes whenever the home list is reset, so a page that
	// arrives for an older list is dropped.
	generation int
	// errorSeq identifies the error a scheduled clear belongs to.
	errorSeq int
	// timers holds the scheduled callbacks that have not fired yet.
	timers map[*time.Timer]struct{}
}

func New(opts Options) *Presenter {
	opts.defaults()

	return &Presenter{
		logger:    opts.Logger.With("component", "presenter.Presenter"),
		feed:      opts.Feed,
		navigator: opts.Navigator,
		snapshots: opts.Snapshots,
		opts:      opts,
		pending:   dedup.New(opts.DedupWindow),
		state:     initialState(),
		timers:    map[*time.Timer]struct{}{},
	}
}

// Subscribe registers fn for every new state. Callbacks run under the
// presenter lock and must not call back into the presenter.
func (p *Presenter) Subscribe(fn func(State)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return func() {}
	}

	p.nextID++
	id := p.nextID
	p.subscribers = append(p.subscribers, subscriber{id: id, fn: fn})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		for i, s := range p.subscribers {
			if s.id == id {
				p.subscribers = append(p.subscribers[:i:i], p.subscribers[i+1:]...)
				return
			}
		}
	}
}

// State returns the current snapshot.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.clone()
}

// Close detaches every subscriber. Responses arriving afterwards change
// nothing.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.subscribers = nil
	for t := range p.timers {
		t.Stop()
	}
	clear(p.timers)
}

// update applies fn and publishes the result. It reports false once the
// presenter is closed.
func (p *Presenter) update(fn func(s *State)) bool {
	return p.updateIf(func(s *State) bool {
		fn(s)
		return true
	})
}

// updateIf publishes only when fn reports a change. fn must leave the state
// untouched when it returns false.
func (p *Presenter) updateIf(fn func(s *State) bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !fn(&p.state) {
		return false
	}

	p.publishLocked()
	return true
}

func (p *Presenter) publishLocked() {
	for _, s := range p.subscribers {
		s.fn(p.state.clone())
	}
}

func (p *Presenter) after(d time.Duration, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		p.mu.Lock()
		delete(p.timers, t)
		p.mu.Unlock()

		fn()
	})
	p.timers[t] = struct{}{}
}

// flash shows a transient error that clears itself unless replaced.
func (p *Presenter) flash(err error) {
	var seq int
	p.update(func(s *State) {
		p.errorSeq++
		seq = p.errorSeq
		s.setError(err)
	})

	p.after(p.opts.ErrorClearDelay, func() {
		p.updateIf(func(s *State) bool {
			if seq != p.errorSeq || s.Err == nil {
				return false
			}
			s.clearError()
			return true
		})
	})
}

// fail shows an error that stays until dismissed or replaced.
func (p *Presenter) fail(err error, fn func(s *State)) {
	p.update(func(s *State) {
		p.errorSeq++
		s.setError(err)
		if fn != nil {
			fn(s)
		}
	})
}

// requireAuth sends unauthenticated users to sign in.
func (p *Presenter) requireAuth() bool {
	if p.feed.IsAuthenticated() {
		return true
	}

	if p.navigator != nil {
		p.navigator.SignIn()
	}
	return false
}

// Initialize paints the persisted snapshot, then loads the first page and,
// for a signed in user, the profile and unread count. Only a failure to load
// posts is fatal.
func (p *Presenter) Initialize(ctx context.Context) error {
	p.restoreSnapshot(ctx)

	authenticated := p.feed.IsAuthenticated()

	var (
		group  errgroup.Group
		user   spaceapi.User
		unread int
	)
	if authenticated {
		group.Go(func() error {
			var err error
			user, err = p.feed.Me(ctx)
			return err
		})
		group.Go(func() error {
			var err error
			unread, err = p.feed.UnreadCount(ctx)
			return err
		})
	}

	posts, hasMore, err := p.firstPage(ctx)
	personalErr := group.Wait()

	if err != nil {
		p.logger.Error("initial feed load failed", "error", err)
		p.fail(err, func(s *State) { s.Status = Failed })
		return err
	}

	if personalErr != nil {
		p.logger.Warn("personal data unavailable, continuing read-only", "error", personalErr)
	}

	saved := clonePosts(posts)
	now := p.opts.Now()
	p.update(func(s *State) {
		p.generation++

		s.Status = Ready
		s.Posts = posts
		s.Page = 1
		s.HasMore = hasMore
		s.PostsLoadedAt = now

		s.ReadOnly = !authenticated || personalErr != nil
		if authenticated && user.ID != "" {
			s.User = &user
		} else {
			s.User = nil
		}
		if authenticated && personalErr == nil {
			s.UnreadCount = unread
		}
	})

	p.saveSnapshot(ctx, saved, hasMore)

	return nil
}

// firstPage loads page one. A feed made of placeholders has no next page.
func (p *Presenter) firstPage(ctx context.Context) ([]spaceapi.Post, bool, error) {
	posts, err := p.feed.ListPosts(ctx, 1, p.opts.PageSize)
	if err != nil {
		return nil, false, spaceapi.Classify(err)
	}

	if isPlaceholderFeed(posts) {
		return posts, false, nil
	}

	return posts, p.feed.HasMorePosts(ctx, 1, p.opts.PageSize), nil
}

func isPlaceholderFeed(posts []spaceapi.Post) bool {
	for _, post := range posts {
		if !post.Placeholder {
			return false
		}
	}
	return len(posts) > 0
}

func (p *Presenter) restoreSnapshot(ctx context.Context) {
	if p.snapshots == nil {
		return
	}

	snapshot, ok, err := p.snapshots.LoadFeed(ctx)
	if err != nil {
		p.logger.Warn("cannot read feed snapshot", "error", err)
		return
	}
	if !ok || len(snapshot.Posts) == 0 {
		return
	}

	p.update(func(s *State) {
		s.Posts = snapshot.Posts
		s.HasMore = snapshot.HasMore
	})
}

func (p *Presenter) saveSnapshot(ctx context.Context, posts []spaceapi.Post, hasMore bool) {
	if p.snapshots == nil || isPlaceholderFeed(posts) {
		return
	}

	err := p.snapshots.SaveFeed(ctx, core.FeedSnapshot{
		Posts:   posts,
		HasMore: hasMore,
		SavedAt: p.opts.Now(),
	})
	if err != nil {
		p.logger.Warn("cannot save feed snapshot", "error", err)
	}
}

// Refresh drops the cached pages and reloads the first one.
func (p *Presenter) Refresh(ctx context.Context) error {
	p.feed.Refresh()

	var gen int
	p.update(func(s *State) {
		p.generation++
		gen = p.generation

		s.Status = Loading
		s.Page = 1
		s.HasMore = true
		s.clearError()
	})

	return p.reloadHome(ctx, gen)
}

func (p *Presenter) reloadHome(ctx context.Context, gen int) error {
	posts, hasMore, err := p.firstPage(ctx)
	if err != nil {
		p.fail(err, func(s *State) { s.Status = Failed })
		return err
	}

	saved := clonePosts(posts)
	now := p.opts.Now()
	p.updateIf(func(s *State) bool {
		if gen != p.generation {
			return false
		}
		s.Status = Ready
		s.Posts = posts
		s.Page = 1
		s.HasMore = hasMore
		s.PostsLoadedAt = now
		return true
	})

	p.saveSnapshot(ctx, saved, hasMore)

	return nil
}

// LoadMorePosts appends the next page, skipping posts already in the list.
// It is a no-op while another page is loading, at the end of the feed, or
// outside the home tab. Failures are returned so the caller can retry.
func (p *Presenter) LoadMorePosts(ctx context.Context) error {
	var next, gen int
	started := p.updateIf(func(s *State) bool {
		if s.Status != Ready || !s.HasMore || s.Tab != TabHome {
			return false
		}
		s.Status = LoadingMore
		next = s.Page + 1
		gen = p.generation
		return true
	})
	if !started {
		return nil
	}

	posts, err := p.feed.ListPosts(ctx, next, p.opts.PageSize)
	if err != nil {
		err = spaceapi.Classify(err)
		p.logger.Warn("load more failed", "page", next, "error", err)
		p.fail(err, func(s *State) {
			if s.Status == LoadingMore {
				s.Status = Ready
			}
		})
		return err
	}

	hasMore := len(posts) > 0 && p.feed.HasMorePosts(ctx, next, p.opts.PageSize)

	p.update(func(s *State) {
		if s.Status == LoadingMore {
			s.Status = Ready
		}
		if gen != p.generation {
			return
		}

		seen := make(map[string]struct{}, len(s.Posts))
		for _, post := range s.Posts {
			seen[post.ID] = struct{}{}
		}
		for _, post := range posts {
			if _, dup := seen[post.ID]; dup {
				continue
			}
			seen[post.ID] = struct{}{}
			s.Posts = append(s.Posts, post.Clone())
		}

		s.Page = next
		s.HasMore = hasMore
	})

	return nil
}

// DismissError clears the banner.
func (p *Presenter) DismissError() {
	p.update(func(s *State) {
		p.errorSeq++
		s.clearError()
	})
}

func isAuthError(err error) bool {
	return errors.Is(err, spaceapi.ErrAuth)
}

package presenter

import (
	"maps"
	"slices"
	"time"

	"github.com/samber/lo"

	"safespace/pkg/spaceapi"
)

type Status int

const (
	Loading Status = iota
	Ready
	LoadingMore
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case LoadingMore:
		return "loading-more"
	case Failed:
		return "error"
	}
	return "unknown"
}

type Tab string

const (
	TabHome          Tab = "home"
	TabSaved         Tab = "saved"
	TabNotifications Tab = "notifications"
)

var Tabs = []Tab{TabHome, TabSaved, TabNotifications}

// State is one immutable snapshot of everything the view renders.
type State struct {
	Status Status
	Tab    Tab

	Posts   []spaceapi.Post
	Page    int
	HasMore bool

	User     *spaceapi.User
	ReadOnly bool

	Notifications []spaceapi.Notification
	UnreadCount   int

	SelectedPost    *spaceapi.Post
	ModalSubmitting bool

	// Per post transient flags keyed by post id.
	Submitting map[string]bool
	Animating  map[string]bool

	// ProcessingID is the notification whose click is being resolved.
	ProcessingID string

	Error string
	Err   error

	PostsLoadedAt         time.Time
	NotificationsLoadedAt time.Time
}

func initialState() State {
	return State{
		Status:     Loading,
		Tab:        TabHome,
		Page:       1,
		HasMore:    true,
		ReadOnly:   true,
		Submitting: map[string]bool{},
		Animating:  map[string]bool{},
	}
}

// VisiblePosts returns the posts of the active tab. The saved tab filters the
// loaded feed by the bookmarked flag.
func (s State) VisiblePosts() []spaceapi.Post {
	switch s.Tab {
	case TabHome:
		return s.Posts
	case TabSaved:
		return lo.Filter(s.Posts, func(p spaceapi.Post, _ int) bool { return p.Bookmarked })
	}
	return nil
}

func clonePosts(posts []spaceapi.Post) []spaceapi.Post {
	if posts == nil {
		return nil
	}
	return lo.Map(posts, func(p spaceapi.Post, _ int) spaceapi.Post { return p.Clone() })
}

func (s State) clone() State {
	s.Posts = clonePosts(s.Posts)
	s.Notifications = slices.Clone(s.Notifications)
	s.Submitting = maps.Clone(s.Submitting)
	s.Animating = maps.Clone(s.Animating)

	if s.User != nil {
		user := *s.User
		s.User = &user
	}
	if s.SelectedPost != nil {
		post := s.SelectedPost.Clone()
		s.SelectedPost = &post
	}

	return s
}

func (s *State) post(id string) (*spaceapi.Post, bool) {
	i := slices.IndexFunc(s.Posts, func(p spaceapi.Post) bool { return p.ID == id })
	if i < 0 {
		return nil, false
	}
	return &s.Posts[i], true
}

// eachCopy applies fn to every copy of the post held in state: the list
// entry and the open modal.
func (s *State) eachCopy(id string, fn func(p *spaceapi.Post)) bool {
	found := false
	if p, ok := s.post(id); ok {
		fn(p)
		found = true
	}
	if s.SelectedPost != nil && s.SelectedPost.ID == id {
		fn(s.SelectedPost)
		found = true
	}
	return found
}

// merge replaces the list entry of the post, if loaded.
func (s *State) merge(post spaceapi.Post) {
	if p, ok := s.post(post.ID); ok {
		*p = post.Clone()
	}
}

func (s *State) setError(err error) {
	s.Err = err
	s.Error = spaceapi.UserMessage(err)
}

func (s *State) clearError() {
	s.Err = nil
	s.Error = ""
}

func (s *State) unread() int {
	return lo.CountBy(s.Notifications, func(n spaceapi.Notification) bool { return !n.Read })
}

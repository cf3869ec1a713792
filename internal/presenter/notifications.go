package presenter

import (
	"context"
	"slices"

	"safespace/pkg/spaceapi"
)

// HandleNotificationClick marks the notification read and opens its post.
// A copy already in the list is shown at once, then the post is fetched
// fresh. When that fails, the loaded or model-cached copy stays.
func (p *Presenter) HandleNotificationClick(ctx context.Context, n spaceapi.Notification) error {
	var wasUnread bool
	started := p.updateIf(func(s *State) bool {
		if s.ProcessingID == n.ID {
			return false
		}
		s.ProcessingID = n.ID

		wasUnread = !n.Read
		if i := slices.IndexFunc(s.Notifications, func(x spaceapi.Notification) bool { return x.ID == n.ID }); i >= 0 {
			wasUnread = !s.Notifications[i].Read
			s.Notifications[i].Read = true
		}
		if wasUnread && s.UnreadCount > 0 {
			s.UnreadCount--
		}

		if post, ok := s.post(n.Post.ID); ok {
			selected := post.Clone()
			s.SelectedPost = &selected
			s.ModalSubmitting = false
		}
		return true
	})
	if !started {
		return nil
	}

	if wasUnread {
		if err := p.feed.MarkNotificationRead(ctx, n.ID); err != nil {
			p.logger.Warn("cannot mark notification read", "notification", n.ID, "error", err)
		}
	}

	postID := n.Post.ID
	post, err := p.feed.GetPost(ctx, postID)
	if err != nil {
		err = spaceapi.Classify(err)

		stale, ok := p.loadedPost(postID)
		if !ok {
			stale, ok = p.feed.CachedPost(postID)
		}
		if !ok {
			p.fail(err, func(s *State) { s.ProcessingID = "" })
			return err
		}

		p.logger.Warn("cannot refresh post, showing the cached copy", "post", postID, "error", err)
		post = stale
	}

	p.update(func(s *State) {
		selected := post.Clone()
		s.SelectedPost = &selected
		s.ModalSubmitting = false
		s.merge(post)
		s.ProcessingID = ""
	})

	return nil
}

func (p *Presenter) loadedPost(id string) (spaceapi.Post, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if post, ok := p.state.post(id); ok {
		return post.Clone(), true
	}
	return spaceapi.Post{}, false
}

// LoadNotifications fetches the notification list.
func (p *Presenter) LoadNotifications(ctx context.Context) error {
	if !p.requireAuth() {
		return nil
	}

	list, err := p.feed.Notifications(ctx)
	if err != nil {
		err = spaceapi.Classify(err)
		p.fail(err, nil)
		return err
	}

	now := p.opts.Now()
	p.update(func(s *State) {
		s.Notifications = list
		s.UnreadCount = s.unread()
		s.NotificationsLoadedAt = now
	})

	return nil
}

// MarkAllRead clears the unread badge before the server acknowledges it and
// restores it if the call fails.
func (p *Presenter) MarkAllRead(ctx context.Context) error {
	if !p.requireAuth() {
		return nil
	}

	var (
		before      []spaceapi.Notification
		beforeCount int
	)
	p.update(func(s *State) {
		before = slices.Clone(s.Notifications)
		beforeCount = s.UnreadCount

		for i := range s.Notifications {
			s.Notifications[i].Read = true
		}
		s.UnreadCount = 0
	})

	if err := p.feed.MarkAllNotificationsRead(ctx); err != nil {
		err = spaceapi.Classify(err)
		p.update(func(s *State) {
			s.Notifications = before
			s.UnreadCount = beforeCount
		})
		p.flash(err)
		return err
	}

	return nil
}

// RefreshUnreadCount polls the unread badge.
func (p *Presenter) RefreshUnreadCount(ctx context.Context) error {
	if !p.feed.IsAuthenticated() {
		return nil
	}

	count, err := p.feed.UnreadCount(ctx)
	if err != nil {
		p.logger.Warn("cannot refresh unread count", "error", err)
		return spaceapi.Classify(err)
	}

	p.updateIf(func(s *State) bool {
		if s.UnreadCount == count {
			return false
		}
		s.UnreadCount = count
		return true
	})

	return nil
}

package presenter

import (
	"context"
	"slices"

	"safespace/pkg/spaceapi"
)

// SetActiveTab switches the view. Pagination resets only on an actual change
// and data is fetched only for tabs that are empty or stale. The saved tab
// never fetches: it filters the loaded feed.
func (p *Presenter) SetActiveTab(ctx context.Context, tab Tab) error {
	if !slices.Contains(Tabs, tab) {
		return spaceapi.Validation("unknown tab %q", tab)
	}

	var (
		homeStale          bool
		notificationsStale bool
		gen                int
	)
	now := p.opts.Now()

	changed := p.updateIf(func(s *State) bool {
		if s.Tab == tab {
			return false
		}

		s.Tab = tab
		s.Page = 1
		s.HasMore = true

		homeStale = len(s.Posts) == 0 || now.Sub(s.PostsLoadedAt) >= p.opts.StaleAfter
		notificationsStale = len(s.Notifications) == 0 || now.Sub(s.NotificationsLoadedAt) >= p.opts.StaleAfter

		// Only a reload replaces the home list. The saved tab filters it
		// and must not orphan a reload already in flight.
		if tab == TabHome && homeStale {
			p.generation++
			gen = p.generation
			s.Status = Loading
		}
		return true
	})
	if !changed {
		return nil
	}

	switch {
	case tab == TabHome && homeStale:
		return p.reloadHome(ctx, gen)
	case tab == TabNotifications && notificationsStale:
		return p.LoadNotifications(ctx)
	}

	return nil
}

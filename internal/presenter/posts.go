package presenter

import (
	"context"
	"slices"
	"strings"

	"github.com/samber/lo"

	"safespace/internal/dedup"
	"safespace/internal/metrics"
	"safespace/pkg/spaceapi"
)

type likeFields struct {
	liked bool
	count int
	likes []string
}

// flipLike toggles the like on post and returns the values it replaced.
func flipLike(post *spaceapi.Post) *likeFields {
	before := &likeFields{liked: post.Liked, count: post.LikesCount, likes: slices.Clone(post.Likes)}

	post.Liked = !post.Liked
	if post.Liked {
		post.LikesCount++
	} else if post.LikesCount > 0 {
		post.LikesCount--
	}
	return before
}

func (f *likeFields) restore(post *spaceapi.Post) {
	post.Liked = f.liked
	post.LikesCount = f.count
	post.Likes = slices.Clone(f.likes)
}

// ToggleLike flips the like locally before the server answers, then adopts
// the server's figures. A failed call restores the exact previous values of
// the list entry and of the open modal, each from its own copy.
func (p *Presenter) ToggleLike(ctx context.Context, postID string) error {
	if !p.requireAuth() {
		return nil
	}

	var listBefore, modalBefore *likeFields
	p.updateIf(func(s *State) bool {
		if post, ok := s.post(postID); ok {
			listBefore = flipLike(post)
		}
		if s.SelectedPost != nil && s.SelectedPost.ID == postID {
			modalBefore = flipLike(s.SelectedPost)
		}
		return listBefore != nil || modalBefore != nil
	})
	if listBefore == nil && modalBefore == nil {
		return spaceapi.Validation("post %s is not loaded", postID)
	}

	res, err := p.feed.LikePost(ctx, postID)
	if err != nil {
		err = spaceapi.Classify(err)
		p.logger.Warn("like failed, rolling back", "post", postID, "error", err)
		metrics.Rollbacks.WithLabelValues("like").Inc()

		p.update(func(s *State) {
			if post, ok := s.post(postID); ok && listBefore != nil {
				listBefore.restore(post)
			}
			if s.SelectedPost != nil && s.SelectedPost.ID == postID && modalBefore != nil {
				modalBefore.restore(s.SelectedPost)
			}
		})
		p.flash(err)

		if isAuthError(err) && p.navigator != nil {
			p.navigator.SignIn()
		}
		return err
	}

	p.update(func(s *State) {
		s.eachCopy(postID, func(post *spaceapi.Post) {
			post.Liked = res.Liked
			post.LikesCount = res.LikesCount
			if res.Likes != nil {
				post.Likes = slices.Clone(res.Likes)
			}
		})
	})

	return nil
}

// HandleBookmark toggles the bookmark and animates the post for a moment. The
// flag is taken from the bookmark list the server returns.
func (p *Presenter) HandleBookmark(ctx context.Context, postID string) error {
	if !p.requireAuth() {
		return nil
	}

	p.update(func(s *State) { s.Animating[postID] = true })
	p.after(p.opts.AnimationDelay, func() {
		p.updateIf(func(s *State) bool {
			if !s.Animating[postID] {
				return false
			}
			delete(s.Animating, postID)
			return true
		})
	})

	ids, err := p.feed.ToggleBookmark(ctx, postID)
	if err != nil {
		err = spaceapi.Classify(err)
		p.logger.Warn("bookmark failed", "post", postID, "error", err)
		p.flash(err)
		return err
	}

	bookmarked := lo.Contains(ids, postID)
	p.update(func(s *State) {
		s.eachCopy(postID, func(post *spaceapi.Post) { post.Bookmarked = bookmarked })
	})

	return nil
}

// HandleNewComment comments on the post open in the modal.
func (p *Presenter) HandleNewComment(ctx context.Context, content string) error {
	var postID string
	p.mu.Lock()
	if p.state.SelectedPost != nil {
		postID = p.state.SelectedPost.ID
	}
	p.mu.Unlock()

	if postID == "" {
		return nil
	}

	return p.submitComment(ctx, postID, content, true)
}

// HandleInlineComment comments on a post straight from the list.
func (p *Presenter) HandleInlineComment(ctx context.Context, postID, content string) error {
	return p.submitComment(ctx, postID, content, false)
}

func (p *Presenter) submitComment(ctx context.Context, postID, content string, modal bool) error {
	if !p.requireAuth() {
		return nil
	}

	if strings.TrimSpace(content) == "" {
		err := spaceapi.Validation("comment is empty")
		p.flash(err)
		return err
	}

	key := dedup.Key("comment", postID, content)

	started := p.updateIf(func(s *State) bool {
		if modal && s.ModalSubmitting || !modal && s.Submitting[postID] {
			return false
		}
		if !p.pending.Acquire(key) {
			return false
		}

		if modal {
			s.ModalSubmitting = true
		} else {
			s.Submitting[postID] = true
		}
		return true
	})
	if !started {
		p.logger.Debug("duplicate comment dropped", "post", postID)
		metrics.DuplicatesSuppressed.WithLabelValues("comment").Inc()
		return nil
	}

	comments, err := p.feed.AddComment(ctx, postID, content)
	p.pending.Release(key)

	done := func(s *State) {
		if modal {
			s.ModalSubmitting = false
		} else {
			delete(s.Submitting, postID)
		}
	}

	if err != nil {
		err = spaceapi.Classify(err)
		p.logger.Warn("comment failed", "post", postID, "error", err)

		if isAuthError(err) {
			p.update(done)
			if p.navigator != nil {
				p.navigator.SignIn()
			}
			return err
		}

		p.fail(err, done)
		return err
	}

	p.update(func(s *State) {
		done(s)
		s.eachCopy(postID, func(post *spaceapi.Post) {
			post.Comments = slices.Clone(comments)
			post.CommentsCount = len(comments)
		})
	})

	return nil
}

// CreatePost publishes a post and puts it on top of the feed.
func (p *Presenter) CreatePost(ctx context.Context, content string, anonymous bool) error {
	if strings.TrimSpace(content) == "" {
		err := spaceapi.Validation("post content is empty")
		p.fail(err, nil)
		return err
	}

	if !p.requireAuth() {
		return nil
	}

	key := dedup.Key("create", "", content)
	if !p.pending.Acquire(key) {
		metrics.DuplicatesSuppressed.WithLabelValues("create").Inc()
		return nil
	}

	post, err := p.feed.CreatePost(ctx, content, anonymous)
	p.pending.Release(key)
	if err != nil {
		err = spaceapi.Classify(err)
		p.flash(err)
		return err
	}

	p.update(func(s *State) {
		s.Posts = slices.DeleteFunc(s.Posts, func(existing spaceapi.Post) bool { return existing.ID == post.ID })
		s.Posts = slices.Insert(s.Posts, 0, post.Clone())
	})

	return nil
}

// EditPost replaces the post in place with the server's copy. The viewer
// relative flags are kept since the update endpoint does not compute them.
func (p *Presenter) EditPost(ctx context.Context, postID, content string) error {
	if !p.requireAuth() {
		return nil
	}

	updated, err := p.feed.UpdatePost(ctx, postID, content)
	if err != nil {
		err = spaceapi.Classify(err)
		p.flash(err)
		return err
	}

	p.update(func(s *State) {
		s.eachCopy(postID, func(post *spaceapi.Post) {
			liked, bookmarked := post.Liked, post.Bookmarked
			comments := post.Comments

			*post = updated.Clone()
			post.Liked = liked
			post.Bookmarked = bookmarked
			if len(post.Comments) == 0 && len(comments) > 0 {
				post.Comments = slices.Clone(comments)
				post.CommentsCount = max(post.CommentsCount, len(comments))
			}
		})
	})

	return nil
}

// DeletePost removes the post from the list and closes it if open.
func (p *Presenter) DeletePost(ctx context.Context, postID string) error {
	if !p.requireAuth() {
		return nil
	}

	if err := p.feed.DeletePost(ctx, postID); err != nil {
		err = spaceapi.Classify(err)
		p.flash(err)
		return err
	}

	p.update(func(s *State) {
		s.Posts = slices.DeleteFunc(s.Posts, func(post spaceapi.Post) bool { return post.ID == postID })
		if s.SelectedPost != nil && s.SelectedPost.ID == postID {
			s.SelectedPost = nil
			s.ModalSubmitting = false
		}
		delete(s.Submitting, postID)
		delete(s.Animating, postID)
	})

	return nil
}

// OpenPost shows the loaded copy right away and replaces it with a fresh one.
func (p *Presenter) OpenPost(ctx context.Context, postID string) error {
	var local bool
	p.update(func(s *State) {
		s.ModalSubmitting = false
		if post, ok := s.post(postID); ok {
			selected := post.Clone()
			s.SelectedPost = &selected
			local = true
		} else {
			s.SelectedPost = nil
		}
	})

	fresh, err := p.feed.GetPost(ctx, postID)
	if err != nil {
		err = spaceapi.Classify(err)
		if local {
			p.logger.Warn("cannot refresh post, showing the loaded copy", "post", postID, "error", err)
			return nil
		}
		p.fail(err, nil)
		return err
	}

	p.update(func(s *State) {
		selected := fresh.Clone()
		s.SelectedPost = &selected
		s.merge(fresh)
	})

	return nil
}

func (p *Presenter) ClosePost() {
	p.updateIf(func(s *State) bool {
		if s.SelectedPost == nil {
			return false
		}
		s.SelectedPost = nil
		s.ModalSubmitting = false
		return true
	})
}

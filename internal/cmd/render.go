package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/k0kubun/pp"

	"safespace/internal/presenter"
	"safespace/pkg/spaceapi"
)

// renderer prints presenter output. The pretty format dumps the values as
// they are, text is meant for reading.
type renderer struct {
	w      io.Writer
	pretty bool
}

func newRenderer(w io.Writer, format string) *renderer {
	return &renderer{w: w, pretty: format == "pretty"}
}

func (r *renderer) dump(v any) {
	pp.Fprintln(r.w, v)
}

func (r *renderer) Feed(s presenter.State) {
	posts := s.VisiblePosts()
	if r.pretty {
		r.dump(posts)
		return
	}

	if s.User != nil {
		fmt.Fprintf(r.w, "Signed in as %s · %d unread\n\n", s.User.Name, s.UnreadCount)
	} else if s.ReadOnly {
		fmt.Fprintln(r.w, "Read-only feed")
		fmt.Fprintln(r.w)
	}

	if len(posts) == 0 {
		fmt.Fprintln(r.w, "No posts yet.")
	}
	for _, post := range posts {
		r.post(post, false)
	}

	if s.HasMore {
		fmt.Fprintf(r.w, "More posts available after page %d.\n", s.Page)
	}
	r.error(s)
}

func (r *renderer) Post(post spaceapi.Post) {
	if r.pretty {
		r.dump(post)
		return
	}
	r.post(post, true)
}

func (r *renderer) post(post spaceapi.Post, withComments bool) {
	var marks []string
	if post.Liked {
		marks = append(marks, "liked")
	}
	if post.Bookmarked {
		marks = append(marks, "saved")
	}
	if post.Placeholder {
		marks = append(marks, "offline")
	}

	fmt.Fprintf(r.w, "[%s] %s · %s\n", post.ID, post.Author.Name, ago(post.CreatedAt))
	for _, line := range strings.Split(post.Content, "\n") {
		fmt.Fprintf(r.w, "  %s\n", line)
	}
	fmt.Fprintf(r.w, "  %d likes · %d comments", post.LikesCount, post.CommentsCount)
	if len(marks) > 0 {
		fmt.Fprintf(r.w, " · %s", strings.Join(marks, ", "))
	}
	fmt.Fprintln(r.w)

	if withComments {
		for _, c := range post.Comments {
			edited := ""
			if c.Edited() {
				edited = " (edited)"
			}
			fmt.Fprintf(r.w, "    %s: %s%s\n", c.Author.Name, c.Content, edited)
		}
	}
	fmt.Fprintln(r.w)
}

func (r *renderer) Notifications(s presenter.State) {
	if r.pretty {
		r.dump(s.Notifications)
		return
	}

	fmt.Fprintf(r.w, "%d unread\n\n", s.UnreadCount)
	for _, n := range s.Notifications {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(r.w, "%s [%s] %s\n", mark, n.ID, describe(n))
	}
	r.error(s)
}

func (r *renderer) User(user spaceapi.User, offline bool) {
	if r.pretty {
		r.dump(user)
		return
	}

	fmt.Fprintf(r.w, "%s <%s>", user.Name, user.Email)
	if offline {
		fmt.Fprint(r.w, " (offline copy)")
	}
	fmt.Fprintln(r.w)
}

func (r *renderer) Line(format string, args ...any) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *renderer) error(s presenter.State) {
	if s.Error != "" {
		fmt.Fprintf(r.w, "! %s\n", s.Error)
	}
}

func describe(n spaceapi.Notification) string {
	actor := n.Actor.Name
	if actor == "" {
		actor = "Someone"
	}

	var action string
	switch n.Type {
	case spaceapi.NotificationLike:
		action = "liked your post"
	case spaceapi.NotificationComment:
		action = "commented on your post"
	case spaceapi.NotificationBookmark:
		action = "saved your post"
	default:
		action = "interacted with your post"
	}

	if n.Post.Content == "" {
		return actor + " " + action
	}
	return fmt.Sprintf("%s %s: %q", actor, action, preview(n.Post.Content, 40))
}

func preview(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "just now"
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Format("Jan 2, 2006")
}

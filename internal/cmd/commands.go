package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"safespace/internal/cmd/flags"
	"safespace/internal/metrics"
	"safespace/internal/presenter"
	"safespace/pkg/retry"
	"safespace/pkg/spaceapi"
)

var ErrMissingArgument = errors.New("missing argument")

func argument(c *cli.Command, index int, name string) (string, error) {
	value := strings.TrimSpace(c.Args().Get(index))
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return value, nil
}

// text joins the arguments from index on.
func text(c *cli.Command, index int, name string) (string, error) {
	value := strings.TrimSpace(strings.Join(c.Args().Slice()[min(index, c.Args().Len()):], " "))
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return value, nil
}

// transient reports whether a failed page load is worth retrying.
func transient(err error, _ int) bool {
	return errors.Is(err, spaceapi.ErrNetwork) || errors.Is(err, spaceapi.ErrServer)
}

var feedCmd = &cli.Command{
	Name:  "feed",
	Usage: "Show the feed",
	Flags: []cli.Flag{flags.Pages, flags.Tab},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c, func(ctx context.Context, a *app) error {
			if err := a.presenter.Initialize(ctx); err != nil {
				return err
			}

			for range c.Int(flags.Pages.Name) - 1 {
				if !a.presenter.State().HasMore {
					break
				}
				err := retry.Do(ctx, retry.Default, a.presenter.LoadMorePosts, transient)
				if err != nil {
					a.Logger.Warn("stopped loading more posts", "error", err)
					break
				}
				if a.presenter.State().Err != nil {
					a.presenter.DismissError()
				}
			}

			if tab := presenter.Tab(c.String(flags.Tab.Name)); tab != presenter.TabHome {
				if err := a.presenter.SetActiveTab(ctx, tab); err != nil {
					return err
				}
			}

			a.renderer.Feed(a.presenter.State())
			return nil
		})
	},
}

var postCmd = &cli.Command{
	Name:      "post",
	Usage:     "Publish a post",
	ArgsUsage: "<content...>",
	Flags:     []cli.Flag{flags.Anonymous},
	Action: func(ctx context.Context, c *cli.Command) error {
		content, err := text(c, 0, "content")
		if err != nil {
			return err
		}

		return run(ctx, c, func(ctx context.Context, a *app) error {
			if err := a.presenter.CreatePost(ctx, content, c.Bool(flags.Anonymous.Name)); err != nil {
				return err
			}
			if err := a.signedIn(); err != nil {
				return err
			}

			if posts := a.presenter.State().Posts; len(posts) > 0 {
				a.renderer.Post(posts[0])
			}
			return nil
		})
	},
}

type postAction func(ctx context.Context, p *presenter.Presenter, postID, content string) error

// onPost opens the post, applies action and prints the result. With
// withContent the arguments after the post id are the content.
func onPost(name, usage string, withContent bool, action postAction) *cli.Command {
	argsUsage := "<post-id>"
	if withContent {
		argsUsage += " <content...>"
	}

	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: argsUsage,
		Action: func(ctx context.Context, c *cli.Command) error {
			postID, err := argument(c, 0, "post id")
			if err != nil {
				return err
			}

			var content string
			if withContent {
				if content, err = text(c, 1, "content"); err != nil {
					return err
				}
			}

			return run(ctx, c, func(ctx context.Context, a *app) error {
				if err := a.presenter.OpenPost(ctx, postID); err != nil {
					return err
				}
				if err := action(ctx, a.presenter, postID, content); err != nil {
					return err
				}
				if err := a.signedIn(); err != nil {
					return err
				}

				if selected := a.presenter.State().SelectedPost; selected != nil {
					a.renderer.Post(*selected)
				}
				return nil
			})
		},
	}
}

var showCmd = onPost("show", "Show a post with its comments", false,
	func(context.Context, *presenter.Presenter, string, string) error { return nil })

var likeCmd = onPost("like", "Like or unlike a post", false,
	func(ctx context.Context, p *presenter.Presenter, postID, _ string) error {
		return p.ToggleLike(ctx, postID)
	})

var bookmarkCmd = onPost("bookmark", "Save or unsave a post", false,
	func(ctx context.Context, p *presenter.Presenter, postID, _ string) error {
		return p.HandleBookmark(ctx, postID)
	})

var commentCmd = onPost("comment", "Comment on a post", true,
	func(ctx context.Context, p *presenter.Presenter, _, content string) error {
		return p.HandleNewComment(ctx, content)
	})

var editCmd = onPost("edit", "Edit one of your posts", true,
	func(ctx context.Context, p *presenter.Presenter, postID, content string) error {
		return p.EditPost(ctx, postID, content)
	})

var deleteCmd = &cli.Command{
	Name:      "delete",
	Usage:     "Delete one of your posts",
	ArgsUsage: "<post-id>",
	Action: func(ctx context.Context, c *cli.Command) error {
		postID, err := argument(c, 0, "post id")
		if err != nil {
			return err
		}

		return run(ctx, c, func(ctx context.Context, a *app) error {
			if err := a.presenter.DeletePost(ctx, postID); err != nil {
				return err
			}
			if err := a.signedIn(); err != nil {
				return err
			}

			a.renderer.Line("Deleted %s.", postID)
			return nil
		})
	},
}

var notificationsCmd = &cli.Command{
	Name:  "notifications",
	Usage: "List notifications",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "mark-all-read", Usage: "Mark every notification read"},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c, func(ctx context.Context, a *app) error {
			if err := a.presenter.LoadNotifications(ctx); err != nil {
				return err
			}
			if err := a.signedIn(); err != nil {
				return err
			}

			if c.Bool("mark-all-read") {
				if err := a.presenter.MarkAllRead(ctx); err != nil {
					return err
				}
			}

			a.renderer.Notifications(a.presenter.State())
			return nil
		})
	},
}

var openNotificationCmd = &cli.Command{
	Name:      "open-notification",
	Usage:     "Open the post a notification points at",
	ArgsUsage: "<notification-id>",
	Action: func(ctx context.Context, c *cli.Command) error {
		id, err := argument(c, 0, "notification id")
		if err != nil {
			return err
		}

		return run(ctx, c, func(ctx context.Context, a *app) error {
			if err := a.presenter.LoadNotifications(ctx); err != nil {
				return err
			}
			if err := a.signedIn(); err != nil {
				return err
			}

			n, ok := lo.Find(a.presenter.State().Notifications, func(n spaceapi.Notification) bool { return n.ID == id })
			if !ok {
				return spaceapi.Validation("notification %s not found", id)
			}

			if err := a.presenter.HandleNotificationClick(ctx, n); err != nil {
				return err
			}

			if selected := a.presenter.State().SelectedPost; selected != nil {
				a.renderer.Post(*selected)
			}
			return nil
		})
	},
}

var watchCmd = &cli.Command{
	Name:  "watch",
	Usage: "Show the feed and follow the unread badge",
	Flags: []cli.Flag{flags.Interval},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c, func(ctx context.Context, a *app) error {
			group, ctx := errgroup.WithContext(ctx)

			if a.Config.MetricsAddr != "" {
				server := &metrics.HTTPServer{Logger: a.Logger, Config: a.Config, Checks: a.health}
				if err := a.init(ctx, server); err != nil {
					return err
				}
				group.Go(func() error { return server.Run(ctx) })
			}

			var last presenter.State
			unsubscribe := a.presenter.Subscribe(func(s presenter.State) {
				if s.UnreadCount != last.UnreadCount && s.Status == presenter.Ready {
					a.renderer.Line("%s: %d unread", time.Now().Format(time.TimeOnly), s.UnreadCount)
				}
				last = s
			})
			defer unsubscribe()

			if err := a.presenter.Initialize(ctx); err != nil {
				return err
			}
			a.renderer.Feed(a.presenter.State())

			group.Go(func() error {
				ticker := time.NewTicker(c.Duration(flags.Interval.Name))
				defer ticker.Stop()

				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
						if err := a.presenter.RefreshUnreadCount(ctx); err != nil {
							a.Logger.Warn("cannot poll unread count", "error", err)
						}
					}
				}
			})

			return group.Wait()
		})
	},
}

var loginCmd = &cli.Command{
	Name:      "login",
	Usage:     "Sign in",
	ArgsUsage: "<email>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "password", Usage: "The account password", Sources: cli.EnvVars("SAFESPACE_PASSWORD")},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		email, err := argument(c, 0, "email")
		if err != nil {
			return err
		}

		return run(ctx, c, func(ctx context.Context, a *app) error {
			session, err := a.client.Login(ctx, email, c.String("password"))
			if err != nil {
				return err
			}
			return a.signIn(ctx, session)
		})
	},
}

var registerCmd = &cli.Command{
	Name:      "register",
	Usage:     "Create an account and sign in",
	ArgsUsage: "<name> <email>",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "password", Usage: "The account password", Sources: cli.EnvVars("SAFESPACE_PASSWORD")},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		name, err := argument(c, 0, "name")
		if err != nil {
			return err
		}
		email, err := argument(c, 1, "email")
		if err != nil {
			return err
		}

		return run(ctx, c, func(ctx context.Context, a *app) error {
			session, err := a.client.Register(ctx, name, email, c.String("password"))
			if err != nil {
				return err
			}
			return a.signIn(ctx, session)
		})
	},
}

func (a *app) signIn(ctx context.Context, session spaceapi.Session) error {
	a.model.Forget()
	if err := a.store.SaveUser(ctx, session.User); err != nil {
		a.Logger.Warn("cannot save profile snapshot", "error", err)
	}
	a.renderer.Line("Signed in as %s.", session.User.Name)
	return nil
}

var logoutCmd = &cli.Command{
	Name:  "logout",
	Usage: "Sign out",
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c, func(ctx context.Context, a *app) error {
			if err := a.client.Logout(ctx); err != nil {
				return err
			}
			a.model.Forget()
			a.renderer.Line("Signed out.")
			return nil
		})
	},
}

var whoamiCmd = &cli.Command{
	Name:  "whoami",
	Usage: "Show the signed in user",
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c, func(ctx context.Context, a *app) error {
			if !a.model.IsAuthenticated() {
				a.navigator.SignIn()
				return ErrSignInRequired
			}

			user, err := a.model.Me(ctx)
			if err == nil {
				if err := a.store.SaveUser(ctx, user); err != nil {
					a.Logger.Warn("cannot save profile snapshot", "error", err)
				}
				a.renderer.User(user, false)
				return nil
			}

			cached, ok, loadErr := a.store.LoadUser(ctx)
			if loadErr != nil || !ok {
				return err
			}
			a.Logger.Warn("profile unavailable, showing the saved copy", "error", err)
			a.renderer.User(cached, true)
			return nil
		})
	},
}

var avatarCmd = &cli.Command{
	Name:      "avatar",
	Usage:     "Upload a profile picture",
	ArgsUsage: "<image-file>",
	Action: func(ctx context.Context, c *cli.Command) error {
		path, err := argument(c, 0, "image file")
		if err != nil {
			return err
		}

		return run(ctx, c, func(ctx context.Context, a *app) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			user, err := a.client.UploadAvatar(ctx, filepath.Base(path), f)
			if err != nil {
				return err
			}
			a.model.Forget()
			a.renderer.Line("Avatar updated: %s", user.Avatar)
			return nil
		})
	},
}

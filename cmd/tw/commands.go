package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tw/internal/budget"
	"tw/internal/config"
	"tw/internal/display"
	"tw/internal/mcpserver"
	"tw/internal/metrics"
	"tw/internal/model"
	"tw/internal/store/history"
	"tw/internal/theme"
	"tw/internal/util"
)

const (
	defaultFeedCount = 10
	minHomeCount     = 5
	maxHomeCount     = 100
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the credentials file and a default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("init", func() error {
				out := cmd.OutOrStdout()
				theme.PrintBanner(out)
				wrote, err := config.InitCredentials(a.cfg.CredentialsPath)
				if err != nil {
					return fmt.Errorf("init credentials: %w", err)
				}
				if wrote {
					fmt.Fprintf(out, "Credentials template written to %s\n", a.cfg.CredentialsPath)
					fmt.Fprintln(out, "Fill in api_key, api_key_secret, access_token and access_token_secret.")
				} else {
					fmt.Fprintf(out, "Credentials file %s already exists, left untouched\n", a.cfg.CredentialsPath)
				}
				if !fileExists(a.configPath) {
					if err := config.Save(a.configPath, a.cfg); err != nil {
						return fmt.Errorf("write config: %w", err)
					}
					fmt.Fprintf(out, "Config written to %s\n", a.configPath)
				}
				return nil
			})
		},
	}
}

func newMeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("me", func() error {
				_, c, err := a.session()
				if err != nil {
					return err
				}
				me, err := c.Me(cmd.Context())
				if err != nil {
					return err
				}
				display.User(cmd.OutOrStdout(), me, time.Now())
				return nil
			})
		},
	}
}

func newPostCmd(a *app) *cobra.Command {
	var replyTo string
	var thread bool
	cmd := &cobra.Command{
		Use:     "post <message>",
		Aliases: []string{"p", "tweet"},
		Short:   "Publish a post",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("post", func() error {
				text := strings.TrimSpace(strings.Join(args, " "))
				if text == "" {
					return errors.New("empty message")
				}
				p, c, err := a.session()
				if err != nil {
					return err
				}
				db, err := a.openHistory()
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer db.Close()
				if err := budget.Allow(cmd.Context(), db, a.cfg.Budget, "post", time.Now()); err != nil {
					return err
				}

				var posts []model.CreatedPost
				if thread {
					posts, err = c.PostThread(cmd.Context(), util.SplitThread(text, util.MaxPostRunes), replyTo)
				} else {
					var post model.CreatedPost
					post, err = c.CreatePost(cmd.Context(), text, replyTo)
					if err == nil {
						posts = []model.CreatedPost{post}
					}
				}
				// Record whatever was published, even when a thread stopped early.
				parent := replyTo
				for _, post := range posts {
					rec := history.Post{ID: post.ID, Profile: a.cfg.Profile, Text: post.Text, InReplyTo: parent, CreatedAt: time.Now().UTC()}
					if rerr := db.RecordPost(cmd.Context(), rec); rerr != nil {
						a.log.Warn().Err(rerr).Str("id", post.ID).Msg("history record failed")
					}
					if rerr := budget.Record(cmd.Context(), db, "post", rec.CreatedAt, map[string]string{"profile": a.cfg.Profile, "id": post.ID}); rerr != nil {
						a.log.Warn().Err(rerr).Msg("history event failed")
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Posted: %s\n", display.StatusURL(handle(p), post.ID))
					parent = post.ID
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "id of the post to reply to")
	cmd.Flags().BoolVar(&thread, "thread", false, "split the message on blank lines and post it as a thread")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|last>",
		Short: "Delete a post; \"last\" deletes your most recent post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("delete", func() error {
				ctx := cmd.Context()
				_, c, err := a.session()
				if err != nil {
					return err
				}
				db, err := a.openHistory()
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer db.Close()

				id := args[0]
				if id == "last" {
					last, err := db.LastPost(ctx, a.cfg.Profile)
					if errors.Is(err, history.ErrNotFound) {
						return errors.New("no post in history to delete")
					}
					if err != nil {
						return err
					}
					id = last.ID
				}
				res, err := c.DeletePost(ctx, id)
				if err != nil {
					return err
				}
				if !res.Deleted {
					fmt.Fprintf(cmd.OutOrStdout(), "Post %s was not deleted\n", id)
					return nil
				}
				if err := db.MarkDeleted(ctx, id, time.Now().UTC()); err != nil && !errors.Is(err, history.ErrNotFound) {
					a.log.Warn().Err(err).Str("id", id).Msg("history update failed")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
}

func newLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("like", func() error { return a.setLike(cmd, args[0], true) })
		},
	}
}

func newUnlikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlike <id>",
		Short: "Remove your like from a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("unlike", func() error { return a.setLike(cmd, args[0], false) })
		},
	}
}

func (a *app) setLike(cmd *cobra.Command, tweetID string, like bool) error {
	ctx := cmd.Context()
	event := "unlike"
	if like {
		event = "like"
	}
	_, c, err := a.session()
	if err != nil {
		return err
	}
	db, err := a.openHistory()
	if err != nil {
		a.log.Warn().Err(err).Msg("history unavailable")
		db = nil
	} else {
		defer db.Close()
	}
	if err := budget.Allow(ctx, db, a.cfg.Budget, event, time.Now()); err != nil {
		return err
	}
	me, err := c.Me(ctx)
	if err != nil {
		return err
	}
	var res model.LikeResult
	if like {
		res, err = c.Like(ctx, me.ID, tweetID)
	} else {
		res, err = c.Unlike(ctx, me.ID, tweetID)
	}
	if err != nil {
		return err
	}
	payload := map[string]any{"profile": a.cfg.Profile, "tweet_id": tweetID, "liked": res.Liked}
	if err := budget.Record(ctx, db, event, time.Now(), payload); err != nil {
		a.log.Warn().Err(err).Msg("history event failed")
	}
	if res.Liked {
		fmt.Fprintf(cmd.OutOrStdout(), "Liked %s\n", tweetID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Unliked %s\n", tweetID)
	}
	return nil
}

func parseCount(raw []string, def int) (int, error) {
	if len(raw) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(raw[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid count %q", raw[0])
	}
	return n, nil
}

func newFeedCmd(a *app) *cobra.Command {
	var onlyNew bool
	cmd := &cobra.Command{
		Use:   "feed [count]",
		Short: "Read your home timeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("feed", func() error {
				ctx := cmd.Context()
				count, err := parseCount(args, defaultFeedCount)
				if err != nil {
					return err
				}
				_, c, err := a.session()
				if err != nil {
					return err
				}
				var db *history.DB
				cursor := "feed:" + a.cfg.Profile
				sinceID := ""
				if onlyNew {
					if db, err = a.openHistory(); err != nil {
						return fmt.Errorf("open history: %w", err)
					}
					defer db.Close()
					if sinceID, err = db.LoadCursor(ctx, cursor); err != nil {
						return err
					}
				}
				items, err := c.Feed(ctx, count, sinceID)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing new.")
					return nil
				}
				display.Feed(cmd.OutOrStdout(), items, time.Now())
				if db != nil {
					return db.SaveCursor(ctx, cursor, items[0].IDStr)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&onlyNew, "new", false, "only show posts newer than the last feed read")
	return cmd
}

func newHomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home [count]",
		Short: fmt.Sprintf("Show your own recent posts (%d to %d)", minHomeCount, maxHomeCount),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("home", func() error {
				ctx := cmd.Context()
				count, err := parseCount(args, defaultFeedCount)
				if err != nil {
					return err
				}
				if count < minHomeCount || count > maxHomeCount {
					return fmt.Errorf("count must be between %d and %d", minHomeCount, maxHomeCount)
				}
				_, c, err := a.session()
				if err != nil {
					return err
				}
				me, err := c.Me(ctx)
				if err != nil {
					return err
				}
				items, err := c.HomeTimeline(ctx, me.ID, count)
				if err != nil {
					return err
				}
				display.Home(cmd.OutOrStdout(), items, time.Now())
				return nil
			})
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List posts published from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run("history", func() error {
				db, err := a.openHistory()
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer db.Close()
				posts, err := db.ListPosts(cmd.Context(), a.cfg.Profile, limit)
				if err != nil {
					return err
				}
				display.Posts(cmd.OutOrStdout(), posts, time.Now())
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of posts to list")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// Skips config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			theme.PrintBanner(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), theme.VersionLine(version, revision))
		},
	}
}

func newMCPCmd(a *app) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the API operations as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, err := a.session()
			if err != nil {
				return err
			}
			h := &mcpserver.Handlers{API: c, Profile: a.cfg.Profile, Budget: a.cfg.Budget, Log: a.log}
			if db, err := a.openHistory(); err != nil {
				a.log.Warn().Err(err).Msg("history unavailable, posts will not be recorded")
			} else {
				defer db.Close()
				h.History = db
			}
			metrics.StartServer(metricsAddr)
			a.log.Info().Str("profile", a.cfg.Profile).Msg("mcp server starting on stdio")
			return mcpserver.ServeStdio(mcpserver.New(h, version))
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address (e.g. :9090)")
	return cmd
}

func handle(p config.Profile) string {
	if p.Handle != "" {
		return strings.TrimPrefix(p.Handle, "@")
	}
	return "i"
}

// Package display renders API results for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tw/internal/model"
	"tw/internal/store/history"
)

const rule = "---------------------------------"

// StatusURL is the public link of a post.
func StatusURL(user, id string) string {
	return "https://twitter.com/" + user + "/status/" + id
}

func when(t, now time.Time) string {
	if t.IsZero() {
		return "unknown time"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// User prints the account summary.
func User(w io.Writer, u model.User, now time.Time) {
	fmt.Fprintf(w, "             ID: %s\n", u.ID)
	fmt.Fprintf(w, "       Username: %s\n", u.Username)
	fmt.Fprintf(w, "   Display name: %s\n", u.Name)
	fmt.Fprintf(w, "Account created: %s (%s)\n", u.CreatedAt.Format(time.RFC3339), when(u.CreatedAt, now))
	if u.PinnedTweetID != "" {
		fmt.Fprintf(w, "   Pinned tweet: %s\n", StatusURL(u.Username, u.PinnedTweetID))
	}
}

// Feed prints legacy timeline statuses.
func Feed(w io.Writer, items []model.FeedItem, now time.Time) {
	for _, it := range items {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%s, @%s\n", it.User.Name, it.User.ScreenName)
		if it.RetweetedStatus != nil {
			fmt.Fprintf(w, "Retweeted from: %s, @%s\n", it.RetweetedStatus.User.Name, it.RetweetedStatus.User.ScreenName)
		}
		if it.InReplyToScreenName != "" {
			fmt.Fprintf(w, "Replied to: %s - %s\n", it.InReplyToScreenName, StatusURL(it.InReplyToScreenName, it.InReplyToStatusIDStr))
		}
		fmt.Fprintf(w, "\n%s\n\n", it.DisplayText())
		fmt.Fprintf(w, "%s Retweets%s      %s Likes%s\n",
			humanize.Comma(int64(it.RetweetCount)), mark(it.Retweeted),
			humanize.Comma(int64(it.FavoriteCount)), mark(it.Favorited))
		ts, err := it.Time()
		if err != nil {
			fmt.Fprintf(w, "%s\n%s\n", StatusURL(it.User.ScreenName, it.IDStr), it.CreatedAt)
			continue
		}
		fmt.Fprintf(w, "%s\n%s\n", StatusURL(it.User.ScreenName, it.IDStr), when(ts, now))
	}
}

func mark(b bool) string {
	if b {
		return " (you)"
	}
	return ""
}

// Home prints v2 timeline posts.
func Home(w io.Writer, items []model.HomeItem, now time.Time) {
	for _, it := range items {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%s\n\n", it.Text)
		m := it.PublicMetrics
		fmt.Fprintf(w, "%s Replies      %s Retweets      %s Quotes      %s Likes\n",
			humanize.Comma(int64(m.ReplyCount)), humanize.Comma(int64(m.RetweetCount)),
			humanize.Comma(int64(m.QuoteCount)), humanize.Comma(int64(m.LikeCount)))
		fmt.Fprintf(w, "%s\n%s\n", StatusURL(it.AuthorID, it.ID), when(it.CreatedAt, now))
	}
}

// Posts prints the local post history.
func Posts(w io.Writer, posts []history.Post, now time.Time) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts recorded yet.")
		return
	}
	for _, p := range posts {
		state := ""
		if p.Deleted() {
			state = " [deleted]"
		}
		text := strings.ReplaceAll(p.Text, "\n", " ")
		if r := []rune(text); len(r) > 60 {
			text = string(r[:57]) + "..."
		}
		fmt.Fprintf(w, "%-20s %-14s%s  %s\n", p.ID, when(p.CreatedAt, now), state, text)
	}
}

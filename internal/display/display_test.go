package display

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tw/internal/model"
	"tw/internal/store/history"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestUser(t *testing.T) {
	var buf bytes.Buffer
	User(&buf, model.User{ID: "1", Username: "tw_dev", Name: "Tw", CreatedAt: now.Add(-48 * time.Hour), PinnedTweetID: "9"}, now)
	out := buf.String()
	assert.Contains(t, out, "Username: tw_dev")
	assert.Contains(t, out, "2 days ago")
	assert.Contains(t, out, "https://twitter.com/tw_dev/status/9")
}

func TestFeed(t *testing.T) {
	var buf bytes.Buffer
	Feed(&buf, []model.FeedItem{{
		CreatedAt:            now.Add(-time.Hour).Format(time.RubyDate),
		IDStr:                "5",
		Text:                 "RT @a: hi",
		User:                 model.FeedUser{Name: "B", ScreenName: "b"},
		RetweetCount:         1200,
		Favorited:            true,
		InReplyToScreenName:  "c",
		InReplyToStatusIDStr: "4",
		RetweetedStatus:      &model.RetweetSource{Text: "hi", User: model.FeedUser{Name: "A", ScreenName: "a"}},
	}}, now)
	out := buf.String()
	assert.Contains(t, out, "Retweeted from: A, @a")
	assert.Contains(t, out, "Replied to: c - https://twitter.com/c/status/4")
	assert.Contains(t, out, "\nhi\n")
	assert.Contains(t, out, "1,200 Retweets")
	assert.Contains(t, out, "0 Likes (you)")
	assert.Contains(t, out, "1 hour ago")
}

func TestHome(t *testing.T) {
	var buf bytes.Buffer
	Home(&buf, []model.HomeItem{{ID: "1", Text: "hello", AuthorID: "7", CreatedAt: now.Add(-time.Minute),
		PublicMetrics: model.PublicMetrics{ReplyCount: 2, LikeCount: 3}}}, now)
	out := buf.String()
	assert.Contains(t, out, "2 Replies      0 Retweets      0 Quotes      3 Likes")
	assert.Contains(t, out, "https://twitter.com/7/status/1")
}

func TestPosts(t *testing.T) {
	var buf bytes.Buffer
	Posts(&buf, nil, now)
	assert.Contains(t, buf.String(), "No posts")

	buf.Reset()
	Posts(&buf, []history.Post{{ID: "1", Text: "gone", CreatedAt: now, DeletedAt: now}}, now)
	assert.Contains(t, buf.String(), "[deleted]")
}

package model

import "time"

// CreatedPost is the result of creating a post.
type CreatedPost struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// DeleteResult is the result of deleting a post.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// LikeResult is the result of liking or unliking a post.
type LikeResult struct {
	Liked bool `json:"liked"`
}

// User is the authenticated account summary.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	PinnedTweetID string    `json:"pinned_tweet_id,omitempty"`
}

// FeedUser is the author block of a legacy timeline status.
type FeedUser struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// RetweetSource is the original status of a retweet.
type RetweetSource struct {
	Text string   `json:"text"`
	User FeedUser `json:"user"`
}

// FeedItem is one status from the legacy v1.1 home timeline.
type FeedItem struct {
	CreatedAt            string         `json:"created_at"`
	IDStr                string         `json:"id_str"`
	Text                 string         `json:"text"`
	User                 FeedUser       `json:"user"`
	RetweetCount         int            `json:"retweet_count"`
	FavoriteCount        int            `json:"favorite_count"`
	Favorited            bool           `json:"favorited"`
	Retweeted            bool           `json:"retweeted"`
	InReplyToStatusIDStr string         `json:"in_reply_to_status_id_str,omitempty"`
	InReplyToScreenName  string         `json:"in_reply_to_screen_name,omitempty"`
	RetweetedStatus      *RetweetSource `json:"retweeted_status,omitempty"`
}

// Time parses the legacy created_at format (Mon Jan 02 15:04:05 -0700 2006).
func (f FeedItem) Time() (time.Time, error) { return time.Parse(time.RubyDate, f.CreatedAt) }

// DisplayText is the retweeted text for retweets and the status text otherwise.
func (f FeedItem) DisplayText() string {
	if f.RetweetedStatus != nil {
		return f.RetweetedStatus.Text
	}
	return f.Text
}

// PublicMetrics are the engagement counters of a v2 post.
type PublicMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// HomeItem is one post from the v2 user timeline.
type HomeItem struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	AuthorID      string        `json:"author_id"`
	CreatedAt     time.Time     `json:"created_at"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
}

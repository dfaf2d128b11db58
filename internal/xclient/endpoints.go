package xclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"tw/internal/model"
)

// Operation names, used as the prefix of every error.
const (
	OpCreatePost   = "create post"
	OpDeletePost   = "delete post"
	OpFeed         = "fetch legacy timeline"
	OpMe           = "fetch own user"
	OpHomeTimeline = "fetch home timeline"
	OpLike         = "like post"
	OpUnlike       = "unlike post"
	OpBearerToken  = "fetch bearer token"
	OpPostThread   = "post thread"
)

type createPostBody struct {
	Text  string     `json:"text"`
	Reply *replyBody `json:"reply,omitempty"`
}

type replyBody struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

// CreatePost publishes text. A non-empty inReplyTo makes it a reply.
func (c *Client) CreatePost(ctx context.Context, text, inReplyTo string) (model.CreatedPost, error) {
	body := createPostBody{Text: text}
	if inReplyTo != "" {
		body.Reply = &replyBody{InReplyToTweetID: inReplyTo}
	}
	resp, err := c.do(ctx, request{op: OpCreatePost, method: http.MethodPost, path: "/2/tweets", body: body})
	if err != nil {
		return model.CreatedPost{}, err
	}
	out, err := decodeData[model.CreatedPost](OpCreatePost, resp)
	if err != nil {
		return out, err
	}
	if out.ID == "" {
		return model.CreatedPost{}, &DecodeError{Op: OpCreatePost, Status: resp.status, Err: errors.New("missing post id")}
	}
	return out, nil
}

// PostThread publishes parts as a reply chain. Calls are serialized because
// each reply needs the previous id. On failure the posts created so far are
// returned with the error.
func (c *Client) PostThread(ctx context.Context, parts []string, inReplyTo string) ([]model.CreatedPost, error) {
	if len(parts) == 0 {
		return nil, errors.New(OpPostThread + ": no parts")
	}
	out := make([]model.CreatedPost, 0, len(parts))
	parent := inReplyTo
	for _, p := range parts {
		post, err := c.CreatePost(ctx, p, parent)
		if err != nil {
			return out, err
		}
		out = append(out, post)
		parent = post.ID
	}
	return out, nil
}

// DeletePost deletes a post owned by the authenticated user.
func (c *Client) DeletePost(ctx context.Context, id string) (model.DeleteResult, error) {
	if id == "" {
		return model.DeleteResult{}, errors.New(OpDeletePost + ": empty id")
	}
	resp, err := c.do(ctx, request{op: OpDeletePost, method: http.MethodDelete, path: "/2/tweets/" + url.PathEscape(id)})
	if err != nil {
		return model.DeleteResult{}, err
	}
	return decodeData[model.DeleteResult](OpDeletePost, resp)
}

// Feed returns the legacy home timeline, newest first. count is passed
// through unchecked; sinceID is optional.
func (c *Client) Feed(ctx context.Context, count int, sinceID string) ([]model.FeedItem, error) {
	query := []Param{{Key: "count", Value: strconv.Itoa(count)}}
	if sinceID != "" {
		query = append(query, Param{Key: "since_id", Value: sinceID})
	}
	resp, err := c.do(ctx, request{op: OpFeed, method: http.MethodGet, path: "/1.1/statuses/home_timeline.json", query: query, dump: "feed"})
	if err != nil {
		return nil, err
	}
	return decodeBare[[]model.FeedItem](OpFeed, resp)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	query := []Param{
		{Key: "expansions", Value: "pinned_tweet_id"},
		{Key: "user.fields", Value: "created_at"},
	}
	resp, err := c.do(ctx, request{op: OpMe, method: http.MethodGet, path: "/2/users/me", query: query, dump: "me"})
	if err != nil {
		return model.User{}, err
	}
	out, err := decodeData[model.User](OpMe, resp)
	if err != nil {
		return out, err
	}
	if out.ID == "" {
		return model.User{}, &DecodeError{Op: OpMe, Status: resp.status, Err: errors.New("missing user id")}
	}
	return out, nil
}

// HomeTimeline returns userID's recent posts. It fetches an app bearer token
// first; the token is not cached.
func (c *Client) HomeTimeline(ctx context.Context, userID string, count int) ([]model.HomeItem, error) {
	if userID == "" {
		return nil, errors.New(OpHomeTimeline + ": empty user id")
	}
	access, err := c.BearerToken(ctx)
	if err != nil {
		return nil, err
	}
	query := []Param{
		{Key: "max_results", Value: strconv.Itoa(count)},
		{Key: "tweet.fields", Value: "created_at,author_id,public_metrics"},
	}
	resp, err := c.do(ctx, request{
		op:     OpHomeTimeline,
		method: http.MethodGet,
		path:   "/2/users/" + url.PathEscape(userID) + "/tweets",
		query:  query,
		auth:   authBearer,
		token:  &oauth2.Token{AccessToken: access, TokenType: "Bearer"},
		dump:   "home",
	})
	if err != nil {
		return nil, err
	}
	// An account with no posts answers with meta.result_count=0 and no data.
	if !gjson.GetBytes(resp.body, "data").Exists() && gjson.GetBytes(resp.body, "meta.result_count").Exists() &&
		gjson.GetBytes(resp.body, "meta.result_count").Int() == 0 {
		return []model.HomeItem{}, nil
	}
	return decodeData[[]model.HomeItem](OpHomeTimeline, resp)
}

// Like likes tweetID as userID.
func (c *Client) Like(ctx context.Context, userID, tweetID string) (model.LikeResult, error) {
	if userID == "" || tweetID == "" {
		return model.LikeResult{}, errors.New(OpLike + ": empty user or post id")
	}
	body := struct {
		TweetID string `json:"tweet_id"`
	}{TweetID: tweetID}
	resp, err := c.do(ctx, request{op: OpLike, method: http.MethodPost, path: "/2/users/" + url.PathEscape(userID) + "/likes", body: body})
	if err != nil {
		return model.LikeResult{}, err
	}
	return decodeData[model.LikeResult](OpLike, resp)
}

// Unlike removes userID's like from tweetID.
func (c *Client) Unlike(ctx context.Context, userID, tweetID string) (model.LikeResult, error) {
	if userID == "" || tweetID == "" {
		return model.LikeResult{}, errors.New(OpUnlike + ": empty user or post id")
	}
	path := "/2/users/" + url.PathEscape(userID) + "/likes/" + url.PathEscape(tweetID)
	resp, err := c.do(ctx, request{op: OpUnlike, method: http.MethodDelete, path: path})
	if err != nil {
		return model.LikeResult{}, err
	}
	return decodeData[model.LikeResult](OpUnlike, resp)
}

// BearerToken exchanges the app key and secret for an app-only access token.
func (c *Client) BearerToken(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, request{
		op:     OpBearerToken,
		method: http.MethodPost,
		path:   "/oauth2/token",
		form:   url.Values{"grant_type": {"client_credentials"}},
		auth:   authBasic,
	})
	if err != nil {
		return "", err
	}
	tok, err := decodeBare[struct {
		TokenType   string `json:"token_type"`
		AccessToken string `json:"access_token"`
	}](OpBearerToken, resp)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", &DecodeError{Op: OpBearerToken, Status: resp.status, Err: errors.New("missing access_token")}
	}
	return tok.AccessToken, nil
}

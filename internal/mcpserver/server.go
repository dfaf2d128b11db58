// Package mcpserver exposes the API client as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"tw/internal/budget"
	"tw/internal/config"
	"tw/internal/model"
	"tw/internal/store/history"
)

// API is the subset of the client the tools call.
type API interface {
	CreatePost(ctx context.Context, text, inReplyTo string) (model.CreatedPost, error)
	DeletePost(ctx context.Context, id string) (model.DeleteResult, error)
	Feed(ctx context.Context, count int, sinceID string) ([]model.FeedItem, error)
	Me(ctx context.Context) (model.User, error)
	HomeTimeline(ctx context.Context, userID string, count int) ([]model.HomeItem, error)
	Like(ctx context.Context, userID, tweetID string) (model.LikeResult, error)
	Unlike(ctx context.Context, userID, tweetID string) (model.LikeResult, error)
}

// Handlers implements the tools.
type Handlers struct {
	API     API
	History *history.DB // optional
	Profile string
	Budget  config.BudgetConfig
	Log     zerolog.Logger
}

// New builds the MCP server with every tool registered.
func New(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer("tw", version, server.WithToolCapabilities(true))

	s.AddTool(mcp.NewTool("tw_me",
		mcp.WithDescription("Return the authenticated account"),
	), h.Me)

	s.AddTool(mcp.NewTool("tw_post",
		mcp.WithDescription("Publish a post, optionally as a reply"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Post text")),
		mcp.WithString("in_reply_to_tweet_id", mcp.Description("Post id to reply to")),
	), h.Post)

	s.AddTool(mcp.NewTool("tw_delete",
		mcp.WithDescription("Delete one of your posts"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id")),
	), h.Delete)

	s.AddTool(mcp.NewTool("tw_like",
		mcp.WithDescription("Like a post"),
		mcp.WithString("tweet_id", mcp.Required(), mcp.Description("Post id")),
	), h.Like)

	s.AddTool(mcp.NewTool("tw_unlike",
		mcp.WithDescription("Remove a like"),
		mcp.WithString("tweet_id", mcp.Required(), mcp.Description("Post id")),
	), h.Unlike)

	s.AddTool(mcp.NewTool("tw_feed",
		mcp.WithDescription("Read the home timeline (legacy endpoint)"),
		mcp.WithNumber("count", mcp.Description("Number of statuses"), mcp.DefaultNumber(10)),
	), h.Feed)

	s.AddTool(mcp.NewTool("tw_home",
		mcp.WithDescription("Read your most recent posts"),
		mcp.WithNumber("count", mcp.Description("Between 5 and 100"), mcp.DefaultNumber(10), mcp.Min(5), mcp.Max(100)),
	), h.Home)

	return s
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (h *Handlers) Me(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	me, err := h.API.Me(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(me)
}

func (h *Handlers) Post(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	replyTo := req.GetString("in_reply_to_tweet_id", "")
	if err := budget.Allow(ctx, h.History, h.Budget, "post", time.Now()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := h.API.CreatePost(ctx, text, replyTo)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if h.History != nil {
		rec := history.Post{ID: post.ID, Profile: h.Profile, Text: post.Text, InReplyTo: replyTo, CreatedAt: time.Now().UTC()}
		if err := h.History.RecordPost(ctx, rec); err != nil {
			h.Log.Warn().Err(err).Str("id", post.ID).Msg("history record failed")
		}
		if err := budget.Record(ctx, h.History, "post", rec.CreatedAt, map[string]string{"profile": h.Profile, "id": post.ID}); err != nil {
			h.Log.Warn().Err(err).Msg("history event failed")
		}
	}
	return jsonResult(post)
}

func (h *Handlers) Delete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.API.DeletePost(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if h.History != nil && res.Deleted {
		_ = h.History.MarkDeleted(ctx, id, time.Now().UTC())
	}
	return jsonResult(res)
}

func (h *Handlers) Like(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.likeOrUnlike(ctx, req, "like", h.API.Like)
}

func (h *Handlers) Unlike(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.likeOrUnlike(ctx, req, "unlike", h.API.Unlike)
}

func (h *Handlers) likeOrUnlike(ctx context.Context, req mcp.CallToolRequest, event string, fn func(context.Context, string, string) (model.LikeResult, error)) (*mcp.CallToolResult, error) {
	tweetID, err := req.RequireString("tweet_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := budget.Allow(ctx, h.History, h.Budget, event, time.Now()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	me, err := h.API.Me(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := fn(ctx, me.ID, tweetID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload := map[string]any{"profile": h.Profile, "tweet_id": tweetID, "liked": res.Liked}
	if err := budget.Record(ctx, h.History, event, time.Now(), payload); err != nil {
		h.Log.Warn().Err(err).Msg("history event failed")
	}
	return jsonResult(res)
}

func (h *Handlers) Feed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.API.Feed(ctx, req.GetInt("count", 10), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (h *Handlers) Home(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count := req.GetInt("count", 10)
	if count < 5 || count > 100 {
		return mcp.NewToolResultError("count must be between 5 and 100"), nil
	}
	me, err := h.API.Me(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := h.API.HomeTimeline(ctx, me.ID, count)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error { return server.ServeStdio(s) }

// Package mcpserver exposes the reader flows as MCP tools. Every tool call
// dispatches through the same store the CLI uses, so the journal records
// tool-driven actions like any others.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/coordinator"
	"github.com/wilhg/persephone/pkg/devtools"
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/runtime"
	"github.com/wilhg/persephone/pkg/session"
)

const (
	serverName    = "persephone"
	serverVersion = "0.1.0"
)

// Server binds a coordinator and a store to an MCP server.
type Server struct {
	srv     *mcp.Server
	coord   *coordinator.Coordinator
	store   *runtime.Store
	session session.Context
	logger  *log.Logger
}

type Option func(*Server)

// WithSession supplies the credentials used when the store has no signed-in
// user.
func WithSession(sc session.Context) Option { return func(s *Server) { s.session = sc } }

func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// New registers the reader tools.
func New(coord *coordinator.Coordinator, st *runtime.Store, opts ...Option) (*Server, error) {
	if coord == nil || st == nil {
		return nil, errors.New("mcpserver: coordinator and store are required")
	}
	s := &Server{
		srv:    mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil),
		coord:  coord,
		store:  st,
		logger: log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.register()
	return s, nil
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server { return s.srv }

// Serve runs the server over stdio until ctx is done or the client leaves.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeTransport(ctx, &mcp.StdioTransport{})
}

// ServeTransport runs the server over t.
func (s *Server) ServeTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Printf("[INFO] mcp server %s %s listening", serverName, serverVersion)
	err := s.srv.Run(ctx, t)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) register() {
	mcp.AddTool(s.srv, &mcp.Tool{Name: "get_article", Description: "Loads an article by slug into the reader"}, s.getArticle)
	mcp.AddTool(s.srv, &mcp.Tool{Name: "comment_on_article", Description: "Posts a comment on an article"}, s.comment)
	mcp.AddTool(s.srv, &mcp.Tool{Name: "rate_article", Description: "Rates an article from 1 to 5 stars"}, s.rate)
	mcp.AddTool(s.srv, &mcp.Tool{Name: "like_article", Description: "Toggles the reader's like on an article"}, s.like)
	mcp.AddTool(s.srv, &mcp.Tool{Name: "bookmark_article", Description: "Bookmarks an article"}, s.bookmark)
	mcp.AddTool(s.srv, &mcp.Tool{Name: "report_article", Description: "Reports an article to moderators"}, s.report)
	mcp.AddTool(s.srv, &mcp.Tool{Name: "get_state", Description: "Returns the reader state, whole or one slice"}, s.getState)
}

// token prefers the user signed in through the store.
func (s *Server) token() string {
	if t := s.store.State().User.Token(); t != "" {
		return t
	}
	return s.session.Token
}

// tee dispatches to the store and records what a single tool call emitted.
func (s *Server) tee() (*runtime.Recorder, coordinator.Dispatcher) {
	rec := &runtime.Recorder{}
	return rec, coordinator.DispatchFunc(func(ctx context.Context, a action.Action) {
		rec.Dispatch(ctx, a)
		s.store.Dispatch(ctx, a)
	})
}

// settle returns the fault carried by the last outcome, if any.
func settle(acts []action.Action) error {
	for i := len(acts) - 1; i >= 0; i-- {
		if f := faultOf(acts[i]); f != nil {
			return f
		}
	}
	return nil
}

func faultOf(a action.Action) *errmodel.Error {
	switch v := a.(type) {
	case action.GetArticleError:
		return v.Fault
	case action.CreateCommentError:
		return v.Fault
	case action.RateArticleError:
		return v.Fault
	case action.LikeArticleError:
		return v.Fault
	case action.CreateBookmarkError:
		return v.Fault
	case action.ReportArticleError:
		return v.Fault
	}
	return nil
}

// last finds the most recent recorded action of type A.
func last[A action.Action](acts []action.Action) (A, bool) {
	for i := len(acts) - 1; i >= 0; i-- {
		if v, ok := acts[i].(A); ok {
			return v, true
		}
	}
	var zero A
	return zero, false
}

var errNoOutcome = errors.New("no outcome was recorded")

type ArticleInput struct {
	Slug string `json:"slug" jsonschema:"article slug"`
}

type ArticleResult struct {
	ID            int     `json:"id"`
	Slug          string  `json:"slug"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Published     string  `json:"published"`
	LikesCount    int     `json:"likesCount"`
	AverageRating float64 `json:"averageRating"`
	Body          string  `json:"body"`
}

func (s *Server) getArticle(ctx context.Context, _ *mcp.CallToolRequest, in ArticleInput) (*mcp.CallToolResult, ArticleResult, error) {
	rec, d := s.tee()
	s.coord.GetSingleArticle(ctx, d, in.Slug)
	if err := settle(rec.Actions()); err != nil {
		return nil, ArticleResult{}, err
	}
	ok, found := last[action.GetArticleSuccess](rec.Actions())
	if !found {
		return nil, ArticleResult{}, errNoOutcome
	}
	a := ok.Article
	return nil, ArticleResult{
		ID:            a.ID,
		Slug:          a.Slug,
		Title:         a.Title,
		Author:        a.Author.FullName(),
		Published:     a.Published(),
		LikesCount:    a.LikesCount,
		AverageRating: a.Rating.AverageRating,
		Body:          a.Body,
	}, nil
}

type CommentInput struct {
	Slug            string `json:"slug" jsonschema:"article slug"`
	Comment         string `json:"comment" jsonschema:"comment text"`
	HighlightedText string `json:"highlightedText,omitempty" jsonschema:"passage the comment refers to"`
}

type CommentResult struct {
	ID          int    `json:"id"`
	Slug        string `json:"slug"`
	Text        string `json:"text"`
	Highlighted string `json:"highlighted,omitempty"`
}

func (s *Server) comment(ctx context.Context, _ *mcp.CallToolRequest, in CommentInput) (*mcp.CallToolResult, CommentResult, error) {
	rec, d := s.tee()
	s.coord.CreateCommentOnArticle(ctx, d, in.Slug, in.Comment, s.token(), coordinator.Highlighting(in.HighlightedText))
	if err := settle(rec.Actions()); err != nil {
		return nil, CommentResult{}, err
	}
	ok, found := last[action.CreateCommentSuccess](rec.Actions())
	if !found {
		return nil, CommentResult{}, errNoOutcome
	}
	out := CommentResult{ID: ok.Comment.ID, Slug: ok.Comment.Slug, Text: ok.Comment.Latest()}
	if ok.Comment.HighlightedText != nil {
		out.Highlighted = *ok.Comment.HighlightedText
	}
	return nil, out, nil
}

type RateInput struct {
	Rating    int `json:"rating" jsonschema:"stars from 1 to 5"`
	ArticleID int `json:"articleId,omitempty" jsonschema:"defaults to the open article"`
}

type RateResult struct {
	ArticleID int    `json:"articleId"`
	Rating    int    `json:"rating"`
	Message   string `json:"message"`
}

func (s *Server) rate(ctx context.Context, _ *mcp.CallToolRequest, in RateInput) (*mcp.CallToolResult, RateResult, error) {
	id := in.ArticleID
	if id == 0 {
		id = s.store.State().ReadArticle.Article.ID
	}
	if id == 0 {
		return nil, RateResult{}, errmodel.Validation("no_article", "load an article or pass articleId", nil)
	}
	rec, d := s.tee()
	s.coord.RateArticle(ctx, d, coordinator.RatingRequest{Rating: in.Rating, ArticleID: id}, s.token())
	if err := settle(rec.Actions()); err != nil {
		return nil, RateResult{}, err
	}
	ok, found := last[action.RateArticle](rec.Actions())
	if !found {
		return nil, RateResult{}, errNoOutcome
	}
	return nil, RateResult{
		ArticleID: ok.Rating.ArticleID,
		Rating:    int(ok.Rating.Rating),
		Message:   fmt.Sprintf("You rated this article %d stars", ok.Rating.Rating),
	}, nil
}

type LikeInput struct {
	ArticleID int    `json:"articleId,omitempty" jsonschema:"defaults to the open article"`
	Slug      string `json:"slug,omitempty" jsonschema:"defaults to the open article"`
}

type LikeResult struct {
	ArticleID  int  `json:"articleId"`
	LikesCount int  `json:"likesCount"`
	Liked      bool `json:"liked"`
}

func (s *Server) like(ctx context.Context, _ *mcp.CallToolRequest, in LikeInput) (*mcp.CallToolResult, LikeResult, error) {
	open := s.store.State().ReadArticle.Article
	if in.ArticleID == 0 {
		in.ArticleID = open.ID
	}
	if in.Slug == "" {
		in.Slug = open.Slug
	}
	if in.ArticleID == 0 && in.Slug == "" {
		return nil, LikeResult{}, errmodel.Validation("no_article", "load an article or pass articleId", nil)
	}
	rec, d := s.tee()
	s.coord.LikeArticle(ctx, d, in.ArticleID, in.Slug, s.token())
	if err := settle(rec.Actions()); err != nil {
		return nil, LikeResult{}, err
	}
	ok, found := last[action.LikeArticleSuccess](rec.Actions())
	if !found {
		return nil, LikeResult{}, errNoOutcome
	}
	return nil, LikeResult{ArticleID: ok.Like.ArticleID, LikesCount: ok.Like.LikesCount, Liked: ok.Like.Liked}, nil
}

type SlugInput struct {
	Slug string `json:"slug" jsonschema:"article slug"`
}

type BookmarkResult struct {
	ID        int    `json:"id"`
	ArticleID int    `json:"articleId"`
	Slug      string `json:"slug"`
}

func (s *Server) bookmark(ctx context.Context, _ *mcp.CallToolRequest, in SlugInput) (*mcp.CallToolResult, BookmarkResult, error) {
	rec, d := s.tee()
	s.coord.CreateBookmark(ctx, d, in.Slug, s.token())
	if err := settle(rec.Actions()); err != nil {
		return nil, BookmarkResult{}, err
	}
	ok, found := last[action.CreateBookmarkSuccess](rec.Actions())
	if !found {
		return nil, BookmarkResult{}, errNoOutcome
	}
	slug := ok.Bookmark.Slug
	if slug == "" {
		slug = in.Slug
	}
	return nil, BookmarkResult{ID: ok.Bookmark.ID, ArticleID: ok.Bookmark.ArticleID, Slug: slug}, nil
}

type ReportInput struct {
	Slug   string `json:"slug" jsonschema:"article slug"`
	Reason string `json:"reason" jsonschema:"why the article is reported"`
}

type ReportResult struct {
	ID        int    `json:"id"`
	ArticleID int    `json:"articleId"`
	Reason    string `json:"reason"`
}

func (s *Server) report(ctx context.Context, _ *mcp.CallToolRequest, in ReportInput) (*mcp.CallToolResult, ReportResult, error) {
	rec, d := s.tee()
	s.coord.ReportArticle(ctx, d, in.Slug, in.Reason, s.token())
	if err := settle(rec.Actions()); err != nil {
		return nil, ReportResult{}, err
	}
	ok, found := last[action.ReportArticleSuccess](rec.Actions())
	if !found {
		return nil, ReportResult{}, errNoOutcome
	}
	return nil, ReportResult{ID: ok.Report.ID, ArticleID: ok.Report.ArticleID, Reason: ok.Report.Reason}, nil
}

type StateInput struct {
	Key string `json:"key,omitempty" jsonschema:"feature key such as readArticle; empty for the whole tree"`
}

type StateResult struct {
	Seq   int64  `json:"seq"`
	Key   string `json:"key,omitempty"`
	State any    `json:"state"`
}

func (s *Server) getState(_ context.Context, _ *mcp.CallToolRequest, in StateInput) (*mcp.CallToolResult, StateResult, error) {
	root := s.store.State()
	if in.Key == "" {
		return nil, StateResult{Seq: s.store.Seq(), State: root}, nil
	}
	slice, ok := devtools.Slice(root, in.Key)
	if !ok {
		return nil, StateResult{}, errmodel.Validation("unknown_key", fmt.Sprintf("unknown state key %q", in.Key), nil)
	}
	return nil, StateResult{Seq: s.store.Seq(), Key: in.Key, State: slice}, nil
}

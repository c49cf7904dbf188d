package coordinator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/api"
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
	"github.com/wilhg/persephone/pkg/session"
)

// SignInToRate is the fault message of a rating attempted without a usable
// token.
const SignInToRate = "You need to sign in to rate this article"

// CommentOption adjusts a new comment.
type CommentOption func(*api.CommentInput)

// Highlighting anchors the comment to a passage of the article.
func Highlighting(text string) CommentOption {
	return func(in *api.CommentInput) {
		if text != "" {
			in.HighlightedText = &text
		}
	}
}

// CreateCommentOnArticle posts comment on the article identified by slug and
// emits [CREATE_COMMENT_ON_ARTICLE_START, _SUCCESS|_ERROR].
func (c *Coordinator) CreateCommentOnArticle(ctx context.Context, d Dispatcher, slug, comment, token string, opts ...CommentOption) {
	in := api.CommentInput{Comment: comment}
	for _, o := range opts {
		o(&in)
	}
	run(ctx, c, d, flow[model.Comment]{
		feature: FeatureComment,
		attrs:   []attribute.KeyValue{attribute.String("article.slug", slug)},
		start:   action.CommentStart(),
		call: func(ctx context.Context) (model.Comment, error) {
			return c.api.CreateComment(ctx, token, slug, in)
		},
		success: action.CommentSuccess,
		failure: action.CommentError,
	})
}

// GetSingleArticle loads an article and emits
// [GET_SINGLE_ARTICLE_START, _SUCCESS|_ERROR].
func (c *Coordinator) GetSingleArticle(ctx context.Context, d Dispatcher, slug string) {
	run(ctx, c, d, flow[model.Article]{
		feature: FeatureArticle,
		attrs:   []attribute.KeyValue{attribute.String("article.slug", slug)},
		start:   action.ArticleStart(),
		call: func(ctx context.Context) (model.Article, error) {
			return c.api.GetArticle(ctx, slug)
		},
		success: action.ArticleSuccess,
		failure: action.ArticleError,
	})
}

// RatingRequest is a reader's rating of one article.
type RatingRequest struct {
	Rating    int `json:"rating"`
	ArticleID int `json:"articleId"`
}

// RateArticle emits [RATE_ARTICLE|RATE_ARTICLE_ERROR, CLEAN_UP_RATING]. The
// rating flow has no start action. Without a usable token no request is
// made and the error carries SignInToRate.
func (c *Coordinator) RateArticle(ctx context.Context, d Dispatcher, r RatingRequest, token string) {
	emitted := run(ctx, c, d, flow[model.RatingResult]{
		feature: FeatureRating,
		attrs: []attribute.KeyValue{
			attribute.Int("article.id", r.ArticleID),
			attribute.Int("rating", r.Rating),
		},
		call: func(ctx context.Context) (model.RatingResult, error) {
			if err := session.CheckToken(token, c.now()); err != nil {
				return model.RatingResult{}, errmodel.Policy("unauthorized", SignInToRate, map[string]any{"reason": err.Error()})
			}
			return c.api.RateArticle(ctx, token, r.ArticleID, r.Rating)
		},
		success: action.RatingSuccess,
		failure: action.RatingError,
	})
	if emitted {
		d.Dispatch(ctx, action.RatingCleanUp())
	}
}

// LikeArticle toggles the reader's like and emits a single
// ARTICLE_LIKE_SUCCESS or ARTICLE_LIKE_ERROR.
func (c *Coordinator) LikeArticle(ctx context.Context, d Dispatcher, articleID int, slug, token string) {
	run(ctx, c, d, flow[model.Like]{
		feature: FeatureLike,
		attrs: []attribute.KeyValue{
			attribute.Int("article.id", articleID),
			attribute.String("article.slug", slug),
		},
		call: func(ctx context.Context) (model.Like, error) {
			return c.api.LikeArticle(ctx, token, articleID, slug)
		},
		success: action.LikeSuccess,
		failure: action.LikeError,
	})
}

// CreateBookmark emits [CREATE_BOOKMARK_START, _SUCCESS|_ERROR].
func (c *Coordinator) CreateBookmark(ctx context.Context, d Dispatcher, slug, token string) {
	run(ctx, c, d, flow[model.Bookmark]{
		feature: FeatureBookmark,
		attrs:   []attribute.KeyValue{attribute.String("article.slug", slug)},
		start:   action.BookmarkStart(),
		call: func(ctx context.Context) (model.Bookmark, error) {
			return c.api.Bookmark(ctx, token, slug)
		},
		success: action.BookmarkSuccess,
		failure: action.BookmarkError,
	})
}

// ReportArticle emits [REPORT_ARTICLE_START, _SUCCESS|_ERROR].
func (c *Coordinator) ReportArticle(ctx context.Context, d Dispatcher, slug, reason, token string) {
	run(ctx, c, d, flow[model.Report]{
		feature: FeatureReport,
		attrs:   []attribute.KeyValue{attribute.String("article.slug", slug)},
		start:   action.ReportStart(),
		call: func(ctx context.Context) (model.Report, error) {
			return c.api.Report(ctx, token, slug, reason)
		},
		success: action.ReportSuccess,
		failure: action.ReportError,
	})
}

// Login emits [LOGIN_START, LOGIN_SUCCESS|LOGIN_ERROR] and persists the
// signed-in user when storage is configured.
func (c *Coordinator) Login(ctx context.Context, d Dispatcher, email, password string) {
	run(ctx, c, d, flow[model.User]{
		feature: FeatureLogin,
		start:   action.LoginBegin(),
		call: func(ctx context.Context) (model.User, error) {
			return c.api.Login(ctx, email, password)
		},
		settled: c.persist,
		success: action.LoginDone,
		failure: action.LoginFailed,
	})
}

// Signup emits [SIGNUP_START, SIGNUP_SUCCESS|SIGNUP_ERROR] and persists the
// new user like Login.
func (c *Coordinator) Signup(ctx context.Context, d Dispatcher, form model.SignupForm) {
	run(ctx, c, d, flow[model.User]{
		feature: FeatureSignup,
		start:   action.SignupBegin(),
		call: func(ctx context.Context) (model.User, error) {
			return c.api.Signup(ctx, form)
		},
		settled: c.persist,
		success: action.SignupDone,
		failure: action.SignupFailed,
	})
}

// Logout forgets the persisted user and emits LOGOUT.
func (c *Coordinator) Logout(ctx context.Context, d Dispatcher) {
	if c.storage != nil {
		if err := session.Clear(ctx, c.storage); err != nil {
			c.logger.Printf("[WARN] logout: %v", err)
		}
	}
	d.Dispatch(ctx, action.SignOut())
}

// ToggleTheme emits TOGGLE_THEME.
func (c *Coordinator) ToggleTheme(ctx context.Context, d Dispatcher) {
	d.Dispatch(ctx, action.Toggle())
}

func (c *Coordinator) persist(ctx context.Context, u model.User) {
	if c.storage == nil {
		return
	}
	if _, err := session.Save(ctx, c.storage, u); err != nil {
		c.logger.Printf("[WARN] session not persisted: %v", err)
	}
}

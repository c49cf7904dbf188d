package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wilhg/persephone/pkg/model"
)

const articlesPath = "/api/v1/articles/"

// CommentInput is the body of a new comment. HighlightedText anchors the
// comment to a passage of the article.
type CommentInput struct {
	Comment         string  `json:"comment"`
	HighlightedText *string `json:"highlightedText,omitempty"`
}

type ratingInput struct {
	Rating int `json:"rating"`
}

type likeInput struct {
	ArticleID int `json:"articleId"`
}

type reportInput struct {
	Reason string `json:"reason"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func articlePath(slug string, rest string) string {
	return articlesPath + url.PathEscape(slug) + rest
}

// GetArticle fetches one article by slug.
func (c *Client) GetArticle(ctx context.Context, slug string) (model.Article, error) {
	return do[model.Article](ctx, c, request{method: http.MethodGet, path: articlePath(slug, "")})
}

// CreateComment posts a comment on the article identified by slug.
func (c *Client) CreateComment(ctx context.Context, token, slug string, in CommentInput) (model.Comment, error) {
	return do[model.Comment](ctx, c, request{
		method: http.MethodPost,
		path:   articlePath(slug, "/comments"),
		token:  token,
		body:   in,
		schema: "comment",
	})
}

// RateArticle rates the article with the given id from 1 to 5 stars.
func (c *Client) RateArticle(ctx context.Context, token string, articleID, rating int) (model.RatingResult, error) {
	res, err := do[model.RatingResult](ctx, c, request{
		method: http.MethodPost,
		path:   articlesPath + strconv.Itoa(articleID) + "/ratings",
		token:  token,
		body:   ratingInput{Rating: rating},
		schema: "rating",
	})
	if err == nil && res.ArticleID == 0 {
		res.ArticleID = articleID
	}
	return res, err
}

// LikeArticle toggles the reader's like on an article.
func (c *Client) LikeArticle(ctx context.Context, token string, articleID int, slug string) (model.Like, error) {
	res, err := do[model.Like](ctx, c, request{
		method: http.MethodPost,
		path:   articlePath(slug, "/like"),
		token:  token,
		body:   likeInput{ArticleID: articleID},
		schema: "like",
	})
	if err == nil && res.ArticleID == 0 {
		res.ArticleID = articleID
	}
	return res, err
}

// Bookmark saves the article to the reader's bookmarks.
func (c *Client) Bookmark(ctx context.Context, token, slug string) (model.Bookmark, error) {
	return do[model.Bookmark](ctx, c, request{
		method: http.MethodPost,
		path:   articlePath(slug, "/bookmark"),
		token:  token,
	})
}

// Report flags the article for moderation.
func (c *Client) Report(ctx context.Context, token, slug, reason string) (model.Report, error) {
	return do[model.Report](ctx, c, request{
		method: http.MethodPost,
		path:   articlePath(slug, "/report"),
		token:  token,
		body:   reportInput{Reason: reason},
		schema: "report",
	})
}

// Login exchanges credentials for a user carrying a token.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	return do[model.User](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/login",
		body:   loginInput{Email: email, Password: password},
		schema: "login",
	})
}

// Signup registers a new reader and signs them in.
func (c *Client) Signup(ctx context.Context, form model.SignupForm) (model.User, error) {
	return do[model.User](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/v1/auth/signup",
		body:   form,
		schema: "signup",
	})
}

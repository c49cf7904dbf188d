// Package state defines the root state tree and its feature slices.
//
// Slices are plain values. Reducers replace a slice wholesale and never write
// through the pointers it holds, so a Root obtained from the store can be read
// without copying.
package state

import (
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
)

// Feature keys of the root tree. They double as JSON field names.
const (
	KeyTheme       = "theme"
	KeySignup      = "signup"
	KeyUser        = "user"
	KeyReadArticle = "readArticle"
	KeyComment     = "commentOnArticle"
	KeyBookmark    = "bookmark"
	KeyReport      = "report"
)

// Theme values.
const (
	LightTheme = "light-theme"
	DarkTheme  = "dark-theme"
)

// Root is the process-wide state tree.
type Root struct {
	Theme       ThemeState    `json:"theme"`
	Signup      AuthState     `json:"signup"`
	User        AuthState     `json:"user"`
	ReadArticle ArticleState  `json:"readArticle"`
	Comment     CommentState  `json:"commentOnArticle"`
	Bookmark    BookmarkState `json:"bookmark"`
	Report      ReportState   `json:"report"`
}

type ThemeState struct {
	Theme string `json:"theme"`
}

// Light reports whether the light theme is active.
func (t ThemeState) Light() bool { return t.Theme == LightTheme }

// CommentState is the slice for creating a comment on the open article.
type CommentState struct {
	Comment *model.Comment  `json:"comment"`
	Error   *errmodel.Error `json:"error,omitempty"`
	Loading bool            `json:"loading"`
}

// ArticleState is the slice for the article being read, including the
// reader's rating and like of it. Error reports a failed fetch only.
type ArticleState struct {
	Article   model.Article   `json:"article"`
	Error     *errmodel.Error `json:"error,omitempty"`
	LikeError *errmodel.Error `json:"likeError,omitempty"`
	Loading   bool            `json:"loading"`
}

// Loaded reports whether an article has been fetched into the slice.
func (a ArticleState) Loaded() bool { return a.Article.Slug != "" || a.Article.ID != 0 }

type BookmarkState struct {
	Bookmark *model.Bookmark `json:"bookmark"`
	Error    *errmodel.Error `json:"error,omitempty"`
	Loading  bool            `json:"loading"`
}

type ReportState struct {
	Report  *model.Report   `json:"report"`
	Error   *errmodel.Error `json:"error,omitempty"`
	Loading bool            `json:"loading"`
}

// AuthState backs both the signup and the signed-in user slices.
type AuthState struct {
	IsAuthenticated bool            `json:"isAuthenticated"`
	User            *model.User     `json:"user"`
	Error           *errmodel.Error `json:"error,omitempty"`
	Loading         bool            `json:"loading"`
}

// Token returns the bearer token of the signed-in user, if any.
func (a AuthState) Token() string {
	if a.User == nil {
		return ""
	}
	return a.User.Token
}

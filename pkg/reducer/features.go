package reducer

import (
	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
	"github.com/wilhg/persephone/pkg/state"
)

// Comment reduces the create-comment slice.
type Comment struct{}

func (Comment) Init() state.CommentState { return state.CommentState{} }

func (Comment) Reduce(s state.CommentState, a action.Action) state.CommentState {
	switch a := a.(type) {
	case action.CreateCommentStart:
		s.Loading = true
	case action.CreateCommentSuccess:
		c := a.Comment
		s.Comment, s.Error, s.Loading = &c, nil, false
	case action.CreateCommentError:
		s.Comment, s.Error, s.Loading = nil, a.Fault, false
	}
	return s
}

// Article reduces the read-article slice, which also owns the reader's
// rating and like of the open article.
type Article struct{}

func (Article) Init() state.ArticleState { return state.ArticleState{} }

func (Article) Reduce(s state.ArticleState, a action.Action) state.ArticleState {
	switch a := a.(type) {
	case action.GetArticleStart:
		s.Loading = true
	case action.GetArticleSuccess:
		s.Article, s.Error, s.LikeError, s.Loading = a.Article, nil, nil, false
	case action.GetArticleError:
		s.Error, s.Loading = a.Fault, false
	case action.RateArticle:
		r := a.Rating
		s.Article.Rating.Response = &model.RatingResponse{Result: &r}
	case action.RateArticleError:
		s.Article.Rating.Response = &model.RatingResponse{Fault: faultOf(a.Fault)}
	case action.CleanUpRating:
		s.Article.Rating.Response = &model.RatingResponse{}
	case action.LikeArticleSuccess:
		if a.Like.ArticleID == 0 || a.Like.ArticleID == s.Article.ID {
			s.Article.LikesCount = a.Like.LikesCount
			s.LikeError = nil
		}
	case action.LikeArticleError:
		s.LikeError = a.Fault
	}
	return s
}

func faultOf(e *errmodel.Error) *model.Fault {
	if e == nil {
		return &model.Fault{Status: errmodel.StatusFail}
	}
	status := e.Status
	if status == "" {
		status = errmodel.StatusFail
	}
	return &model.Fault{Status: status, Message: e.Message}
}

type Bookmark struct{}

func (Bookmark) Init() state.BookmarkState { return state.BookmarkState{} }

func (Bookmark) Reduce(s state.BookmarkState, a action.Action) state.BookmarkState {
	switch a := a.(type) {
	case action.CreateBookmarkStart:
		s.Loading = true
	case action.CreateBookmarkSuccess:
		b := a.Bookmark
		s.Bookmark, s.Error, s.Loading = &b, nil, false
	case action.CreateBookmarkError:
		s.Bookmark, s.Error, s.Loading = nil, a.Fault, false
	}
	return s
}

type Report struct{}

func (Report) Init() state.ReportState { return state.ReportState{} }

func (Report) Reduce(s state.ReportState, a action.Action) state.ReportState {
	switch a := a.(type) {
	case action.ReportArticleStart:
		s.Loading = true
	case action.ReportArticleSuccess:
		r := a.Report
		s.Report, s.Error, s.Loading = &r, nil, false
	case action.ReportArticleError:
		s.Report, s.Error, s.Loading = nil, a.Fault, false
	}
	return s
}

// User reduces the signed-in user slice. A successful signup also signs the
// user in.
type User struct{}

func (User) Init() state.AuthState { return state.AuthState{} }

func (u User) Reduce(s state.AuthState, a action.Action) state.AuthState {
	switch a := a.(type) {
	case action.LoginStart:
		s.Loading = true
	case action.LoginSuccess:
		return signedIn(a.User)
	case action.SignupSuccess:
		return signedIn(a.User)
	case action.LoginError:
		s.Error, s.Loading = a.Fault, false
	case action.Logout:
		return u.Init()
	}
	return s
}

// Signup reduces the account-creation slice.
type Signup struct{}

func (Signup) Init() state.AuthState { return state.AuthState{} }

func (sg Signup) Reduce(s state.AuthState, a action.Action) state.AuthState {
	switch a := a.(type) {
	case action.SignupStart:
		s.Loading = true
	case action.SignupSuccess:
		return signedIn(a.User)
	case action.SignupError:
		s.Error, s.Loading = a.Fault, false
	case action.Logout:
		return sg.Init()
	}
	return s
}

func signedIn(u model.User) state.AuthState {
	return state.AuthState{IsAuthenticated: true, User: &u}
}

type Theme struct{}

func (Theme) Init() state.ThemeState { return state.ThemeState{Theme: state.LightTheme} }

func (Theme) Reduce(s state.ThemeState, a action.Action) state.ThemeState {
	if _, ok := a.(action.ToggleTheme); ok {
		if s.Theme == state.DarkTheme {
			s.Theme = state.LightTheme
		} else {
			s.Theme = state.DarkTheme
		}
	}
	return s
}

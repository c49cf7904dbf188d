package action

import (
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
)

const (
	KindGetArticleStart   Kind = "GET_SINGLE_ARTICLE_START"
	KindGetArticleSuccess Kind = "GET_SINGLE_ARTICLE_SUCCESS"
	KindGetArticleError   Kind = "GET_SINGLE_ARTICLE_ERROR"

	KindRateArticle      Kind = "RATE_ARTICLE"
	KindRateArticleError Kind = "RATE_ARTICLE_ERROR"
	KindCleanUpRating    Kind = "CLEAN_UP_RATING"

	KindLikeArticleSuccess Kind = "ARTICLE_LIKE_SUCCESS"
	KindLikeArticleError   Kind = "ARTICLE_LIKE_ERROR"
)

type GetArticleStart struct{}

type GetArticleSuccess struct {
	Article model.Article `json:"article"`
}

type GetArticleError struct {
	Fault *errmodel.Error `json:"fault"`
}

// RateArticle records a successful rating.
type RateArticle struct {
	Rating model.RatingResult `json:"payload"`
}

// RateArticleError records a rejected rating.
type RateArticleError struct {
	Fault *errmodel.Error `json:"payload"`
}

// CleanUpRating always follows a rating outcome and resets the response to
// an empty value.
type CleanUpRating struct{}

type LikeArticleSuccess struct {
	Like model.Like `json:"like"`
}

type LikeArticleError struct {
	Fault *errmodel.Error `json:"fault"`
}

func (GetArticleStart) Kind() Kind    { return KindGetArticleStart }
func (GetArticleSuccess) Kind() Kind  { return KindGetArticleSuccess }
func (GetArticleError) Kind() Kind    { return KindGetArticleError }
func (RateArticle) Kind() Kind        { return KindRateArticle }
func (RateArticleError) Kind() Kind   { return KindRateArticleError }
func (CleanUpRating) Kind() Kind      { return KindCleanUpRating }
func (LikeArticleSuccess) Kind() Kind { return KindLikeArticleSuccess }
func (LikeArticleError) Kind() Kind   { return KindLikeArticleError }

func ArticleStart() Action                      { return GetArticleStart{} }
func ArticleSuccess(a model.Article) Action     { return GetArticleSuccess{Article: a} }
func ArticleError(fault *errmodel.Error) Action { return GetArticleError{Fault: fault} }

func RatingSuccess(r model.RatingResult) Action { return RateArticle{Rating: r} }
func RatingError(fault *errmodel.Error) Action  { return RateArticleError{Fault: fault} }
func RatingCleanUp() Action                     { return CleanUpRating{} }

func LikeSuccess(l model.Like) Action        { return LikeArticleSuccess{Like: l} }
func LikeError(fault *errmodel.Error) Action { return LikeArticleError{Fault: fault} }

func init() {
	Register[GetArticleStart](KindGetArticleStart)
	Register[GetArticleSuccess](KindGetArticleSuccess)
	Register[GetArticleError](KindGetArticleError)
	Register[RateArticle](KindRateArticle)
	Register[RateArticleError](KindRateArticleError)
	Register[CleanUpRating](KindCleanUpRating)
	Register[LikeArticleSuccess](KindLikeArticleSuccess)
	Register[LikeArticleError](KindLikeArticleError)
}

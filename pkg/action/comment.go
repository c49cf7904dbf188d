package action

import (
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
)

const (
	KindCreateCommentStart   Kind = "CREATE_COMMENT_ON_ARTICLE_START"
	KindCreateCommentSuccess Kind = "CREATE_COMMENT_ON_ARTICLE_SUCCESS"
	KindCreateCommentError   Kind = "CREATE_COMMENT_ON_ARTICLE_ERROR"
)

type CreateCommentStart struct{}

type CreateCommentSuccess struct {
	Comment model.Comment `json:"comment"`
}

type CreateCommentError struct {
	Fault *errmodel.Error `json:"fault"`
}

func (CreateCommentStart) Kind() Kind   { return KindCreateCommentStart }
func (CreateCommentSuccess) Kind() Kind { return KindCreateCommentSuccess }
func (CreateCommentError) Kind() Kind   { return KindCreateCommentError }

func CommentStart() Action                      { return CreateCommentStart{} }
func CommentSuccess(c model.Comment) Action     { return CreateCommentSuccess{Comment: c} }
func CommentError(fault *errmodel.Error) Action { return CreateCommentError{Fault: fault} }

func init() {
	Register[CreateCommentStart](KindCreateCommentStart)
	Register[CreateCommentSuccess](KindCreateCommentSuccess)
	Register[CreateCommentError](KindCreateCommentError)
}

package action

import (
	"github.com/wilhg/persephone/pkg/errmodel"
	"github.com/wilhg/persephone/pkg/model"
)

const (
	KindCreateBookmarkStart   Kind = "CREATE_BOOKMARK_START"
	KindCreateBookmarkSuccess Kind = "CREATE_BOOKMARK_SUCCESS"
	KindCreateBookmarkError   Kind = "CREATE_BOOKMARK_ERROR"

	KindReportArticleStart   Kind = "REPORT_ARTICLE_START"
	KindReportArticleSuccess Kind = "REPORT_ARTICLE_SUCCESS"
	KindReportArticleError   Kind = "REPORT_ARTICLE_ERROR"
)

type CreateBookmarkStart struct{}

type CreateBookmarkSuccess struct {
	Bookmark model.Bookmark `json:"bookmark"`
}

type CreateBookmarkError struct {
	Fault *errmodel.Error `json:"fault"`
}

type ReportArticleStart struct{}

type ReportArticleSuccess struct {
	Report model.Report `json:"report"`
}

type ReportArticleError struct {
	Fault *errmodel.Error `json:"fault"`
}

func (CreateBookmarkStart) Kind() Kind   { return KindCreateBookmarkStart }
func (CreateBookmarkSuccess) Kind() Kind { return KindCreateBookmarkSuccess }
func (CreateBookmarkError) Kind() Kind   { return KindCreateBookmarkError }
func (ReportArticleStart) Kind() Kind    { return KindReportArticleStart }
func (ReportArticleSuccess) Kind() Kind  { return KindReportArticleSuccess }
func (ReportArticleError) Kind() Kind    { return KindReportArticleError }

func BookmarkStart() Action                      { return CreateBookmarkStart{} }
func BookmarkSuccess(b model.Bookmark) Action    { return CreateBookmarkSuccess{Bookmark: b} }
func BookmarkError(fault *errmodel.Error) Action { return CreateBookmarkError{Fault: fault} }

func ReportStart() Action                      { return ReportArticleStart{} }
func ReportSuccess(r model.Report) Action      { return ReportArticleSuccess{Report: r} }
func ReportError(fault *errmodel.Error) Action { return ReportArticleError{Fault: fault} }

func init() {
	Register[CreateBookmarkStart](KindCreateBookmarkStart)
	Register[CreateBookmarkSuccess](KindCreateBookmarkSuccess)
	Register[CreateBookmarkError](KindCreateBookmarkError)
	Register[ReportArticleStart](KindReportArticleStart)
	Register[ReportArticleSuccess](KindReportArticleSuccess)
	Register[ReportArticleError](KindReportArticleError)
}

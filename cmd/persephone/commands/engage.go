package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/wilhg/persephone/pkg/coordinator"
)

// slugOrOpen returns slug, or the slug of the open article.
func (a *app) slugOrOpen(slug string) (string, error) {
	if slug != "" {
		return slug, nil
	}
	if open := a.store.State().ReadArticle.Article.Slug; open != "" {
		return open, nil
	}
	return "", a.out.Error("No article open", "No slug was given and no article is open.",
		[]string{"Run `persephone read <slug>` first", "Pass the slug explicitly"})
}

func newCommentCmd(g *globals) *cobra.Command {
	var slug, highlight string
	cmd := &cobra.Command{
		Use:   "comment <text...>",
		Short: "Comment on an article",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				s, err := a.slugOrOpen(slug)
				if err != nil {
					return err
				}
				a.coord.CreateCommentOnArticle(cmd.Context(), a.store, s, strings.Join(args, " "), a.token(),
					coordinator.Highlighting(highlight))
				c := a.store.State().Comment
				if c.Error != nil {
					return a.out.Fault(c.Error)
				}
				if c.Comment != nil {
					a.out.Comment(*c.Comment)
				}
				a.out.Success("Comment posted")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "article slug (default: the open article)")
	cmd.Flags().StringVar(&highlight, "highlight", "", "passage of the article the comment refers to")
	return cmd
}

func newBookmarkCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark [slug]",
		Short: "Bookmark an article",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				s, err := a.slugOrOpen(firstArg(args))
				if err != nil {
					return err
				}
				a.coord.CreateBookmark(cmd.Context(), a.store, s, a.token())
				b := a.store.State().Bookmark
				if b.Error != nil {
					return a.out.Fault(b.Error)
				}
				a.out.Success("Bookmarked %s", s)
				return nil
			})
		},
	}
}

func newReportCmd(g *globals) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "report [slug]",
		Short: "Report an article to moderators",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				s, err := a.slugOrOpen(firstArg(args))
				if err != nil {
					return err
				}
				a.coord.ReportArticle(cmd.Context(), a.store, s, reason, a.token())
				r := a.store.State().Report
				if r.Error != nil {
					return a.out.Fault(r.Error)
				}
				a.out.Success("Reported %s", s)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the article is reported")
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

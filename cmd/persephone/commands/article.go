package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wilhg/persephone/internal/printer"
	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/coordinator"
	"github.com/wilhg/persephone/pkg/model"
	"github.com/wilhg/persephone/pkg/runtime"
	"github.com/wilhg/persephone/pkg/state"
)

// capture records every action dispatched into st until the returned stop
// func is called.
func capture(st *runtime.Store) (*runtime.Recorder, func()) {
	rec := &runtime.Recorder{}
	stop := st.Subscribe(func(ctx context.Context, a action.Action, _, _ state.Root) {
		rec.Dispatch(ctx, a)
	})
	return rec, stop
}

func newReadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "read <slug>",
		Short: "Open an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				a.coord.GetSingleArticle(cmd.Context(), a.store, args[0])
				s := a.store.State().ReadArticle
				if s.Error != nil {
					return a.out.Fault(s.Error)
				}
				a.out.Article(s.Article)
				return nil
			})
		},
	}
}

func newRateCmd(g *globals) *cobra.Command {
	var articleID int
	cmd := &cobra.Command{
		Use:   "rate <stars>",
		Short: "Rate the open article from 1 to 5 stars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stars, err := strconv.Atoi(args[0])
			if err != nil {
				return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr()).Error("Invalid rating",
					fmt.Sprintf("%q is not a number of stars.", args[0]), []string{"Pass a whole number from 1 to 5"})
			}
			return withApp(cmd, g, func(a *app) error {
				id := articleID
				if id == 0 {
					id = a.store.State().ReadArticle.Article.ID
				}
				if id == 0 {
					return a.out.Error("No article open", "There is no article to rate.",
						[]string{"Run `persephone read <slug>` first", "Pass --article <id>"})
				}
				rec, stop := capture(a.store)
				a.coord.RateArticle(cmd.Context(), a.store, coordinator.RatingRequest{Rating: stars, ArticleID: id}, a.token())
				stop()
				for _, act := range rec.Actions() {
					switch v := act.(type) {
					case action.RateArticle:
						a.out.Rating(model.RatingResponse{Result: &v.Rating})
						return nil
					case action.RateArticleError:
						return a.out.Fault(v.Fault)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&articleID, "article", 0, "article id (default: the open article)")
	return cmd
}

func newLikeCmd(g *globals) *cobra.Command {
	var (
		articleID int
		slug      string
	)
	cmd := &cobra.Command{
		Use:   "like",
		Short: "Toggle your like on the open article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				open := a.store.State().ReadArticle.Article
				if articleID == 0 {
					articleID = open.ID
				}
				if slug == "" {
					slug = open.Slug
				}
				if articleID == 0 {
					return a.out.Error("No article open", "There is no article to like.",
						[]string{"Run `persephone read <slug>` first", "Pass --article <id> --slug <slug>"})
				}
				rec, stop := capture(a.store)
				a.coord.LikeArticle(cmd.Context(), a.store, articleID, slug, a.token())
				stop()
				for _, act := range rec.Actions() {
					switch v := act.(type) {
					case action.LikeArticleSuccess:
						a.out.Like(v.Like)
						return nil
					case action.LikeArticleError:
						return a.out.Fault(v.Fault)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&articleID, "article", 0, "article id (default: the open article)")
	cmd.Flags().StringVar(&slug, "slug", "", "article slug (default: the open article)")
	return cmd
}

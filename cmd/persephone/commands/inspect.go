package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilhg/persephone/pkg/devtools"
	"github.com/wilhg/persephone/pkg/mcpserver"
)

func newStateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "state [key]",
		Short: "Print the reader state as JSON, whole or one slice",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				var v any = a.store.State()
				if key := firstArg(args); key != "" {
					slice, ok := devtools.Slice(a.store.State(), key)
					if !ok {
						return a.out.Error("Unknown state key", fmt.Sprintf("%q is not a slice of the reader state.", key),
							[]string{"Use one of: " + strings.Join(devtools.Keys, ", ")})
					}
					v = slice
				}
				b, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			})
		},
	}
}

func newJournalCmd(g *globals) *cobra.Command {
	var (
		after int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journaled actions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				if !a.cfg.Journaled() {
					a.out.Warning("journaling is disabled")
					return nil
				}
				envs, err := a.store.Actions(cmd.Context(), after, limit)
				if err != nil {
					return a.out.Error("Could not read the journal", err.Error(), nil)
				}
				a.out.Step("run %s: %d action(s)", a.store.RunID(), len(envs))
				for _, e := range envs {
					a.out.Info("%s  %-36s  %s", e.Timestamp.Local().Format(time.DateTime), e.Kind, e.ID)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&after, "after", 0, "list actions after this sequence")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of actions (0 for all)")
	return cmd
}

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the state inspector over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				if addr == "" {
					addr = a.cfg.DevtoolsAddr
				}
				return serveHTTP(cmd.Context(), a, &http.Server{
					Addr:              addr,
					Handler:           devtools.Handler(a.store),
					ReadHeaderTimeout: 5 * time.Second,
				})
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $PERSEPHONE_DEVTOOLS_ADDR or :8080)")
	return cmd
}

func serveHTTP(ctx context.Context, a *app, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.out.Step("inspector listening on %s", srv.Addr)
	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return a.out.Error("Server error", err.Error(), nil)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newMCPCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the reader as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) error {
				srv, err := mcpserver.New(a.coord, a.store,
					mcpserver.WithSession(a.session),
					mcpserver.WithLogger(a.logger))
				if err != nil {
					return err
				}
				return srv.Serve(cmd.Context())
			})
		},
	}
}

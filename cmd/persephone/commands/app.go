package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wilhg/persephone/internal/config"
	"github.com/wilhg/persephone/internal/printer"
	"github.com/wilhg/persephone/pkg/action"
	"github.com/wilhg/persephone/pkg/api"
	"github.com/wilhg/persephone/pkg/coordinator"
	"github.com/wilhg/persephone/pkg/devtools"
	"github.com/wilhg/persephone/pkg/otel"
	"github.com/wilhg/persephone/pkg/runtime"
	"github.com/wilhg/persephone/pkg/session"
	"github.com/wilhg/persephone/pkg/session/boltstore"
	"github.com/wilhg/persephone/pkg/session/redisstore"
	"github.com/wilhg/persephone/pkg/store/entstore"
)

// app is everything one command invocation needs.
type app struct {
	cfg     config.Config
	out     *printer.Printer
	logger  *log.Logger
	store   *runtime.Store
	coord   *coordinator.Coordinator
	session session.Context
	storage session.Storage
	closers []func() error
}

// openApp loads config, opens storage and the journal, restores the state
// and replays a persisted sign-in into it.
func openApp(cmd *cobra.Command, g *globals) (*app, error) {
	ctx := cmd.Context()
	out := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, out.Error("Invalid configuration", err.Error(), []string{"Fix the config file or the PERSEPHONE_* variables"})
	}
	if g.verbose {
		cfg.Verbose = true
	}
	a := &app{cfg: cfg, out: out, logger: log.New(io.Discard, "", 0)}
	if cfg.Verbose {
		a.logger = log.New(cmd.ErrOrStderr(), "persephone ", log.LstdFlags)
	}

	shutdown, err := otel.Init(ctx, otel.Config{
		ServiceName:  cfg.OTel.ServiceName,
		UseStdout:    cfg.OTel.Stdout,
		OTLPEndpoint: cfg.OTel.OTLPEndpoint,
	})
	if err != nil {
		return nil, out.Error("Tracing setup failed", err.Error(), nil)
	}
	a.closers = append(a.closers, func() error { return shutdown(context.Background()) })

	if err := a.openStorage(ctx); err != nil {
		a.Close()
		return nil, out.Error("Session storage unavailable", err.Error(), []string{"Set PERSEPHONE_SESSION=memory to run without persistence"})
	}

	opts := []runtime.Option{runtime.WithLogger(a.logger)}
	if cfg.Journaled() {
		j, err := openJournal(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, out.Error("Journal unavailable", err.Error(), []string{"Check PERSEPHONE_DATABASE_URL, or set it to none"})
		}
		a.closers = append(a.closers, j.Close)
		a.logger.Printf("[DEBUG] journal open (%s)", j.Dialect())
		opts = append(opts,
			runtime.WithJournal(j, cfg.RunID),
			runtime.WithSnapshot(runtime.JSONCodec{}, cfg.SnapshotEvery),
		)
	}
	a.store = runtime.NewStore(nil, opts...)
	if err := a.store.Restore(ctx); err != nil {
		a.Close()
		return nil, out.Error("Could not restore the reader state", err.Error(), nil)
	}
	if cfg.Verbose {
		a.store.Subscribe(devtools.Logger(a.logger))
	}

	client, err := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.Timeout), api.WithLogger(a.logger))
	if err != nil {
		a.Close()
		return nil, out.Error("Invalid API URL", err.Error(), nil)
	}
	copts := []coordinator.Option{coordinator.WithLogger(a.logger)}
	if a.storage != nil {
		copts = append(copts, coordinator.WithStorage(a.storage))
	}
	if cfg.LatestOnly {
		copts = append(copts, coordinator.WithLatestOnly())
	}
	a.coord = coordinator.New(client, copts...)

	// A persisted sign-in the journal has not seen yet becomes LOGIN_SUCCESS.
	if !a.session.Anonymous() && a.store.State().User.Token() != a.session.Token {
		a.store.Dispatch(ctx, action.LoginDone(a.session.User))
	}
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	var st session.Storage
	switch a.cfg.Session {
	case config.SessionMemory:
		st = session.NewMemory()
	case config.SessionBolt:
		b, err := boltstore.Open(a.cfg.BoltPath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, b.Close)
		st = b
	case config.SessionRedis:
		r, err := redisstore.NewFromURL(a.cfg.RedisURL, a.cfg.RedisNamespace)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, r.Close)
		if err := r.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		st = r
	default:
		return fmt.Errorf("unknown session backend %q", a.cfg.Session)
	}
	sc, err := session.Load(ctx, st)
	if err != nil {
		a.logger.Printf("[WARN] ignoring persisted session: %v", err)
		sc = session.Context{}
	}
	a.session = sc
	a.storage = st
	return nil
}

func openJournal(ctx context.Context, cfg config.Config) (*entstore.Store, error) {
	if strings.HasPrefix(strings.ToLower(cfg.DatabaseURL), "sqlite:") && cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, err
		}
	}
	j, err := entstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// token prefers the user signed in through the journal over the stored one.
func (a *app) token() string {
	if t := a.store.State().User.Token(); t != "" {
		return t
	}
	return a.session.Token
}

// Close releases everything openApp acquired, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Printf("[WARN] close: %v", err)
		}
	}
	a.closers = nil
}

// withApp opens the app, runs fn and closes it.
func withApp(cmd *cobra.Command, g *globals, fn func(*app) error) error {
	a, err := openApp(cmd, g)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

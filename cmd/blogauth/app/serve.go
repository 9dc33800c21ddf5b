package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/api"
	"github.com/goliatone/go-blogauth/blogs"
	"github.com/goliatone/go-blogauth/readinglist"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().String("address", "", "Address to listen on, overrides server.address")
	if err := opts.v.BindPFlag("server.address", cmd.Flags().Lookup("address")); err != nil {
		panic(fmt.Sprintf("bind address flag: %v", err))
	}
	return cmd
}

// buildApp wires the services behind the HTTP API
func buildApp(rt *runtime) *fiber.App {
	users := rt.repo.Users()
	sessions := rt.repo.Sessions()

	tokens := auth.NewTokenServiceFromConfig(rt.cfg, rt.logger)
	provider := auth.NewUserProvider(users).WithLogger(rt.logger)
	auther := auth.NewAuthenticator(provider, tokens, sessions).
		WithLogger(rt.logger).
		WithActivitySink(rt.activity)

	guard := auth.NewSessionGuard(sessions, users,
		auth.WithGuardLogger(rt.logger),
		auth.WithGuardActivitySink(rt.activity),
	)
	routes := auth.NewHTTPAuthenticator(rt.cfg, tokens, guard).WithLogger(rt.logger)

	deps := api.Deps{
		Users: users,
		Registration: auth.NewRegisterUserHandler(users).
			WithLogger(rt.logger).
			WithActivitySink(rt.activity),
		Auther:      auther,
		Routes:      routes,
		Blogs:       blogs.NewService(blogs.NewRepository(rt.db), rt.logger).WithActivitySink(rt.activity),
		ReadingList: readinglist.NewManager(rt.db, rt.logger).WithActivitySink(rt.activity),
		Logger:      rt.logger,
	}
	if rt.cfg.Metrics.Enabled {
		deps.Metrics = promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{})
		deps.MetricsPath = rt.cfg.Metrics.Path
	}

	return api.NewApp(deps, fiber.Config{
		ReadTimeout:           rt.cfg.Server.ReadTimeout,
		WriteTimeout:          rt.cfg.Server.WriteTimeout,
		DisableStartupMessage: true,
	})
}

func runServe(ctx context.Context, opts *options) error {
	cfg, zl, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.logger.Error("failed to close resources", "error", err)
		}
	}()

	app := buildApp(rt)

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("starting server", "address", cfg.Server.Address)
		errCh <- app.Listen(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

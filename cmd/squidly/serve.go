package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/squidly/config"
	"github.com/Ramsey-B/squidly/internal/app"
	"github.com/Ramsey-B/squidly/pkg/middleware"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the backends and the ops server (health and metrics)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			env, err := loadEnvironment(ctx)
			if err != nil {
				return err
			}
			defer env.shutdown()

			a := app.New(env.cfg, env.logger)
			if err := a.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := a.Stop(context.Background()); err != nil {
					env.logger.WithError(err).Warn("failed to stop cleanly")
				}
			}()

			return serve(ctx, env.cfg, a)
		},
	}
}

func newOpsServer(cfg *config.Config, a *app.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.Logger)

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.Logger))

	a.Health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func serve(ctx context.Context, cfg *config.Config, a *app.App) error {
	e := newOpsServer(cfg, a)
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	errs := make(chan error, 1)
	go func() {
		a.Logger.Infof("ops server listening on :%d", cfg.Port)
		errs <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down ops server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.shutdown()

			if env.cfg.StoreBackend != config.StoreBackendPostgres {
				return errors.New("migrate needs STORE_BACKEND=postgres")
			}
			return app.Migrate(cmd.Context(), env.cfg, env.logger)
		},
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ramsey-B/squidly/config"
	"github.com/Ramsey-B/squidly/internal/app"
	"github.com/Ramsey-B/squidly/pkg/appctx"
	"github.com/Ramsey-B/squidly/pkg/tracing"
	"github.com/Ramsey-B/squidly/pkg/tracing/exporters"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	actor string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "squidly",
		Short:         "Menu composition and dependency resolution",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.actor, "actor", "cli", "name recorded as the author of changes")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(opts),
		newMenuCommand(opts),
		newBranchCommand(opts),
		newGraphCommand(opts),
	)
	return root
}

func newLogger(cfg *config.Config) (ectologger.Logger, func(), error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapConfig.Level = level

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), func() { _ = zapLogger.Sync() }, nil
}

// environment loads config, the logger and tracing for one command run.
type environment struct {
	cfg      *config.Config
	logger   ectologger.Logger
	shutdown func()
}

func loadEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, syncLogger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	stopTracing, err := tracing.Init(ctx, cfg.AppName, exporters.OTLPConfig{
		Endpoint: cfg.OTELEndpoint,
		Protocol: cfg.OTELProtocol,
		Insecure: cfg.OTELInsecure,
	})
	if err != nil {
		syncLogger()
		return nil, err
	}

	return &environment{
		cfg:    cfg,
		logger: logger,
		shutdown: func() {
			if err := stopTracing(context.Background()); err != nil {
				logger.WithError(err).Warn("failed to flush traces")
			}
			syncLogger()
		},
	}, nil
}

// withApp starts the app for a single CLI command and stops it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	ctx := appctx.SetRequestID(cmd.Context(), uuid.New().String())
	ctx = appctx.SetActor(ctx, opts.actor)

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
		if err := a.Stop(context.WithoutCancel(ctx)); err != nil {
			env.logger.WithError(err).Warn("failed to stop cleanly")
		}
	}()

	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, value)
	}
	return id, nil
}

func parseIDs(names []string, args []string) ([]int64, error) {
	ids := make([]int64, len(names))
	for i, name := range names {
		id, err := parseID(name, args[i])
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mx-space/migrator/internal/config"
	"github.com/mx-space/migrator/internal/database"
	"github.com/mx-space/migrator/internal/modules/migrate"
	"github.com/mx-space/migrator/internal/modules/source"
	"github.com/mx-space/migrator/internal/modules/storage/objectstore"
	"github.com/mx-space/migrator/internal/modules/store"
	"github.com/mx-space/migrator/internal/pkg/nativelog"
	redisc "github.com/mx-space/migrator/internal/pkg/redis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
)

const (
	exitOK        = 0
	exitSetup     = 1
	exitRunFailed = 2
)

// exitError carries the process exit code for a failure.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func setupErr(err error) *exitError { return &exitError{err: err, code: exitSetup} }

type flags struct {
	config         string
	tenant         string
	dryRun         bool
	limit          int
	pages          bool
	includePrivate bool
}

func (f flags) options() migrate.Options {
	return migrate.Options{
		Tenant:         f.tenant,
		DryRun:         f.dryRun,
		Limit:          f.limit,
		IncludePages:   f.pages,
		IncludePrivate: f.includePrivate,
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:     "migrate",
		Short:   "Migrate a WordPress site into a content store tenant",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.limit < 0 {
				return setupErr(fmt.Errorf("--limit must not be negative"))
			}
			return run(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.config, "config", "c", config.DefaultConfigPath, "Path to YAML config file")
	cmd.Flags().StringVarP(&f.tenant, "tenant", "t", "", "Destination tenant ID or slug")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Read and transform everything but write nothing")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Migrate at most N items per content type (0 = all)")
	cmd.Flags().BoolVar(&f.pages, "pages", false, "Also migrate static pages")
	cmd.Flags().BoolVar(&f.includePrivate, "include-private", false, "Include draft, private, pending and future items (needs source credentials)")
	_ = cmd.MarkFlagRequired("tenant")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return setupErr(err)
	}

	logger, err := nativelog.NewZapLogger(cfg.LogDir(), cfg.IsDev())
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("native log pipeline unavailable, fallback to zap production logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return setupErr(fmt.Errorf("connect destination: %w", err))
	}
	defer database.Close(db)

	objects, err := objectstore.New(cfg)
	if err != nil {
		return setupErr(fmt.Errorf("init asset storage: %w", err))
	}

	deps := migrate.Deps{
		Config:  cfg,
		Source:  source.NewClient(cfg.Source, logger),
		Store:   store.NewGorm(db),
		Objects: objects,
		Logger:  logger,
	}
	if cfg.Lock.Enable {
		client, err := redisc.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return setupErr(fmt.Errorf("connect redis: %w", err))
		}
		defer client.Close()
		deps.Locker = client
	}

	result, err := migrate.New(deps).Run(ctx, f.options())
	if result == nil {
		return setupErr(err)
	}
	result.WriteSummary(cmd.OutOrStdout())
	if err != nil {
		return &exitError{err: err, code: exitRunFailed}
	}
	return nil
}

func execute(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitSetup
	}
	return exitOK
}

// Package migrate drives a migration run from the source into one destination tenant.
package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mx-space/migrator/internal/config"
	"github.com/mx-space/migrator/internal/models"
	"github.com/mx-space/migrator/internal/modules/asset"
	"github.com/mx-space/migrator/internal/modules/resolver"
	"github.com/mx-space/migrator/internal/modules/rewriter"
	"github.com/mx-space/migrator/internal/modules/source"
	"github.com/mx-space/migrator/internal/modules/storage/objectstore"
	"github.com/mx-space/migrator/internal/modules/store"
	redisc "github.com/mx-space/migrator/internal/pkg/redis"
	"github.com/mx-space/migrator/internal/pkg/slug"
	"go.uber.org/zap"
)

// Source is the read side of the migration.
type Source interface {
	HasCredentials() bool
	Categories(ctx context.Context) ([]source.Taxonomy, error)
	Tags(ctx context.Context) ([]source.Taxonomy, error)
	Users(ctx context.Context) ([]source.Author, error)
	Posts(ctx context.Context, opts source.FetchOptions) ([]source.ContentItem, error)
	Pages(ctx context.Context, opts source.FetchOptions) ([]source.ContentItem, error)
	MediaURLs(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Locker serializes runs against one tenant.
type Locker interface {
	AcquireTenantLock(ctx context.Context, tenant string, ttl time.Duration) (*redisc.Lock, error)
}

// Options are the per-invocation switches.
type Options struct {
	Tenant         string
	DryRun         bool
	Limit          int
	IncludePages   bool
	IncludePrivate bool
}

// Deps wires a Migrator. Locker is optional.
type Deps struct {
	Config  *config.AppConfig
	Source  Source
	Store   store.Store
	Objects objectstore.Store
	Locker  Locker
	Logger  *zap.Logger
}

type Migrator struct {
	cfg       *config.AppConfig
	source    Source
	store     store.Store
	objects   objectstore.Store
	locker    Locker
	logger    *zap.Logger
	summaries *bluemonday.Policy
	markdown  *converter.Converter
	now       func() time.Time
}

func New(deps Deps) *Migrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Migrator{
		cfg:       deps.Config,
		source:    deps.Source,
		store:     deps.Store,
		objects:   deps.Objects,
		locker:    deps.Locker,
		logger:    logger.Named("migrate"),
		summaries: bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	if deps.Config.Content.Format == config.ContentFormatMarkdown {
		m.markdown = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	}
	return m
}

// Run migrates posts (and pages when requested) into opts.Tenant. Setup failures return a nil
// Result. Once work has started a Result is always returned; the error is set when the run
// ends in StateFailed.
func (m *Migrator) Run(ctx context.Context, opts Options) (*Result, error) {
	st := m.store
	if opts.DryRun {
		st = store.NewDryRun(m.store, m.logger)
	}

	tenant, err := st.FindTenant(ctx, opts.Tenant)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	if m.locker != nil {
		lock, err := m.locker.AcquireTenantLock(ctx, tenant.ID, m.cfg.Lock.TTL)
		if err != nil {
			return nil, fmt.Errorf("lock tenant %s: %w", tenant.Slug, err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("release tenant lock", zap.String("key", lock.Key()), zap.Error(err))
			}
		}()
	}

	rc, err := m.newRunContext(tenant, st, opts)
	if err != nil {
		return nil, err
	}
	return rc.execute(ctx)
}

func (m *Migrator) newRunContext(tenant *models.TenantModel, st store.Store, opts Options) (*runContext, error) {
	sanitizer := slug.New(m.cfg.Slug.Transliterations)
	logger := m.logger.With(zap.String("tenant", tenant.Slug), zap.Bool("dry_run", opts.DryRun))

	rw, err := rewriter.New(m.cfg.Source.URL, sanitizer, logger)
	if err != nil {
		return nil, fmt.Errorf("build rewriter: %w", err)
	}

	now := m.now()
	return &runContext{
		m:         m,
		opts:      opts,
		store:     st,
		tenant:    tenant,
		sanitizer: sanitizer,
		resolver:  resolver.New(st, sanitizer, tenant.ID, logger),
		rewriter:  rw,
		assets: asset.NewPipeline(m.cfg.Assets, m.objects, st, asset.Options{
			UserAgent: m.cfg.Source.UserAgent,
			DryRun:    opts.DryRun,
			Logger:    logger,
		}),
		logger: logger,
		run: &models.MigrationRunModel{
			TenantID:  tenant.ID,
			State:     string(StateInitialized),
			DryRun:    opts.DryRun,
			Limit:     opts.Limit,
			StartedAt: now,
		},
		result: &Result{
			TenantID:  tenant.ID,
			DryRun:    opts.DryRun,
			State:     StateInitialized,
			StartedAt: now,
		},
	}, nil
}

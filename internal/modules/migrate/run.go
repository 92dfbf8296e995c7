package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/mx-space/migrator/internal/models"
	"github.com/mx-space/migrator/internal/modules/asset"
	"github.com/mx-space/migrator/internal/modules/resolver"
	"github.com/mx-space/migrator/internal/modules/rewriter"
	"github.com/mx-space/migrator/internal/modules/source"
	"github.com/mx-space/migrator/internal/modules/store"
	"github.com/mx-space/migrator/internal/pkg/slug"
	"go.uber.org/zap"
)

// runContext holds everything scoped to a single run. Nothing in it outlives Run.
type runContext struct {
	m         *Migrator
	opts      Options
	store     store.Store
	tenant    *models.TenantModel
	sanitizer *slug.Sanitizer
	resolver  *resolver.Resolver
	rewriter  *rewriter.Rewriter
	assets    *asset.Pipeline
	logger    *zap.Logger

	categories map[int64]source.Taxonomy
	tags       map[int64]source.Taxonomy
	authors    map[int64]source.Author
	media      map[int64]string
	posts      []source.ContentItem
	pages      []source.ContentItem
	pageIndex  *rewriter.PageSlugIndex

	run    *models.MigrationRunModel
	result *Result
}

func (rc *runContext) execute(ctx context.Context) (*Result, error) {
	rc.logger.Info("migration started",
		zap.Int("limit", rc.opts.Limit),
		zap.Bool("pages", rc.opts.IncludePages),
		zap.Bool("include_private", rc.opts.IncludePrivate))
	rc.saveRun(ctx)

	if err := rc.transition(ctx, StateFetchingReferenceData); err != nil {
		return rc.fail(ctx, err)
	}
	if err := rc.fetchReferenceData(ctx); err != nil {
		return rc.fail(ctx, err)
	}

	if err := rc.transition(ctx, StateMigratingContent); err != nil {
		return rc.fail(ctx, err)
	}
	if err := rc.migrateAll(ctx, rc.posts); err != nil {
		return rc.fail(ctx, err)
	}
	if rc.opts.IncludePages {
		if err := rc.migrateAll(ctx, rc.pagesToMigrate()); err != nil {
			return rc.fail(ctx, err)
		}
		if err := rc.transition(ctx, StateResolvingPageHierarchy); err != nil {
			return rc.fail(ctx, err)
		}
		if err := rc.resolveHierarchy(ctx); err != nil {
			return rc.fail(ctx, err)
		}
	}

	rc.collectResolverState()
	if err := rc.transition(ctx, StateCompleted); err != nil {
		return rc.fail(ctx, err)
	}
	rc.logger.Info("migration completed",
		zap.Int("posts_migrated", rc.result.Posts.Migrated),
		zap.Int("posts_skipped", rc.result.Posts.Skipped),
		zap.Int("posts_errored", rc.result.Posts.Errored),
		zap.Int("pages_migrated", rc.result.Pages.Migrated),
		zap.Int("pages_skipped", rc.result.Pages.Skipped),
		zap.Int("pages_errored", rc.result.Pages.Errored),
		zap.Duration("elapsed", rc.result.Duration()))
	return rc.result, nil
}

func (rc *runContext) transition(ctx context.Context, next State) error {
	current := rc.result.State
	if !current.CanTransition(next) {
		return fmt.Errorf("invalid run transition %s -> %s", current, next)
	}
	rc.result.State = next
	if next.Terminal() {
		rc.result.FinishedAt = rc.m.now()
	}
	rc.logger.Info("run state", zap.String("from", string(current)), zap.String("to", string(next)))
	rc.saveRun(ctx)
	return nil
}

func (rc *runContext) fail(ctx context.Context, err error) (*Result, error) {
	rc.collectResolverState()
	rc.result.Err = err.Error()
	rc.result.State = StateFailed
	rc.result.FinishedAt = rc.m.now()
	rc.logger.Error("migration failed", zap.Error(err))
	rc.saveRun(ctx)
	return rc.result, err
}

func (rc *runContext) collectResolverState() {
	if rc.resolver == nil {
		return
	}
	rc.result.ReferencesCreated = rc.resolver.Created()
	existing := 0
	for _, f := range rc.result.Flags {
		if f.Kind == "name-merge" {
			existing++
		}
	}
	for _, f := range rc.resolver.Flags()[existing:] {
		rc.result.flag("name-merge", f.SourceID, "%s %q matched %s by name (stored slug %q, source slug %q)",
			f.Kind, f.Name, f.TargetID, f.StoredSlug, f.Slug)
	}
}

// saveRun persists the audit row. The write must survive cancellation of ctx.
func (rc *runContext) saveRun(ctx context.Context) {
	r := rc.result
	run := rc.run
	run.State = string(r.State)
	run.PostsMigrated = r.Posts.Migrated
	run.PostsSkipped = r.Posts.Skipped
	run.PostsErrored = r.Posts.Errored
	run.PagesMigrated = r.Pages.Migrated
	run.PagesSkipped = r.Pages.Skipped
	run.PagesErrored = r.Pages.Errored
	run.AssetsRewritten = r.AssetsRewritten
	run.LinksRewritten = r.LinksRewritten
	run.UploadedBytes = r.UploadedBytes
	run.Flags = len(r.Flags)
	if r.Err != "" {
		msg := r.Err
		run.ErrorMessage = &msg
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		run.FinishedAt = &finished
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := rc.store.SaveRun(saveCtx, run); err != nil {
		rc.logger.Warn("save run record", zap.Error(err))
		return
	}
	r.RunID = run.ID
}

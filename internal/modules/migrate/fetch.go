package migrate

import (
	"context"
	"fmt"

	"github.com/mx-space/migrator/internal/modules/rewriter"
	"github.com/mx-space/migrator/internal/modules/source"
	"go.uber.org/zap"
)

// fetchReferenceData loads taxonomies, users, the content lists, the page slug index and the
// featured media index. Taxonomy and user failures are tolerated; a post list failure is not.
func (rc *runContext) fetchReferenceData(ctx context.Context) error {
	src := rc.m.source
	if rc.opts.IncludePrivate && !src.HasCredentials() {
		rc.logger.Warn("include-private requested without source credentials; only public items are listed")
	}

	categories, err := src.Categories(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rc.logger.Warn("list categories failed; category references will be omitted", zap.Error(err))
	}
	rc.categories = indexTaxonomies(categories)

	tags, err := src.Tags(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rc.logger.Warn("list tags failed; tag references will be omitted", zap.Error(err))
	}
	rc.tags = indexTaxonomies(tags)

	users, err := src.Users(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rc.logger.Warn("list users failed; author references will be omitted", zap.Error(err))
	}
	rc.authors = make(map[int64]source.Author, len(users))
	for _, u := range users {
		rc.authors[u.ID] = u
	}

	rc.rewriter.SetArchiveSlugs(rc.archiveSlugs(categories, tags, users))

	rc.posts, err = src.Posts(ctx, source.FetchOptions{Limit: rc.opts.Limit, IncludeNonPublic: rc.opts.IncludePrivate})
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	// Pages are always listed in full: the slug index must know every page.
	rc.pages, err = src.Pages(ctx, source.FetchOptions{IncludeNonPublic: rc.opts.IncludePrivate})
	if err != nil {
		if rc.opts.IncludePages || ctx.Err() != nil {
			return fmt.Errorf("list pages: %w", err)
		}
		rc.logger.Warn("list pages failed; single-segment links cannot be matched to pages", zap.Error(err))
	}
	slugs := make([]string, 0, len(rc.pages))
	for _, p := range rc.pages {
		slugs = append(slugs, p.Slug)
	}
	rc.pageIndex = rewriter.NewPageSlugIndex(slugs)

	var mediaIDs []int64
	for _, item := range rc.posts {
		mediaIDs = append(mediaIDs, item.FeaturedMediaID)
	}
	if rc.opts.IncludePages {
		for _, item := range rc.pagesToMigrate() {
			mediaIDs = append(mediaIDs, item.FeaturedMediaID)
		}
	}
	rc.media, err = src.MediaURLs(ctx, mediaIDs)
	if err != nil {
		return fmt.Errorf("featured media index: %w", err)
	}

	rc.logger.Info("reference data loaded",
		zap.Int("categories", len(rc.categories)),
		zap.Int("tags", len(rc.tags)),
		zap.Int("authors", len(rc.authors)),
		zap.Int("posts", len(rc.posts)),
		zap.Int("pages", len(rc.pages)),
		zap.Int("featured_media", len(rc.media)))
	return nil
}

func (rc *runContext) pagesToMigrate() []source.ContentItem {
	if rc.opts.Limit > 0 && len(rc.pages) > rc.opts.Limit {
		return rc.pages[:rc.opts.Limit]
	}
	return rc.pages
}

// archiveSlugs predicts the slug each term and author is stored under, using the same
// sanitizer inputs as the resolver, so archive links point at the migrated records.
func (rc *runContext) archiveSlugs(categories, tags []source.Taxonomy, users []source.Author) rewriter.ArchiveSlugs {
	archives := rewriter.ArchiveSlugs{}
	for _, t := range categories {
		archives.Add(rewriter.CategoryArchive, t.Slug, rc.sanitizer.Sanitize(t.Slug, t.Name))
	}
	for _, t := range tags {
		archives.Add(rewriter.TagArchive, t.Slug, rc.sanitizer.Sanitize(t.Slug, t.Name))
	}
	for _, u := range users {
		archives.Add(rewriter.AuthorArchive, u.Slug, rc.sanitizer.Sanitize(u.Slug, u.Name))
	}
	return archives
}

func indexTaxonomies(terms []source.Taxonomy) map[int64]source.Taxonomy {
	out := make(map[int64]source.Taxonomy, len(terms))
	for _, t := range terms {
		out[t.ID] = t
	}
	return out
}

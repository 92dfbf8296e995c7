package migrate

import (
	"context"
	"fmt"
	"html"
	neturl "net/url"
	"strings"

	"github.com/mx-space/migrator/internal/models"
	"github.com/mx-space/migrator/internal/modules/asset"
	"github.com/mx-space/migrator/internal/modules/resolver"
	"github.com/mx-space/migrator/internal/modules/source"
	"github.com/mx-space/migrator/internal/modules/store"
	"go.uber.org/zap"
)

// migrateAll runs the item pipeline sequentially. Only cancellation stops it early.
func (rc *runContext) migrateAll(ctx context.Context, items []source.ContentItem) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rc.migrateItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (rc *runContext) migrateItem(ctx context.Context, item source.ContentItem) error {
	slug := itemSlug(item)
	log := rc.logger.With(
		zap.String("kind", string(item.Kind)),
		zap.Int64("source_id", item.ID),
		zap.String("slug", slug))

	exists, err := rc.exists(ctx, item.Kind, slug)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rc.result.record(item, slug, OutcomeErrored, "existence check: "+err.Error())
		log.Error("existence check failed", zap.Error(err))
		return nil
	}
	if exists {
		rc.result.record(item, slug, OutcomeSkipped, "slug already exists in tenant")
		log.Info("skipped: already migrated")
		return nil
	}

	var categoryIDs, tagIDs []string
	if item.Kind == source.KindPost {
		categoryIDs = rc.resolveTerms(ctx, item, store.RefCategory, item.CategoryIDs, rc.categories)
		tagIDs = rc.resolveTerms(ctx, item, store.RefTag, item.TagIDs, rc.tags)
	}
	authorID := rc.resolveAuthor(ctx, item)

	session := rc.assets.NewSession(rc.tenant, item.ID)
	out, err := rc.rewriter.Rewrite(ctx, item.Content, session, rc.pageIndex)
	if err != nil {
		return err
	}
	cover, err := rc.cover(ctx, item, out.FirstAssetURL, session)
	if err != nil {
		return err
	}

	stats := session.Stats()
	rc.result.AssetsRewritten += out.AssetsRewritten
	rc.result.LinksRewritten += out.LinksRewritten
	rc.result.AssetsFailed += stats.Failed
	rc.result.UploadedBytes += stats.UploadedBytes
	for _, f := range out.Flags {
		if f.Rewritten == "" {
			rc.result.flag("link", item.ID, "%s left unchanged by %s", f.URL, f.Rule)
			continue
		}
		rc.result.flag("link", item.ID, "%s rewritten to %s by %s (not a known page)", f.URL, f.Rewritten, f.Rule)
	}

	body := rc.renderBody(out.HTML, log)
	if err := rc.persist(ctx, item, slug, body, cover, authorID, categoryIDs, tagIDs); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rc.result.record(item, slug, OutcomeErrored, err.Error())
		log.Error("persist failed", zap.Error(err))
		return nil
	}

	rc.result.record(item, slug, OutcomeMigrated, "")
	log.Info("migrated",
		zap.Int("assets", out.AssetsRewritten),
		zap.Int("links", out.LinksRewritten),
		zap.Bool("cover", cover != ""))
	return nil
}

func (rc *runContext) exists(ctx context.Context, kind source.Kind, slug string) (bool, error) {
	if kind == source.KindPage {
		return rc.store.PageExists(ctx, rc.tenant.ID, slug)
	}
	return rc.store.PostExists(ctx, rc.tenant.ID, slug)
}

// resolveTerms maps source term IDs to destination IDs. Unknown terms and resolver errors
// drop only that reference.
func (rc *runContext) resolveTerms(ctx context.Context, item source.ContentItem, kind store.RefKind, ids []int64, lookup map[int64]source.Taxonomy) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		term, ok := lookup[id]
		if !ok {
			rc.logger.Warn("reference omitted: unknown term",
				zap.String("kind", string(kind)), zap.Int64("term_id", id), zap.Int64("source_id", item.ID))
			continue
		}
		destID, err := rc.resolver.Resolve(ctx, resolver.Ref{Kind: kind, SourceID: term.ID, Name: term.Name, Slug: term.Slug})
		if err != nil {
			rc.logger.Warn("reference omitted",
				zap.String("kind", string(kind)), zap.Int64("term_id", id), zap.Int64("source_id", item.ID), zap.Error(err))
			continue
		}
		if _, dup := seen[destID]; dup {
			continue
		}
		seen[destID] = struct{}{}
		out = append(out, destID)
	}
	return out
}

func (rc *runContext) resolveAuthor(ctx context.Context, item source.ContentItem) *string {
	if item.AuthorID <= 0 {
		return nil
	}
	author, ok := rc.authors[item.AuthorID]
	if !ok {
		rc.logger.Warn("author omitted: unknown user", zap.Int64("user_id", item.AuthorID), zap.Int64("source_id", item.ID))
		return nil
	}
	id, err := rc.resolver.Resolve(ctx, resolver.Ref{
		Kind:     store.RefAuthor,
		SourceID: author.ID,
		Name:     author.Name,
		Slug:     author.Slug,
		Bio:      author.Description,
		Avatar:   author.AvatarURL,
	})
	if err != nil {
		rc.logger.Warn("author omitted", zap.Int64("user_id", item.AuthorID), zap.Int64("source_id", item.ID), zap.Error(err))
		return nil
	}
	return &id
}

// cover materializes the declared featured media, else the first inline asset of the original
// body. A failure leaves the item without a cover.
func (rc *runContext) cover(ctx context.Context, item source.ContentItem, inline string, session *asset.Session) (string, error) {
	src := ""
	if item.FeaturedMediaID > 0 {
		src = rc.media[item.FeaturedMediaID]
	}
	if src == "" {
		src = inline
	}
	if src == "" {
		return "", nil
	}
	url, err := session.Materialize(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", nil
	}
	return url, nil
}

func (rc *runContext) renderBody(body string, log *zap.Logger) string {
	if rc.m.markdown == nil {
		return body
	}
	md, err := rc.m.markdown.ConvertString(body)
	if err != nil {
		log.Warn("markdown conversion failed; keeping html", zap.Error(err))
		return body
	}
	return strings.TrimSpace(md)
}

func (rc *runContext) summary(excerpt string) string {
	text := html.UnescapeString(rc.m.summaries.Sanitize(excerpt))
	return strings.Join(strings.Fields(text), " ")
}

func (rc *runContext) persist(ctx context.Context, item source.ContentItem, slug, body, cover string, authorID *string, categoryIDs, tagIDs []string) error {
	provenance := models.NewProvenance(item.ID, rc.m.now())
	write := models.WriteBase{Title: item.Title, Text: body}

	if item.Kind == source.KindPage {
		page := &models.PageModel{
			WriteBase:   write,
			TenantID:    rc.tenant.ID,
			Slug:        slug,
			Summary:     rc.summary(item.Excerpt),
			Order:       item.MenuOrder,
			AuthorID:    authorID,
			Cover:       cover,
			IsPublished: item.IsPublished(),
			Status:      item.Status,
			PublishedAt: item.Date,
			Provenance:  provenance,
		}
		if err := rc.store.CreatePage(ctx, page); err != nil {
			return fmt.Errorf("create page: %w", err)
		}
		return nil
	}

	post := &models.PostModel{
		WriteBase:   write,
		TenantID:    rc.tenant.ID,
		Slug:        slug,
		Summary:     rc.summary(item.Excerpt),
		CategoryIDs: categoryIDs,
		TagIDs:      tagIDs,
		AuthorID:    authorID,
		Cover:       cover,
		IsPublished: item.IsPublished(),
		Status:      item.Status,
		PublishedAt: item.Date,
		Provenance:  provenance,
	}
	if err := rc.store.CreatePost(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// itemSlug is the destination slug: the decoded source slug, or <kind>-<id> for items the
// source has not given a slug yet (drafts).
func itemSlug(item source.ContentItem) string {
	raw := strings.TrimSpace(item.Slug)
	if raw == "" {
		return fmt.Sprintf("%s-%d", item.Kind, item.ID)
	}
	if decoded, err := neturl.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

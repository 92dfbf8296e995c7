package migrate

import (
	"context"

	"go.uber.org/zap"
)

// resolveHierarchy links child pages to their parents once every page has a destination ID.
// Both sides are looked up in the destination, so pages from earlier runs are linked too.
func (rc *runContext) resolveHierarchy(ctx context.Context) error {
	slugs := make(map[int64]string, len(rc.pages))
	for _, p := range rc.pages {
		slugs[p.ID] = itemSlug(p)
	}

	for _, p := range rc.pages {
		if p.ParentID <= 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		childSlug := slugs[p.ID]
		log := rc.logger.With(zap.Int64("source_id", p.ID), zap.String("slug", childSlug))

		parentSlug, ok := slugs[p.ParentID]
		if !ok {
			rc.result.flag("page-parent", p.ID, "parent page #%d is not in the source listing", p.ParentID)
			log.Warn("parent page not listed", zap.Int64("parent_source_id", p.ParentID))
			continue
		}

		child, err := rc.store.FindPageBySlug(ctx, rc.tenant.ID, childSlug)
		if err != nil {
			log.Warn("find child page", zap.Error(err))
			continue
		}
		if child == nil {
			continue
		}
		parent, err := rc.store.FindPageBySlug(ctx, rc.tenant.ID, parentSlug)
		if err != nil {
			log.Warn("find parent page", zap.String("parent_slug", parentSlug), zap.Error(err))
			continue
		}
		if parent == nil {
			rc.result.flag("page-parent", p.ID, "parent page %q has not been migrated", parentSlug)
			continue
		}
		if child.ParentID != nil && *child.ParentID == parent.ID {
			continue
		}

		if err := rc.store.SetPageParent(ctx, child.ID, parent.ID); err != nil {
			log.Error("set page parent", zap.String("parent_slug", parentSlug), zap.Error(err))
			continue
		}
		rc.result.ParentsLinked++
		log.Info("page parent linked", zap.String("parent_slug", parentSlug))
	}
	return nil
}

package source

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MediaURLs resolves featured media IDs to their source URLs. Requests run in
// sequential batches of media_batch_width concurrent lookups. Unknown or failing
// media are left out of the result.
func (c *Client) MediaURLs(ctx context.Context, ids []int64) (map[int64]string, error) {
	width := c.cfg.MediaBatchWidth
	if width <= 0 {
		width = 8
	}

	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var mu sync.Mutex
	out := make(map[int64]string, len(unique))
	for start := 0; start < len(unique); start += width {
		end := start + width
		if end > len(unique) {
			end = len(unique)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range unique[start:end] {
			id := id
			g.Go(func() error {
				media, err := c.Media(gctx, id)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					c.logger.Warn("featured media lookup failed", zap.Int64("media_id", id), zap.Error(err))
					return nil
				}
				if media == nil || media.SourceURL == "" {
					return nil
				}
				mu.Lock()
				out[id] = media.SourceURL
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return out, err
		}
	}
	return out, nil
}

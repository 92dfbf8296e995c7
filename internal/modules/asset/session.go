package asset

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/mx-space/migrator/internal/models"
	"go.uber.org/zap"
)

type outcome struct {
	url string
	err error
}

// Stats counts the work done by one session.
type Stats struct {
	Downloaded    int
	Uploaded      int
	Failed        int
	UploadedBytes int64
}

// Session memoizes materialized assets for one content item. Not safe for concurrent use.
type Session struct {
	pipeline  *Pipeline
	tenant    *models.TenantModel
	originID  int64
	memo      map[string]outcome
	downloads int
	stats     Stats
}

// Materialize returns the destination URL for sourceURL, downloading it at most once per session.
// Failures are remembered as well.
func (s *Session) Materialize(ctx context.Context, sourceURL string) (string, error) {
	if o, ok := s.memo[sourceURL]; ok {
		return o.url, o.err
	}

	url, err := s.materialize(ctx, sourceURL)
	if err != nil && ctx.Err() != nil {
		return "", err
	}
	if err != nil {
		s.stats.Failed++
		s.pipeline.logger.Warn("asset left unrewritten", zap.String("source", sourceURL), zap.Error(err))
	}
	s.memo[sourceURL] = outcome{url: url, err: err}
	return url, err
}

func (s *Session) Stats() Stats {
	return s.stats
}

func (s *Session) materialize(ctx context.Context, sourceURL string) (string, error) {
	p := s.pipeline
	if s.downloads > 0 {
		if err := sleepContext(ctx, p.cfg.DownloadDelay); err != nil {
			return "", err
		}
	}
	s.downloads++

	data, err := p.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	s.stats.Downloaded++

	primary, thumb, err := p.transcoder.Transcode(data)
	if err != nil {
		return "", err
	}

	if p.dryRun {
		placeholder := DryRunURL(sourceURL)
		p.logger.Info("dry-run: skip asset upload",
			zap.String("source", sourceURL),
			zap.String("placeholder", placeholder),
			zap.String("size", humanize.Bytes(uint64(len(primary.Data)))))
		return placeholder, nil
	}

	url, err := p.upload(ctx, s, sourceURL, primary, thumb)
	if err != nil {
		return "", err
	}
	s.stats.Uploaded++
	s.stats.UploadedBytes += int64(len(primary.Data) + len(thumb.Data))
	p.logger.Info("asset uploaded",
		zap.String("source", sourceURL),
		zap.String("url", url),
		zap.String("size", humanize.Bytes(uint64(len(primary.Data)))))
	return url, nil
}

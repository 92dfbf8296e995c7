// Package asset downloads embedded images, transcodes them and uploads the results.
package asset

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mx-space/migrator/internal/config"
	"github.com/mx-space/migrator/internal/models"
	"github.com/mx-space/migrator/internal/modules/storage/objectstore"
	"go.uber.org/zap"
)

const dryRunPrefix = "dry-run://assets/"

// ErrUnavailable means the source asset could not be fetched.
var ErrUnavailable = errors.New("asset unavailable")

// Recorder persists metadata about uploaded assets.
type Recorder interface {
	CreateAsset(ctx context.Context, asset *models.AssetModel) error
}

type Options struct {
	UserAgent string
	DryRun    bool
	Logger    *zap.Logger
}

// Pipeline is shared by all items of a run; per-item state lives in a Session.
type Pipeline struct {
	cfg        config.AssetsConfig
	client     *http.Client
	transcoder *Transcoder
	objects    objectstore.Store
	recorder   Recorder
	userAgent  string
	dryRun     bool
	logger     *zap.Logger
	now        func() time.Time
}

func NewPipeline(cfg config.AssetsConfig, objects objectstore.Store, recorder Recorder, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxRedirects := cfg.MaxRedirects
	return &Pipeline{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.DownloadTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		transcoder: NewTranscoder(cfg),
		objects:    objects,
		recorder:   recorder,
		userAgent:  opts.UserAgent,
		dryRun:     opts.DryRun,
		logger:     logger.Named("asset"),
		now:        time.Now,
	}
}

// NewSession starts an empty memo for one content item.
func (p *Pipeline) NewSession(tenant *models.TenantModel, originID int64) *Session {
	return &Session{
		pipeline: p,
		tenant:   tenant,
		originID: originID,
		memo:     make(map[string]outcome),
	}
}

// DryRunURL is the placeholder returned instead of an upload in dry-run mode.
func DryRunURL(sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL))
	return dryRunPrefix + hex.EncodeToString(sum[:])[:16] + ".jpg"
}

func (p *Pipeline) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	limit := p.cfg.MaxBytes
	if limit <= 0 {
		limit = 25 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: larger than %s", ErrUnavailable, humanize.Bytes(uint64(limit)))
	}
	return data, nil
}

func (p *Pipeline) upload(ctx context.Context, s *Session, sourceURL string, primary, thumb Variant) (string, error) {
	filename, _ := objectstore.SplitFilename(sourceURL)
	key := objectstore.RenderKey(p.cfg.KeyTemplate, objectstore.KeyInput{
		Tenant:   s.tenant.Slug,
		Filename: filename,
		Ext:      "jpg",
		Payload:  primary.Data,
		Now:      p.now(),
	})

	primaryURL, err := p.objects.Put(ctx, key, primary.Data, primary.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload primary: %w", err)
	}
	thumbURL, err := p.objects.Put(ctx, objectstore.ThumbnailKey(key), thumb.Data, thumb.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}

	record := &models.AssetModel{
		TenantID:     s.tenant.ID,
		URL:          primaryURL,
		ThumbnailURL: thumbURL,
		SourceURL:    sourceURL,
		Width:        primary.Width,
		Height:       primary.Height,
		Size:         int64(len(primary.Data)),
		ContentType:  primary.ContentType,
		Provenance:   models.NewProvenance(s.originID, p.now()),
	}
	if p.recorder != nil {
		if err := p.recorder.CreateAsset(ctx, record); err != nil {
			p.logger.Warn("asset uploaded but metadata not recorded", zap.String("url", primaryURL), zap.Error(err))
		}
	}
	return primaryURL, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

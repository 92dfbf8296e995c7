// Package source reads content from a WordPress-style REST API.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"

	"github.com/mx-space/migrator/internal/config"
	"go.uber.org/zap"
)

const (
	apiPrefix        = "/wp-json/wp/v2/"
	nonPublicStatus  = "publish,draft,private,pending,future"
	maxResponseBytes = 32 << 20
)

// ErrNotFound is returned for 4xx responses on single-resource reads.
var ErrNotFound = errors.New("source resource not found")

// Client talks to the source REST API.
type Client struct {
	baseURL    string
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// FetchOptions bounds a collection listing.
type FetchOptions struct {
	Limit            int
	IncludeNonPublic bool
}

func NewClient(cfg config.SourceConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("source"),
	}
}

// HasCredentials reports whether authenticated requests are possible.
func (c *Client) HasCredentials() bool {
	return c.cfg.HasCredentials()
}

// FetchAll pages through a collection until an empty page, the limit or the page ceiling.
// An error on the first page is returned; later failures end the listing.
func FetchAll[W any](ctx context.Context, c *Client, collection string, opts FetchOptions) ([]W, error) {
	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if opts.Limit > 0 && opts.Limit < pageSize {
		pageSize = opts.Limit
	}
	maxPages := c.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 200
	}

	var out []W
	for page := 1; page <= maxPages; page++ {
		params := neturl.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(pageSize))
		if opts.IncludeNonPublic && c.HasCredentials() {
			params.Set("status", nonPublicStatus)
			params.Set("context", "edit")
		}

		var batch []W
		totalPages, err := c.getJSON(ctx, collection, params, &batch)
		if err != nil {
			if page == 1 || ctx.Err() != nil {
				return nil, fmt.Errorf("list %s: %w", collection, err)
			}
			c.logger.Warn("list page failed, treating as end of data",
				zap.String("collection", collection), zap.Int("page", page), zap.Error(err))
			break
		}
		if len(batch) == 0 {
			break
		}

		out = append(out, batch...)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			out = out[:opts.Limit]
			break
		}
		if totalPages > 0 && page >= totalPages {
			break
		}
		if page == maxPages {
			c.logger.Warn("page ceiling reached", zap.String("collection", collection), zap.Int("max_pages", maxPages))
		}
	}
	return out, nil
}

// FetchSingle reads one resource. A 4xx answer yields (nil, nil).
func FetchSingle[W any](ctx context.Context, c *Client, collection string, id int64) (*W, error) {
	var out W
	if _, err := c.getJSON(ctx, collection+"/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s/%d: %w", collection, id, err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params neturl.Values, out interface{}) (int, error) {
	target := c.baseURL + apiPrefix + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}

	totalPages, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	return totalPages, nil
}

func (c *Client) authorize(req *http.Request) {
	switch {
	case c.cfg.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	case c.cfg.Username != "" && c.cfg.AppPassword != "":
		req.SetBasicAuth(c.cfg.Username, c.cfg.AppPassword)
	}
}

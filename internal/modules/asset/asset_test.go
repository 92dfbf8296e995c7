package asset

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mx-space/migrator/internal/config"
	"github.com/mx-space/migrator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (m *memoryStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.puts == nil {
		m.puts = make(map[string][]byte)
	}
	m.puts[key] = body
	return "https://cdn.example/" + key, nil
}

type recorder struct {
	assets []*models.AssetModel
}

func (r *recorder) CreateAsset(_ context.Context, asset *models.AssetModel) error {
	r.assets = append(r.assets, asset)
	return nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig() config.AssetsConfig {
	return config.AssetsConfig{
		MaxWidth:         100,
		Quality:          80,
		ThumbnailWidth:   40,
		ThumbnailHeight:  30,
		ThumbnailQuality: 60,
		DownloadTimeout:  5 * time.Second,
		MaxRedirects:     1,
		MaxBytes:         1 << 20,
		KeyTemplate:      "migrated/{tenant}/{filename}.{ext}",
	}
}

var testTenant = &models.TenantModel{Base: models.Base{ID: "tenant-1"}, Slug: "acme"}

func TestTranscodeResizesAndCrops(t *testing.T) {
	tc := NewTranscoder(testConfig())
	primary, thumb, err := tc.Transcode(testPNG(t, 400, 200))
	require.NoError(t, err)

	assert.Equal(t, 100, primary.Width)
	assert.Equal(t, 50, primary.Height)
	assert.Equal(t, "image/jpeg", primary.ContentType)
	decoded, err := jpeg.DecodeConfig(bytes.NewReader(primary.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Width)

	assert.Equal(t, 40, thumb.Width)
	assert.Equal(t, 30, thumb.Height)

	small, _, err := tc.Transcode(testPNG(t, 50, 20))
	require.NoError(t, err)
	assert.Equal(t, 50, small.Width)
	assert.Equal(t, 20, small.Height)

	_, _, err = tc.Transcode([]byte("not an image"))
	assert.Error(t, err)
}

func TestMaterializeUploadsAndMemoizes(t *testing.T) {
	payload := testPNG(t, 300, 300)
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	store := &memoryStore{}
	rec := &recorder{}
	p := NewPipeline(testConfig(), store, rec, Options{})
	session := p.NewSession(testTenant, 42)

	src := server.URL + "/wp-content/uploads/2024/01/photo.png"
	first, err := session.Materialize(context.Background(), src)
	require.NoError(t, err)
	second, err := session.Materialize(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "https://cdn.example/migrated/acme/photo.jpg", first)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Len(t, store.puts, 2)
	assert.Contains(t, store.puts, "migrated/acme/photo-thumb.jpg")

	require.Len(t, rec.assets, 1)
	asset := rec.assets[0]
	assert.Equal(t, "tenant-1", asset.TenantID)
	assert.Equal(t, src, asset.SourceURL)
	assert.Equal(t, "https://cdn.example/migrated/acme/photo-thumb.jpg", asset.ThumbnailURL)
	assert.Equal(t, 100, asset.Width)
	assert.True(t, asset.Migrated)
	assert.Equal(t, int64(42), asset.OriginID)

	stats := session.Stats()
	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, 1, stats.Uploaded)
	assert.Positive(t, stats.UploadedBytes)

	other := p.NewSession(testTenant, 43)
	_, err = other.Materialize(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestMaterializeUnavailable(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/missing.jpg":
			w.WriteHeader(http.StatusNotFound)
		case "/hop1.jpg":
			http.Redirect(w, r, "/hop2.jpg", http.StatusFound)
		case "/hop2.jpg":
			http.Redirect(w, r, "/big.jpg", http.StatusFound)
		case "/big.jpg":
			_, _ = w.Write(bytes.Repeat([]byte("x"), 2<<20))
		}
	}))
	defer server.Close()

	store := &memoryStore{}
	p := NewPipeline(testConfig(), store, nil, Options{})
	session := p.NewSession(testTenant, 1)

	_, err := session.Materialize(context.Background(), server.URL+"/missing.jpg")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = session.Materialize(context.Background(), server.URL+"/missing.jpg")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = session.Materialize(context.Background(), server.URL+"/hop1.jpg")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = session.Materialize(context.Background(), server.URL+"/hop2.jpg")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, strings.Contains(err.Error(), "larger than"))

	assert.Empty(t, store.puts)
	assert.Equal(t, 3, session.Stats().Failed)
}

func TestMaterializeDryRun(t *testing.T) {
	payload := testPNG(t, 20, 20)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	store := &memoryStore{}
	rec := &recorder{}
	p := NewPipeline(testConfig(), store, rec, Options{DryRun: true})
	src := server.URL + "/a.png"

	url, err := p.NewSession(testTenant, 1).Materialize(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, DryRunURL(src), url)
	assert.True(t, strings.HasPrefix(url, "dry-run://assets/"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(url, "dry-run://assets/"), ".jpg"), 16)
	assert.Empty(t, store.puts)
	assert.Empty(t, rec.assets)
}

func TestMaterializeWaitsBetweenDownloads(t *testing.T) {
	payload := testPNG(t, 10, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.DownloadDelay = time.Hour
	p := NewPipeline(cfg, &memoryStore{}, nil, Options{})
	session := p.NewSession(testTenant, 1)

	_, err := session.Materialize(context.Background(), server.URL+"/a.png")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = session.Materialize(ctx, server.URL+"/b.png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

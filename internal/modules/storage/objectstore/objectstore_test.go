package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mx-space/migrator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKey(t *testing.T) {
	now := time.Date(2024, 5, 7, 8, 9, 10, 11, time.UTC)
	key := RenderKey("/migrated/{tenant}/{Y}/{m}/{d}/{filename}-{md5-16}.{ext}", KeyInput{
		Tenant:   "acme blog",
		Filename: "my photo",
		Ext:      ".JPG",
		Payload:  []byte("hello"),
		Now:      now,
	})
	assert.Equal(t, "migrated/acme-blog/2024/05/07/my-photo-5d41402abc4b2a76.jpg", key)

	withTimestamp := RenderKey("{timestamp}.{ext}", KeyInput{Now: now})
	assert.Equal(t, "1715069350000000011.dat", withTimestamp)

	fallback := RenderKey("  ", KeyInput{Tenant: "t", Ext: "png", Now: now})
	assert.True(t, strings.HasPrefix(fallback, "migrated/t/2024/05/"))
	assert.True(t, strings.HasSuffix(fallback, ".png"))
}

func TestThumbnailKeyAndFilename(t *testing.T) {
	assert.Equal(t, "a/b/photo-thumb.jpg", ThumbnailKey("a/b/photo.jpg"))
	assert.Equal(t, "noext-thumb", ThumbnailKey("noext"))

	name, ext := SplitFilename("https://src.example/wp-content/uploads/2024/01/Sunset.JPEG?ver=2")
	assert.Equal(t, "Sunset", name)
	assert.Equal(t, "jpeg", ext)

	assert.Equal(t, "image/jpeg", DetectContentType("a.jpg", nil))
	assert.Equal(t, "image/png", DetectContentType("", []byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "application/octet-stream", DetectContentType("", nil))
}

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "/objects/image/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "/migrated/acme//2024/a b.jpg", []byte("data"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/objects/image/migrated/acme/2024/a%20b.jpg", url)

	content, err := os.ReadFile(filepath.Join(dir, "migrated", "acme", "2024", "a b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	_, err = store.Put(context.Background(), "../escape.jpg", []byte("x"), "image/jpeg")
	assert.Error(t, err)
}

func TestS3StorePut(t *testing.T) {
	var (
		mu       sync.Mutex
		gotPath  string
		gotType  string
		gotBody  []byte
		gotAuthz string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotAuthz = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store, err := NewS3(config.S3Options{
		Endpoint:        server.URL,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Bucket:          "media",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "migrated/acme/photo.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/media/migrated/acme/photo.jpg", url)

	mu.Lock()
	assert.Equal(t, "/media/migrated/acme/photo.jpg", gotPath)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "jpeg-bytes", string(gotBody))
	assert.True(t, strings.HasPrefix(gotAuthz, "AWS4-HMAC-SHA256"))
	mu.Unlock()

	lastType := func() string {
		mu.Lock()
		defer mu.Unlock()
		return gotType
	}
	_, err = store.Put(context.Background(), "migrated/acme/photo-thumb.png", []byte("png-bytes"), "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", lastType())

	_, err = store.Put(context.Background(), "migrated/acme/blob", []byte("\x89PNG\r\n\x1a\n0000"), "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", lastType())
}

func TestS3PublicURLStyles(t *testing.T) {
	virtual, err := NewS3(config.S3Options{AccessKeyID: "a", SecretAccessKey: "b", Bucket: "media", Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/k/v.jpg", virtual.publicURL("k/v.jpg"))

	custom, err := NewS3(config.S3Options{AccessKeyID: "a", SecretAccessKey: "b", Bucket: "media", Region: "eu-west-1", CustomDomain: "https://cdn.example/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/k/v.jpg", custom.publicURL("k/v.jpg"))

	_, err = NewS3(config.S3Options{Bucket: "media"})
	assert.Error(t, err)
}

func TestNewSelectsDriver(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Storage.Driver = config.StorageDriverLocal
	cfg.Storage.Local.Dir = t.TempDir()
	store, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	cfg.Storage.Driver = "ftp"
	_, err = New(cfg)
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("source:\n  url: blog.example.com/\n"), "inline")
	require.NoError(t, err)

	assert.Equal(t, "https://blog.example.com", cfg.Source.URL)
	assert.Equal(t, defaultSourcePageSize, cfg.Source.PageSize)
	assert.Equal(t, defaultSourceMaxPages, cfg.Source.MaxPages)
	assert.Equal(t, defaultMediaBatchWidth, cfg.Source.MediaBatchWidth)
	assert.Equal(t, defaultMaxRedirects, cfg.Assets.MaxRedirects)
	assert.Equal(t, defaultDownloadDelay, cfg.Assets.DownloadDelay)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, ContentFormatHTML, cfg.Content.Format)
	dsn, err := mysql.ParseDSN(cfg.DSN)
	require.NoError(t, err)
	assert.Equal(t, "root", dsn.User)
	assert.Equal(t, "password", dsn.Passwd)
	assert.Equal(t, "127.0.0.1:3306", dsn.Addr)
	assert.Equal(t, "mx_space", dsn.DBName)
	assert.True(t, dsn.ParseTime)
	assert.Equal(t, time.Local, dsn.Loc)
	assert.Equal(t, "utf8mb4", dsn.Params["charset"])
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.False(t, cfg.Source.HasCredentials())
}

func TestParseOverridesAndAliases(t *testing.T) {
	content := `
env: Development
database:
  host: db.internal
  port: 3307
  username: migrator
  db_name: content
redis:
  db: 2
lock:
  enable: true
  ttl: 30m
source:
  url: https://blog.example.com
  username: admin
  password: app-pass
  per_page: 50
assets:
  download_delay: 0s
  max_redirects: 0
content:
  format: Markdown
slug:
  transliterations:
    旅行: travel
`
	cfg, err := Parse([]byte(content), "inline")
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	dsn, err := mysql.ParseDSN(cfg.DSN)
	require.NoError(t, err)
	assert.Equal(t, "migrator", dsn.User)
	assert.Equal(t, "db.internal:3307", dsn.Addr)
	assert.Equal(t, "content", dsn.DBName)
	assert.Equal(t, "redis://localhost:6379/2", cfg.RedisURL)
	assert.True(t, cfg.Lock.Enable)
	assert.Equal(t, 30*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, "app-pass", cfg.Source.AppPassword)
	assert.Equal(t, 50, cfg.Source.PageSize)
	assert.True(t, cfg.Source.HasCredentials())
	assert.Equal(t, time.Duration(0), cfg.Assets.DownloadDelay)
	assert.Equal(t, 0, cfg.Assets.MaxRedirects)
	assert.Equal(t, ContentFormatMarkdown, cfg.Content.Format)
	assert.Equal(t, map[string]string{"旅行": "travel"}, cfg.Slug.Transliterations)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv(EnvSourceToken, "secret-token")
	t.Setenv(EnvS3SecretKey, "s3-secret")

	content := `
source:
  url: https://blog.example.com
storage:
  driver: s3
  s3:
    bucket: media
    region: us-east-1
    access_key_id: AKIA
`
	cfg, err := Parse([]byte(content), "inline")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Source.Token)
	assert.Equal(t, "s3-secret", cfg.Storage.S3.SecretAccessKey)
	assert.True(t, cfg.Source.HasCredentials())
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"missing source":    "env: production\n",
		"unknown field":     "source:\n  url: https://a.example\n  nope: 1\n",
		"bad driver":        "source:\n  url: https://a.example\nstorage:\n  driver: ftp\n",
		"incomplete s3":     "source:\n  url: https://a.example\nstorage:\n  driver: s3\n  s3:\n    bucket: b\n",
		"bad format":        "source:\n  url: https://a.example\ncontent:\n  format: rst\n",
		"bad page size":     "source:\n  url: https://a.example\n  page_size: 500\n",
		"bad port":          "source:\n  url: https://a.example\ndatabase:\n  port: 70000\n",
		"negative redirect": "source:\n  url: https://a.example\nassets:\n  max_redirects: -1\n",
		"unknown zone":      "source:\n  url: https://a.example\ndatabase:\n  loc: Mars/Olympus\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content), "inline")
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  url: https://blog.example.com\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com", cfg.Source.URL)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestExplicitDSNWins(t *testing.T) {
	cfg, err := Parse([]byte("source:\n  url: https://a.example\ndatabase:\n  url: u:p@tcp(h:1)/d\n  host: ignored\n"), "inline")
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(h:1)/d", cfg.DSN)
}

func TestRelativePathsFollowConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "source:\n  url: https://a.example\npaths:\n  logs: logs\nstorage:\n  local:\n    dir: media\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir())
	assert.Equal(t, filepath.Join(dir, "media"), cfg.LocalStorageDir())

	cfg.Storage.Local.Dir = "/srv/objects"
	assert.Equal(t, "/srv/objects", cfg.LocalStorageDir())

	inline, err := Parse([]byte("source:\n  url: https://a.example\n"), "inline")
	require.NoError(t, err)
	assert.Empty(t, inline.LogDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, defaultLocalStorageDir), inline.LocalStorageDir())
}

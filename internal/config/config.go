package config

import (
	"bytes"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath, applies it over the defaults and validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg, err := Parse(content, path)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(path); err == nil {
		cfg.baseDir = filepath.Dir(abs)
	}
	return cfg, nil
}

// Parse decodes raw YAML content. name is only used in error messages.
func Parse(content []byte, name string) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", name, err)
		}
	}

	applyRawAppConfig(&cfg, raw)
	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", name, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Env: defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Lock: LockConfig{TTL: defaultLockTTL},
		Source: SourceConfig{
			UserAgent:       defaultSourceUserAgent,
			PageSize:        defaultSourcePageSize,
			MaxPages:        defaultSourceMaxPages,
			MediaBatchWidth: defaultMediaBatchWidth,
			Timeout:         defaultSourceTimeout,
		},
		Assets: AssetsConfig{
			MaxWidth:         defaultAssetMaxWidth,
			Quality:          defaultAssetQuality,
			ThumbnailWidth:   defaultThumbWidth,
			ThumbnailHeight:  defaultThumbHeight,
			ThumbnailQuality: defaultThumbQuality,
			DownloadDelay:    defaultDownloadDelay,
			DownloadTimeout:  defaultDownloadTimeout,
			MaxRedirects:     defaultMaxRedirects,
			MaxBytes:         defaultAssetMaxBytes,
			KeyTemplate:      defaultAssetKeyTemplate,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
			Local: LocalStorageConfig{
				Dir:           defaultLocalStorageDir,
				PublicBaseURL: defaultLocalPublicBase,
			},
		},
		Content: ContentConfig{Format: defaultContentFormat},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)

	if raw.Lock.Enable != nil {
		cfg.Lock.Enable = *raw.Lock.Enable
	}
	if raw.Lock.TTL > 0 {
		cfg.Lock.TTL = raw.Lock.TTL
	}

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}

	cfg.Source = applyRawSourceConfig(cfg.Source, raw.Source)
	cfg.Assets = applyRawAssetsConfig(cfg.Assets, raw.Assets)
	cfg.Storage = applyRawStorageConfig(cfg.Storage, raw.Storage)

	if v := strings.TrimSpace(raw.Content.Format); v != "" {
		cfg.Content.Format = v
	}
	if len(raw.Slug.Transliterations) > 0 {
		cfg.Slug.Transliterations = trimmed(raw.Slug.Transliterations)
	}

	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Source = normalizeSourceConfig(cfg.Source)
	cfg.Storage = normalizeStorageConfig(cfg.Storage)
	cfg.Content.Format = strings.ToLower(strings.TrimSpace(cfg.Content.Format))
	cfg.Env = strings.ToLower(orDefault(cfg.Env, defaultEnv))
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Database.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.URL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		cfg.Host = v
	}
	if raw.Database.Port != 0 {
		cfg.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Username); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.Database.ParseTime != nil {
		cfg.ParseTime = *raw.Database.ParseTime
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		cfg.Loc = v
	}
	if raw.Database.Params != nil {
		cfg.Params = trimmed(raw.Database.Params)
	}
	return cfg
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		cfg.Password = v
	}
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		cfg.TLS = *raw.Redis.TLS
	}
	return cfg
}

func applyRawSourceConfig(cfg SourceConfig, raw rawSourceConfig) SourceConfig {
	if v := strings.TrimSpace(raw.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Token); v != "" {
		cfg.Token = v
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Password); v != "" {
		cfg.AppPassword = v
	}
	if v := strings.TrimSpace(raw.AppPassword); v != "" {
		cfg.AppPassword = v
	}
	if v := strings.TrimSpace(raw.UserAgent); v != "" {
		cfg.UserAgent = v
	}
	if raw.PerPage != 0 {
		cfg.PageSize = raw.PerPage
	}
	if raw.PageSize != 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.MaxPages != 0 {
		cfg.MaxPages = raw.MaxPages
	}
	if raw.MediaBatchWidth != 0 {
		cfg.MediaBatchWidth = raw.MediaBatchWidth
	}
	if raw.Timeout > 0 {
		cfg.Timeout = raw.Timeout
	}
	return cfg
}

func applyRawAssetsConfig(cfg AssetsConfig, raw rawAssetsConfig) AssetsConfig {
	if raw.MaxWidth != 0 {
		cfg.MaxWidth = raw.MaxWidth
	}
	if raw.Quality != 0 {
		cfg.Quality = raw.Quality
	}
	if raw.ThumbnailWidth != 0 {
		cfg.ThumbnailWidth = raw.ThumbnailWidth
	}
	if raw.ThumbnailHeight != 0 {
		cfg.ThumbnailHeight = raw.ThumbnailHeight
	}
	if raw.ThumbnailQuality != 0 {
		cfg.ThumbnailQuality = raw.ThumbnailQuality
	}
	if raw.DownloadDelay != nil {
		cfg.DownloadDelay = *raw.DownloadDelay
	}
	if raw.DownloadTimeout > 0 {
		cfg.DownloadTimeout = raw.DownloadTimeout
	}
	if raw.MaxRedirects != nil {
		cfg.MaxRedirects = *raw.MaxRedirects
	}
	if raw.MaxBytes > 0 {
		cfg.MaxBytes = raw.MaxBytes
	}
	if v := strings.TrimSpace(raw.KeyTemplate); v != "" {
		cfg.KeyTemplate = v
	}
	return cfg
}

func applyRawStorageConfig(cfg StorageConfig, raw rawStorageConfig) StorageConfig {
	if v := strings.TrimSpace(raw.Driver); v != "" {
		cfg.Driver = v
	}
	if v := strings.TrimSpace(raw.S3.Endpoint); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := strings.TrimSpace(raw.S3.AccessKeyID); v != "" {
		cfg.S3.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.S3.SecretAccessKey); v != "" {
		cfg.S3.SecretAccessKey = v
	}
	if v := strings.TrimSpace(raw.S3.Bucket); v != "" {
		cfg.S3.Bucket = v
	}
	if v := strings.TrimSpace(raw.S3.Region); v != "" {
		cfg.S3.Region = v
	}
	if v := strings.TrimSpace(raw.S3.CustomDomain); v != "" {
		cfg.S3.CustomDomain = v
	}
	if raw.S3.PathStyleAccess != nil {
		cfg.S3.PathStyleAccess = *raw.S3.PathStyleAccess
	}
	if v := strings.TrimSpace(raw.Local.Dir); v != "" {
		cfg.Local.Dir = v
	}
	if v := strings.TrimSpace(raw.Local.PublicBaseURL); v != "" {
		cfg.Local.PublicBaseURL = v
	}
	return cfg
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDSN)); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSourceToken)); v != "" {
		cfg.Source.Token = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSourcePassword)); v != "" {
		cfg.Source.AppPassword = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3SecretKey)); v != "" {
		cfg.Storage.S3.SecretAccessKey = v
	}
}

func (c *AppConfig) validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	parsed, err := neturl.Parse(c.Source.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("source.url %q must be an absolute http(s) URL", c.Source.URL)
	}
	if c.Database.DSN == "" {
		if _, err := time.LoadLocation(c.Database.Loc); err != nil {
			return fmt.Errorf("invalid database.loc %q: %w", c.Database.Loc, err)
		}
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Source.PageSize < 1 || c.Source.PageSize > 100 {
		return fmt.Errorf("invalid source.page_size %d, expected 1-100", c.Source.PageSize)
	}
	if c.Source.MaxPages < 1 {
		return fmt.Errorf("invalid source.max_pages %d, expected >= 1", c.Source.MaxPages)
	}
	if c.Source.MediaBatchWidth < 1 {
		return fmt.Errorf("invalid source.media_batch_width %d, expected >= 1", c.Source.MediaBatchWidth)
	}
	if c.Assets.Quality < 1 || c.Assets.Quality > 100 || c.Assets.ThumbnailQuality < 1 || c.Assets.ThumbnailQuality > 100 {
		return fmt.Errorf("asset quality must be within 1-100")
	}
	if c.Assets.MaxWidth < 1 || c.Assets.ThumbnailWidth < 1 || c.Assets.ThumbnailHeight < 1 {
		return fmt.Errorf("asset dimensions must be positive")
	}
	if c.Assets.MaxRedirects < 0 {
		return fmt.Errorf("invalid assets.max_redirects %d, expected >= 0", c.Assets.MaxRedirects)
	}
	if c.Assets.DownloadDelay < 0 {
		return fmt.Errorf("invalid assets.download_delay %s", c.Assets.DownloadDelay)
	}
	switch c.Storage.Driver {
	case StorageDriverLocal:
	case StorageDriverS3:
		s3 := c.Storage.S3
		if s3.Bucket == "" || s3.Region == "" || s3.AccessKeyID == "" || s3.SecretAccessKey == "" {
			return fmt.Errorf("incomplete storage.s3 config: bucket/region/access_key_id/secret_access_key are required")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	switch c.Content.Format {
	case ContentFormatHTML, ContentFormatMarkdown:
	default:
		return fmt.Errorf("unsupported content.format %q", c.Content.Format)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// HasCredentials reports whether requests to the source can be authenticated.
func (c SourceConfig) HasCredentials() bool {
	return c.Token != "" || (c.Username != "" && c.AppPassword != "")
}

// LogDir is empty when file logging is disabled.
func (c *AppConfig) LogDir() string {
	if c.Paths.Logs == "" {
		return ""
	}
	return c.resolvePath(c.Paths.Logs)
}

func (c *AppConfig) LocalStorageDir() string {
	return c.resolvePath(orDefault(c.Storage.Local.Dir, defaultLocalStorageDir))
}

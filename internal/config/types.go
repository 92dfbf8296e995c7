package config

import "time"

// AppConfig holds the migrator configuration loaded from YAML.
type AppConfig struct {
	Env      string                `yaml:"env"` // "development" | "production"
	DSN      string                `yaml:"dsn"` // MySQL DSN
	RedisURL string                `yaml:"redis_url"`
	Database DatabaseRuntimeConfig `yaml:"database"`
	Redis    RedisRuntimeConfig    `yaml:"redis"`
	Lock     LockConfig            `yaml:"lock"`
	Paths    RuntimePathsConfig    `yaml:"paths"`
	Source   SourceConfig          `yaml:"source"`
	Assets   AssetsConfig          `yaml:"assets"`
	Storage  StorageConfig         `yaml:"storage"`
	Content  ContentConfig         `yaml:"content"`
	Slug     SlugConfig            `yaml:"slug"`

	baseDir string
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// LockConfig controls the optional per-tenant run lock kept in Redis.
type LockConfig struct {
	Enable bool          `yaml:"enable"`
	TTL    time.Duration `yaml:"ttl"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// SourceConfig describes the REST platform content is read from.
type SourceConfig struct {
	URL             string        `yaml:"url"`
	Token           string        `yaml:"token"`
	Username        string        `yaml:"username"`
	AppPassword     string        `yaml:"app_password"`
	UserAgent       string        `yaml:"user_agent"`
	PageSize        int           `yaml:"page_size"`
	MaxPages        int           `yaml:"max_pages"`
	MediaBatchWidth int           `yaml:"media_batch_width"`
	Timeout         time.Duration `yaml:"timeout"`
}

// AssetsConfig tunes downloading and transcoding of embedded images.
type AssetsConfig struct {
	MaxWidth         int           `yaml:"max_width"`
	Quality          int           `yaml:"quality"`
	ThumbnailWidth   int           `yaml:"thumbnail_width"`
	ThumbnailHeight  int           `yaml:"thumbnail_height"`
	ThumbnailQuality int           `yaml:"thumbnail_quality"`
	DownloadDelay    time.Duration `yaml:"download_delay"`
	DownloadTimeout  time.Duration `yaml:"download_timeout"`
	MaxRedirects     int           `yaml:"max_redirects"`
	MaxBytes         int64         `yaml:"max_bytes"`
	KeyTemplate      string        `yaml:"key_template"`
}

type StorageConfig struct {
	Driver string             `yaml:"driver"` // local | s3
	S3     S3Options          `yaml:"s3"`
	Local  LocalStorageConfig `yaml:"local"`
}

type S3Options struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

type LocalStorageConfig struct {
	Dir           string `yaml:"dir"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type ContentConfig struct {
	Format string `yaml:"format"` // html | markdown
}

type SlugConfig struct {
	Transliterations map[string]string `yaml:"transliterations"`
}

type rawAppConfig struct {
	Env         string            `yaml:"env"`
	DSN         string            `yaml:"dsn"`
	DatabaseURL string            `yaml:"database_url"`
	RedisURL    string            `yaml:"redis_url"`
	Database    rawDatabaseConfig `yaml:"database"`
	Redis       rawRedisConfig    `yaml:"redis"`
	Lock        rawLockConfig     `yaml:"lock"`
	Paths       rawPathsConfig    `yaml:"paths"`
	LogDir      string            `yaml:"log_dir"`
	Source      rawSourceConfig   `yaml:"source"`
	Assets      rawAssetsConfig   `yaml:"assets"`
	Storage     rawStorageConfig  `yaml:"storage"`
	Content     rawContentConfig  `yaml:"content"`
	Slug        rawSlugConfig     `yaml:"slug"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawLockConfig struct {
	Enable *bool         `yaml:"enable"`
	TTL    time.Duration `yaml:"ttl"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawSourceConfig struct {
	URL             string        `yaml:"url"`
	Token           string        `yaml:"token"`
	Username        string        `yaml:"username"`
	AppPassword     string        `yaml:"app_password"`
	Password        string        `yaml:"password"`
	UserAgent       string        `yaml:"user_agent"`
	PageSize        int           `yaml:"page_size"`
	PerPage         int           `yaml:"per_page"`
	MaxPages        int           `yaml:"max_pages"`
	MediaBatchWidth int           `yaml:"media_batch_width"`
	Timeout         time.Duration `yaml:"timeout"`
}

type rawAssetsConfig struct {
	MaxWidth         int            `yaml:"max_width"`
	Quality          int            `yaml:"quality"`
	ThumbnailWidth   int            `yaml:"thumbnail_width"`
	ThumbnailHeight  int            `yaml:"thumbnail_height"`
	ThumbnailQuality int            `yaml:"thumbnail_quality"`
	DownloadDelay    *time.Duration `yaml:"download_delay"`
	DownloadTimeout  time.Duration  `yaml:"download_timeout"`
	MaxRedirects     *int           `yaml:"max_redirects"`
	MaxBytes         int64          `yaml:"max_bytes"`
	KeyTemplate      string         `yaml:"key_template"`
}

type rawStorageConfig struct {
	Driver string          `yaml:"driver"`
	S3     rawS3Options    `yaml:"s3"`
	Local  rawLocalStorage `yaml:"local"`
}

type rawS3Options struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyleAccess *bool  `yaml:"path_style_access"`
}

type rawLocalStorage struct {
	Dir           string `yaml:"dir"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type rawContentConfig struct {
	Format string `yaml:"format"`
}

type rawSlugConfig struct {
	Transliterations map[string]string `yaml:"transliterations"`
}

package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultEnv        = "production"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "mx_space"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	defaultSourcePageSize   = 100
	defaultSourceMaxPages   = 200
	defaultSourceTimeout    = 30 * time.Second
	defaultMediaBatchWidth  = 8
	defaultSourceUserAgent  = "mx-migrator/1.0"
	defaultAssetMaxWidth    = 1920
	defaultAssetQuality     = 82
	defaultThumbWidth       = 400
	defaultThumbHeight      = 300
	defaultThumbQuality     = 70
	defaultDownloadDelay    = 200 * time.Millisecond
	defaultDownloadTimeout  = 45 * time.Second
	defaultMaxRedirects     = 5
	defaultAssetMaxBytes    = 25 * 1024 * 1024
	defaultAssetKeyTemplate = "migrated/{tenant}/{Y}/{m}/{timestamp}-{filename}.{ext}"
	defaultStorageDriver    = StorageDriverLocal
	defaultLocalStorageDir  = "static/objects/image"
	defaultLocalPublicBase  = "/objects/image"
	defaultContentFormat    = ContentFormatHTML
	defaultLockTTL          = 6 * time.Hour

	// Environment overrides for secrets that should not live in the YAML file.
	EnvSourceToken    = "MIGRATE_SOURCE_TOKEN"
	EnvSourcePassword = "MIGRATE_SOURCE_PASSWORD"
	EnvS3SecretKey    = "MIGRATE_S3_SECRET_ACCESS_KEY"
	EnvDSN            = "MIGRATE_DSN"
)

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"

	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)

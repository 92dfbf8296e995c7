// Package objectstore persists transcoded assets and returns their public URLs.
package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mx-space/migrator/internal/config"
)

// Store accepts a blob under a key and returns a publicly resolvable URL.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// New builds the store selected by storage.driver.
func New(cfg *config.AppConfig) (Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		return NewS3(cfg.Storage.S3)
	case config.StorageDriverLocal, "":
		return NewLocal(cfg.LocalStorageDir(), cfg.Storage.Local.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func normalizeObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}

func validObjectKey(key string) bool {
	if key == "" {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

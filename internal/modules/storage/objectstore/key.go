package objectstore

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const thumbnailSuffix = "-thumb"

// KeyInput carries the values substituted into an object key template.
type KeyInput struct {
	Tenant   string
	Filename string
	Ext      string
	Payload  []byte
	Now      time.Time
}

// RenderKey expands {tenant} {Y} {y} {m} {d} {timestamp} {uuid} {md5} {md5-16} {filename} {ext}.
func RenderKey(template string, in KeyInput) string {
	tpl := strings.TrimSpace(template)
	if tpl == "" {
		tpl = "migrated/{tenant}/{Y}/{m}/{uuid}.{ext}"
	}

	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(in.Ext)), ".")
	if ext == "" {
		ext = "dat"
	}
	filename := sanitizeSegment(in.Filename)
	if filename == "" {
		filename = "file"
	}
	tenant := sanitizeSegment(in.Tenant)
	if tenant == "" {
		tenant = "default"
	}

	sum := md5.Sum(in.Payload)
	md5Hex := hex.EncodeToString(sum[:])
	uuidValue := strings.ReplaceAll(uuid.NewString(), "-", "")
	now := in.Now

	replacer := strings.NewReplacer(
		"{tenant}", tenant,
		"{Y}", now.Format("2006"),
		"{y}", now.Format("06"),
		"{m}", now.Format("01"),
		"{d}", now.Format("02"),
		"{timestamp}", strconv.FormatInt(now.UnixNano(), 10),
		"{uuid}", uuidValue,
		"{md5-16}", md5Hex[:16],
		"{md5}", md5Hex,
		"{filename}", filename,
		"{ext}", ext,
	)

	key := normalizeObjectKey(replacer.Replace(tpl))
	if key == "" {
		return fmt.Sprintf("migrated/%s/%s/%s.%s", tenant, now.Format("2006/01"), uuidValue, ext)
	}
	return key
}

// ThumbnailKey inserts the thumbnail suffix before the key's extension.
func ThumbnailKey(key string) string {
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + thumbnailSuffix + ext
}

// SplitFilename extracts a base name and extension from a source URL path.
func SplitFilename(rawURL string) (string, string) {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	base := path.Base(p)
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext), strings.TrimPrefix(strings.ToLower(ext), ".")
}

// DetectContentType prefers the extension and falls back to sniffing the payload.
func DetectContentType(filename string, payload []byte) string {
	if ext := strings.ToLower(path.Ext(strings.TrimSpace(filename))); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			return guessed
		}
	}
	if len(payload) > 0 {
		return http.DetectContentType(payload)
	}
	return "application/octet-stream"
}

// sanitizeSegment keeps alphanumerics, hyphens, underscores and dots.
func sanitizeSegment(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('-')
	}
	return strings.Trim(b.String(), "-.")
}

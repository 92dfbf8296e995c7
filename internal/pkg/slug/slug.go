// Package slug turns arbitrary taxonomy names and source slugs into destination-safe identifiers.
package slug

import (
	"hash/fnv"
	neturl "net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minLength      = 3
	fallbackPrefix = "item-"
)

var (
	validPattern      = regexp.MustCompile(`^[a-z0-9-]+$`)
	disallowedPattern = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRunPattern  = regexp.MustCompile(`-{2,}`)
)

// defaultTransliterations covers the taxonomy names most often found on Chinese-language blogs.
var defaultTransliterations = map[string]string{
	"未分类": "uncategorized",
	"技术":  "tech",
	"生活":  "life",
	"随笔":  "essay",
	"日记":  "diary",
	"旅行":  "travel",
	"读书":  "reading",
	"编程":  "programming",
	"笔记":  "notes",
	"摄影":  "photography",
	"音乐":  "music",
	"电影":  "movies",
	"前端":  "frontend",
	"后端":  "backend",
	"工具":  "tools",
	"教程":  "tutorial",
	"分享":  "sharing",
	"杂谈":  "misc",
	"随想":  "thoughts",
	"开源":  "open-source",
}

// Sanitizer maps candidate slugs to strings matching [a-z0-9-]{3,}.
type Sanitizer struct {
	table map[string]string
	now   func() time.Time
}

// New builds a sanitizer whose table is the built-in defaults merged with extra.
// Entries in extra win; entries that cannot form a valid slug are dropped.
func New(extra map[string]string) *Sanitizer {
	table := make(map[string]string, len(defaultTransliterations)+len(extra))
	for name, value := range defaultTransliterations {
		table[tableKey(name)] = value
	}
	for name, value := range extra {
		key := tableKey(name)
		cleaned := clean(value)
		if key == "" || len(cleaned) < minLength {
			continue
		}
		table[key] = cleaned
	}
	return &Sanitizer{table: table, now: time.Now}
}

// Sanitize never fails and is deterministic for a non-empty candidate or name.
func (s *Sanitizer) Sanitize(candidate, name string) string {
	candidate = strings.TrimSpace(candidate)
	name = strings.TrimSpace(name)

	if len(candidate) >= minLength && validPattern.MatchString(candidate) && strings.Trim(candidate, "-") == candidate {
		return candidate
	}
	if hit, ok := s.lookup(name); ok {
		return hit
	}

	base := candidate
	if decoded, err := neturl.PathUnescape(candidate); err == nil && decoded != candidate {
		if hit, ok := s.lookup(decoded); ok {
			return hit
		}
		base = decoded
	}
	if base == "" {
		base = name
	}

	if cleaned := clean(base); len(cleaned) >= minLength {
		return cleaned
	}
	return s.fallback(candidate, name)
}

func (s *Sanitizer) lookup(name string) (string, bool) {
	key := tableKey(name)
	if key == "" {
		return "", false
	}
	value, ok := s.table[key]
	return value, ok
}

func (s *Sanitizer) fallback(candidate, name string) string {
	seed := name
	if seed == "" {
		seed = candidate
	}
	if seed == "" {
		return fallbackPrefix + strconv.FormatInt(s.now().UnixNano(), 36)
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return fallbackPrefix + strconv.FormatUint(h.Sum64(), 36)
}

func clean(raw string) string {
	out := strings.ToLower(strings.TrimSpace(raw))
	out = disallowedPattern.ReplaceAllString(out, "-")
	out = hyphenRunPattern.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

func tableKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

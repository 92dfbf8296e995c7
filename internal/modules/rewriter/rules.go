package rewriter

import (
	neturl "net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/mx-space/migrator/internal/pkg/slug"
)

// Rule rewrites the path of an internal link. Pattern is matched against the cleaned path
// (no trailing slash, no query or fragment); the first capture group is checked against
// Exclude before Build runs.
type Rule struct {
	Name      string
	Pattern   *regexp.Regexp
	Build     func(match []string) string
	Exclude   map[string]struct{}
	Heuristic bool
}

// Apply returns the rewritten path and whether the rule matched.
func (r Rule) Apply(path string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	if len(m) > 1 && r.Exclude != nil {
		if _, reserved := r.Exclude[strings.ToLower(m[1])]; reserved {
			return "", false
		}
	}
	return r.Build(m), true
}

// ReservedSegments are never treated as a page by the single-segment rule.
var ReservedSegments = map[string]struct{}{
	"wp-content":   {},
	"wp-admin":     {},
	"wp-includes":  {},
	"wp-json":      {},
	"wp-login.php": {},
	"category":     {},
	"tag":          {},
	"author":       {},
	"feed":         {},
	"page":         {},
	"comments":     {},
	"articles":     {},
	"categories":   {},
	"tags":         {},
	"writers":      {},
	"xmlrpc.php":   {},
}

func prefixed(prefix string) func([]string) string {
	return func(m []string) string { return prefix + m[1] }
}

// ArchiveKind names an archive whose links carry a source slug.
type ArchiveKind string

const (
	CategoryArchive ArchiveKind = "category"
	TagArchive      ArchiveKind = "tag"
	AuthorArchive   ArchiveKind = "author"
)

// ArchiveSlugs maps source archive slugs to the slugs their destination records are stored under.
type ArchiveSlugs map[ArchiveKind]map[string]string

func (a ArchiveSlugs) Add(kind ArchiveKind, sourceSlug, destSlug string) {
	key := archiveKey(sourceSlug)
	if key == "" || destSlug == "" {
		return
	}
	if a[kind] == nil {
		a[kind] = make(map[string]string)
	}
	a[kind][key] = destSlug
}

// Lookup matches sourceSlug whether or not it is percent-encoded.
func (a ArchiveSlugs) Lookup(kind ArchiveKind, sourceSlug string) (string, bool) {
	dest, ok := a[kind][archiveKey(sourceSlug)]
	return dest, ok
}

func archiveKey(s string) string {
	s = strings.TrimSpace(s)
	if decoded, err := neturl.PathUnescape(s); err == nil {
		s = decoded
	}
	return strings.ToLower(s)
}

// leadingRules run before the page rules. Archive slugs go through r.archives; slugs it
// does not know are sanitized on their own.
func (r *Rewriter) leadingRules(sanitizer *slug.Sanitizer) []Rule {
	archive := func(kind ArchiveKind, prefix string) func([]string) string {
		return func(m []string) string {
			if dest, ok := r.archives.Lookup(kind, m[1]); ok {
				return prefix + dest
			}
			if sanitizer == nil {
				return prefix + m[1]
			}
			return prefix + sanitizer.Sanitize(m[1], "")
		}
	}
	return []Rule{
		{
			Name:    "article-permalink",
			Pattern: regexp.MustCompile(`^/\d{4}/\d{2}(?:/\d{2})?/([^/]+)$`),
			Build:   prefixed("/articles/"),
		},
		{
			// Nested categories keep only the leaf.
			Name:    "category-archive",
			Pattern: regexp.MustCompile(`^/category/(?:[^/]+/)*([^/]+)$`),
			Build:   archive(CategoryArchive, "/categories/"),
		},
		{
			Name:    "tag-archive",
			Pattern: regexp.MustCompile(`^/tag/([^/]+)$`),
			Build:   archive(TagArchive, "/tags/"),
		},
		{
			Name:    "author-archive",
			Pattern: regexp.MustCompile(`^/author/([^/]+)$`),
			Build:   archive(AuthorArchive, "/writers/"),
		},
	}
}

// queryLinkRule reports root links carrying a query. They are left as-is and flagged.
var queryLinkRule = Rule{Name: "query-link", Heuristic: true}

// trailingRules run after the page rules.
func trailingRules() []Rule {
	return []Rule{
		{
			Name:      "single-segment",
			Pattern:   regexp.MustCompile(`^/([^/]+)$`),
			Build:     prefixed("/"),
			Exclude:   ReservedSegments,
			Heuristic: true,
		},
		{
			Name:    "root",
			Pattern: regexp.MustCompile(`^$`),
			Build:   func([]string) string { return "/" },
		},
	}
}

// PageSlugIndex is the set of source page slugs, built before any content is rewritten.
type PageSlugIndex struct {
	slugs map[string]struct{}
	rules []Rule
}

func NewPageSlugIndex(slugs []string) *PageSlugIndex {
	idx := &PageSlugIndex{slugs: make(map[string]struct{}, len(slugs))}
	for _, s := range slugs {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s == "" {
			continue
		}
		idx.slugs[s] = struct{}{}
	}

	ordered := make([]string, 0, len(idx.slugs))
	for s := range idx.slugs {
		ordered = append(ordered, s)
	}
	sort.Strings(ordered)
	idx.rules = make([]Rule, 0, len(ordered))
	for _, s := range ordered {
		target := "/" + s
		idx.rules = append(idx.rules, Rule{
			Name:    "page:" + s,
			Pattern: regexp.MustCompile(`^/` + regexp.QuoteMeta(s) + `$`),
			Build:   func([]string) string { return target },
		})
	}
	return idx
}

func (idx *PageSlugIndex) Contains(slug string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.slugs[slug]
	return ok
}

func (idx *PageSlugIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.slugs)
}

// Rules returns the full ordered rule table for idx.
func (r *Rewriter) Rules(idx *PageSlugIndex) []Rule {
	rules := make([]Rule, 0, len(r.leading)+idx.Len()+len(r.trailing))
	rules = append(rules, r.leading...)
	if idx != nil {
		rules = append(rules, idx.rules...)
	}
	return append(rules, r.trailing...)
}

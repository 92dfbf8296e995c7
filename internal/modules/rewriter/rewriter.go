// Package rewriter rewrites embedded assets and internal links in migrated HTML bodies.
package rewriter

import (
	"context"
	"fmt"
	neturl "net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/mx-space/migrator/internal/pkg/slug"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Materializer turns a source asset URL into a destination URL.
type Materializer interface {
	Materialize(ctx context.Context, sourceURL string) (string, error)
}

// Flag is a heuristic link match an operator should review. Rewritten is empty when the
// link was left unchanged.
type Flag struct {
	Rule      string
	URL       string
	Rewritten string
}

type Output struct {
	HTML string
	// FirstAssetURL is the first source asset in the original body, used as the featured fallback.
	FirstAssetURL   string
	AssetsRewritten int
	LinksRewritten  int
	Flags           []Flag
}

type Rewriter struct {
	assetPattern *regexp.Regexp
	linkPattern  *regexp.Regexp
	leading      []Rule
	trailing     []Rule
	archives     ArchiveSlugs
	logger       *zap.Logger
}

// New builds a rewriter for content hosted at sourceURL. sanitizer, when set, cleans archive
// slugs that SetArchiveSlugs did not provide.
func New(sourceURL string, sanitizer *slug.Sanitizer, logger *zap.Logger) (*Rewriter, error) {
	parsed, err := neturl.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host == "" {
		return nil, fmt.Errorf("source url %q has no host", sourceURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	origin := `(?i)https?://(?:www\.)?` + regexp.QuoteMeta(host) + `(?::\d+)?`
	r := &Rewriter{
		assetPattern: regexp.MustCompile(origin + `/wp-content/uploads/[^\s"'<>()]+?\.(?:jpe?g|png|gif|webp)`),
		linkPattern:  regexp.MustCompile(origin + `([^\s"'<>()]*)`),
		trailing:     trailingRules(),
		logger:       logger.Named("rewriter"),
	}
	r.leading = r.leadingRules(sanitizer)
	return r, nil
}

// SetArchiveSlugs sets the destination slugs used for category, tag and author archive links.
func (r *Rewriter) SetArchiveSlugs(archives ArchiveSlugs) {
	r.archives = archives
}

// Rewrite runs the asset pass and then the link pass. Only context cancellation is returned as
// an error; unavailable assets stay as they were.
func (r *Rewriter) Rewrite(ctx context.Context, body string, session Materializer, idx *PageSlugIndex) (Output, error) {
	out := Output{FirstAssetURL: r.FirstAssetURL(body)}

	rewritten, assets, err := r.rewriteAssets(ctx, body, session)
	if err != nil {
		return Output{}, err
	}
	out.AssetsRewritten = assets
	out.HTML, out.LinksRewritten, out.Flags = r.rewriteLinks(rewritten, idx)
	return out, nil
}

// AssetURLs returns the distinct source asset URLs in body in first-seen order.
func (r *Rewriter) AssetURLs(body string) []string {
	matches := r.assetPattern.FindAllString(body, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

// FirstAssetURL prefers the first <img> pointing at a source upload, then any upload URL.
func (r *Rewriter) FirstAssetURL(body string) string {
	if doc, err := html.Parse(strings.NewReader(body)); err == nil {
		if src := r.firstImage(doc); src != "" {
			return src
		}
	}
	return r.assetPattern.FindString(body)
}

func (r *Rewriter) firstImage(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		for _, a := range n.Attr {
			if a.Key == "src" {
				if m := r.assetPattern.FindString(a.Val); m != "" {
					return m
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if src := r.firstImage(c); src != "" {
			return src
		}
	}
	return ""
}

type replacement struct {
	from string
	to   string
}

func (r *Rewriter) rewriteAssets(ctx context.Context, body string, session Materializer) (string, int, error) {
	if session == nil {
		return body, 0, nil
	}
	urls := r.AssetURLs(body)
	if len(urls) == 0 {
		return body, 0, nil
	}

	replacements := make([]replacement, 0, len(urls))
	for _, src := range urls {
		dst, err := session.Materialize(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return "", 0, ctx.Err()
			}
			continue
		}
		if dst != "" && dst != src {
			replacements = append(replacements, replacement{from: src, to: dst})
		}
	}

	// Longer URLs first so a URL that prefixes another cannot clobber it.
	sort.SliceStable(replacements, func(i, j int) bool {
		return len(replacements[i].from) > len(replacements[j].from)
	})
	for _, rep := range replacements {
		body = strings.ReplaceAll(body, rep.from, rep.to)
	}
	return body, len(replacements), nil
}

func (r *Rewriter) rewriteLinks(body string, idx *PageSlugIndex) (string, int, []Flag) {
	rules := r.Rules(idx)
	count := 0
	var flags []Flag
	flagged := make(map[string]struct{})

	result := r.linkPattern.ReplaceAllStringFunc(body, func(link string) string {
		target, rule, ok := r.rewriteLink(link, rules)
		if rule.Heuristic {
			if _, dup := flagged[link]; !dup {
				flagged[link] = struct{}{}
				flags = append(flags, Flag{Rule: rule.Name, URL: link, Rewritten: target})
				r.logger.Debug("heuristic link match", zap.String("url", link), zap.String("target", target))
			}
		}
		if !ok {
			return link
		}
		count++
		return target
	})
	return result, count, flags
}

// RewriteLink rewrites a single absolute link on the source host against the rule table for idx.
func (r *Rewriter) RewriteLink(link string, idx *PageSlugIndex) (string, bool) {
	target, _, ok := r.rewriteLink(link, r.Rules(idx))
	return target, ok
}

func (r *Rewriter) rewriteLink(link string, rules []Rule) (string, Rule, bool) {
	m := r.linkPattern.FindStringSubmatch(link)
	if m == nil || m[0] != link {
		return "", Rule{}, false
	}
	rest := m[1]
	// "https://src.example.org" is a different host.
	if rest != "" && !strings.ContainsAny(rest[:1], "/?#") {
		return "", Rule{}, false
	}

	path, query, fragment := rest, "", ""
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path, fragment = path[:i], path[i:]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	path = strings.TrimRight(path, "/")
	if path == "/index.php" {
		path = ""
	}
	// Plain permalinks (?p=, ?page_id=, ?cat=) and searches live on the root path; none of
	// them is the home page.
	if path == "" && query != "" {
		return "", queryLinkRule, false
	}

	for _, rule := range rules {
		if target, ok := rule.Apply(path); ok {
			return target + fragment, rule, true
		}
	}
	return "", Rule{}, false
}

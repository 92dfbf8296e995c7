package source

import (
	"html"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes articles from static pages.
type Kind string

const (
	KindPost Kind = "post"
	KindPage Kind = "page"
)

// ContentItem is one post or page read from the source.
type ContentItem struct {
	ID              int64
	Kind            Kind
	Title           string
	Content         string
	Excerpt         string
	Slug            string
	Status          string
	Date            *time.Time
	AuthorID        int64
	CategoryIDs     []int64
	TagIDs          []int64
	FeaturedMediaID int64
	ParentID        int64
	MenuOrder       int
}

func (i ContentItem) IsPublished() bool {
	return i.Status == "publish"
}

// Taxonomy is a category or tag term.
type Taxonomy struct {
	ID   int64
	Name string
	Slug string
}

// Author is a source user.
type Author struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	AvatarURL   string
}

// Media is a source attachment.
type Media struct {
	ID        int64
	SourceURL string
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type wireContent struct {
	ID            int64    `json:"id"`
	DateGMT       *string  `json:"date_gmt"`
	Slug          string   `json:"slug"`
	Status        string   `json:"status"`
	Title         rendered `json:"title"`
	Content       rendered `json:"content"`
	Excerpt       rendered `json:"excerpt"`
	Author        int64    `json:"author"`
	FeaturedMedia int64    `json:"featured_media"`
	Categories    []int64  `json:"categories"`
	Tags          []int64  `json:"tags"`
	Parent        int64    `json:"parent"`
	MenuOrder     int      `json:"menu_order"`
}

type wireTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type wireUser struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	AvatarURLs  map[string]string `json:"avatar_urls"`
}

type wireMedia struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

func (w wireContent) toItem(kind Kind) ContentItem {
	return ContentItem{
		ID:              w.ID,
		Kind:            kind,
		Title:           html.UnescapeString(strings.TrimSpace(w.Title.Rendered)),
		Content:         w.Content.Rendered,
		Excerpt:         w.Excerpt.Rendered,
		Slug:            strings.TrimSpace(w.Slug),
		Status:          strings.TrimSpace(w.Status),
		Date:            parseGMT(w.DateGMT),
		AuthorID:        w.Author,
		CategoryIDs:     w.Categories,
		TagIDs:          w.Tags,
		FeaturedMediaID: w.FeaturedMedia,
		ParentID:        w.Parent,
		MenuOrder:       w.MenuOrder,
	}
}

func (w wireTerm) toTaxonomy() Taxonomy {
	return Taxonomy{ID: w.ID, Name: html.UnescapeString(strings.TrimSpace(w.Name)), Slug: strings.TrimSpace(w.Slug)}
}

func (w wireUser) toAuthor() Author {
	return Author{
		ID:          w.ID,
		Name:        html.UnescapeString(strings.TrimSpace(w.Name)),
		Slug:        strings.TrimSpace(w.Slug),
		Description: strings.TrimSpace(w.Description),
		AvatarURL:   largestAvatar(w.AvatarURLs),
	}
}

// largestAvatar picks the entry with the biggest numeric size key.
func largestAvatar(urls map[string]string) string {
	best, bestSize := "", -1
	for key, value := range urls {
		size, err := strconv.Atoi(key)
		if err != nil || strings.TrimSpace(value) == "" {
			continue
		}
		if size > bestSize {
			best, bestSize = value, size
		}
	}
	return best
}

func parseGMT(raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", strings.TrimSpace(*raw), time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

package models

import "time"

// PostModel is a blog post.
type PostModel struct {
	WriteBase
	TenantID    string      `json:"tenant_id"    gorm:"type:char(36);not null;uniqueIndex:idx_posts_tenant_slug,priority:1"`
	Slug        string      `json:"slug"         gorm:"size:191;not null;uniqueIndex:idx_posts_tenant_slug,priority:2"`
	Summary     string      `json:"summary"      gorm:"type:text"`
	CategoryIDs StringArray `json:"category_ids" gorm:"type:text"`
	TagIDs      StringArray `json:"tag_ids"      gorm:"type:text"`
	AuthorID    *string     `json:"author_id"    gorm:"type:char(36);index"`
	Cover       string      `json:"cover"`
	IsPublished bool        `json:"is_published" gorm:"default:false;index"`
	Status      string      `json:"status"       gorm:"size:32"`
	PublishedAt *time.Time  `json:"published_at"`
	Provenance
}

func (PostModel) TableName() string { return "posts" }

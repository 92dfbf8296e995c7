package models

import "time"

// PageModel is a static page (e.g. About, Contact).
type PageModel struct {
	WriteBase
	TenantID    string     `json:"tenant_id"    gorm:"type:char(36);not null;uniqueIndex:idx_pages_tenant_slug,priority:1"`
	Slug        string     `json:"slug"         gorm:"size:191;not null;uniqueIndex:idx_pages_tenant_slug,priority:2"`
	Summary     string     `json:"summary"      gorm:"type:text"`
	Order       int        `json:"order"        gorm:"column:order_num;default:0"`
	ParentID    *string    `json:"parent_id"    gorm:"type:char(36);index"`
	AuthorID    *string    `json:"author_id"    gorm:"type:char(36);index"`
	Cover       string     `json:"cover"`
	IsPublished bool       `json:"is_published" gorm:"default:false;index"`
	Status      string     `json:"status"       gorm:"size:32"`
	PublishedAt *time.Time `json:"published_at"`
	Provenance
}

func (PageModel) TableName() string { return "pages" }

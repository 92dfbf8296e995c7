package models

// AuthorModel is a content writer shown on migrated posts.
type AuthorModel struct {
	Base
	TenantID string `json:"tenant_id" gorm:"type:char(36);not null;uniqueIndex:idx_authors_tenant_slug,priority:1;index:idx_authors_tenant_name,priority:1"`
	Slug     string `json:"slug"      gorm:"size:191;not null;uniqueIndex:idx_authors_tenant_slug,priority:2"`
	Name     string `json:"name"      gorm:"size:191;not null;index:idx_authors_tenant_name,priority:2"`
	Bio      string `json:"bio"       gorm:"type:text"`
	Avatar   string `json:"avatar"`
	Provenance
}

func (AuthorModel) TableName() string { return "authors" }

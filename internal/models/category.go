package models

const (
	CategoryTypeCategory = 0
	CategoryTypeTag      = 1
)

// CategoryModel represents a post category (Type 0) or tag (Type 1) owned by a tenant.
type CategoryModel struct {
	Base
	TenantID string `json:"tenant_id" gorm:"type:char(36);not null;uniqueIndex:idx_categories_tenant_slug,priority:1;index:idx_categories_tenant_name,priority:1"`
	Type     int    `json:"type"      gorm:"default:0;uniqueIndex:idx_categories_tenant_slug,priority:2;index:idx_categories_tenant_name,priority:2"`
	Slug     string `json:"slug"      gorm:"size:191;not null;uniqueIndex:idx_categories_tenant_slug,priority:3"`
	Name     string `json:"name"      gorm:"size:191;not null;index:idx_categories_tenant_name,priority:3"`
	Provenance
}

func (CategoryModel) TableName() string { return "categories" }

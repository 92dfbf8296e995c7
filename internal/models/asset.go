package models

// AssetModel records one image uploaded to object storage.
type AssetModel struct {
	Base
	TenantID     string `json:"tenant_id"     gorm:"type:char(36);not null;index"`
	URL          string `json:"url"           gorm:"type:text;not null"`
	ThumbnailURL string `json:"thumbnail_url" gorm:"type:text"`
	SourceURL    string `json:"source_url"    gorm:"type:text"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int64  `json:"size"`
	ContentType  string `json:"content_type"  gorm:"size:64"`
	Provenance
}

func (AssetModel) TableName() string { return "assets" }

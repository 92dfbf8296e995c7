package models

import "time"

// MigrationRunModel persists the outcome of one migration run.
type MigrationRunModel struct {
	Base
	TenantID string `json:"tenant_id" gorm:"type:char(36);not null;index"`
	State    string `json:"state"     gorm:"size:32;not null;index"`
	DryRun   bool   `json:"dry_run"`
	Limit    int    `json:"limit"`

	PostsMigrated int `json:"posts_migrated" gorm:"not null;default:0"`
	PostsSkipped  int `json:"posts_skipped"  gorm:"not null;default:0"`
	PostsErrored  int `json:"posts_errored"  gorm:"not null;default:0"`
	PagesMigrated int `json:"pages_migrated" gorm:"not null;default:0"`
	PagesSkipped  int `json:"pages_skipped"  gorm:"not null;default:0"`
	PagesErrored  int `json:"pages_errored"  gorm:"not null;default:0"`

	AssetsRewritten int   `json:"assets_rewritten" gorm:"not null;default:0"`
	LinksRewritten  int   `json:"links_rewritten"  gorm:"not null;default:0"`
	UploadedBytes   int64 `json:"uploaded_bytes"   gorm:"not null;default:0"`
	Flags           int   `json:"flags"            gorm:"not null;default:0"`

	ErrorMessage *string    `json:"error_message" gorm:"type:text"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}

func (MigrationRunModel) TableName() string { return "migration_runs" }

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
type Base struct {
	ID        string         `json:"id"       gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time      `json:"created"`
	UpdatedAt time.Time      `json:"modified"`
	DeletedAt gorm.DeletedAt `json:"-"        gorm:"index"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// WriteBase adds title/text common to Post and Page.
type WriteBase struct {
	Base
	Title string `json:"title" gorm:"not null"`
	Text  string `json:"text"  gorm:"type:longtext"`
}

// Provenance marks a record as created by the migrator so it can be audited or rolled back.
type Provenance struct {
	Migrated   bool       `json:"migrated"    gorm:"default:false;index"`
	MigratedAt *time.Time `json:"migrated_at"`
	OriginID   int64      `json:"origin_id"   gorm:"index"`
}

// NewProvenance stamps a record migrated from the given source ID.
func NewProvenance(originID int64, at time.Time) Provenance {
	stamp := at
	return Provenance{Migrated: true, MigratedAt: &stamp, OriginID: originID}
}

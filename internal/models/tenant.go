package models

// TenantModel is an isolation boundary in the destination store.
type TenantModel struct {
	Base
	Slug string `json:"slug" gorm:"size:191;uniqueIndex;not null"`
	Name string `json:"name"`
}

func (TenantModel) TableName() string { return "tenants" }

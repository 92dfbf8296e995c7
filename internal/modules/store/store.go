// Package store is the destination content store used by the migrator.
package store

import (
	"context"
	"errors"

	"github.com/mx-space/migrator/internal/models"
)

var (
	// ErrTenantNotFound is a setup error: the destination tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrDuplicate reports a unique (tenant, slug) violation.
	ErrDuplicate = errors.New("duplicate record")
)

// RefKind names the relational entities the resolver deduplicates.
type RefKind string

const (
	RefCategory RefKind = "category"
	RefTag      RefKind = "tag"
	RefAuthor   RefKind = "author"
)

// Reference is the destination view of a category, tag or author.
type Reference struct {
	ID   string
	Name string
	Slug string
}

// NewReference carries the fields for a reference created by the migrator.
type NewReference struct {
	Name     string
	Slug     string
	Bio      string
	Avatar   string
	OriginID int64
}

// Store is everything the migrator reads from or writes to the destination.
type Store interface {
	FindTenant(ctx context.Context, ref string) (*models.TenantModel, error)

	FindReferenceByName(ctx context.Context, tenantID string, kind RefKind, name string) (*Reference, error)
	FindReferenceBySlug(ctx context.Context, tenantID string, kind RefKind, slug string) (*Reference, error)
	CreateReference(ctx context.Context, tenantID string, kind RefKind, ref NewReference) (*Reference, error)

	PostExists(ctx context.Context, tenantID, slug string) (bool, error)
	CreatePost(ctx context.Context, post *models.PostModel) error

	PageExists(ctx context.Context, tenantID, slug string) (bool, error)
	FindPageBySlug(ctx context.Context, tenantID, slug string) (*models.PageModel, error)
	CreatePage(ctx context.Context, page *models.PageModel) error
	SetPageParent(ctx context.Context, pageID, parentID string) error

	CreateAsset(ctx context.Context, asset *models.AssetModel) error
	SaveRun(ctx context.Context, run *models.MigrationRunModel) error
}

func categoryType(kind RefKind) int {
	if kind == RefTag {
		return models.CategoryTypeTag
	}
	return models.CategoryTypeCategory
}

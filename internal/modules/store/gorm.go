package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mx-space/migrator/internal/models"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// GormStore implements Store on top of gorm.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGorm(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) FindTenant(ctx context.Context, ref string) (*models.TenantModel, error) {
	var tenant models.TenantModel
	if err := s.db.WithContext(ctx).Where("id = ? OR slug = ?", ref, ref).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, ref)
		}
		return nil, err
	}
	return &tenant, nil
}

func (s *GormStore) FindReferenceByName(ctx context.Context, tenantID string, kind RefKind, name string) (*Reference, error) {
	return s.findReference(ctx, tenantID, kind, "name", name)
}

func (s *GormStore) FindReferenceBySlug(ctx context.Context, tenantID string, kind RefKind, slug string) (*Reference, error) {
	return s.findReference(ctx, tenantID, kind, "slug", slug)
}

func (s *GormStore) findReference(ctx context.Context, tenantID string, kind RefKind, column, value string) (*Reference, error) {
	db := s.db.WithContext(ctx)
	if kind == RefAuthor {
		var author models.AuthorModel
		if err := db.Where("tenant_id = ? AND "+column+" = ?", tenantID, value).First(&author).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return &Reference{ID: author.ID, Name: author.Name, Slug: author.Slug}, nil
	}

	var cat models.CategoryModel
	err := db.Where("tenant_id = ? AND type = ? AND "+column+" = ?", tenantID, categoryType(kind), value).First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Reference{ID: cat.ID, Name: cat.Name, Slug: cat.Slug}, nil
}

func (s *GormStore) CreateReference(ctx context.Context, tenantID string, kind RefKind, ref NewReference) (*Reference, error) {
	provenance := models.NewProvenance(ref.OriginID, s.now())
	db := s.db.WithContext(ctx)

	if kind == RefAuthor {
		author := models.AuthorModel{
			TenantID:   tenantID,
			Name:       ref.Name,
			Slug:       ref.Slug,
			Bio:        ref.Bio,
			Avatar:     ref.Avatar,
			Provenance: provenance,
		}
		if err := db.Create(&author).Error; err != nil {
			return nil, translate(err)
		}
		return &Reference{ID: author.ID, Name: author.Name, Slug: author.Slug}, nil
	}

	cat := models.CategoryModel{
		TenantID:   tenantID,
		Type:       categoryType(kind),
		Name:       ref.Name,
		Slug:       ref.Slug,
		Provenance: provenance,
	}
	if err := db.Create(&cat).Error; err != nil {
		return nil, translate(err)
	}
	return &Reference{ID: cat.ID, Name: cat.Name, Slug: cat.Slug}, nil
}

func (s *GormStore) PostExists(ctx context.Context, tenantID, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PostModel{}).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreatePost(ctx context.Context, post *models.PostModel) error {
	return translate(s.db.WithContext(ctx).Create(post).Error)
}

func (s *GormStore) PageExists(ctx context.Context, tenantID, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PageModel{}).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) FindPageBySlug(ctx context.Context, tenantID, slug string) (*models.PageModel, error) {
	var page models.PageModel
	if err := s.db.WithContext(ctx).Where("tenant_id = ? AND slug = ?", tenantID, slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

func (s *GormStore) CreatePage(ctx context.Context, page *models.PageModel) error {
	return translate(s.db.WithContext(ctx).Create(page).Error)
}

func (s *GormStore) SetPageParent(ctx context.Context, pageID, parentID string) error {
	return s.db.WithContext(ctx).Model(&models.PageModel{}).Where("id = ?", pageID).Update("parent_id", parentID).Error
}

func (s *GormStore) CreateAsset(ctx context.Context, asset *models.AssetModel) error {
	return s.db.WithContext(ctx).Create(asset).Error
}

func (s *GormStore) SaveRun(ctx context.Context, run *models.MigrationRunModel) error {
	return s.db.WithContext(ctx).Save(run).Error
}

// translate maps unique violations from either driver onto ErrDuplicate.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

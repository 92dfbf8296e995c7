package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/mx-space/migrator/internal/database"
	"github.com/mx-space/migrator/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedTenant(t *testing.T, db *gorm.DB, slug string) *models.TenantModel {
	t.Helper()
	tenant := &models.TenantModel{Slug: slug, Name: slug}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func TestFindTenant(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "acme")
	s := NewGorm(db)
	ctx := context.Background()

	bySlug, err := s.FindTenant(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, bySlug.ID)

	byID, err := s.FindTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", byID.Slug)

	_, err = s.FindTenant(ctx, "missing")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestReferences(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "acme")
	s := NewGorm(db)
	ctx := context.Background()

	missing, err := s.FindReferenceByName(ctx, tenant.ID, RefCategory, "Travel")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cat, err := s.CreateReference(ctx, tenant.ID, RefCategory, NewReference{Name: "Travel", Slug: "travel", OriginID: 3})
	require.NoError(t, err)
	tag, err := s.CreateReference(ctx, tenant.ID, RefTag, NewReference{Name: "Travel", Slug: "travel", OriginID: 9})
	require.NoError(t, err)
	assert.NotEqual(t, cat.ID, tag.ID)

	found, err := s.FindReferenceByName(ctx, tenant.ID, RefCategory, "Travel")
	require.NoError(t, err)
	assert.Equal(t, cat.ID, found.ID)

	found, err = s.FindReferenceBySlug(ctx, tenant.ID, RefTag, "travel")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, found.ID)

	_, err = s.CreateReference(ctx, tenant.ID, RefCategory, NewReference{Name: "Trips", Slug: "travel"})
	assert.ErrorIs(t, err, ErrDuplicate)

	author, err := s.CreateReference(ctx, tenant.ID, RefAuthor, NewReference{Name: "Jo", Slug: "jo", Bio: "bio", Avatar: "a.png", OriginID: 1})
	require.NoError(t, err)
	var stored models.AuthorModel
	require.NoError(t, db.First(&stored, "id = ?", author.ID).Error)
	assert.Equal(t, "bio", stored.Bio)
	assert.True(t, stored.Migrated)
	assert.Equal(t, int64(1), stored.OriginID)
	require.NotNil(t, stored.MigratedAt)

	other, err := s.FindReferenceByName(ctx, "other-tenant", RefAuthor, "Jo")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestPostsAndPages(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "acme")
	s := NewGorm(db)
	ctx := context.Background()

	post := &models.PostModel{TenantID: tenant.ID, Slug: "hello", CategoryIDs: models.StringArray{"c1"}}
	post.Title = "Hello"
	require.NoError(t, s.CreatePost(ctx, post))

	exists, err := s.PostExists(ctx, tenant.ID, "hello")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &models.PostModel{TenantID: tenant.ID, Slug: "hello"}
	dup.Title = "Again"
	assert.ErrorIs(t, s.CreatePost(ctx, dup), ErrDuplicate)

	parent := &models.PageModel{TenantID: tenant.ID, Slug: "about"}
	parent.Title = "About"
	require.NoError(t, s.CreatePage(ctx, parent))
	child := &models.PageModel{TenantID: tenant.ID, Slug: "team"}
	child.Title = "Team"
	require.NoError(t, s.CreatePage(ctx, child))

	require.NoError(t, s.SetPageParent(ctx, child.ID, parent.ID))
	loaded, err := s.FindPageBySlug(ctx, tenant.ID, "team")
	require.NoError(t, err)
	require.NotNil(t, loaded.ParentID)
	assert.Equal(t, parent.ID, *loaded.ParentID)

	none, err := s.FindPageBySlug(ctx, tenant.ID, "nope")
	require.NoError(t, err)
	assert.Nil(t, none)

	run := &models.MigrationRunModel{TenantID: tenant.ID, State: "Completed"}
	require.NoError(t, s.SaveRun(ctx, run))
	assert.NotEmpty(t, run.ID)
}

func TestTranslateMySQLDuplicate(t *testing.T) {
	err := translate(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.ErrorIs(t, err, ErrDuplicate)

	plain := errors.New("boom")
	assert.Equal(t, plain, translate(plain))
	assert.NoError(t, translate(nil))
}

func TestDryRunStore(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db, "acme")
	backing := NewGorm(db)
	ctx := context.Background()

	existing := &models.PageModel{TenantID: tenant.ID, Slug: "about"}
	existing.Title = "About"
	require.NoError(t, backing.CreatePage(ctx, existing))

	s := NewDryRun(backing, nil)

	ref, err := s.CreateReference(ctx, tenant.ID, RefCategory, NewReference{Name: "技术", Slug: "tech"})
	require.NoError(t, err)
	found, err := s.FindReferenceByName(ctx, tenant.ID, RefCategory, "技术")
	require.NoError(t, err)
	assert.Equal(t, ref.ID, found.ID)
	found, err = s.FindReferenceBySlug(ctx, tenant.ID, RefCategory, "tech")
	require.NoError(t, err)
	assert.Equal(t, ref.ID, found.ID)

	// Name lookups ignore case, like the MySQL collation.
	travel, err := s.CreateReference(ctx, tenant.ID, RefTag, NewReference{Name: "Travel", Slug: "travel"})
	require.NoError(t, err)
	found, err = s.FindReferenceByName(ctx, tenant.ID, RefTag, "TRAVEL")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, travel.ID, found.ID)

	post := &models.PostModel{TenantID: tenant.ID, Slug: "hello"}
	require.NoError(t, s.CreatePost(ctx, post))
	assert.Contains(t, post.ID, "dry-run-post-")
	exists, err := s.PostExists(ctx, tenant.ID, "hello")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.ErrorIs(t, s.CreatePost(ctx, &models.PostModel{TenantID: tenant.ID, Slug: "hello"}), ErrDuplicate)

	page := &models.PageModel{TenantID: tenant.ID, Slug: "team"}
	require.NoError(t, s.CreatePage(ctx, page))
	require.NoError(t, s.SetPageParent(ctx, page.ID, existing.ID))
	loaded, err := s.FindPageBySlug(ctx, tenant.ID, "team")
	require.NoError(t, err)
	require.NotNil(t, loaded.ParentID)
	assert.Equal(t, existing.ID, *loaded.ParentID)

	assert.ErrorIs(t, s.CreatePage(ctx, &models.PageModel{TenantID: tenant.ID, Slug: "about"}), ErrDuplicate)
	require.NoError(t, s.SaveRun(ctx, &models.MigrationRunModel{State: "Completed"}))

	var posts, pages, cats, runs int64
	db.Model(&models.PostModel{}).Count(&posts)
	db.Model(&models.PageModel{}).Count(&pages)
	db.Model(&models.CategoryModel{}).Count(&cats)
	db.Model(&models.MigrationRunModel{}).Count(&runs)
	assert.Zero(t, posts)
	assert.Equal(t, int64(1), pages)
	assert.Zero(t, cats)
	assert.Zero(t, runs)
}

package resolver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/mx-space/migrator/internal/database"
	"github.com/mx-space/migrator/internal/models"
	"github.com/mx-space/migrator/internal/modules/store"
	"github.com/mx-space/migrator/internal/pkg/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

// MockStore is a mock implementation of the reference half of store.Store.
type MockStore struct {
	mock.Mock
	store.Store
}

func (m *MockStore) FindReferenceByName(ctx context.Context, tenantID string, kind store.RefKind, name string) (*store.Reference, error) {
	args := m.Called(ctx, tenantID, kind, name)
	ref, _ := args.Get(0).(*store.Reference)
	return ref, args.Error(1)
}

func (m *MockStore) FindReferenceBySlug(ctx context.Context, tenantID string, kind store.RefKind, slug string) (*store.Reference, error) {
	args := m.Called(ctx, tenantID, kind, slug)
	ref, _ := args.Get(0).(*store.Reference)
	return ref, args.Error(1)
}

func (m *MockStore) CreateReference(ctx context.Context, tenantID string, kind store.RefKind, ref store.NewReference) (*store.Reference, error) {
	args := m.Called(ctx, tenantID, kind, ref)
	created, _ := args.Get(0).(*store.Reference)
	return created, args.Error(1)
}

func TestResolveCachesBySourceID(t *testing.T) {
	ctx := context.Background()
	m := new(MockStore)
	m.On("FindReferenceByName", ctx, "t1", store.RefCategory, "Travel").Return(nil, nil).Once()
	m.On("FindReferenceBySlug", ctx, "t1", store.RefCategory, "travel").Return(nil, nil).Once()
	m.On("CreateReference", ctx, "t1", store.RefCategory, store.NewReference{Name: "Travel", Slug: "travel", OriginID: 5}).
		Return(&store.Reference{ID: "cat-1", Name: "Travel", Slug: "travel"}, nil).Once()

	r := New(m, slug.New(nil), "t1", nil)
	first, err := r.Resolve(ctx, Ref{Kind: store.RefCategory, SourceID: 5, Name: "Travel", Slug: "travel"})
	require.NoError(t, err)
	second, err := r.Resolve(ctx, Ref{Kind: store.RefCategory, SourceID: 5, Name: "Travel", Slug: "travel"})
	require.NoError(t, err)

	assert.Equal(t, "cat-1", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.Created())
	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "CreateReference", 1)
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	m := new(MockStore)
	m.On("FindReferenceByName", ctx, "t1", store.RefTag, "Go").Return(nil, errors.New("db down"))

	r := New(m, slug.New(nil), "t1", nil)
	_, err := r.Resolve(ctx, Ref{Kind: store.RefTag, SourceID: 1, Name: "Go", Slug: "go"})
	assert.Error(t, err)
	m.AssertNotCalled(t, "CreateReference")
}

func TestResolveRetriesSlugAfterDuplicate(t *testing.T) {
	ctx := context.Background()
	m := new(MockStore)
	m.On("FindReferenceByName", ctx, "t1", store.RefTag, "Golang").Return(nil, nil)
	m.On("FindReferenceBySlug", ctx, "t1", store.RefTag, "golang").Return(nil, nil).Once()
	m.On("CreateReference", ctx, "t1", store.RefTag, mock.Anything).Return(nil, store.ErrDuplicate)
	m.On("FindReferenceBySlug", ctx, "t1", store.RefTag, "golang").Return(&store.Reference{ID: "tag-9", Slug: "golang"}, nil).Once()

	r := New(m, slug.New(nil), "t1", nil)
	id, err := r.Resolve(ctx, Ref{Kind: store.RefTag, SourceID: 2, Name: "Golang", Slug: "golang"})
	require.NoError(t, err)
	assert.Equal(t, "tag-9", id)
}

func newSQLiteStore(t *testing.T) (store.Store, string) {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "resolver.db")), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	tenant := &models.TenantModel{Slug: "acme"}
	require.NoError(t, db.Create(tenant).Error)
	return store.NewGorm(db), tenant.ID
}

func TestResolveMatchesByNameBeforeSlug(t *testing.T) {
	ctx := context.Background()
	st, tenantID := newSQLiteStore(t)
	r := New(st, slug.New(nil), tenantID, nil)

	first, err := r.Resolve(ctx, Ref{Kind: store.RefCategory, SourceID: 1, Name: "技术", Slug: "%e6%8a%80%e6%9c%af"})
	require.NoError(t, err)
	second, err := r.Resolve(ctx, Ref{Kind: store.RefCategory, SourceID: 2, Name: "技术", Slug: "tech-2"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	flags := r.Flags()
	require.Len(t, flags, 1)
	assert.Equal(t, int64(2), flags[0].SourceID)
	assert.Equal(t, "tech", flags[0].StoredSlug)
	assert.Equal(t, "tech-2", flags[0].Slug)

	bySlug, err := r.Resolve(ctx, Ref{Kind: store.RefCategory, SourceID: 3, Name: "Technology", Slug: "tech"})
	require.NoError(t, err)
	assert.Equal(t, first, bySlug)
	assert.Equal(t, 1, r.Created())
}

func TestResolveIsIdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	st, tenantID := newSQLiteStore(t)

	refs := []Ref{
		{Kind: store.RefCategory, SourceID: 1, Name: "Life", Slug: "life"},
		{Kind: store.RefTag, SourceID: 1, Name: "Life", Slug: "life"},
		{Kind: store.RefAuthor, SourceID: 1, Name: "Jo", Slug: "jo", Bio: "writer"},
	}
	firstRun := New(st, slug.New(nil), tenantID, nil)
	ids := make([]string, len(refs))
	for i, ref := range refs {
		id, err := firstRun.Resolve(ctx, ref)
		require.NoError(t, err)
		ids[i] = id
	}
	assert.Equal(t, 3, firstRun.Created())

	secondRun := New(st, slug.New(nil), tenantID, nil)
	for i, ref := range refs {
		id, err := secondRun.Resolve(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, ids[i], id)
	}
	assert.Zero(t, secondRun.Created())
	assert.Empty(t, secondRun.Flags())
}

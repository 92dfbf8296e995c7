package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/mx-space/migrator/internal/models"
	"go.uber.org/zap"
)

// DryRunStore delegates reads and replaces writes with deterministic placeholders.
// It remembers what it pretended to create so later lookups in the same run see the
// same state a real run would.
type DryRunStore struct {
	inner  Store
	logger *zap.Logger

	seq    int
	refs   map[RefKind][]Reference
	posts  map[string]struct{}
	pages  map[string]*models.PageModel
	parent map[string]string
}

func NewDryRun(inner Store, logger *zap.Logger) *DryRunStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunStore{
		inner:  inner,
		logger: logger.Named("dry-run"),
		refs:   make(map[RefKind][]Reference),
		posts:  make(map[string]struct{}),
		pages:  make(map[string]*models.PageModel),
		parent: make(map[string]string),
	}
}

func (s *DryRunStore) placeholderID(kind string) string {
	s.seq++
	return fmt.Sprintf("dry-run-%s-%d", kind, s.seq)
}

func tenantKey(tenantID, slug string) string {
	return tenantID + "\x00" + slug
}

func (s *DryRunStore) FindTenant(ctx context.Context, ref string) (*models.TenantModel, error) {
	return s.inner.FindTenant(ctx, ref)
}

func (s *DryRunStore) FindReferenceByName(ctx context.Context, tenantID string, kind RefKind, name string) (*Reference, error) {
	for _, ref := range s.refs[kind] {
		if strings.EqualFold(ref.Name, name) {
			found := ref
			return &found, nil
		}
	}
	return s.inner.FindReferenceByName(ctx, tenantID, kind, name)
}

func (s *DryRunStore) FindReferenceBySlug(ctx context.Context, tenantID string, kind RefKind, slug string) (*Reference, error) {
	for _, ref := range s.refs[kind] {
		if ref.Slug == slug {
			found := ref
			return &found, nil
		}
	}
	return s.inner.FindReferenceBySlug(ctx, tenantID, kind, slug)
}

func (s *DryRunStore) CreateReference(_ context.Context, tenantID string, kind RefKind, ref NewReference) (*Reference, error) {
	for _, existing := range s.refs[kind] {
		if existing.Slug == ref.Slug {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicate, kind, ref.Slug)
		}
	}
	created := Reference{ID: s.placeholderID(string(kind)), Name: ref.Name, Slug: ref.Slug}
	s.refs[kind] = append(s.refs[kind], created)
	s.logger.Info("would create reference",
		zap.String("kind", string(kind)), zap.String("slug", ref.Slug), zap.String("placeholder", created.ID))
	return &created, nil
}

func (s *DryRunStore) PostExists(ctx context.Context, tenantID, slug string) (bool, error) {
	if _, ok := s.posts[tenantKey(tenantID, slug)]; ok {
		return true, nil
	}
	return s.inner.PostExists(ctx, tenantID, slug)
}

func (s *DryRunStore) CreatePost(ctx context.Context, post *models.PostModel) error {
	exists, err := s.PostExists(ctx, post.TenantID, post.Slug)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: post %s", ErrDuplicate, post.Slug)
	}
	post.ID = s.placeholderID("post")
	s.posts[tenantKey(post.TenantID, post.Slug)] = struct{}{}
	s.logger.Info("would create post", zap.String("slug", post.Slug), zap.String("placeholder", post.ID))
	return nil
}

func (s *DryRunStore) PageExists(ctx context.Context, tenantID, slug string) (bool, error) {
	if _, ok := s.pages[tenantKey(tenantID, slug)]; ok {
		return true, nil
	}
	return s.inner.PageExists(ctx, tenantID, slug)
}

func (s *DryRunStore) FindPageBySlug(ctx context.Context, tenantID, slug string) (*models.PageModel, error) {
	if page, ok := s.pages[tenantKey(tenantID, slug)]; ok {
		copied := *page
		return &copied, nil
	}
	page, err := s.inner.FindPageBySlug(ctx, tenantID, slug)
	if err != nil || page == nil {
		return page, err
	}
	if parentID, ok := s.parent[page.ID]; ok {
		page.ParentID = &parentID
	}
	return page, nil
}

func (s *DryRunStore) CreatePage(ctx context.Context, page *models.PageModel) error {
	exists, err := s.PageExists(ctx, page.TenantID, page.Slug)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: page %s", ErrDuplicate, page.Slug)
	}
	page.ID = s.placeholderID("page")
	copied := *page
	s.pages[tenantKey(page.TenantID, page.Slug)] = &copied
	s.logger.Info("would create page", zap.String("slug", page.Slug), zap.String("placeholder", page.ID))
	return nil
}

func (s *DryRunStore) SetPageParent(_ context.Context, pageID, parentID string) error {
	placeholder := false
	for _, page := range s.pages {
		if page.ID == pageID {
			parent := parentID
			page.ParentID = &parent
			placeholder = true
		}
	}
	if !placeholder {
		s.parent[pageID] = parentID
	}
	s.logger.Info("would set page parent", zap.String("page", pageID), zap.String("parent", parentID))
	return nil
}

func (s *DryRunStore) CreateAsset(_ context.Context, asset *models.AssetModel) error {
	s.logger.Info("would record asset", zap.String("source", asset.SourceURL))
	return nil
}

func (s *DryRunStore) SaveRun(_ context.Context, run *models.MigrationRunModel) error {
	s.logger.Info("run not persisted in dry-run", zap.String("state", run.State))
	return nil
}

// Package resolver maps source taxonomy and author IDs onto destination records.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mx-space/migrator/internal/modules/store"
	"github.com/mx-space/migrator/internal/pkg/slug"
	"go.uber.org/zap"
)

// Ref describes a source reference to resolve.
type Ref struct {
	Kind     store.RefKind
	SourceID int64
	Name     string
	Slug     string
	Bio      string
	Avatar   string
}

// Flag reports a name match whose stored slug differs from the one the source would get.
// Two distinct source terms may have been merged; an operator should check.
type Flag struct {
	Kind       store.RefKind
	SourceID   int64
	Name       string
	Slug       string
	StoredSlug string
	TargetID   string
}

type cacheKey struct {
	kind store.RefKind
	id   int64
}

// Resolver is scoped to one run and one tenant.
type Resolver struct {
	store     store.Store
	sanitizer *slug.Sanitizer
	tenantID  string
	logger    *zap.Logger

	cache   map[cacheKey]string
	flags   []Flag
	created int
}

func New(st store.Store, sanitizer *slug.Sanitizer, tenantID string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:     st,
		sanitizer: sanitizer,
		tenantID:  tenantID,
		logger:    logger.Named("resolver"),
		cache:     make(map[cacheKey]string),
	}
}

// Resolve returns the destination ID for ref: run cache, then name, then slug, then create.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) (string, error) {
	key := cacheKey{kind: ref.Kind, id: ref.SourceID}
	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	sanitized := r.sanitizer.Sanitize(ref.Slug, ref.Name)
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		name = sanitized
	}

	found, err := r.store.FindReferenceByName(ctx, r.tenantID, ref.Kind, name)
	if err != nil {
		return "", fmt.Errorf("find %s by name %q: %w", ref.Kind, name, err)
	}
	if found != nil {
		if found.Slug != sanitized {
			r.flag(ref, name, sanitized, found)
		}
		r.cache[key] = found.ID
		return found.ID, nil
	}

	found, err = r.store.FindReferenceBySlug(ctx, r.tenantID, ref.Kind, sanitized)
	if err != nil {
		return "", fmt.Errorf("find %s by slug %q: %w", ref.Kind, sanitized, err)
	}
	if found != nil {
		r.cache[key] = found.ID
		return found.ID, nil
	}

	created, err := r.store.CreateReference(ctx, r.tenantID, ref.Kind, store.NewReference{
		Name:     name,
		Slug:     sanitized,
		Bio:      ref.Bio,
		Avatar:   ref.Avatar,
		OriginID: ref.SourceID,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Another writer got there first; the slug lookup now succeeds.
			if again, findErr := r.store.FindReferenceBySlug(ctx, r.tenantID, ref.Kind, sanitized); findErr == nil && again != nil {
				r.cache[key] = again.ID
				return again.ID, nil
			}
		}
		return "", fmt.Errorf("create %s %q: %w", ref.Kind, sanitized, err)
	}

	r.created++
	r.logger.Info("reference created",
		zap.String("kind", string(ref.Kind)),
		zap.Int64("source_id", ref.SourceID),
		zap.String("slug", sanitized))
	r.cache[key] = created.ID
	return created.ID, nil
}

func (r *Resolver) flag(ref Ref, name, sanitized string, found *store.Reference) {
	r.flags = append(r.flags, Flag{
		Kind:       ref.Kind,
		SourceID:   ref.SourceID,
		Name:       name,
		Slug:       sanitized,
		StoredSlug: found.Slug,
		TargetID:   found.ID,
	})
	r.logger.Warn("reference matched by name with a different slug",
		zap.String("kind", string(ref.Kind)),
		zap.Int64("source_id", ref.SourceID),
		zap.String("name", name),
		zap.String("slug", sanitized),
		zap.String("stored_slug", found.Slug))
}

func (r *Resolver) Flags() []Flag { return r.flags }

// Created counts references this resolver created.
func (r *Resolver) Created() int { return r.created }

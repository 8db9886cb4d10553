package cache

import (
	"context"
	"strings"

	"github.com/NikhilSetiya/securex/internal/analysis"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/logging"
)

// RepoCache remembers repository metadata so repeated scans of the same
// repository do not spend the GitHub rate limit
type RepoCache struct {
	inner   analysis.RepoInspector
	service *Service
	logger  *logging.Logger
}

// NewRepoCache wraps inner with a cache
func NewRepoCache(inner analysis.RepoInspector, service *Service) *RepoCache {
	return &RepoCache{inner: inner, service: service, logger: logging.GetLogger()}
}

// Inspect implements analysis.RepoInspector
func (r *RepoCache) Inspect(ctx context.Context, repoURL string) (*analysis.RepoMetadata, error) {
	owner, name, ok := analysis.ParseRepository(repoURL)
	if !ok {
		return r.inner.Inspect(ctx, repoURL)
	}
	key := CacheKey{Prefix: PrefixRepository, ID: strings.ToLower(owner + "/" + name)}

	var meta analysis.RepoMetadata
	err := r.service.Get(ctx, key, &meta)
	if err == nil {
		return &meta, nil
	}
	if !errors.IsNotFound(err) {
		r.logger.WithError(err).Warn("Repository cache read failed")
	}

	fresh, err := r.inner.Inspect(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	if err := r.service.Set(ctx, key, fresh, r.service.config.RepositoryTTL); err != nil {
		r.logger.WithError(err).Warn("Repository cache write failed")
	}
	return fresh, nil
}

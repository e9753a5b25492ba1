package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// CachingProvider caches provider search results by normalized query.
// Deep analysis always goes to the provider.
type CachingProvider struct {
	next   domain.AnalysisProvider
	cache  domain.SearchCache
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewCachingProvider wraps next with a search cache
func NewCachingProvider(
	next domain.AnalysisProvider,
	cache domain.SearchCache,
	ttl time.Duration,
	logger logrus.FieldLogger,
) *CachingProvider {
	return &CachingProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// SearchProducts returns cached results for equivalent queries, otherwise
// asks the wrapped provider and caches a successful response. The provider
// sees the normalized query so every query sharing a key gets the same answer.
func (p *CachingProvider) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	normalized := normalizeQuery(query)
	key := "search:" + normalized

	cached, err := p.cache.Get(ctx, key)
	if err == nil {
		p.logger.WithField("key", key).Debug("Search cache hit")
		return cached, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		p.logger.WithError(err).Warn("Search cache read failed")
	}

	products, err := p.next.SearchProducts(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if err := p.cache.Set(ctx, key, products, p.ttl); err != nil {
		p.logger.WithError(err).Warn("Search cache write failed")
	}
	return products, nil
}

// AnalyzeProduct delegates to the wrapped provider
func (p *CachingProvider) AnalyzeProduct(ctx context.Context, product domain.Product) (*domain.AnalysisResult, error) {
	return p.next.AnalyzeProduct(ctx, product)
}

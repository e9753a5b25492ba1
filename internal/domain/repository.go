package domain

import (
	"context"
	"time"
)

// AnalysisProvider is the external scoring capability
type AnalysisProvider interface {
	SearchProducts(ctx context.Context, query string) ([]Product, error)
	AnalyzeProduct(ctx context.Context, product Product) (*AnalysisResult, error)
}

// SearchCache stores provider search results by normalized query
type SearchCache interface {
	Get(ctx context.Context, key string) ([]Product, error)
	Set(ctx context.Context, key string, products []Product, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

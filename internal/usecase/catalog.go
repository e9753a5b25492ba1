package usecase

import (
	"fmt"

	"github.com/ecofinder/backend/internal/domain"
)

// AugmentMode selects how search results are combined with the seed catalog
type AugmentMode string

const (
	// AugmentAppend places results after the seed without de-duplication
	AugmentAppend AugmentMode = "append"
	// AugmentMerge replaces seed entries that share an id and appends the rest
	AugmentMerge AugmentMode = "merge"
)

// IsValid reports whether m is a known augment mode
func (m AugmentMode) IsValid() bool {
	return m == AugmentAppend || m == AugmentMerge
}

// CatalogStore holds the immutable seed catalog
type CatalogStore struct {
	seed []domain.Product
	mode AugmentMode
}

// NewCatalogStore validates the seed and builds a store. Seed data that breaks
// product invariants or repeats an id is rejected.
func NewCatalogStore(seed []domain.Product, mode AugmentMode) (*CatalogStore, error) {
	if mode == "" {
		mode = AugmentAppend
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown augment mode %q", domain.ErrInvalidInput, mode)
	}

	seen := make(map[string]bool, len(seed))
	for i, p := range seed {
		if err := ValidateProduct(p); err != nil {
			return nil, fmt.Errorf("%w: seed product %d (%q): %v", domain.ErrInvalidProduct, i, p.ID, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate seed product id %q", domain.ErrInvalidProduct, p.ID)
		}
		seen[p.ID] = true
	}

	return &CatalogStore{
		seed: cloneProducts(seed),
		mode: mode,
	}, nil
}

// AllProducts returns the seed catalog in order
func (s *CatalogStore) AllProducts() []domain.Product {
	return cloneProducts(s.seed)
}

// Mode returns the configured augment mode
func (s *CatalogStore) Mode() AugmentMode {
	return s.mode
}

// Augment returns the seed followed by extra. Products present in both appear twice.
func (s *CatalogStore) Augment(extra []domain.Product) []domain.Product {
	combined := make([]domain.Product, 0, len(s.seed)+len(extra))
	combined = append(combined, s.seed...)
	return append(combined, extra...)
}

// Merge returns the seed with entries replaced by same-id products from extra,
// followed by the extra products whose ids are new, in order of first appearance
func (s *CatalogStore) Merge(extra []domain.Product) []domain.Product {
	combined := cloneProducts(s.seed)
	index := make(map[string]int, len(combined)+len(extra))
	for i, p := range combined {
		index[p.ID] = i
	}

	for _, p := range extra {
		if i, ok := index[p.ID]; ok {
			combined[i] = p
			continue
		}
		index[p.ID] = len(combined)
		combined = append(combined, p)
	}
	return combined
}

// Combine applies the configured augment mode
func (s *CatalogStore) Combine(extra []domain.Product) []domain.Product {
	if s.mode == AugmentMerge {
		return s.Merge(extra)
	}
	return s.Augment(extra)
}

// FindByID returns the first product with the given id
func FindByID(products []domain.Product, id string) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func cloneProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}

package usecase

import (
	"fmt"
	"strings"

	"github.com/ecofinder/backend/internal/domain"
)

// Filter returns the products matching both query and category selector, in
// their original order. Matching is case-insensitive substring containment:
// the query is checked against name and category, the selector id against
// category. An empty query and the "all" selector match everything.
func Filter(products []domain.Product, query, selector string) []domain.Product {
	q := strings.ToLower(query)
	sel := strings.ToLower(selector)

	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matchesQuery(p, q) && matchesSelector(p, sel) {
			result = append(result, p)
		}
	}
	return result
}

// matchesQuery expects q already lowercased
func matchesQuery(p domain.Product, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(string(p.Category)), q)
}

// matchesSelector expects sel already lowercased
func matchesSelector(p domain.Product, sel string) bool {
	if sel == domain.SelectorAll {
		return true
	}
	return strings.Contains(strings.ToLower(string(p.Category)), sel)
}

// CountLabel is the results header for n visible products
func CountLabel(n int) string {
	return fmt.Sprintf("%d Eco-Friendly Products Found", n)
}

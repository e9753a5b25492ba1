package usecase

import (
	"github.com/ecofinder/backend/internal/domain"
	"github.com/shopspring/decimal"
)

func tShirt() domain.Product {
	return domain.Product{
		ID:                     "1",
		Name:                   "Organic Cotton T-Shirt",
		Category:               domain.CategoryClothing,
		Price:                  decimal.RequireFromString("29.99"),
		EcoScore:               92,
		Materials:              []string{"Organic Cotton", "Natural Dyes"},
		SustainabilityFeatures: []string{"Biodegradable", "Fair Trade", "Low Water Usage"},
		Rating:                 decimal.RequireFromString("4.8"),
		ReviewCount:            156,
	}
}

func bambooCase() domain.Product {
	return domain.Product{
		ID:                     "2",
		Name:                   "Bamboo Phone Case",
		Category:               domain.CategoryElectronics,
		Price:                  decimal.RequireFromString("24.99"),
		EcoScore:               88,
		Materials:              []string{"Bamboo Fiber", "Plant-based TPU"},
		SustainabilityFeatures: []string{"Compostable", "Renewable Resource", "Carbon Neutral"},
		Rating:                 decimal.RequireFromString("4.6"),
		ReviewCount:            89,
	}
}

func waterBottle() domain.Product {
	return domain.Product{
		ID:                     "3",
		Name:                   "Recycled Aluminum Water Bottle",
		Category:               domain.CategoryHomeGarden,
		Price:                  decimal.RequireFromString("34.99"),
		EcoScore:               95,
		Materials:              []string{"Recycled Aluminum", "Silicone Seal"},
		SustainabilityFeatures: []string{"100% Recycled", "Reusable", "BPA Free"},
		Rating:                 decimal.RequireFromString("4.9"),
		ReviewCount:            203,
	}
}

func shampooBar() domain.Product {
	return domain.Product{
		ID:                     "4",
		Name:                   "Solid Shampoo Bar",
		Category:               domain.CategoryBeauty,
		Price:                  decimal.RequireFromString("12.50"),
		EcoScore:               45,
		Materials:              []string{"Coconut Oil"},
		SustainabilityFeatures: []string{"Plastic Free"},
	}
}

func sampleCatalog() []domain.Product {
	return []domain.Product{tShirt(), bambooCase(), waterBottle()}
}

func productIDs(products []domain.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

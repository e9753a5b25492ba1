// Package seed loads the startup product catalog from YAML.
package seed

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// yamlDecimal accepts both quoted and bare numbers
type yamlDecimal struct {
	decimal.Decimal
}

func (d *yamlDecimal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}
	parsed, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Decimal = parsed
	return nil
}

type seedProduct struct {
	ID                     string      `yaml:"id"`
	Name                   string      `yaml:"name"`
	Category               string      `yaml:"category"`
	Price                  yamlDecimal `yaml:"price"`
	EcoScore               int         `yaml:"ecoScore"`
	Materials              []string    `yaml:"materials"`
	SustainabilityFeatures []string    `yaml:"sustainabilityFeatures"`
	Rating                 yamlDecimal `yaml:"reviews"`
	ReviewCount            int         `yaml:"reviewCount"`
	ImageURL               string      `yaml:"image"`
}

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

// Default returns the built-in sample catalog
func Default() ([]domain.Product, error) {
	return Parse(defaultSeed)
}

// Load reads a catalog file. An empty path loads the built-in catalog.
func Load(path string) ([]domain.Product, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Field-level invariants are checked when the
// catalog store is built, not here.
func Parse(data []byte) ([]domain.Product, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidProduct, err)
	}

	products := make([]domain.Product, 0, len(file.Products))
	for _, p := range file.Products {
		products = append(products, domain.Product{
			ID:                     p.ID,
			Name:                   p.Name,
			Category:               domain.Category(p.Category),
			Price:                  p.Price.Decimal,
			EcoScore:               p.EcoScore,
			Materials:              p.Materials,
			SustainabilityFeatures: p.SustainabilityFeatures,
			Rating:                 p.Rating.Decimal,
			ReviewCount:            p.ReviewCount,
			ImageURL:               p.ImageURL,
		})
	}
	return products, nil
}

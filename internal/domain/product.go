package domain

import "github.com/shopspring/decimal"

// Category is the display category a product belongs to
type Category string

const (
	CategoryClothing    Category = "Clothing"
	CategoryElectronics Category = "Electronics"
	CategoryHomeGarden  Category = "Home & Garden"
	CategoryBeauty      Category = "Beauty"
)

// Categories lists every category a product may carry
var Categories = []Category{
	CategoryClothing,
	CategoryElectronics,
	CategoryHomeGarden,
	CategoryBeauty,
}

// IsKnown reports whether c is one of the fixed product categories
func (c Category) IsKnown() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is an immutable catalog entry.
// A product without reviews has ReviewCount 0 and Rating 0.
type Product struct {
	ID                     string          `json:"id" validate:"required"`
	Name                   string          `json:"name" validate:"required"`
	Category               Category        `json:"category" validate:"required,category"`
	Price                  decimal.Decimal `json:"price" validate:"gte=0"`
	EcoScore               int             `json:"ecoScore" validate:"min=0,max=100"`
	Materials              []string        `json:"materials"`
	SustainabilityFeatures []string        `json:"sustainabilityFeatures"`
	Rating                 decimal.Decimal `json:"reviews" validate:"gte=0,lte=5"`
	ReviewCount            int             `json:"reviewCount" validate:"min=0"`
	ImageURL               string          `json:"image,omitempty" validate:"omitempty,url"`
}

// Sentiment is the provider's overall reading of customer feedback
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// IsValid reports whether s is one of the known sentiments
func (s Sentiment) IsValid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// AnalysisResult is the provider's deep analysis of a single product.
// It is shown once and never stored.
type AnalysisResult struct {
	EcoScore  int       `json:"ecoScore"`
	Sentiment Sentiment `json:"sentiment"`
	Insights  []string  `json:"sustainabilityInsights"`
}

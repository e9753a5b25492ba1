// Package stub is an in-process analysis provider for local runs and demos.
package stub

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	minScore   = 70
	scoreRange = 30
)

// Insights returned with every analysis
var Insights = []string{
	"Eco-friendly materials detected",
	"Positive customer feedback on sustainability",
	"Low environmental impact",
}

// Provider searches a fixed product list and returns randomized scores
type Provider struct {
	products []domain.Product
	logger   logrus.FieldLogger

	mu  sync.Mutex
	rng *rand.Rand
}

var _ domain.AnalysisProvider = (*Provider)(nil)

// NewProvider creates a stub over products. A nil rng uses a randomly seeded source.
func NewProvider(products []domain.Product, rng *rand.Rand, logger logrus.FieldLogger) *Provider {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Provider{
		products: append([]domain.Product(nil), products...),
		logger:   logger.WithField("component", "stub_provider"),
		rng:      rng,
	}
}

// SearchProducts returns the products whose name or category contains query,
// ignoring case
func (p *Provider) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matches []domain.Product
	for _, product := range p.products {
		if strings.Contains(strings.ToLower(product.Name), q) ||
			strings.Contains(strings.ToLower(string(product.Category)), q) {
			matches = append(matches, product)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"query":   query,
		"results": len(matches),
	}).Debug("Stub search")
	return matches, nil
}

// AnalyzeProduct returns a score in [70, 99] with positive sentiment
func (p *Provider) AnalyzeProduct(ctx context.Context, product domain.Product) (*domain.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	score := minScore + p.rng.IntN(scoreRange)
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"eco_score":  score,
	}).Debug("Stub analysis")

	return &domain.AnalysisResult{
		EcoScore:  score,
		Sentiment: domain.SentimentPositive,
		Insights:  append([]string(nil), Insights...),
	}, nil
}

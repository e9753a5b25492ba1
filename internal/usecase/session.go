package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// ErrSessionClosed is delivered for a product selection on a closed session
var ErrSessionClosed = fmt.Errorf("%w: session is closed", domain.ErrInvalidInput)

// SessionConfig holds configuration for a discovery session
type SessionConfig struct {
	AnalysisTimeout time.Duration
	MinQueryLength  int
	OnFlagChange    FlagObserver
}

// AnalysisOutcome is the one-shot result of a product selection. Exactly one
// of Result or Err is set. Stale is true when a newer selection superseded
// this one, in which case the outcome carries no message for display.
type AnalysisOutcome struct {
	Product        domain.Product         `json:"product"`
	Result         *domain.AnalysisResult `json:"result,omitempty"`
	Classification *Classification        `json:"classification,omitempty"`
	Err            error                  `json:"-"`
	Message        string                 `json:"message,omitempty"`
	Stale          bool                   `json:"stale,omitempty"`
}

// Snapshot is a consistent read of the session for the presentation layer
type Snapshot struct {
	Query      string           `json:"query"`
	Category   string           `json:"category"`
	Loading    bool             `json:"loading"`
	Analyzing  bool             `json:"analyzing"`
	Products   []domain.Product `json:"products"`
	Count      int              `json:"count"`
	CountLabel string           `json:"countLabel"`
}

// DiscoverySession holds one user's discovery state and reacts to their intents.
// Provider calls run in the background; the locally filtered view is always
// available while they are pending.
type DiscoverySession struct {
	catalog    *CatalogStore
	controller *AnalysisController
	logger     logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// intentMu orders intents against each other and against Close. It is
	// taken before the controller lock.
	intentMu sync.Mutex
	closed   bool

	mu       sync.RWMutex
	query    string
	category string
	products []domain.Product
}

// NewDiscoverySession creates a session with an empty query and the "all" selector
func NewDiscoverySession(
	catalog *CatalogStore,
	provider domain.AnalysisProvider,
	logger logrus.FieldLogger,
	config SessionConfig,
) *DiscoverySession {
	controller := NewAnalysisController(provider, logger, ControllerConfig{
		Timeout:        config.AnalysisTimeout,
		MinQueryLength: config.MinQueryLength,
		OnFlagChange:   config.OnFlagChange,
	})
	ctx, cancel := context.WithCancel(context.Background())

	return &DiscoverySession{
		catalog:    catalog,
		controller: controller,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		category:   domain.SelectorAll,
		products:   catalog.AllProducts(),
	}
}

// OnQueryChanged updates the query. Queries long enough to search also start
// a background augmentation. Shorter ones only filter locally and supersede
// any augmentation still pending.
func (s *DiscoverySession) OnQueryChanged(text string) {
	s.intentMu.Lock()
	defer s.intentMu.Unlock()

	if s.closed {
		return
	}

	s.mu.Lock()
	s.query = text
	s.mu.Unlock()

	if !isSearchable(text, s.controller.MinQueryLength()) {
		s.controller.CancelSearch()
		return
	}

	run, err := s.controller.StartSearch(s.ctx, text, s.applySearchResults)
	if err != nil {
		s.logger.WithError(err).Warn("Search augmentation not started")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = run()
	}()
}

// OnCategorySelected switches the category selector
func (s *DiscoverySession) OnCategorySelected(id string) error {
	if _, ok := domain.LookupSelector(id); !ok {
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, id)
	}

	s.mu.Lock()
	s.category = id
	s.mu.Unlock()
	return nil
}

// OnProductSelected starts a deep analysis of product. The returned channel
// delivers exactly one outcome and is then closed.
func (s *DiscoverySession) OnProductSelected(product domain.Product) <-chan AnalysisOutcome {
	out := make(chan AnalysisOutcome, 1)

	s.intentMu.Lock()
	defer s.intentMu.Unlock()

	if s.closed {
		out <- AnalysisOutcome{Product: product, Err: ErrSessionClosed, Message: AnalysisFailedMessage}
		close(out)
		return out
	}

	run, err := s.controller.StartAnalyze(s.ctx, product)
	if err != nil {
		out <- AnalysisOutcome{Product: product, Err: err, Message: AnalysisFailedMessage}
		close(out)
		return out
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(out)
		result, err := run()
		out <- newAnalysisOutcome(product, result, err)
	}()

	return out
}

func newAnalysisOutcome(product domain.Product, result *domain.AnalysisResult, err error) AnalysisOutcome {
	outcome := AnalysisOutcome{Product: product}

	switch {
	case errors.Is(err, domain.ErrStaleResponse):
		outcome.Err = err
		outcome.Stale = true
	case err != nil:
		outcome.Err = err
		outcome.Message = AnalysisFailedMessage
	default:
		classification := Classify(result.EcoScore)
		outcome.Result = result
		outcome.Classification = &classification
	}
	return outcome
}

// applySearchResults is called by the controller under its lock
func (s *DiscoverySession) applySearchResults(results []domain.Product) {
	combined := s.catalog.Combine(results)

	s.mu.Lock()
	s.products = combined
	s.mu.Unlock()
}

// VisibleProducts filters the current catalog by the current query and category
func (s *DiscoverySession) VisibleProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.products, s.query, s.category)
}

// Catalog returns the current, unfiltered catalog
func (s *DiscoverySession) Catalog() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products)
}

// Loading reports whether search augmentation is in flight
func (s *DiscoverySession) Loading() bool {
	return s.controller.Loading()
}

// Analyzing reports whether deep analysis is in flight
func (s *DiscoverySession) Analyzing() bool {
	return s.controller.Analyzing()
}

// Snapshot returns the session state and derived view in one read
func (s *DiscoverySession) Snapshot() Snapshot {
	loading := s.controller.Loading()
	analyzing := s.controller.Analyzing()

	s.mu.RLock()
	defer s.mu.RUnlock()

	visible := Filter(s.products, s.query, s.category)
	return Snapshot{
		Query:      s.query,
		Category:   s.category,
		Loading:    loading,
		Analyzing:  analyzing,
		Products:   visible,
		Count:      len(visible),
		CountLabel: CountLabel(len(visible)),
	}
}

// Wait blocks until all background provider calls have settled
func (s *DiscoverySession) Wait() {
	s.wg.Wait()
}

// Close cancels outstanding provider calls and waits for them to settle.
// Intents after Close start no provider calls.
func (s *DiscoverySession) Close() {
	s.intentMu.Lock()
	s.closed = true
	s.intentMu.Unlock()

	s.cancel()
	s.wg.Wait()
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalysisFailedMessage is shown to the user when deep analysis fails
const AnalysisFailedMessage = "Could not analyze product at this time."

// RequestKind identifies one of the two provider operations
type RequestKind string

const (
	KindSearch  RequestKind = "search"
	KindAnalyze RequestKind = "analyze"
)

// FlagObserver is notified of every in-flight flag transition. It is called
// with the controller lock held and must not call back into the controller.
type FlagObserver func(kind RequestKind, active bool)

// ControllerConfig holds configuration for the analysis controller
type ControllerConfig struct {
	// Timeout bounds each provider call; zero disables it
	Timeout        time.Duration
	MinQueryLength int
	OnFlagChange   FlagObserver
}

// flight tracks the latest request of one kind
type flight struct {
	kind   RequestKind
	seq    uint64
	active bool
	cancel context.CancelFunc
}

// AnalysisController mediates every call to the analysis provider. Each
// request kind is single-flight: starting a request cancels the previous one
// of the same kind, and a response that settles after a newer request started
// is discarded.
type AnalysisController struct {
	provider       domain.AnalysisProvider
	logger         logrus.FieldLogger
	timeout        time.Duration
	minQueryLength int
	observer       FlagObserver

	mu      sync.Mutex
	search  flight
	analyze flight
}

// NewAnalysisController creates a controller around provider
func NewAnalysisController(
	provider domain.AnalysisProvider,
	logger logrus.FieldLogger,
	config ControllerConfig,
) *AnalysisController {
	minLength := config.MinQueryLength
	if minLength <= 0 {
		minLength = DefaultMinQueryLength
	}

	return &AnalysisController{
		provider:       provider,
		logger:         logger,
		timeout:        config.Timeout,
		minQueryLength: minLength,
		observer:       config.OnFlagChange,
		search:         flight{kind: KindSearch},
		analyze:        flight{kind: KindAnalyze},
	}
}

// Loading reports whether a search augmentation is in flight
func (c *AnalysisController) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search.active
}

// Analyzing reports whether a deep analysis is in flight
func (c *AnalysisController) Analyzing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyze.active
}

// MinQueryLength is the shortest query Search accepts
func (c *AnalysisController) MinQueryLength() int {
	return c.minQueryLength
}

// Search asks the provider for products matching query and blocks until the
// call settles. See StartSearch.
func (c *AnalysisController) Search(
	ctx context.Context,
	query string,
	commit func([]domain.Product),
) error {
	run, err := c.StartSearch(ctx, query, commit)
	if err != nil {
		return err
	}
	return run()
}

// StartSearch registers a search as the latest one and returns the function
// that performs the provider call. Request order is fixed here, so run may be
// executed on another goroutine. On success commit is called with the
// results, under the controller lock and only if no newer search has started,
// so a stale response can never overwrite a newer one. Failures leave commit
// uncalled. run must be called exactly once or the loading flag stays up.
func (c *AnalysisController) StartSearch(
	ctx context.Context,
	query string,
	commit func([]domain.Product),
) (run func() error, err error) {
	if !isSearchable(query, c.minQueryLength) {
		return nil, fmt.Errorf("%w: query %q is shorter than %d characters", domain.ErrInvalidInput, query, c.minQueryLength)
	}

	log := c.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"kind":       KindSearch,
		"query":      query,
	})

	seq, callCtx, cancel := c.acquire(ctx, &c.search)

	return func() (err error) {
		var products []domain.Product

		defer func() {
			cancel()
			current := c.settle(&c.search, seq, func() {
				if err == nil && commit != nil {
					commit(products)
				}
			})
			switch {
			case !current:
				log.Debug("Discarding stale search response")
				err = domain.ErrStaleResponse
			case err != nil && errors.Is(err, context.Canceled):
				log.Debug("Search augmentation cancelled")
			case err != nil:
				log.WithError(err).Warn("Search augmentation failed")
			default:
				log.WithField("results", len(products)).Info("Search augmentation completed")
			}
		}()

		log.Debug("Search augmentation started")
		products, err = c.searchProvider(callCtx, query)
		if err != nil {
			return err
		}
		products = c.dropInvalid(log, products)
		return nil
	}, nil
}

// CancelSearch supersedes any pending search so its late result is discarded,
// and releases the loading flag
func (c *AnalysisController) CancelSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.search.cancel != nil {
		c.search.cancel()
		c.search.cancel = nil
	}
	c.search.seq++
	c.setActive(&c.search, false)
}

// Analyze requests a deep analysis of product and blocks until it settles.
// The returned error wraps one of the domain provider errors, ErrInvalidInput,
// or ErrStaleResponse when a newer analysis started before this one settled.
func (c *AnalysisController) Analyze(ctx context.Context, product domain.Product) (*domain.AnalysisResult, error) {
	run, err := c.StartAnalyze(ctx, product)
	if err != nil {
		return nil, err
	}
	return run()
}

// StartAnalyze registers an analysis as the latest one and returns the
// function that performs the provider call. run must be called exactly once.
func (c *AnalysisController) StartAnalyze(
	ctx context.Context,
	product domain.Product,
) (run func() (*domain.AnalysisResult, error), err error) {
	if product.ID == "" {
		return nil, fmt.Errorf("%w: product has no id", domain.ErrInvalidInput)
	}

	log := c.logger.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"kind":       KindAnalyze,
		"product_id": product.ID,
	})

	seq, callCtx, cancel := c.acquire(ctx, &c.analyze)

	return func() (result *domain.AnalysisResult, err error) {
		defer func() {
			cancel()
			if !c.settle(&c.analyze, seq, nil) {
				log.Debug("Discarding stale analysis response")
				result, err = nil, domain.ErrStaleResponse
				return
			}
			if err != nil {
				log.WithError(err).Warn("Deep analysis failed")
				return
			}
			log.WithFields(logrus.Fields{
				"eco_score": result.EcoScore,
				"sentiment": result.Sentiment,
			}).Info("Deep analysis completed")
		}()

		log.Debug("Deep analysis started")
		return c.analyzeProvider(callCtx, product)
	}, nil
}

// acquire cancels the previous request of f's kind and raises the flag for a new one
func (c *AnalysisController) acquire(parent context.Context, f *flight) (uint64, context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	f.cancel = cancel
	c.setActive(f, true)
	return f.seq, ctx, cancel
}

// settle releases the flag held by request seq and runs commit, both only if
// seq is still the latest request. It reports whether seq was current.
func (c *AnalysisController) settle(f *flight, seq uint64, commit func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f.seq != seq {
		return false
	}
	if commit != nil {
		commit()
	}
	f.cancel = nil
	c.setActive(f, false)
	return true
}

// setActive expects c.mu held
func (c *AnalysisController) setActive(f *flight, active bool) {
	if f.active == active {
		return
	}
	f.active = active
	if c.observer != nil {
		c.observer(f.kind, active)
	}
}

func (c *AnalysisController) searchProvider(ctx context.Context, query string) (products []domain.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			products, err = nil, fmt.Errorf("%w: provider panic: %v", domain.ErrProviderUnavailable, r)
		}
	}()

	products, err = c.provider.SearchProducts(ctx, query)
	if err != nil {
		return nil, classifyProviderError(ctx, err)
	}
	return products, nil
}

func (c *AnalysisController) analyzeProvider(ctx context.Context, product domain.Product) (result *domain.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: provider panic: %v", domain.ErrProviderUnavailable, r)
		}
	}()

	result, err = c.provider.AnalyzeProduct(ctx, product)
	if err != nil {
		return nil, classifyProviderError(ctx, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: empty analysis result", domain.ErrProviderUnavailable)
	}
	if !result.Sentiment.IsValid() {
		return nil, fmt.Errorf("%w: unknown sentiment %q", domain.ErrProviderUnavailable, result.Sentiment)
	}
	return result, nil
}

// dropInvalid removes provider products that break catalog invariants
func (c *AnalysisController) dropInvalid(log logrus.FieldLogger, products []domain.Product) []domain.Product {
	valid := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if err := ValidateProduct(p); err != nil {
			log.WithError(err).WithField("product_id", p.ID).Warn("Dropping invalid product from search results")
			continue
		}
		valid = append(valid, p)
	}
	return valid
}

// classifyProviderError maps provider failures onto the domain error kinds.
// Cancellation is passed through untouched.
func classifyProviderError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrProviderTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrInvalidInput):
		return err
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
}

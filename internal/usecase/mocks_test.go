package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// MockAnalysisProvider is a mock implementation of domain.AnalysisProvider.
// Calls for a query or product id with a registered gate block until the
// gate is closed.
type MockAnalysisProvider struct {
	mu sync.Mutex

	searchResults map[string][]domain.Product
	searchError   error
	searchPanic   bool
	searchGates   map[string]chan struct{}
	searchCalls   []string

	analysisResult *domain.AnalysisResult
	analysisError  error
	analyzePanic   bool
	analyzeGates   map[string]chan struct{}
	analyzeCalls   []string

	// ignoreCancel makes gated calls wait for their gate even after the
	// context is done, to simulate a provider that answers late
	ignoreCancel bool
	// blockUntilDone makes every call wait for its context
	blockUntilDone bool
}

func NewMockAnalysisProvider() *MockAnalysisProvider {
	return &MockAnalysisProvider{
		searchResults: make(map[string][]domain.Product),
		searchGates:   make(map[string]chan struct{}),
		analyzeGates:  make(map[string]chan struct{}),
		analysisResult: &domain.AnalysisResult{
			EcoScore:  85,
			Sentiment: domain.SentimentPositive,
			Insights:  []string{"Eco-friendly materials detected"},
		},
	}
}

func (m *MockAnalysisProvider) gateSearch(query string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.searchGates[query] = gate
	return gate
}

func (m *MockAnalysisProvider) gateAnalyze(productID string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.analyzeGates[productID] = gate
	return gate
}

func (m *MockAnalysisProvider) wait(ctx context.Context, gate chan struct{}) error {
	if m.blockUntilDone {
		<-ctx.Done()
		return ctx.Err()
	}
	if gate == nil {
		return nil
	}
	if m.ignoreCancel {
		<-gate
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockAnalysisProvider) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, query)
	gate := m.searchGates[query]
	results := m.searchResults[query]
	searchErr := m.searchError
	shouldPanic := m.searchPanic
	m.mu.Unlock()

	if err := m.wait(ctx, gate); err != nil {
		return nil, err
	}
	if shouldPanic {
		panic("search exploded")
	}
	if searchErr != nil {
		return nil, searchErr
	}
	return results, nil
}

func (m *MockAnalysisProvider) AnalyzeProduct(ctx context.Context, product domain.Product) (*domain.AnalysisResult, error) {
	m.mu.Lock()
	m.analyzeCalls = append(m.analyzeCalls, product.ID)
	gate := m.analyzeGates[product.ID]
	result := m.analysisResult
	analyzeErr := m.analysisError
	shouldPanic := m.analyzePanic
	m.mu.Unlock()

	if err := m.wait(ctx, gate); err != nil {
		return nil, err
	}
	if shouldPanic {
		panic("analysis exploded")
	}
	if analyzeErr != nil {
		return nil, analyzeErr
	}
	return result, nil
}

func (m *MockAnalysisProvider) SearchCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.searchCalls...)
}

func (m *MockAnalysisProvider) AnalyzeCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.analyzeCalls...)
}

// waitForCalls polls until the provider has seen n calls of a kind
func waitForCalls(t *testing.T, calls func() []string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(calls()) < n {
		if time.Now().After(deadline) {
			t.Fatalf("provider saw %d calls, want %d", len(calls()), n)
		}
		time.Sleep(time.Millisecond)
	}
}

// flagRecorder collects flag transitions in order
type flagRecorder struct {
	mu     sync.Mutex
	events []flagEvent
}

type flagEvent struct {
	kind   RequestKind
	active bool
}

func (r *flagRecorder) observe(kind RequestKind, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, flagEvent{kind: kind, active: active})
}

func (r *flagRecorder) Events() []flagEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]flagEvent(nil), r.events...)
}

func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

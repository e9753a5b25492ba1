package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecofinder/backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) (*Client, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	client := NewClient(Config{
		BaseURL:       baseURL,
		APIKey:        "test-api-key",
		RatePerSecond: 1000,
		Burst:         100,
	}, logger)
	client.backoff = func(int) time.Duration { return time.Millisecond }
	return client, hook
}

func bambooCase() domain.Product {
	return domain.Product{
		ID:                     "2",
		Name:                   "Bamboo Phone Case",
		Category:               domain.CategoryElectronics,
		Price:                  decimal.RequireFromString("24.99"),
		EcoScore:               88,
		Materials:              []string{"Bamboo", "Plant-based Plastic"},
		SustainabilityFeatures: []string{"Biodegradable", "Plastic-free"},
		Rating:                 decimal.RequireFromString("4.6"),
		ReviewCount:            89,
	}
}

func TestNewClient(t *testing.T) {
	logger, _ := test.NewNullLogger()
	client := NewClient(Config{APIKey: "test-api-key", BaseURL: "https://api.example.com/"}, logger)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, defaultMaxRetries, client.maxRetries)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client, _ := newTestClient("https://api.example.com")

	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestDebugLog(t *testing.T) {
	client, hook := newTestClient("https://api.example.com")

	client.debugLog("test message %s", "arg")
	assert.Empty(t, hook.AllEntries())

	client.SetDebug(true)
	client.debugLog("test message %s", "arg")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "test message arg", hook.LastEntry().Message)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestSearchProducts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/products/search", r.URL.Path)
		assert.Equal(t, "bamboo case", r.URL.Query().Get("query"))
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{Products: []domain.Product{bambooCase()}})
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	products, err := client.SearchProducts(context.Background(), "bamboo case")

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "2", products[0].ID)
	assert.True(t, decimal.RequireFromString("24.99").Equal(products[0].Price))
	assert.Equal(t, []string{"Bamboo", "Plant-based Plastic"}, products[0].Materials)
}

func TestSearchProducts_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[]}`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	products, err := client.SearchProducts(context.Background(), "nothing")

	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearchProducts_ServerError_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Products: []domain.Product{bambooCase()}})
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	products, err := client.SearchProducts(context.Background(), "retry-test")

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestSearchProducts_ClientError_NoRetry(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	products, err := client.SearchProducts(context.Background(), "bad-request")

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts)) // 4xx is not retried
}

func TestSearchProducts_TooManyRequests_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Products: []domain.Product{bambooCase()}})
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	products, err := client.SearchProducts(context.Background(), "rate-limit-test")

	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestSearchProducts_AllRetriesFail(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client, hook := newTestClient(server.URL)

	products, err := client.SearchProducts(context.Background(), "all-fail")

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(defaultMaxRetries), atomic.LoadInt32(&attempts))
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestSearchProducts_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	products, err := client.SearchProducts(context.Background(), "invalid-json")

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestSearchProducts_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client, _ := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	products, err := client.SearchProducts(ctx, "timeout-test")

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrProviderTimeout)
}

func TestSearchProducts_ContextCancelled(t *testing.T) {
	client, _ := newTestClient("https://api.example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products, err := client.SearchProducts(ctx, "cancelled")

	assert.Nil(t, products)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchProducts_RequestCreationError(t *testing.T) {
	client, _ := newTestClient("://invalid-url")

	products, err := client.SearchProducts(context.Background(), "test")

	assert.Nil(t, products)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestAnalyzeProduct_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/products/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var product domain.Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&product))
		assert.Equal(t, "2", product.ID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ecoScore":91,"sentiment":"positive","sustainabilityInsights":["Low environmental impact"]}`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	result, err := client.AnalyzeProduct(context.Background(), bambooCase())

	require.NoError(t, err)
	assert.Equal(t, &domain.AnalysisResult{
		EcoScore:  91,
		Sentiment: domain.SentimentPositive,
		Insights:  []string{"Low environmental impact"},
	}, result)
}

func TestAnalyzeProduct_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	result, err := client.AnalyzeProduct(context.Background(), bambooCase())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestAnalyzeProduct_NoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"ecoScore":70,"sentiment":"neutral","sustainabilityInsights":[]}`))
	}))
	defer server.Close()

	logger, _ := test.NewNullLogger()
	client := NewClient(Config{BaseURL: server.URL}, logger)

	result, err := client.AnalyzeProduct(context.Background(), bambooCase())

	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNeutral, result.Sentiment)
}

func TestReadLimitedBody(t *testing.T) {
	t.Run("reads within limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("short content"))
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := readLimitedBody(resp.Body, 1000)
		require.NoError(t, err)
		assert.Equal(t, "short content", string(body))
	})

	t.Run("truncates beyond limit", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for i := 0; i < 100; i++ {
				w.Write([]byte("0123456789"))
			}
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := readLimitedBody(resp.Body, 100)
		require.NoError(t, err)
		assert.Len(t, body, 100)
	})
}

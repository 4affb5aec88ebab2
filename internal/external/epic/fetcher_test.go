package epic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"freegamesbot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(url string) Config {
	return Config{
		PromotionsURL: url,
		Links:         DefaultLinks(),
		HTTPClientConfig: HTTPClientConfig{
			Timeout: 5 * time.Second,
		},
		RetryConfig: RetryConfig{
			MaxRetries:        2,
			InitialDelay:      time.Millisecond,
			MaxDelay:          5 * time.Millisecond,
			BackoffMultiplier: 2,
		},
	}
}

func TestCatalogFetcher_Fetch(t *testing.T) {
	body, err := os.ReadFile("testdata/promotions.json")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer server.Close()

	fetcher := NewFetcher(testConfig(server.URL), zap.NewNop())

	items, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Free Game", items[0].Title)
}

func TestCatalogFetcher_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"Catalog":{"searchStore":{"elements":[]}}}}`))
	}))
	defer server.Close()

	items, err := NewFetcher(testConfig(server.URL), zap.NewNop()).Fetch(context.Background())

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCatalogFetcher_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testConfig(server.URL), zap.NewNop()).Fetch(context.Background())

	var fetchErr *model.FetchError
	require.True(t, errors.As(err, &fetchErr))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCatalogFetcher_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := NewFetcher(testConfig(server.URL), zap.NewNop()).Fetch(context.Background())

	var fetchErr *model.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Equal(t, server.URL, fetchErr.URL)
}

func TestCatalogFetcher_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	cfg := testConfig(url)
	cfg.RetryConfig.MaxRetries = 0

	_, err := NewFetcher(cfg, zap.NewNop()).Fetch(context.Background())

	var fetchErr *model.FetchError
	assert.True(t, errors.As(err, &fetchErr))
}

package epic

import (
	"context"
	"errors"
	"net/http"

	"freegamesbot/internal/model"

	"go.uber.org/zap"
)

// Fetcher получает текущие бесплатные раздачи
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.FreeItem, error)
}

// CatalogFetcher получает каталог раздач по HTTP
type CatalogFetcher struct {
	client *HTTPClient
	config Config
	logger *zap.Logger
}

var _ Fetcher = (*CatalogFetcher)(nil)

// NewFetcher создает новый CatalogFetcher
func NewFetcher(config Config, logger *zap.Logger) *CatalogFetcher {
	if config.PromotionsURL == "" {
		config.PromotionsURL = DefaultPromotionsURL
	}

	return &CatalogFetcher{
		client: NewHTTPClient(config.HTTPClientConfig, logger),
		config: config,
		logger: logger,
	}
}

// Fetch запрашивает каталог и возвращает бесплатные раздачи.
// Сетевые ошибки и ошибки разбора возвращаются как *model.FetchError.
func (f *CatalogFetcher) Fetch(ctx context.Context) ([]model.FreeItem, error) {
	var body []byte

	err := WithRetry(ctx, f.logger, f.config.RetryConfig, func() error {
		data, err := f.client.GetJSON(ctx, f.config.PromotionsURL)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError &&
				statusErr.StatusCode != http.StatusTooManyRequests {
				return Permanent(err)
			}
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, &model.FetchError{URL: f.config.PromotionsURL, Err: err}
	}

	items, itemErrs, err := ParseCatalog(body, f.config.Links)
	if err != nil {
		return nil, &model.FetchError{URL: f.config.PromotionsURL, Err: err}
	}

	for _, itemErr := range itemErrs {
		f.logger.Warn("Skipping malformed catalog element", zap.Error(itemErr))
	}

	if len(items) == 0 {
		f.logger.Info("No free games found in the storefront response")
	} else {
		f.logger.Info("Fetched free games", zap.Int("count", len(items)))
	}

	return items, nil
}

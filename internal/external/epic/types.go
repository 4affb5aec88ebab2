package epic

import (
	"strings"
	"time"
)

// Адреса магазина по умолчанию
const (
	DefaultPromotionsURL = "https://store-site-backend-static.ak.epicgames.com/freeGamesPromotions"
	DefaultStoreBaseURL  = "https://www.epicgames.com"
	DefaultLocale        = "en-US"
)

// Config представляет конфигурацию получения каталога
type Config struct {
	PromotionsURL    string
	Links            Links
	HTTPClientConfig HTTPClientConfig
	RetryConfig      RetryConfig
}

// HTTPClientConfig представляет конфигурацию HTTP клиента
type HTTPClientConfig struct {
	Timeout               time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	DisableKeepAlives     bool
	MaxBodyBytes          int64
}

// RetryConfig представляет конфигурацию retry механизма
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// Links строит ссылки на страницы магазина
type Links struct {
	BaseURL string
	Locale  string
}

// DefaultLinks возвращает ссылки на публичный магазин
func DefaultLinks() Links {
	return Links{BaseURL: DefaultStoreBaseURL, Locale: DefaultLocale}
}

// StoreURL возвращает корень магазина
func (l Links) StoreURL() string {
	return l.base() + "/store/" + l.locale() + "/"
}

// ProductURL возвращает ссылку на страницу товара
func (l Links) ProductURL(slug string) string {
	return l.StoreURL() + "p/" + strings.TrimPrefix(slug, "/")
}

func (l Links) base() string {
	if l.BaseURL == "" {
		return DefaultStoreBaseURL
	}
	return strings.TrimSuffix(l.BaseURL, "/")
}

func (l Links) locale() string {
	if l.Locale == "" {
		return DefaultLocale
	}
	return l.Locale
}

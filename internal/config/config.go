// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/feedbridge/internal/model"
)

// ChannelConfig holds the per-channel knobs of a downstream feed.
type ChannelConfig struct {
	// FeedURL is the upstream catalog feed endpoint for this channel.
	FeedURL string `validate:"required,url"`
	// FeedSecret authenticates the feed fetch as a query-string parameter.
	FeedSecret string `validate:"required"`
	// WasNowPricing enables the was/now display mode: the compare-at price
	// becomes the primary price and the live price becomes the sale price.
	WasNowPricing bool
	// PriceSource selects where the compare-at price is read from during
	// catalog synchronization.
	PriceSource model.PriceSource `validate:"oneof=compare_at grams"`
}

// Config holds configuration knobs for the HTTP server and the pipeline.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	UpstreamTimeout time.Duration

	// ShopName is the retailer identifier on the commerce platform.
	ShopName string `validate:"required"`
	// ShopifyToken is the static access token for the product listing API.
	ShopifyToken string `validate:"required"`
	// ShopifyBaseURL overrides the derived https://{shop}.myshopify.com base.
	ShopifyBaseURL string
	APIVersion     string
	PageSize       int `validate:"gt=0,lte=250"`
	// MaxPages bounds pagination so a misbehaving link header cannot loop
	// the fetch forever.
	MaxPages int `validate:"gt=0"`

	// PlaceholderDomain is the storefront domain upstream feeds link to;
	// it is rewritten to ProductionDomain in every emitted item.
	PlaceholderDomain string `validate:"required"`
	ProductionDomain  string `validate:"required"`
	// TrackingParam is appended to every rewritten link, e.g. "utm_source=feed".
	TrackingParam string
	// Currency is the ISO code suffixed onto emitted price fields.
	Currency string `validate:"required,len=3"`

	Social ChannelConfig
	Search ChannelConfig
}

// Channel returns the configuration block for ch.
func (c Config) Channel(ch model.Channel) (ChannelConfig, bool) {
	switch ch {
	case model.ChannelSocial:
		return c.Social, true
	case model.ChannelSearch:
		return c.Search, true
	}
	return ChannelConfig{}, false
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func channelenv(prefix string) ChannelConfig {
	return ChannelConfig{
		FeedURL:       getenv(prefix+"_FEED_URL", ""),
		FeedSecret:    getenv(prefix+"_FEED_SECRET", ""),
		WasNowPricing: boolenv(prefix+"_WAS_NOW_PRICING", false),
		PriceSource:   model.PriceSource(getenv(prefix+"_PRICE_SOURCE", string(model.PriceSourceCompareAt))),
	}
}

// Load collects configuration from environment with defaults and validates
// the result. Missing credentials or feed endpoints are load-time errors.
func Load() (Config, error) {
	shop := getenv("SHOP_NAME", "")
	cfg := Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),
		UpstreamTimeout: durenvs("UPSTREAM_TIMEOUT", 30),

		ShopName:       shop,
		ShopifyToken:   getenv("SHOPIFY_TOKEN", ""),
		ShopifyBaseURL: getenv("SHOPIFY_BASE_URL", ""),
		APIVersion:     getenv("SHOPIFY_API_VERSION", "2024-01"),
		PageSize:       atoienv("PAGE_SIZE", 250),
		MaxPages:       atoienv("MAX_PAGES", 200),

		PlaceholderDomain: getenv("PLACEHOLDER_DOMAIN", shop+".myshopify.com"),
		ProductionDomain:  getenv("PRODUCTION_DOMAIN", ""),
		TrackingParam:     getenv("TRACKING_PARAM", "utm_source=feedbridge"),
		Currency:          getenv("CURRENCY", "GBP"),

		Social: channelenv("SOCIAL"),
		Search: channelenv("SEARCH"),
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

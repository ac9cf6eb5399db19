// Package model defines domain types used by the service.
package model

import "github.com/shopspring/decimal"

// Status is the commerce platform's product status.
type Status string

// StatusActive marks a product as sellable. Every other status value is
// treated as inactive.
const StatusActive Status = "active"

// Channel identifies a downstream advertising feed.
type Channel string

const (
	// ChannelSocial is the social-commerce shopping feed.
	ChannelSocial Channel = "social"
	// ChannelSearch is the search-shopping feed.
	ChannelSearch Channel = "search"
)

// ParseChannel maps a channel name to a known Channel.
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelSocial:
		return ChannelSocial, true
	case ChannelSearch:
		return ChannelSearch, true
	}
	return "", false
}

// PriceSource selects where a product's compare-at price is read from.
type PriceSource string

const (
	// PriceSourceCompareAt reads the platform's native compare-at-price field.
	PriceSourceCompareAt PriceSource = "compare_at"
	// PriceSourceGrams reads the variant weight field, which one channel
	// repurposes to carry a recommended retail price in minor currency units.
	// The platform has no dedicated RRP field; this is the workaround.
	PriceSourceGrams PriceSource = "grams"
)

// Product is one authoritative sellable unit flattened out of the commerce
// platform's catalog. A multi-variant product yields one Product per variant
// keyed by variant id; a single-variant product yields one Product keyed by
// the parent product id.
type Product struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Status         Status           `json:"status"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Inventory      int              `json:"inventory"`
}

// Sellable reports whether the product may appear in an advertising feed.
func (p Product) Sellable() bool {
	return p.Status == StatusActive && p.Inventory >= 1
}

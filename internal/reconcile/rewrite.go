package reconcile

import (
	"strings"

	"github.com/fairyhunter13/feedbridge/internal/feed"
	"github.com/fairyhunter13/feedbridge/internal/model"
)

// rewriteItem mutates one surviving feed item in place: authoritative
// prices, link rewriting, and the channel-specific identifier rules.
func (r *Reconciler) rewriteItem(it *feed.Item, ch model.Channel, q quote) {
	it.Price = q.price.StringFixed(2) + " " + r.cfg.Currency
	if q.sale != nil {
		it.SalePrice = q.sale.StringFixed(2) + " " + r.cfg.Currency
	} else {
		// A leftover upstream sale price must not survive the rewrite.
		it.SalePrice = ""
	}

	// Shipping fields are channel artifacts, never emitted. The weight field
	// doubles as the RRP carrier, so it is stripped even when unused.
	it.ShippingWeight = ""
	it.Shipping = ""

	it.Link = r.rewriteLink(it.Link)

	if ch != model.ChannelSearch {
		return
	}
	if !machineMade(it.ProductType) {
		it.GTIN = ""
		it.MPN = ""
		it.IdentifierExists = "false"
	} else if _, variant, ok := splitID(it.ID); ok {
		it.Link = appendQuery(it.Link, "variant="+variant)
	}
}

// rewriteLink swaps the placeholder storefront domain for the production
// domain and appends the tracking parameter.
func (r *Reconciler) rewriteLink(link string) string {
	if link == "" {
		return link
	}
	if r.cfg.PlaceholderDomain != "" {
		link = strings.Replace(link, r.cfg.PlaceholderDomain, r.cfg.ProductionDomain, 1)
	}
	if r.cfg.TrackingParam != "" {
		link = appendQuery(link, r.cfg.TrackingParam)
	}
	return link
}

func appendQuery(link, param string) string {
	if strings.Contains(link, "?") {
		return link + "&" + param
	}
	return link + "?" + param
}

// machineMade reports whether the declared product type indicates machine
// manufacture; only those items keep their GTIN/MPN identifiers in the
// search-shopping feed.
func machineMade(productType string) bool {
	return strings.Contains(strings.ToLower(productType), "machine")
}

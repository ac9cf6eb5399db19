package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/feedbridge/internal/model"
)

// index maps authoritative record ids to records for the join.
type index map[string]model.Product

func buildIndex(products []model.Product) index {
	ix := make(index, len(products))
	for _, p := range products {
		ix[p.ID] = p
	}
	return ix
}

// splitID splits a composite "{alt}-{variant}" feed item id on its last
// separator, so alt ids containing dashes still parse.
func splitID(id string) (alt, variant string, ok bool) {
	i := strings.LastIndex(id, "-")
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

// resolve locates the authoritative record for a feed item id. A bare id is
// looked up directly. A composite id tries the variant id first, then falls
// back to the alt id; the fallback covers products with configurable options
// but only one live variant, where flattening aliased the record to the
// parent product id yet the feed still emits a composite id.
func (ix index) resolve(id string) (model.Product, bool) {
	if p, ok := ix[id]; ok {
		return p, true
	}
	alt, variant, ok := splitID(id)
	if !ok {
		return model.Product{}, false
	}
	if p, ok := ix[variant]; ok {
		return p, true
	}
	if p, ok := ix[alt]; ok {
		return p, true
	}
	return model.Product{}, false
}

// quote is the pricing decision for one surviving item.
type quote struct {
	price decimal.Decimal
	sale  *decimal.Decimal
}

// resolvePrices applies the channel pricing policy. Inactive or out-of-stock
// products are ineligible and must not be emitted at all. With was/now
// pricing on and a compare-at price present, the compare-at value takes the
// primary price slot and the live price becomes the sale price.
func resolvePrices(p model.Product, wasNow bool) (quote, bool) {
	if !p.Sellable() {
		return quote{}, false
	}
	if wasNow && p.CompareAtPrice != nil {
		return quote{price: *p.CompareAtPrice, sale: &p.Price}, true
	}
	return quote{price: p.Price}, true
}

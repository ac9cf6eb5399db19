// Package reconcile joins the authoritative catalog against a channel feed
// and rewrites the feed so no unverified pricing is ever published.
package reconcile

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/feedbridge/internal/config"
	"github.com/fairyhunter13/feedbridge/internal/feed"
	"github.com/fairyhunter13/feedbridge/internal/model"
	"github.com/fairyhunter13/feedbridge/internal/obs"
)

// CatalogSource yields the flattened authoritative product set.
type CatalogSource interface {
	FetchAll(ctx context.Context, src model.PriceSource) ([]model.Product, error)
}

// FeedSource yields a channel's upstream feed document.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL, secret string) (*feed.Document, error)
}

// Reconciler builds corrected feeds. All state is per-request; the struct
// itself only holds configuration and upstream clients.
type Reconciler struct {
	cfg     config.Config
	catalog CatalogSource
	feeds   FeedSource
}

// New wires a Reconciler to its two upstreams.
func New(cfg config.Config, catalog CatalogSource, feeds FeedSource) *Reconciler {
	return &Reconciler{cfg: cfg, catalog: catalog, feeds: feeds}
}

// Catalog fetches the flattened authoritative product set using the baseline
// compare-at price source. Serves the raw catalog inspection endpoint.
func (r *Reconciler) Catalog(ctx context.Context) ([]model.Product, error) {
	return r.catalog.FetchAll(ctx, model.PriceSourceCompareAt)
}

// BuildFeed fetches the channel feed and the catalog, joins them, mutates
// the surviving items and re-serializes the document. The two upstream
// fetches are independent and run concurrently; either failure fails the
// whole build.
func (r *Reconciler) BuildFeed(ctx context.Context, ch model.Channel) ([]byte, error) {
	chCfg, ok := r.cfg.Channel(ch)
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", ch)
	}

	var (
		products []model.Product
		doc      *feed.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = r.catalog.FetchAll(gctx, chCfg.PriceSource)
		return err
	})
	g.Go(func() error {
		var err error
		doc, err = r.feeds.Fetch(gctx, chCfg.FeedURL, chCfg.FeedSecret)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix := buildIndex(products)
	// Two passes: decide per item, then rebuild the collection. Items are
	// never removed from the slice being iterated.
	kept := make([]feed.Item, 0, len(doc.Channel.Items))
	dropped := 0
	for i := range doc.Channel.Items {
		it := doc.Channel.Items[i]
		p, ok := ix.resolve(it.ID)
		if !ok {
			obs.Logger.Debug("feed_item_stale", "channel", ch, "item_id", it.ID)
			dropped++
			continue
		}
		q, eligible := resolvePrices(p, chCfg.WasNowPricing)
		if !eligible {
			obs.Logger.Debug("feed_item_ineligible",
				"channel", ch, "item_id", it.ID, "status", p.Status, "inventory", p.Inventory)
			dropped++
			continue
		}
		r.rewriteItem(&it, ch, q)
		kept = append(kept, it)
	}
	doc.Channel.Items = kept

	obs.Logger.Info("feed_built", "channel", ch, "items", len(kept), "dropped", dropped)
	return feed.Serialize(doc)
}

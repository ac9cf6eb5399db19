package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/feedbridge/internal/apperr"
	"github.com/fairyhunter13/feedbridge/internal/config"
	"github.com/fairyhunter13/feedbridge/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.Config{
		ShopifyBaseURL:  srv.URL,
		ShopifyToken:    "test-token",
		APIVersion:      "2024-01",
		PageSize:        2,
		MaxPages:        10,
		UpstreamTimeout: 5 * time.Second,
	})
}

func singleVariantProduct(id int64, price string, inventory int) string {
	return fmt.Sprintf(`{"id":%d,"title":"p%d","status":"active","variants":[{"id":%d,"price":%q,"inventory_quantity":%d}]}`,
		id, id, id*1000, price, inventory)
}

func TestFetchAllPagination(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch calls {
		case 1:
			if got := r.URL.Query().Get("page_info"); got != "" {
				t.Errorf("first page must not carry page_info, got %q", got)
			}
			w.Header().Set("Link", `</admin/api/2024-01/products.json?limit=2&page_info=tok2>; rel="next"`)
			fmt.Fprintf(w, `{"products":[%s,%s]}`, singleVariantProduct(1, "1.00", 1), singleVariantProduct(2, "2.00", 1))
		case 2:
			if got := r.URL.Query().Get("page_info"); got != "tok2" {
				t.Errorf("expected page_info tok2, got %q", got)
			}
			w.Header().Set("Link", `</admin/api/2024-01/products.json?limit=2&page_info=tok2>; rel="previous", </admin/api/2024-01/products.json?limit=2&page_info=tok3>; rel="next"`)
			fmt.Fprintf(w, `{"products":[%s,%s]}`, singleVariantProduct(3, "3.00", 1), singleVariantProduct(4, "4.00", 1))
		case 3:
			if got := r.URL.Query().Get("page_info"); got != "tok3" {
				t.Errorf("expected page_info tok3, got %q", got)
			}
			// No rel="next": pagination must stop here.
			w.Header().Set("Link", `</admin/api/2024-01/products.json?limit=2&page_info=tok2>; rel="previous"`)
			fmt.Fprintf(w, `{"products":[%s]}`, singleVariantProduct(5, "5.00", 1))
		default:
			t.Errorf("unexpected extra request %d", calls)
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	got, err := c.FetchAll(context.Background(), model.PriceSourceCompareAt)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 fetches, got %d", calls)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 records, got %d", len(got))
	}
	for i, want := range []string{"1", "2", "3", "4", "5"} {
		if got[i].ID != want {
			t.Fatalf("record %d: expected id %s, got %s", i, want, got[i].ID)
		}
	}
}

func TestFetchAllStopsWithoutPageInfo(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		// rel="next" present but no parsable page_info token: halt.
		w.Header().Set("Link", `</admin/api/2024-01/products.json?limit=2>; rel="next"`)
		fmt.Fprintf(w, `{"products":[%s]}`, singleVariantProduct(1, "1.00", 1))
	})
	got, err := c.FetchAll(context.Background(), model.PriceSourceCompareAt)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 1 || len(got) != 1 {
		t.Fatalf("expected single page, got calls=%d records=%d", calls, len(got))
	}
}

func TestFetchAllMaxPagesGuard(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", fmt.Sprintf(`</admin/api/2024-01/products.json?limit=2&page_info=tok%d>; rel="next"`, calls+1))
		fmt.Fprintf(w, `{"products":[%s]}`, singleVariantProduct(int64(calls), "1.00", 1))
	}))
	defer srv.Close()
	c := NewClient(config.Config{
		ShopifyBaseURL:  srv.URL,
		ShopifyToken:    "t",
		APIVersion:      "2024-01",
		PageSize:        2,
		MaxPages:        3,
		UpstreamTimeout: 5 * time.Second,
	})
	_, err := c.FetchAll(context.Background(), model.PriceSourceCompareAt)
	if err == nil {
		t.Fatalf("expected error once max pages exceeded")
	}
	if calls != 3 {
		t.Fatalf("expected 3 fetches before the guard fires, got %d", calls)
	}
}

func TestFetchAllSendsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "test-token" {
			t.Errorf("expected access token header, got %q", got)
		}
		fmt.Fprint(w, `{"products":[]}`)
	})
	if _, err := c.FetchAll(context.Background(), model.PriceSourceCompareAt); err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

func TestFetchAllTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchAll(context.Background(), model.PriceSourceCompareAt)
	if err == nil {
		t.Fatalf("expected error")
	}
	if ae, ok := apperr.As(err); !ok || ae.Kind != apperr.Transport {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestFetchAllParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products": not-json`)
	})
	_, err := c.FetchAll(context.Background(), model.PriceSourceCompareAt)
	if err == nil {
		t.Fatalf("expected error")
	}
	if ae, ok := apperr.As(err); !ok || ae.Kind != apperr.Parse {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestFlattenSingleVariantAliasesProductID(t *testing.T) {
	p := listProduct{
		ID: 42, Title: "Cardigan", Status: "active",
		Variants: []listVariant{{ID: 9000, Price: "30.00", InventoryQuantity: 4}},
	}
	recs, err := flatten(p, model.PriceSourceCompareAt)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "42" {
		t.Fatalf("single-variant product must be keyed by product id: %+v", recs)
	}
	if recs[0].Inventory != 4 || !recs[0].Price.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
}

func TestFlattenMultiVariantUsesVariantIDs(t *testing.T) {
	p := listProduct{
		ID: 7, Title: "Jumper", Status: "active",
		Variants: []listVariant{
			{ID: 55, Price: "20.00", InventoryQuantity: 1},
			{ID: 56, Price: "22.00", InventoryQuantity: 2},
		},
	}
	recs, err := flatten(p, model.PriceSourceCompareAt)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "55" || recs[1].ID != "56" {
		t.Fatalf("multi-variant product must be keyed by variant ids: %+v", recs)
	}
}

func TestFlattenNoVariants(t *testing.T) {
	recs, err := flatten(listProduct{ID: 1, Status: "active"}, model.PriceSourceCompareAt)
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected no records, got %v %v", recs, err)
	}
}

func TestCompareAtFromNativeField(t *testing.T) {
	ca := "100.00"
	p := listProduct{ID: 1, Status: "active", Variants: []listVariant{{ID: 2, Price: "80.00", CompareAtPrice: &ca, InventoryQuantity: 1}}}
	recs, err := flatten(p, model.PriceSourceCompareAt)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if recs[0].CompareAtPrice == nil || !recs[0].CompareAtPrice.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected compare-at 100.00, got %+v", recs[0].CompareAtPrice)
	}
}

func TestCompareAtFromGrams(t *testing.T) {
	p := listProduct{ID: 1, Status: "active", Variants: []listVariant{{ID: 2, Price: "15.00", Grams: 1999, InventoryQuantity: 1}}}
	recs, err := flatten(p, model.PriceSourceGrams)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if recs[0].CompareAtPrice == nil || !recs[0].CompareAtPrice.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("expected smuggled RRP 19.99, got %+v", recs[0].CompareAtPrice)
	}
}

func TestCompareAtGramsZeroMeansAbsent(t *testing.T) {
	p := listProduct{ID: 1, Status: "active", Variants: []listVariant{{ID: 2, Price: "15.00", Grams: 0, InventoryQuantity: 1}}}
	recs, err := flatten(p, model.PriceSourceGrams)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if recs[0].CompareAtPrice != nil {
		t.Fatalf("zero grams must not produce a compare-at price")
	}
}

func TestFlattenBadPrice(t *testing.T) {
	p := listProduct{ID: 1, Status: "active", Variants: []listVariant{{ID: 2, Price: "not-a-price"}}}
	_, err := flatten(p, model.PriceSourceCompareAt)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if ae, ok := apperr.As(err); !ok || ae.Kind != apperr.Parse {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNextPageInfo(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{`</admin/api/2024-01/products.json?limit=2&page_info=abc>; rel="next"`, "abc"},
		{`</x?page_info=prev>; rel="previous", </x?page_info=nxt>; rel="next"`, "nxt"},
		{`</x?page_info=prev>; rel="previous"`, ""},
		{`</x?limit=2>; rel="next"`, ""},
		{``, ""},
	}
	for _, c := range cases {
		if got := nextPageInfo(c.link); got != c.want {
			t.Fatalf("nextPageInfo(%q) = %q, want %q", c.link, got, c.want)
		}
	}
}

// Package shopify synchronizes the authoritative product catalog from the
// commerce platform's paginated product listing API.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/feedbridge/internal/apperr"
	"github.com/fairyhunter13/feedbridge/internal/config"
	"github.com/fairyhunter13/feedbridge/internal/model"
	"github.com/fairyhunter13/feedbridge/internal/obs"
)

const opListProducts = "shopify.list_products"

// Client fetches and flattens the product catalog. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	pageSize   int
	maxPages   int
	httpc      *http.Client
}

// NewClient builds a Client from configuration. The base URL is derived from
// the shop name unless explicitly overridden.
func NewClient(cfg config.Config) *Client {
	base := cfg.ShopifyBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.myshopify.com", cfg.ShopName)
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      cfg.ShopifyToken,
		apiVersion: cfg.APIVersion,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		httpc:      &http.Client{Timeout: cfg.UpstreamTimeout},
	}
}

// Wire types of the product listing API. Only the fields the pipeline reads.

type listResponse struct {
	Products []listProduct `json:"products"`
}

type listProduct struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Status   string        `json:"status"`
	Variants []listVariant `json:"variants"`
}

type listVariant struct {
	ID                int64   `json:"id"`
	Price             string  `json:"price"`
	CompareAtPrice    *string `json:"compare_at_price"`
	InventoryQuantity int     `json:"inventory_quantity"`
	Grams             int64   `json:"grams"`
}

// FetchAll walks the catalog page by page and returns one record per sellable
// unit. Any transport or parse error aborts the whole fetch; no partial
// results are returned.
func (c *Client) FetchAll(ctx context.Context, src model.PriceSource) ([]model.Product, error) {
	var out []model.Product
	pageInfo := ""
	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, apperr.TransportErr(opListProducts, fmt.Errorf("pagination exceeded %d pages", c.maxPages))
		}
		lr, next, err := c.fetchPage(ctx, pageInfo)
		if err != nil {
			return nil, err
		}
		for _, p := range lr.Products {
			recs, err := flatten(p, src)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
		}
		if next == "" {
			break
		}
		pageInfo = next
	}
	obs.Logger.Debug("catalog_synced", "records", len(out))
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, pageInfo string) (listResponse, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	if pageInfo == "" {
		q.Set("fields", "id,title,status,variants")
	} else {
		// Cursor requests accept only limit and page_info.
		q.Set("page_info", pageInfo)
	}
	endpoint := fmt.Sprintf("%s/admin/api/%s/products.json?%s", c.baseURL, c.apiVersion, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return listResponse{}, "", apperr.TransportErr(opListProducts, err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return listResponse{}, "", apperr.TransportErr(opListProducts, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return listResponse{}, "", apperr.TransportErr(opListProducts, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return listResponse{}, "", apperr.ParseErr(opListProducts, err)
	}
	return lr, nextPageInfo(resp.Header.Get("Link")), nil
}

// nextPageInfo extracts the continuation token from a Link response header.
// A further page exists only when the header carries a rel="next" part and
// that part yields a parsable page_info token.
func nextPageInfo(link string) string {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end < start {
			return ""
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			return ""
		}
		return u.Query().Get("page_info")
	}
	return ""
}

// flatten turns one upstream product into authoritative records. Products
// with several purchasable variants emit one record per variant keyed by
// variant id; a single-variant product emits one record keyed by the parent
// product id. Downstream id resolution depends on that aliasing.
func flatten(p listProduct, src model.PriceSource) ([]model.Product, error) {
	switch len(p.Variants) {
	case 0:
		return nil, nil
	case 1:
		rec, err := record(strconv.FormatInt(p.ID, 10), p, p.Variants[0], src)
		if err != nil {
			return nil, err
		}
		return []model.Product{rec}, nil
	}
	out := make([]model.Product, 0, len(p.Variants))
	for _, v := range p.Variants {
		rec, err := record(strconv.FormatInt(v.ID, 10), p, v, src)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func record(id string, p listProduct, v listVariant, src model.PriceSource) (model.Product, error) {
	price, err := decimal.NewFromString(v.Price)
	if err != nil {
		return model.Product{}, apperr.ParseErr(opListProducts, fmt.Errorf("product %d: bad price %q: %w", p.ID, v.Price, err))
	}
	rec := model.Product{
		ID:        id,
		Title:     p.Title,
		Status:    model.Status(p.Status),
		Price:     price,
		Inventory: v.InventoryQuantity,
	}
	switch src {
	case model.PriceSourceGrams:
		// The weight field smuggles an RRP in minor currency units.
		if v.Grams > 0 {
			d := decimal.New(v.Grams, -2)
			rec.CompareAtPrice = &d
		}
	default:
		if v.CompareAtPrice != nil && *v.CompareAtPrice != "" {
			d, err := decimal.NewFromString(*v.CompareAtPrice)
			if err != nil {
				return model.Product{}, apperr.ParseErr(opListProducts, fmt.Errorf("product %d: bad compare_at_price %q: %w", p.ID, *v.CompareAtPrice, err))
			}
			rec.CompareAtPrice = &d
		}
	}
	return rec, nil
}

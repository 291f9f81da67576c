package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"limitedseller/lib/platforms/market/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("platforms/market/inventory")

// CollectiblesAssetType is the inventory category holding limiteds.
const CollectiblesAssetType = 13

// Item is a qualifying record of the inventory.
type Item struct {
	AssetId         int64
	Name            string
	IsLimited       bool
	IsLimitedUnique bool
}

// StatusError is a non-success response to a page request.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inventory page: status=%d body=%q", e.Status, e.Body)
}

// PaginationError reports the page on which Fetch stopped early, the items
// returned alongside it are still valid.
type PaginationError struct {
	// 0-based index of the page that failed
	Page int
	Err  error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("inventory pagination stopped at page %d: %s", e.Page, e.Err)
}

func (e *PaginationError) Unwrap() error {
	return e.Err
}

type Client struct {
	core *core.Client
}

func NewClient(c *core.Client) *Client {
	return &Client{core: c}
}

func (c *Client) FetchPage(ctx context.Context, cursor string) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:FetchPage")
	defer span.End()

	session := c.core.Session()
	if session.UserId == 0 {
		span.SetStatus(codes.Error, "client is not authenticated")
		return Page{}, fmt.Errorf("inventory: client is not authenticated")
	}

	params := map[string]string{
		"limit":     strconv.Itoa(PageSize),
		"sortOrder": "Asc",
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	res, err := c.core.Http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(fmt.Sprintf(
			"%s/v2/users/%d/inventory/%d",
			c.core.Endpoints.Inventory,
			session.UserId,
			CollectiblesAssetType,
		))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return Page{}, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "non-success status")
		return Page{}, &StatusError{Status: res.StatusCode(), Body: limitBody(res.Body())}
	}

	var page Page
	err = json.Unmarshal(res.Body(), &page)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode page")
		return Page{}, fmt.Errorf("decode inventory page: %w", err)
	}
	span.SetAttributes(
		attribute.Int("records", len(page.Data)),
		attribute.Bool("has_next", page.NextPageCursor != ""),
	)

	return page, nil
}

// Fetch returns every qualifying item of the authenticated user in page
// order.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	return Fetch(ctx, c)
}

// Fetch drains `source` and keeps the qualifying records. When a page fails
// the items collected so far are returned together with a *PaginationError.
func Fetch(ctx context.Context, source PageSource) ([]Item, error) {
	var items []Item
	pager := NewPager(source)

	for !pager.Done() {
		page, err := pager.Next(ctx)
		if err != nil {
			return items, &PaginationError{Page: pager.Pages(), Err: err}
		}
		for _, record := range page.Data {
			if !record.Qualifies() {
				continue
			}
			items = append(items, Item{
				AssetId:         record.AssetId,
				Name:            record.Name,
				IsLimited:       record.AssetDetails.IsLimited,
				IsLimitedUnique: record.AssetDetails.IsLimitedUnique,
			})
		}
	}

	return items, nil
}

func limitBody(b []byte) string {
	const limit = 8 << 10
	if len(b) > limit {
		b = b[:limit]
	}
	return string(b)
}

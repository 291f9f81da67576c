package economy

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
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("platforms/market/economy")

// ResellerLimit is how many competing listings are requested, the remote
// sorts them ascending by price.
const ResellerLimit = 10

type Client struct {
	core *core.Client
}

func NewClient(c *core.Client) *Client {
	return &Client{core: c}
}

type reseller struct {
	Price int64 `json:"price"`
}

type resellersResponse struct {
	Data []reseller `json:"data"`
}

// LowestAsk returns the cheapest competing listing of an asset. A non-success
// response or an empty result is reported as ok=false with no error, only
// transport failures return an error.
func (c *Client) LowestAsk(ctx context.Context, assetId int64) (price int64, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "client:LowestAsk", trace.WithAttributes(
		attribute.Int64("asset_id", assetId),
	))
	defer span.End()

	res, err := c.core.Http.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(ResellerLimit)).
		Get(fmt.Sprintf("%s/v2/assets/%d/resellers", c.core.Endpoints.Economy, assetId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch resellers")
		return 0, false, err
	}
	if res.StatusCode() != http.StatusOK {
		span.AddEvent("no market data", trace.WithAttributes(attribute.Int("status", res.StatusCode())))
		return 0, false, nil
	}

	var out resellersResponse
	err = json.Unmarshal(res.Body(), &out)
	if err != nil || len(out.Data) == 0 {
		span.AddEvent("no market data")
		return 0, false, nil
	}
	// a zero price is not a usable ask
	if out.Data[0].Price <= 0 {
		return 0, false, nil
	}

	span.SetAttributes(attribute.Int64("lowest_ask", out.Data[0].Price))
	return out.Data[0].Price, true, nil
}

type Copy struct {
	UserAssetId  int64 `json:"userAssetId"`
	SerialNumber int64 `json:"serialNumber"`
}

type copiesResponse struct {
	Data []Copy `json:"data"`
}

type Reason string

const (
	ReasonResolveFailed    Reason = "resolve_failed"
	ReasonNoResellableCopy Reason = "no_resellable_copy"
	ReasonRemoteRejected   Reason = "remote_rejected"
)

// ListingError is a failed listing attempt that reached the remote service.
type ListingError struct {
	Reason Reason
	// http status of the failing response, 0 when not applicable
	Status int
}

func (e *ListingError) Error() string {
	switch e.Reason {
	case ReasonNoResellableCopy:
		return "no resellable copies found"
	case ReasonResolveFailed:
		return fmt.Sprintf("failed to get user asset (status %d)", e.Status)
	default:
		return fmt.Sprintf("listing rejected (status %d)", e.Status)
	}
}

// ResellableCopies returns the owned copies of an asset that can be put on
// sale by the authenticated user.
func (c *Client) ResellableCopies(ctx context.Context, assetId int64) ([]Copy, error) {
	ctx, span := tracer.Start(ctx, "client:ResellableCopies", trace.WithAttributes(
		attribute.Int64("asset_id", assetId),
	))
	defer span.End()

	res, err := c.core.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/v1/assets/%d/resellable-copies", c.core.Endpoints.Economy, assetId))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch resellable copies")
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "non-success status")
		return nil, &ListingError{Reason: ReasonResolveFailed, Status: res.StatusCode()}
	}

	var out copiesResponse
	err = json.Unmarshal(res.Body(), &out)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode resellable copies")
		return nil, fmt.Errorf("decode resellable copies: %w", err)
	}
	return out.Data, nil
}

type setPriceRequest struct {
	Price int64 `json:"price"`
}

// SetPrice puts one owned copy on sale at `price`. Repeated calls each count
// as a separate price update on the remote.
func (c *Client) SetPrice(ctx context.Context, assetId, userAssetId, price int64) error {
	ctx, span := tracer.Start(ctx, "client:SetPrice", trace.WithAttributes(
		attribute.Int64("asset_id", assetId),
		attribute.Int64("user_asset_id", userAssetId),
		attribute.Int64("price", price),
	))
	defer span.End()

	res, err := c.core.Http.R().
		SetContext(ctx).
		SetBody(setPriceRequest{Price: price}).
		Patch(fmt.Sprintf(
			"%s/v1/assets/%d/resellable-copies/%d",
			c.core.Endpoints.Economy, assetId, userAssetId,
		))
	if err != nil {
		span.SetStatus(codes.Error, "failed to patch resellable copy")
		return err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "listing rejected")
		return &ListingError{Reason: ReasonRemoteRejected, Status: res.StatusCode()}
	}
	return nil
}

// List resolves the first resellable copy of an asset and puts it on sale.
func (c *Client) List(ctx context.Context, assetId, price int64) error {
	copies, err := c.ResellableCopies(ctx, assetId)
	if err != nil {
		return err
	}
	if len(copies) == 0 {
		return &ListingError{Reason: ReasonNoResellableCopy}
	}
	return c.SetPrice(ctx, assetId, copies[0].UserAssetId, price)
}

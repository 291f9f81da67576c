package pipeline

import (
	"context"
	"errors"

	"limitedseller/lib/platforms/market/economy"
	"limitedseller/lib/platforms/market/inventory"
)

type InventoryFetcher interface {
	Fetch(ctx context.Context) ([]inventory.Item, error)
}

// MarketInventory adapts the remote inventory to Inventory.
type MarketInventory struct {
	Fetcher InventoryFetcher
}

func (m MarketInventory) Holdings(ctx context.Context) ([]HeldItem, error) {
	items, err := m.Fetcher.Fetch(ctx)
	return HeldItemsFrom(items), err
}

// HeldItemsFrom converts inventory items, dropping any that carry neither
// limited flag.
func HeldItemsFrom(items []inventory.Item) []HeldItem {
	out := make([]HeldItem, 0, len(items))
	for _, item := range items {
		category, ok := CategoryOf(item.IsLimited, item.IsLimitedUnique)
		if !ok {
			continue
		}
		out = append(out, HeldItem{
			ID:            item.AssetId,
			Name:          item.Name,
			Category:      category,
			LimitedUnique: item.IsLimitedUnique,
		})
	}
	return out
}

// MarketLister adapts the economy client to Lister, tagging its errors with
// a FailureReason.
type MarketLister struct {
	Lister Lister
}

func (m MarketLister) List(ctx context.Context, assetId, price int64) error {
	err := m.Lister.List(ctx, assetId, price)
	if err == nil {
		return nil
	}

	var listingErr *economy.ListingError
	if !errors.As(err, &listingErr) {
		return &ListError{Reason: ReasonTransport, Err: err}
	}
	reason := ReasonRemoteRejected
	switch listingErr.Reason {
	case economy.ReasonNoResellableCopy:
		reason = ReasonNoResellableCopy
	case economy.ReasonResolveFailed:
		reason = ReasonResolveFailed
	}
	return &ListError{Reason: reason, Err: err}
}

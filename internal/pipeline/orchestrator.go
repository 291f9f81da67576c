package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("limitedseller/pipeline")
var meter = otel.Meter("limitedseller/pipeline")
var outcomeCounter, _ = meter.Int64Counter(
	"pipeline.outcomes",
	metric.WithDescription("terminal item outcomes by state"),
)

// Inventory produces the held items of the session's user. A non-nil error
// together with items means enumeration stopped early, the items are still
// valid.
type Inventory interface {
	Holdings(ctx context.Context) ([]HeldItem, error)
}

// PriceOracle returns the lowest competing ask, ok=false meaning the market
// has no data for the item.
type PriceOracle interface {
	LowestAsk(ctx context.Context, assetId int64) (price int64, ok bool, err error)
}

// Lister puts one owned copy of an item on sale. It is the only call of a
// run that mutates remote state.
type Lister interface {
	List(ctx context.Context, assetId, price int64) error
}

// ListError attaches a failure reason to an error returned by a Lister,
// errors without one are treated as transport failures.
type ListError struct {
	Reason FailureReason
	Err    error
}

func (e *ListError) Error() string {
	return e.Err.Error()
}

func (e *ListError) Unwrap() error {
	return e.Err
}

type Orchestrator struct {
	Inventory Inventory
	Oracle    PriceOracle
	Lister    Lister

	// called after each outcome is recorded, in processing order
	OnOutcome func(runID string, outcome ItemOutcome)
	// defaults to time.Now
	Now func() time.Time
}

func (o Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run fetches, filters, prices and lists every item once. Only an invalid
// config returns an error, per item failures end up in the report. A
// cancelled ctx stops the run at the next item boundary.
func (o Orchestrator) Run(ctx context.Context, cfg RunConfig) (RunReport, error) {
	err := cfg.Validate()
	if err != nil {
		return RunReport{}, fmt.Errorf("invalid run config: %w", err)
	}

	ctx, span := tracer.Start(ctx, "orchestrator:Run")
	defer span.End()

	report := RunReport{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
	}
	span.SetAttributes(attribute.String("run_id", report.RunID))

	slog.InfoContext(ctx, "fetching limited items")
	items, err := o.Inventory.Holdings(ctx)
	if err != nil {
		report.PartialInventory = true
		slog.WarnContext(ctx, "inventory incomplete, continuing with what was collected", "items", len(items), "err", err)
	}
	report.Candidates = len(items)

	filtered := Filter(items, cfg)
	report.FilteredOut = len(items) - len(filtered)
	slog.InfoContext(
		ctx, "items to list",
		"found", len(items),
		"to_list", len(filtered),
		"filtered_out", report.FilteredOut,
	)

	var prefetched []priceLookup
	if cfg.PriceConcurrency > 1 && len(filtered) > 1 {
		prefetched = o.prefetchPrices(ctx, filtered, cfg.PriceConcurrency)
	}

	var limiter *rate.Limiter
	if cfg.Pacing > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Pacing), 1)
	}

	for i, item := range filtered {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}
		if limiter != nil {
			err := limiter.Wait(ctx)
			if err != nil {
				report.Interrupted = true
				break
			}
		}

		var lookup *priceLookup
		if prefetched != nil {
			lookup = &prefetched[i]
		}
		outcome := o.processItem(ctx, cfg, item, lookup)

		report.record(outcome)
		outcomeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("state", string(outcome.State))))
		if o.OnOutcome != nil {
			o.OnOutcome(report.RunID, outcome)
		}
	}

	report.FinishedAt = o.now()
	if report.Interrupted {
		slog.WarnContext(ctx, "run interrupted", "processed", report.Attempted, "remaining", len(filtered)-report.Attempted)
	}
	span.SetAttributes(
		attribute.Int("listed", report.Listed),
		attribute.Int("failed", report.Failed),
		attribute.Int("no_market_data", report.NoMarketData),
	)

	return report, nil
}

type priceLookup struct {
	price int64
	ok    bool
	err   error
}

// prefetchPrices looks up every price with at most `limit` requests in
// flight. Results are index aligned with items, lookups that start after
// ctx is done are skipped.
func (o Orchestrator) prefetchPrices(ctx context.Context, items []HeldItem, limit int) []priceLookup {
	results := make([]priceLookup, len(items))

	var group errgroup.Group
	group.SetLimit(limit)
	for i, item := range items {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = priceLookup{err: err}
				return nil
			}
			price, ok, err := o.Oracle.LowestAsk(ctx, item.ID)
			results[i] = priceLookup{price: price, ok: ok, err: err}
			return nil
		})
	}
	group.Wait()

	return results
}

func (o Orchestrator) processItem(ctx context.Context, cfg RunConfig, item HeldItem, lookup *priceLookup) ItemOutcome {
	ctx, span := tracer.Start(ctx, "orchestrator:item", trace.WithAttributes(
		attribute.Int64("asset_id", item.ID),
		attribute.String("name", item.Name),
	))
	defer span.End()

	logger := slog.With("asset_id", item.ID, "name", item.Name, "type", item.Category.String())

	var price priceLookup
	if lookup != nil {
		price = *lookup
	} else {
		price.price, price.ok, price.err = o.Oracle.LowestAsk(ctx, item.ID)
	}

	outcome := ItemOutcome{Item: item, State: StatePriced}
	if price.err != nil {
		outcome.State = StateNoMarketData
		outcome.Reason = ReasonPriceLookup
		outcome.Detail = price.err.Error()
		logger.WarnContext(ctx, "price lookup failed, skipping", "err", price.err)
		return outcome
	}
	if !price.ok {
		outcome.State = StateNoMarketData
		outcome.Detail = "no market data available"
		logger.InfoContext(ctx, "no market data available, skipping")
		return outcome
	}
	outcome.MarketPrice = price.price

	target, err := cfg.Strategy.TargetPrice(price.price)
	if err != nil {
		outcome.State = StateListingFailed
		outcome.Reason = ReasonInvalidPrice
		outcome.Detail = err.Error()
		span.SetStatus(codes.Error, "invalid target price")
		logger.WarnContext(ctx, "invalid target price", "lowest", price.price, "err", err)
		return outcome
	}
	outcome.TargetPrice = target

	if cfg.DryRun {
		outcome.State = StateSkippedDryRun
		logger.InfoContext(ctx, "dry run, not listing", "lowest", price.price, "listing_price", target)
		return outcome
	}

	err = o.Lister.List(ctx, item.ID, target)
	if err != nil {
		outcome.State = StateListingFailed
		outcome.Reason = reasonOf(err)
		outcome.Detail = err.Error()
		span.SetStatus(codes.Error, "listing failed")
		logger.WarnContext(ctx, "listing failed", "lowest", price.price, "listing_price", target, "err", err)
		return outcome
	}

	outcome.State = StateListed
	logger.InfoContext(ctx, "listed successfully", "lowest", price.price, "listing_price", target)
	return outcome
}

func reasonOf(err error) FailureReason {
	var listErr *ListError
	if errors.As(err, &listErr) && listErr.Reason != ReasonNone {
		return listErr.Reason
	}
	return ReasonTransport
}

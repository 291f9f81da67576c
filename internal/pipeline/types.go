package pipeline

import (
	"fmt"
	"time"
)

type Category int

const (
	CategoryRestrictedCatalog Category = iota + 1
	CategoryUserGeneratedRestricted
)

func (c Category) String() string {
	switch c {
	case CategoryRestrictedCatalog:
		return "Roblox Limited"
	case CategoryUserGeneratedRestricted:
		return "UGC Limited"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// CategoryOf derives the category from the two limited flags of a record, ok
// is false when neither is set.
func CategoryOf(isLimited, isLimitedUnique bool) (category Category, ok bool) {
	if isLimited {
		return CategoryRestrictedCatalog, true
	}
	if isLimitedUnique {
		return CategoryUserGeneratedRestricted, true
	}
	return 0, false
}

// HeldItem is one collectible owned by the authenticated user.
type HeldItem struct {
	ID            int64
	Name          string
	Category      Category
	LimitedUnique bool
}

type OutcomeState string

const (
	StatePriced        OutcomeState = "priced"
	StateNoMarketData  OutcomeState = "no_market_data"
	StateListed        OutcomeState = "listed"
	StateListingFailed OutcomeState = "listing_failed"
	StateSkippedDryRun OutcomeState = "skipped_dry_run"
)

type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonPriceLookup      FailureReason = "price_lookup_failed"
	ReasonInvalidPrice     FailureReason = "invalid_price"
	ReasonNoResellableCopy FailureReason = "no_resellable_copy"
	ReasonResolveFailed    FailureReason = "resolve_failed"
	ReasonRemoteRejected   FailureReason = "remote_rejected"
	ReasonTransport        FailureReason = "transport"
)

// ItemOutcome is the single record of what happened to an item during a run.
type ItemOutcome struct {
	Item        HeldItem
	State       OutcomeState
	MarketPrice int64
	TargetPrice int64
	Reason      FailureReason
	Detail      string
}

// RunReport is produced once at the end of a run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Candidates   int
	FilteredOut  int
	Attempted    int
	Listed       int
	NoMarketData int
	Failed       int
	DryRun       int

	// set when the inventory could not be read to the last page
	PartialInventory bool
	// set when the run was cancelled before every item was processed
	Interrupted bool

	Outcomes []ItemOutcome
}

func (r *RunReport) record(outcome ItemOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	r.Attempted++
	switch outcome.State {
	case StateListed:
		r.Listed++
	case StateNoMarketData:
		r.NoMarketData++
	case StateListingFailed:
		r.Failed++
	case StateSkippedDryRun:
		r.DryRun++
	}
}

// FailuresByReason counts failed and unpriced outcomes that carry a reason.
func (r RunReport) FailuresByReason() map[FailureReason]int {
	out := map[FailureReason]int{}
	for _, o := range r.Outcomes {
		if o.Reason == ReasonNone {
			continue
		}
		out[o.Reason]++
	}
	return out
}

func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r RunReport) Summary() string {
	s := fmt.Sprintf(
		"Successfully listed %d/%d items (%d without market data, %d failed, %d filtered out)",
		r.Listed, r.Candidates-r.FilteredOut, r.NoMarketData, r.Failed, r.FilteredOut,
	)
	if r.DryRun > 0 {
		s += fmt.Sprintf(", %d priced in dry run", r.DryRun)
	}
	if r.Interrupted {
		s += ", interrupted"
	}
	if r.PartialInventory {
		s += ", inventory incomplete"
	}
	return s
}

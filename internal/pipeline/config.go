package pipeline

import (
	"fmt"
	"time"
)

type CategoryFilter int

const (
	FilterAll CategoryFilter = iota
	FilterUserGeneratedOnly
	FilterRestrictedOnly
)

func (f CategoryFilter) String() string {
	switch f {
	case FilterAll:
		return "all"
	case FilterUserGeneratedOnly:
		return "ugc"
	case FilterRestrictedOnly:
		return "roblox"
	default:
		return fmt.Sprintf("CategoryFilter(%d)", int(f))
	}
}

func (f CategoryFilter) Matches(c Category) bool {
	switch f {
	case FilterUserGeneratedOnly:
		return c == CategoryUserGeneratedRestricted
	case FilterRestrictedOnly:
		return c == CategoryRestrictedCatalog
	default:
		return true
	}
}

// DefaultPacing is the delay observed between successive items.
const DefaultPacing = time.Second

// RunConfig is fixed for the duration of a run.
type RunConfig struct {
	Strategy       PricingStrategy
	CategoryFilter CategoryFilter
	Blacklist      map[int64]struct{}

	Pacing time.Duration
	// items are priced but never listed
	DryRun bool
	// > 1 looks up prices concurrently before listing, listing stays sequential
	PriceConcurrency int
}

func NewBlacklist(ids ...int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (c RunConfig) Blacklisted(id int64) bool {
	_, ok := c.Blacklist[id]
	return ok
}

func (c RunConfig) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	switch c.CategoryFilter {
	case FilterAll, FilterUserGeneratedOnly, FilterRestrictedOnly:
	default:
		return fmt.Errorf("unknown category filter %d", int(c.CategoryFilter))
	}
	if c.Pacing < 0 {
		return fmt.Errorf("pacing must not be negative, got %s", c.Pacing)
	}
	if c.PriceConcurrency < 0 {
		return fmt.Errorf("price concurrency must not be negative, got %d", c.PriceConcurrency)
	}
	return nil
}

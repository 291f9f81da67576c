package inventory

import (
	"context"
	"errors"
)

// PageSize amortizes request count against the remote page limit.
const PageSize = 100

// DefaultMaxPages bounds a pager whose MaxPages is left at zero.
const DefaultMaxPages = 10_000

// ErrExhausted is returned by Pager.Next once the final page was produced.
var ErrExhausted = errors.New("inventory pager exhausted")

type AssetDetails struct {
	IsLimited       bool `json:"isLimited"`
	IsLimitedUnique bool `json:"isLimitedUnique"`
}

type Record struct {
	AssetId      int64         `json:"assetId"`
	Name         string        `json:"name"`
	AssetDetails *AssetDetails `json:"assetDetails"`
}

// Qualifies reports whether the record is a tradeable limited, records
// without asset details or with neither flag set are not.
func (r Record) Qualifies() bool {
	if r.AssetDetails == nil {
		return false
	}
	return r.AssetDetails.IsLimited || r.AssetDetails.IsLimitedUnique
}

type Page struct {
	Data           []Record `json:"data"`
	NextPageCursor string   `json:"nextPageCursor"`
}

// PageSource fetches one page of the inventory, an empty cursor means the
// first page.
type PageSource interface {
	FetchPage(ctx context.Context, cursor string) (Page, error)
}

// Pager walks a PageSource lazily. It terminates on an empty cursor, on a
// cursor it has already requested, after MaxPages pages, or on the first
// error. Reset restarts it from the first page.
type Pager struct {
	MaxPages int

	source PageSource
	cursor string
	seen   map[string]struct{}
	pages  int
	done   bool
}

func NewPager(source PageSource) *Pager {
	p := &Pager{source: source}
	p.Reset()
	return p
}

func (p *Pager) Reset() {
	p.cursor = ""
	p.seen = map[string]struct{}{"": {}}
	p.pages = 0
	p.done = false
}

// Done reports whether Next would return ErrExhausted.
func (p *Pager) Done() bool {
	return p.done
}

// Pages is the number of pages fetched successfully since the last Reset.
func (p *Pager) Pages() int {
	return p.pages
}

func (p *Pager) Next(ctx context.Context) (Page, error) {
	if p.done {
		return Page{}, ErrExhausted
	}

	page, err := p.source.FetchPage(ctx, p.cursor)
	if err != nil {
		p.done = true
		return Page{}, err
	}
	p.pages++

	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	next := page.NextPageCursor
	_, repeated := p.seen[next]
	if repeated || p.pages >= maxPages {
		p.done = true
		return page, nil
	}
	p.seen[next] = struct{}{}
	p.cursor = next

	return page, nil
}

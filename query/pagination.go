package query

import (
	"context"
	"sync"

	"github.com/mhelbo/gidasclient/fetch"
)

// Pagination defaults, mirroring the backend's list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PagerConfig configures a Pager.
type PagerConfig[T any] struct {
	// PerPage is the page size sent as per_page. Clamped to
	// [1, MaxPerPage]; defaults to DefaultPerPage.
	PerPage int

	// Params are extra fixed parameters (filters) merged with the
	// page/per_page pair.
	Params map[string]any

	// Manual disables the automatic fetch of page 1.
	Manual bool

	// OnChange is invoked after every committed transition of the
	// backing query. Optional.
	OnChange func(State[fetch.Page[T]])
}

// Pager tracks the current page of a paginated list endpoint and derives
// has-next/has-previous from the pagination metadata the backend returns.
// Each page is fetched with its own (page, per_page) parameters, so each
// page is cached independently.
type Pager[T any] struct {
	q *Query[fetch.Page[T]]

	mu         sync.Mutex
	endpoint   string
	params     map[string]any
	page       int
	perPage    int
	total      int
	totalPages int
}

// NewPager creates a pager for a paginated list endpoint and, unless
// cfg.Manual is set, fetches page 1.
func NewPager[T any](ctx context.Context, coord *fetch.Coordinator, endpoint string, cfg PagerConfig[T]) *Pager[T] {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	p := &Pager[T]{
		endpoint: endpoint,
		params:   cfg.Params,
		page:     1,
		perPage:  perPage,
	}

	p.q = New(ctx, coord, endpoint, Config[fetch.Page[T]]{
		Params: p.pageParams(),
		Manual: true,
		Decode: fetch.DecodePage[T],
		OnChange: func(s State[fetch.Page[T]]) {
			if s.Status == StatusSuccess {
				p.commitMeta(s.Data.Meta)
			}
			if cfg.OnChange != nil {
				cfg.OnChange(s)
			}
		},
	})

	if !cfg.Manual {
		go p.q.Refetch(ctx)
	}
	return p
}

// State returns the backing query's snapshot.
func (p *Pager[T]) State() State[fetch.Page[T]] { return p.q.State() }

// Page returns the current page number (1-indexed).
func (p *Pager[T]) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// PerPage returns the page size.
func (p *Pager[T]) PerPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perPage
}

// Total returns the total item count reported by the last successful
// fetch, zero before one lands.
func (p *Pager[T]) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// TotalPages returns the page count reported by the last successful
// fetch, zero before one lands.
func (p *Pager[T]) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPages
}

// HasNext reports whether a later page exists.
func (p *Pager[T]) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page < p.totalPages
}

// HasPrev reports whether an earlier page exists.
func (p *Pager[T]) HasPrev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page > 1
}

// NextPage advances one page. No-op at the last known page.
func (p *Pager[T]) NextPage(ctx context.Context) {
	p.mu.Lock()
	if p.page >= p.totalPages {
		p.mu.Unlock()
		return
	}
	p.page++
	p.mu.Unlock()
	p.refetchCurrent(ctx)
}

// PrevPage steps back one page. No-op at page 1.
func (p *Pager[T]) PrevPage(ctx context.Context) {
	p.mu.Lock()
	if p.page <= 1 {
		p.mu.Unlock()
		return
	}
	p.page--
	p.mu.Unlock()
	p.refetchCurrent(ctx)
}

// GoToPage jumps to page n, clamped into [1, max(totalPages, 1)]. No-op
// when the clamped target is the current page.
func (p *Pager[T]) GoToPage(ctx context.Context, n int) {
	p.mu.Lock()
	n = clampPage(n, p.totalPages)
	if n == p.page {
		p.mu.Unlock()
		return
	}
	p.page = n
	p.mu.Unlock()
	p.refetchCurrent(ctx)
}

// Refetch re-requests the current page.
func (p *Pager[T]) Refetch(ctx context.Context) {
	p.refetchCurrent(ctx)
}

// SetParams replaces the fixed filter parameters and resets to page 1.
func (p *Pager[T]) SetParams(ctx context.Context, params map[string]any) {
	p.mu.Lock()
	p.params = params
	p.page = 1
	p.mu.Unlock()
	p.refetchCurrent(ctx)
}

// Close detaches the pager's backing query.
func (p *Pager[T]) Close() { p.q.Close() }

// commitMeta folds a successful page's metadata into the cursor. When the
// total shrank below the current position the cursor re-clamps; the next
// navigation lands inside the new range.
func (p *Pager[T]) commitMeta(meta fetch.PageMeta) {
	p.mu.Lock()
	p.total = meta.Total
	p.totalPages = meta.TotalPages
	p.page = clampPage(p.page, p.totalPages)
	p.mu.Unlock()
}

func (p *Pager[T]) refetchCurrent(ctx context.Context) {
	p.mu.Lock()
	params := p.pageParams()
	p.mu.Unlock()
	p.q.SetParams(params)
	p.q.Refetch(ctx)
}

// pageParams merges the fixed filters with the cursor pair. Caller holds
// p.mu or has exclusive access during construction.
func (p *Pager[T]) pageParams() map[string]any {
	params := make(map[string]any, len(p.params)+2)
	for k, v := range p.params {
		params[k] = v
	}
	params["page"] = p.page
	params["per_page"] = p.perPage
	return params
}

func clampPage(n, totalPages int) int {
	max := totalPages
	if max < 1 {
		max = 1
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

package directory

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/bie-paris/delegate-directory/internal/joomla"
)

// DefaultPageSize matches the card grid of the admin UI.
const DefaultPageSize = 12

// Pipeline owns the canonical delegate collection and derives the
// display view from it. The collection is replaced wholesale on every
// successful load; controls (filter, sort, page) are independent inputs and
// never touch canonical data. Derive is a pure function of both.
//
// All methods are safe for concurrent use, although the expected usage is a
// single writer (the refresh service) and many readers (HTTP handlers).
type Pipeline struct {
	mu        sync.RWMutex
	delegates []Delegate

	filter   Filter
	sortKey  SortKey
	page     int
	pageSize int
}

// NewPipeline creates an empty pipeline with default controls.
func NewPipeline() *Pipeline {
	return &Pipeline{
		filter:   Filter{Tab: TabAll, Newsletter: NewsletterAll},
		sortKey:  SortNewest,
		page:     1,
		pageSize: DefaultPageSize,
	}
}

// Load normalizes and deduplicates a raw batch, then replaces the canonical
// collection in one step: readers observe either the old collection or the
// new one, never a mix. Duplicate ids keep the position of their first
// occurrence but the content of their last (the CMS export occasionally
// repeats a contact, and the later row carries the fresher data).
func (p *Pipeline) Load(raws []joomla.RawDelegate) LoadResult {
	normalized, dropped := NormalizeAll(raws)

	deduped := make([]Delegate, 0, len(normalized))
	index := make(map[int64]int, len(normalized))
	for _, d := range normalized {
		if at, ok := index[d.ID]; ok {
			deduped[at] = d
			continue
		}
		index[d.ID] = len(deduped)
		deduped = append(deduped, d)
	}

	p.mu.Lock()
	p.delegates = deduped
	p.mu.Unlock()

	return LoadResult{Total: len(deduped), Dropped: dropped}
}

// SetFilter replaces the active filter. Canonical data is untouched; a
// narrower subset than the current page offset is handled by the page clamp
// in Derive.
func (p *Pipeline) SetFilter(f Filter) {
	if f.Tab == "" {
		f.Tab = TabAll
	}
	if f.Newsletter == "" {
		f.Newsletter = NewsletterAll
	}
	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()
}

// SetSort selects the active sort order. Unknown keys fall back to newest.
func (p *Pipeline) SetSort(key SortKey) {
	switch key {
	case SortNewest, SortOldest, SortNameAsc, SortNameDesc:
	default:
		key = SortNewest
	}
	p.mu.Lock()
	p.sortKey = key
	p.mu.Unlock()
}

// SetPage selects the current page (1-based). Values below 1 clamp to 1; the
// upper clamp happens in Derive where the page count is known.
func (p *Pipeline) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	p.page = n
	p.mu.Unlock()
}

// SetPageSize changes the page size and resets to page 1: changing the
// denominator invalidates the old page offset.
func (p *Pipeline) SetPageSize(n int) {
	if n < 1 {
		n = DefaultPageSize
	}
	p.mu.Lock()
	p.pageSize = n
	p.page = 1
	p.mu.Unlock()
}

// Derive recomputes the display view: filter, then sort, then paginate.
// Identical canonical state and controls always produce an identical view,
// and both inputs are left untouched.
func (p *Pipeline) Derive() View {
	p.mu.RLock()
	delegates := p.delegates
	filter := p.filter
	sortKey := p.sortKey
	page := p.page
	pageSize := p.pageSize
	p.mu.RUnlock()

	return derive(delegates, filter, sortKey, page, pageSize)
}

// derive is the pure core of the pipeline.
func derive(delegates []Delegate, filter Filter, sortKey SortKey, page, pageSize int) View {
	filtered := applyFilter(delegates, filter)
	sorted := applySort(filtered, sortKey)

	totalPages := 0
	if pageSize > 0 {
		totalPages = (len(sorted) + pageSize - 1) / pageSize
	}

	if totalPages == 0 {
		return View{Delegates: []Delegate{}, Total: 0, TotalPages: 0, Page: 1, PageSize: pageSize}
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}

	return View{
		Delegates:  sorted[start:end],
		Total:      len(sorted),
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}
}

// applyFilter applies all active filters conjunctively, preserving order.
func applyFilter(delegates []Delegate, f Filter) []Delegate {
	search := foldSearch(strings.TrimSpace(f.Search))

	out := make([]Delegate, 0, len(delegates))
	for _, d := range delegates {
		if search != "" && !strings.Contains(foldSearch(d.FullName), search) {
			continue
		}
		switch f.Tab {
		case TabActive:
			if !d.Active {
				continue
			}
		case TabInactive:
			if d.Active {
				continue
			}
		}
		if f.MemberState != "" && f.MemberState != "all_states" && d.Country != f.MemberState {
			continue
		}
		switch f.Newsletter {
		case NewsletterSubscribed:
			if !d.Newsletter {
				continue
			}
		case NewsletterUnsubscribed:
			if d.Newsletter {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

// applySort returns a sorted copy. The sort is stable so that equal keys keep
// their relative order across re-renders instead of visually jumping.
// Name sorts are locale-aware: the directory mixes English and French names
// and a plain byte compare would exile "Émile" past "Zoé".
func applySort(delegates []Delegate, key SortKey) []Delegate {
	out := make([]Delegate, len(delegates))
	copy(out, delegates)

	switch key {
	case SortNewest:
		// Absent start dates are the oldest possible, so they sink to the end.
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].StartDate.Time.After(out[j].StartDate.Time)
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].StartDate.Time.Before(out[j].StartDate.Time)
		})
	case SortNameAsc:
		c := newNameCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].FullName, out[j].FullName) < 0
		})
	case SortNameDesc:
		c := newNameCollator()
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].FullName, out[j].FullName) > 0
		})
	}
	return out
}

// newNameCollator builds a collator for name comparison. Collators are not
// safe for concurrent use, so each sort gets its own.
func newNameCollator() *collate.Collator {
	return collate.New(language.Und, collate.Loose)
}

// Stats counts over the entire canonical collection, independent of the
// active filters.
func (p *Pipeline) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Stats{Total: len(p.delegates)}
	for _, d := range p.delegates {
		if d.Active {
			s.Active++
		}
		if d.Newsletter {
			s.Newsletter++
		}
	}
	return s
}

// MemberStates returns the distinct non-empty countries in the canonical
// collection, sorted, for the filter dropdown.
func (p *Pipeline) MemberStates() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seen := make(map[string]bool)
	states := []string{}
	for _, d := range p.delegates {
		if d.Country == "" || seen[d.Country] {
			continue
		}
		seen[d.Country] = true
		states = append(states, d.Country)
	}
	sort.Strings(states)
	return states
}

// Len reports the size of the canonical collection.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.delegates)
}

// Controls reports the current filter/sort/page state, mostly for handlers
// echoing it back to the UI.
func (p *Pipeline) Controls() (Filter, SortKey, int, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter, p.sortKey, p.page, p.pageSize
}

package directory

import (
	"reflect"
	"testing"
	"time"

	"github.com/bie-paris/delegate-directory/internal/joomla"
)

func testDelegate(id int64, name string, start Date, active, newsletter bool) Delegate {
	end := Date{}
	if !active {
		end = NewDate(2023, time.September, 30)
	}
	return Delegate{
		ID:         id,
		FullName:   name,
		StartDate:  start,
		EndDate:    end,
		Active:     active,
		Newsletter: newsletter,
		Emails:     []string{},
		Phones:     []string{},
	}
}

func loadedPipeline(delegates ...Delegate) *Pipeline {
	p := NewPipeline()
	p.mu.Lock()
	p.delegates = delegates
	p.mu.Unlock()
	return p
}

func TestPipeline_Load_DeduplicatesByID(t *testing.T) {
	p := NewPipeline()

	result := p.Load([]joomla.RawDelegate{
		{ID: "7", FullName: "A"},
		{ID: "8", FullName: "Other"},
		{ID: "7", FullName: "B"},
	})

	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2", result.Total)
	}

	view := p.Derive()
	if len(view.Delegates) != 2 {
		t.Fatalf("len(view.Delegates) = %d, want 2", len(view.Delegates))
	}

	var got *Delegate
	for i := range view.Delegates {
		if view.Delegates[i].ID == 7 {
			got = &view.Delegates[i]
		}
	}
	if got == nil {
		t.Fatal("delegate 7 missing from view")
	}
	if got.FullName != "B" {
		t.Errorf("duplicate id kept FullName = %q, want %q (last occurrence wins)", got.FullName, "B")
	}
}

func TestPipeline_Load_CountsDropped(t *testing.T) {
	p := NewPipeline()

	result := p.Load([]joomla.RawDelegate{
		{ID: "1", FullName: "Keep"},
		{FullName: "No ID"},
	})

	if result.Total != 1 {
		t.Errorf("Total = %d, want 1", result.Total)
	}
	if result.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", result.Dropped)
	}
}

func TestPipeline_Derive_Idempotent(t *testing.T) {
	p := loadedPipeline(
		testDelegate(1, "Alice", NewDate(2022, time.March, 1), true, true),
		testDelegate(2, "Bob", NewDate(2021, time.June, 1), false, false),
		testDelegate(3, "Carol", NewDate(2023, time.January, 1), true, false),
	)
	p.SetFilter(Filter{Tab: TabActive})
	p.SetSort(SortNameAsc)

	first := p.Derive()
	second := p.Derive()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Derive() not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestPipeline_Derive_DoesNotMutateCanonical(t *testing.T) {
	p := loadedPipeline(
		testDelegate(1, "Zeta", NewDate(2020, time.January, 1), true, false),
		testDelegate(2, "Alpha", NewDate(2024, time.January, 1), true, false),
	)
	p.SetSort(SortNameAsc)

	p.Derive()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.delegates[0].FullName != "Zeta" {
		t.Errorf("canonical order changed by Derive: first is %q, want %q", p.delegates[0].FullName, "Zeta")
	}
}

func TestApplyFilter_SearchAccentAndCaseInsensitive(t *testing.T) {
	delegates := []Delegate{
		testDelegate(1, "Zoé Kourouma", Date{}, true, false),
		testDelegate(2, "John Carter", Date{}, true, false),
		testDelegate(3, "Jürgen Müller", Date{}, true, false),
	}

	tests := []struct {
		search string
		want   []int64
	}{
		{"zoe", []int64{1}},
		{"ZOÉ", []int64{1}},
		{"muller", []int64{3}},
		{"MÜLLER", []int64{3}},
		{"o", []int64{1, 2}},
		{"nobody", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got := []int64{}
			for _, d := range applyFilter(delegates, Filter{Search: tt.search, Tab: TabAll, Newsletter: NewsletterAll}) {
				got = append(got, d.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("search %q matched %v, want %v", tt.search, got, tt.want)
			}
		})
	}
}

func TestApplyFilter_TabPartitionsCollection(t *testing.T) {
	delegates := []Delegate{
		testDelegate(1, "Active One", Date{}, true, false),
		testDelegate(2, "Gone One", Date{}, false, false),
		testDelegate(3, "Active Two", Date{}, true, false),
	}

	active := applyFilter(delegates, Filter{Tab: TabActive, Newsletter: NewsletterAll})
	inactive := applyFilter(delegates, Filter{Tab: TabInactive, Newsletter: NewsletterAll})
	all := applyFilter(delegates, Filter{Tab: TabAll, Newsletter: NewsletterAll})

	if len(active) != 2 {
		t.Errorf("len(active) = %d, want 2", len(active))
	}
	if len(inactive) != 1 {
		t.Errorf("len(inactive) = %d, want 1", len(inactive))
	}
	if len(active)+len(inactive) != len(all) {
		t.Errorf("active (%d) + inactive (%d) != all (%d)", len(active), len(inactive), len(all))
	}
}

func TestApplyFilter_Conjunctive(t *testing.T) {
	a := testDelegate(1, "Marie Dupont", Date{}, true, true)
	a.Country = "France"
	b := testDelegate(2, "Marie Curie", Date{}, true, false)
	b.Country = "France"
	c := testDelegate(3, "Marie Colvin", Date{}, false, true)
	c.Country = "United States"

	got := applyFilter([]Delegate{a, b, c}, Filter{
		Search:      "marie",
		Tab:         TabActive,
		MemberState: "France",
		Newsletter:  NewsletterSubscribed,
	})

	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("conjunctive filter matched %v, want only id 1", got)
	}
}

func TestApplyFilter_MemberStateAllStates(t *testing.T) {
	a := testDelegate(1, "A", Date{}, true, false)
	a.Country = "France"
	b := testDelegate(2, "B", Date{}, true, false)
	b.Country = "Ghana"

	got := applyFilter([]Delegate{a, b}, Filter{Tab: TabAll, MemberState: "all_states", Newsletter: NewsletterAll})
	if len(got) != 2 {
		t.Errorf("all_states filtered down to %d records, want 2", len(got))
	}
}

func TestApplySort(t *testing.T) {
	oldest := testDelegate(1, "Bob", NewDate(2019, time.June, 1), true, false)
	newest := testDelegate(2, "Alice", NewDate(2024, time.November, 2), true, false)
	middle := testDelegate(3, "Émile", NewDate(2022, time.March, 15), true, false)
	dateless := testDelegate(4, "Zed", Date{}, true, false)

	delegates := []Delegate{oldest, newest, middle, dateless}

	tests := []struct {
		name string
		key  SortKey
		want []int64
	}{
		{"newest first, absent date last", SortNewest, []int64{2, 3, 1, 4}},
		{"oldest first, absent date first", SortOldest, []int64{4, 1, 3, 2}},
		{"name ascending is locale aware", SortNameAsc, []int64{2, 1, 3, 4}},
		{"name descending", SortNameDesc, []int64{4, 3, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []int64{}
			for _, d := range applySort(delegates, tt.key) {
				got = append(got, d.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("applySort(%s) order = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestApplySort_StableOnEqualKeys(t *testing.T) {
	sameDay := NewDate(2022, time.March, 15)
	delegates := []Delegate{
		testDelegate(1, "First", sameDay, true, false),
		testDelegate(2, "Second", sameDay, true, false),
		testDelegate(3, "Third", sameDay, true, false),
	}

	got := []int64{}
	for _, d := range applySort(delegates, SortNewest) {
		got = append(got, d.ID)
	}
	if !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Errorf("equal keys reordered: %v, want [1 2 3]", got)
	}
}

func TestDerive_Pagination(t *testing.T) {
	delegates := make([]Delegate, 13)
	for i := range delegates {
		delegates[i] = testDelegate(int64(i+1), "Delegate", Date{}, true, false)
	}

	view := derive(delegates, Filter{Tab: TabAll, Newsletter: NewsletterAll}, SortNewest, 1, 12)
	if view.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", view.TotalPages)
	}
	if len(view.Delegates) != 12 {
		t.Errorf("page 1 size = %d, want 12", len(view.Delegates))
	}

	view = derive(delegates, Filter{Tab: TabAll, Newsletter: NewsletterAll}, SortNewest, 2, 12)
	if len(view.Delegates) != 1 {
		t.Errorf("page 2 size = %d, want 1", len(view.Delegates))
	}
	if view.Page != 2 {
		t.Errorf("Page = %d, want 2", view.Page)
	}
}

func TestDerive_PagesPartitionWithoutOverlap(t *testing.T) {
	delegates := make([]Delegate, 30)
	for i := range delegates {
		delegates[i] = testDelegate(int64(i+1), "Delegate", Date{}, true, false)
	}

	seen := make(map[int64]int)
	first := derive(delegates, Filter{Tab: TabAll, Newsletter: NewsletterAll}, SortNewest, 1, 12)
	for page := 1; page <= first.TotalPages; page++ {
		v := derive(delegates, Filter{Tab: TabAll, Newsletter: NewsletterAll}, SortNewest, page, 12)
		for _, d := range v.Delegates {
			seen[d.ID]++
		}
	}

	if len(seen) != 30 {
		t.Errorf("pages cover %d distinct records, want 30", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("record %d appears on %d pages, want 1", id, n)
		}
	}
}

func TestDerive_PageClampsToLast(t *testing.T) {
	delegates := make([]Delegate, 5)
	for i := range delegates {
		delegates[i] = testDelegate(int64(i+1), "Delegate", Date{}, true, false)
	}

	view := derive(delegates, Filter{Tab: TabAll, Newsletter: NewsletterAll}, SortNewest, 99, 12)
	if view.Page != 1 {
		t.Errorf("Page = %d, want clamp to 1", view.Page)
	}
	if len(view.Delegates) != 5 {
		t.Errorf("len(Delegates) = %d, want 5", len(view.Delegates))
	}
}

func TestDerive_EmptyCollection(t *testing.T) {
	view := derive(nil, Filter{Tab: TabAll, Newsletter: NewsletterAll}, SortNewest, 3, 12)

	if view.TotalPages != 0 {
		t.Errorf("TotalPages = %d, want 0", view.TotalPages)
	}
	if view.Total != 0 {
		t.Errorf("Total = %d, want 0", view.Total)
	}
	if view.Page != 1 {
		t.Errorf("Page = %d, want 1", view.Page)
	}
	if view.Delegates == nil || len(view.Delegates) != 0 {
		t.Errorf("Delegates = %v, want empty non-nil slice", view.Delegates)
	}
}

func TestPipeline_SetPageSizeResetsPage(t *testing.T) {
	p := NewPipeline()
	p.SetPage(4)
	p.SetPageSize(25)

	_, _, page, pageSize := p.Controls()
	if page != 1 {
		t.Errorf("page = %d, want reset to 1", page)
	}
	if pageSize != 25 {
		t.Errorf("pageSize = %d, want 25", pageSize)
	}
}

func TestPipeline_SetFilterKeepsPage(t *testing.T) {
	p := NewPipeline()
	p.SetPage(3)
	p.SetFilter(Filter{Search: "marie"})

	_, _, page, _ := p.Controls()
	if page != 3 {
		t.Errorf("page = %d, want 3 (filter change keeps requested page)", page)
	}
}

func TestPipeline_SetSortUnknownFallsBackToNewest(t *testing.T) {
	p := NewPipeline()
	p.SetSort(SortKey("sideways"))

	_, key, _, _ := p.Controls()
	if key != SortNewest {
		t.Errorf("sortKey = %q, want %q", key, SortNewest)
	}
}

func TestPipeline_StatsIgnoreFilters(t *testing.T) {
	p := loadedPipeline(
		testDelegate(1, "Alice", Date{}, true, true),
		testDelegate(2, "Bob", Date{}, false, true),
		testDelegate(3, "Carol", Date{}, true, false),
	)
	p.SetFilter(Filter{Tab: TabInactive})

	stats := p.Stats()
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.Active != 2 {
		t.Errorf("Active = %d, want 2", stats.Active)
	}
	if stats.Newsletter != 2 {
		t.Errorf("Newsletter = %d, want 2", stats.Newsletter)
	}
}

func TestPipeline_MemberStates(t *testing.T) {
	fr := testDelegate(1, "A", Date{}, true, false)
	fr.Country = "France"
	gh := testDelegate(2, "B", Date{}, true, false)
	gh.Country = "Ghana"
	fr2 := testDelegate(3, "C", Date{}, true, false)
	fr2.Country = "France"
	none := testDelegate(4, "D", Date{}, true, false)

	p := loadedPipeline(fr, gh, fr2, none)

	got := p.MemberStates()
	want := []string{"France", "Ghana"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MemberStates() = %v, want %v", got, want)
	}
}

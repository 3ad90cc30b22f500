package directory

import (
	"time"
)

// Language is the canonical preferred-communication-language code.
// The CMS stores free-form values; anything unrecognized maps to
// LangUnspecified and the UI simply shows no language badge.
type Language string

const (
	LangEnglish     Language = "en"
	LangFrench      Language = "fr"
	LangUnspecified Language = ""
)

// Date is a calendar date that may be absent. The zero value means "absent":
// it marshals to null, renders as an em-dash placeholder, and sorts as the
// oldest possible date.
type Date struct {
	time.Time
}

// NewDate builds a Date from year/month/day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as "YYYY-MM-DD", or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(`"2006-01-02"`, s)
	if err != nil {
		// Absent beats broken: a date we cannot read renders as the placeholder.
		d.Time = time.Time{}
		return nil
	}
	d.Time = t
	return nil
}

// Display formats the date for human consumption; absent dates render as "—".
func (d Date) Display() string {
	if d.IsZero() {
		return "—"
	}
	return d.Format("02/01/2006")
}

// Delegate is the canonical delegate record, post-normalization. All the
// CMS's field-name and encoding quirks have been resolved by this point:
// contact lists are real slices (never nil), dates are calendar dates, and the
// language is one of the closed Language set.
type Delegate struct {
	ID         int64    `json:"id"`
	FullName   string   `json:"fullname"`
	FirstName  string   `json:"first_name,omitempty"`
	LastName   string   `json:"last_name,omitempty"`
	JobTitle   string   `json:"job_title,omitempty"`
	Employer   string   `json:"employer,omitempty"`
	Country    string   `json:"country,omitempty"`
	StartDate  Date     `json:"start_date"`
	EndDate    Date     `json:"end_date"`
	Active     bool     `json:"is_active"`
	Language   Language `json:"language,omitempty"`
	Emails     []string `json:"emails"`
	Phones     []string `json:"phones"`
	Newsletter bool     `json:"is_newsletter_subscribed"`
}

// Note is a canonical free-text note. Notes are immutable in this system;
// creation goes straight to the CMS and the list is refetched afterwards.
type Note struct {
	ID         int64     `json:"id"`
	ContactID  int64     `json:"contact_id"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Recent     bool      `json:"recent"`
}

// Membership is one membership period of a delegate.
type Membership struct {
	ID          int64  `json:"id"`
	Role        string `json:"role,omitempty"`
	MemberState string `json:"member_state,omitempty"`
	StartDate   Date   `json:"start_date"`
	EndDate     Date   `json:"end_date"`
	Active      bool   `json:"is_active"`
	Notes       string `json:"notes,omitempty"`
}

// Activity is one entry of a delegate's activity log.
type Activity struct {
	ID          int64     `json:"id"`
	Subject     string    `json:"subject,omitempty"`
	Time        time.Time `json:"time"`
	TypeLabel   string    `json:"type_label,omitempty"`
	StatusLabel string    `json:"status_label,omitempty"`
}

// Tab selects the membership-status slice of the list.
type Tab string

const (
	TabAll      Tab = "all"
	TabActive   Tab = "active"
	TabInactive Tab = "inactive"
)

// NewsletterFilter narrows the list by subscription status.
type NewsletterFilter string

const (
	NewsletterAll          NewsletterFilter = "all"
	NewsletterSubscribed   NewsletterFilter = "subscribed"
	NewsletterUnsubscribed NewsletterFilter = "unsubscribed"
)

// SortKey selects the active sort order of the derived view.
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortNameAsc  SortKey = "name_asc"
	SortNameDesc SortKey = "name_desc"
)

// Filter is the conjunction of all active list filters. Zero values mean
// "no filter" for their dimension.
type Filter struct {
	Search      string
	Tab         Tab
	MemberState string
	Newsletter  NewsletterFilter
}

// Stats are headline counters over the entire canonical collection. They
// deliberately ignore the active filters so the dashboard numbers do not
// change while the user narrows the visible list.
type Stats struct {
	Active     int `json:"active"`
	Newsletter int `json:"newsletter"`
	Total      int `json:"total"`
}

// View is the derived, display-ready slice of the collection. It is a pure
// function of the canonical collection plus the current controls and holds no
// state of its own.
type View struct {
	Delegates  []Delegate `json:"delegates"`
	Total      int        `json:"total"`
	TotalPages int        `json:"total_pages"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

// LoadResult reports the outcome of loading a raw batch into the pipeline.
type LoadResult struct {
	Total   int // canonical records after dedup
	Dropped int // raw records skipped during normalization
}

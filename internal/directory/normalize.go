package directory

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/bie-paris/delegate-directory/internal/joomla"
	"github.com/bie-paris/delegate-directory/internal/pkg/logger"
)

// ErrNoID marks a raw record with no derivable contact id. Such records are
// dropped from the batch; they must never abort normalization of the rest.
var ErrNoID = errors.New("record has no derivable id")

// Normalize maps one raw CMS record into a canonical Delegate. The only hard
// requirement is a usable id; everything else degrades to its zero value.
func Normalize(raw joomla.RawDelegate) (Delegate, error) {
	id, err := parseID(raw.ID, raw.ContactID)
	if err != nil {
		return Delegate{}, err
	}

	fullName := strings.TrimSpace(raw.FullName)
	if fullName == "" {
		fullName = strings.TrimSpace(strings.TrimSpace(raw.FirstName) + " " + strings.TrimSpace(raw.LastName))
	}

	endDate := parseDate(raw.EndDate)

	d := Delegate{
		ID:         id,
		FullName:   fullName,
		FirstName:  strings.TrimSpace(raw.FirstName),
		LastName:   strings.TrimSpace(raw.LastName),
		JobTitle:   strings.TrimSpace(raw.JobTitle),
		Employer:   strings.TrimSpace(raw.Employer),
		Country:    pickCountry(raw),
		StartDate:  parseDate(raw.StartDate),
		EndDate:    endDate,
		Active:     endDate.IsZero(), // ongoing membership has no end date
		Language:   mapLanguage(raw.PreferredLanguage),
		Emails:     mergeContacts(raw.Email, raw.Mails),
		Phones:     ExtractContactList(raw.Phones.String()),
		Newsletter: raw.Newsletter.Bool(),
	}
	return d, nil
}

// NormalizeAll normalizes a raw batch, skipping records that cannot be
// minimally normalized. It returns the canonical records in input order plus
// the count of dropped records for diagnostics.
func NormalizeAll(raws []joomla.RawDelegate) ([]Delegate, int) {
	delegates := make([]Delegate, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		d, err := Normalize(raw)
		if err != nil {
			dropped++
			logger.Warn("skipping malformed delegate record", "record", describeRecord(raw), "reason", err.Error())
			continue
		}
		delegates = append(delegates, d)
	}
	return delegates, dropped
}

// parseID returns the first parseable id among the candidates.
func parseID(candidates ...joomla.FlexString) (int64, error) {
	for _, c := range candidates {
		s := strings.TrimSpace(c.String())
		if s == "" {
			continue
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, ErrNoID
}

// pickCountry selects a display country, preferring the English label the way
// the admin UI does and falling back through whatever the CMS happened to fill.
func pickCountry(raw joomla.RawDelegate) string {
	for _, c := range []string{raw.CountryEN, raw.Country, raw.CountryFR, raw.LabelEN, raw.LabelFR} {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return ""
}

// dateFormats in trial order. The CMS mixes a day-first locale form with ISO
// dates depending on which backend module produced the field.
var dateFormats = []string{
	"02/01/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// parseDate converts a CMS date string into a calendar Date. Missing or
// unparseable input normalizes to the absent date, never an error.
func parseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" || s == "0000-00-00" {
		return Date{}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t.UTC().Truncate(24 * time.Hour)}
		}
	}
	return Date{}
}

// parseTimestamp converts a CMS datetime ("2006-01-02 15:04:05", sometimes
// with a T separator) into a time.Time; zero on failure.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

var (
	brTagRe   = regexp.MustCompile(`(?i)<br\s*/?>`)
	langNames = map[string]Language{
		"fr":      LangFrench,
		"fr_fr":   LangFrench,
		"fr-fr":   LangFrench,
		"french":  LangFrench,
		"en":      LangEnglish,
		"en_us":   LangEnglish,
		"en-us":   LangEnglish,
		"english": LangEnglish,
	}
)

// mapLanguage folds the CMS's assorted language spellings onto the canonical
// two-value set; anything unrecognized is simply unspecified.
func mapLanguage(s string) Language {
	if lang, ok := langNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lang
	}
	return LangUnspecified
}

// ExtractContactList parses a CMS contact field into an ordered list of
// distinct entries. The field may be an HTML fragment of anchor links joined
// by <br> markers, or a plain string with comma/newline separators. Empty or
// absent input yields an empty, non-nil list.
func ExtractContactList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	// Line breaks become real separators before any tag stripping.
	s = brTagRe.ReplaceAllString(s, "\n")

	if strings.Contains(s, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	}) {
		entry := strings.TrimSpace(part)
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		out = append(out, entry)
	}
	return out
}

// mergeContacts combines the single email field with the parsed mails
// fragment, keeping order and dropping duplicates.
func mergeContacts(primary, fragment string) []string {
	out := []string{}
	seen := make(map[string]bool)
	if p := strings.TrimSpace(primary); p != "" {
		seen[p] = true
		out = append(out, p)
	}
	for _, e := range ExtractContactList(fragment) {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// foldSearch lowercases and strips diacritics so that "Müller" matches
// "muller" and "Sèvres" matches "sevres".
func foldSearch(s string) string {
	s = strings.ToLower(s)
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// FormatDate is the display form used in log lines and fixtures; absent dates
// render as the placeholder instead of panicking or showing a zero year.
func FormatDate(d Date) string {
	return d.Display()
}

// describeRecord is a short log-safe identifier for a raw record.
func describeRecord(raw joomla.RawDelegate) string {
	return fmt.Sprintf("id=%q name=%q", raw.ID.String(), raw.FullName)
}

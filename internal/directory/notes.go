package directory

import (
	"sort"
	"strings"
	"time"

	"github.com/bie-paris/delegate-directory/internal/joomla"
)

// recentWindow is how far back a note's modification may lie and still earn
// the "Recent" badge in the UI.
const recentWindow = 7 * 24 * time.Hour

// NormalizeNote maps one raw CMS note into the canonical form. Like
// delegates, a note without an id is unusable.
func NormalizeNote(raw joomla.RawNote) (Note, error) {
	id, err := parseID(raw.ID)
	if err != nil {
		return Note{}, err
	}

	contactID, _ := parseID(raw.ContactID, raw.EntityID)

	created := parseTimestamp(raw.CreatedDate)
	modified := parseTimestamp(raw.ModifiedDate)
	if modified.IsZero() {
		modified = created
	}

	return Note{
		ID:         id,
		ContactID:  contactID,
		Subject:    strings.TrimSpace(raw.Subject),
		Body:       raw.Note,
		CreatedAt:  created,
		ModifiedAt: modified,
	}, nil
}

// NormalizeNotes maps a raw note batch, dropping unusable records, sorting
// reverse-chronologically by modification time, and stamping recency flags.
// Pure function of (raws, now).
func NormalizeNotes(raws []joomla.RawNote, now time.Time) []Note {
	notes := make([]Note, 0, len(raws))
	for _, raw := range raws {
		n, err := NormalizeNote(raw)
		if err != nil {
			continue
		}
		n.Recent = IsRecent(n, now)
		notes = append(notes, n)
	}
	SortNotes(notes)
	return notes
}

// SortNotes orders notes newest-modified first. The sort is stable so notes
// sharing a timestamp keep their server order.
func SortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].ModifiedAt.After(notes[j].ModifiedAt)
	})
}

// IsRecent reports whether the note was modified within the trailing seven
// days of now.
func IsRecent(n Note, now time.Time) bool {
	if n.ModifiedAt.IsZero() {
		return false
	}
	return n.ModifiedAt.After(now.Add(-recentWindow))
}

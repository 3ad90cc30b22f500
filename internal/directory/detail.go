package directory

import (
	"strings"

	"github.com/bie-paris/delegate-directory/internal/joomla"
)

// NormalizeMemberships maps raw membership periods into canonical form,
// dropping records with no id. Order is preserved as the CMS already returns
// periods newest-first.
func NormalizeMemberships(raws []joomla.RawMembership) []Membership {
	out := make([]Membership, 0, len(raws))
	for _, raw := range raws {
		id, err := parseID(raw.ID)
		if err != nil {
			continue
		}
		endDate := parseDate(raw.EndDate)
		out = append(out, Membership{
			ID:          id,
			Role:        strings.TrimSpace(raw.Role),
			MemberState: strings.TrimSpace(raw.MemberState),
			StartDate:   parseDate(raw.StartDate),
			EndDate:     endDate,
			Active:      endDate.IsZero(),
			Notes:       strings.TrimSpace(raw.Notes),
		})
	}
	return out
}

// NormalizeActivities maps raw activity-log entries into canonical form.
func NormalizeActivities(raws []joomla.RawActivity) []Activity {
	out := make([]Activity, 0, len(raws))
	for _, raw := range raws {
		id, err := parseID(raw.ActivityID)
		if err != nil {
			continue
		}
		out = append(out, Activity{
			ID:          id,
			Subject:     strings.TrimSpace(raw.Subject),
			Time:        parseTimestamp(raw.ActivityDateTime),
			TypeLabel:   strings.TrimSpace(raw.ActivityTypeLabel),
			StatusLabel: strings.TrimSpace(raw.StatusLabel),
		})
	}
	return out
}

package joomla

import (
	"encoding/json"
	"time"
)

// FlexString is a string type that can unmarshal from string, number, or null
// JSON values. The CMS is not consistent about which one it sends. A shape it
// cannot read (object, array) degrades to the empty string instead of failing:
// one odd field must never take down a whole-batch decode.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	*f = ""
	return nil
}

// String returns the string value
func (f FlexString) String() string {
	return string(f)
}

// FlexBool unmarshals from bool, 0/1 numbers, or "0"/"1"/"true"/"false"
// strings. Any spelling outside that set degrades to false rather than
// failing the decode.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler for FlexBool
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", "1", `"1"`, `"true"`:
		*f = true
	default:
		*f = false
	}
	return nil
}

// Bool returns the bool value
func (f FlexBool) Bool() bool {
	return bool(f)
}

// Config holds Joomla CMS API configuration
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	Component string        `yaml:"component"`
	Token     string        `yaml:"token"`
	Timeout   time.Duration `yaml:"-"`
}

// apiResponse is the envelope every com_bie_membersf task responds with.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// RawDelegate is a delegate record exactly as the CMS returns it. Field names
// and presence are not contractually guaranteed; everything that has been seen
// varying between string and number uses a Flex type. Normalization into the
// canonical model happens in internal/directory.
type RawDelegate struct {
	ID                 FlexString `json:"id"`
	ContactID          FlexString `json:"contact_id,omitempty"`
	Prefix             string     `json:"prefix,omitempty"`
	FirstName          string     `json:"first_name,omitempty"`
	LastName           string     `json:"last_name,omitempty"`
	FullName           string     `json:"fullname,omitempty"`
	JobTitle           string     `json:"job_title,omitempty"`
	Employer           string     `json:"employer,omitempty"`
	StartDate          string     `json:"start_date,omitempty"`
	EndDate            string     `json:"end_date,omitempty"`
	Email              string     `json:"email,omitempty"`
	Mails              string     `json:"mails,omitempty"`  // HTML fragment of mailto links
	Phones             FlexString `json:"phones,omitempty"` // HTML fragment or plain list
	PreferredLanguage  string     `json:"preferred_language,omitempty"`
	LabelFR            string     `json:"label_fr_FR,omitempty"`
	LabelEN            string     `json:"label_en_US,omitempty"`
	Country            string     `json:"country,omitempty"`
	CountryFR          string     `json:"country_fr,omitempty"`
	CountryEN          string     `json:"country_en,omitempty"`
	CountryID          FlexString `json:"country_id,omitempty"`
	ExternalIdentifier string     `json:"external_identifier,omitempty"`
	Newsletter         FlexBool   `json:"is_newsletter_subscribed,omitempty"`
	Type               FlexString `json:"type,omitempty"`
	MID                FlexString `json:"mid,omitempty"`
}

// RawNote is a free-text note attached to a contact, as stored by the CMS.
type RawNote struct {
	ID           FlexString `json:"id"`
	EntityTable  string     `json:"entity_table,omitempty"`
	EntityID     FlexString `json:"entity_id,omitempty"`
	ContactID    FlexString `json:"contact_id,omitempty"`
	Subject      string     `json:"subject,omitempty"`
	Note         string     `json:"note,omitempty"`
	Privacy      FlexString `json:"privacy,omitempty"`
	NoteDate     string     `json:"note_date,omitempty"`
	CreatedDate  string     `json:"created_date,omitempty"`
	ModifiedDate string     `json:"modified_date,omitempty"`
}

// RawMembership is one membership period of a contact.
type RawMembership struct {
	ID          FlexString `json:"id"`
	ContactID   FlexString `json:"contact_id,omitempty"`
	Role        string     `json:"role,omitempty"`
	MemberState string     `json:"member_state,omitempty"`
	StartDate   string     `json:"start_date,omitempty"`
	EndDate     string     `json:"end_date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// RawActivity is one activity-log entry of a contact.
type RawActivity struct {
	ActivityID        FlexString `json:"activity_id"`
	Subject           string     `json:"subject,omitempty"`
	ActivityDateTime  string     `json:"activity_date_time,omitempty"`
	StatusID          FlexString `json:"status_id,omitempty"`
	StatusLabel       string     `json:"status_label,omitempty"`
	ActivityTypeID    FlexString `json:"activity_type_id,omitempty"`
	ActivityTypeLabel string     `json:"activity_type_label,omitempty"`
}

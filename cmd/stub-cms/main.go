// stub-cms is a fake Joomla CMS for local development. It answers the same
// front-controller tasks as the real backend with hardcoded fixture data,
// including the backend's quirks: duplicate ids, HTML contact fragments, and
// DD/MM/YYYY dates.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

var delegates = []map[string]interface{}{
	{
		"id":                       "101",
		"first_name":               "Marie",
		"last_name":                "Dupont",
		"fullname":                 "Marie Dupont",
		"job_title":                "Commissioner General",
		"start_date":               "15/03/2022",
		"country":                  "France",
		"country_fr":               "France",
		"country_en":               "France",
		"preferred_language":       "fr_FR",
		"email":                    "marie.dupont@example.org",
		"mails":                    `<a href="mailto:marie.dupont@example.org">marie.dupont@example.org</a><br/><a href="mailto:m.dupont@expo.example.org">m.dupont@expo.example.org</a>`,
		"phones":                   "+33 1 45 00 38 00<br>+33 6 12 34 56 78",
		"is_newsletter_subscribed": "1",
	},
	{
		"id":                       102,
		"first_name":               "John",
		"last_name":                "Carter",
		"fullname":                 "John Carter",
		"start_date":               "01/06/2019",
		"end_date":                 "30/09/2023",
		"country":                  "United Kingdom",
		"preferred_language":       "english",
		"email":                    "john.carter@example.co.uk",
		"is_newsletter_subscribed": 0,
	},
	// Re-exported contact: same id as above, fresher data. The real backend
	// does this and the server must keep the later row.
	{
		"id":                       "102",
		"first_name":               "John",
		"last_name":                "Carter",
		"fullname":                 "John Carter",
		"job_title":                "Deputy Delegate",
		"start_date":               "01/06/2019",
		"end_date":                 "30/09/2023",
		"country":                  "United Kingdom",
		"preferred_language":       "en_US",
		"email":                    "john.carter@example.co.uk",
		"is_newsletter_subscribed": 0,
	},
	{
		"id":                       "103",
		"first_name":               "Zoé",
		"last_name":                "Kourouma",
		"fullname":                 "Zoé Kourouma",
		"start_date":               "02/11/2024",
		"country":                  "Guinea",
		"preferred_language":       "french",
		"mails":                    `<a href="mailto:z.kourouma@example.gn">z.kourouma@example.gn</a>`,
		"is_newsletter_subscribed": true,
	},
	// Broken row with no id: the server must drop it without failing the batch.
	{
		"fullname": "Orphan Row",
	},
}

var notes = map[string][]map[string]interface{}{
	"101": {
		{
			"id":            "9001",
			"contact_id":    "101",
			"subject":       "GA 2025",
			"note":          "Confirmed attendance for the June General Assembly.",
			"created_date":  "2025-05-02 10:15:00",
			"modified_date": "2025-05-04 09:00:00",
		},
		{
			"id":            "9002",
			"contact_id":    "101",
			"note":          "Prefers correspondence in French.",
			"created_date":  "2024-11-20 16:40:00",
			"modified_date": "2024-11-20 16:40:00",
		},
	},
}

var memberships = map[string][]map[string]interface{}{
	"101": {
		{
			"id":           "501",
			"contact_id":   "101",
			"role":         "Delegate",
			"member_state": "France",
			"start_date":   "15/03/2022",
		},
	},
	"102": {
		{
			"id":           "502",
			"contact_id":   "102",
			"role":         "Deputy Delegate",
			"member_state": "United Kingdom",
			"start_date":   "01/06/2019",
			"end_date":     "30/09/2023",
		},
	},
}

var activities = map[string][]map[string]interface{}{
	"101": {
		{
			"activity_id":         "7001",
			"subject":             "Registered for GA 2025",
			"activity_date_time":  "2025-05-02 10:15:00",
			"activity_type_label": "Event Registration",
			"status_label":        "Completed",
		},
	},
}

func reply(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func fail(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}

func findDelegate(id string) map[string]interface{} {
	for i := len(delegates) - 1; i >= 0; i-- {
		d := delegates[i]
		switch v := d["id"].(type) {
		case string:
			if v == id {
				return d
			}
		case int:
			if id == "" {
				continue
			}
			if jsonNumber(v) == id {
				return d
			}
		}
	}
	return nil
}

func jsonNumber(v int) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func main() {
	log.Println("stub-cms: fake Joomla backend with HARDCODED fixtures (local dev only)")

	http.HandleFunc("/index.php", func(w http.ResponseWriter, r *http.Request) {
		task := r.URL.Query().Get("task")
		switch task {
		case "delegates.getList":
			reply(w, delegates)
		case "contact.getContact":
			d := findDelegate(r.URL.Query().Get("id"))
			if d == nil {
				fail(w, "contact not found")
				return
			}
			reply(w, d)
		case "contact.getNotesByContactId":
			reply(w, map[string]interface{}{"notes": notes[r.URL.Query().Get("contact_id")]})
		case "contact.addNoteByContactId":
			if r.Method != http.MethodPost {
				fail(w, "POST required")
				return
			}
			reply(w, map[string]string{"status": "saved"})
		case "contact.getMembershipByContactId":
			reply(w, map[string]interface{}{"memberships": memberships[r.URL.Query().Get("contact_id")]})
		case "contact.getActivitysByContactId":
			reply(w, map[string]interface{}{"activities": activities[r.URL.Query().Get("contact_id")]})
		case "contact.getIdentityCardUrl":
			reply(w, map[string]string{"url": "http://localhost:9800/cards/" + r.URL.Query().Get("cid") + ".pdf"})
		default:
			fail(w, "unknown task: "+task)
		}
	})

	addr := os.Getenv("STUB_CMS_ADDR")
	if addr == "" {
		addr = ":9800"
	}
	log.Printf("stub-cms listening on %s (point JOOMLA_BASE_URL at http://localhost%s/index.php)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}

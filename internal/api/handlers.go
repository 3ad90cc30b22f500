package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bie-paris/delegate-directory/internal/directory"
	"github.com/bie-paris/delegate-directory/internal/joomla"
)

// Gateway is the per-contact slice of the CMS client the handlers call
// through. Injected so tests can use doubles.
type Gateway interface {
	GetDelegateByID(ctx context.Context, id int64) (*joomla.RawDelegate, error)
	GetNotesByContactID(ctx context.Context, contactID int64) ([]joomla.RawNote, error)
	CreateNote(ctx context.Context, contactID int64, subject, body string) error
	GetMembershipsByContactID(ctx context.Context, contactID int64) ([]joomla.RawMembership, error)
	GetActivitiesByContactID(ctx context.Context, contactID int64) ([]joomla.RawActivity, error)
	GetIdentityCardURL(ctx context.Context, contactID int64) (string, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	service *directory.Service
	gateway Gateway
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service *directory.Service, gateway Gateway) *Handlers {
	return &Handlers{service: service, gateway: gateway}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck reports liveness plus the freshness of the collection.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"timestamp":  time.Now(),
		"delegates":  h.service.Pipeline().Len(),
		"last_fetch": h.service.LastFetch(),
		"stale":      h.service.Stale(),
	})
}

// applyListControls pushes the request's query parameters into the pipeline.
// Absent parameters keep their previous values so the UI can send only what
// changed.
func (h *Handlers) applyListControls(r *http.Request) {
	p := h.service.Pipeline()
	q := r.URL.Query()

	filter, _, page, pageSize := p.Controls()

	if q.Has("search") {
		filter.Search = q.Get("search")
	}
	if q.Has("tab") {
		filter.Tab = directory.Tab(q.Get("tab"))
	}
	if q.Has("member_state") {
		filter.MemberState = q.Get("member_state")
	}
	if q.Has("newsletter") {
		filter.Newsletter = directory.NewsletterFilter(q.Get("newsletter"))
	}
	p.SetFilter(filter)

	if q.Has("sort") {
		p.SetSort(directory.SortKey(q.Get("sort")))
	}
	if q.Has("page_size") {
		if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n != pageSize {
			p.SetPageSize(n)
		}
	}
	if q.Has("page") {
		if n, err := strconv.Atoi(q.Get("page")); err == nil && n != page {
			p.SetPage(n)
		}
	}
}

// GetDelegates returns the derived list view plus headline stats.
func (h *Handlers) GetDelegates(w http.ResponseWriter, r *http.Request) {
	h.applyListControls(r)

	p := h.service.Pipeline()
	view := p.Derive()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"delegates":       view.Delegates,
		"total":           view.Total,
		"total_pages":     view.TotalPages,
		"page":            view.Page,
		"page_size":       view.PageSize,
		"stats":           p.Stats(),
		"member_states":   p.MemberStates(),
		"last_fetch":      h.service.LastFetch(),
		"stale":           h.service.Stale(),
		"dropped_records": h.service.DroppedCount(),
		"error":           h.service.LastError(),
	})
}

// GetDelegateStats returns the headline counters over the whole collection.
func (h *Handlers) GetDelegateStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Pipeline().Stats())
}

// TriggerRefresh fetches the delegate list immediately.
func (h *Handlers) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "refreshed",
		"total":      h.service.Pipeline().Len(),
		"last_fetch": h.service.LastFetch(),
	})
}

func contactID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// GetDelegate returns one delegate's full detail, freshly fetched from the
// CMS rather than from the list collection: the list export omits fields the
// profile dialog shows.
func (h *Handlers) GetDelegate(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid delegate id")
		return
	}

	raw, err := h.gateway.GetDelegateByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	delegate, err := directory.Normalize(*raw)
	if err != nil {
		respondError(w, http.StatusNotFound, "delegate record is unusable")
		return
	}
	respondJSON(w, http.StatusOK, delegate)
}

// GetDelegateNotes returns a delegate's notes, newest modification first,
// each flagged when modified within the last week.
func (h *Handlers) GetDelegateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid delegate id")
		return
	}

	raws, err := h.gateway.GetNotesByContactID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	notes := directory.NormalizeNotes(raws, time.Now())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"total": len(notes),
	})
}

type createNoteRequest struct {
	Subject string `json:"subject"`
	Note    string `json:"note"`
}

// CreateDelegateNote attaches a note to a delegate. The note list is not
// updated locally: the client refetches it so the view always matches server
// truth.
func (h *Handlers) CreateDelegateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid delegate id")
		return
	}

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Note = strings.TrimSpace(req.Note)
	if req.Note == "" {
		respondError(w, http.StatusBadRequest, "note text is required")
		return
	}

	if err := h.gateway.CreateNote(r.Context(), id, strings.TrimSpace(req.Subject), req.Note); err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
	})
}

// GetDelegateMemberships returns a delegate's membership history.
func (h *Handlers) GetDelegateMemberships(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid delegate id")
		return
	}

	raws, err := h.gateway.GetMembershipsByContactID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"memberships": directory.NormalizeMemberships(raws),
	})
}

// GetDelegateActivities returns a delegate's activity log.
func (h *Handlers) GetDelegateActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid delegate id")
		return
	}

	raws, err := h.gateway.GetActivitiesByContactID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"activities": directory.NormalizeActivities(raws),
	})
}

// GetDelegateIdentityCard asks the CMS to generate an identity card and
// returns its download URL.
func (h *Handlers) GetDelegateIdentityCard(w http.ResponseWriter, r *http.Request) {
	id, ok := contactID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid delegate id")
		return
	}

	url, err := h.gateway.GetIdentityCardURL(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

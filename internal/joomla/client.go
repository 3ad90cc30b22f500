package joomla

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bie-paris/delegate-directory/internal/pkg/httpretry"
)

const defaultComponent = "com_bie_membersf"

// Client is the Joomla CMS API client. Every task goes through the same
// front-controller endpoint with option/format/task query parameters.
type Client struct {
	baseURL    string
	component  string
	token      string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new CMS API client
func NewClient(config Config) *Client {
	component := config.Component
	if component == "" {
		component = defaultComponent
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   config.BaseURL,
		component: component,
		token:     config.Token,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// buildURL assembles the front-controller URL for a task.
func (c *Client) buildURL(task string, extra url.Values) string {
	params := url.Values{}
	params.Set("option", c.component)
	params.Set("format", "json")
	params.Set("task", task)
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return c.baseURL + "?" + params.Encode()
}

// doTask performs a request for the given task and decodes the response
// envelope. A non-2xx status or a success:false payload yields a *FetchError;
// on success the raw data member is returned for the caller to decode.
func (c *Client) doTask(ctx context.Context, method, task string, params url.Values, form url.Values) (json.RawMessage, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(task, params), body)
	if err != nil {
		return nil, &FetchError{Task: task, Message: "failed to create request", Err: err}
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Task: task, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Task: task, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Task: task, Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &FetchError{Task: task, Status: resp.StatusCode, Message: "malformed response envelope", Err: err}
	}

	if !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, &FetchError{Task: task, Status: resp.StatusCode, Message: msg}
	}

	return envelope.Data, nil
}

// GetAllDelegates retrieves the full delegate list. The CMS treats limit=0 as
// "no limit"; the caller owns deduplication and normalization.
func (c *Client) GetAllDelegates(ctx context.Context) ([]RawDelegate, error) {
	const task = "delegates.getList"

	params := url.Values{}
	params.Set("limit", "0")

	data, err := c.doTask(ctx, http.MethodGet, task, params, nil)
	if err != nil {
		return nil, err
	}

	var delegates []RawDelegate
	if err := json.Unmarshal(data, &delegates); err != nil {
		return nil, &FetchError{Task: task, Message: "failed to parse delegate list", Err: err}
	}
	return delegates, nil
}

// GetDelegateByID retrieves a single contact record.
func (c *Client) GetDelegateByID(ctx context.Context, id int64) (*RawDelegate, error) {
	const task = "contact.getContact"

	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))

	data, err := c.doTask(ctx, http.MethodGet, task, params, nil)
	if err != nil {
		return nil, err
	}

	var delegate RawDelegate
	if err := json.Unmarshal(data, &delegate); err != nil {
		return nil, &FetchError{Task: task, Message: "failed to parse contact", Err: err}
	}
	return &delegate, nil
}

// GetNotesByContactID retrieves all notes attached to a contact.
func (c *Client) GetNotesByContactID(ctx context.Context, contactID int64) ([]RawNote, error) {
	const task = "contact.getNotesByContactId"

	params := url.Values{}
	params.Set("contact_id", strconv.FormatInt(contactID, 10))

	data, err := c.doTask(ctx, http.MethodGet, task, params, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Notes []RawNote `json:"notes"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &FetchError{Task: task, Message: "failed to parse notes", Err: err}
	}
	return payload.Notes, nil
}

// CreateNote attaches a free-text note to a contact. The CMS returns nothing
// useful beyond the envelope; callers must refetch the note list instead of
// appending locally, so the served notes always match server truth.
func (c *Client) CreateNote(ctx context.Context, contactID int64, subject, body string) error {
	const task = "contact.addNoteByContactId"

	form := url.Values{}
	form.Set("contact_id", strconv.FormatInt(contactID, 10))
	form.Set("subject", subject)
	form.Set("note", body)

	_, err := c.doTask(ctx, http.MethodPost, task, nil, form)
	return err
}

// GetMembershipsByContactID retrieves the membership history of a contact.
func (c *Client) GetMembershipsByContactID(ctx context.Context, contactID int64) ([]RawMembership, error) {
	const task = "contact.getMembershipByContactId"

	params := url.Values{}
	params.Set("contact_id", strconv.FormatInt(contactID, 10))

	data, err := c.doTask(ctx, http.MethodGet, task, params, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Memberships []RawMembership `json:"memberships"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &FetchError{Task: task, Message: "failed to parse memberships", Err: err}
	}
	return payload.Memberships, nil
}

// GetActivitiesByContactID retrieves the activity log of a contact.
func (c *Client) GetActivitiesByContactID(ctx context.Context, contactID int64) ([]RawActivity, error) {
	const task = "contact.getActivitysByContactId"

	params := url.Values{}
	params.Set("contact_id", strconv.FormatInt(contactID, 10))

	data, err := c.doTask(ctx, http.MethodGet, task, params, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Activities []RawActivity `json:"activities"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &FetchError{Task: task, Message: "failed to parse activities", Err: err}
	}
	return payload.Activities, nil
}

// GetIdentityCardURL asks the CMS to generate an identity card for a contact
// and returns the download URL.
func (c *Client) GetIdentityCardURL(ctx context.Context, contactID int64) (string, error) {
	const task = "contact.getIdentityCardUrl"

	params := url.Values{}
	params.Set("cid", strconv.FormatInt(contactID, 10))

	data, err := c.doTask(ctx, http.MethodGet, task, params, nil)
	if err != nil {
		return "", err
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", &FetchError{Task: task, Message: "failed to parse identity card response", Err: err}
	}
	if payload.URL == "" {
		return "", &FetchError{Task: task, Message: "no identity card URL returned"}
	}
	return payload.URL, nil
}

// HealthCheck performs a cheap API reachability check.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.doTask(ctx, http.MethodGet, "delegates.getList", url.Values{"limit": {"1"}}, nil)
	if err != nil {
		return fmt.Errorf("cms health check: %w", err)
	}
	return nil
}

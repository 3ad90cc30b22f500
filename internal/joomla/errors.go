package joomla

import "fmt"

// FetchError is returned for every boundary failure against the CMS: network
// errors, non-2xx responses, and success:false payloads. The pipeline turns it
// into user-visible error state; it is never fatal.
type FetchError struct {
	Task    string // CMS task that failed, e.g. "delegates.getList"
	Status  int    // HTTP status, 0 for network-level failures
	Message string // backend message or a short description
	Err     error  // underlying error, if any
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("joomla: %s failed (status %d): %s", e.Task, e.Status, e.Message)
	}
	return fmt.Sprintf("joomla: %s failed: %s", e.Task, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

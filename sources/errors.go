package sources

import (
	"errors"
	"fmt"
)

// ErrBundleRepair is returned when the bundle text is still not valid JSON
// after every repair pass.
var ErrBundleRepair = errors.New("bundle json could not be repaired")

// NetworkError is a transport-level failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Source string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error calling %s: %v", e.Source, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response.
type APIError struct {
	Source     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d: %s", e.Source, e.URL, e.StatusCode, e.Body)
}

// Package fetch provides the HTTP fetcher used for both Libris and
// Goodreads requests.
package fetch

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher retrieves the raw body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError is returned when a request completed with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s was not successful, returned %d %s",
		e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Transient reports whether the status indicates the service pushed back and
// the request may succeed later.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusServiceUnavailable
}

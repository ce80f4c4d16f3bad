package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout is returned when a product page does not answer within the
// configured fetch timeout.
type ErrTimeout struct {
	URL string
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection is returned when the storefront host cannot be reached
// (DNS, refused or reset connections).
type ErrConnection struct {
	URL string
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Sprintf("fetch %s: unreachable: %v", e.URL, e.Err)
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrForbidden maps a 403, usually the storefront's bot wall.
type ErrForbidden struct {
	URL string
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Sprintf("fetch %s: blocked (403): %v", e.URL, e.Err)
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrNotFound maps a 404: the listing was removed or the short link expired.
type ErrNotFound struct {
	URL string
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("fetch %s: product not found (404): %v", e.URL, e.Err)
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrRateLimited maps a 429.
type ErrRateLimited struct {
	URL string
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Sprintf("fetch %s: rate limited (429): %v", e.URL, e.Err)
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrHTTPStatus covers every other answer that is not 200, redirects
// excluded since those are followed.
type ErrHTTPStatus struct {
	URL        string
	StatusCode int
	Err        error
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
}

func (e ErrHTTPStatus) Unwrap() error {
	return e.Err
}

// errorTypeLabel names the failure for logs and the error_type metric label.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		return "http_status"
	}
	return "other"
}

// classifyError wraps a failed fetch of url. statusCode is the last status
// seen, zero when no response arrived.
func classifyError(url string, err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{URL: url, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{URL: url, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{URL: url, Err: err}
	}

	if statusCode != 0 && statusCode != http.StatusOK {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{URL: url, Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{URL: url, Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{URL: url, Err: wrapped}
		default:
			return ErrHTTPStatus{URL: url, StatusCode: statusCode, Err: wrapped}
		}
	}

	return err
}

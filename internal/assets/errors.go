package assets

import (
	"errors"
	"fmt"
)

var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrBadStatus        = errors.New("unexpected HTTP status")
	ErrMalformedData    = errors.New("malformed inline image data")
	// ErrCacheDir wraps failures to create or write a cache directory.
	ErrCacheDir = errors.New("cache directory not writable")
)

// FetchError is a failed download or decode of one image. It never aborts
// the surrounding cache operation.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", shorten(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// shorten keeps inline data URIs out of log lines.
func shorten(src string) string {
	const max = 64
	if len(src) <= max {
		return src
	}
	return src[:max] + "..."
}

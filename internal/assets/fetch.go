// Package assets mirrors remote images to local files: the two branding
// images printed on receipts and a bulk mirror of product images.
package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	DefaultMaxRedirects = 5
	DefaultTimeout      = 30 * time.Second
)

// Fetcher writes an image from an HTTP(S) URL or a base64 data URI to a
// local file. A failed fetch never leaves a partial file behind.
type Fetcher struct {
	client       *http.Client
	maxRedirects int
}

// NewFetcher returns a Fetcher whose requests, including redirect hops,
// are each bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			// redirects are followed by fetch so the hop count is ours
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxRedirects: DefaultMaxRedirects,
	}
}

// Fetch writes src to dest, replacing any existing file.
func (f *Fetcher) Fetch(ctx context.Context, src, dest string) error {
	var err error
	if isDataURI(src) {
		err = writeDataURI(src, dest)
	} else {
		err = f.download(ctx, src, dest, f.maxRedirects)
	}
	if err != nil {
		os.Remove(dest)
		return &FetchError{URL: src, Err: err}
	}
	return nil
}

// download follows at most redirectsLeft redirects before giving up.
func (f *Fetcher) download(ctx context.Context, rawURL, dest string, redirectsLeft int) error {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			resp.Body.Close()
			if location == "" {
				return fmt.Errorf("%w: %d without Location", ErrBadStatus, resp.StatusCode)
			}
			if redirectsLeft == 0 {
				return ErrTooManyRedirects
			}
			next, err := resp.Request.URL.Parse(location)
			if err != nil {
				return err
			}
			rawURL = next.String()
			redirectsLeft--
			continue
		}

		err = writeBody(resp, dest)
		resp.Body.Close()
		return err
	}
}

func writeBody(resp *http.Response, dest string) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isDataURI(src string) bool {
	return strings.HasPrefix(strings.ToLower(src), "data:")
}

// writeDataURI decodes data:[<mediatype>];base64,<payload> into dest.
func writeDataURI(src, dest string) error {
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok || !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return ErrMalformedData
	}

	payload = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, payload)
	if unescaped, err := url.PathUnescape(payload); err == nil {
		payload = unescaped
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil || len(data) == 0 {
		return errors.Join(ErrMalformedData, err)
	}
	return os.WriteFile(dest, data, 0o644)
}

package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirectServer answers /hop/N with a redirect to /hop/N-1 and /hop/0 with content.
func redirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hop/"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if n == 0 {
			fmt.Fprint(w, "final")
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n-1), http.StatusFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFollowsUpToFiveRedirects(t *testing.T) {
	srv := redirectServer(t)
	dest := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, NewFetcher(5*time.Second).Fetch(context.Background(), srv.URL+"/hop/5", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "final", string(data))
}

func TestFetchTooManyRedirects(t *testing.T) {
	srv := redirectServer(t)
	dest := filepath.Join(t.TempDir(), "out.png")

	err := NewFetcher(5*time.Second).Fetch(context.Background(), srv.URL+"/hop/6", dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyRedirects)

	var ferr *FetchError
	assert.ErrorAs(t, err, &ferr)
	assert.NoFileExists(t, dest)
}

func TestFetchBadStatusRemovesExistingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	err := NewFetcher(5*time.Second).Fetch(context.Background(), srv.URL+"/x.png", dest)
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.NoFileExists(t, dest)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	dest := filepath.Join(t.TempDir(), "out.png")
	err := NewFetcher(100*time.Millisecond).Fetch(context.Background(), srv.URL+"/slow.png", dest)
	assert.Error(t, err)
	assert.NoFileExists(t, dest)
}

func TestWriteDataURI(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr bool
	}{
		{"padded", "data:image/png;base64,aGVsbG8=", "hello", false},
		{"unpadded", "data:image/png;base64,aGVsbG8", "hello", false},
		{"wrapped", "data:image/png;base64,aGVs\nbG8=", "hello", false},
		{"not base64", "data:text/plain,hello", "", true},
		{"no comma", "data:image/png;base64", "", true},
		{"garbage", "data:image/png;base64,!!!", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(dir, tt.name)
			err := NewFetcher(time.Second).Fetch(context.Background(), tt.uri, dest)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedData)
				assert.NoFileExists(t, dest)
				return
			}
			require.NoError(t, err)
			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

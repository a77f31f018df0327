package assets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

// imageServer serves a small body per path and counts requests.
type imageServer struct {
	*httptest.Server
	mu    sync.Mutex
	calls map[string]int
}

func newImageServer(t *testing.T) *imageServer {
	t.Helper()
	s := &imageServer{calls: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.mu.Unlock()

		switch r.URL.Path {
		case "/missing.png":
			http.NotFound(w, r)
		default:
			fmt.Fprintf(w, "image:%s", r.URL.Path)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *imageServer) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *imageServer) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func newTestCache(t *testing.T, now *time.Time) *Cache {
	t.Helper()
	c := NewCache(filepath.Join(t.TempDir(), "assets"), NewFetcher(5*time.Second), nil)
	c.now = func() time.Time { return *now }
	return c
}

func TestEnsureAssetsSecondCallIsCached(t *testing.T) {
	srv := newImageServer(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	c := newTestCache(t, &now)
	ctx := context.Background()

	first, err := c.EnsureAssets(ctx, srv.URL+"/logo.png", srv.URL+"/qr.png")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.NotNil(t, first.LogoPath)
	require.NotNil(t, first.QRPath)
	assert.Equal(t, 2, srv.total())

	logo, err := os.ReadFile(*first.LogoPath)
	require.NoError(t, err)
	assert.Equal(t, "image:/logo.png", string(logo))

	now = now.Add(6 * time.Hour)
	second, err := c.EnsureAssets(ctx, srv.URL+"/logo.png", srv.URL+"/qr.png")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 2, srv.total(), "second call must not touch the network")
	assert.Equal(t, *first.LogoPath, *second.LogoPath)
}

func TestEnsureAssetsChangedURLRefetchesOnlyThatAsset(t *testing.T) {
	srv := newImageServer(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	c := newTestCache(t, &now)
	ctx := context.Background()

	_, err := c.EnsureAssets(ctx, srv.URL+"/logo.png", srv.URL+"/qr.png")
	require.NoError(t, err)

	res, err := c.EnsureAssets(ctx, srv.URL+"/logo.png", srv.URL+"/qr-v2.png")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, srv.count("/logo.png"))
	assert.Equal(t, 1, srv.count("/qr-v2.png"))

	qr, err := os.ReadFile(*res.QRPath)
	require.NoError(t, err)
	assert.Equal(t, "image:/qr-v2.png", string(qr))

	again, err := c.EnsureAssets(ctx, srv.URL+"/logo.png", srv.URL+"/qr-v2.png")
	require.NoError(t, err)
	assert.True(t, again.Cached)
}

func TestEnsureAssetsNewDayRefetches(t *testing.T) {
	srv := newImageServer(t)
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.Local)
	c := newTestCache(t, &now)
	ctx := context.Background()

	_, err := c.EnsureAssets(ctx, srv.URL+"/logo.png", "")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	res, err := c.EnsureAssets(ctx, srv.URL+"/logo.png", "")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Nil(t, res.QRPath)
	assert.Equal(t, 2, srv.count("/logo.png"))
}

func TestEnsureAssetsFailureIsScopedToOneAsset(t *testing.T) {
	srv := newImageServer(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	c := newTestCache(t, &now)

	res, err := c.EnsureAssets(context.Background(), srv.URL+"/missing.png", srv.URL+"/qr.png")
	require.NoError(t, err)
	assert.Nil(t, res.LogoPath)
	require.NotNil(t, res.QRPath)
	assert.NoFileExists(t, c.Path(model.AssetLogo))

	data, err := os.ReadFile(filepath.Join(c.dir, metadataFile))
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Empty(t, meta.LogoURL)
	assert.Equal(t, srv.URL+"/qr.png", meta.QRURL)

	assets := c.Assets()
	require.Len(t, assets, 1)
	assert.Equal(t, model.AssetQR, assets[0].Kind)
}

func TestEnsureAssetsSkipsMetadataWhenEverythingFailed(t *testing.T) {
	srv := newImageServer(t)
	now := time.Now()
	c := newTestCache(t, &now)

	res, err := c.EnsureAssets(context.Background(), srv.URL+"/missing.png", "")
	require.NoError(t, err)
	assert.Nil(t, res.LogoPath)
	assert.NoFileExists(t, filepath.Join(c.dir, metadataFile))
}

func TestEnsureAssetsDecodesDataURI(t *testing.T) {
	now := time.Now()
	c := newTestCache(t, &now)
	payload := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	res, err := c.EnsureAssets(context.Background(), uri, "data:image/png;base64,@@@")
	require.NoError(t, err)
	require.NotNil(t, res.LogoPath)
	assert.Nil(t, res.QRPath)

	got, err := os.ReadFile(*res.LogoPath)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEnsureAssetsNothingRequested(t *testing.T) {
	now := time.Now()
	c := newTestCache(t, &now)

	res, err := c.EnsureAssets(context.Background(), "", "")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Nil(t, res.LogoPath)
	assert.Nil(t, res.QRPath)
	assert.DirExists(t, c.dir)
}

func TestSameDay(t *testing.T) {
	base := time.Date(2026, 3, 10, 0, 0, 1, 0, time.Local)
	assert.True(t, sameDay(base, base.Add(23*time.Hour)))
	assert.False(t, sameDay(base, base.Add(24*time.Hour)))
	assert.False(t, sameDay(time.Time{}, base))
}

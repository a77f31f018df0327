package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

func newTestBulkCache(t *testing.T) *BulkCache {
	t.Helper()
	return NewBulkCache(filepath.Join(t.TempDir(), "images"), NewFetcher(5*time.Second), 4, nil)
}

func TestDownloadAllOmitsFailedItems(t *testing.T) {
	srv := newImageServer(t)
	b := newTestBulkCache(t)

	items := []model.BulkImageItem{
		{ID: "1", Type: "product", URL: srv.URL + "/a.png"},
		{ID: "2", Type: "product", URL: srv.URL + "/missing.png"},
		{ID: "3", Type: "category", URL: srv.URL + "/c.webp?v=2"},
		{ID: "4", Type: "product", URL: srv.URL + "/d"},
		{ID: "5", Type: "product", URL: ""},
	}

	mapping, err := b.DownloadAll(context.Background(), items)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		srv.URL + "/a.png":      "product_1.png",
		srv.URL + "/c.webp?v=2": "category_3.webp",
		srv.URL + "/d":          "product_4.jpg",
	}, mapping)

	for _, name := range mapping {
		assert.FileExists(t, filepath.Join(b.Dir(), name))
	}
	assert.NoFileExists(t, filepath.Join(b.Dir(), "product_2.png"))
}

func TestDownloadAllSkipsFilesOnDisk(t *testing.T) {
	srv := newImageServer(t)
	b := newTestBulkCache(t)
	require.NoError(t, os.MkdirAll(b.Dir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(b.Dir(), "product_1.png"), []byte("local"), 0o644))

	mapping, err := b.DownloadAll(context.Background(), []model.BulkImageItem{
		{ID: "1", Type: "product", URL: srv.URL + "/a.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "product_1.png", mapping[srv.URL+"/a.png"])
	assert.Zero(t, srv.total())
}

func TestClearAllThenRepopulate(t *testing.T) {
	srv := newImageServer(t)
	b := newTestBulkCache(t)
	items := []model.BulkImageItem{{ID: "9", Type: "product", URL: srv.URL + "/a.jpeg"}}

	_, err := b.DownloadAll(context.Background(), items)
	require.NoError(t, err)

	require.NoError(t, b.ClearAll())
	assert.NoDirExists(t, b.Dir())

	mapping, err := b.DownloadAll(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, "product_9.jpeg", mapping[srv.URL+"/a.jpeg"])
	assert.Equal(t, 2, srv.count("/a.jpeg"))
}

func TestDownloadAllBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		fmt.Fprint(w, "x")
	}))
	defer srv.Close()

	var items []model.BulkImageItem
	for i := 0; i < 10; i++ {
		items = append(items, model.BulkImageItem{ID: fmt.Sprint(i), Type: "product", URL: fmt.Sprintf("%s/%d.png", srv.URL, i)})
	}

	mapping, err := newTestBulkCache(t).DownloadAll(context.Background(), items)
	require.NoError(t, err)
	assert.Len(t, mapping, 10)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int32(DefaultBatchSize))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		item model.BulkImageItem
		want string
	}{
		{model.BulkImageItem{ID: "42", Type: "product", URL: "https://cdn.example.com/x/pizza.PNG"}, "product_42.png"},
		{model.BulkImageItem{ID: "7", Type: "category", URL: "https://cdn.example.com/x/pic.gif?w=200"}, "category_7.gif"},
		{model.BulkImageItem{ID: "7", Type: "category", URL: "https://cdn.example.com/x/file.svg"}, "category_7.jpg"},
		{model.BulkImageItem{ID: "../../etc/passwd", Type: "product", URL: "https://x/y.jpg"}, "product_----etcpasswd.jpg"},
		{model.BulkImageItem{ID: "", Type: "", URL: "https://x/y"}, "image_unknown.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.item), tt.item.ID)
	}
}

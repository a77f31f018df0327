package assets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/metrics"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

const DefaultBatchSize = 4

var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
	"gif":  true,
}

// BulkCache mirrors product images under one directory. Presence of a
// file is the only record kept; there is no metadata or expiry.
type BulkCache struct {
	dir       string
	fetcher   *Fetcher
	batchSize int
	logger    *slog.Logger
}

func NewBulkCache(dir string, fetcher *Fetcher, batchSize int, logger *slog.Logger) *BulkCache {
	if fetcher == nil {
		fetcher = NewFetcher(DefaultTimeout)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BulkCache{
		dir:       dir,
		fetcher:   fetcher,
		batchSize: batchSize,
		logger:    logging.OrDiscard(logger).With("component", "bulk-cache"),
	}
}

func (b *BulkCache) Dir() string { return b.dir }

// DownloadAll mirrors items batch by batch and maps each available URL to
// its local file name. Items that fail are logged and left out; callers
// fall back to the remote URL for them.
func (b *BulkCache) DownloadAll(ctx context.Context, items []model.BulkImageItem) (map[string]string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheDir, err)
	}

	var mu sync.Mutex
	mapping := make(map[string]string, len(items))
	downloaded, failed := 0, 0

	for start := 0; start < len(items); start += b.batchSize {
		end := min(start+b.batchSize, len(items))

		var g errgroup.Group
		for _, item := range items[start:end] {
			if item.URL == "" {
				continue
			}
			g.Go(func() error {
				name := FileName(item)
				dest := filepath.Join(b.dir, name)

				if !exists(dest) {
					if err := b.fetcher.Fetch(ctx, item.URL, dest); err != nil {
						b.logger.Warn("image download failed", "id", item.ID, "type", item.Type, "error", err)
						metrics.Downloads.WithLabelValues("bulk", metrics.ResultFailure).Inc()
						mu.Lock()
						failed++
						mu.Unlock()
						return nil
					}
					metrics.Downloads.WithLabelValues("bulk", metrics.ResultSuccess).Inc()
					mu.Lock()
					downloaded++
					mu.Unlock()
				}

				mu.Lock()
				mapping[item.URL] = name
				mu.Unlock()
				return nil
			})
		}
		g.Wait()

		if err := ctx.Err(); err != nil {
			break
		}
	}

	b.logger.Info("bulk image sync finished",
		"requested", len(items),
		"available", len(mapping),
		"downloaded", downloaded,
		"failed", failed,
	)
	return mapping, nil
}

// ClearAll removes the whole image directory.
func (b *BulkCache) ClearAll() error {
	if err := os.RemoveAll(b.dir); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheDir, err)
	}
	b.logger.Info("bulk image cache cleared")
	return nil
}

// FileName derives the local name from type, id and the URL's extension.
func FileName(item model.BulkImageItem) string {
	kind := sanitize(item.Type)
	if kind == "" {
		kind = "image"
	}
	id := sanitize(item.ID)
	if id == "" {
		id = "unknown"
	}
	return kind + "_" + id + "." + extension(item.URL)
}

func extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if imageExtensions[ext] {
		return ext
	}
	return "jpg"
}

// sanitize keeps names portable across file systems.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		case r == '_' || r == '.' || r == ' ':
			return '-'
		}
		return -1
	}, strings.TrimSpace(s))
}

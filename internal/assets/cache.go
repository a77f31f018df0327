package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Riboost-Studio/pos-device-bridge/internal/logging"
	"github.com/Riboost-Studio/pos-device-bridge/internal/metrics"
	"github.com/Riboost-Studio/pos-device-bridge/internal/model"
)

const (
	logoFile     = "logo.png"
	qrFile       = "qr.png"
	metadataFile = "metadata.json"
)

// Metadata is persisted next to the branding images.
type Metadata struct {
	LastFetch time.Time `json:"lastFetch"`
	LogoURL   string    `json:"logoUrl"`
	QRURL     string    `json:"qrUrl"`
}

func (m Metadata) url(kind model.AssetKind) string {
	if kind == model.AssetLogo {
		return m.LogoURL
	}
	return m.QRURL
}

func (m *Metadata) setURL(kind model.AssetKind, u string) {
	if kind == model.AssetLogo {
		m.LogoURL = u
	} else {
		m.QRURL = u
	}
}

// Cache mirrors the store logo and payment QR. An asset is reused without
// a network call only when it was fetched today from the same URL and its
// file is still on disk.
type Cache struct {
	dir     string
	fetcher *Fetcher
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

func NewCache(dir string, fetcher *Fetcher, logger *slog.Logger) *Cache {
	if fetcher == nil {
		fetcher = NewFetcher(DefaultTimeout)
	}
	return &Cache{
		dir:     dir,
		fetcher: fetcher,
		logger:  logging.OrDiscard(logger).With("component", "asset-cache"),
		now:     time.Now,
	}
}

// Path returns the fixed local path of an asset kind.
func (c *Cache) Path(kind model.AssetKind) string {
	if kind == model.AssetLogo {
		return filepath.Join(c.dir, logoFile)
	}
	return filepath.Join(c.dir, qrFile)
}

type assetRequest struct {
	kind model.AssetKind
	url  string
	err  error
}

// EnsureAssets makes the requested images available locally. An empty URL
// means the asset is not wanted. A fetch failure only drops that asset
// from the result; the returned error is reserved for filesystem failures.
// Calls are serialized.
func (c *Cache) EnsureAssets(ctx context.Context, logoURL, qrURL string) (model.BrandingAssets, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return model.BrandingAssets{}, fmt.Errorf("%w: %v", ErrCacheDir, err)
	}

	now := c.now()
	meta := c.loadMetadata()

	var wanted []*assetRequest
	if logoURL != "" {
		wanted = append(wanted, &assetRequest{kind: model.AssetLogo, url: logoURL})
	}
	if qrURL != "" {
		wanted = append(wanted, &assetRequest{kind: model.AssetQR, url: qrURL})
	}

	var stale []*assetRequest
	for _, a := range wanted {
		if !c.fresh(meta, a, now) {
			stale = append(stale, a)
		}
	}

	if len(stale) == 0 {
		metrics.AssetCache.WithLabelValues(metrics.ResultHit).Inc()
		return c.result(wanted, true), nil
	}
	metrics.AssetCache.WithLabelValues(metrics.ResultMiss).Inc()

	var g errgroup.Group
	for _, a := range stale {
		g.Go(func() error {
			path := c.Path(a.kind)
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				a.err = fmt.Errorf("%w: %v", ErrCacheDir, err)
				return nil
			}
			a.err = c.fetcher.Fetch(ctx, a.url, path)
			return nil
		})
	}
	g.Wait()

	next := Metadata{LastFetch: now}
	succeeded := 0
	for _, a := range wanted {
		if a.err != nil {
			c.logger.Warn("branding asset fetch failed", "asset", a.kind, "error", a.err)
			metrics.Downloads.WithLabelValues("branding", metrics.ResultFailure).Inc()
			continue
		}
		next.setURL(a.kind, a.url)
		if contains(stale, a) {
			succeeded++
			metrics.Downloads.WithLabelValues("branding", metrics.ResultSuccess).Inc()
		}
	}

	assets := c.result(wanted, false)
	if succeeded == 0 {
		return assets, nil
	}
	if err := c.saveMetadata(next); err != nil {
		return assets, err
	}
	c.logger.Info("branding assets refreshed", "fetched", succeeded, "failed", len(stale)-succeeded)
	return assets, nil
}

// Assets reports the recorded state of both branding images.
func (c *Cache) Assets() []model.CachedAsset {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta := c.loadMetadata()
	out := make([]model.CachedAsset, 0, 2)
	for _, kind := range []model.AssetKind{model.AssetLogo, model.AssetQR} {
		if meta.url(kind) == "" || !exists(c.Path(kind)) {
			continue
		}
		out = append(out, model.CachedAsset{
			Kind:      kind,
			Path:      c.Path(kind),
			SourceURL: meta.url(kind),
			LastFetch: meta.LastFetch,
		})
	}
	return out
}

func (c *Cache) fresh(meta Metadata, a *assetRequest, now time.Time) bool {
	return sameDay(meta.LastFetch, now) &&
		meta.url(a.kind) == a.url &&
		exists(c.Path(a.kind))
}

func (c *Cache) result(wanted []*assetRequest, cached bool) model.BrandingAssets {
	res := model.BrandingAssets{Cached: cached}
	for _, a := range wanted {
		if a.err != nil {
			continue
		}
		path := c.Path(a.kind)
		if a.kind == model.AssetLogo {
			res.LogoPath = &path
		} else {
			res.QRPath = &path
		}
	}
	return res
}

func (c *Cache) loadMetadata() Metadata {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(c.dir, metadataFile))
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		c.logger.Warn("ignoring unreadable asset metadata", "error", err)
		return Metadata{}
	}
	return meta
}

func (c *Cache) saveMetadata(meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(c.dir, metadataFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: %v", ErrCacheDir, err)
	}
	return nil
}

// sameDay compares calendar days in the local time zone.
func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	a, b = a.Local(), b.Local()
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func contains(list []*assetRequest, a *assetRequest) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

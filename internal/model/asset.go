package model

import "time"

type AssetKind string

const (
	AssetLogo AssetKind = "logo"
	AssetQR   AssetKind = "qr"
)

// CachedAsset describes the on-disk mirror of one branding image.
type CachedAsset struct {
	Kind      AssetKind `json:"kind"`
	Path      string    `json:"path"`
	SourceURL string    `json:"sourceUrl"`
	LastFetch time.Time `json:"lastFetch"`
}

// BrandingAssets is the result of ensuring the logo and QR images.
// A nil path means the asset was not requested or could not be fetched.
type BrandingAssets struct {
	LogoPath *string `json:"logoPath"`
	QRPath   *string `json:"qrPath"`
	Cached   bool    `json:"cached"`
}

// BulkImageItem is one remote image requested for the bulk mirror.
type BulkImageItem struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

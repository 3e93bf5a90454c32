// Package cache provides a small key/value cache for preprocessed images.
//
// Decoding, resizing and bordering an input image is the expensive part of
// a collage run, and it is fully determined by the source file's bytes and
// the preprocessing options. The loader therefore stores each preprocessed
// rectangle (PNG-encoded) keyed by a content hash, so repeated runs over
// the same directory skip the decode work entirely.
//
// Two implementations are provided: FileCache for normal CLI use and
// NullCache when caching is disabled.
package cache

import (
	"context"
	"time"
)

// TTLRectangle is how long a preprocessed rectangle stays valid. The key
// already includes a content hash, so the TTL only bounds disk usage for
// files that no longer exist.
const TTLRectangle = 30 * 24 * time.Hour

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// RectKeyOpts are the preprocessing options that shape a cached rectangle.
// Any option that changes the output pixels must be part of the key.
type RectKeyOpts struct {
	StandardWidth int `json:"standard_width"`
	BorderSize    int `json:"border_size"`
}

// RectKey generates the cache key for a preprocessed rectangle.
// fileHash is the SHA-256 hash of the source file's bytes.
func RectKey(fileHash string, opts RectKeyOpts) string {
	return hashKey("rect:"+fileHash, opts)
}

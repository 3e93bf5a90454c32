// Package httputil provides HTTP utilities for fetching remote images.
//
// # Overview
//
// This package provides the infrastructure behind URL inputs:
//
//   - [Fetch]: Download an image over HTTP with sane limits
//   - [Retry]: Automatic retry with exponential backoff
//
// # Retry
//
// [Retry] wraps operations with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// [Fetch] classifies these as [RetryableError], so a full download is
//
//	data, err := httputil.Fetch(ctx, url)
//
// with up to three attempts and exponential backoff between them.
//
// Fetched bytes are not cached here; the preprocessing cache keys on the
// content hash, so a refetched identical image still hits downstream.
package httputil

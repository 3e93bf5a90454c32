// Package pkg provides the core libraries for building image collages.
//
// # Overview
//
// Collagen packs a directory of independently sized images onto a single
// canvas that grows only as much as each placement requires. The pkg
// directory is organized by pipeline stage:
//
//  1. [source] - Input loading (enumerate, decode, resize, border)
//  2. [packer] - Greedy placement and canvas growth
//  3. [canvas] - The growing image surface and its pixel classification
//  4. [pipeline] - Orchestration (load → pack → encode)
//  5. [snapshot] - Optional per-step canvas snapshots
//
// # Architecture
//
// The typical data flow:
//
//	Image directory / URLs
//	         ↓
//	    [source] package (decode, scale to standard width, white border)
//	         ↓
//	    [packer] package (sort, scan for anchors, grow canvas)
//	         ↓
//	    [pipeline] package (encode PNG/JPEG artifacts)
//
// # Quick Start
//
// Build a collage from a directory:
//
//	import (
//	    "context"
//	    "github.com/lheinrich/collagen/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil)
//	result, _ := runner.Execute(context.Background(), pipeline.Options{
//	    Dir: "./photos",
//	})
//	_ = os.WriteFile("collage.png", result.Artifacts["png"], 0644)
//
// # Main Packages
//
// [source] - Loads local files and http(s) URLs, proportionally resizes
// every image to a standard width, and wraps it in the white border the
// placement scan recognizes as anchor material.
//
// [packer] - The placement engine. Images are sorted (largest first by
// default), the first seeds the canvas, and each following image lands at
// the first background pixel adjacent to placed content, growing the canvas
// minimally when nothing fits.
//
// [canvas] - The collage surface. Unclaimed pixels are opaque black and
// white pixels mark rectangle borders; placement decisions read these
// sentinel colors directly.
//
// ## Infrastructure
//
// [cache] - File-based cache for preprocessed rectangles keyed by source
// content hash and preprocessing options.
//
// [httputil] - HTTP fetching with retry and backoff for remote inputs.
//
// [observability] - Process-global hooks for pipeline, cache, and HTTP
// events.
//
// [errors] - Structured errors with stable codes and user-facing messages.
//
// [snapshot] - Writes numbered canvas snapshots into a per-run directory,
// optionally annotated with the step number and canvas size.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/packer/...   # Specific package
//
// [source]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/source
// [packer]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/packer
// [canvas]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/canvas
// [pipeline]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/pipeline
// [snapshot]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/snapshot
// [cache]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/observability
// [errors]: https://pkg.go.dev/github.com/lheinrich/collagen/pkg/errors
package pkg

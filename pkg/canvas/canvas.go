// Package canvas implements the growing composite pixel buffer that images
// are packed onto.
//
// A Canvas is an exclusively owned RGBA buffer. It is never shared between
// components: growth returns a fresh buffer with the old content copied to
// the origin, and the old canvas is discarded by the caller.
//
// # Sentinel Colors
//
// Two colors are load-bearing. Pure black marks unoccupied background, and
// pure white marks the padding edge of a placed image. Classification looks
// at the R, G and B channels only. Input images containing these exact
// colors near their edges can be misread as background or border during
// placement; this matches the reference behavior and is a documented hazard
// rather than something this package tries to correct.
package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lheinrich/collagen/pkg/errors"
)

// Sentinel colors used by the placement scan.
var (
	// Background marks unoccupied canvas space.
	Background = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

	// BorderMarker marks the padding edge of a placed image.
	BorderMarker = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Canvas is a mutable composite pixel buffer with exclusive ownership
// semantics. The zero value is not usable; construct with New or FromImage.
type Canvas struct {
	img *image.NRGBA
}

// New creates a canvas of the given size filled with the background color.
func New(width, height int) *Canvas {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	fillBackground(img)
	return &Canvas{img: img}
}

// FromImage creates a canvas seeded with a copy of src. The canvas takes the
// exact dimensions of src; no padding or recoloring is applied.
func FromImage(src image.Image) *Canvas {
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Canvas{img: img}
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.img.Rect.Dx() }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Area returns the canvas area in pixels.
func (c *Canvas) Area() int { return c.Width() * c.Height() }

// Image exposes the underlying buffer for encoding. The caller must not
// retain the returned image across a Grow.
func (c *Canvas) Image() *image.NRGBA { return c.img }

// Clone returns an independent copy of the canvas.
func (c *Canvas) Clone() *Canvas {
	img := image.NewNRGBA(c.img.Rect)
	copy(img.Pix, c.img.Pix)
	return &Canvas{img: img}
}

// Grow allocates a new canvas of the requested size, copies the current
// content to the top-left origin, and returns the new canvas. The previous
// canvas must be discarded by the caller. Canvas dimensions never shrink;
// requesting a smaller dimension is an internal invariant violation.
func (c *Canvas) Grow(width, height int) (*Canvas, error) {
	if width < c.Width() || height < c.Height() {
		return nil, errors.New(errors.ErrCodeInternal,
			"canvas cannot shrink: %dx%d to %dx%d", c.Width(), c.Height(), width, height)
	}
	grown := New(width, height)
	draw.Draw(grown.img, c.img.Rect, c.img, image.Point{}, draw.Src)
	return grown, nil
}

// Paste copies src into the canvas with its top-left corner at (x, y).
// The copy is atomic from the caller's perspective: Paste is only invoked
// after the footprint has been verified to fit and be empty.
func (c *Canvas) Paste(src image.Image, x, y int) {
	b := src.Bounds()
	dst := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(c.img, dst, src, b.Min, draw.Src)
}

// IsBackground reports whether the pixel at (x, y) is background.
// Alpha is ignored, matching the reference classification.
func (c *Canvas) IsBackground(x, y int) bool {
	i := c.img.PixOffset(x, y)
	return c.img.Pix[i] == 0 && c.img.Pix[i+1] == 0 && c.img.Pix[i+2] == 0
}

// isMarker reports whether the pixel at (x, y) is a border marker.
func (c *Canvas) isMarker(x, y int) bool {
	i := c.img.PixOffset(x, y)
	return c.img.Pix[i] == 255 && c.img.Pix[i+1] == 255 && c.img.Pix[i+2] == 255
}

// HasMarkerNeighbor reports whether any 4-connected neighbor of (x, y) is a
// border-marker pixel. Neighbors outside the canvas are excluded.
func (c *Canvas) HasMarkerNeighbor(x, y int) bool {
	neighbors := [4][2]int{
		{x - 1, y}, // left
		{x + 1, y}, // right
		{x, y - 1}, // above
		{x, y + 1}, // below
	}
	for _, n := range neighbors {
		nx, ny := n[0], n[1]
		if nx < 0 || ny < 0 || nx >= c.Width() || ny >= c.Height() {
			continue
		}
		if c.isMarker(nx, ny) {
			return true
		}
	}
	return false
}

// RegionEmpty reports whether every pixel of the width x height footprint at
// (x, y) is background. A footprint extending past the canvas edge is
// clipped to the in-bounds portion before testing; it is not treated as
// automatically non-empty.
func (c *Canvas) RegionEmpty(x, y, width, height int) bool {
	if x+width > c.Width() {
		width = c.Width() - x
	}
	if y+height > c.Height() {
		height = c.Height() - y
	}
	for j := y; j < y+height; j++ {
		for i := x; i < x+width; i++ {
			if !c.IsBackground(i, j) {
				return false
			}
		}
	}
	return true
}

// fillBackground sets every pixel to opaque black.
func fillBackground(img *image.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 255
	}
}

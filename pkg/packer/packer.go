// Package packer implements the greedy collage placement algorithm.
//
// The packer arranges a list of preprocessed rectangles onto a single
// growing canvas. The largest rectangle seeds the canvas; every following
// rectangle is placed against the padding border of already-placed content,
// growing the canvas by the smallest possible area when nothing fits.
//
// # Algorithm
//
// For each rectangle the canvas is scanned in row-major order. A background
// pixel whose 4-neighborhood touches a border-marker pixel is an anchor
// candidate. If the rectangle's footprint at that anchor is empty and inside
// the current bounds, it is placed immediately (first hit wins). If the
// footprint is empty but sticks out past the edge, the minimal canvas size
// accommodating it is recorded as a growth candidate; after the scan the
// candidate with the smallest area delta wins, the canvas grows, and the
// scan repeats. With no candidate at all, the canvas grows along its longer
// dimension. The grow-and-retry cycle is an explicit loop bounded by
// Options.MaxGrowthSteps rather than recursion.
//
// This is a greedy heuristic: the result is tightly packed but not
// guaranteed minimal-area, and rectangles are never rotated.
package packer

import (
	"context"
	"image"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/lheinrich/collagen/pkg/canvas"
	"github.com/lheinrich/collagen/pkg/errors"
)

// DefaultMaxGrowthSteps bounds the grow-and-retry loop per rectangle.
// Growth strictly increases canvas area, so hitting this cap means an
// upstream invariant was violated.
const DefaultMaxGrowthSteps = 256

// Rectangle is a sized pixel buffer waiting to be placed on the canvas.
// It is produced by preprocessing and consumed exactly once by placement.
type Rectangle struct {
	// Image holds the pixel content, padding border included.
	Image *image.NRGBA

	// Source is the originating file path, used for logging only.
	Source string
}

// Width returns the rectangle width in pixels.
func (r Rectangle) Width() int { return r.Image.Rect.Dx() }

// Height returns the rectangle height in pixels.
func (r Rectangle) Height() int { return r.Image.Rect.Dy() }

// Area returns the rectangle area in pixels.
func (r Rectangle) Area() int { return r.Width() * r.Height() }

// Order selects how rectangles are sorted before placement.
type Order int

// Ordering modes. Sorting is descending and stable: rectangles that compare
// equal keep their original relative order.
const (
	// OrderArea sorts by pixel area, largest first (the default).
	OrderArea Order = iota

	// OrderWidth sorts by width, widest first.
	OrderWidth
)

// String returns the CLI name of the ordering mode.
func (o Order) String() string {
	switch o {
	case OrderWidth:
		return "width"
	default:
		return "area"
	}
}

// ParseOrder converts a CLI string into an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "area", "":
		return OrderArea, nil
	case "width":
		return OrderWidth, nil
	default:
		return OrderArea, errors.New(errors.ErrCodeInvalidOrder,
			"invalid ordering mode: %q (must be one of: area, width)", s)
	}
}

// StepFunc is called after each insertion with the 1-based step number and
// the canvas as it stands. The canvas must not be retained; clone it if the
// callback needs to keep pixels around. Returning an error aborts the build.
type StepFunc func(step int, c *canvas.Canvas) error

// Options configures a Builder.
type Options struct {
	// Order selects the insertion order (default OrderArea).
	Order Order

	// MaxGrowthSteps caps the grow-and-retry loop per rectangle.
	// Zero means DefaultMaxGrowthSteps.
	MaxGrowthSteps int

	// OnStep, if set, is invoked after every insertion. Used for progress
	// snapshots; not part of the algorithm's correctness contract.
	OnStep StepFunc

	// Logger receives debug output. Nil disables logging.
	Logger *log.Logger
}

// Builder packs rectangles onto a canvas.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder with the given options.
func NewBuilder(opts Options) *Builder {
	if opts.MaxGrowthSteps <= 0 {
		opts.MaxGrowthSteps = DefaultMaxGrowthSteps
	}
	return &Builder{opts: opts}
}

// Build places every rectangle and returns the final canvas.
//
// Rectangles are sorted descending by the configured order; the largest
// seeds the canvas unchanged. The input slice is not modified. Build fails
// with EMPTY_INPUT on an empty list and with PLACEMENT_FAILED if the growth
// loop exceeds its iteration cap. The context is checked between
// insertions; packing a single rectangle is not interruptible.
func (b *Builder) Build(ctx context.Context, rects []Rectangle) (*canvas.Canvas, error) {
	if len(rects) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "no rectangles to place")
	}

	ordered := make([]Rectangle, len(rects))
	copy(ordered, rects)
	b.sortRects(ordered)

	c := canvas.FromImage(ordered[0].Image)
	b.logf("seeded canvas", "source", ordered[0].Source, "width", c.Width(), "height", c.Height())

	for i, r := range ordered[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		placed, err := b.place(c, r)
		if err != nil {
			return nil, err
		}
		c = placed

		step := i + 1
		b.logf("placed rectangle", "step", step, "source", r.Source,
			"canvas_width", c.Width(), "canvas_height", c.Height())

		if b.opts.OnStep != nil {
			if err := b.opts.OnStep(step, c); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// sortRects sorts descending by the configured order. The sort is stable so
// equal rectangles keep their original relative order.
func (b *Builder) sortRects(rects []Rectangle) {
	switch b.opts.Order {
	case OrderWidth:
		sort.SliceStable(rects, func(i, j int) bool {
			return rects[i].Width() > rects[j].Width()
		})
	default:
		sort.SliceStable(rects, func(i, j int) bool {
			return rects[i].Area() > rects[j].Area()
		})
	}
}

// growth describes a deferred placement that needs a larger canvas.
type growth struct {
	width, height int
}

// place puts one rectangle onto the canvas, growing it as needed, and
// returns the resulting canvas. The input canvas is consumed: on growth the
// original buffer is replaced and must not be used again.
func (b *Builder) place(c *canvas.Canvas, r Rectangle) (*canvas.Canvas, error) {
	for attempt := 0; attempt < b.opts.MaxGrowthSteps; attempt++ {
		at, grow, found := b.scan(c, r)
		if found {
			c.Paste(r.Image, at.X, at.Y)
			return c, nil
		}

		var target growth
		if grow != nil {
			target = *grow
		} else if c.Width() > c.Height() {
			// No anchor admits this rectangle even with growth: extend
			// along the longer dimension and rescan.
			target = growth{c.Width(), c.Height() + r.Height()}
		} else {
			target = growth{c.Width() + r.Width(), c.Height()}
		}

		b.logf("growing canvas", "source", r.Source,
			"from_width", c.Width(), "from_height", c.Height(),
			"to_width", target.width, "to_height", target.height)

		grown, err := c.Grow(target.width, target.height)
		if err != nil {
			return nil, err
		}
		c = grown
	}

	return nil, errors.New(errors.ErrCodePlacementFailed,
		"placement of %s did not converge after %d growth steps", r.Source, b.opts.MaxGrowthSteps)
}

// scan walks the canvas in row-major order looking for a position for r.
//
// It returns (position, nil, true) for an immediate in-bounds placement,
// or (zero, growth, false) for the minimal-delta growth candidate when the
// rectangle only fits past the current bounds, or (zero, nil, false) when
// no anchor admits the rectangle at all.
func (b *Builder) scan(c *canvas.Canvas, r Rectangle) (image.Point, *growth, bool) {
	cw, ch := c.Width(), c.Height()
	rw, rh := r.Width(), r.Height()

	// The best delta starts at the rectangle's own area; growth candidates
	// that would add more than that are not worth deferring to, matching
	// the reference behavior exactly.
	bestDelta := rw * rh
	var best *growth

	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			if !c.IsBackground(x, y) {
				continue
			}
			if !c.HasMarkerNeighbor(x, y) {
				continue
			}
			if !c.RegionEmpty(x, y, rw, rh) {
				continue
			}

			if x+rw <= cw && y+rh <= ch {
				// First qualifying anchor in scan order wins.
				return image.Point{X: x, Y: y}, nil, true
			}

			tw := max(x+rw+1, cw)
			th := max(y+rh+1, ch)
			delta := tw*th - cw*ch
			if delta < bestDelta {
				bestDelta = delta
				best = &growth{width: tw, height: th}
			}
		}
	}

	return image.Point{}, best, false
}

// logf logs at debug level when a logger is configured.
func (b *Builder) logf(msg string, kv ...any) {
	if b.opts.Logger != nil {
		b.opts.Logger.Debug(msg, kv...)
	}
}

package packer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/lheinrich/collagen/pkg/canvas"
	"github.com/lheinrich/collagen/pkg/errors"
)

// bordered builds a w x h rectangle: a solid fill color surrounded by a
// one-pixel white border, mimicking what preprocessing hands the packer.
func bordered(w, h int, fill color.NRGBA) Rectangle {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(canvas.BorderMarker), image.Point{}, draw.Src)
	inner := image.Rect(1, 1, w-1, h-1)
	draw.Draw(img, inner, image.NewUniform(fill), image.Point{}, draw.Src)
	return Rectangle{Image: img, Source: "test"}
}

// countColor counts pixels of exactly color want in the canvas.
func countColor(c *canvas.Canvas, want color.NRGBA) int {
	img := c.Image()
	n := 0
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			if img.NRGBAAt(x, y) == want {
				n++
			}
		}
	}
	return n
}

var (
	fillA = color.NRGBA{R: 200, G: 40, B: 40, A: 255}
	fillB = color.NRGBA{R: 40, G: 200, B: 40, A: 255}
	fillC = color.NRGBA{R: 40, G: 40, B: 200, A: 255}
)

func TestBuildEmptyInput(t *testing.T) {
	b := NewBuilder(Options{})
	_, err := b.Build(context.Background(), nil)
	if err == nil {
		t.Fatal("empty input should fail")
	}
	if !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Errorf("error code = %q, want EMPTY_INPUT", errors.GetCode(err))
	}
}

func TestBuildSingleRectangle(t *testing.T) {
	r := bordered(10, 10, fillA)
	b := NewBuilder(Options{})

	c, err := b.Build(context.Background(), []Rectangle{r})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// The seed is copied unchanged: exact dimensions, no padding added.
	if c.Width() != 10 || c.Height() != 10 {
		t.Fatalf("canvas = %dx%d, want 10x10", c.Width(), c.Height())
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if got := c.Image().NRGBAAt(x, y); got != r.Image.NRGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, r.Image.NRGBAAt(x, y))
			}
		}
	}
}

func TestBuildTwoRectangles(t *testing.T) {
	rects := []Rectangle{
		bordered(10, 10, fillA),
		bordered(4, 4, fillB),
	}
	b := NewBuilder(Options{})

	c, err := b.Build(context.Background(), rects)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if c.Width() < 10 || c.Height() < 10 {
		t.Errorf("canvas = %dx%d, must be at least 10x10", c.Width(), c.Height())
	}

	// Area lower bound: both footprints fit without overlap.
	if c.Area() < 10*10+4*4 {
		t.Errorf("canvas area %d below sum of rectangle areas", c.Area())
	}

	// No overlap: every interior pixel of each rectangle survives.
	if got := countColor(c, fillA); got != 8*8 {
		t.Errorf("seed interior pixel count = %d, want %d", got, 8*8)
	}
	if got := countColor(c, fillB); got != 2*2 {
		t.Errorf("second rectangle interior pixel count = %d, want %d", got, 2*2)
	}
}

func TestBuildAreaTieKeepsInputOrder(t *testing.T) {
	// 8x4 and 4x8 have equal area; the stable sort must keep the input
	// order, so the first one seeds the canvas.
	rects := []Rectangle{
		bordered(8, 4, fillA),
		bordered(4, 8, fillB),
	}
	b := NewBuilder(Options{Order: OrderArea})

	c, err := b.Build(context.Background(), rects)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// The 8x4 seed grows along its longer dimension (width > height grows
	// height), so the final width stays 8 while height increases.
	if c.Width() != 8 {
		t.Errorf("canvas width = %d, want 8 (8x4 must seed)", c.Width())
	}
	if c.Height() < 4 {
		t.Errorf("canvas height = %d, want at least 4", c.Height())
	}
}

func TestBuildWidthOrder(t *testing.T) {
	// With width ordering the 12x3 rectangle seeds despite its smaller area.
	rects := []Rectangle{
		bordered(6, 10, fillA), // area 60
		bordered(12, 3, fillB), // area 36, but wider
	}
	b := NewBuilder(Options{Order: OrderWidth})

	c, err := b.Build(context.Background(), rects)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Width() != 12 {
		t.Errorf("canvas width = %d, want 12 (widest rectangle seeds)", c.Width())
	}
}

func TestBuildMinimalGrowth(t *testing.T) {
	// Seed with a crafted canvas: columns 0-14 occupied, column 15 a white
	// border, columns 16-19 background. The 5x5 rectangle is anchored at
	// (16,0), exceeds the right edge, and must trigger the minimal growth
	// candidate (22x10) rather than the longer-dimension fallback.
	seedImg := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	gray := color.NRGBA{R: 120, G: 120, B: 120, A: 255}
	draw.Draw(seedImg, image.Rect(0, 0, 15, 10), image.NewUniform(gray), image.Point{}, draw.Src)
	draw.Draw(seedImg, image.Rect(15, 0, 16, 10), image.NewUniform(canvas.BorderMarker), image.Point{}, draw.Src)
	draw.Draw(seedImg, image.Rect(16, 0, 20, 10), image.NewUniform(canvas.Background), image.Point{}, draw.Src)

	rects := []Rectangle{
		{Image: seedImg, Source: "seed"},
		bordered(5, 5, fillB),
	}
	b := NewBuilder(Options{})

	c, err := b.Build(context.Background(), rects)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Minimal growth for anchor (16,0): (max(16+5+1, 20), max(0+5+1, 10)).
	if c.Width() != 22 || c.Height() != 10 {
		t.Errorf("canvas = %dx%d, want 22x10 (minimal growth, no over-allocation)", c.Width(), c.Height())
	}

	// The rectangle landed at the anchor.
	if got := c.Image().NRGBAAt(16, 0); got != canvas.BorderMarker {
		t.Errorf("pixel (16,0) = %v, want border marker of placed rectangle", got)
	}
	if got := countColor(c, fillB); got != 3*3 {
		t.Errorf("placed interior pixel count = %d, want 9", got)
	}
}

func TestBuildMonotonicGrowthAndPreservation(t *testing.T) {
	rects := []Rectangle{
		bordered(12, 9, fillA),
		bordered(6, 6, fillB),
		bordered(5, 4, fillC),
	}

	var widths, heights []int
	b := NewBuilder(Options{OnStep: func(step int, c *canvas.Canvas) error {
		widths = append(widths, c.Width())
		heights = append(heights, c.Height())
		return nil
	}})

	c, err := b.Build(context.Background(), rects)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(widths) != 2 {
		t.Fatalf("OnStep called %d times, want 2", len(widths))
	}
	for i := 1; i < len(widths); i++ {
		if widths[i] < widths[i-1] || heights[i] < heights[i-1] {
			t.Errorf("canvas shrank between steps: %dx%d then %dx%d",
				widths[i-1], heights[i-1], widths[i], heights[i])
		}
	}

	// Content preservation: the seed still sits unchanged at the origin.
	seed := rects[0].Image
	for y := 0; y < 9; y++ {
		for x := 0; x < 12; x++ {
			if got := c.Image().NRGBAAt(x, y); got != seed.NRGBAAt(x, y) {
				t.Fatalf("seed pixel (%d,%d) changed after growth: %v", x, y, got)
			}
		}
	}

	// No rectangle lost pixels to overlap.
	if countColor(c, fillA) != 10*7 || countColor(c, fillB) != 4*4 || countColor(c, fillC) != 3*2 {
		t.Error("interior pixel counts changed; rectangles overlap or were cropped")
	}
	if c.Area() < 12*9+6*6+5*4 {
		t.Errorf("canvas area %d below sum of rectangle areas", c.Area())
	}
}

func TestBuildDeterministic(t *testing.T) {
	make3 := func() []Rectangle {
		return []Rectangle{
			bordered(11, 8, fillA),
			bordered(7, 7, fillB),
			bordered(4, 9, fillC),
		}
	}

	run := func() (*canvas.Canvas, []int) {
		var sizes []int
		b := NewBuilder(Options{OnStep: func(step int, c *canvas.Canvas) error {
			sizes = append(sizes, c.Width(), c.Height())
			return nil
		}})
		c, err := b.Build(context.Background(), make3())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return c, sizes
	}

	c1, sizes1 := run()
	c2, sizes2 := run()

	if c1.Width() != c2.Width() || c1.Height() != c2.Height() {
		t.Fatalf("canvas dimensions differ between runs: %dx%d vs %dx%d",
			c1.Width(), c1.Height(), c2.Width(), c2.Height())
	}
	if !bytes.Equal(c1.Image().Pix, c2.Image().Pix) {
		t.Error("canvas pixels differ between identical runs")
	}
	for i := range sizes1 {
		if sizes1[i] != sizes2[i] {
			t.Fatalf("canvas size sequence differs at %d: %v vs %v", i, sizes1, sizes2)
		}
	}
}

func TestBuildGrowthCap(t *testing.T) {
	// With a cap of one the first placement grows once, never rescans, and
	// must surface PLACEMENT_FAILED instead of looping.
	rects := []Rectangle{
		bordered(10, 10, fillA),
		bordered(4, 4, fillB),
	}
	b := NewBuilder(Options{MaxGrowthSteps: 1})

	_, err := b.Build(context.Background(), rects)
	if err == nil {
		t.Fatal("expected failure with growth cap of 1")
	}
	if !errors.Is(err, errors.ErrCodePlacementFailed) {
		t.Errorf("error code = %q, want PLACEMENT_FAILED", errors.GetCode(err))
	}
}

func TestBuildStepErrorAborts(t *testing.T) {
	rects := []Rectangle{
		bordered(10, 10, fillA),
		bordered(4, 4, fillB),
	}
	want := errors.New(errors.ErrCodeInternal, "snapshot sink full")
	b := NewBuilder(Options{OnStep: func(step int, c *canvas.Canvas) error {
		return want
	}})

	_, err := b.Build(context.Background(), rects)
	if err == nil || !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("step error not propagated: %v", err)
	}
}

func TestBuildContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rects := []Rectangle{
		bordered(10, 10, fillA),
		bordered(4, 4, fillB),
	}
	b := NewBuilder(Options{})

	if _, err := b.Build(ctx, rects); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Order
		wantErr bool
	}{
		{"area", "area", OrderArea, false},
		{"width", "width", OrderWidth, false},
		{"empty defaults to area", "", OrderArea, false},
		{"invalid", "alphabetical", OrderArea, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrder(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOrder(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseOrder(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidOrder) {
				t.Errorf("error code = %q, want INVALID_ORDER", errors.GetCode(err))
			}
		})
	}
}

func TestOrderString(t *testing.T) {
	if OrderArea.String() != "area" || OrderWidth.String() != "width" {
		t.Errorf("Order.String() = %q/%q, want area/width", OrderArea, OrderWidth)
	}
}

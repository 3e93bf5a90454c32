package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/lheinrich/collagen/pkg/errors"
	"github.com/lheinrich/collagen/pkg/packer"
	"github.com/lheinrich/collagen/pkg/source"
)

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fill := color.NRGBA{R: 40, G: 120, B: 200, A: 255}
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"missing input", Options{}, errors.ErrCodeInvalidInput},
		{"dir is enough", Options{Dir: "x"}, ""},
		{"files are enough", Options{Files: []string{"a.png"}}, ""},
		{"bad order", Options{Dir: "x", Order: "spiral"}, errors.ErrCodeInvalidOrder},
		{"bad policy", Options{Dir: "x", Policy: "retry"}, errors.ErrCodeInvalidPolicy},
		{"bad format", Options{Dir: "x", Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"bad filter", Options{Dir: "x", Filter: ".png"}, errors.ErrCodeInvalidInput},
		{"negative border", Options{Dir: "x", BorderSize: -1, BorderSet: true}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestDefaultsApplied(t *testing.T) {
	opts := Options{Dir: "x"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}

	if opts.StandardWidth != source.DefaultStandardWidth {
		t.Errorf("StandardWidth = %d, want %d", opts.StandardWidth, source.DefaultStandardWidth)
	}
	if opts.BorderSize != source.DefaultBorderSize {
		t.Errorf("BorderSize = %d, want %d", opts.BorderSize, source.DefaultBorderSize)
	}
	if opts.MaxGrowthSteps != packer.DefaultMaxGrowthSteps {
		t.Errorf("MaxGrowthSteps = %d, want %d", opts.MaxGrowthSteps, packer.DefaultMaxGrowthSteps)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatPNG {
		t.Errorf("Formats = %v, want [png]", opts.Formats)
	}
	if opts.ParsedOrder() != packer.OrderArea {
		t.Errorf("order = %v, want area", opts.ParsedOrder())
	}
	if opts.ParsedPolicy() != source.DecodeSkip {
		t.Errorf("policy = %v, want skip", opts.ParsedPolicy())
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestExplicitZeroBorder(t *testing.T) {
	opts := Options{Dir: "x", BorderSize: 0, BorderSet: true}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.BorderSize != 0 {
		t.Errorf("explicit zero border was overridden to %d", opts.BorderSize)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	opts := Options{Dir: "x", StandardWidth: 32}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	first := opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if opts.StandardWidth != first.StandardWidth || len(opts.Formats) != len(first.Formats) {
		t.Error("second validation changed the options")
	}
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 12, 8)
	writePNG(t, dir, "b.png", 10, 10)
	writePNG(t, dir, "c.png", 8, 8)

	runner := NewRunner(nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Dir:           dir,
		StandardWidth: 16,
		BorderSize:    2,
		Formats:       []string{FormatPNG, FormatJPEG},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.ImageCount != 3 {
		t.Errorf("ImageCount = %d, want 3", result.Stats.ImageCount)
	}
	if result.Stats.SkippedCount != 0 {
		t.Errorf("SkippedCount = %d, want 0", result.Stats.SkippedCount)
	}
	if result.Canvas == nil {
		t.Fatal("Execute returned no canvas")
	}
	if result.Stats.CanvasWidth != result.Canvas.Width() ||
		result.Stats.CanvasHeight != result.Canvas.Height() {
		t.Error("stats dimensions disagree with the canvas")
	}

	pngData, ok := result.Artifacts[FormatPNG]
	if !ok {
		t.Fatal("missing png artifact")
	}
	decoded, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		t.Fatalf("png artifact does not decode: %v", err)
	}
	if decoded.Bounds().Dx() != result.Canvas.Width() {
		t.Errorf("png width = %d, want %d", decoded.Bounds().Dx(), result.Canvas.Width())
	}

	jpegData, ok := result.Artifacts[FormatJPEG]
	if !ok {
		t.Fatal("missing jpeg artifact")
	}
	if _, err := jpeg.Decode(bytes.NewReader(jpegData)); err != nil {
		t.Fatalf("jpeg artifact does not decode: %v", err)
	}
}

func TestExecuteExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 12, 8)
	writePNG(t, dir, "b.png", 10, 10)
	writePNG(t, dir, "ignored.png", 20, 20)

	runner := NewRunner(nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Files: []string{
			filepath.Join(dir, "a.png"),
			filepath.Join(dir, "b.png"),
		},
		StandardWidth: 16,
		BorderSize:    2,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.ImageCount != 2 {
		t.Errorf("ImageCount = %d, want 2 (explicit files only)", result.Stats.ImageCount)
	}
}

func TestExecuteWritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 12, 8)
	writePNG(t, dir, "b.png", 10, 10)
	writePNG(t, dir, "c.png", 8, 8)

	snapRoot := t.TempDir()
	runner := NewRunner(nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Dir:           dir,
		StandardWidth: 16,
		BorderSize:    2,
		SnapshotDir:   snapRoot,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.SnapshotDir == "" {
		t.Fatal("SnapshotDir not reported")
	}
	entries, err := os.ReadDir(result.SnapshotDir)
	if err != nil {
		t.Fatalf("read snapshot dir: %v", err)
	}
	// Three rectangles means two insertions after the seed.
	if len(entries) != 2 {
		t.Errorf("snapshot count = %d, want 2", len(entries))
	}
}

func TestExecuteEmptyDirectory(t *testing.T) {
	runner := NewRunner(nil, nil)
	defer runner.Close()

	_, err := runner.Execute(context.Background(), Options{Dir: t.TempDir()})
	if !errors.Is(err, errors.ErrCodeEmptyInput) {
		t.Errorf("error = %v, want EMPTY_INPUT", err)
	}
}

func TestEncodeRejectsUnknownFormat(t *testing.T) {
	if err := ValidateFormat("bmp"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

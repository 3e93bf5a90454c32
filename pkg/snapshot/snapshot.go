// Package snapshot writes numbered per-insertion images of a growing
// collage canvas. Each run gets its own subdirectory so successive runs
// over the same snapshot root never clobber each other.
package snapshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"golang.org/x/image/font/basicfont"

	"github.com/lheinrich/collagen/pkg/errors"
)

// FilePattern names the snapshot written after each insertion.
const FilePattern = "step_%03d.png"

type Option func(*Writer)

// WithAnnotation draws the step number and canvas dimensions into the
// top-left corner of every snapshot.
func WithAnnotation() Option { return func(w *Writer) { w.annotate = true } }

// Writer persists one PNG per placement step.
type Writer struct {
	dir      string
	annotate bool
}

// NewWriter creates the per-run directory under root and returns a writer
// for it. The directory name carries a short random suffix.
func NewWriter(root string, opts ...Option) (*Writer, error) {
	dir := filepath.Join(root, "run-"+uuid.New().String()[:8])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create snapshot directory %s", dir)
	}

	w := &Writer{dir: dir}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the per-run directory snapshots are written into.
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores the canvas state after the given insertion step.
func (w *Writer) Write(step int, img image.Image) error {
	out := img
	if w.annotate {
		out = w.annotated(step, img)
	}

	path := filepath.Join(w.dir, fmt.Sprintf(FilePattern, step))
	if err := imaging.Save(out, path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write snapshot %s", path)
	}
	return nil
}

// annotated overlays the step number and canvas dimensions on a copy.
func (w *Writer) annotated(step int, img image.Image) image.Image {
	b := img.Bounds()
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)

	label := fmt.Sprintf("step %d  %dx%d", step, b.Dx(), b.Dy())
	tw, th := dc.MeasureString(label)

	// Backing box keeps the label readable on busy canvases.
	dc.SetRGBA(0, 0, 0, 0.7)
	dc.DrawRectangle(2, 2, tw+8, th+8)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawString(label, 6, 6+th)

	return dc.Image()
}

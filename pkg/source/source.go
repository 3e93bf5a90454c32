// Package source loads and preprocesses the input images for a collage.
//
// Preprocessing is simple, sequential glue: enumerate a directory, filter
// by extension, decode, proportionally resize to a standard width, and add
// a solid white padding border on all sides. The white border is what the
// placement scan later recognizes as anchor material, so the border is not
// cosmetic; without it a rectangle would never attract neighbors.
//
// Decoded and preprocessed rectangles are cached keyed by the source file's
// content hash plus the preprocessing options, so repeated runs over an
// unchanged directory skip the decode and resize work.
package source

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	// Extend image.Decode beyond the stdlib png/jpeg/gif set.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lheinrich/collagen/pkg/cache"
	"github.com/lheinrich/collagen/pkg/errors"
	"github.com/lheinrich/collagen/pkg/httputil"
	"github.com/lheinrich/collagen/pkg/packer"
)

// Preprocessing defaults, matching the reference constants.
const (
	// DefaultStandardWidth is the width every image is scaled to.
	DefaultStandardWidth = 500

	// DefaultBorderSize is the white padding added on all sides.
	DefaultBorderSize = 5
)

// DecodePolicy decides what happens when a file cannot be decoded.
type DecodePolicy int

const (
	// DecodeSkip logs a warning and continues without the file (default).
	DecodeSkip DecodePolicy = iota

	// DecodeAbort fails the whole run on the first undecodable file.
	DecodeAbort
)

// String returns the CLI name of the policy.
func (p DecodePolicy) String() string {
	switch p {
	case DecodeAbort:
		return "abort"
	default:
		return "skip"
	}
}

// ParseDecodePolicy converts a CLI string into a DecodePolicy.
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch s {
	case "skip", "":
		return DecodeSkip, nil
	case "abort":
		return DecodeAbort, nil
	default:
		return DecodeSkip, errors.New(errors.ErrCodeInvalidPolicy,
			"invalid decode policy: %q (must be one of: skip, abort)", s)
	}
}

// Options configures a Loader.
type Options struct {
	// Dir is the directory to enumerate.
	Dir string

	// Filter restricts loading to files with this extension (without the
	// leading dot, case-insensitive). Empty accepts every file.
	Filter string

	// StandardWidth is the width images are proportionally scaled to.
	// Zero means DefaultStandardWidth.
	StandardWidth int

	// BorderSize is the white padding in pixels. Zero is a valid value and
	// disables the border; callers wanting the default must set it.
	BorderSize int

	// Policy decides how decode failures are handled.
	Policy DecodePolicy

	// Cache stores preprocessed rectangles. Nil disables caching.
	Cache cache.Cache

	// Logger receives progress output. Nil disables logging.
	Logger *log.Logger
}

// Loader turns a directory of image files into placement-ready rectangles.
type Loader struct {
	opts Options
}

// NewLoader creates a loader. A zero StandardWidth becomes
// DefaultStandardWidth; a nil Cache becomes a NullCache.
func NewLoader(opts Options) *Loader {
	if opts.StandardWidth <= 0 {
		opts.StandardWidth = DefaultStandardWidth
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	return &Loader{opts: opts}
}

// List returns the matching file paths in the directory, sorted by name.
// Subdirectories are not descended into. An unreadable directory surfaces
// as DIRECTORY_READ.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.opts.Dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDirectoryRead, err, "read directory %s", l.opts.Dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !l.matches(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(l.opts.Dir, entry.Name()))
	}
	return paths, nil
}

// matches applies the extension filter to a file name.
func (l *Loader) matches(name string) bool {
	if l.opts.Filter == "" {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.EqualFold(ext, l.opts.Filter)
}

// Load enumerates the directory and preprocesses every matching file.
// It fails with EMPTY_INPUT when nothing matched or everything was skipped.
func (l *Loader) Load(ctx context.Context) ([]packer.Rectangle, []string, error) {
	paths, err := l.List()
	if err != nil {
		return nil, nil, err
	}
	if len(paths) == 0 {
		return nil, nil, errors.New(errors.ErrCodeEmptyInput,
			"no images matched in %s (filter: %q)", l.opts.Dir, l.opts.Filter)
	}
	return l.LoadFiles(ctx, paths)
}

// LoadFiles preprocesses an explicit list of inputs, preserving order.
// Entries may be local paths or http(s) URLs; remote images are downloaded
// with retries. The second return lists inputs skipped under DecodeSkip.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) ([]packer.Rectangle, []string, error) {
	rects := make([]packer.Rectangle, 0, len(paths))
	var skipped []string

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rect, err := l.loadOne(ctx, path)
		if err != nil {
			if l.opts.Policy == DecodeAbort || !errors.Is(err, errors.ErrCodeImageDecode) {
				return nil, nil, err
			}
			l.logf("skipping undecodable file", "path", path, "err", err)
			skipped = append(skipped, path)
			continue
		}
		rects = append(rects, rect)
	}

	if len(rects) == 0 {
		return nil, skipped, errors.New(errors.ErrCodeEmptyInput,
			"no images could be loaded from %s (%d skipped)", l.opts.Dir, len(skipped))
	}
	return rects, skipped, nil
}

// loadOne decodes and preprocesses a single input, consulting the cache.
func (l *Loader) loadOne(ctx context.Context, path string) (packer.Rectangle, error) {
	data, err := l.readInput(ctx, path)
	if err != nil {
		return packer.Rectangle{}, err
	}

	key := cache.RectKey(cache.Hash(data), cache.RectKeyOpts{
		StandardWidth: l.opts.StandardWidth,
		BorderSize:    l.opts.BorderSize,
	})

	if cached, hit, err := l.opts.Cache.Get(ctx, key); err == nil && hit {
		if img, err := png.Decode(bytes.NewReader(cached)); err == nil {
			l.logf("preprocessed from cache", "path", path)
			return packer.Rectangle{Image: imaging.Clone(img), Source: path}, nil
		}
		// Corrupt entry: fall through and rebuild it.
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return packer.Rectangle{}, errors.Wrap(errors.ErrCodeImageDecode, err, "decode %s", path)
	}

	prepped := l.preprocess(img)
	l.logf("preprocessed image", "path", path,
		"width", prepped.Rect.Dx(), "height", prepped.Rect.Dy())

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepped); err == nil {
		_ = l.opts.Cache.Set(ctx, key, buf.Bytes(), cache.TTLRectangle)
	}

	return packer.Rectangle{Image: prepped, Source: path}, nil
}

// readInput fetches the raw bytes behind a local path or an http(s) URL.
func (l *Loader) readInput(ctx context.Context, path string) ([]byte, error) {
	if httputil.IsURL(path) {
		data, err := httputil.Fetch(ctx, path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "fetch %s", path)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeDirectoryRead, err, "read %s", path)
	}
	return data, nil
}

// preprocess scales the image to the standard width preserving aspect ratio
// and wraps it in the white padding border.
func (l *Loader) preprocess(img image.Image) *image.NRGBA {
	scaled := imaging.Resize(img, l.opts.StandardWidth, 0, imaging.Lanczos)
	return AddBorder(scaled, l.opts.BorderSize)
}

// AddBorder returns a copy of img with a solid white border of the given
// size on all sides. A size of zero returns an NRGBA copy of img unchanged.
func AddBorder(img image.Image, size int) *image.NRGBA {
	if size <= 0 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	out := imaging.New(b.Dx()+2*size, b.Dy()+2*size, white)
	return imaging.Paste(out, img, image.Pt(size, size))
}

// logf logs at debug level when a logger is configured.
func (l *Loader) logf(msg string, kv ...any) {
	if l.opts.Logger != nil {
		l.opts.Logger.Debug(msg, kv...)
	}
}

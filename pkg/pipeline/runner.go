package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/lheinrich/collagen/pkg/cache"
	"github.com/lheinrich/collagen/pkg/canvas"
	"github.com/lheinrich/collagen/pkg/errors"
	"github.com/lheinrich/collagen/pkg/observability"
	"github.com/lheinrich/collagen/pkg/packer"
	"github.com/lheinrich/collagen/pkg/snapshot"
	"github.com/lheinrich/collagen/pkg/source"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Logger: logger,
	}
}

// Execute runs the complete load → pack → encode pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Dir)
	rects, skipped, err := r.Load(ctx, opts)
	observability.Pipeline().OnLoadComplete(ctx, opts.Dir, len(rects), len(skipped), time.Since(loadStart), err)
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.ImageCount = len(rects)
	result.Stats.SkippedCount = len(skipped)

	opts.Logger.Info("loaded images",
		"count", len(rects),
		"skipped", len(skipped),
		"duration", result.Stats.LoadTime)

	// Stage 2: Pack
	packStart := time.Now()
	observability.Pipeline().OnPackStart(ctx, len(rects))
	c, snapDir, err := r.Pack(ctx, rects, opts)
	if err != nil {
		observability.Pipeline().OnPackComplete(ctx, 0, 0, time.Since(packStart), err)
		return nil, err
	}
	observability.Pipeline().OnPackComplete(ctx, c.Width(), c.Height(), time.Since(packStart), nil)
	result.Canvas = c
	result.SnapshotDir = snapDir
	result.Stats.PackTime = time.Since(packStart)
	result.Stats.CanvasWidth = c.Width()
	result.Stats.CanvasHeight = c.Height()

	opts.Logger.Info("packed collage",
		"width", c.Width(),
		"height", c.Height(),
		"duration", result.Stats.PackTime)

	// Stage 3: Encode
	encodeStart := time.Now()
	observability.Pipeline().OnEncodeStart(ctx, opts.Formats)
	artifacts, err := r.Encode(c, opts)
	observability.Pipeline().OnEncodeComplete(ctx, opts.Formats, time.Since(encodeStart), err)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("encoded outputs",
		"formats", opts.Formats,
		"duration", result.Stats.EncodeTime)

	return result, nil
}

// Load runs the loading stage: enumerate, decode, and preprocess.
// Explicit Files take precedence over directory enumeration.
func (r *Runner) Load(ctx context.Context, opts Options) ([]packer.Rectangle, []string, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}

	c := r.Cache
	if opts.Refresh {
		// Bypass lookups but keep stores, so a refresh repopulates the cache.
		c = refreshCache{c}
	}

	loader := source.NewLoader(source.Options{
		Dir:           opts.Dir,
		Filter:        opts.Filter,
		StandardWidth: opts.StandardWidth,
		BorderSize:    opts.BorderSize,
		Policy:        opts.ParsedPolicy(),
		Cache:         c,
		Logger:        opts.Logger,
	})

	if len(opts.Files) > 0 {
		return loader.LoadFiles(ctx, opts.Files)
	}
	return loader.Load(ctx)
}

// Pack runs the placement stage and returns the finished canvas together
// with the per-run snapshot directory (empty when snapshots are disabled).
func (r *Runner) Pack(ctx context.Context, rects []packer.Rectangle, opts Options) (*canvas.Canvas, string, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", err
	}

	var onStep packer.StepFunc
	var snapDir string
	if opts.SnapshotDir != "" {
		var snapOpts []snapshot.Option
		if opts.Annotate {
			snapOpts = append(snapOpts, snapshot.WithAnnotation())
		}
		writer, err := snapshot.NewWriter(opts.SnapshotDir, snapOpts...)
		if err != nil {
			return nil, "", err
		}
		snapDir = writer.Dir()
		onStep = func(step int, c *canvas.Canvas) error {
			return writer.Write(step, c.Image())
		}
	}

	builder := packer.NewBuilder(packer.Options{
		Order:          opts.ParsedOrder(),
		MaxGrowthSteps: opts.MaxGrowthSteps,
		OnStep:         onStep,
		Logger:         opts.Logger,
	})

	c, err := builder.Build(ctx, rects)
	if err != nil {
		return nil, "", err
	}
	return c, snapDir, nil
}

// Encode serializes the canvas into every requested format.
func (r *Runner) Encode(c *canvas.Canvas, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var buf bytes.Buffer
		var err error
		switch format {
		case FormatPNG:
			err = imaging.Encode(&buf, c.Image(), imaging.PNG)
		case FormatJPEG:
			err = imaging.Encode(&buf, c.Image(), imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
		default:
			return nil, ValidateFormat(format)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", format)
		}
		artifacts[format] = buf.Bytes()
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// refreshCache forwards writes to the underlying cache but answers every
// lookup with a miss.
type refreshCache struct {
	cache.Cache
}

func (refreshCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Package pipeline provides the core collage pipeline for collagen.
//
// This package implements the complete load → pack → encode pipeline shared
// by every entry point. Centralizing it keeps CLI runs and library callers
// behaving identically.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Enumerate, decode, and preprocess the input images
//  2. Pack: Place every rectangle onto the growing canvas
//  3. Encode: Serialize the finished canvas in the requested formats
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Dir:     "./photos",
//	    Filter:  "jpg",
//	    Formats: []string{"png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lheinrich/collagen/pkg/canvas"
	"github.com/lheinrich/collagen/pkg/errors"
	"github.com/lheinrich/collagen/pkg/packer"
	"github.com/lheinrich/collagen/pkg/source"
)

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatJPEG: true,
}

// JPEGQuality is the encoding quality used for JPEG artifacts.
const JPEGQuality = 90

// Options contains all configuration for the collage pipeline.
// This struct supports JSON serialization for config files and logs.
type Options struct {
	// Load options
	Dir           string   `json:"dir,omitempty"`
	Files         []string `json:"files,omitempty"` // Explicit selection; overrides Dir enumeration
	Filter        string   `json:"filter,omitempty"`
	StandardWidth int      `json:"standard_width,omitempty"`
	BorderSize    int      `json:"border_size,omitempty"`
	BorderSet     bool     `json:"-"` // True when BorderSize was set explicitly (zero is valid)
	Policy        string   `json:"policy,omitempty"`
	Refresh       bool     `json:"refresh,omitempty"`

	// Pack options
	Order          string `json:"order,omitempty"`
	MaxGrowthSteps int    `json:"max_growth_steps,omitempty"`
	SnapshotDir    string `json:"snapshot_dir,omitempty"`
	Annotate       bool   `json:"annotate,omitempty"`

	// Encode options
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// Parsed forms, populated by ValidateAndSetDefaults.
	order  packer.Order
	policy source.DecodePolicy

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Canvas is the finished collage.
	Canvas *canvas.Canvas

	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	// Skipped lists input files dropped under the skip decode policy.
	Skipped []string

	// SnapshotDir is the per-run snapshot directory, empty when disabled.
	SnapshotDir string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ImageCount   int
	SkippedCount int
	CanvasWidth  int
	CanvasHeight int
	LoadTime     time.Duration
	PackTime     time.Duration
	EncodeTime   time.Duration
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: png, jpeg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Dir == "" && len(o.Files) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "an input directory or explicit files are required")
	}

	if o.StandardWidth == 0 {
		o.StandardWidth = source.DefaultStandardWidth
	}
	if err := errors.ValidateDimension("width", o.StandardWidth, 1, 1<<14); err != nil {
		return err
	}
	if !o.BorderSet && o.BorderSize == 0 {
		o.BorderSize = source.DefaultBorderSize
	}
	if o.BorderSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "border size must not be negative: %d", o.BorderSize)
	}

	if o.Filter != "" {
		if err := errors.ValidateExtension(o.Filter); err != nil {
			return err
		}
	}

	var err error
	if o.order, err = packer.ParseOrder(o.Order); err != nil {
		return err
	}
	if o.policy, err = source.ParseDecodePolicy(o.Policy); err != nil {
		return err
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	if o.MaxGrowthSteps == 0 {
		o.MaxGrowthSteps = packer.DefaultMaxGrowthSteps
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// ParsedOrder returns the placement order. Only meaningful after
// ValidateAndSetDefaults.
func (o *Options) ParsedOrder() packer.Order { return o.order }

// ParsedPolicy returns the decode policy. Only meaningful after
// ValidateAndSetDefaults.
func (o *Options) ParsedPolicy() source.DecodePolicy { return o.policy }

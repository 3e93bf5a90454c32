package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lheinrich/collagen/pkg/errors"
	"github.com/lheinrich/collagen/pkg/pipeline"
	"github.com/lheinrich/collagen/pkg/source"
)

// defaultOutputBase is the output file name used when --output is not given,
// completed with the format extension.
const defaultOutputBase = "collage"

// buildCommand creates the build command, the main entry point of the tool.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		configFile  string
		filter      string
		output      string
		formatsStr  string
		order       string
		policy      string
		snapshots   string
		width       int
		border      int
		maxGrowth   int
		urls        []string
		annotate    bool
		noCache     bool
		refresh     bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "build [dir]",
		Short: "Pack a directory of images into a collage",
		Long: `Pack a directory of images into a single collage.

Every image is scaled to a standard width, wrapped in a white padding
border, and placed onto a canvas that grows just enough to fit. The
largest image seeds the canvas and each following image lands flush
against already placed content.

Preprocessed images are cached locally, so rebuilding a collage from an
unchanged directory skips the decode and resize work.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				Dir:            dir,
				Filter:         cfg.Filter,
				StandardWidth:  cfg.Width,
				Order:          cfg.Order,
				Policy:         cfg.OnDecodeError,
				MaxGrowthSteps: maxGrowth,
				SnapshotDir:    snapshots,
				Annotate:       annotate,
				Refresh:        refresh,
				Logger:         loggerFromContext(cmd.Context()),
			}
			if cfg.Border != nil {
				opts.BorderSize = *cfg.Border
				opts.BorderSet = true
			}
			if cfg.Format != "" {
				opts.Formats = []string{cfg.Format}
			}

			// Flags given on the command line win over config file values.
			flags := cmd.Flags()
			if flags.Changed("filter") {
				opts.Filter = filter
			}
			if flags.Changed("width") {
				opts.StandardWidth = width
			}
			if flags.Changed("border") {
				opts.BorderSize = border
				opts.BorderSet = true
			}
			if flags.Changed("order") {
				opts.Order = order
			}
			if flags.Changed("on-decode-error") {
				opts.Policy = policy
			}
			if flags.Changed("format") {
				opts.Formats = parseFormats(formatsStr)
			}

			if output != "" {
				if err := errors.ValidateOutputPath(output); err != nil {
					return err
				}
			}

			return c.runBuild(cmd.Context(), opts, buildParams{
				output:      output,
				urls:        urls,
				noCache:     noCache,
				interactive: interactive,
			})
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (default: XDG config dir)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only include files with this extension (e.g. jpg)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&formatsStr, "format", "", "output format(s): png (default), jpeg (comma-separated)")
	cmd.Flags().StringVar(&order, "order", "", "placement order: area (default), width")
	cmd.Flags().IntVar(&width, "width", 0, "standard width images are scaled to")
	cmd.Flags().IntVar(&border, "border", 0, "white padding around each image in pixels")
	cmd.Flags().StringVar(&snapshots, "snapshots", "", "write a per-step snapshot into this directory")
	cmd.Flags().BoolVar(&annotate, "annotate", false, "label snapshots with step number and canvas size")
	cmd.Flags().StringVar(&policy, "on-decode-error", "", "decode failure policy: skip (default), abort")
	cmd.Flags().IntVar(&maxGrowth, "max-growth", 0, "cap on canvas growth attempts per image")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "also include a remote image (repeatable)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the preprocessing cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached entries but refill the cache")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick the images to include interactively")

	return cmd
}

// buildParams carries CLI-side settings that are not pipeline options.
type buildParams struct {
	output      string
	urls        []string
	noCache     bool
	interactive bool
}

// runBuild executes the pipeline and writes the results.
func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, params buildParams) error {
	if params.interactive {
		files, err := c.pickFiles(opts.Dir, opts.Filter)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			printInfo("Nothing selected, aborting")
			return nil
		}
		opts.Files = files
	}

	if len(params.urls) > 0 {
		// Explicit files override the directory scan in the pipeline, so
		// expand the directory listing first to keep local images included.
		if len(opts.Files) == 0 {
			loader := source.NewLoader(source.Options{Dir: opts.Dir, Filter: opts.Filter})
			files, err := loader.List()
			if err != nil {
				return err
			}
			opts.Files = files
		}
		opts.Files = append(opts.Files, params.urls...)
	}

	// Validate up front so the defaults (formats in particular) are visible
	// here when writing the artifacts.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(params.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(opts.Logger)
	spinner := newSpinnerWithContext(ctx, "Packing images...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return err
		}
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Placed %d images", result.Stats.ImageCount))

	written, err := writeArtifacts(result.Artifacts, opts.Formats, params.output)
	if err != nil {
		return err
	}

	printSuccess("Collage built")
	printStats(result.Stats.ImageCount, result.Stats.SkippedCount,
		result.Stats.CanvasWidth, result.Stats.CanvasHeight)
	for _, path := range written {
		printFile(path)
	}
	if result.Stats.SkippedCount > 0 {
		printWarning("Skipped %d undecodable file(s), run with -v for details", result.Stats.SkippedCount)
	}
	if result.SnapshotDir != "" {
		printDetail("Snapshots: %s", result.SnapshotDir)
	}
	return nil
}

// writeArtifacts writes every encoded format to disk and returns the paths.
// With a single format the output path is used verbatim; with several the
// path acts as a base and the format extension is appended.
func writeArtifacts(artifacts map[string][]byte, formats []string, output string) ([]string, error) {
	base := output
	if base == "" {
		base = defaultOutputBase
	}

	var written []string
	for _, format := range formats {
		path := base + "." + format
		if output != "" && len(formats) == 1 {
			path = output
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create output directory %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

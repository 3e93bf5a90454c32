package cli

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lheinrich/collagen/pkg/source"
)

// inspectCommand creates the inspect command that previews the inputs a
// build would pick up.
func (c *CLI) inspectCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "List the images a build would pick up",
		Long: `List the images a build would pick up, with their dimensions and
file sizes. Files that match the filter but cannot be decoded are
marked; with the default skip policy a build would drop them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return c.runInspect(dir, filter)
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only include files with this extension (e.g. jpg)")

	return cmd
}

func (c *CLI) runInspect(dir, filter string) error {
	loader := source.NewLoader(source.Options{Dir: dir, Filter: filter})
	paths, err := loader.List()
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		printInfo("No images matched in %s", dir)
		return nil
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := [][]string{}
	undecodable := 0
	for _, path := range paths {
		name := filepath.Base(path)

		size := "?"
		if info, err := os.Stat(path); err == nil {
			size = formatBytes(info.Size())
		}

		dims := StyleDim.Render("undecodable")
		if cfg, err := decodeConfig(path); err == nil {
			dims = fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
		} else {
			undecodable++
		}

		rows = append(rows, []string{name, dims, size})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("File", "Dimensions", "Size").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})

	fmt.Println(t.Render())
	printDetail("%d image(s) in %s", len(paths), dir)
	if undecodable > 0 {
		printWarning("%d file(s) cannot be decoded", undecodable)
	}
	printNextStep("Build the collage", fmt.Sprintf("collagen build %s", dir))
	return nil
}

// decodeConfig reads just the image header.
func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

// formatBytes renders a byte count in a compact human form.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	perrors "github.com/physlearn/physlearn/pkg/errors"
	"github.com/physlearn/physlearn/pkg/export"
	"github.com/physlearn/physlearn/pkg/netio"
)

// Render format constants.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	format string // "dot" or "svg"
	output string // output file path (stdout for DOT if empty)
}

// newRenderCmd creates the render command, which converts a saved network
// to Graphviz DOT or SVG.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "render <network.json>",
		Short: "Render a saved network as DOT or SVG",
		Long: `Render a saved network as Graphviz DOT or SVG.

Examples:
  physlearn render network.json                      # DOT to stdout
  physlearn render network.json -f svg -o network.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runRender(&opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format (dot, svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout for dot if empty)")

	return cmd
}

func runRender(opts *renderOpts, networkPath string) error {
	net, err := netio.ReadFile(networkPath)
	if err != nil {
		return err
	}
	g, names, err := net.ToDAG()
	if err != nil {
		return err
	}

	dot := export.ToDOT(g, names)

	switch opts.format {
	case formatDOT:
		if opts.output == "" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(opts.output, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
	case formatSVG:
		if opts.output == "" {
			return perrors.New(perrors.ErrCodeInvalidInput, "svg output requires --output")
		}
		svg, err := export.RenderSVG(dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.output, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
	default:
		return perrors.New(perrors.ErrCodeInvalidFormat, "invalid format %q (must be one of: dot, svg)", opts.format)
	}

	printFile(opts.output)
	return nil
}

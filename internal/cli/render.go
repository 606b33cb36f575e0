package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/untangle/pkg/graphio"
	"github.com/matzehuels/untangle/pkg/pipeline"
	"github.com/matzehuels/untangle/pkg/render"
	"github.com/matzehuels/untangle/pkg/wiring"
)

// renderCommand creates the render command, which draws a wiring graph with
// its cycles and selected feedback edges highlighted.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		format    string
		out       string
		highlight bool
		detailed  bool
	)

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Render a wiring graph as DOT, SVG or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			g, err := graphio.ImportJSON(args[0])
			if err != nil {
				return err
			}

			opts := render.Options{Detailed: detailed}
			if highlight {
				runner := pipeline.NewRunner(nil, nil, c.Logger)
				_, enum, err := runner.Detect(ctx, g, pipeline.Options{Logger: c.Logger})
				if err != nil {
					return err
				}
				opts.CycleEdges = make(map[wiring.EdgeKey]bool)
				for _, cyc := range enum.Cycles {
					for _, e := range cyc.Edges {
						opts.CycleEdges[e.Key()] = true
					}
				}
			}

			dot := render.ToDOT(g, opts)

			var data []byte
			switch format {
			case "dot":
				data = []byte(dot)
			case "svg":
				data, err = render.RenderSVG(dot)
			case "png":
				data, err = render.RenderPNG(dot)
			default:
				return fmt.Errorf("unknown format %q (must be dot, svg or png)", format)
			}
			if err != nil {
				return err
			}

			if out == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			printSuccess("rendered %s", format)
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, svg or png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "highlight edges that lie on cycles")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include mutators in component labels")

	return cmd
}

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/untangle/pkg/graphio"
	"github.com/matzehuels/untangle/pkg/pipeline"
)

// detectCommand creates the detect command: cycle detection and enumeration
// only, without resolution.
func (c *CLI) detectCommand() *cobra.Command {
	var maxCycles int

	cmd := &cobra.Command{
		Use:   "detect <graph.json>",
		Short: "List cyclic components and elementary cycles without resolving them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graphio.ImportJSON(args[0])
			if err != nil {
				return err
			}

			logger := loggerFromContext(cmd.Context())
			runner := pipeline.NewRunner(nil, nil, logger)
			p := newProgress(logger)
			comps, enum, err := runner.Detect(cmd.Context(), g, pipeline.Options{
				MaxCycles: maxCycles,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			p.done("detection finished")

			printStats(g.NodeCount(), g.EdgeCount(), len(enum.Cycles), false)
			if len(comps) == 0 {
				printSuccess("no dependency cycles found")
				return nil
			}

			printInfo("%d cyclic components", len(comps))
			for _, members := range comps {
				printDetail("{%s}", strings.Join(members, ", "))
			}

			if enum.Truncated {
				printWarning("enumeration truncated at %d cycles", len(enum.Cycles))
			}
			printInfo("%d elementary cycles", len(enum.Cycles))
			for _, cyc := range enum.Cycles {
				printCycle(cyc.String())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "cap on enumerated cycles (0 = default, negative = unlimited)")
	return cmd
}

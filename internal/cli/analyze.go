package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/untangle/pkg/graphio"
	"github.com/matzehuels/untangle/pkg/pipeline"
)

// analyzeCommand creates the analyze command: the full detect → enumerate →
// select → resolve pipeline over a wiring graph file.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		maxCycles int
		passes    int
		priority  []string
		dryRun    bool
		refresh   bool
		noCache   bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "analyze <graph.json>",
		Short: "Detect and resolve dependency cycles in a wiring graph",
		Long: `Analyze reads a wiring graph in the JSON interchange format, finds all
elementary dependency cycles, selects a minimal set of feedback edges, and
dispatches resolution strategies against them. The resulting change plan is
printed and can be written to a report file with --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runner, cfg, err := c.newRunner(cmd, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, err := graphio.ImportJSON(args[0])
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				MaxCycles: firstNonZero(maxCycles, cfg.MaxCycles),
				Passes:    firstNonZero(passes, cfg.Passes),
				Priority:  priority,
				DryRun:    dryRun,
				Refresh:   refresh,
				Logger:    c.Logger,
			}
			if len(opts.Priority) == 0 {
				opts.Priority = cfg.Priority
			}

			sp := newSpinner(ctx, "analyzing wiring graph")
			sp.Start()
			result, err := runner.Execute(ctx, g, opts)
			sp.Stop()
			if err != nil {
				return err
			}

			printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.CycleCount, result.CacheInfo.ReportHit)
			if result.Truncated {
				printWarning("cycle enumeration truncated at %d, resolution covers only the enumerated cycles", len(result.Cycles))
			}

			if len(result.Cycles) == 0 {
				printSuccess("no dependency cycles found")
				return nil
			}

			printInfo("found %d cycles, selected %d feedback edges", len(result.Cycles), result.Stats.SelectedCount)
			for _, o := range result.Outcomes {
				printOutcome(o)
			}

			if dryRun {
				printDetail("dry run, no changes persisted")
			}
			if result.Resolved {
				printSuccess("all cycles resolved, %d components modified", len(result.Modified))
			} else {
				printError("%d cycles remain unresolved", len(result.Remaining))
				for _, cyc := range result.Remaining {
					printCycle(cyc.String())
				}
			}

			if output != "" {
				if err := writeReport(result, output); err != nil {
					return err
				}
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "cap on enumerated cycles (0 = default, negative = unlimited)")
	cmd.Flags().IntVar(&passes, "passes", 0, "resolution passes (default 1)")
	cmd.Flags().StringSliceVar(&priority, "priority", nil, "injection kind priority for edge selection, most preferred first")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate changes without persisting them")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the report cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching entirely")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the full report JSON to a file")

	return cmd
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// writeReport writes the analysis result as indented JSON.
func writeReport(result *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

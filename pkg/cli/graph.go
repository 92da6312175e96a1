package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/capgate/pkg/dependencies"
)

// GraphFlags holds flags for the graph command
type GraphFlags struct {
	Direction string
	Depth     int
}

func newGraphCommand(a *app) *cobra.Command {
	flags := &GraphFlags{}

	cmd := &cobra.Command{
		Use:   "graph [plugin]",
		Short: "Show plugin dependencies",
		Long: `Show the plugin dependency graph, or the neighbourhood of one plugin.

--json writes a Cytoscape.js graph.`,
		Example: `  capgate graph
  capgate graph syntheticannotation --direction both
  capgate graph visualizer --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(a, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.Direction, "direction", "dependencies", "dependencies, dependents or both")
	cmd.Flags().IntVar(&flags.Depth, "depth", -1, "Maximum depth for --json output (-1 for unlimited)")

	return cmd
}

func runGraph(a *app, flags *GraphFlags, args []string) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}
	graph := e.Resolver().Graph()

	switch flags.Direction {
	case "dependencies", "dependents", "both":
	default:
		return fmt.Errorf("invalid direction %q", flags.Direction)
	}

	if len(args) == 0 {
		if a.flags.JSON {
			return a.writeJSON(dependencies.BuildFullCytoscapeGraph(graph))
		}
		for _, name := range graph.Plugins() {
			a.printf("%s%s\n", name, formatDeps(graph.GetDependencies(name)))
		}
		return nil
	}

	plugin := args[0]
	if graph.GetNode(plugin) == nil {
		return fmt.Errorf("unknown plugin %q", plugin)
	}

	if a.flags.JSON {
		return a.writeJSON(dependencies.BuildCytoscapeGraph(graph, plugin, true, flags.Depth, flags.Direction))
	}

	if flags.Direction != "dependents" {
		order, err := graph.TopologicalSort(plugin)
		if err != nil {
			return err
		}
		a.printf("%s %s\n", titleStyle.Render("Build order:"), strings.Join(order, " -> "))
	}
	if flags.Direction != "dependencies" {
		impact := graph.GetImpactAnalysis(plugin)
		var names []string
		for _, d := range graph.GetDependents(plugin) {
			names = append(names, d.Plugin)
		}
		a.printf("%s %s (%d affected in total)\n", titleStyle.Render("Dependents:"), strings.Join(names, ", "), impact.TotalImpact)
	}
	return nil
}

func formatDeps(deps []dependencies.Dependency) string {
	if len(deps) == 0 {
		return ""
	}
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.Plugin
	}
	return " -> " + strings.Join(names, ", ")
}

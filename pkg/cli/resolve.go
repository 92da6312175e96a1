package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/capgate/pkg/config"
	"github.com/platinummonkey/capgate/pkg/dependencies"
)

// ResolveFlags holds flags for the resolve command
type ResolveFlags struct {
	Profile string
	Exclude []string
}

func newResolveCommand(a *app) *cobra.Command {
	flags := &ResolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve [plugin...]",
		Short: "Resolve a plugin selection for the target platform",
		Long: `Resolve a plugin selection into the list that can be built and used.

Dependencies are added, plugins the platform or host cannot support are
dropped together with their dependents, and exclusions are applied last.
Without arguments or --profile the configuration file is resolved.`,
		Example: `  capgate resolve radiation visualizer
  capgate resolve --profile research --exclude lidar
  capgate resolve --platform macos --profile gpu-accelerated`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), a, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.Profile, "profile", "p", "", "Resolve a profile instead of explicit plugins")
	cmd.Flags().StringSliceVarP(&flags.Exclude, "exclude", "x", nil, "Plugins to exclude")

	return cmd
}

func runResolve(ctx context.Context, a *app, flags *ResolveFlags, args []string) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var result *dependencies.ResolutionResult
	switch {
	case len(args) > 0 && flags.Profile != "":
		return fmt.Errorf("give either plugin names or --profile, not both")

	case len(args) > 0 || flags.Profile != "":
		doc := config.Default()
		if flags.Profile != "" {
			doc.PluginSelection.Profile = flags.Profile
		} else {
			doc.PluginSelection.Mode = config.ModeExplicit
			doc.PluginSelection.ExplicitPlugins = args
		}
		doc.PluginSelection.ExcludedPlugins = flags.Exclude

		resolved, err := e.Config().Resolve(ctx, doc)
		if err != nil {
			return err
		}
		result = resolved.Resolution

	default:
		resolved, err := e.Config().LoadAndResolve(ctx, a.flags.ConfigPath)
		if err != nil {
			return err
		}
		result = resolved.Resolution
	}

	if a.flags.JSON {
		if err := a.writeJSON(result); err != nil {
			return err
		}
	} else {
		printResolution(a, result)
	}

	if !result.OK() {
		return fmt.Errorf("resolution failed: %s", strings.Join(result.Errors, "; "))
	}
	return nil
}

func printResolution(a *app, result *dependencies.ResolutionResult) {
	status := string(result.Status)
	switch result.Status {
	case dependencies.StatusSuccess:
		status = okStyle.Render(status)
	case dependencies.StatusWarning:
		status = warnStyle.Render(status)
	default:
		status = errStyle.Render(status)
	}

	a.printf("%s %s (%s)\n", titleStyle.Render("Resolution"), status, result.Platform)
	a.printf("requested: %s\n", strings.Join(result.Requested, ", "))
	a.printf("plugins:   %s\n", strings.Join(result.FinalPlugins, ", "))

	if len(result.Dropped) > 0 {
		rows := make([][]string, 0, len(result.Dropped))
		for _, d := range result.Dropped {
			rows = append(rows, []string{d.Name, string(d.Reason), d.Detail})
		}
		a.printf("\n%s\n", table([]string{"DROPPED", "REASON", "DETAIL"}, rows))
	}
	for _, w := range result.Warnings {
		a.printf("%s %s\n", warnStyle.Render("warning:"), w)
	}
	for _, e := range result.Errors {
		a.printf("%s %s\n", errStyle.Render("error:"), e)
	}
}

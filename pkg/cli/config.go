package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/capgate/pkg/config"
)

// ConfigInitFlags holds flags for config init
type ConfigInitFlags struct {
	Profile string
	Plugins []string
	Exclude []string
	Force   bool
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the configuration file",
		Example: `  capgate config init --profile research
  capgate config show`,
	}

	cmd.AddCommand(newConfigInitCommand(a))
	cmd.AddCommand(newConfigShowCommand(a))

	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	flags := &ConfigInitFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file",
		Long: `Write a configuration file with the given selection. Unknown profiles and
plugins are rejected before anything is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(a, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Profile, "profile", "p", config.DefaultProfile, "Profile to select")
	cmd.Flags().StringSliceVar(&flags.Plugins, "plugins", nil, "Explicit plugins (switches to explicit mode)")
	cmd.Flags().StringSliceVarP(&flags.Exclude, "exclude", "x", nil, "Plugins to exclude")
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func runConfigInit(a *app, flags *ConfigInitFlags) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}

	path := a.flags.ConfigPath
	if _, err := os.Stat(path); err == nil && !flags.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	doc := config.Default()
	doc.PluginSelection.Profile = flags.Profile
	doc.PluginSelection.ExcludedPlugins = flags.Exclude
	if len(flags.Plugins) > 0 {
		doc.PluginSelection.Mode = config.ModeExplicit
		doc.PluginSelection.ExplicitPlugins = flags.Plugins
	}

	if report := e.Config().Validate(doc); !report.Valid() {
		return report.Err(path)
	}

	if err := config.Save(path, doc); err != nil {
		return err
	}

	a.printf("%s %s\n", okStyle.Render("wrote"), path)
	return nil
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and its resolution",
		Long: `Load the configuration file, apply CAPGATE_* environment overrides and
resolve it for the target platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.Context(), a)
		},
	}
}

func runConfigShow(ctx context.Context, a *app) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	resolved, err := e.Config().LoadAndResolve(ctx, a.flags.ConfigPath)
	if err != nil {
		return err
	}

	if a.flags.JSON {
		return a.writeJSON(resolved)
	}

	data, err := yaml.Marshal(resolved.Document())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	a.printf("%s\n%s\n", titleStyle.Render("# "+a.flags.ConfigPath), data)
	printResolution(a, resolved.Resolution)
	return nil
}

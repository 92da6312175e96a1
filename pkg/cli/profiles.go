package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/capgate/pkg/dependencies"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

// ProfileReport is the JSON form of one profile row
type ProfileReport struct {
	plugins.Profile
	Compatible      bool     `json:"compatible"`
	PlatformPlugins []string `json:"platform_plugins"`
}

// ProfilesReport is the JSON form of the profiles command
type ProfilesReport struct {
	Platform    string          `json:"platform"`
	Recommended string          `json:"recommended"`
	Profiles    []ProfileReport `json:"profiles"`
}

func newProfilesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [name]",
		Short: "List plugin profiles",
		Long: `List the plugin profiles and whether each one fits the target platform.

A profile is compatible when every plugin in it supports the platform.
Incompatible profiles still resolve: their unsupported plugins are dropped.`,
		Example: `  capgate profiles
  capgate profiles gpu-accelerated --platform macos`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfiles(cmd.Context(), a, args)
		},
	}
}

func runProfiles(ctx context.Context, a *app, args []string) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	catalog := e.Catalog()
	platform := e.Platform()

	compatible := make(map[string]bool)
	for _, p := range catalog.ProfilesForPlatform(platform) {
		compatible[p.Name] = true
	}

	profiles := catalog.Profiles()
	if len(args) == 1 {
		profile, err := catalog.Profile(args[0])
		if err != nil {
			return err
		}
		profiles = []plugins.Profile{profile}
	}

	hasGPU := e.Checker().Check(ctx, []string{dependencies.TagGPU})[dependencies.TagGPU]
	report := ProfilesReport{
		Platform:    string(platform),
		Recommended: catalog.RecommendProfile(hasGPU),
	}
	for _, p := range profiles {
		report.Profiles = append(report.Profiles, ProfileReport{
			Profile:         p,
			Compatible:      compatible[p.Name],
			PlatformPlugins: catalog.FilterProfileByPlatform(p, platform),
		})
	}

	if a.flags.JSON {
		return a.writeJSON(report)
	}

	rows := make([][]string, 0, len(report.Profiles))
	for _, p := range report.Profiles {
		name := p.Name
		if name == report.Recommended {
			name += " *"
		}
		rows = append(rows, []string{name, check(p.Compatible), check(p.RequiresGPU), p.Description})
	}
	a.printf("%s\n", titleStyle.Render("Profiles for "+report.Platform))
	a.printf("%s\n", table([]string{"PROFILE", "COMPATIBLE", "GPU", "DESCRIPTION"}, rows))

	if len(report.Profiles) == 1 {
		p := report.Profiles[0]
		a.printf("\nplugins:          %s\n", strings.Join(p.Plugins, ", "))
		a.printf("on %-14s %s\n", report.Platform+":", strings.Join(p.PlatformPlugins, ", "))
		if len(p.RecommendedFor) > 0 {
			a.printf("recommended for:  %s\n", strings.Join(p.RecommendedFor, ", "))
		}
	} else {
		a.printf("\n* recommended for this host\n")
	}

	return nil
}

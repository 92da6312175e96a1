package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/capgate/pkg/plugins"
)

// StatusReport is the JSON form of the status command
type StatusReport struct {
	Platform     string               `json:"platform"`
	HandleID     string               `json:"handle_id"`
	StandIn      bool                 `json:"stand_in"`
	Path         string               `json:"path,omitempty"`
	Root         string               `json:"root"`
	Tried        []string             `json:"tried,omitempty"`
	LoadError    string               `json:"load_error,omitempty"`
	Capabilities []plugins.Capability `json:"capabilities"`
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the loaded native library and plugin availability",
		Long: `Load the native library for this platform and probe every catalog plugin.

A plugin is available when all of its test symbols resolve in the loaded
library. With a stand-in every plugin is reported unavailable.`,
		Example: `  capgate status
  capgate status --library-dir /opt/helios/lib --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(a)
		},
	}
}

func runStatus(a *app) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}

	handle, err := e.Handle()
	if err != nil {
		return err
	}

	report := StatusReport{
		Platform:     string(handle.Platform()),
		HandleID:     handle.ID(),
		StandIn:      handle.IsStandIn(),
		Path:         handle.Path(),
		Root:         handle.Root(),
		Tried:        handle.Tried(),
		Capabilities: e.Registry().Capabilities(),
	}
	if loadErr := handle.LoadErr(); loadErr != nil {
		report.LoadError = loadErr.Error()
	}

	if a.flags.JSON {
		return a.writeJSON(report)
	}

	a.printf("%s\n", titleStyle.Render("Native library"))
	a.printf("  platform: %s\n", report.Platform)
	if report.StandIn {
		a.printf("  library:  %s\n", warnStyle.Render("stand-in (no usable native library)"))
		a.printf("  root:     %s\n", report.Root)
		for _, path := range report.Tried {
			a.printf("  tried:    %s\n", dimStyle.Render(path))
		}
		if report.LoadError != "" {
			a.printf("  reason:   %s\n", report.LoadError)
		}
	} else {
		a.printf("  library:  %s\n", okStyle.Render(report.Path))
	}
	a.printf("\n%s\n", titleStyle.Render("Plugins"))

	rows := make([][]string, 0, len(report.Capabilities))
	available := 0
	for _, c := range report.Capabilities {
		if c.Available {
			available++
		}
		rows = append(rows, []string{c.Name, check(c.Available), strings.Join(c.ProfileTags, ","), c.Note})
	}
	a.printf("%s\n", table([]string{"PLUGIN", "AVAILABLE", "TAGS", "NOTE"}, rows))
	a.printf("\n%d of %d plugins available\n", available, len(report.Capabilities))

	return nil
}

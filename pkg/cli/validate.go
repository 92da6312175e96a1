package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/capgate/pkg/config"
	"github.com/platinummonkey/capgate/pkg/dependencies"
	"github.com/platinummonkey/capgate/pkg/plugins"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [plugin...]",
		Short: "Validate a plugin list or the configuration file",
		Long: `With plugin names, audit the list as given: unknown names, plugins the
platform cannot build and plugins whose dependencies are missing from the
list. Without arguments, validate the configuration file and the catalog.`,
		Example: `  capgate validate aeriallidar visualizer
  capgate validate --config capgate.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return runAudit(a, args)
			}
			return runValidateConfig(a)
		},
	}
}

func runAudit(a *app, list []string) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}

	report := e.Resolver().ValidateConfiguration(list)

	if a.flags.JSON {
		if err := a.writeJSON(report); err != nil {
			return err
		}
	} else {
		printAudit(a, report)
	}

	if !report.OK() {
		return fmt.Errorf("plugin list is not valid for %s", e.Platform())
	}
	return nil
}

func printAudit(a *app, report *dependencies.AuditReport) {
	a.printf("valid:                 %s\n", strings.Join(report.Valid, ", "))
	if len(report.Invalid) > 0 {
		a.printf("%s %s\n", errStyle.Render("unknown:              "), strings.Join(report.Invalid, ", "))
	}
	if len(report.PlatformIncompatible) > 0 {
		a.printf("%s %s\n", errStyle.Render("platform incompatible:"), strings.Join(report.PlatformIncompatible, ", "))
	}

	names := make([]string, 0, len(report.DependencyUnmet))
	for name := range report.DependencyUnmet {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a.printf("%s %s needs %s\n", errStyle.Render("dependency unmet:     "), name, strings.Join(report.DependencyUnmet[name], ", "))
	}
}

// ValidationReport is the JSON form of configuration validation
type ValidationReport struct {
	Path    string                    `json:"path"`
	Valid   bool                      `json:"valid"`
	Config  []plugins.ValidationError `json:"config"`
	Catalog []plugins.ValidationError `json:"catalog"`
}

func runValidateConfig(a *app) error {
	e, err := a.Engine()
	if err != nil {
		return err
	}

	doc, err := config.Load(a.flags.ConfigPath)
	if err != nil {
		return err
	}
	doc = config.ApplyEnv(doc)

	report := e.Config().Validate(doc)
	catalogIssues := e.Catalog().Validate()

	out := ValidationReport{
		Path:    a.flags.ConfigPath,
		Valid:   report.Valid(),
		Config:  report.Issues,
		Catalog: catalogIssues,
	}
	for _, issue := range catalogIssues {
		if issue.Severity == plugins.SeverityError {
			out.Valid = false
		}
	}

	if a.flags.JSON {
		if err := a.writeJSON(out); err != nil {
			return err
		}
	} else {
		printIssues(a, "config", out.Config)
		printIssues(a, "catalog", out.Catalog)
		if out.Valid {
			a.printf("%s %s\n", okStyle.Render("valid:"), out.Path)
		}
	}

	if !out.Valid {
		return fmt.Errorf("configuration %s is not valid", out.Path)
	}
	return nil
}

func printIssues(a *app, scope string, issues []plugins.ValidationError) {
	for _, issue := range issues {
		style := warnStyle
		if issue.Severity == plugins.SeverityError {
			style = errStyle
		}
		a.printf("%s %s %s: %s\n", style.Render(issue.Severity+":"), scope, issue.Field, issue.Message)
	}
}

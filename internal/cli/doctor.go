package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/skm/internal/agent"
	"github.com/rileyhilliard/skm/internal/doctor"
	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/logger"
	"github.com/rileyhilliard/skm/internal/ui"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose environment and configuration issues",
	Long: `Run diagnostic checks against the environment skm depends on.

Checks:
  - ssh-keygen availability
  - ssh-agent socket reachability
  - Key directory existence and permissions
  - Trash directory writability
  - Configuration validity

Examples:
  skm doctor
  skm doctor --fix`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(doctorFix)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt to fix failing checks")
	rootCmd.AddCommand(doctorCmd)
}

func doctorCommand(fix bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bridge := agent.NewSocketBridge(cfg.Agent.Socket, nil, logger.Default())
	checks := doctor.DefaultChecks(cfg, bridge)

	if fix {
		for _, c := range checks {
			if res := c.Run(); res.Status != doctor.StatusPass && res.Fixable {
				if err := c.Fix(); err != nil {
					fmt.Printf("%s fix %s: %v\n", ui.SymbolFail, res.Name, err)
				} else {
					fmt.Printf("%s fixed %s\n", ui.SymbolSuccess, res.Name)
				}
			}
		}
	}

	results := doctor.RunAll(checks)
	printResults(results)

	counts := doctor.CountByStatus(results)
	fmt.Printf("\n%d passed, %d warnings, %d failed\n",
		counts[doctor.StatusPass], counts[doctor.StatusWarn], counts[doctor.StatusFail])

	if doctor.HasFailures(results) {
		return errors.NewExitError(1)
	}
	return nil
}

func printResults(results []doctor.CheckResult) {
	okStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	failStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	for _, r := range results {
		var symbol string
		switch r.Status {
		case doctor.StatusPass:
			symbol = okStyle.Render(ui.SymbolSuccess)
		case doctor.StatusWarn:
			symbol = warnStyle.Render(ui.SymbolWarning)
		default:
			symbol = failStyle.Render(ui.SymbolFail)
		}
		fmt.Printf("%s %s\n", symbol, r.Message)
		if r.Suggestion != "" && r.Status != doctor.StatusPass {
			fmt.Printf("  %s\n", mutedStyle.Render(r.Suggestion))
		}
	}
}

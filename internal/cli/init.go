package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/skm/internal/config"
	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/ui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .skm.yaml configuration",
	Long: `Write a config file with the default settings as a starting
point: key directory, trash location, agent socket, and command log.

Examples:
  skm init
  skm init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(initForce)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	rootCmd.AddCommand(initCmd)
}

func initCommand(force bool) error {
	path := config.ConfigFileName

	if _, err := os.Stat(path); err == nil && !force {
		var overwrite bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		))
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg := config.Default()
	if err := cfg.Write(path); err != nil {
		return err
	}

	fmt.Printf("%s Wrote %s\n", ui.SymbolSuccess, path)
	fmt.Println("Edit it to change the key directory, trash location, or log file.")
	return nil
}

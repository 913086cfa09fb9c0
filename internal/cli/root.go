// Package cli implements the skm command-line interface.
//
// The root command launches the interactive TUI; subcommands expose the
// same operations one-shot for scripting. All commands build the same
// orchestrator stack, so CLI and TUI behave identically.
package cli

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/skm/internal/agent"
	"github.com/rileyhilliard/skm/internal/clipboard"
	"github.com/rileyhilliard/skm/internal/cmdlog"
	"github.com/rileyhilliard/skm/internal/config"
	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/keygen"
	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/rileyhilliard/skm/internal/logger"
	"github.com/rileyhilliard/skm/internal/orchestrator"
	"github.com/rileyhilliard/skm/internal/tui"
	"github.com/rileyhilliard/skm/internal/ui"
)

// Global flags
var (
	configFlag  string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "skm",
	Short: "Terminal SSH key manager",
	Long: `skm manages the SSH keys in your key directory: create, delete,
load into the ssh-agent, and copy public keys, from an interactive
TUI or one-shot subcommands.

Running skm with no arguments starts the TUI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag {
			ui.DisableColors()
		} else {
			ui.DetectColorProfile()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return tuiCommand()
	},
}

// Execute runs the root command and maps errors to exit codes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// A bare ExitError just sets the process exit code; everything
		// else is printed for the user.
		if code, ok := errors.GetExitCode(err); ok {
			os.Exit(code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "config file (default .skm.yaml, then ~/.config/skm/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// loadConfig resolves and loads the configuration for the current run.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configFlag)
}

// buildOrchestrator assembles the full stack from a config. The returned
// cleanup stops the worker and flushes the command log.
func buildOrchestrator(cfg *config.Config, interactive bool) (*orchestrator.Orchestrator, func(), error) {
	log := logger.Default()

	var cl *cmdlog.Log
	var err error
	if cfg.Log.File != "" {
		cl, err = cmdlog.NewPersistent(cfg.Log.MaxEntries, cfg.Log.File, log)
		if err != nil {
			// The in-memory log still works; persistence is best-effort.
			log.Warn("command log: %v", err)
		}
	} else {
		cl = cmdlog.New(cfg.Log.MaxEntries, log)
	}

	var prompt agent.PassphraseFunc
	if interactive {
		prompt = promptPassphrase
	}

	orc := orchestrator.New(orchestrator.Deps{
		Store:     keystore.New(cfg.Keys.Dir, log),
		Agent:     agent.NewSocketBridge(cfg.Agent.Socket, prompt, log),
		Generator: keygen.NewSSHKeygen(log),
		Clipboard: clipboard.System{},
		Log:       cl,
		Logger:    log,
		TrashDir:  cfg.Keys.TrashDir,
		QueueSize: cfg.Queue.Size,
	})
	orc.Start()

	cleanup := func() {
		orc.Close()
		_ = cl.Close()
	}
	return orc, cleanup, nil
}

// promptPassphrase asks for a key passphrase without echoing it.
func promptPassphrase(path string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", errors.New(errors.ErrAgent,
			"Key requires a passphrase but stdin is not a terminal",
			"Run interactively, or add the key with ssh-add")
	}
	fmt.Fprintf(os.Stderr, "Passphrase for %s: ", path)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "Failed to read passphrase")
	}
	return string(pass), nil
}

// tuiCommand starts the interactive interface.
func tuiCommand() error {
	if !term.IsTerminal(int(syscall.Stdout)) {
		return errors.New(errors.ErrExec,
			"The TUI needs a terminal",
			"Use 'skm list', 'skm add', and friends for scripting")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orc, cleanup, err := buildOrchestrator(cfg, true)
	if err != nil {
		return err
	}
	defer cleanup()

	return tui.Run(orc)
}

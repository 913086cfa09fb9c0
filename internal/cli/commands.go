package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/skm/internal/cmdlog"
	"github.com/rileyhilliard/skm/internal/config"
	"github.com/rileyhilliard/skm/internal/errors"
	"github.com/rileyhilliard/skm/internal/keygen"
	"github.com/rileyhilliard/skm/internal/keystore"
	"github.com/rileyhilliard/skm/internal/orchestrator"
	"github.com/rileyhilliard/skm/internal/ui"
)

// Command-specific flags
var (
	listJSONFlag      bool
	createTypeFlag    string
	createBitsFlag    int
	createCommentFlag string
	createPassFlag    bool
	deleteYesFlag     bool
	logCountFlag      int
)

// tuiCmd starts the interactive interface explicitly.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive key manager",
	Long: `Start the interactive TUI. This is also what plain 'skm' does.

Keyboard shortcuts:
  n           Create a new key
  a / u       Add to / remove from the ssh-agent
  d           Delete (moves the pair to the trash)
  Enter / v   Show the public key
  c           Copy the public key to the clipboard
  r           Rescan the key directory
  q / Ctrl+C  Quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tuiCommand()
	},
}

// listCmd prints the scanned keys.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys in the key directory",
	Long: `Scan the key directory and list the key pairs found there,
with type, fingerprint, agent status, and any hosts that reference
the key in the ssh config.

Examples:
  skm list
  skm list --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCommand(listJSONFlag)
	},
}

// createCmd generates a new key pair.
var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Generate a new key pair",
	Long: `Generate a new key pair in the key directory using ssh-keygen.

Examples:
  skm create id_ed25519_work
  skm create deploy --type rsa --bits 4096 --comment deploy@ci
  skm create vault --passphrase`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createCommand(args[0])
	},
}

// addCmd loads a key into the ssh-agent.
var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Load a key into the ssh-agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return intentCommand(cmdlog.ActionAgentAdd, args[0], true)
	},
}

// removeCmd unloads a key from the ssh-agent.
var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Unload a key from the ssh-agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return intentCommand(cmdlog.ActionAgentRemove, args[0], false)
	},
}

// deleteCmd moves a key pair to the trash.
var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Move a key pair to the trash",
	Long: `Move a key pair to the trash directory. Nothing is unlinked;
recover a key by moving it back out of the trash.

Examples:
  skm delete old_key
  skm delete old_key --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteCommand(args[0], deleteYesFlag)
	},
}

// copyCmd copies a public key to the clipboard.
var copyCmd = &cobra.Command{
	Use:   "copy <name>",
	Short: "Copy a public key to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return intentCommand(cmdlog.ActionCopy, args[0], false)
	},
}

// viewCmd prints a public key.
var viewCmd = &cobra.Command{
	Use:   "view <name>",
	Short: "Print a public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewCommand(args[0])
	},
}

// logCmd shows recent operations.
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent key operations",
	Long: `Show the command log: every create, delete, agent, view, and
copy operation with its outcome. Passphrases never appear here.

Examples:
  skm log
  skm log -n 50`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return logCommand(logCountFlag)
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for skm.

Examples:
  # Bash
  skm completion bash > /etc/bash_completion.d/skm

  # Zsh
  skm completion zsh > "${fpath[1]}/_skm"

  # Fish
  skm completion fish > ~/.config/fish/completions/skm.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSONFlag, "json", false, "output as JSON")

	createCmd.Flags().StringVarP(&createTypeFlag, "type", "t", "ed25519", "key type (ed25519, rsa, ecdsa, dsa)")
	createCmd.Flags().IntVarP(&createBitsFlag, "bits", "b", 0, "bit length (defaults per type; ignored for ed25519)")
	createCmd.Flags().StringVarP(&createCommentFlag, "comment", "C", "", "key comment")
	createCmd.Flags().BoolVar(&createPassFlag, "passphrase", false, "prompt for a passphrase")

	deleteCmd.Flags().BoolVarP(&deleteYesFlag, "yes", "y", false, "skip the confirmation prompt")

	logCmd.Flags().IntVarP(&logCountFlag, "lines", "n", 20, "number of entries to show")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(completionCmd)
}

// withOrchestrator builds the stack, runs fn, and tears down.
func withOrchestrator(interactive bool, fn func(*orchestrator.Orchestrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return withOrchestratorCfg(cfg, interactive, fn)
}

// withOrchestratorCfg is withOrchestrator for callers that already hold
// the config and need it alongside the orchestrator.
func withOrchestratorCfg(cfg *config.Config, interactive bool, fn func(*orchestrator.Orchestrator) error) error {
	orc, cleanup, err := buildOrchestrator(cfg, interactive)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := orc.Refresh(); err != nil {
		return err
	}
	return fn(orc)
}

// resolveTarget accepts either a key name or a path to a private key.
func resolveTarget(orc *orchestrator.Orchestrator, nameOrPath string) string {
	if strings.ContainsRune(nameOrPath, os.PathSeparator) {
		return nameOrPath
	}
	return orc.KeyPath(nameOrPath)
}

// keyJSON is the stable JSON shape for list output.
type keyJSON struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Bits        int      `json:"bits,omitempty"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Comment     string   `json:"comment,omitempty"`
	Hosts       []string `json:"hosts,omitempty"`
	Loaded      bool     `json:"loaded_in_agent"`
	Path        string   `json:"path"`
	PublicPath  string   `json:"public_path"`
}

func listCommand(asJSON bool) error {
	return withOrchestrator(false, func(orc *orchestrator.Orchestrator) error {
		snap := orc.Snapshot(0)

		if asJSON {
			out := make([]keyJSON, 0, len(snap.Keys))
			for i := range snap.Keys {
				rec := &snap.Keys[i]
				fp, _ := rec.Fingerprint()
				out = append(out, keyJSON{
					Name:        rec.Name,
					Type:        string(rec.Type),
					Bits:        rec.Bits,
					Fingerprint: fp,
					Comment:     rec.Comment,
					Hosts:       rec.Hosts,
					Loaded:      rec.LoadedInAgent,
					Path:        rec.Path,
					PublicPath:  rec.PublicPath,
				})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		rows := make([]ui.KeyTableRow, 0, len(snap.Keys))
		for i := range snap.Keys {
			rec := &snap.Keys[i]
			fp, err := rec.Fingerprint()
			if err != nil {
				fp = "unreadable"
			}
			symbol := ui.SymbolUnloaded
			if !snap.AgentReachable {
				symbol = ui.SymbolUnknown
			} else if rec.LoadedInAgent {
				symbol = ui.SymbolLoaded
			}
			bits := "-"
			if rec.Bits > 0 {
				bits = strconv.Itoa(rec.Bits)
			}
			rows = append(rows, ui.KeyTableRow{
				Loaded:      symbol,
				Name:        rec.Name,
				Type:        string(rec.Type),
				Bits:        bits,
				Fingerprint: fp,
				Hosts:       strings.Join(rec.Hosts, ","),
			})
		}
		fmt.Println(ui.RenderKeyTable(rows))

		if len(snap.Warnings) > 0 {
			fmt.Fprintf(os.Stderr, "%s %d file(s) skipped during scan; run with %s=1 for details\n",
				ui.SymbolWarning, len(snap.Warnings), "SKM_DEBUG")
		}
		return nil
	})
}

func createCommand(name string) error {
	return withOrchestrator(true, func(orc *orchestrator.Orchestrator) error {
		t := keystore.KeyType(strings.ToLower(createTypeFlag))
		bits := createBitsFlag
		if bits == 0 {
			bits = keygen.DefaultBits(t)
		}

		params := keygen.Params{
			Type:    t,
			Bits:    bits,
			Path:    resolveTarget(orc, name),
			Comment: createCommentFlag,
		}
		if err := params.Validate(); err != nil {
			return err
		}

		if createPassFlag {
			pass, err := promptPassphrase(params.Path)
			if err != nil {
				return err
			}
			confirm, err := promptPassphrase(params.Path + " (again)")
			if err != nil {
				return err
			}
			if pass != confirm {
				return errors.New(errors.ErrParams,
					"Passphrases do not match",
					"Try again")
			}
			params.Passphrase = pass
		}

		res := orc.Do(orchestrator.Intent{
			Action: cmdlog.ActionCreate,
			Target: params.Path,
			Params: params,
		})
		if res.Err != nil {
			return res.Err
		}
		fmt.Printf("%s %s\n", ui.SymbolSuccess, res.Entry.Message)
		fmt.Println(params.Path)
		return nil
	})
}

// intentCommand runs a simple single-target intent and prints the outcome.
func intentCommand(action cmdlog.Action, name string, interactive bool) error {
	return withOrchestrator(interactive, func(orc *orchestrator.Orchestrator) error {
		res := orc.Do(orchestrator.Intent{
			Action: action,
			Target: resolveTarget(orc, name),
		})
		if res.Err != nil {
			return res.Err
		}
		fmt.Printf("%s %s\n", ui.SymbolSuccess, res.Entry.Message)
		return nil
	})
}

func viewCommand(name string) error {
	return withOrchestrator(false, func(orc *orchestrator.Orchestrator) error {
		res := orc.Do(orchestrator.Intent{
			Action: cmdlog.ActionView,
			Target: resolveTarget(orc, name),
		})
		if res.Err != nil {
			return res.Err
		}
		fmt.Print(res.Content)
		return nil
	})
}

func deleteCommand(name string, yes bool) error {
	return withOrchestrator(false, func(orc *orchestrator.Orchestrator) error {
		target := resolveTarget(orc, name)

		if !yes {
			var confirmed bool
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Move %q and its public key to the trash?", name)).
					Value(&confirmed),
			))
			if err := form.Run(); err != nil {
				return errors.Wrap(err, "Failed to get confirmation")
			}
			if !confirmed {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		res := orc.Do(orchestrator.Intent{
			Action: cmdlog.ActionDelete,
			Target: target,
		})
		if res.Err != nil {
			return res.Err
		}
		fmt.Printf("%s %s\n", ui.SymbolSuccess, res.Entry.Message)
		return nil
	})
}

func logCommand(n int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return withOrchestratorCfg(cfg, false, func(orc *orchestrator.Orchestrator) error {
		entries := orc.CommandLog().Tail(n)
		if len(entries) == 0 {
			fmt.Println("No operations recorded.")
			if cfg.Log.File == "" {
				fmt.Println("Set log.file in the config to persist operations across runs.")
			}
			return nil
		}
		for _, e := range entries {
			symbol := ui.SymbolSuccess
			if e.Failed() {
				symbol = ui.SymbolFail
			}
			fmt.Printf("%s %s %-12s %-24s %s\n",
				e.Timestamp.Format("2006-01-02 15:04:05"),
				symbol, e.Action, shortTarget(e.Target), e.Message)
		}
		return nil
	})
}

func shortTarget(path string) string {
	if i := strings.LastIndexByte(path, os.PathSeparator); i >= 0 {
		return path[i+1:]
	}
	return path
}

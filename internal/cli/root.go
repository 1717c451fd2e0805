// Package cli wires the semacro subcommands. All query logic lives in the
// core packages; commands only parse input, run one query against the
// loaded index, and print results.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/duynguyendang/semacro/internal/config"
	"github.com/duynguyendang/semacro/pkg/policy"
)

const version = "0.2.0"

var (
	flagIncludePath string
	flagNoColor     bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "semacro",
		Short:         "Explore and expand SELinux policy macros, interfaces, and templates",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initColor(flagNoColor)
		},
	}

	root.PersistentFlags().StringVar(&flagIncludePath, "include-path", "",
		"path to the policy include directory (overrides "+config.EnvIncludePath+")")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newLookupCmd(),
		newFindCmd(),
		newListCmd(),
		newCallersCmd(),
		newWhichCmd(),
		newExpandCmd(),
		newDepsCmd(),
		newServeCmd(),
		newMCPCmd(),
	)
	return root
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "semacro: %v\n", err)
		return 1
	}
	return 0
}

// loadIndex resolves configuration and builds the definition index, warning
// when the corpus looks incomplete.
func loadIndex() (*policy.Index, error) {
	cfg, err := config.Load(flagIncludePath)
	if err != nil {
		return nil, err
	}

	ix, err := policy.LoadDir(cfg.IncludePath)
	if err != nil {
		return nil, err
	}

	stats := ix.Stats()
	var missing []string
	if stats.Defines == 0 {
		missing = append(missing, "support/*.spt (defines)")
	}
	if !stats.HasKernel {
		missing = append(missing, "kernel/*.if (core interfaces)")
	}
	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr,
			"semacro: warning: incomplete policy tree under %s, missing %s\n",
			cfg.IncludePath, strings.Join(missing, ", "))
	}
	return ix, nil
}

// readArg resolves a positional argument: the value itself, or one line
// from stdin when the value is missing or "-" and stdin is piped.
func readArg(args []string, command string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line, nil
			}
		}
	}
	return "", fmt.Errorf("%s: missing required argument (provide it or pipe via stdin)", command)
}

// notFoundHint prints "did you mean" suggestions after a failed lookup.
func notFoundHint(ix *policy.Index, name string) {
	if near := ix.Suggest(name, 5); len(near) > 0 {
		fmt.Fprintf(os.Stderr, "  Did you mean: %s\n", strings.Join(near, ", "))
	} else {
		fmt.Fprintf(os.Stderr, "  Try: semacro find %q\n", name)
	}
}

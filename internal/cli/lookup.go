package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/expand"
	"github.com/duynguyendang/semacro/pkg/m4"
)

func newLookupCmd() *cobra.Command {
	var (
		doExpand bool
		doRules  bool
		depth    int
	)

	cmd := &cobra.Command{
		Use:   "lookup [name|call]",
		Short: "Show or expand a macro definition",
		Long: `Show a macro definition, optionally with argument substitution and
recursive expansion.

A bare name shows the raw definition with $1, $2, ... placeholders. A call
such as "files_pid_filetrans(ntpd_t, ntpd_var_run_t, file)" substitutes the
arguments. With --expand the nested macros are resolved into a tree; with
--rules the tree is flattened into deduplicated, permission-merged policy
rules ready to paste into a .te file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Conflicting flags are rejected before any files are touched.
			if doExpand && doRules {
				return fmt.Errorf("%w: --expand and --rules are mutually exclusive", apperrors.ErrUsage)
			}
			if depth < 1 {
				return fmt.Errorf("%w: --depth must be at least 1", apperrors.ErrUsage)
			}

			input, err := readArg(args, "lookup")
			if err != nil {
				return err
			}
			call, err := m4.ParseCall(input)
			if err != nil {
				return err
			}

			ix, err := loadIndex()
			if err != nil {
				return err
			}

			def, dups, err := ix.Lookup(call.Name)
			if err != nil {
				notFoundHint(ix, call.Name)
				return err
			}
			if dups > 0 {
				fmt.Fprintf(os.Stderr, "semacro: note: %d duplicate definition(s) of %s exist; showing %s\n",
					dups, call.Name, def.Location())
			}

			if (doExpand || doRules) && len(call.Args) == 0 {
				fmt.Fprintf(os.Stderr,
					"semacro: warning: no arguments provided; output will contain raw $N references\n")
			}

			eng := &expand.Engine{Index: ix, MaxDepth: depth}

			if doRules {
				for _, rule := range eng.Rules(call) {
					fmt.Println(rule)
				}
				return nil
			}

			if doExpand {
				fmt.Println(renderTree(eng.Expand(call)))
				return nil
			}

			header := colored(string(def.Kind), ansiDim) + " " + colored(def.Name, ansiBold, ansiCyan)
			fmt.Printf("%s  %s\n", header, colored("# "+def.Location(), ansiDim))
			if len(call.Args) > 0 {
				body := m4.Substitute(def.Body, call.Args)
				fmt.Printf("%s(`%s',`\n%s\n')\n", def.Kind, def.Name, body)
			} else {
				fmt.Println(def.DisplayBody())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&doExpand, "expand", "e", false, "recursively expand nested macros into a tree")
	cmd.Flags().BoolVarP(&doRules, "rules", "r", false, "output flat deduplicated policy rules")
	cmd.Flags().IntVarP(&depth, "depth", "d", expand.DefaultMaxDepth, "max expansion depth")
	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/expand"
)

func newWhichCmd() *cobra.Command {
	var (
		transition bool
		objClass   string
		transName  string
	)

	cmd := &cobra.Command{
		Use:   "which <source> <target> <perms|new_type>",
		Short: "Find macros that grant a specific access",
		Long: `Search for macros that would produce allow rules or type_transitions
matching the given access parameters.

AV mode (default): find macros producing allow rules granting <source> the
given permission(s) on <target>. Quote multiple perms: "read write".
Transition mode (-T): find macros creating <new_type> under parent <target>.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if transName != "" && !transition {
				return fmt.Errorf("%w: --name only applies with --transition", apperrors.ErrUsage)
			}

			ix, err := loadIndex()
			if err != nil {
				return err
			}

			q := expand.Query{
				Source:     args[0],
				Target:     args[1],
				Class:      objClass,
				Filename:   transName,
				Transition: transition,
			}
			if transition {
				q.NewType = args[2]
			} else {
				q.Perms = strings.Fields(args[2])
			}

			matches := expand.Search(ix, q)
			if len(matches) == 0 {
				if transition {
					return fmt.Errorf("no macros found that create type_transition %s %s -> %s",
						q.Source, q.Target, q.NewType)
				}
				return fmt.Errorf("no macros found granting %s %q on %s", q.Source, args[2], q.Target)
			}

			for _, m := range matches {
				fmt.Printf("  %s  %s\n", colored(m.CallSig, ansiBold, ansiCyan), colored(m.Def.Location(), ansiDim))
			}
			fmt.Println(colored(fmt.Sprintf("\n%d result(s)", len(matches)), ansiDim))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&transition, "transition", "T", false, "search for type_transition rules instead of allow rules")
	cmd.Flags().StringVarP(&objClass, "class", "C", "", "filter by object class (e.g. file, dir)")
	cmd.Flags().StringVarP(&transName, "name", "N", "", "filter by named transition filename (only with -T)")
	return cmd
}

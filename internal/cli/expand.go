package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/expand"
)

func newExpandCmd() *cobra.Command {
	var (
		depth    int
		treeMode bool
	)

	cmd := &cobra.Command{
		Use:   "expand <file.te>",
		Short: "Expand all macros in a .te policy file",
		Long: `Read a .te file (or stdin with "-"), expand every macro call, and print
the full set of final policy rules, deduplicated and permission-merged.
With --tree, print one expansion tree per macro call instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 {
				return fmt.Errorf("%w: --depth must be at least 1", apperrors.ErrUsage)
			}

			var content []byte
			var err error
			if args[0] == "-" {
				content, err = io.ReadAll(os.Stdin)
			} else {
				content, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("cannot read %q: %w", args[0], err)
			}

			ix, err := loadIndex()
			if err != nil {
				return err
			}

			eng := &expand.Engine{Index: ix, MaxDepth: depth}
			result := eng.ExpandModule(string(content))

			if treeMode {
				for _, tree := range result.Trees {
					fmt.Println(renderTree(tree))
					fmt.Println()
				}
				return nil
			}
			for _, rule := range result.Rules {
				fmt.Println(rule)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", expand.DefaultMaxDepth, "max expansion depth")
	cmd.Flags().BoolVarP(&treeMode, "tree", "t", false, "output expansion trees instead of flat rules")
	return cmd
}

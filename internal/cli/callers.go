package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCallersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "callers [name]",
		Short: "Find which macros call a given macro (reverse lookup)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := readArg(args, "callers")
			if err != nil {
				return err
			}

			ix, err := loadIndex()
			if err != nil {
				return err
			}

			refs, err := ix.Callers(name)
			if err != nil {
				notFoundHint(ix, name)
				return err
			}
			if len(refs) == 0 {
				fmt.Printf("no macros call %q\n", name)
				return nil
			}

			for _, ref := range refs {
				fmt.Printf("  %s: %s\n", colored(fmt.Sprintf("%s:%d", ref.SourceFile, ref.Line), ansiDim),
					colored(ref.Name, ansiBold))
			}
			fmt.Println(colored(fmt.Sprintf("\n%d caller(s)", len(refs)), ansiDim))
			return nil
		},
	}
}

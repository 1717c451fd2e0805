package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find [pattern]",
		Short: "Search for macros whose name matches a regex pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := readArg(args, "find")
			if err != nil {
				return err
			}

			ix, err := loadIndex()
			if err != nil {
				return err
			}

			matches, err := ix.Find(pattern)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				return fmt.Errorf("no macros matching %q", pattern)
			}

			for _, def := range matches {
				kindTag := colored(fmt.Sprintf("[%c]", def.Kind[0]), ansiYellow)
				fmt.Printf("  %s %s: %s\n", kindTag, colored(def.SourceFile, ansiDim), colored(def.Name, ansiBold))
			}
			fmt.Println(colored(fmt.Sprintf("\n%d result(s)", len(matches)), ansiDim))
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duynguyendang/semacro/pkg/policy"
)

func newListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available macros, optionally filtered by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := loadIndex()
			if err != nil {
				return err
			}

			entries := ix.List(category)
			if len(entries) == 0 {
				return fmt.Errorf("no macros found for category %q", category)
			}

			width := len(fmt.Sprint(len(entries)))
			for i, def := range entries {
				num := colored(fmt.Sprintf("%*d", width, i+1), ansiDim)
				kindTag := colored(fmt.Sprintf("[%c]", def.Kind[0]), ansiYellow)
				fmt.Printf("  %s  %s %s  %s\n", num, kindTag, colored(def.Name, ansiBold), colored(def.SourceFile, ansiDim))
			}
			fmt.Println(colored(fmt.Sprintf("\n%d macro(s)", len(entries)), ansiDim))
			return nil
		},
	}

	categories := append(append([]string(nil), policy.Categories...), "all")
	cmd.Flags().StringVarP(&category, "category", "c", "all",
		fmt.Sprintf("filter by policy category %v", categories))
	return cmd
}

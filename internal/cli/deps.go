package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/duynguyendang/semacro/pkg/common/errors"
	"github.com/duynguyendang/semacro/pkg/export"
)

func newDepsCmd() *cobra.Command {
	var (
		depth  int
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "deps <name>",
		Short: "Export the dependency graph of a macro",
		Long: `Traverse the callee relation starting at the given macro (breadth-first,
bounded by --depth) and render it as a DOT, Mermaid, or D3 JSON document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 {
				return fmt.Errorf("%w: --depth must be at least 1", apperrors.ErrUsage)
			}

			ix, err := loadIndex()
			if err != nil {
				return err
			}

			graph, err := export.Build(ix, args[0], depth)
			if err != nil {
				notFoundHint(ix, args[0])
				return err
			}

			switch format {
			case "dot":
				fmt.Print(export.RenderDOT(graph))
			case "mermaid":
				fmt.Print(export.RenderMermaid(graph))
			case "d3":
				if output == "" {
					return fmt.Errorf("%w: --output is required for d3 format", apperrors.ErrUsage)
				}
				return export.SaveD3Graph(export.ToD3(graph), output)
			default:
				return fmt.Errorf("%w: unknown format %q (want dot, mermaid, or d3)", apperrors.ErrUsage, format)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 3, "max traversal depth in hops")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, mermaid, or d3")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (d3 format only)")
	return cmd
}

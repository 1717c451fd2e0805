package cli

import (
	"github.com/spf13/cobra"

	"github.com/duynguyendang/semacro/pkg/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server exposing macro queries over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := loadIndex()
			if err != nil {
				return err
			}
			return mcp.Run(cmd.Context(), ix)
		},
	}
}

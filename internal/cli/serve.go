package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duynguyendang/semacro/pkg/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server over the loaded index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, err := loadIndex()
			if err != nil {
				return err
			}
			fmt.Printf("Serving %d macro definitions on %s\n", ix.Len(), addr)
			return server.New(ix).Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

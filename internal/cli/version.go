package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/typestore/pkg/typestore"
)

const modulePath = "github.com/mesh-intelligence/typestore"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the typestore version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "typestore v%s\nmodule: %s\n", typestore.Version, modulePath)
			return nil
		},
	}
}

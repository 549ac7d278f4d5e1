package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/typestore/internal/store"
)

func newInitCmd(o *options) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize typestore storage",
		Long:  "Create the configuration and data directories and the storage tables.\nExisting data is kept unless --reset is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, reset, func(s *store.Store) error {
				return o.output(cmd, map[string]any{"initialized": true, "types": s.TypeNames()}, func(w io.Writer) {
					fmt.Fprintln(w, "typestore initialized")
				})
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop all data and recreate the bootstrap types")
	return cmd
}

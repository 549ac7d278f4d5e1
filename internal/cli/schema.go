package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/typestore/internal/schemafile"
	"github.com/mesh-intelligence/typestore/internal/store"
)

func newSchemaCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Apply and export YAML schema files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "apply <file>",
		Short: "Create the types and properties a schema file declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schemafile.Load(args[0])
			if err != nil {
				return err
			}
			return o.withSession(cmd, false, func(s *store.Store) error {
				res, err := schemafile.Apply(s, doc)
				if err != nil {
					return err
				}
				return o.output(cmd, res, func(w io.Writer) {
					fmt.Fprintf(w, "created %d types, %d properties\n", res.TypesCreated, res.PropertiesCreated)
				})
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Print the user-defined types as a schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, false, func(s *store.Store) error {
				doc, err := schemafile.Export(s)
				if err != nil {
					return err
				}
				data, err := schemafile.Marshal(doc)
				if err != nil {
					return err
				}
				return o.output(cmd, doc, func(w io.Writer) {
					w.Write(data)
				})
			})
		},
	})
	return cmd
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/typestore/internal/store"
	"github.com/mesh-intelligence/typestore/pkg/types"
)

// typeView is the printable form of a type and its properties.
type typeView struct {
	ID         int64                `json:"id"`
	Name       string               `json:"name"`
	Properties []types.PropertyInfo `json:"properties"`
}

func newTypeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Define and inspect types",
	}
	cmd.AddCommand(newTypeCreateCmd(o), newTypeListCmd(o), newTypeShowCmd(o))
	return cmd
}

func newTypeCreateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, false, func(s *store.Store) error {
				e, err := s.CreateType(args[0])
				if err != nil {
					return err
				}
				v := typeView{ID: e.ID(), Name: args[0], Properties: []types.PropertyInfo{}}
				return o.output(cmd, v, func(w io.Writer) {
					fmt.Fprintf(w, "created type %s (%d)\n", v.Name, v.ID)
				})
			})
		},
	}
}

func newTypeListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, false, func(s *store.Store) error {
				names := s.TypeNames()
				return o.output(cmd, names, func(w io.Writer) {
					for _, n := range names {
						fmt.Fprintln(w, n)
					}
				})
			})
		},
	}
}

func newTypeShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a type and its properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, false, func(s *store.Store) error {
				e, err := s.Type(args[0])
				if err != nil {
					return err
				}
				props, err := s.PropertiesForType(args[0])
				if err != nil {
					return err
				}
				v := typeView{ID: e.ID(), Name: args[0], Properties: props}
				return o.output(cmd, v, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%d)\n", v.Name, v.ID)
					for _, p := range v.Properties {
						fmt.Fprintf(w, "  %s: %s\n", p.Name, p.DataType)
					}
				})
			})
		},
	}
}

func newPropertyCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Define properties",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <type> <name> <data-type>",
		Short: "Create a property on a type",
		Long:  "Create a property on a type. The data type is String or the name of a type.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withSession(cmd, false, func(s *store.Store) error {
				e, err := s.CreateProperty(args[0], args[1], args[2])
				if err != nil {
					return err
				}
				v := struct {
					ID    int64  `json:"id"`
					Owner string `json:"owner"`
					types.PropertyInfo
				}{e.ID(), args[0], types.PropertyInfo{Name: args[1], DataType: args[2]}}
				return o.output(cmd, v, func(w io.Writer) {
					fmt.Fprintf(w, "created property %s.%s: %s (%d)\n", v.Owner, v.Name, v.DataType, v.ID)
				})
			})
		},
	})
	return cmd
}

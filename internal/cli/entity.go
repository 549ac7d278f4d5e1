package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/typestore/internal/store"
)

func newEntityCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Create, fetch, update, and delete entities",
	}
	cmd.AddCommand(
		newEntityCreateCmd(o),
		newEntityGetCmd(o),
		newEntityFindCmd(o),
		newEntityUpdateCmd(o),
		newEntityDeleteCmd(o),
	)
	return cmd
}

// addAssignmentFlags registers --set and --ref on cmd.
func addAssignmentFlags(cmd *cobra.Command, sets, refs *[]string) {
	cmd.Flags().StringArrayVar(sets, "set", nil, "string property as name=value (repeatable)")
	cmd.Flags().StringArrayVar(refs, "ref", nil, "reference property as name=id (repeatable)")
}

func newEntityCreateCmd(o *options) *cobra.Command {
	var typeName string
	var sets, refs []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and persist an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseAssignments(sets, refs)
			if err != nil {
				return err
			}
			return o.withSession(cmd, false, func(s *store.Store) error {
				e, err := s.NewEntity(typeName)
				if err != nil {
					return err
				}
				if err := a.apply(s, e); err != nil {
					return err
				}
				if err := e.Persist(); err != nil {
					return err
				}
				return o.printEntity(cmd, s, e)
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "type of the entity")
	_ = cmd.MarkFlagRequired("type")
	addAssignmentFlags(cmd, &sets, &refs)
	return cmd
}

func newEntityGetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.withSession(cmd, false, func(s *store.Store) error {
				e, err := s.FetchByID(id)
				if err != nil {
					return err
				}
				return o.printEntity(cmd, s, e)
			})
		},
	}
}

func newEntityFindCmd(o *options) *cobra.Command {
	var typeName string
	var sets, refs []string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find entities of a type matching every given value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseAssignments(sets, refs)
			if err != nil {
				return err
			}
			return o.withSession(cmd, false, func(s *store.Store) error {
				key, err := s.NewEntity(typeName)
				if err != nil {
					return err
				}
				if err := a.apply(s, key); err != nil {
					return err
				}
				found, err := s.FetchByKey(key)
				if err != nil {
					return err
				}
				views := make([]entityView, 0, len(found))
				for _, e := range found {
					v, err := viewEntity(s, e)
					if err != nil {
						return err
					}
					views = append(views, v)
				}
				return o.output(cmd, views, func(w io.Writer) {
					for _, v := range views {
						writeEntity(w, s, v)
					}
					fmt.Fprintf(w, "%d found\n", len(views))
				})
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "type to search")
	_ = cmd.MarkFlagRequired("type")
	addAssignmentFlags(cmd, &sets, &refs)
	return cmd
}

func newEntityUpdateCmd(o *options) *cobra.Command {
	var sets, refs []string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Set properties on a stored entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := parseAssignments(sets, refs)
			if err != nil {
				return err
			}
			return o.withSession(cmd, false, func(s *store.Store) error {
				e, err := s.FetchByID(id)
				if err != nil {
					return err
				}
				if err := a.apply(s, e); err != nil {
					return err
				}
				if err := e.Persist(); err != nil {
					return err
				}
				return o.printEntity(cmd, s, e)
			})
		},
	}
	addAssignmentFlags(cmd, &sets, &refs)
	return cmd
}

func newEntityDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.withSession(cmd, false, func(s *store.Store) error {
				e, err := s.FetchByID(id)
				if err != nil {
					return err
				}
				if err := e.Delete(); err != nil {
					return err
				}
				return o.output(cmd, map[string]int64{"deleted": id}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %d\n", id)
				})
			})
		},
	}
}

func (o *options) printEntity(cmd *cobra.Command, s *store.Store, e *store.Entity) error {
	v, err := viewEntity(s, e)
	if err != nil {
		return err
	}
	return o.output(cmd, v, func(w io.Writer) { writeEntity(w, s, v) })
}

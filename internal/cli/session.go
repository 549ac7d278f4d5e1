package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/typestore/internal/store"
	"github.com/mesh-intelligence/typestore/pkg/types"
)

// withSession opens a session, runs fn, and commits. When fn fails the
// session is rolled back instead. The session is always closed.
func (o *options) withSession(cmd *cobra.Command, reset bool, fn func(s *store.Store) error) (err error) {
	cfg, logger, err := o.resolve(cmd)
	if err != nil {
		return err
	}
	cfg.Reset = reset

	s, err := store.Open(cfg, store.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()

	if err := fn(s); err != nil {
		if rbErr := s.Rollback(); rbErr != nil {
			logger.Warn("rollback failed", "error", rbErr)
		}
		return err
	}
	return s.Commit()
}

// output writes v as indented JSON in --json mode and calls text otherwise.
func (o *options) output(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if !o.jsonMode {
		text(w)
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// entityView is the printable form of an entity.
type entityView struct {
	ID         int64             `json:"id"`
	Type       string            `json:"type"`
	Values     map[string]string `json:"values"`
	References map[string]int64  `json:"references,omitempty"`
}

func viewEntity(s *store.Store, e *store.Entity) (entityView, error) {
	view := entityView{ID: e.ID(), Type: e.TypeName(), Values: map[string]string{}}
	props, err := s.PropertiesForType(e.TypeName())
	if err != nil {
		return view, err
	}
	for _, p := range props {
		if p.DataType == types.DataTypeString {
			v, ok, err := e.GetString(p.Name)
			if err != nil {
				return view, err
			}
			if ok {
				view.Values[p.Name] = v
			}
			continue
		}
		id, ok, err := e.ReferenceID(p.Name)
		if err != nil {
			return view, err
		}
		if ok {
			if view.References == nil {
				view.References = map[string]int64{}
			}
			view.References[p.Name] = id
		}
	}
	return view, nil
}

func writeEntity(w io.Writer, s *store.Store, v entityView) {
	fmt.Fprintf(w, "%d\t%s\n", v.ID, v.Type)
	props, _ := s.PropertiesForType(v.Type)
	for _, p := range props {
		if val, ok := v.Values[p.Name]; ok {
			fmt.Fprintf(w, "  %s = %s\n", p.Name, val)
		}
		if id, ok := v.References[p.Name]; ok {
			fmt.Fprintf(w, "  %s -> %d\n", p.Name, id)
		}
	}
}

// assignments holds the parsed --set and --ref flags of an entity command.
type assignments struct {
	strings map[string]string
	refs    map[string]int64
}

// parseAssignments parses "name=value" pairs from --set and "name=id" pairs
// from --ref.
func parseAssignments(sets, refs []string) (assignments, error) {
	a := assignments{strings: map[string]string{}, refs: map[string]int64{}}
	for _, kv := range sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return a, fmt.Errorf("invalid --set %q: want name=value", kv)
		}
		a.strings[name] = value
	}
	for _, kv := range refs {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return a, fmt.Errorf("invalid --ref %q: want name=id", kv)
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return a, fmt.Errorf("invalid --ref %q: %w", kv, err)
		}
		a.refs[name] = id
	}
	return a, nil
}

// apply sets every assignment on e, fetching reference targets by id.
func (a assignments) apply(s *store.Store, e *store.Entity) error {
	for name, v := range a.strings {
		if err := e.SetString(name, v); err != nil {
			return err
		}
	}
	for name, id := range a.refs {
		target, err := s.FetchByID(id)
		if err != nil {
			return err
		}
		if err := e.SetReference(name, target); err != nil {
			return err
		}
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

package store

import (
	"fmt"
	"sort"
	"strings"
)

// predicate is one equality constraint of a key query: the attribute row
// for propertyID in table must hold value.
type predicate struct {
	propertyID int64
	table      string
	column     string
	value      any
}

// keyPredicates returns one predicate per property set on the template,
// ordered by property id so equal templates build equal queries.
func keyPredicates(e *Entity) []predicate {
	preds := make([]predicate, 0, len(e.strings)+len(e.refs))
	for id, v := range e.strings {
		preds = append(preds, predicate{propertyID: id, table: "string_values", column: "value", value: v})
	}
	for id, r := range e.refs {
		preds = append(preds, predicate{propertyID: id, table: "reference_values", column: "value_id", value: r.currentID()})
	}
	sort.Slice(preds, func(i, j int) bool { return preds[i].propertyID < preds[j].propertyID })
	return preds
}

// buildKeyQuery returns a select of the ids of every object of typeID whose
// attribute rows satisfy all predicates. Each predicate adds one inner join.
func buildKeyQuery(typeID int64, preds []predicate) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, 2*len(preds)+1)

	b.WriteString("SELECT o.object_id FROM objects o")
	for i, p := range preds {
		alias := fmt.Sprintf("p%d", i)
		fmt.Fprintf(&b, " JOIN %s %s ON %s.object_id = o.object_id AND %s.property_id = ? AND %s.%s = ?",
			p.table, alias, alias, alias, alias, p.column)
		args = append(args, p.propertyID, p.value)
	}
	b.WriteString(" WHERE o.type_id = ? ORDER BY o.object_id")
	args = append(args, typeID)
	return b.String(), args
}

// buildInQuery appends an IN list over ids to prefix, which must end with
// the column being matched.
func buildInQuery(prefix string, ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return prefix + " IN (" + strings.Join(placeholders, ", ") + ")", args
}

// batches splits ids into consecutive chunks of at most size.
func batches(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]int64
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}

package gateway

import (
	"strconv"
	"strings"

	"github.com/mesh-intelligence/typestore/pkg/types"
)

// dialect captures the statements that differ between the supported
// relational engines. Everything else is written once with "?" placeholders
// and rebound per dialect.
type dialect struct {
	name        string
	driver      string
	numbered    bool     // "$1" placeholders instead of "?"
	dropDDL     []string // drop statements, children first
	createDDL   []string // create statements, parents first
	nextID      []string // statements run in order; the last returns the id
	raiseID     string   // moves the generator past the id given as the only argument
	tableExists string
}

var sqliteDialect = dialect{
	name:   types.BackendSQLite,
	driver: "sqlite",
	dropDDL: []string{
		`DROP TABLE IF EXISTS reference_values`,
		`DROP TABLE IF EXISTS string_values`,
		`DROP TABLE IF EXISTS objects`,
		`DROP TABLE IF EXISTS object_sequence`,
	},
	createDDL: []string{
		`CREATE TABLE objects (
    object_id INTEGER PRIMARY KEY,
    type_id INTEGER NOT NULL,
    FOREIGN KEY (type_id) REFERENCES objects(object_id)
)`,
		`CREATE TABLE string_values (
    object_id INTEGER NOT NULL,
    property_id INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (object_id, property_id),
    FOREIGN KEY (object_id) REFERENCES objects(object_id),
    FOREIGN KEY (property_id) REFERENCES objects(object_id)
)`,
		`CREATE TABLE reference_values (
    object_id INTEGER NOT NULL,
    property_id INTEGER NOT NULL,
    value_id INTEGER NOT NULL,
    PRIMARY KEY (object_id, property_id),
    FOREIGN KEY (object_id) REFERENCES objects(object_id),
    FOREIGN KEY (property_id) REFERENCES objects(object_id),
    FOREIGN KEY (value_id) REFERENCES objects(object_id)
)`,
		`CREATE INDEX idx_objects_type ON objects(type_id)`,
		`CREATE INDEX idx_string_values_match ON string_values(property_id, value)`,
		`CREATE INDEX idx_reference_values_match ON reference_values(property_id, value_id)`,
		`CREATE TABLE object_sequence (next_id INTEGER NOT NULL)`,
		`INSERT INTO object_sequence (next_id) VALUES (100)`,
	},
	nextID: []string{
		`UPDATE object_sequence SET next_id = next_id + 1`,
		`SELECT next_id - 1 FROM object_sequence`,
	},
	raiseID:     `UPDATE object_sequence SET next_id = ? + 1`,
	tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
}

var postgresDialect = dialect{
	name:     types.BackendPostgres,
	driver:   "pgx",
	numbered: true,
	dropDDL: []string{
		`DROP TABLE IF EXISTS reference_values`,
		`DROP TABLE IF EXISTS string_values`,
		`DROP TABLE IF EXISTS objects`,
		`DROP SEQUENCE IF EXISTS object_sequence`,
	},
	createDDL: []string{
		`CREATE TABLE objects (
    object_id BIGINT PRIMARY KEY,
    type_id BIGINT NOT NULL REFERENCES objects(object_id)
)`,
		`CREATE TABLE string_values (
    object_id BIGINT NOT NULL REFERENCES objects(object_id),
    property_id BIGINT NOT NULL REFERENCES objects(object_id),
    value TEXT NOT NULL,
    PRIMARY KEY (object_id, property_id)
)`,
		`CREATE TABLE reference_values (
    object_id BIGINT NOT NULL REFERENCES objects(object_id),
    property_id BIGINT NOT NULL REFERENCES objects(object_id),
    value_id BIGINT NOT NULL REFERENCES objects(object_id),
    PRIMARY KEY (object_id, property_id)
)`,
		`CREATE INDEX idx_objects_type ON objects(type_id)`,
		`CREATE INDEX idx_string_values_match ON string_values(property_id, value)`,
		`CREATE INDEX idx_reference_values_match ON reference_values(property_id, value_id)`,
		`CREATE SEQUENCE object_sequence START WITH 100`,
	},
	nextID: []string{
		`SELECT nextval('object_sequence')`,
	},
	raiseID:     `SELECT setval('object_sequence', ?)`,
	tableExists: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`,
}

// dialects maps backend names from types.Config to dialects.
var dialects = map[string]dialect{
	types.BackendSQLite:   sqliteDialect,
	types.BackendPostgres: postgresDialect,
}

// rebind rewrites "?" placeholders into the dialect's form. Queries never
// carry literal question marks.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

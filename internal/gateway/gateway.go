// Package gateway implements the synchronous relational client the typestore
// session persists through: parameterized statements inside one ambient
// transaction on one connection, explicit commit and rollback, an identity
// generator seeded at 100, and the reset script that recreates the tables
// and the bootstrap metadata rows.
package gateway

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/typestore/pkg/types"
)

// DatabaseFile is the SQLite file created under Config.DataDir when no DSN
// is given.
const DatabaseFile = "typestore.db"

var sqlOpen = sql.Open

// Options carries optional gateway collaborators.
type Options struct {
	// Registerer receives the gateway counters. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// Gateway is a relational client bound to a single connection. All
// statements run in one lazily started transaction that stays open until
// Commit or Rollback.
type Gateway struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect dialect
	metrics *metrics

	// lastID is the highest id handed out since the last Reset. The SQLite
	// generator is a row in the ambient transaction and rewinds on rollback.
	lastID int64
}

// Open connects to the backend named in cfg. It does not touch the schema;
// call Initialized and Reset for that.
func Open(cfg types.Config, opts Options) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := dialects[cfg.Backend]

	dsn, err := dataSourceName(cfg)
	if err != nil {
		return nil, err
	}

	m, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register gateway metrics: %w", err)
	}

	db, err := sqlOpen(d.driver, dsn)
	if err != nil {
		return nil, types.StorageError("open "+d.name, err)
	}
	// One connection carries the ambient transaction.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, types.StorageError("ping "+d.name, err)
	}

	return &Gateway{db: db, dialect: d, metrics: m}, nil
}

// dataSourceName returns the driver DSN for cfg. For SQLite without an
// explicit DSN the database lives in DataDir, which is created if missing.
// SQLite connections always enable foreign keys.
func dataSourceName(cfg types.Config) (string, error) {
	if cfg.Backend != types.BackendSQLite {
		return cfg.DSN, nil
	}
	dsn := cfg.DSN
	if dsn == "" {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return "", fmt.Errorf("create data dir: %w", err)
		}
		dsn = "file:" + filepath.Join(dataDir, DatabaseFile)
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)", nil
}

// Dialect returns the backend name.
func (g *Gateway) Dialect() string {
	return g.dialect.name
}

// begin starts the ambient transaction if none is open.
func (g *Gateway) begin() (*sql.Tx, error) {
	if g.db == nil {
		return nil, types.Errorf(types.ErrClosedSession, "gateway closed")
	}
	if g.tx != nil {
		return g.tx, nil
	}
	tx, err := g.db.Begin()
	if err != nil {
		return nil, types.StorageError("begin transaction", err)
	}
	g.tx = tx
	return tx, nil
}

// Exec runs an insert, update, delete, or DDL statement and returns the
// number of affected rows.
func (g *Gateway) Exec(query string, args ...any) (int64, error) {
	tx, err := g.begin()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(g.dialect.rebind(query), args...)
	g.metrics.observe(opExec, err)
	if err != nil {
		return 0, types.StorageError("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, types.StorageError("rows affected", err)
	}
	return n, nil
}

// Query runs a select. The caller must close the rows before issuing the
// next statement.
func (g *Gateway) Query(query string, args ...any) (*sql.Rows, error) {
	tx, err := g.begin()
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(g.dialect.rebind(query), args...)
	g.metrics.observe(opQuery, err)
	if err != nil {
		return nil, types.StorageError("query", err)
	}
	return rows, nil
}

// NextID returns the next value of the identity generator. Ids are never
// handed out twice by one gateway, even when a rollback rewinds the
// generator.
func (g *Gateway) NextID() (id int64, err error) {
	defer func() { g.metrics.observe(opNextID, err) }()

	tx, err := g.begin()
	if err != nil {
		return 0, err
	}
	last := len(g.dialect.nextID) - 1
	for _, stmt := range g.dialect.nextID[:last] {
		if _, err := tx.Exec(stmt); err != nil {
			return 0, types.StorageError("advance identity generator", err)
		}
	}
	if err := tx.QueryRow(g.dialect.nextID[last]).Scan(&id); err != nil {
		return 0, types.StorageError("read identity generator", err)
	}
	if id <= g.lastID {
		id = g.lastID + 1
		if _, err := tx.Exec(g.dialect.rebind(g.dialect.raiseID), id); err != nil {
			return 0, types.StorageError("raise identity generator", err)
		}
	}
	g.lastID = id
	return id, nil
}

// Commit commits every statement since the last commit or rollback. With no
// open transaction it does nothing.
func (g *Gateway) Commit() error {
	if g.db == nil {
		return types.Errorf(types.ErrClosedSession, "gateway closed")
	}
	if g.tx == nil {
		return nil
	}
	err := g.tx.Commit()
	g.tx = nil
	g.metrics.observe(opCommit, err)
	return types.StorageError("commit", err)
}

// Rollback discards every statement since the last commit or rollback.
func (g *Gateway) Rollback() error {
	if g.db == nil {
		return types.Errorf(types.ErrClosedSession, "gateway closed")
	}
	if g.tx == nil {
		return nil
	}
	err := g.tx.Rollback()
	g.tx = nil
	g.metrics.observe(opRollback, err)
	return types.StorageError("rollback", err)
}

// Initialized reports whether the typestore tables exist.
func (g *Gateway) Initialized() (bool, error) {
	rows, err := g.Query(g.dialect.tableExists, "objects")
	if err != nil {
		return false, err
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, types.StorageError("scan table check", err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, types.StorageError("table check", err)
	}
	return n > 0, nil
}

// Reset drops and recreates the tables and the identity generator, inserts
// the bootstrap metadata rows, and commits. Any uncommitted work is lost.
func (g *Gateway) Reset() (err error) {
	defer func() { g.metrics.observe(opReset, err) }()

	if err := g.Rollback(); err != nil {
		return err
	}
	g.lastID = 0
	for _, stmt := range g.dialect.dropDDL {
		if _, err := g.Exec(stmt); err != nil {
			return fmt.Errorf("reset drop: %w", err)
		}
	}
	for _, stmt := range g.dialect.createDDL {
		if _, err := g.Exec(stmt); err != nil {
			return fmt.Errorf("reset create: %w", err)
		}
	}
	for _, o := range bootstrapObjects {
		if _, err := g.Exec(insertBootstrapObject, o.id, o.typeID); err != nil {
			return fmt.Errorf("reset object %d: %w", o.id, err)
		}
	}
	for _, s := range bootstrapStrings {
		if _, err := g.Exec(insertBootstrapString, s.objectID, s.propertyID, s.value); err != nil {
			return fmt.Errorf("reset string value %d/%d: %w", s.objectID, s.propertyID, err)
		}
	}
	for _, r := range bootstrapReferences {
		if _, err := g.Exec(insertBootstrapReference, r.objectID, r.propertyID, r.valueID); err != nil {
			return fmt.Errorf("reset reference value %d/%d: %w", r.objectID, r.propertyID, err)
		}
	}
	return g.Commit()
}

// Close rolls back any open transaction and closes the connection. Close
// on a closed gateway returns ErrClosedSession.
func (g *Gateway) Close() error {
	if g.db == nil {
		return types.Errorf(types.ErrClosedSession, "gateway closed")
	}
	var rbErr error
	if g.tx != nil {
		rbErr = g.tx.Rollback()
		g.tx = nil
	}
	err := g.db.Close()
	g.db = nil
	if err != nil {
		return types.StorageError("close", err)
	}
	return types.StorageError("rollback on close", rbErr)
}

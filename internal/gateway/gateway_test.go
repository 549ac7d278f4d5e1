package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/typestore/pkg/types"
)

func openTestGateway(t *testing.T, dataDir string, opts Options) *Gateway {
	t.Helper()
	g, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}, opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		if g.db != nil {
			_ = g.Close()
		}
	})
	return g
}

func countRows(t *testing.T, g *Gateway, query string, args ...any) int {
	t.Helper()
	rows, err := g.Query(query, args...)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	require.NoError(t, rows.Err())
	return n
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(types.Config{}, Options{})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)

	_, err = Open(types.Config{Backend: types.BackendPostgres}, Options{})
	assert.ErrorIs(t, err, types.ErrDSNRequired)
}

func TestResetCreatesBootstrapRows(t *testing.T) {
	g := openTestGateway(t, t.TempDir(), Options{})

	ok, err := g.Initialized()
	require.NoError(t, err)
	assert.False(t, ok, "fresh database should not be initialized")

	require.NoError(t, g.Reset())

	ok, err = g.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, len(bootstrapObjects), countRows(t, g, "SELECT COUNT(*) FROM objects"))
	assert.Equal(t, len(bootstrapStrings), countRows(t, g, "SELECT COUNT(*) FROM string_values"))
	assert.Equal(t, len(bootstrapReferences), countRows(t, g, "SELECT COUNT(*) FROM reference_values"))
	assert.Equal(t, 2, countRows(t, g, "SELECT COUNT(*) FROM objects WHERE type_id = ?", types.TypeTypeID))
}

func TestResetDiscardsUserRows(t *testing.T) {
	g := openTestGateway(t, t.TempDir(), Options{})
	require.NoError(t, g.Reset())

	id, err := g.NextID()
	require.NoError(t, err)
	_, err = g.Exec("INSERT INTO objects (object_id, type_id) VALUES (?, ?)", id, types.TypeTypeID)
	require.NoError(t, err)
	require.NoError(t, g.Commit())

	require.NoError(t, g.Reset())
	assert.Equal(t, len(bootstrapObjects), countRows(t, g, "SELECT COUNT(*) FROM objects"))

	id, err = g.NextID()
	require.NoError(t, err)
	assert.Equal(t, types.FirstUserID, id, "reset should reseed the identity generator")
}

func TestNextIDIsMonotonic(t *testing.T) {
	g := openTestGateway(t, t.TempDir(), Options{})
	require.NoError(t, g.Reset())

	first, err := g.NextID()
	require.NoError(t, err)
	second, err := g.NextID()
	require.NoError(t, err)

	assert.Equal(t, types.FirstUserID, first)
	assert.Equal(t, first+1, second)
}

func TestNextIDSurvivesRollback(t *testing.T) {
	g := openTestGateway(t, t.TempDir(), Options{})
	require.NoError(t, g.Reset())

	first, err := g.NextID()
	require.NoError(t, err)
	require.NoError(t, g.Rollback())

	second, err := g.NextID()
	require.NoError(t, err)
	assert.Greater(t, second, first, "a rolled back id is not handed out again")

	require.NoError(t, g.Commit())
	third, err := g.NextID()
	require.NoError(t, err)
	assert.Equal(t, second+1, third)
}

func TestRollbackDiscardsUncommittedWork(t *testing.T) {
	g := openTestGateway(t, t.TempDir(), Options{})
	require.NoError(t, g.Reset())

	_, err := g.Exec("INSERT INTO objects (object_id, type_id) VALUES (?, ?)", 500, types.TypeTypeID)
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, g, "SELECT COUNT(*) FROM objects WHERE object_id = ?", 500))

	require.NoError(t, g.Rollback())
	assert.Equal(t, 0, countRows(t, g, "SELECT COUNT(*) FROM objects WHERE object_id = ?", 500))
}

func TestCommitSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	g := openTestGateway(t, dir, Options{})
	require.NoError(t, g.Reset())
	_, err := g.Exec("INSERT INTO objects (object_id, type_id) VALUES (?, ?)", 500, types.TypeTypeID)
	require.NoError(t, err)
	require.NoError(t, g.Commit())
	require.NoError(t, g.Close())

	g2 := openTestGateway(t, dir, Options{})
	assert.Equal(t, 1, countRows(t, g2, "SELECT COUNT(*) FROM objects WHERE object_id = ?", 500))
}

func TestForeignKeysEnforced(t *testing.T) {
	g := openTestGateway(t, t.TempDir(), Options{})
	require.NoError(t, g.Reset())

	_, err := g.Exec("INSERT INTO objects (object_id, type_id) VALUES (?, ?)", 500, 4242)
	require.Error(t, err)
	assert.True(t, types.IsStorageFailure(err))
}

func TestClosedGateway(t *testing.T) {
	g := openTestGateway(t, t.TempDir(), Options{})
	require.NoError(t, g.Close())

	_, err := g.Exec("SELECT 1")
	assert.ErrorIs(t, err, types.ErrClosedSession)
	assert.ErrorIs(t, g.Commit(), types.ErrClosedSession)
	assert.ErrorIs(t, g.Rollback(), types.ErrClosedSession)
	assert.ErrorIs(t, g.Close(), types.ErrClosedSession)
}

func TestMetricsCountStatements(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := openTestGateway(t, t.TempDir(), Options{Registerer: reg})
	require.NoError(t, g.Reset())

	_, err := g.NextID()
	require.NoError(t, err)
	_, err = g.Exec("INSERT INTO objects (object_id, type_id) VALUES (?, ?)", 500, 4242)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(g.metrics.statements.WithLabelValues(opNextID)))
	assert.Equal(t, float64(1), testutil.ToFloat64(g.metrics.statements.WithLabelValues(opReset)))
	assert.Equal(t, float64(1), testutil.ToFloat64(g.metrics.errors.WithLabelValues(opExec)))

	// A second gateway on the same registry shares the counters.
	g2 := openTestGateway(t, t.TempDir(), Options{Registerer: reg})
	assert.Same(t, g.metrics.statements, g2.metrics.statements)
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect
		query   string
		want    string
	}{
		{"sqlite untouched", sqliteDialect, "SELECT a FROM t WHERE b = ? AND c = ?", "SELECT a FROM t WHERE b = ? AND c = ?"},
		{"postgres numbered", postgresDialect, "SELECT a FROM t WHERE b = ? AND c = ?", "SELECT a FROM t WHERE b = $1 AND c = $2"},
		{"postgres no params", postgresDialect, "SELECT 1", "SELECT 1"},
		{"postgres many params", postgresDialect, "IN (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", "IN ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.rebind(tt.query))
		})
	}
}

func TestDataSourceName(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  types.Config
		want string
	}{
		{
			name: "sqlite data dir",
			cfg:  types.Config{Backend: types.BackendSQLite, DataDir: dir},
			want: "file:" + filepath.Join(dir, DatabaseFile) + "?_pragma=foreign_keys(1)",
		},
		{
			name: "sqlite explicit dsn with params",
			cfg:  types.Config{Backend: types.BackendSQLite, DSN: "file:x.db?cache=shared"},
			want: "file:x.db?cache=shared&_pragma=foreign_keys(1)",
		},
		{
			name: "postgres passthrough",
			cfg:  types.Config{Backend: types.BackendPostgres, DSN: "postgres://localhost/ts"},
			want: "postgres://localhost/ts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataSourceName(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPostgresGateway runs against the database named by
// TYPESTORE_TEST_POSTGRES_DSN and is skipped without it.
func TestPostgresGateway(t *testing.T) {
	dsn := os.Getenv("TYPESTORE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TYPESTORE_TEST_POSTGRES_DSN not set")
	}
	g, err := Open(types.Config{Backend: types.BackendPostgres, DSN: dsn}, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	assert.Equal(t, types.BackendPostgres, g.Dialect())

	require.NoError(t, g.Reset())
	ok, err := g.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, len(bootstrapObjects), countRows(t, g, "SELECT COUNT(*) FROM objects"))

	id, err := g.NextID()
	require.NoError(t, err)
	assert.Equal(t, types.FirstUserID, id)

	_, err = g.Exec("INSERT INTO objects (object_id, type_id) VALUES (?, ?)", id, types.TypeTypeID)
	require.NoError(t, err)
	require.NoError(t, g.Rollback())
	assert.Equal(t, 0, countRows(t, g, "SELECT COUNT(*) FROM objects WHERE object_id = ?", id))
}

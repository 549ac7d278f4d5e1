package types

import "errors"

// Config holds backend selection and parameters for opening a session.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	DSN       string `json:"dsn" yaml:"dsn"`
	Reset     bool   `json:"reset" yaml:"reset"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DefaultBatchSize bounds the number of ids placed in one bulk attribute
// query when a key fetch matches many entities.
const DefaultBatchSize = 500

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrDSNRequired      = errors.New("dsn is required for the postgres backend")
	ErrBatchSizeInvalid = errors.New("batch size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.DSN == "" {
		return ErrDSNRequired
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	return nil
}

// GetBatchSize returns the configured batch size, or DefaultBatchSize when
// unset.
func (c Config) GetBatchSize() int {
	if c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

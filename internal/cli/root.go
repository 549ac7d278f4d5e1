// Package cli implements the typestore command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/typestore/pkg/types"
	"github.com/mesh-intelligence/typestore/pkg/typestore"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// options holds the global flag values shared by every subcommand.
type options struct {
	configDir string
	dataDir   string
	backend   string
	dsn       string
	logLevel  string
	jsonMode  bool
}

// NewRootCmd creates the top-level "typestore" command with its global
// flags and subcommands.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:     "typestore",
		Short:   "Schema-less typed entity storage",
		Long:    "typestore defines types and properties at runtime and stores entities of\nthose types in a relational database.",
		Version: typestore.Version,
		// Errors are printed once by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&o.dataDir, "data-dir", "", "data directory (default: $(CWD)/.typestore-db)")
	pf.StringVar(&o.backend, "backend", "", "storage backend: sqlite or postgres")
	pf.StringVar(&o.dsn, "dsn", "", "backend connection string")
	pf.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&o.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(o),
		newTypeCmd(o),
		newPropertyCmd(o),
		newEntityCmd(o),
		newSchemaCmd(o),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	err := NewRootCmd().Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}
	fmt.Fprintln(os.Stderr, "typestore:", err)
	os.Exit(exitCode(err))
}

// exitCode maps storage and config failures to exitSysError and every
// other error to exitUserError.
func exitCode(err error) int {
	switch {
	case types.IsStorageFailure(err),
		errors.Is(err, types.ErrBackendEmpty),
		errors.Is(err, types.ErrBackendUnknown),
		errors.Is(err, types.ErrDSNRequired):
		return exitSysError
	default:
		return exitUserError
	}
}

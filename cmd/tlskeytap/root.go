package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rsclarke/tlskeytap/internal/logging"
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "tlskeytap",
	Short: "TLS session secret extraction toolkit",
	Long: `tlskeytap records TLS session secrets from running processes as NSS
key log CLIENT_RANDOM lines, so that separately captured traffic can be
decrypted offline by a packet analyzer.

The interception shim (libtlskeytap.so, built with -buildmode=c-shared and
loaded via LD_PRELOAD) is the primary producer. This tool hosts the
debugger-based alternative producer for Go targets plus key log file
utilities; all producers emit the same line format.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.FromEnv())
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logging.Sync(logger)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/rsclarke/tlskeytap/internal/config"
	"github.com/rsclarke/tlskeytap/internal/extract"
	"github.com/rsclarke/tlskeytap/internal/keylog"
	"github.com/rsclarke/tlskeytap/internal/logging"
	"github.com/rsclarke/tlskeytap/internal/offsets"
)

// Process-wide capture state, initialized once on the first successful
// handshake and torn down implicitly at process exit. The writer holds the
// only open handle; it lives as long as the host process does.
var (
	setupOnce sync.Once
	logger    *zap.Logger
	writer    *keylog.Writer
	profile   offsets.Profile
)

func setup() {
	cfg := config.FromEnv()

	logger = logging.Nop()
	if cfg.Debug {
		if l, err := logging.New(logging.FromEnv()); err == nil {
			logger = l.With(logging.Component("shim"))
		}
	}

	var err error
	profile, err = offsets.Lookup(cfg.Offsets)
	if err != nil {
		// A bad profile selection would make every later extraction read
		// arbitrary memory; refuse up front, as distinctly as a failed
		// symbol resolution.
		fmt.Fprintf(os.Stderr, "tlskeytap: fatal: %v\n", err)
		os.Exit(127)
	}

	writer = keylog.NewWriter(cfg.KeyLogFile, false)
	logger.Info("shim configured",
		logging.Profile(profile.Name),
		logging.KeyLogPath(cfg.KeyLogFile))
}

// capture copies the session secrets out of ssl and appends a key log
// line. Failures here are never surfaced to the intercepted caller.
func capture(ssl unsafe.Pointer) {
	setupOnce.Do(setup)

	rec, ok := extract.Extract(ssl, profile)
	if !ok {
		logger.Debug("session has no loggable secrets")
		return
	}
	if err := writer.Append(rec); err != nil {
		logger.Warn("key log append failed", zap.Error(err))
	}
}

// Package config reads the shim's runtime configuration.
//
// Everything comes from the environment: the shim is injected into an
// unmodified target process, so environment variables are the only channel
// the operator has. Configuration is read once, at the first intercepted
// call.
package config

import "os"

// Environment variables understood by the shim.
const (
	// EnvKeyLogFile names the key log destination. Unset means logging is
	// disabled; interception still delegates correctly.
	EnvKeyLogFile = "SSLKEYLOGFILE"
	// EnvOffsets selects an offset profile: a built-in name or a path to a
	// YAML profile file.
	EnvOffsets = "TLSKEYTAP_OFFSETS"
	// EnvDebug enables shim diagnostics on stderr when set to a non-empty
	// value. Off by default so the target process's output is untouched.
	EnvDebug = "TLSKEYTAP_DEBUG"
)

// Config holds the shim's settings.
type Config struct {
	KeyLogFile string
	Offsets    string
	Debug      bool
}

// FromEnv loads the configuration from the process environment.
func FromEnv() Config {
	return Config{
		KeyLogFile: os.Getenv(EnvKeyLogFile),
		Offsets:    os.Getenv(EnvOffsets),
		Debug:      os.Getenv(EnvDebug) != "",
	}
}

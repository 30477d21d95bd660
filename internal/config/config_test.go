package config

import "testing"

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvKeyLogFile, "/tmp/keys.log")
	t.Setenv(EnvOffsets, "openssl-3.0")
	t.Setenv(EnvDebug, "1")

	cfg := FromEnv()
	if cfg.KeyLogFile != "/tmp/keys.log" {
		t.Errorf("KeyLogFile = %q", cfg.KeyLogFile)
	}
	if cfg.Offsets != "openssl-3.0" {
		t.Errorf("Offsets = %q", cfg.Offsets)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv(EnvKeyLogFile, "")
	t.Setenv(EnvOffsets, "")
	t.Setenv(EnvDebug, "")

	cfg := FromEnv()
	if cfg.KeyLogFile != "" || cfg.Offsets != "" || cfg.Debug {
		t.Errorf("unset environment produced %+v", cfg)
	}
}

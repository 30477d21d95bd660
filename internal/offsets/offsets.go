// Package offsets describes where session secrets live inside OpenSSL's
// private structures. The extraction logic is layout-agnostic; supporting a
// new library build is a matter of supplying a new profile, not new code.
//
// Offsets are version- and build-dependent. The built-in profiles match
// common x86-64 glibc builds; they are not validated at runtime, so running
// against a library they do not match silently reads wrong bytes. Verifying
// the profile against the target build is an operator precondition.
package offsets

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile holds the byte offsets needed to walk from an SSL handle to the
// two secret fields of its session.
type Profile struct {
	Name string `yaml:"name"`

	// Offset of the SSL_SESSION pointer within the SSL structure.
	Session uint64 `yaml:"session"`
	// Offsets within SSL_SESSION.
	MasterKeyLen      uint64 `yaml:"master_key_length"`
	MasterKeyLenWidth uint64 `yaml:"master_key_length_width"` // 4 or 8; 0 means 8
	MasterKey         uint64 `yaml:"master_key"`
	// Offset of the ssl3 handshake state within the SSL structure. A
	// pointer field in 1.1.x, an inline struct from 3.0 on.
	S3       uint64 `yaml:"s3"`
	S3Inline bool   `yaml:"s3_inline"`
	// Offset of the client random within the ssl3 state.
	ClientRandom uint64 `yaml:"client_random"`
}

// DefaultName is the profile used when TLSKEYTAP_OFFSETS is unset.
const DefaultName = "openssl-1.1.1"

var builtin = map[string]Profile{
	"openssl-1.1.1": {
		Name:              "openssl-1.1.1",
		Session:           0x510,
		MasterKeyLen:      0x08,
		MasterKeyLenWidth: 8,
		MasterKey:         0x10,
		S3:                0xA8,
		S3Inline:          false,
		ClientRandom:      0xB8,
	},
	"openssl-3.0": {
		Name:              "openssl-3.0",
		Session:           0x918,
		MasterKeyLen:      0x08,
		MasterKeyLenWidth: 8,
		MasterKey:         0x10,
		S3:                0xA8,
		S3Inline:          true,
		ClientRandom:      0xB8,
	},
}

// Names returns the built-in profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves spec to a profile. An empty spec selects DefaultName; a
// known profile name selects that profile; anything containing a path
// separator or a .yaml/.yml suffix is loaded as a YAML profile file.
func Lookup(spec string) (Profile, error) {
	if spec == "" {
		spec = DefaultName
	}
	if p, ok := builtin[spec]; ok {
		return p, nil
	}
	if strings.ContainsRune(spec, os.PathSeparator) ||
		strings.HasSuffix(spec, ".yaml") || strings.HasSuffix(spec, ".yml") {
		return LoadFile(spec)
	}
	return Profile{}, fmt.Errorf("offsets: unknown profile %q (built-in: %s)",
		spec, strings.Join(Names(), ", "))
}

// LoadFile reads a custom profile from a YAML file.
func LoadFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("offsets: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("offsets: parse %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return Profile{}, fmt.Errorf("offsets: %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = path
	}
	return p, nil
}

func (p Profile) validate() error {
	switch p.MasterKeyLenWidth {
	case 0, 4, 8:
	default:
		return fmt.Errorf("master_key_length_width must be 4 or 8, got %d", p.MasterKeyLenWidth)
	}
	if p.Session == 0 {
		return fmt.Errorf("session offset is required")
	}
	if !p.S3Inline && p.S3 == 0 {
		return fmt.Errorf("s3 offset is required")
	}
	return nil
}

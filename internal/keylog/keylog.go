// Package keylog implements the NSS key log format consumed by packet
// analyzers to decrypt recorded TLS traffic.
package keylog

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// ClientRandomSize is the length of the TLS client random nonce.
	ClientRandomSize = 32
	// MasterSecretSize is the length of the TLS master secret.
	MasterSecretSize = 48

	// Label identifies a master secret entry in the key log.
	Label = "CLIENT_RANDOM"
)

// Record holds the secrets of one established TLS session.
type Record struct {
	ClientRandom [ClientRandomSize]byte
	MasterSecret [MasterSecretSize]byte
}

// Line renders the record as a single key log line, without the trailing
// newline: "CLIENT_RANDOM <64 hex> <96 hex>", hex uppercase.
func (r Record) Line() string {
	return Label + " " +
		strings.ToUpper(hex.EncodeToString(r.ClientRandom[:])) + " " +
		strings.ToUpper(hex.EncodeToString(r.MasterSecret[:]))
}

// ParseLine parses a single key log line produced by Line. It accepts
// lowercase hex as well, since other producers of the format emit it.
func ParseLine(line string) (Record, error) {
	var rec Record

	fields := strings.Split(strings.TrimRight(line, "\r\n"), " ")
	if len(fields) != 3 {
		return rec, fmt.Errorf("keylog: expected 3 fields, got %d", len(fields))
	}
	if fields[0] != Label {
		return rec, fmt.Errorf("keylog: unsupported label %q", fields[0])
	}

	cr, err := hex.DecodeString(strings.ToLower(fields[1]))
	if err != nil {
		return rec, fmt.Errorf("keylog: client random: %w", err)
	}
	if len(cr) != ClientRandomSize {
		return rec, fmt.Errorf("keylog: client random is %d bytes, want %d", len(cr), ClientRandomSize)
	}

	ms, err := hex.DecodeString(strings.ToLower(fields[2]))
	if err != nil {
		return rec, fmt.Errorf("keylog: master secret: %w", err)
	}
	if len(ms) != MasterSecretSize {
		return rec, fmt.Errorf("keylog: master secret is %d bytes, want %d", len(ms), MasterSecretSize)
	}

	copy(rec.ClientRandom[:], cr)
	copy(rec.MasterSecret[:], ms)
	return rec, nil
}

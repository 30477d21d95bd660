// Package extract copies session secrets out of a foreign SSL object.
//
// The SSL object is owned by the intercepted library; this package holds
// only a transient read-only view of it, valid for the duration of the
// call, and copies the two secret fields out before returning.
package extract

import (
	"unsafe"

	"github.com/rsclarke/tlskeytap/internal/keylog"
	"github.com/rsclarke/tlskeytap/internal/offsets"
)

// Extract reads the client random and master secret reachable from ssl,
// following the offsets in p. It returns false when the session is not in a
// loggable state: nil session or handshake-state pointers, or a master key
// length other than 48 (unfinished handshake, or a TLS 1.3 resumption PSK).
//
// Offsets that do not match the loaded library are not detectable here;
// they read wrong bytes without error. See package offsets.
func Extract(ssl unsafe.Pointer, p offsets.Profile) (keylog.Record, bool) {
	var rec keylog.Record
	if ssl == nil {
		return rec, false
	}

	sess := readPointer(ssl, uintptr(p.Session))
	if sess == nil {
		return rec, false
	}
	if masterKeyLen(sess, p) != keylog.MasterSecretSize {
		return rec, false
	}

	s3 := unsafe.Add(ssl, uintptr(p.S3))
	if !p.S3Inline {
		s3 = readPointer(ssl, uintptr(p.S3))
		if s3 == nil {
			return rec, false
		}
	}

	copy(rec.ClientRandom[:], view(s3, uintptr(p.ClientRandom), keylog.ClientRandomSize))
	copy(rec.MasterSecret[:], view(sess, uintptr(p.MasterKey), keylog.MasterSecretSize))
	return rec, true
}

func readPointer(base unsafe.Pointer, off uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Add(base, off))
}

func view(base unsafe.Pointer, off uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Add(base, off)), n)
}

func masterKeyLen(sess unsafe.Pointer, p offsets.Profile) uint64 {
	if p.MasterKeyLenWidth == 4 {
		return uint64(*(*uint32)(unsafe.Add(sess, uintptr(p.MasterKeyLen))))
	}
	return *(*uint64)(unsafe.Add(sess, uintptr(p.MasterKeyLen)))
}

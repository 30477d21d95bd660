package interpose

import (
	"testing"
	"unsafe"

	"github.com/rsclarke/tlskeytap/internal/keylog"
)

func testTable() *Table {
	return New(func(name string) (uintptr, error) { return 0x1000, nil })
}

func TestCallCapturesOnSuccess(t *testing.T) {
	var handle int
	var captured unsafe.Pointer
	ic := NewInterceptor(testTable(),
		func(fn uintptr, h unsafe.Pointer) int32 { return Success },
		func(h unsafe.Pointer) { captured = h })

	if got := ic.Call("SSL_connect", unsafe.Pointer(&handle)); got != Success {
		t.Fatalf("Call = %d, want %d", got, Success)
	}
	if captured != unsafe.Pointer(&handle) {
		t.Error("capture did not receive the caller's handle")
	}
}

func TestCallSkipsCaptureOnFailure(t *testing.T) {
	// Everything OpenSSL hands back for an unfinished or failed handshake:
	// 0 for a controlled shutdown, negative for errors.
	for _, ret := range []int32{0, -1, -2} {
		captures := 0
		ic := NewInterceptor(testTable(),
			func(fn uintptr, h unsafe.Pointer) int32 { return ret },
			func(h unsafe.Pointer) { captures++ })

		var handle int
		if got := ic.Call("SSL_connect", unsafe.Pointer(&handle)); got != ret {
			t.Errorf("Call = %d, want genuine result %d unchanged", got, ret)
		}
		if captures != 0 {
			t.Errorf("capture ran %d times for result %d, want 0", captures, ret)
		}
	}
}

func TestCallDelegatesWithOriginalArguments(t *testing.T) {
	var handle int
	var sawFn uintptr
	var sawHandle unsafe.Pointer
	ic := NewInterceptor(testTable(),
		func(fn uintptr, h unsafe.Pointer) int32 {
			sawFn, sawHandle = fn, h
			return 0
		},
		func(h unsafe.Pointer) {})

	ic.Call("SSL_connect", unsafe.Pointer(&handle))
	if sawFn != 0x1000 {
		t.Errorf("delegate received fn %#x, want resolved 0x1000", sawFn)
	}
	if sawHandle != unsafe.Pointer(&handle) {
		t.Error("delegate did not receive the caller's handle")
	}
}

func TestCallWithLoggingUnsetStillDelegates(t *testing.T) {
	// An unset key log destination makes the writer inert; every call must
	// still reach the genuine implementation and return its result.
	w := keylog.NewWriter("", false)
	delegations := 0
	ic := NewInterceptor(testTable(),
		func(fn uintptr, h unsafe.Pointer) int32 {
			delegations++
			return Success
		},
		func(h unsafe.Pointer) {
			if err := w.Append(keylog.Record{}); err != nil {
				t.Errorf("inert append failed: %v", err)
			}
		})

	var handle int
	for i := 0; i < 3; i++ {
		if got := ic.Call("SSL_connect", unsafe.Pointer(&handle)); got != Success {
			t.Fatalf("Call = %d, want %d", got, Success)
		}
	}
	if delegations != 3 {
		t.Errorf("delegate ran %d times, want 3", delegations)
	}
}

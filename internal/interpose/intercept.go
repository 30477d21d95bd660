package interpose

import "unsafe"

// Success is OpenSSL's return value for a completed handshake.
const Success = 1

// Interceptor runs the sequence behind one intercepted entry point:
// resolve the genuine implementation once, delegate to it with the caller's
// handle, capture secrets only when it reports success, and hand its result
// back unchanged. The delegate and capture callbacks are injected; the
// shim supplies the dlsym-backed call and the key log capture, tests
// supply counters.
type Interceptor struct {
	syms     *Table
	delegate func(fn uintptr, handle unsafe.Pointer) int32
	capture  func(handle unsafe.Pointer)
}

// NewInterceptor wires a symbol table to a delegate and a capture callback.
func NewInterceptor(syms *Table, delegate func(uintptr, unsafe.Pointer) int32, capture func(unsafe.Pointer)) *Interceptor {
	return &Interceptor{syms: syms, delegate: delegate, capture: capture}
}

// Call intercepts one invocation of name. Whatever the genuine
// implementation returns is returned to the caller as is; a non-success
// result skips capture entirely, so no partial record is ever logged. No
// lock is held across the delegated call.
func (ic *Interceptor) Call(name string, handle unsafe.Pointer) int32 {
	ret := ic.delegate(ic.syms.Resolve(name), handle)
	if ret == Success {
		ic.capture(handle)
	}
	return ret
}

// Command libtlskeytap is an interception shim for processes that use
// OpenSSL. Built as a shared library and loaded ahead of the real library,
// it wraps the handshake entry points, delegates to the genuine
// implementations, and appends one CLIENT_RANDOM key log line per
// established session. The target process is otherwise unaffected.
//
// Build:
//
//	go build -buildmode=c-shared -o libtlskeytap.so ./cmd/libtlskeytap
//
// Use:
//
//	SSLKEYLOGFILE=keys.log LD_PRELOAD=./libtlskeytap.so curl https://example.com
//
// See package config for the environment variables understood here.
package main

/*
#cgo CFLAGS: -D_GNU_SOURCE
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef int (*tlskeytap_ssl_fn)(void *);

static void *tlskeytap_dlsym_next(const char *name) {
	return dlsym(RTLD_NEXT, name);
}

static const char *tlskeytap_dlerror(void) {
	return dlerror();
}

static int tlskeytap_call(void *fn, void *ssl) {
	return ((tlskeytap_ssl_fn)fn)(ssl);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/rsclarke/tlskeytap/internal/interpose"
)

var shim = interpose.NewInterceptor(interpose.New(resolveNext), delegate, capture)

// resolveNext fetches the genuine implementation of name, skipping this
// library's own override in the lookup order.
func resolveNext(name string) (uintptr, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.tlskeytap_dlerror() // clear any stale error state
	fn := C.tlskeytap_dlsym_next(cname)
	if fn == nil {
		if msg := C.tlskeytap_dlerror(); msg != nil {
			return 0, fmt.Errorf("dlsym(RTLD_NEXT): %s", C.GoString(msg))
		}
		return 0, fmt.Errorf("dlsym(RTLD_NEXT) returned NULL")
	}
	return uintptr(fn), nil
}

// delegate invokes the genuine entry point. fn is a dlsym result, never Go
// memory; the uintptr round trip through the symbol table is safe. A
// stalled handshake here never blocks logging on another connection, since
// no lock is held around it.
func delegate(fn uintptr, ssl unsafe.Pointer) int32 {
	return int32(C.tlskeytap_call(unsafe.Pointer(fn), ssl))
}

func intercept(name string, ssl unsafe.Pointer) C.int {
	return C.int(shim.Call(name, ssl))
}

//export SSL_connect
func SSL_connect(ssl unsafe.Pointer) C.int {
	return intercept("SSL_connect", ssl)
}

//export SSL_accept
func SSL_accept(ssl unsafe.Pointer) C.int {
	return intercept("SSL_accept", ssl)
}

//export SSL_do_handshake
func SSL_do_handshake(ssl unsafe.Pointer) C.int {
	return intercept("SSL_do_handshake", ssl)
}

func main() {}

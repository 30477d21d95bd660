// Package interpose caches resolved addresses of the genuine library
// symbols that the shim overrides.
//
// Resolution is initialize-once per symbol: concurrent first callers
// serialize on the lookup, the resolver runs exactly once, and every caller
// observes the same cached address. An unresolvable symbol is a fatal
// configuration error, distinct from any handshake failure, because
// delegating to a missing implementation cannot be recovered from.
package interpose

import (
	"fmt"
	"os"
	"sync"
)

// ResolverFunc looks up the genuine address of a symbol, bypassing the
// shim's own override. A zero address with a nil error is treated as a
// failed lookup.
type ResolverFunc func(name string) (uintptr, error)

// FatalFunc is invoked when a symbol cannot be resolved. The default
// handler prints a diagnostic and terminates the process; it never returns.
type FatalFunc func(name string, err error)

// Table is the process-wide symbol cache.
type Table struct {
	resolve ResolverFunc
	onFatal FatalFunc

	mu   sync.Mutex
	syms map[string]*entry
}

type entry struct {
	once sync.Once
	fn   uintptr
	err  error
}

// New returns a table backed by resolve, aborting the process on failed
// lookups.
func New(resolve ResolverFunc) *Table {
	return &Table{
		resolve: resolve,
		onFatal: abort,
		syms:    make(map[string]*entry),
	}
}

// SetFatalHandler replaces the abort-on-failure handler. Intended for
// tests; if the handler returns, Resolve returns 0.
func (t *Table) SetFatalHandler(fn FatalFunc) { t.onFatal = fn }

// Resolve returns the genuine address of name, performing the underlying
// lookup at most once per process lifetime.
func (t *Table) Resolve(name string) uintptr {
	e := t.entry(name)
	e.once.Do(func() {
		e.fn, e.err = t.resolve(name)
		if e.err == nil && e.fn == 0 {
			e.err = fmt.Errorf("symbol not found")
		}
	})
	if e.err != nil {
		t.onFatal(name, e.err)
		return 0
	}
	return e.fn
}

func (t *Table) entry(name string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.syms[name]
	if !ok {
		e = new(entry)
		t.syms[name] = e
	}
	return e
}

func abort(name string, err error) {
	fmt.Fprintf(os.Stderr,
		"tlskeytap: fatal: cannot resolve genuine %s (%v); interception is broken, aborting\n",
		name, err)
	os.Exit(127)
}

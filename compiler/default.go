package compiler

import (
	"context"
	"sync"

	"github.com/chazu/memc/toolchain"
)

var defaultCompiler = sync.OnceValues(func() (*Compiler, error) {
	return New()
})

// Default returns the package-level compiler, built on first use from
// manifest.Default.
func Default() (*Compiler, error) {
	return defaultCompiler()
}

// Compile compiles source with the default compiler and no caller context.
// diags may be nil.
func Compile(source string, diags *toolchain.Collector) ([]byte, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	// A nil *Collector must not reach the task as a non-nil Listener.
	var l toolchain.Listener
	if diags != nil {
		l = diags
	}
	return c.Compile(context.Background(), source, l)
}

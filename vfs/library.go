package vfs

import (
	"bytes"
	"io"

	"github.com/chazu/memc/toolchain"
)

// Library is compiled export data held in memory under an import path, so
// that a submission can import a package produced by an earlier compilation
// without that package ever touching disk.
type Library struct {
	path string
	uri  string
	data []byte
}

var _ toolchain.InputFile = (*Library)(nil)

// NewLibrary wraps export data for importPath. data is not copied.
func NewLibrary(importPath string, data []byte) *Library {
	return &Library{
		path: importPath,
		uri:  URI("lib", importPath, toolchain.KindArtifact),
		data: data,
	}
}

func (l *Library) Name() string         { return l.path }
func (l *Library) URI() string          { return l.uri }
func (l *Library) Kind() toolchain.Kind { return toolchain.KindArtifact }

// Open returns a reader over the export data.
func (l *Library) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(l.data)), nil
}

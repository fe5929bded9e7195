package toolchain

import (
	"io"
)

// ---------------------------------------------------------------------------
// Locations and kinds
// ---------------------------------------------------------------------------

// Location says where a toolchain is looking when it asks for a file.
type Location uint8

const (
	// LocationSource is the search path for compilation units.
	LocationSource Location = iota
	// LocationOutput is where compiled artifacts are written.
	LocationOutput
	// LocationPlatform is the search path for imported packages
	// (standard library and other libraries).
	LocationPlatform
)

func (l Location) String() string {
	switch l {
	case LocationSource:
		return "SOURCE_PATH"
	case LocationOutput:
		return "OUTPUT"
	case LocationPlatform:
		return "PLATFORM_PATH"
	}
	return "UNKNOWN"
}

// Kind tags what a file object holds.
type Kind uint8

const (
	// KindSource is source text.
	KindSource Kind = iota
	// KindArtifact is compiled output (export data for the Go toolchain).
	KindArtifact
	// KindOther is anything else.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "SOURCE"
	case KindArtifact:
		return "ARTIFACT"
	}
	return "OTHER"
}

// Extension returns the file extension used when fabricating a location
// for an object of this kind.
func (k Kind) Extension() string {
	switch k {
	case KindSource:
		return ".go"
	case KindArtifact:
		return ".x"
	}
	return ""
}

// ---------------------------------------------------------------------------
// File objects
// ---------------------------------------------------------------------------

// FileObject is anything a toolchain can be handed in place of a file.
type FileObject interface {
	// Name is the logical name the object was resolved under
	// (a type name for units, an import path for libraries).
	Name() string
	// URI is the location marker reported in diagnostics.
	URI() string
	Kind() Kind
}

// InputFile is a FileObject the toolchain can read.
type InputFile interface {
	FileObject
	// Open returns a reader positioned at the start of the payload.
	Open() (io.ReadCloser, error)
}

// SourceFile is an InputFile that carries source text.
type SourceFile interface {
	InputFile
	// Content returns the source text verbatim.
	Content() (string, error)
}

// OutputFile is a FileObject the toolchain can write a compiled artifact to.
type OutputFile interface {
	FileObject
	// Create returns a handle the toolchain writes the artifact through.
	Create() (io.WriteCloser, error)
}

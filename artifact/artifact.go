// Package artifact wraps the bytes produced by a compilation in a
// self-describing envelope and loads them back for downstream consumers.
//
// Envelopes are encoded as canonical CBOR so that equal artifacts always
// encode to equal bytes. The digest is the SHA-256 of the compiled bytes and
// is checked on decode.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Artifact formats.
const (
	// FormatExportData marks Go export data as written by
	// golang.org/x/tools/go/gcexportdata.
	FormatExportData = "go-export-data"
	// FormatRaw marks bytes of a format the producing toolchain did not name.
	FormatRaw = "raw"
)

var (
	// ErrDigestMismatch is returned when Data does not hash to Digest.
	ErrDigestMismatch = errors.New("artifact: digest does not match data")
	// ErrEmpty is returned for an artifact without data.
	ErrEmpty = errors.New("artifact: no data")
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("artifact: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Artifact is one compiled unit plus what is needed to identify it.
type Artifact struct {
	Symbol    string   `cbor:"1,keyasint"`
	Toolchain string   `cbor:"2,keyasint"`
	Format    string   `cbor:"3,keyasint"`
	CompileID string   `cbor:"4,keyasint,omitempty"` // per-call id, differs between identical compiles
	Digest    [32]byte `cbor:"5,keyasint"`
	Data      []byte   `cbor:"6,keyasint"`
}

// New builds an artifact over data and computes its digest. data is not
// copied.
func New(symbol, toolchain, format, compileID string, data []byte) *Artifact {
	return &Artifact{
		Symbol:    symbol,
		Toolchain: toolchain,
		Format:    format,
		CompileID: compileID,
		Digest:    sha256.Sum256(data),
		Data:      data,
	}
}

// Verify checks that Digest matches Data.
func (a *Artifact) Verify() error {
	if len(a.Data) == 0 {
		return ErrEmpty
	}
	if sha256.Sum256(a.Data) != a.Digest {
		return fmt.Errorf("%w: %s", ErrDigestMismatch, a.Symbol)
	}
	return nil
}

// ShortDigest is the first 12 hex digits of the digest.
func (a *Artifact) ShortDigest() string {
	return hex.EncodeToString(a.Digest[:6])
}

func (a *Artifact) String() string {
	return fmt.Sprintf("%s (%s, %s, %d bytes, %s)", a.Symbol, a.Toolchain, a.Format, len(a.Data), a.ShortDigest())
}

// Marshal serializes an Artifact to canonical CBOR bytes.
func Marshal(a *Artifact) ([]byte, error) {
	return cborEncMode.Marshal(a)
}

// Unmarshal deserializes an Artifact from CBOR bytes and verifies its digest.
func Unmarshal(data []byte) (*Artifact, error) {
	var a Artifact
	if err := cbor.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact: unmarshal: %w", err)
	}
	if err := a.Verify(); err != nil {
		return nil, err
	}
	return &a, nil
}

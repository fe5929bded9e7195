// Package symbol locates the identifying symbol of a source submission: the
// name of the first type it declares. The symbol names the virtual
// compilation unit and keys the registry the compiled artifact is recovered
// from.
//
// Two extractors are provided. PatternExtractor is a single regular
// expression and will happily pick a name out of a comment or a string
// literal. ScanExtractor tokenises the text with go/scanner and only accepts
// a real type keyword. Nothing outside this package depends on which one is
// in use.
package symbol

import (
	"errors"
	"fmt"
	"go/scanner"
	"go/token"
	"regexp"
)

// ErrInvalidSubmission is returned when the text declares no type.
var ErrInvalidSubmission = errors.New("invalid submission: no type declaration found")

// Extractor returns the identifying symbol of src.
type Extractor interface {
	Extract(src string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(src string) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(src string) (string, error) { return f(src) }

// Names accepted by ByName.
const (
	NamePattern = "pattern"
	NameScan    = "scan"
)

// ByName returns the extractor configured under name. The empty name selects
// the scanner.
func ByName(name string) (Extractor, error) {
	switch name {
	case NameScan, "":
		return ScanExtractor{}, nil
	case NamePattern:
		return PatternExtractor{}, nil
	}
	return nil, fmt.Errorf("symbol: unknown extractor %q", name)
}

// ---------------------------------------------------------------------------
// PatternExtractor: one regular expression, first match wins
// ---------------------------------------------------------------------------

var typePattern = regexp.MustCompile(`\btype\s+([\p{L}_][\p{L}\p{Nd}_]*)`)

// PatternExtractor matches the keyword "type", whitespace, and an
// identifier anywhere in the text. It is line-oblivious and blind to
// comments and literals.
type PatternExtractor struct{}

// Extract implements Extractor.
func (PatternExtractor) Extract(src string) (string, error) {
	m := typePattern.FindStringSubmatch(src)
	if m == nil {
		return "", ErrInvalidSubmission
	}
	return m[1], nil
}

// ---------------------------------------------------------------------------
// ScanExtractor: lexical scan
// ---------------------------------------------------------------------------

// ScanExtractor returns the first identifier declared by a type keyword
// token, including the first name of a grouped declaration.
// Scanning errors are ignored; the toolchain reports them later.
type ScanExtractor struct{}

// Extract implements Extractor.
func (ScanExtractor) Extract(src string) (string, error) {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, []byte(src), nil, 0)

	afterType := false
	inGroup := false
	for {
		_, tok, lit := s.Scan()
		switch {
		case tok == token.EOF:
			return "", ErrInvalidSubmission
		case tok == token.TYPE:
			afterType, inGroup = true, false
		case afterType && tok == token.LPAREN && !inGroup:
			inGroup = true
		case afterType && tok == token.IDENT:
			return lit, nil
		default:
			afterType, inGroup = false, false
		}
	}
}

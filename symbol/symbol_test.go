package symbol

import (
	"errors"
	"testing"
)

const greeter = `package greeter

type Greeter struct{}

func (Greeter) Hello() string { return "hi" }
`

func TestExtractors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		pattern string
		scan    string
	}{
		{"simple", greeter, "Greeter", "Greeter"},
		{"one line", `package p; type Greeter struct{}; func (Greeter) Hello() string { return "hi" }`, "Greeter", "Greeter"},
		{"first of several", "package p\ntype A int\ntype B string\n", "A", "A"},
		{"tabs and newlines", "package p\ntype\n\t\tWide struct{}\n", "Wide", "Wide"},
		{"underscore", "package p\ntype _hidden int\n", "_hidden", "_hidden"},
		{"unicode", "package p\ntype Größe float64\n", "Größe", "Größe"},
		{"generic", "package p\ntype Box[T any] struct{ v T }\n", "Box", "Box"},
		{"grouped", "package p\ntype (\n\tFirst int\n\tSecond int\n)\n", "", "First"},
		// The pattern is blind to comments and literals; the scanner is not.
		{"comment first", "package p\n// type Ghost is gone\ntype Real int\n", "Ghost", "Real"},
		{"string first", "package p\nvar s = \"type Ghost\"\ntype Real int\n", "Ghost", "Real"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PatternExtractor{}.Extract(tt.src)
			if tt.pattern == "" {
				if !errors.Is(err, ErrInvalidSubmission) {
					t.Errorf("pattern: err = %v, want ErrInvalidSubmission", err)
				}
			} else if err != nil || got != tt.pattern {
				t.Errorf("pattern = %q, %v; want %q", got, err, tt.pattern)
			}

			got, err = ScanExtractor{}.Extract(tt.src)
			if err != nil || got != tt.scan {
				t.Errorf("scan = %q, %v; want %q", got, err, tt.scan)
			}
		})
	}
}

func TestExtractorsReject(t *testing.T) {
	inputs := []string{
		"not a class at all",
		"",
		"package p\nfunc typed() {}\n",
		"package p\nvar subtype = 1\n",
		"package p\nvar subtype Thing\n",
		"package p\ntype 9lives int\n",
	}
	for _, src := range inputs {
		for name, ex := range map[string]Extractor{"pattern": PatternExtractor{}, "scan": ScanExtractor{}} {
			if got, err := ex.Extract(src); !errors.Is(err, ErrInvalidSubmission) {
				t.Errorf("%s(%q) = %q, %v; want ErrInvalidSubmission", name, src, got, err)
			}
		}
	}
}

func TestScanExtractorIgnoresCommentOnly(t *testing.T) {
	src := "package p\n/* type Ghost int */\n// type Other int\n"
	if _, err := (ScanExtractor{}).Extract(src); !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("err = %v, want ErrInvalidSubmission", err)
	}
	if got, err := (PatternExtractor{}).Extract(src); err != nil || got != "Ghost" {
		t.Errorf("pattern = %q, %v; want Ghost", got, err)
	}
}

func TestPatternBoundaryIsASCII(t *testing.T) {
	// \b only knows ASCII word characters, so a non-ASCII letter before
	// "type" still counts as a boundary.
	if got, err := (PatternExtractor{}).Extract("package p\nvar étype Thing\n"); err != nil || got != "Thing" {
		t.Errorf("pattern = %q, %v; want Thing", got, err)
	}
	if _, err := (ScanExtractor{}).Extract("package p\nvar étype Thing\n"); !errors.Is(err, ErrInvalidSubmission) {
		t.Errorf("scan: err = %v, want ErrInvalidSubmission", err)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", NameScan} {
		ex, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q) failed: %v", name, err)
		}
		if _, ok := ex.(ScanExtractor); !ok {
			t.Errorf("ByName(%q) = %T, want ScanExtractor", name, ex)
		}
	}
	ex, err := ByName(NamePattern)
	if err != nil {
		t.Fatalf("ByName(pattern) failed: %v", err)
	}
	if _, ok := ex.(PatternExtractor); !ok {
		t.Errorf("ByName(pattern) = %T", ex)
	}
	if _, err := ByName("ast"); err == nil {
		t.Error("expected error for unknown extractor")
	}
}

func TestExtractorFunc(t *testing.T) {
	f := ExtractorFunc(func(string) (string, error) { return "Fixed", nil })
	if got, _ := f.Extract("anything"); got != "Fixed" {
		t.Errorf("got %q, want Fixed", got)
	}
}

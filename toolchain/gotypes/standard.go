package gotypes

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/tools/go/gcexportdata"
	"golang.org/x/tools/go/packages"

	"github.com/chazu/memc/toolchain"
)

// ---------------------------------------------------------------------------
// PackagesResolver: export data located by the go command
// ---------------------------------------------------------------------------

// PackagesResolver is the standard resolver of the Go toolchain. It answers
// LocationPlatform requests for compiled packages by asking go/packages for
// the export data file the go command built, and declines everything else.
// Located files are cached per resolver.
type PackagesResolver struct {
	dir string

	mu    sync.Mutex
	files map[string]string // import path -> export file
}

var _ toolchain.Resolver = (*PackagesResolver)(nil)

// NewPackagesResolver returns a resolver that runs the go command in dir.
func NewPackagesResolver(dir string) *PackagesResolver {
	return &PackagesResolver{
		dir:   dir,
		files: make(map[string]string),
	}
}

// ResolveInput implements toolchain.Resolver.
func (r *PackagesResolver) ResolveInput(ctx context.Context, loc toolchain.Location, name string, kind toolchain.Kind) (toolchain.InputFile, error) {
	if loc != toolchain.LocationPlatform || kind != toolchain.KindArtifact {
		return nil, toolchain.ErrNotFound
	}
	file, err := r.exportFile(ctx, name)
	if err != nil {
		return nil, err
	}
	return &exportFile{path: name, file: file}, nil
}

// ResolveOutput implements toolchain.Resolver. The standard resolver never
// provides output locations.
func (r *PackagesResolver) ResolveOutput(ctx context.Context, loc toolchain.Location, name string, kind toolchain.Kind, sibling toolchain.FileObject) (toolchain.OutputFile, error) {
	return nil, toolchain.ErrNotFound
}

func (r *PackagesResolver) exportFile(ctx context.Context, path string) (string, error) {
	r.mu.Lock()
	file, ok := r.files[path]
	r.mu.Unlock()
	if ok {
		return file, nil
	}

	cfg := &packages.Config{
		Mode:    packages.NeedName | packages.NeedExportFile,
		Context: ctx,
		Dir:     r.dir,
	}
	pkgs, err := packages.Load(cfg, path)
	if err != nil {
		return "", fmt.Errorf("gotypes: loading %s: %w", path, err)
	}
	if len(pkgs) == 0 {
		return "", fmt.Errorf("%w: no package for %s", toolchain.ErrNotFound, path)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		msgs := make([]string, len(pkg.Errors))
		for i, e := range pkg.Errors {
			msgs[i] = e.Msg
		}
		return "", fmt.Errorf("gotypes: %s: %s", path, strings.Join(msgs, "; "))
	}
	if pkg.ExportFile == "" {
		return "", fmt.Errorf("gotypes: no export data for %s", path)
	}
	log.Debugf("located export data for %s: %s", path, pkg.ExportFile)

	r.mu.Lock()
	r.files[path] = pkg.ExportFile
	r.mu.Unlock()
	return pkg.ExportFile, nil
}

// exportFile is compiler export data inside a build-cache file.
type exportFile struct {
	path string
	file string
}

func (f *exportFile) Name() string         { return f.path }
func (f *exportFile) URI() string          { return "file://" + f.file }
func (f *exportFile) Kind() toolchain.Kind { return toolchain.KindArtifact }

// Open returns a reader positioned at the export data section.
func (f *exportFile) Open() (io.ReadCloser, error) {
	fd, err := os.Open(f.file)
	if err != nil {
		return nil, err
	}
	r, err := gcexportdata.NewReader(bufio.NewReader(fd))
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("gotypes: reading export data for %s: %w", f.path, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{r, fd}, nil
}

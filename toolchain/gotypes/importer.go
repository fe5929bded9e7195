package gotypes

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"sync"

	"golang.org/x/tools/go/gcexportdata"

	"github.com/chazu/memc/toolchain"
)

// importer feeds go/types from export data found through a Resolver.
type importer struct {
	ctx      context.Context
	resolver toolchain.Resolver
	fset     *token.FileSet

	mu       sync.Mutex
	packages map[string]*types.Package
}

var _ types.ImporterFrom = (*importer)(nil)

func newImporter(ctx context.Context, r toolchain.Resolver, fset *token.FileSet) *importer {
	return &importer{
		ctx:      ctx,
		resolver: r,
		fset:     fset,
		packages: make(map[string]*types.Package),
	}
}

func (imp *importer) Import(path string) (*types.Package, error) {
	return imp.ImportFrom(path, "", 0)
}

func (imp *importer) ImportFrom(path, dir string, mode types.ImportMode) (*types.Package, error) {
	if path == "unsafe" {
		return types.Unsafe, nil
	}

	imp.mu.Lock()
	defer imp.mu.Unlock()

	if pkg, ok := imp.packages[path]; ok && pkg.Complete() {
		return pkg, nil
	}

	f, err := imp.resolver.ResolveInput(imp.ctx, toolchain.LocationPlatform, path, toolchain.KindArtifact)
	if err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	pkg, err := gcexportdata.Read(rc, imp.fset, imp.packages, path)
	if err != nil {
		return nil, fmt.Errorf("reading export data from %s: %w", f.URI(), err)
	}
	imp.packages[path] = pkg
	log.Debugf("imported %s from %s", path, f.URI())
	return pkg, nil
}

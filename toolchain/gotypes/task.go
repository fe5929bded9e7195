package gotypes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"sync"
	"sync/atomic"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/gcexportdata"

	"github.com/chazu/memc/toolchain"
)

var errTaskReused = errors.New("gotypes: task already called")

type task struct {
	req   toolchain.TaskRequest
	opts  Config
	sizes types.Sizes

	called    atomic.Bool
	abandoned atomic.Bool // set once Call has returned on a done context
	outMu     sync.Mutex
}

type taskResult struct {
	ok  bool
	err error
}

// Call runs the compilation on its own goroutine so that a cancelled ctx
// returns immediately even while the checker is still busy.
func (t *task) Call(ctx context.Context) (bool, error) {
	if !t.called.CompareAndSwap(false, true) {
		return false, errTaskReused
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	done := make(chan taskResult, 1)
	go func() {
		ok, err := t.run(ctx)
		done <- taskResult{ok, err}
	}()

	select {
	case r := <-done:
		return r.ok, r.err
	case <-ctx.Done():
		t.abandoned.Store(true)
		return false, ctx.Err()
	}
}

func (t *task) run(ctx context.Context) (bool, error) {
	fset := token.NewFileSet()

	files, ok, err := t.parse(ctx, fset)
	if err != nil || !ok {
		return false, err
	}

	path := t.opts.PackagePath
	if path == "" {
		path = files[0].Name.Name
	}

	failed := false
	conf := types.Config{
		GoVersion: t.opts.Lang,
		Importer:  newImporter(ctx, t.req.Resolver, fset),
		Sizes:     t.sizes,
		Error: func(err error) {
			failed = true
			t.reportTypeError(err)
		},
	}
	pkg, _ := conf.Check(path, fset, files, nil)
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if failed {
		log.Debugf("type check of %s failed", path)
		return false, nil
	}

	for _, u := range t.req.Units {
		if !token.IsExported(u.Name()) {
			t.report(toolchain.Diagnostic{
				Severity: toolchain.SevWarning,
				Code:     "export",
				Message:  fmt.Sprintf("type %s is not exported and will not appear in the export data", u.Name()),
				Pos:      toolchain.Position{File: u.URI()},
			})
		}
	}

	var data bytes.Buffer
	if err := gcexportdata.Write(&data, fset, pkg); err != nil {
		return false, fmt.Errorf("gotypes: writing export data for %s: %w", path, err)
	}
	if err := t.emit(ctx, data.Bytes()); err != nil {
		return false, err
	}
	log.Debugf("compiled %s (%d bytes of export data, %d unit(s))", path, data.Len(), len(t.req.Units))
	return true, nil
}

// parse parses every unit concurrently. ok is false when any unit has
// syntax errors; those are reported as diagnostics.
func (t *task) parse(ctx context.Context, fset *token.FileSet) ([]*ast.File, bool, error) {
	files := make([]*ast.File, len(t.req.Units))
	var syntaxErrors atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range t.req.Units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := u.Content()
			if err != nil {
				return fmt.Errorf("gotypes: reading %s: %w", u.URI(), err)
			}
			f, err := parser.ParseFile(fset, u.URI(), text, parser.AllErrors|parser.SkipObjectResolution)
			if err != nil {
				syntaxErrors.Store(true)
				t.reportSyntaxError(err)
				return nil
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return files, !syntaxErrors.Load(), nil
}

// emit writes data to the output object of every unit.
func (t *task) emit(ctx context.Context, data []byte) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range t.req.Units {
		g.Go(func() error {
			out, err := t.req.Resolver.ResolveOutput(gctx, toolchain.LocationOutput, u.Name(), toolchain.KindArtifact, u)
			if err != nil {
				return fmt.Errorf("gotypes: resolving output for %s: %w", u.Name(), err)
			}
			w, err := out.Create()
			if err != nil {
				return fmt.Errorf("gotypes: creating %s: %w", out.URI(), err)
			}
			if _, err := w.Write(data); err != nil {
				w.Close()
				return fmt.Errorf("gotypes: writing %s: %w", out.URI(), err)
			}
			return w.Close()
		})
	}
	return g.Wait()
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func (t *task) report(d toolchain.Diagnostic) {
	if t.abandoned.Load() {
		return
	}
	if t.req.Diagnostics != nil {
		t.req.Diagnostics.Report(d)
		return
	}
	if t.req.Out != nil {
		t.outMu.Lock()
		fmt.Fprintln(t.req.Out, d.String())
		t.outMu.Unlock()
	}
}

func (t *task) reportSyntaxError(err error) {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		t.report(toolchain.Diagnostic{Severity: toolchain.SevError, Code: "syntax", Message: err.Error()})
		return
	}
	for _, e := range list {
		t.report(toolchain.Diagnostic{
			Severity: toolchain.SevError,
			Code:     "syntax",
			Message:  e.Msg,
			Pos:      position(e.Pos),
		})
	}
}

func (t *task) reportTypeError(err error) {
	var te types.Error
	if !errors.As(err, &te) {
		t.report(toolchain.Diagnostic{Severity: toolchain.SevError, Code: "type", Message: err.Error()})
		return
	}
	t.report(toolchain.Diagnostic{
		Severity: toolchain.SevError,
		Code:     "type",
		Message:  te.Msg,
		Pos:      position(te.Fset.Position(te.Pos)),
	})
}

func position(p token.Position) toolchain.Position {
	pos := toolchain.Position{File: p.Filename}
	if line, err := safecast.Conv[uint32](p.Line); err == nil {
		pos.Line = line
	}
	if col, err := safecast.Conv[uint32](p.Column); err == nil {
		pos.Column = col
	}
	return pos
}

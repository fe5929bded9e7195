package compiler

import (
	"context"
	"sync/atomic"

	"github.com/chazu/memc/toolchain"
)

// fakeToolchain runs fn as the body of every task.
type fakeToolchain struct {
	fn    func(ctx context.Context, req toolchain.TaskRequest) (bool, error)
	tasks atomic.Int32
}

func (f *fakeToolchain) Name() string { return "fake" }

func (f *fakeToolchain) StandardResolver(toolchain.Listener) (toolchain.Resolver, error) {
	return nil, nil
}

func (f *fakeToolchain) NewTask(req toolchain.TaskRequest) (toolchain.Task, error) {
	f.tasks.Add(1)
	return fakeTask{req: req, fn: f.fn}, nil
}

type fakeTask struct {
	req toolchain.TaskRequest
	fn  func(ctx context.Context, req toolchain.TaskRequest) (bool, error)
}

func (t fakeTask) Call(ctx context.Context) (bool, error) { return t.fn(ctx, t.req) }

// writeOutput asks the resolver for the unit's output and writes chunks
// to it.
func writeOutput(ctx context.Context, req toolchain.TaskRequest, chunks ...string) error {
	unit := req.Units[0]
	out, err := req.Resolver.ResolveOutput(ctx, toolchain.LocationOutput, unit.Name(), toolchain.KindArtifact, unit)
	if err != nil {
		return err
	}
	w, err := out.Create()
	if err != nil {
		return err
	}
	for _, c := range chunks {
		if _, err := w.Write([]byte(c)); err != nil {
			return err
		}
	}
	return w.Close()
}

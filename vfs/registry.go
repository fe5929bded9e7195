package vfs

import (
	"sort"
	"sync"

	"github.com/chazu/memc/toolchain"
)

// ---------------------------------------------------------------------------
// Registry: symbol -> in-memory file object
// ---------------------------------------------------------------------------

// Registry maps identifying symbols (and library import paths) to the
// in-memory objects a MemoryResolver hands out. It is safe for concurrent
// use. There is no eviction; a registry is meant to live for one
// compilation and be dropped with it.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]toolchain.FileObject
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[string]toolchain.FileObject)}
}

// Put stores obj under name, replacing any previous entry.
func (r *Registry) Put(name string, obj toolchain.FileObject) {
	r.mu.Lock()
	r.objects[name] = obj
	r.mu.Unlock()
}

// Get returns the object stored under name.
func (r *Registry) Get(name string) (toolchain.FileObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	return obj, ok
}

// Sink returns the output sink stored under name, if the entry is one.
func (r *Registry) Sink(name string) (*Sink, bool) {
	obj, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	s, ok := obj.(*Sink)
	return s, ok
}

// Delete removes the entry for name.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	delete(r.objects, name)
	r.mu.Unlock()
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

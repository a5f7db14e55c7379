package manuscript

import (
	"context"
	"sync"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/filecache"
)

// registryKey identifies one memoized root Manuscript: spec §4.5/§6
// key a tree by (root filename, format) since the same file can, in
// principle, be opened under different formats.
type registryKey struct {
	filename string
	format   string
}

// Registry memoizes root Manuscripts process-wide, single-owner
// within the core (spec §5 "Manuscript memoization ... is likewise
// single-owner. No locks are required because no parallelism is
// introduced within the core." — the mutex here guards against the
// protocol shell's own goroutines, e.g. a transport reading while a
// request handler writes, without claiming the core itself is
// reentrant).
type Registry struct {
	mu    sync.Mutex
	roots map[registryKey]*Node

	cache  *filecache.Cache
	loader *dictionary.Loader

	maxDepth int
}

// NewRegistry creates an empty registry backed by cache and loader.
func NewRegistry(cache *filecache.Cache, loader *dictionary.Loader, maxDepth int) *Registry {
	return &Registry{
		roots:    make(map[registryKey]*Node),
		cache:    cache,
		loader:   loader,
		maxDepth: maxDepth,
	}
}

// Get returns the memoized root Manuscript for (filename, format),
// constructing it if absent.
func (r *Registry) Get(ctx context.Context, filename, format string) (*Node, error) {
	key := registryKey{filename: filename, format: format}

	r.mu.Lock()
	if n, ok := r.roots[key]; ok {
		r.mu.Unlock()
		return n, nil
	}
	r.mu.Unlock()

	n, err := NewRoot(ctx, r.cache, r.loader, filename, format, r.maxDepth)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.roots[key] = n
	r.mu.Unlock()
	return n, nil
}

// Refresh reconciles the memoized root for (filename, format) with
// the cache, if one exists.
func (r *Registry) Refresh(ctx context.Context, filename, format string) (bool, error) {
	r.mu.Lock()
	n, ok := r.roots[registryKey{filename: filename, format: format}]
	r.mu.Unlock()
	if !ok {
		return false, nil
	}
	return n.Refresh(ctx)
}

// Forget discards every memoized root for filename, regardless of
// format — did_close(filename) forgets the file and its root (spec
// §6), and a format change is handled the same way since the key
// includes format.
func (r *Registry) Forget(filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.roots {
		if key.filename == filename {
			delete(r.roots, key)
		}
	}
}

// RootFor returns the Manuscript node for filename itself — either a
// memoized root keyed on filename, or the node for filename inside a
// memoized root's include graph. Used by query operations, which
// address files by name rather than by (root, format).
func (r *Registry) RootFor(filename string) (*Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, n := range r.roots {
		if key.filename == filename {
			return n, true
		}
		if child, ok := findDescendant(n, filename); ok {
			return child, true
		}
	}
	return nil, false
}

func findDescendant(n *Node, filename string) (*Node, bool) {
	if n.Filename == filename {
		return n, true
	}
	for _, child := range n.Children {
		if found, ok := findDescendant(child, filename); ok {
			return found, true
		}
	}
	return nil, false
}

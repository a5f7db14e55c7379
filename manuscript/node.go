// Package manuscript implements the per-file document graph of spec
// §3–§4.4: a Node per source file, linked by \input-like commands,
// carrying parsed extracts and a scoped view of the active command and
// environment tables inherited from its parent.
package manuscript

import (
	"context"
	"path/filepath"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/filecache"
	lerrors "github.com/mava/digestif/internal/errors"
	"github.com/mava/digestif/internal/logging"
	"github.com/mava/digestif/internal/span"
)

// DefaultMaxDepth is the cycle-guard cap on the include graph (spec
// §3 Invariants).
const DefaultMaxDepth = 15

// Record is one {pos, name} entry in an extracted index (spec §3:
// "each an ordered list of {pos, name, ...} records ordered by pos").
type Record struct {
	Pos  span.Pos
	Name string
}

// OutlineNode is one heading in the outline tree, nested by heading
// level (spec §3 Outline nesting invariant: each descendant's level is
// strictly greater than its ancestor's).
type OutlineNode struct {
	Pos      span.Pos
	Level    int
	Title    string
	Children []*OutlineNode
}

// InputRecord is one resolved \input-like reference.
type InputRecord struct {
	Pos      span.Pos
	Name     string // as written in the source
	Resolved string // absolute path in the cache
}

// Node is one Manuscript node: a source file plus everything
// global_scan extracted from it, and the children \input-like
// references to other files resolved into.
type Node struct {
	Filename string
	Format   string
	Parent   *Node
	Depth    int
	Src      string

	scope *Scope

	Labels       []Record
	Bibitems     []Record
	Outline      []*OutlineNode
	InputIndex   []InputRecord
	LabelIndex   []Record
	SectionIndex []Record

	Children map[string]*Node

	cache    *filecache.Cache
	loader   *dictionary.Loader
	maxDepth int

	// outlineStack tracks open headings during global_scan, most
	// recent shallower heading last (top of stack is the current
	// parent for nesting).
	outlineStack []*OutlineNode
}

// NewRoot creates a root Manuscript for filename, running the full
// three-step construction of spec §4.4: establish scopes, load the
// format module, run global_scan. format names the entry module to
// load (e.g. "latex"); its dependencies are loaded transitively and
// merged into the root's scope.
func NewRoot(ctx context.Context, cache *filecache.Cache, loader *dictionary.Loader, filename, format string, maxDepth int) (*Node, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	n := &Node{
		Filename: filename,
		Format:   format,
		Depth:    1,
		scope:    newScope(nil),
		Children: make(map[string]*Node),
		cache:    cache,
		loader:   loader,
		maxDepth: maxDepth,
	}

	if err := n.loadFormatModule(format); err != nil {
		return nil, err
	}

	src, err := cache.Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	n.Src = src

	n.globalScan(ctx)
	return n, nil
}

// newChild constructs a child Manuscript for resolvedFilename, parented
// at n, inheriting n's scope by fallback (not by copy). Depth beyond
// maxDepth is refused by the caller (global_scan's input handling)
// before newChild is ever invoked.
func (n *Node) newChild(ctx context.Context, resolvedFilename string) (*Node, error) {
	child := &Node{
		Filename: resolvedFilename,
		Format:   n.Format,
		Parent:   n,
		Depth:    n.Depth + 1,
		scope:    newScope(n.scope),
		Children: make(map[string]*Node),
		cache:    n.cache,
		loader:   n.loader,
		maxDepth: n.maxDepth,
	}

	src, err := n.cache.Get(ctx, resolvedFilename)
	if err != nil {
		return nil, err
	}
	child.Src = src
	child.globalScan(ctx)
	return child, nil
}

// loadFormatModule loads format's module and merges it (and its
// transitive dependencies) into n's own scope (spec §4.4 construction
// step 2).
func (n *Node) loadFormatModule(format string) error {
	return n.mergeModuleTransitively(format, make(map[string]bool))
}

func (n *Node) mergeModuleTransitively(name string, seen map[string]bool) error {
	if seen[name] {
		return nil
	}
	seen[name] = true

	m, err := n.loader.LoadModule(name)
	if err != nil {
		return lerrors.Wrapf(err, "loading module %q", name)
	}
	for _, dep := range m.Dependencies {
		if err := n.mergeModuleTransitively(dep, seen); err != nil {
			logging.Warnw("dependency module failed to load", "module", name, "dependency", dep, "error", err)
			continue
		}
	}
	n.scope.mergeModule(m)
	return nil
}

// AllCommandNames returns every command name visible at n, own plus
// inherited from its scope chain (used by completion inside a
// command-name position, spec §4.6).
func (n *Node) AllCommandNames() []string {
	return n.scope.AllCommandNames()
}

// Root returns the top ancestor of n's include tree.
func (n *Node) Root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// resolvePath resolves a child filename relative to n's own
// directory, as an absolute path (spec §3 Invariants).
func (n *Node) resolvePath(relOrAbs string) string {
	if filepath.IsAbs(relOrAbs) {
		return filepath.Clean(relOrAbs)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(n.Filename), relOrAbs))
}

// Package lspcore is the protocol-facing shell of spec §6: it converts
// between 0-based (line, character) editor coordinates and the 1-based
// byte offsets the rest of the module speaks, and wires together
// FileCache, the Manuscript registry, and the query layer into the six
// operations a transport (package server) calls.
package lspcore

import (
	"context"

	"github.com/mava/digestif/dictionary"
	"github.com/mava/digestif/filecache"
	lerrors "github.com/mava/digestif/internal/errors"
	"github.com/mava/digestif/manuscript"
	"github.com/mava/digestif/query"
)

// Core owns the FileCache and the Manuscript registry for one running
// server process (spec §5: "single-owner ... callers serialize access
// the same way the protocol shell serializes editor requests").
type Core struct {
	Cache    *filecache.Cache
	Registry *manuscript.Registry

	// Loader is exposed so the CLI can attach a dictionary.Watcher to
	// it; Core itself never watches the filesystem.
	Loader *dictionary.Loader

	// Options configures domain-specific completion behavior shared
	// across every open file.
	Options query.Options
}

// New creates a Core backed by a fresh FileCache and Manuscript
// registry, loading dictionary modules from dictionaryDir (in addition
// to the embedded defaults) and capping include depth at maxDepth (0
// selects manuscript.DefaultMaxDepth).
func New(dictionaryDir string, maxDepth int, searchPath []string) *Core {
	cache := filecache.New()
	loader := dictionary.NewLoader(dictionaryDir)
	return &Core{
		Cache:    cache,
		Registry: manuscript.NewRegistry(cache, loader, maxDepth),
		Loader:   loader,
		Options:  query.Options{SearchPath: searchPath},
	}
}

// DidOpen registers filename's text under the given format and
// constructs (or reuses) its root Manuscript (spec §6 did_open).
func (c *Core) DidOpen(ctx context.Context, filename, text, format string, version int) error {
	c.Cache.Put(filename, text)
	c.Cache.PutProperty(filename, "version", version)
	_, err := c.Registry.Get(ctx, filename, format)
	return err
}

// Change is one did_change content change: either a full-text
// replacement (Range == nil) or an incremental edit (spec §6).
type Change struct {
	Range       *ChangeRange
	RangeLength int
	Text        string
}

// ChangeRange is a 0-based (line, character) span, as sent by the
// protocol.
type ChangeRange struct {
	StartLine, StartChar int
	EndLine, EndChar     int
}

// DidChange applies changes in order and, if any of them succeed in
// altering the text, refreshes filename's Manuscript tree (spec §6
// did_change). An incremental edit whose declared RangeLength
// disagrees with the indexed span returns ErrRangeMismatch without
// applying it or any later change, leaving the file's text exactly as
// it was before that change (spec §7 Propagation).
func (c *Core) DidChange(ctx context.Context, filename string, changes []Change, version int) error {
	for _, ch := range changes {
		if ch.Range == nil {
			c.Cache.Put(filename, ch.Text)
			continue
		}
		if err := c.Cache.ApplyIncrementalEdit(
			filename,
			ch.Range.StartLine+1, ch.Range.StartChar+1,
			ch.Range.EndLine+1, ch.Range.EndChar+1,
			ch.RangeLength, ch.Text,
		); err != nil {
			// Earlier changes in this batch may already be applied.
			if n, ok := c.Registry.RootFor(filename); ok {
				_, _ = n.Refresh(ctx)
			}
			return err
		}
	}
	c.Cache.PutProperty(filename, "version", version)

	// filename may be a root or a non-root file reached only via
	// \input; either way RootFor resolves the Manuscript node for
	// exactly this file, and Refresh rescans it against the cache.
	if n, ok := c.Registry.RootFor(filename); ok {
		if _, err := n.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DidClose forgets filename's cached text and every Manuscript root
// keyed on it (spec §6 did_close).
func (c *Core) DidClose(filename string) {
	c.Cache.Forget(filename)
	c.Registry.Forget(filename)
}

// Hover is the reply to hover(filename, line, char): plain contents
// text, or absent (spec §6).
type Hover struct {
	Contents string
}

// Hover resolves the node containing filename and renders get_help at
// the given 0-based position (spec §6 hover).
func (c *Core) Hover(filename string, line, char int) (*Hover, bool, error) {
	n, pos, ok, err := c.resolve(filename, line, char)
	if err != nil || !ok {
		return nil, false, err
	}
	help, ok := query.GetHelp(n, pos)
	if !ok {
		return nil, false, nil
	}
	return &Hover{Contents: renderHoverText(help)}, true, nil
}

func renderHoverText(h *query.Help) string {
	text := h.Text
	if h.Documentation != "" {
		text += " — " + h.Documentation
	}
	return text
}

// SignatureHelp is the reply to signature_help(filename, line, char)
// (spec §6), a thin re-export of query.SignatureResult.
type SignatureHelp = query.SignatureResult

// SignatureHelp resolves the node containing filename and runs
// signature_help at the given 0-based position.
func (c *Core) SignatureHelp(filename string, line, char int) (*SignatureHelp, bool, error) {
	n, pos, ok, err := c.resolve(filename, line, char)
	if err != nil || !ok {
		return nil, false, err
	}
	return query.SignatureHelp(n, pos)
}

// CompletionItem is one reply entry for completion(filename, line,
// char) (spec §6): {label, filterText, documentation, detail,
// insertTextFormat, textEdit}.
type CompletionItem struct {
	Label         string
	FilterText    string
	Documentation string
	Detail        string
	Snippet       bool
	NewText       string
	EditStartLine int
	EditStartChar int
	EditEndLine   int
	EditEndChar   int
}

// Completion resolves the node containing filename and runs complete
// at the given 0-based position, translating the replacement range
// back to 0-based (line, character) for the textEdit.
func (c *Core) Completion(ctx context.Context, filename string, line, char int) ([]CompletionItem, bool, error) {
	n, pos, ok, err := c.resolve(filename, line, char)
	if err != nil || !ok {
		return nil, false, err
	}
	result, ok := query.Complete(ctx, n, pos, c.Options)
	if !ok {
		return nil, false, nil
	}

	startLine, startChar, err := c.Cache.GetLineCol(filename, result.Pos)
	if err != nil {
		return nil, false, err
	}

	items := make([]CompletionItem, len(result.Candidates))
	for i, cand := range result.Candidates {
		text := cand.Text
		snippet := cand.Snippet != ""
		if snippet {
			text = cand.Snippet
		}
		items[i] = CompletionItem{
			Label:         cand.Text,
			FilterText:    cand.FilterText,
			Documentation: cand.Summary,
			Detail:        cand.Detail,
			Snippet:       snippet,
			NewText:       text,
			EditStartLine: startLine - 1,
			EditStartChar: startChar - 1,
			EditEndLine:   line,
			EditEndChar:   char,
		}
	}
	return items, true, nil
}

// resolve converts a (filename, 0-based line, 0-based char) editor
// position into (the Manuscript node for filename, 1-based byte
// offset). Returns ok == false, err == nil if filename is not open or
// cannot be resolved to a Manuscript — the caller then returns an
// "absent" reply rather than an error (spec §7 Propagation).
func (c *Core) resolve(filename string, line, char int) (*manuscript.Node, int, bool, error) {
	n, ok := c.Registry.RootFor(filename)
	if !ok {
		return nil, 0, false, nil
	}
	pos, err := c.Cache.GetPosition(filename, line+1, char+1)
	if err != nil {
		if lerrors.IsUnknownFile(err) {
			return nil, 0, false, nil
		}
		return nil, 0, false, err
	}
	return n, pos, true, nil
}
